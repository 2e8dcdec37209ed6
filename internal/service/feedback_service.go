package service

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edcetra/backoffice-api/internal/models"
	appErrors "github.com/edcetra/backoffice-api/pkg/errors"
)

type scheduleDateLister interface {
	ListByDate(ctx context.Context, date string) ([]models.Schedule, error)
}

type feedbackStore interface {
	Create(ctx context.Context, feedback *models.Feedback) error
	List(ctx context.Context, filter models.FeedbackFilter) ([]models.Feedback, int, error)
}

// SubmitFeedbackRequest describes a student feedback submission. The schedule
// row is resolved from (scheduleType, lectureDate, session) before persisting.
type SubmitFeedbackRequest struct {
	ScheduleType     string  `json:"schedule_type" validate:"required"`
	LectureDate      string  `json:"lecture_date" validate:"required"`
	Session          string  `json:"session"`
	StudentID        string  `json:"student_id" validate:"required"`
	StudentName      *string `json:"student_name"`
	StudentEmail     *string `json:"student_email" validate:"omitempty,email"`
	Topic            string  `json:"topic"`
	ContentRating    int     `json:"content_rating" validate:"required,min=1,max=5"`
	InstructorRating int     `json:"instructor_rating" validate:"required,min=1,max=5"`
	Comments         *string `json:"comments"`
}

// FeedbackService resolves student date/session selections to concrete
// schedule rows and persists the resulting feedback records.
type FeedbackService struct {
	schedules map[models.ScheduleType]scheduleDateLister
	store     feedbackStore
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFeedbackService constructs the service.
func NewFeedbackService(lvc, lvrc scheduleDateLister, store feedbackStore, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *FeedbackService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FeedbackService{
		schedules: map[models.ScheduleType]scheduleDateLister{
			models.ScheduleTypeLVC:  lvc,
			models.ScheduleTypeLVRC: lvrc,
		},
		store:     store,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

func (s *FeedbackService) lister(scheduleType models.ScheduleType) (scheduleDateLister, error) {
	lister, ok := s.schedules[scheduleType]
	if !ok || lister == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown schedule type %q", scheduleType))
	}
	return lister, nil
}

// Resolve finds the schedule row a (date, session) selection refers to.
// With no session given, the earliest session of the day wins. When several
// rows share one bucket, the earliest start time wins; this tie-break is a
// documented contract, repeated calls always return the same row.
func (s *FeedbackService) Resolve(ctx context.Context, scheduleType models.ScheduleType, date string, session *models.Session) (*models.Schedule, error) {
	lister, err := s.lister(scheduleType)
	if err != nil {
		return nil, err
	}

	rows, err := lister.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedules for date")
	}
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNoScheduleForDate, fmt.Sprintf("no %s schedule on %s", scheduleType, date))
	}

	if session == nil {
		// Rows arrive ordered ascending by start time.
		return &rows[0], nil
	}

	for i := range rows {
		if models.ClassifySession(rows[i].StartTime) == *session {
			return &rows[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNoScheduleForSession, fmt.Sprintf("no %s schedule in the %s session on %s", scheduleType, *session, date))
}

// AvailableSessions returns the buckets actually populated on a date, in
// fixed bucket order. The feedback form restricts its session options to
// this set so a shown option always resolves.
func (s *FeedbackService) AvailableSessions(ctx context.Context, scheduleType models.ScheduleType, date string) ([]models.Session, error) {
	lister, err := s.lister(scheduleType)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("sessions:%s:%s", scheduleType, date)
	var hit []models.Session
	if ok, _ := s.cache.Get(ctx, key, &hit); ok {
		return hit, nil
	}

	rows, err := lister.ListByDate(ctx, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedules for date")
	}

	populated := make(map[models.Session]bool, 4)
	for i := range rows {
		populated[models.ClassifySession(rows[i].StartTime)] = true
	}

	sessions := make([]models.Session, 0, len(populated))
	for _, bucket := range []models.Session{models.SessionMorning, models.SessionAfternoon, models.SessionEvening, models.SessionUnclassified} {
		if populated[bucket] {
			sessions = append(sessions, bucket)
		}
	}

	_ = s.cache.Set(ctx, key, sessions, 0)
	return sessions, nil
}

// Submit resolves the referenced schedule and persists the feedback record.
// Records are immutable once stored.
func (s *FeedbackService) Submit(ctx context.Context, req SubmitFeedbackRequest) (*models.Feedback, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid feedback payload")
	}

	scheduleType, err := models.ParseScheduleType(req.ScheduleType)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}

	var session *models.Session
	if req.Session != "" {
		parsed, ok := models.ParseSession(req.Session)
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown session %q", req.Session))
		}
		session = &parsed
	}

	schedule, err := s.Resolve(ctx, scheduleType, req.LectureDate, session)
	if err != nil {
		return nil, err
	}

	feedback := models.Feedback{
		ScheduleID:       schedule.ID,
		ScheduleType:     scheduleType,
		StudentID:        req.StudentID,
		StudentName:      req.StudentName,
		StudentEmail:     req.StudentEmail,
		LectureDate:      req.LectureDate,
		Session:          models.ClassifySession(schedule.StartTime),
		Subject:          schedule.SubjectName,
		Instructor:       schedule.InstructorName,
		Topic:            req.Topic,
		ContentRating:    req.ContentRating,
		InstructorRating: req.InstructorRating,
		Comments:         req.Comments,
	}
	if feedback.Topic == "" {
		feedback.Topic = schedule.Title
	}

	if err := s.store.Create(ctx, &feedback); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store feedback")
	}
	return &feedback, nil
}

// List returns feedback records for admin review.
func (s *FeedbackService) List(ctx context.Context, filter models.FeedbackFilter) ([]models.Feedback, *models.Pagination, error) {
	records, total, err := s.store.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list feedback")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return records, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}
