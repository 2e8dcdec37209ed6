package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edcetra/backoffice-api/internal/models"
	"github.com/edcetra/backoffice-api/internal/repository"
	appErrors "github.com/edcetra/backoffice-api/pkg/errors"
)

type scheduleRepository interface {
	Create(ctx context.Context, schedule *models.Schedule) error
	FindByID(ctx context.Context, id string) (*models.Schedule, error)
	List(ctx context.Context, filter models.ScheduleFilter) ([]models.Schedule, int, error)
	ListBySubject(ctx context.Context, subjectID string) ([]models.Schedule, error)
	ListByDate(ctx context.Context, date string) ([]models.Schedule, error)
	Update(ctx context.Context, id string, params repository.UpdateScheduleParams) (int64, error)
	Delete(ctx context.Context, id string) (int64, error)
}

type subjectReader interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

type revisionDeriver interface {
	DeriveRevisions(ctx context.Context, lvc *models.Schedule) (int, error)
}

// CreateScheduleRequest describes payload for creating a schedule.
type CreateScheduleRequest struct {
	SubjectID      string  `json:"subject_id" validate:"required"`
	Title          string  `json:"title" validate:"required"`
	Description    *string `json:"description"`
	ScheduledDate  string  `json:"scheduled_date" validate:"required"`
	StartTime      string  `json:"start_time" validate:"required"`
	EndTime        string  `json:"end_time" validate:"required"`
	InstructorName string  `json:"instructor_name"`
	MeetingLink    *string `json:"meeting_link"`
	Capacity       int     `json:"capacity" validate:"min=0"`
	// RelatedLVCID is honored only on the standalone LVRC creation path.
	RelatedLVCID *string `json:"related_lvc_schedule_id"`
}

// UpdateScheduleRequest updates an existing schedule. All fields optional.
type UpdateScheduleRequest struct {
	SubjectID      *string `json:"subject_id"`
	Title          *string `json:"title"`
	Description    *string `json:"description"`
	ScheduledDate  *string `json:"scheduled_date"`
	StartTime      *string `json:"start_time"`
	EndTime        *string `json:"end_time"`
	InstructorName *string `json:"instructor_name"`
	MeetingLink    *string `json:"meeting_link"`
	Capacity       *int    `json:"capacity" validate:"omitempty,min=0"`
}

// ScheduleService coordinates live and revision class scheduling.
type ScheduleService struct {
	repos     map[models.ScheduleType]scheduleRepository
	subjects  subjectReader
	deriver   revisionDeriver
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewScheduleService instantiates ScheduleService. The deriver runs after
// successful LVC creation; pass nil to disable fan-out (tests only).
func NewScheduleService(lvc, lvrc scheduleRepository, subjects subjectReader, deriver revisionDeriver, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{
		repos: map[models.ScheduleType]scheduleRepository{
			models.ScheduleTypeLVC:  lvc,
			models.ScheduleTypeLVRC: lvrc,
		},
		subjects:  subjects,
		deriver:   deriver,
		cache:     cache,
		validator: validate,
		logger:    logger,
	}
}

func (s *ScheduleService) repo(scheduleType models.ScheduleType) (scheduleRepository, error) {
	repo, ok := s.repos[scheduleType]
	if !ok || repo == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown schedule type %q", scheduleType))
	}
	return repo, nil
}

// Create validates and inserts a new schedule. Creating an LVC additionally
// triggers the revision fan-out; fan-out failures are logged server-side and
// never fail the creation.
func (s *ScheduleService) Create(ctx context.Context, scheduleType models.ScheduleType, req CreateScheduleRequest) (*models.Schedule, error) {
	repo, err := s.repo(scheduleType)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	startTime, endTime, err := validateSessionWindow(req.ScheduledDate, req.StartTime, req.EndTime)
	if err != nil {
		return nil, err
	}

	if _, err := s.subjects.FindByID(ctx, req.SubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "subject does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify subject")
	}

	schedule := models.Schedule{
		SubjectID:      req.SubjectID,
		Title:          req.Title,
		Description:    req.Description,
		ScheduledDate:  req.ScheduledDate,
		StartTime:      startTime,
		EndTime:        endTime,
		InstructorName: req.InstructorName,
		MeetingLink:    req.MeetingLink,
		Capacity:       req.Capacity,
		ScheduleType:   scheduleType,
	}
	if scheduleType == models.ScheduleTypeLVRC {
		schedule.RelatedLVCID = req.RelatedLVCID
	}

	if err := repo.Create(ctx, &schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule")
	}

	if scheduleType == models.ScheduleTypeLVC && s.deriver != nil {
		if _, err := s.deriver.DeriveRevisions(ctx, &schedule); err != nil {
			s.logger.Error("revision derivation failed, live class kept",
				zap.String("lvc_id", schedule.ID),
				zap.Error(err))
		}
	}

	s.invalidateCaches(ctx)
	return &schedule, nil
}

// Get returns one schedule by id.
func (s *ScheduleService) Get(ctx context.Context, scheduleType models.ScheduleType, id string) (*models.Schedule, error) {
	repo, err := s.repo(scheduleType)
	if err != nil {
		return nil, err
	}
	schedule, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	return schedule, nil
}

// List returns schedules with pagination metadata. When cached, the cache key
// covers the full filter so session and listing views never disagree.
func (s *ScheduleService) List(ctx context.Context, scheduleType models.ScheduleType, filter models.ScheduleFilter) ([]models.Schedule, *models.Pagination, error) {
	repo, err := s.repo(scheduleType)
	if err != nil {
		return nil, nil, err
	}

	type cached struct {
		Schedules  []models.Schedule `json:"schedules"`
		Pagination models.Pagination `json:"pagination"`
	}
	key := fmt.Sprintf("schedules:%s:%s:%s:%s:%s:%d:%d", scheduleType, filter.SubjectID, filter.DateFrom, filter.DateTo, filter.SortOrder, filter.Page, filter.PageSize)
	var hit cached
	if ok, _ := s.cache.Get(ctx, key, &hit); ok {
		return hit.Schedules, &hit.Pagination, nil
	}

	schedules, total, err := repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}

	_ = s.cache.Set(ctx, key, cached{Schedules: schedules, Pagination: *pagination}, 0)
	return schedules, pagination, nil
}

// ListBySubject returns a subject's upcoming and past sessions in ascending order.
func (s *ScheduleService) ListBySubject(ctx context.Context, scheduleType models.ScheduleType, subjectID string) ([]models.Schedule, error) {
	repo, err := s.repo(scheduleType)
	if err != nil {
		return nil, err
	}
	schedules, err := repo.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subject schedules")
	}
	return schedules, nil
}

// Update applies a partial update and returns the number of affected rows.
func (s *ScheduleService) Update(ctx context.Context, scheduleType models.ScheduleType, id string, req UpdateScheduleRequest) (int64, error) {
	repo, err := s.repo(scheduleType)
	if err != nil {
		return 0, err
	}
	if err := s.validator.Struct(req); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	existing, err := repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
		}
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}

	// The window invariant holds against the merged row, not just the patch.
	date := existing.ScheduledDate
	if req.ScheduledDate != nil {
		date = *req.ScheduledDate
	}
	start := existing.StartTime
	if req.StartTime != nil {
		start = *req.StartTime
	}
	end := existing.EndTime
	if req.EndTime != nil {
		end = *req.EndTime
	}
	normalizedStart, normalizedEnd, err := validateSessionWindow(date, start, end)
	if err != nil {
		return 0, err
	}
	if req.StartTime != nil {
		req.StartTime = &normalizedStart
	}
	if req.EndTime != nil {
		req.EndTime = &normalizedEnd
	}

	if req.SubjectID != nil {
		if _, err := s.subjects.FindByID(ctx, *req.SubjectID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return 0, appErrors.Clone(appErrors.ErrValidation, "subject does not exist")
			}
			return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to verify subject")
		}
	}

	affected, err := repo.Update(ctx, id, repository.UpdateScheduleParams{
		SubjectID:      req.SubjectID,
		Title:          req.Title,
		Description:    req.Description,
		ScheduledDate:  req.ScheduledDate,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		InstructorName: req.InstructorName,
		MeetingLink:    req.MeetingLink,
		Capacity:       req.Capacity,
	})
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update schedule")
	}

	s.invalidateCaches(ctx)
	return affected, nil
}

// Delete removes a schedule entry and returns the number of affected rows.
func (s *ScheduleService) Delete(ctx context.Context, scheduleType models.ScheduleType, id string) (int64, error) {
	repo, err := s.repo(scheduleType)
	if err != nil {
		return 0, err
	}
	affected, err := repo.Delete(ctx, id)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule")
	}
	if affected == 0 {
		return 0, appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
	}

	s.invalidateCaches(ctx)
	return affected, nil
}

func (s *ScheduleService) invalidateCaches(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, "schedules:*")
	_ = s.cache.Invalidate(ctx, "sessions:*")
}

// validateSessionWindow normalizes clock values and enforces the same-day
// session invariant rejected at create/update time: endTime > startTime.
func validateSessionWindow(date, startTime, endTime string) (string, string, error) {
	start, err := models.CombineDateTime(date, startTime)
	if err != nil {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "invalid scheduled date or start time")
	}
	end, err := models.CombineDateTime(date, endTime)
	if err != nil {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "invalid scheduled date or end time")
	}
	if !end.After(start) {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}
	return start.Format(models.TimeLayout), end.Format(models.TimeLayout), nil
}
