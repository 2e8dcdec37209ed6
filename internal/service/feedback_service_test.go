package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edcetra/backoffice-api/internal/models"
	appErrors "github.com/edcetra/backoffice-api/pkg/errors"
)

type mockDateLister struct {
	rows map[string][]models.Schedule
	err  error
}

func (m *mockDateLister) ListByDate(ctx context.Context, date string) ([]models.Schedule, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rows[date], nil
}

type mockFeedbackStore struct {
	created []models.Feedback
	err     error
}

func (m *mockFeedbackStore) Create(ctx context.Context, feedback *models.Feedback) error {
	if m.err != nil {
		return m.err
	}
	feedback.ID = "fb-1"
	cp := *feedback
	m.created = append(m.created, cp)
	return nil
}

func (m *mockFeedbackStore) List(ctx context.Context, filter models.FeedbackFilter) ([]models.Feedback, int, error) {
	return m.created, len(m.created), nil
}

func scheduleRow(id, date, start string) models.Schedule {
	return models.Schedule{
		ID:             id,
		SubjectID:      "s1",
		SubjectName:    "Physics",
		Title:          "Lecture " + id,
		ScheduledDate:  date,
		StartTime:      start,
		EndTime:        "23:59",
		InstructorName: "Dr. Rahma",
	}
}

func newFeedbackService(lvc *mockDateLister, store *mockFeedbackStore) *FeedbackService {
	return NewFeedbackService(lvc, &mockDateLister{}, store, nil, validator.New(), zap.NewNop())
}

func TestResolveNoScheduleForDate(t *testing.T) {
	svc := newFeedbackService(&mockDateLister{rows: map[string][]models.Schedule{}}, &mockFeedbackStore{})

	_, err := svc.Resolve(context.Background(), models.ScheduleTypeLVC, "2026-03-10", nil)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNoScheduleForDate.Code, appErr.Code)
}

func TestResolveNoScheduleForSession(t *testing.T) {
	lister := &mockDateLister{rows: map[string][]models.Schedule{
		"2026-03-10": {
			scheduleRow("a", "2026-03-10", "09:00"),
			scheduleRow("b", "2026-03-10", "19:00"),
		},
	}}
	svc := newFeedbackService(lister, &mockFeedbackStore{})

	afternoon := models.SessionAfternoon
	_, err := svc.Resolve(context.Background(), models.ScheduleTypeLVC, "2026-03-10", &afternoon)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNoScheduleForSession.Code, appErr.Code)
}

func TestResolvePicksSessionMatch(t *testing.T) {
	lister := &mockDateLister{rows: map[string][]models.Schedule{
		"2026-03-10": {
			scheduleRow("a", "2026-03-10", "09:00"),
			scheduleRow("b", "2026-03-10", "19:00"),
		},
	}}
	svc := newFeedbackService(lister, &mockFeedbackStore{})

	evening := models.SessionEvening
	schedule, err := svc.Resolve(context.Background(), models.ScheduleTypeLVC, "2026-03-10", &evening)
	require.NoError(t, err)
	assert.Equal(t, "b", schedule.ID)
}

func TestResolveTieBreakIsDeterministic(t *testing.T) {
	// Two morning rows, earliest start first as the store returns them.
	lister := &mockDateLister{rows: map[string][]models.Schedule{
		"2026-03-10": {
			scheduleRow("early", "2026-03-10", "08:00"),
			scheduleRow("late", "2026-03-10", "10:30"),
		},
	}}
	svc := newFeedbackService(lister, &mockFeedbackStore{})

	morning := models.SessionMorning
	for i := 0; i < 5; i++ {
		schedule, err := svc.Resolve(context.Background(), models.ScheduleTypeLVC, "2026-03-10", &morning)
		require.NoError(t, err)
		assert.Equal(t, "early", schedule.ID)
	}
}

func TestResolveWithoutSessionReturnsEarliest(t *testing.T) {
	lister := &mockDateLister{rows: map[string][]models.Schedule{
		"2026-03-10": {
			scheduleRow("first", "2026-03-10", "07:00"),
			scheduleRow("second", "2026-03-10", "13:00"),
		},
	}}
	svc := newFeedbackService(lister, &mockFeedbackStore{})

	schedule, err := svc.Resolve(context.Background(), models.ScheduleTypeLVC, "2026-03-10", nil)
	require.NoError(t, err)
	assert.Equal(t, "first", schedule.ID)
}

func TestAvailableSessions(t *testing.T) {
	lister := &mockDateLister{rows: map[string][]models.Schedule{
		"2026-03-10": {
			scheduleRow("a", "2026-03-10", "09:00"),
			scheduleRow("b", "2026-03-10", "19:00"),
			scheduleRow("c", "2026-03-10", "20:30"),
		},
	}}
	svc := newFeedbackService(lister, &mockFeedbackStore{})

	sessions, err := svc.AvailableSessions(context.Background(), models.ScheduleTypeLVC, "2026-03-10")
	require.NoError(t, err)
	assert.Equal(t, []models.Session{models.SessionMorning, models.SessionEvening}, sessions)
}

func TestAvailableSessionsEmptyDate(t *testing.T) {
	svc := newFeedbackService(&mockDateLister{rows: map[string][]models.Schedule{}}, &mockFeedbackStore{})

	sessions, err := svc.AvailableSessions(context.Background(), models.ScheduleTypeLVC, "2026-03-10")
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSubmitFeedback(t *testing.T) {
	lister := &mockDateLister{rows: map[string][]models.Schedule{
		"2026-03-10": {scheduleRow("a", "2026-03-10", "09:00")},
	}}
	store := &mockFeedbackStore{}
	svc := newFeedbackService(lister, store)

	feedback, err := svc.Submit(context.Background(), SubmitFeedbackRequest{
		ScheduleType:     "lvc",
		LectureDate:      "2026-03-10",
		Session:          "morning",
		StudentID:        "stud-1",
		ContentRating:    5,
		InstructorRating: 4,
	})
	require.NoError(t, err)
	assert.Equal(t, "a", feedback.ScheduleID)
	assert.Equal(t, models.ScheduleTypeLVC, feedback.ScheduleType)
	assert.Equal(t, models.SessionMorning, feedback.Session)
	assert.Equal(t, "Physics", feedback.Subject)
	assert.Equal(t, "Lecture a", feedback.Topic)
	assert.Len(t, store.created, 1)
}

func TestSubmitFeedbackValidation(t *testing.T) {
	svc := newFeedbackService(&mockDateLister{}, &mockFeedbackStore{})

	_, err := svc.Submit(context.Background(), SubmitFeedbackRequest{
		ScheduleType:     "lvc",
		LectureDate:      "2026-03-10",
		StudentID:        "stud-1",
		ContentRating:    9,
		InstructorRating: 4,
	})
	require.Error(t, err)
}

func TestSubmitFeedbackUnknownSession(t *testing.T) {
	svc := newFeedbackService(&mockDateLister{}, &mockFeedbackStore{})

	_, err := svc.Submit(context.Background(), SubmitFeedbackRequest{
		ScheduleType:     "lvc",
		LectureDate:      "2026-03-10",
		Session:          "midnight",
		StudentID:        "stud-1",
		ContentRating:    4,
		InstructorRating: 4,
	})
	require.Error(t, err)
}
