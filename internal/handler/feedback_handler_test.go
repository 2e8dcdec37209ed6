package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edcetra/backoffice-api/internal/middleware"
	"github.com/edcetra/backoffice-api/internal/models"
	"github.com/edcetra/backoffice-api/internal/service"
	appErrors "github.com/edcetra/backoffice-api/pkg/errors"
)

type feedbackServiceMock struct {
	submitResp *models.Feedback
	submitErr  error
	listResp   []models.Feedback
	listErr    error
	lastSubmit service.SubmitFeedbackRequest
	lastFilter models.FeedbackFilter
}

func (m *feedbackServiceMock) Submit(ctx context.Context, req service.SubmitFeedbackRequest) (*models.Feedback, error) {
	m.lastSubmit = req
	return m.submitResp, m.submitErr
}

func (m *feedbackServiceMock) List(ctx context.Context, filter models.FeedbackFilter) ([]models.Feedback, *models.Pagination, error) {
	m.lastFilter = filter
	return m.listResp, &models.Pagination{Page: 1, PageSize: 20, TotalCount: len(m.listResp)}, m.listErr
}

func TestFeedbackHandlerSubmitFillsStudentFromClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &feedbackServiceMock{submitResp: &models.Feedback{ID: "f1"}}
	handler := NewFeedbackHandler(mockSvc)

	payload, _ := json.Marshal(service.SubmitFeedbackRequest{
		ScheduleType:     "lvc",
		LectureDate:      "2026-02-15",
		Session:          "morning",
		ContentRating:    4,
		InstructorRating: 5,
	})
	c, w := newGinContext(http.MethodPost, "/feedback", payload)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "stu-1", Role: models.RoleStudent})

	handler.Submit(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "stu-1", mockSvc.lastSubmit.StudentID)
}

func TestFeedbackHandlerSubmitNoScheduleForSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &feedbackServiceMock{submitErr: appErrors.ErrNoScheduleForSession}
	handler := NewFeedbackHandler(mockSvc)

	payload, _ := json.Marshal(service.SubmitFeedbackRequest{
		ScheduleType:     "lvc",
		LectureDate:      "2026-02-15",
		Session:          "afternoon",
		StudentID:        "stu-1",
		ContentRating:    4,
		InstructorRating: 5,
	})
	c, w := newGinContext(http.MethodPost, "/feedback", payload)

	handler.Submit(c)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NO_SCHEDULE_FOR_SESSION")
}

func TestFeedbackHandlerSubmitInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewFeedbackHandler(&feedbackServiceMock{})

	c, w := newGinContext(http.MethodPost, "/feedback", []byte(`{"lecture_date":`))

	handler.Submit(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFeedbackHandlerList(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &feedbackServiceMock{listResp: []models.Feedback{{ID: "f1"}}}
	handler := NewFeedbackHandler(mockSvc)

	c, w := newGinContext(http.MethodGet, "/feedback?schedule_type=lvrc&lecture_date=2026-02-16", nil)
	c.Set(middleware.ContextUserKey, adminClaims())

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "lvrc", mockSvc.lastFilter.ScheduleType)
	assert.Equal(t, "2026-02-16", mockSvc.lastFilter.LectureDate)
}
