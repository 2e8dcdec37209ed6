package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edcetra/backoffice-api/internal/models"
	"github.com/edcetra/backoffice-api/internal/service"
	appErrors "github.com/edcetra/backoffice-api/pkg/errors"
	"github.com/edcetra/backoffice-api/pkg/response"
)

type feedbackService interface {
	Submit(ctx context.Context, req service.SubmitFeedbackRequest) (*models.Feedback, error)
	List(ctx context.Context, filter models.FeedbackFilter) ([]models.Feedback, *models.Pagination, error)
}

// FeedbackHandler exposes student feedback submission and admin listing.
type FeedbackHandler struct {
	service feedbackService
}

// NewFeedbackHandler constructs a feedback handler.
func NewFeedbackHandler(svc feedbackService) *FeedbackHandler {
	return &FeedbackHandler{service: svc}
}

// Submit godoc
// @Summary Submit lecture feedback
// @Description Resolves the date and session selection to a concrete schedule row and stores the feedback.
// @Tags Feedback
// @Accept json
// @Produce json
// @Param payload body service.SubmitFeedbackRequest true "Feedback payload"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /feedback [post]
func (h *FeedbackHandler) Submit(c *gin.Context) {
	var req service.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	if claims := claimsFromContext(c); claims != nil && req.StudentID == "" {
		req.StudentID = claims.UserID
	}

	feedback, err := h.service.Submit(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, feedback)
}

// List godoc
// @Summary List feedback entries
// @Tags Feedback
// @Produce json
// @Param schedule_type query string false "Schedule type (lvc or lvrc)"
// @Param lecture_date query string false "Lecture date (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /feedback [get]
func (h *FeedbackHandler) List(c *gin.Context) {
	var filter models.FeedbackFilter
	filter.ScheduleType = c.Query("schedule_type")
	filter.LectureDate = c.Query("lecture_date")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}

	entries, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}
