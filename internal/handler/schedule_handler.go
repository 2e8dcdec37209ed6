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

type scheduleService interface {
	List(ctx context.Context, scheduleType models.ScheduleType, filter models.ScheduleFilter) ([]models.Schedule, *models.Pagination, error)
	Get(ctx context.Context, scheduleType models.ScheduleType, id string) (*models.Schedule, error)
	Create(ctx context.Context, scheduleType models.ScheduleType, req service.CreateScheduleRequest) (*models.Schedule, error)
	Update(ctx context.Context, scheduleType models.ScheduleType, id string, req service.UpdateScheduleRequest) (int64, error)
	Delete(ctx context.Context, scheduleType models.ScheduleType, id string) (int64, error)
	ListBySubject(ctx context.Context, scheduleType models.ScheduleType, subjectID string) ([]models.Schedule, error)
}

type sessionLister interface {
	AvailableSessions(ctx context.Context, scheduleType models.ScheduleType, date string) ([]models.Session, error)
}

// ScheduleHandler exposes the live class and revision class schedule endpoints.
// The :type path segment selects between the two stores.
type ScheduleHandler struct {
	service  scheduleService
	sessions sessionLister
}

// NewScheduleHandler constructs a schedule handler.
func NewScheduleHandler(svc scheduleService, sessions sessionLister) *ScheduleHandler {
	return &ScheduleHandler{service: svc, sessions: sessions}
}

func scheduleTypeFromPath(c *gin.Context) (models.ScheduleType, bool) {
	scheduleType, err := models.ParseScheduleType(c.Param("type"))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "schedule type must be lvc or lvrc"))
		return "", false
	}
	return scheduleType, true
}

// List godoc
// @Summary List schedules
// @Tags Schedules
// @Produce json
// @Param type path string true "Schedule type (lvc or lvrc)"
// @Param subject_id query string false "Filter by subject"
// @Param date_from query string false "Start date (YYYY-MM-DD)"
// @Param date_to query string false "End date (YYYY-MM-DD)"
// @Param order query string false "Sort order (asc or desc)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /schedules/{type} [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	scheduleType, ok := scheduleTypeFromPath(c)
	if !ok {
		return
	}

	var filter models.ScheduleFilter
	filter.SubjectID = c.Query("subject_id")
	filter.DateFrom = c.Query("date_from")
	filter.DateTo = c.Query("date_to")
	filter.SortOrder = c.Query("order")
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if limit, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = limit
	}

	schedules, pagination, err := h.service.List(c.Request.Context(), scheduleType, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, pagination)
}

// Get godoc
// @Summary Get schedule by id
// @Tags Schedules
// @Produce json
// @Param type path string true "Schedule type (lvc or lvrc)"
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{type}/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	scheduleType, ok := scheduleTypeFromPath(c)
	if !ok {
		return
	}
	schedule, err := h.service.Get(c.Request.Context(), scheduleType, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Create godoc
// @Summary Create schedule
// @Description Creating a live class also fans out revision classes for every subject.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param type path string true "Schedule type (lvc or lvrc)"
// @Param payload body service.CreateScheduleRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Router /schedules/{type} [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	scheduleType, ok := scheduleTypeFromPath(c)
	if !ok {
		return
	}
	var req service.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	schedule, err := h.service.Create(c.Request.Context(), scheduleType, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, schedule)
}

// Update godoc
// @Summary Update schedule
// @Tags Schedules
// @Accept json
// @Produce json
// @Param type path string true "Schedule type (lvc or lvrc)"
// @Param id path string true "Schedule ID"
// @Param payload body service.UpdateScheduleRequest true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/{type}/{id} [put]
func (h *ScheduleHandler) Update(c *gin.Context) {
	scheduleType, ok := scheduleTypeFromPath(c)
	if !ok {
		return
	}
	var req service.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if _, err := h.service.Update(c.Request.Context(), scheduleType, c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	schedule, err := h.service.Get(c.Request.Context(), scheduleType, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Delete godoc
// @Summary Delete schedule
// @Tags Schedules
// @Produce json
// @Param type path string true "Schedule type (lvc or lvrc)"
// @Param id path string true "Schedule ID"
// @Success 204
// @Router /schedules/{type}/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	scheduleType, ok := scheduleTypeFromPath(c)
	if !ok {
		return
	}
	if _, err := h.service.Delete(c.Request.Context(), scheduleType, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// BySubject godoc
// @Summary List a subject's schedules
// @Tags Schedules
// @Produce json
// @Param id path string true "Subject ID"
// @Param type path string true "Schedule type (lvc or lvrc)"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/schedules/{type} [get]
func (h *ScheduleHandler) BySubject(c *gin.Context) {
	scheduleType, ok := scheduleTypeFromPath(c)
	if !ok {
		return
	}
	schedules, err := h.service.ListBySubject(c.Request.Context(), scheduleType, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, nil)
}

// Sessions godoc
// @Summary Sessions with classes on a date
// @Description Returns the distinct session buckets that have at least one class on the given date.
// @Tags Schedules
// @Produce json
// @Param type path string true "Schedule type (lvc or lvrc)"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /schedules/{type}/sessions [get]
func (h *ScheduleHandler) Sessions(c *gin.Context) {
	scheduleType, ok := scheduleTypeFromPath(c)
	if !ok {
		return
	}
	date := c.Query("date")
	if date == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date query parameter is required"))
		return
	}
	sessions, err := h.sessions.AvailableSessions(c.Request.Context(), scheduleType, date)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sessions, nil)
}
