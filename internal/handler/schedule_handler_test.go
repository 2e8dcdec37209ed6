package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edcetra/backoffice-api/internal/middleware"
	"github.com/edcetra/backoffice-api/internal/models"
	"github.com/edcetra/backoffice-api/internal/service"
	appErrors "github.com/edcetra/backoffice-api/pkg/errors"
)

type scheduleServiceMock struct {
	listResp   []models.Schedule
	listErr    error
	getResp    *models.Schedule
	getErr     error
	createResp *models.Schedule
	createErr  error
	updateErr  error
	deleteErr  error

	lastType    models.ScheduleType
	lastSubject string
	lastFilter  models.ScheduleFilter
	lastCreate  service.CreateScheduleRequest
	lastUpdate  service.UpdateScheduleRequest
}

func (m *scheduleServiceMock) List(ctx context.Context, scheduleType models.ScheduleType, filter models.ScheduleFilter) ([]models.Schedule, *models.Pagination, error) {
	m.lastType = scheduleType
	m.lastFilter = filter
	return m.listResp, &models.Pagination{Page: 1, PageSize: 20, TotalCount: len(m.listResp)}, m.listErr
}

func (m *scheduleServiceMock) Get(ctx context.Context, scheduleType models.ScheduleType, id string) (*models.Schedule, error) {
	m.lastType = scheduleType
	return m.getResp, m.getErr
}

func (m *scheduleServiceMock) Create(ctx context.Context, scheduleType models.ScheduleType, req service.CreateScheduleRequest) (*models.Schedule, error) {
	m.lastType = scheduleType
	m.lastCreate = req
	return m.createResp, m.createErr
}

func (m *scheduleServiceMock) Update(ctx context.Context, scheduleType models.ScheduleType, id string, req service.UpdateScheduleRequest) (int64, error) {
	m.lastType = scheduleType
	m.lastUpdate = req
	if m.updateErr != nil {
		return 0, m.updateErr
	}
	return 1, nil
}

func (m *scheduleServiceMock) Delete(ctx context.Context, scheduleType models.ScheduleType, id string) (int64, error) {
	m.lastType = scheduleType
	if m.deleteErr != nil {
		return 0, m.deleteErr
	}
	return 1, nil
}

func (m *scheduleServiceMock) ListBySubject(ctx context.Context, scheduleType models.ScheduleType, subjectID string) ([]models.Schedule, error) {
	m.lastType = scheduleType
	m.lastSubject = subjectID
	return m.listResp, m.listErr
}

type sessionListerMock struct {
	sessions []models.Session
	err      error
	lastDate string
}

func (m *sessionListerMock) AvailableSessions(ctx context.Context, scheduleType models.ScheduleType, date string) ([]models.Session, error) {
	m.lastDate = date
	return m.sessions, m.err
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func adminClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "admin-1", Role: models.RoleAdmin}
}

func TestScheduleHandlerListPassesFilter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleServiceMock{listResp: []models.Schedule{{ID: "sch-1"}}}
	handler := NewScheduleHandler(mockSvc, &sessionListerMock{})

	c, w := newGinContext(http.MethodGet, "/schedules/lvc?subject_id=s1&date_from=2026-02-01&limit=50", nil)
	c.Params = gin.Params{{Key: "type", Value: "lvc"}}
	c.Set(middleware.ContextUserKey, adminClaims())

	handler.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ScheduleTypeLVC, mockSvc.lastType)
	assert.Equal(t, "s1", mockSvc.lastFilter.SubjectID)
	assert.Equal(t, "2026-02-01", mockSvc.lastFilter.DateFrom)
	assert.Equal(t, 50, mockSvc.lastFilter.PageSize)
}

func TestScheduleHandlerListRejectsUnknownType(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(&scheduleServiceMock{}, &sessionListerMock{})

	c, w := newGinContext(http.MethodGet, "/schedules/weekly", nil)
	c.Params = gin.Params{{Key: "type", Value: "weekly"}}

	handler.List(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleHandlerCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleServiceMock{createResp: &models.Schedule{ID: "sch-1", Title: "Thermodynamics"}}
	handler := NewScheduleHandler(mockSvc, &sessionListerMock{})

	payload, _ := json.Marshal(service.CreateScheduleRequest{
		SubjectID:     "s1",
		Title:         "Thermodynamics",
		ScheduledDate: "2026-02-15",
		StartTime:     "10:00",
		EndTime:       "11:00",
	})
	c, w := newGinContext(http.MethodPost, "/schedules/lvc", payload)
	c.Params = gin.Params{{Key: "type", Value: "lvc"}}
	c.Set(middleware.ContextUserKey, adminClaims())

	handler.Create(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "s1", mockSvc.lastCreate.SubjectID)
}

func TestScheduleHandlerCreateInvalidBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(&scheduleServiceMock{}, &sessionListerMock{})

	c, w := newGinContext(http.MethodPost, "/schedules/lvc", []byte(`{"subject_id":`))
	c.Params = gin.Params{{Key: "type", Value: "lvc"}}

	handler.Create(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScheduleHandlerUpdateReturnsFreshRow(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleServiceMock{getResp: &models.Schedule{ID: "sch-1", Title: "Updated"}}
	handler := NewScheduleHandler(mockSvc, &sessionListerMock{})

	title := "Updated"
	payload, _ := json.Marshal(service.UpdateScheduleRequest{Title: &title})
	c, w := newGinContext(http.MethodPut, "/schedules/lvrc/sch-1", payload)
	c.Params = gin.Params{{Key: "type", Value: "lvrc"}, {Key: "id", Value: "sch-1"}}
	c.Set(middleware.ContextUserKey, adminClaims())

	handler.Update(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Updated")
	require.NotNil(t, mockSvc.lastUpdate.Title)
	assert.Equal(t, "Updated", *mockSvc.lastUpdate.Title)
}

func TestScheduleHandlerUpdateNotFound(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleServiceMock{updateErr: appErrors.ErrNotFound}
	handler := NewScheduleHandler(mockSvc, &sessionListerMock{})

	c, w := newGinContext(http.MethodPut, "/schedules/lvc/missing", []byte(`{}`))
	c.Params = gin.Params{{Key: "type", Value: "lvc"}, {Key: "id", Value: "missing"}}

	handler.Update(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestScheduleHandlerDelete(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(&scheduleServiceMock{}, &sessionListerMock{})

	c, w := newGinContext(http.MethodDelete, "/schedules/lvc/sch-1", nil)
	c.Params = gin.Params{{Key: "type", Value: "lvc"}, {Key: "id", Value: "sch-1"}}

	handler.Delete(c)
	c.Writer.WriteHeaderNow()
	require.Equal(t, http.StatusNoContent, w.Code)
}

func TestScheduleHandlerBySubject(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &scheduleServiceMock{listResp: []models.Schedule{{ID: "sch-1", SubjectID: "s1"}}}
	handler := NewScheduleHandler(mockSvc, &sessionListerMock{})

	c, w := newGinContext(http.MethodGet, "/subjects/s1/schedules/lvrc", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}, {Key: "type", Value: "lvrc"}}

	handler.BySubject(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ScheduleTypeLVRC, mockSvc.lastType)
	assert.Equal(t, "s1", mockSvc.lastSubject)
}

func TestScheduleHandlerSessions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSessions := &sessionListerMock{sessions: []models.Session{models.SessionMorning, models.SessionEvening}}
	handler := NewScheduleHandler(&scheduleServiceMock{}, mockSessions)

	c, w := newGinContext(http.MethodGet, "/schedules/lvc/sessions?date=2026-02-15", nil)
	c.Params = gin.Params{{Key: "type", Value: "lvc"}}

	handler.Sessions(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2026-02-15", mockSessions.lastDate)
	assert.Contains(t, w.Body.String(), "morning")
	assert.Contains(t, w.Body.String(), "evening")
}

func TestScheduleHandlerSessionsRequiresDate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScheduleHandler(&scheduleServiceMock{}, &sessionListerMock{})

	c, w := newGinContext(http.MethodGet, "/schedules/lvc/sessions", nil)
	c.Params = gin.Params{{Key: "type", Value: "lvc"}}

	handler.Sessions(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}
