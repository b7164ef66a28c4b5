package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cshaw-hub/hub-api/internal/dto"
	"github.com/cshaw-hub/hub-api/internal/middleware"
	"github.com/cshaw-hub/hub-api/internal/models"
	"github.com/cshaw-hub/hub-api/internal/service"
)

type signupRepoStub struct {
	record   *models.AttendanceRecord
	byAct    []models.AttendanceRecord
	signedIn bool
}

func (s *signupRepoStub) FindRecord(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	if s.record == nil || s.record.ID != id {
		return nil, sql.ErrNoRows
	}
	r := *s.record
	return &r, nil
}

func (s *signupRepoStub) ListByActivity(ctx context.Context, activityID string) ([]models.AttendanceRecord, error) {
	return s.byAct, nil
}

func (s *signupRepoStub) SetSignIn(ctx context.Context, id string, at time.Time, facilitatorID string) error {
	s.signedIn = true
	return nil
}

func (s *signupRepoStub) SetSignOut(ctx context.Context, id string, at time.Time, hours float64, facilitatorID string) error {
	return nil
}

func (s *signupRepoStub) BulkSignout(ctx context.Context, activityID string, at time.Time, facilitatorID string) (int, error) {
	count := 0
	for i := range s.byAct {
		if s.byAct[i].Status() == models.StatusInProgress {
			count++
		}
	}
	return count, nil
}

type activityReaderStub struct {
	activity *models.Activity
}

func (s *activityReaderStub) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	if s.activity == nil {
		return nil, sql.ErrNoRows
	}
	a := *s.activity
	return &a, nil
}

func newAttendanceTestContext(t *testing.T, method, body string) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(method, "/", bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "coord-1", Role: models.RoleCoordinator})
	return c, w
}

func TestAttendanceHandlerTransitionRejectionBody(t *testing.T) {
	start := time.Now().Add(-time.Minute)
	in := start.Add(10 * time.Minute)
	signups := &signupRepoStub{record: &models.AttendanceRecord{
		ID: "rec-1", ActivityID: "act-1", SignInTime: &in,
	}}
	activities := &activityReaderStub{activity: &models.Activity{
		ID: "act-1", StartTime: start, DurationHours: 4,
	}}
	svc := service.NewAttendanceService(signups, activities, nil, zap.NewNop())
	handler := NewAttendanceHandler(svc, nil)

	c, w := newAttendanceTestContext(t, http.MethodPost, `{"action":"signin"}`)
	c.Params = gin.Params{{Key: "id", Value: "rec-1"}}

	handler.Transition(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Student already signed in.", body["error"])
	assert.False(t, signups.signedIn)
}

func TestAttendanceHandlerTransitionSuccess(t *testing.T) {
	start := time.Now().Add(-time.Minute)
	signups := &signupRepoStub{record: &models.AttendanceRecord{ID: "rec-1", ActivityID: "act-1"}}
	activities := &activityReaderStub{activity: &models.Activity{
		ID: "act-1", StartTime: start, DurationHours: 4,
	}}
	svc := service.NewAttendanceService(signups, activities, nil, zap.NewNop())
	handler := NewAttendanceHandler(svc, nil)

	c, w := newAttendanceTestContext(t, http.MethodPost, `{"action":"signin"}`)
	c.Params = gin.Params{{Key: "id", Value: "rec-1"}}

	handler.Transition(c)
	require.Equal(t, http.StatusOK, w.Code)

	var res dto.TransitionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "Signed In", res.Message)
	assert.True(t, signups.signedIn)
}

func TestAttendanceHandlerTransitionNotFound(t *testing.T) {
	svc := service.NewAttendanceService(&signupRepoStub{}, &activityReaderStub{}, nil, zap.NewNop())
	handler := NewAttendanceHandler(svc, nil)

	c, w := newAttendanceTestContext(t, http.MethodPost, `{"action":"signin"}`)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Transition(c)
	require.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "Signup not found", body["error"])
}

func TestAttendanceHandlerBulkSignout(t *testing.T) {
	start := time.Now().Add(-5 * time.Hour)
	in := start.Add(10 * time.Minute)
	signups := &signupRepoStub{byAct: []models.AttendanceRecord{
		{ID: "rec-1", SignInTime: &in},
		{ID: "rec-2"},
	}}
	activities := &activityReaderStub{activity: &models.Activity{
		ID: "act-1", StartTime: start, DurationHours: 4,
	}}
	svc := service.NewAttendanceService(signups, activities, nil, zap.NewNop())
	handler := NewAttendanceHandler(svc, nil)

	c, w := newAttendanceTestContext(t, http.MethodPost, "")
	c.Params = gin.Params{{Key: "id", Value: "act-1"}}

	handler.BulkSignout(c)
	require.Equal(t, http.StatusOK, w.Code)

	var res dto.BulkSignoutResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "Signed out 1 students.", res.Message)
	assert.Equal(t, 1, res.SignedOut)
}

func TestAttendanceHandlerBulkSignoutNoneOpen(t *testing.T) {
	start := time.Now().Add(-5 * time.Hour)
	signups := &signupRepoStub{byAct: []models.AttendanceRecord{{ID: "rec-1"}}}
	activities := &activityReaderStub{activity: &models.Activity{
		ID: "act-1", StartTime: start, DurationHours: 4,
	}}
	svc := service.NewAttendanceService(signups, activities, nil, zap.NewNop())
	handler := NewAttendanceHandler(svc, nil)

	c, w := newAttendanceTestContext(t, http.MethodPost, "")
	c.Params = gin.Params{{Key: "id", Value: "act-1"}}

	handler.BulkSignout(c)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "No students are currently signed in.", body["error"])
}
