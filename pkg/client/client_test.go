package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cshaw-hub/hub-api/internal/dto"
	"github.com/cshaw-hub/hub-api/internal/models"
	"github.com/cshaw-hub/hub-api/pkg/config"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	c := New(config.ConsoleConfig{
		BaseURL:   server.URL,
		AuthToken: "test-token",
		CSRFToken: "csrf-123",
		Timeout:   5 * time.Second,
	}, zap.NewNop())
	return c, server
}

func TestClientFetchRecords(t *testing.T) {
	in := time.Date(2026, 3, 14, 9, 5, 0, 0, time.UTC)
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/activities/act-1/rsvps/", r.URL.Path)
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode([]models.AttendanceRecord{
			{ID: "rec-1", SignInTime: &in},
			{ID: "rec-2"},
		})
	}))

	records, err := c.FetchRecords(context.Background(), "act-1")
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, models.StatusInProgress, records[0].Status())
	assert.Equal(t, models.StatusPending, records[1].Status())
}

func TestClientApplyTransitionSendsCSRF(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/attendance/rec-1/", r.URL.Path)
		assert.Equal(t, "csrf-123", r.Header.Get("X-CSRF-Token"))

		var req dto.TransitionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, dto.ActionSignIn, req.Action)
		assert.Equal(t, "09:05", req.ManualTime)

		json.NewEncoder(w).Encode(dto.TransitionResponse{Message: "Signed In"})
	}))

	res, err := c.ApplyTransition(context.Background(), "rec-1",
		dto.TransitionRequest{Action: dto.ActionSignIn, ManualTime: "09:05"})
	require.NoError(t, err)
	assert.Equal(t, "Signed In", res.Message)
}

func TestClientSurfacesServerErrorVerbatim(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Student already signed in."})
	}))

	_, err := c.ApplyTransition(context.Background(), "rec-1", dto.TransitionRequest{Action: dto.ActionSignIn})
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindRejected, apiErr.Kind)
	assert.Equal(t, "Student already signed in.", apiErr.Message)
	assert.Equal(t, "Student already signed in.", err.Error())
}

func TestClientClassifiesDateMismatch(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "This event is on 14 Mar 2026. Attendance can only be taken on the day.",
		})
	}))

	_, err := c.ApplyTransition(context.Background(), "rec-1", dto.TransitionRequest{Action: dto.ActionSignIn})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindDateMismatch, apiErr.Kind)
}

func TestClientClassifiesTooEarly(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{
			"error": "This event starts at 09:00. You cannot sign students in before it begins.",
		})
	}))

	_, err := c.ApplyTransition(context.Background(), "rec-1", dto.TransitionRequest{Action: dto.ActionSignIn})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindTooEarly, apiErr.Kind)
}

func TestClientClassifiesNotFound(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "Signup not found"})
	}))

	_, err := c.FetchActivity(context.Background(), "missing")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindNotFound, apiErr.Kind)
}

func TestClientNetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()
	c := New(config.ConsoleConfig{BaseURL: server.URL, Timeout: time.Second}, zap.NewNop())

	_, err := c.FetchActivity(context.Background(), "act-1")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, KindNetwork, apiErr.Kind)
}

func TestClientBulkSignout(t *testing.T) {
	c, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/activities/act-1/bulk_signout/", r.URL.Path)
		json.NewEncoder(w).Encode(dto.BulkSignoutResponse{Message: "Signed out 3 students.", SignedOut: 3})
	}))

	res, err := c.BulkSignout(context.Background(), "act-1")
	require.NoError(t, err)
	assert.Equal(t, 3, res.SignedOut)
	assert.Equal(t, "Signed out 3 students.", res.Message)
}
