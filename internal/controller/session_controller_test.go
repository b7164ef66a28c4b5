package controller

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cshaw-hub/hub-api/internal/dto"
	"github.com/cshaw-hub/hub-api/internal/models"
	"github.com/cshaw-hub/hub-api/pkg/client"
)

// fakeRepo emulates the hub: it applies accepted transitions to its own
// state so the controller's re-fetch observes them, and rejects invalid ones
// without changing anything.
type fakeRepo struct {
	activity models.Activity
	records  map[string]*models.AttendanceRecord
	fetches  int
}

func newFakeRepo(start time.Time) *fakeRepo {
	return &fakeRepo{
		activity: models.Activity{ID: "act-1", Title: "Beach Cleanup", StartTime: start, DurationHours: 4},
		records: map[string]*models.AttendanceRecord{
			"rec-1": {ID: "rec-1", ActivityID: "act-1", StudentName: "Jane", StudentSurname: "Doe"},
			"rec-2": {ID: "rec-2", ActivityID: "act-1", StudentName: "John", StudentSurname: "Poe"},
		},
	}
}

func (f *fakeRepo) FetchActivity(ctx context.Context, activityID string) (*models.Activity, error) {
	a := f.activity
	return &a, nil
}

func (f *fakeRepo) FetchRecords(ctx context.Context, activityID string) ([]models.AttendanceRecord, error) {
	f.fetches++
	out := make([]models.AttendanceRecord, 0, len(f.records))
	for _, id := range []string{"rec-1", "rec-2"} {
		if r, ok := f.records[id]; ok {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRepo) ApplyTransition(ctx context.Context, recordID string, req dto.TransitionRequest) (*dto.TransitionResponse, error) {
	record := f.records[recordID]
	now := f.activity.StartTime.Add(time.Hour)
	if req.ManualTime != "" {
		parsed, err := time.Parse("15:04", req.ManualTime)
		if err != nil {
			return nil, &client.APIError{Kind: client.KindRejected, Status: 400, Message: "Invalid manual time. Expected HH:MM."}
		}
		anchor := f.activity.StartTime
		now = time.Date(anchor.Year(), anchor.Month(), anchor.Day(), parsed.Hour(), parsed.Minute(), 0, 0, anchor.Location())
	}
	switch req.Action {
	case dto.ActionSignIn:
		if record.SignInTime != nil {
			return nil, &client.APIError{Kind: client.KindRejected, Status: 400, Message: "Student already signed in."}
		}
		if now.Before(f.activity.StartTime) {
			return nil, &client.APIError{Kind: client.KindTooEarly, Status: 400,
				Message: "This event starts at 09:00. You cannot sign students in before it begins."}
		}
		record.SignInTime = &now
		return &dto.TransitionResponse{Message: "Signed In", Time: now}, nil
	case dto.ActionSignOut:
		if record.SignInTime == nil {
			return nil, &client.APIError{Kind: client.KindRejected, Status: 400, Message: "Cannot sign out. Student never signed in."}
		}
		record.SignOutTime = &now
		record.Attended = true
		record.HoursEarned = models.HoursBetween(*record.SignInTime, now)
		return &dto.TransitionResponse{Message: "Signed Out", Time: now, Hours: record.HoursEarned}, nil
	}
	return nil, &client.APIError{Kind: client.KindRejected, Status: 400, Message: "Invalid action"}
}

func (f *fakeRepo) BulkSignout(ctx context.Context, activityID string) (*dto.BulkSignoutResponse, error) {
	end := f.activity.EndTime()
	count := 0
	for _, r := range f.records {
		if r.SignInTime != nil && r.SignOutTime == nil {
			out := end
			r.SignOutTime = &out
			r.Attended = true
			r.HoursEarned = models.HoursBetween(*r.SignInTime, out)
			count++
		}
	}
	return &dto.BulkSignoutResponse{Message: "Signed out 1 students.", SignedOut: count}, nil
}

func loadedSession(t *testing.T, repo *fakeRepo) *SessionController {
	t.Helper()
	session := NewSessionController(repo, zap.NewNop())
	require.NoError(t, session.Load(context.Background(), "act-1"))
	return session
}

func TestSessionControllerDispatchSignInReconciles(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	repo := newFakeRepo(start)
	session := loadedSession(t, repo)

	res, err := session.Dispatch(context.Background(), Command{RecordID: "rec-1", Action: dto.ActionSignIn})
	require.NoError(t, err)
	assert.Equal(t, "Signed In", res.Message)

	record, ok := session.Record("rec-1")
	require.True(t, ok)
	assert.Equal(t, models.StatusInProgress, record.Status())
	assert.Equal(t, dto.ActionSignOut, AvailableAction(record))
}

func TestSessionControllerRejectionLeavesSnapshotUntouched(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	repo := newFakeRepo(start)
	session := loadedSession(t, repo)
	before := session.Records()
	fetchesBefore := repo.fetches

	_, err := session.Dispatch(context.Background(), Command{
		RecordID: "rec-1", Action: dto.ActionSignIn, OverrideTime: "08:00",
	})
	require.Error(t, err)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, client.KindTooEarly, apiErr.Kind)
	assert.Equal(t, "This event starts at 09:00. You cannot sign students in before it begins.", apiErr.Message)

	assert.Equal(t, before, session.Records())
	assert.Equal(t, fetchesBefore, repo.fetches)
}

func TestSessionControllerCompletedIsTerminal(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	repo := newFakeRepo(start)
	session := loadedSession(t, repo)

	_, err := session.Dispatch(context.Background(), Command{RecordID: "rec-1", Action: dto.ActionSignIn})
	require.NoError(t, err)
	_, err = session.Dispatch(context.Background(), Command{RecordID: "rec-1", Action: dto.ActionSignOut})
	require.NoError(t, err)

	record, ok := session.Record("rec-1")
	require.True(t, ok)
	assert.Equal(t, models.StatusCompleted, record.Status())
	assert.Equal(t, "", AvailableAction(record))

	_, err = session.Dispatch(context.Background(), Command{RecordID: "rec-1", Action: dto.ActionSignOut})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already completed")
}

func TestSessionControllerDispatchWrongAction(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	repo := newFakeRepo(start)
	session := loadedSession(t, repo)

	_, err := session.Dispatch(context.Background(), Command{RecordID: "rec-1", Action: dto.ActionSignOut})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "needs signin")
}

func TestSessionControllerBulkCompleteOnlyClosesOpen(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	repo := newFakeRepo(start)
	session := loadedSession(t, repo)

	// rec-1 in progress, rec-2 still pending.
	_, err := session.Dispatch(context.Background(), Command{
		RecordID: "rec-1", Action: dto.ActionSignIn, OverrideTime: "09:05",
	})
	require.NoError(t, err)
	require.True(t, session.HasOpenRecords())

	res, err := session.BulkComplete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, res.SignedOut)

	closed, ok := session.Record("rec-1")
	require.True(t, ok)
	assert.Equal(t, models.StatusCompleted, closed.Status())
	// Scheduled end 13:00, signed in 09:05.
	assert.Equal(t, 3.92, closed.HoursEarned)

	pending, ok := session.Record("rec-2")
	require.True(t, ok)
	assert.Equal(t, models.StatusPending, pending.Status())
	assert.False(t, session.HasOpenRecords())
}

func TestSessionControllerBulkCompleteRequiresOpenRecords(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	repo := newFakeRepo(start)
	session := loadedSession(t, repo)

	_, err := session.BulkComplete(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no students are currently signed in")
}

func TestSessionControllerOverrideFloor(t *testing.T) {
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	repo := newFakeRepo(start)
	session := loadedSession(t, repo)

	record, ok := session.Record("rec-1")
	require.True(t, ok)
	assert.Equal(t, start, session.OverrideFloor(record))

	_, err := session.Dispatch(context.Background(), Command{
		RecordID: "rec-1", Action: dto.ActionSignIn, OverrideTime: "09:05",
	})
	require.NoError(t, err)

	record, ok = session.Record("rec-1")
	require.True(t, ok)
	assert.Equal(t, start.Add(5*time.Minute), session.OverrideFloor(record))
}
