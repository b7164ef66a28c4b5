// Package controller drives an attendance-taking session for one activity:
// it holds the working snapshot, decides which transition each record can
// take next, and reconciles by re-fetching the whole roster after every
// accepted mutation.
package controller

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cshaw-hub/hub-api/internal/dto"
	"github.com/cshaw-hub/hub-api/internal/models"
)

// Repository is the remote attendance store the controller works against.
type Repository interface {
	FetchActivity(ctx context.Context, activityID string) (*models.Activity, error)
	FetchRecords(ctx context.Context, activityID string) ([]models.AttendanceRecord, error)
	ApplyTransition(ctx context.Context, recordID string, req dto.TransitionRequest) (*dto.TransitionResponse, error)
	BulkSignout(ctx context.Context, activityID string) (*dto.BulkSignoutResponse, error)
}

// Command is one requested transition on one record. OverrideTime ("HH:MM")
// replaces the wall clock; empty means "now".
type Command struct {
	RecordID     string
	Action       string
	OverrideTime string
}

// SessionController coordinates attendance for a single activity. The server
// stays authoritative: the controller never mutates its snapshot directly,
// it posts the command and re-fetches on success. A rejected command leaves
// the snapshot exactly as it was.
type SessionController struct {
	repo   Repository
	logger *zap.Logger

	mu       sync.Mutex
	activity *models.Activity
	records  []models.AttendanceRecord
}

// NewSessionController constructs a controller; call Load before use.
func NewSessionController(repo Repository, logger *zap.Logger) *SessionController {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionController{repo: repo, logger: logger}
}

// Load fetches the activity and its full attendance snapshot.
func (s *SessionController) Load(ctx context.Context, activityID string) error {
	activity, err := s.repo.FetchActivity(ctx, activityID)
	if err != nil {
		return err
	}
	records, err := s.repo.FetchRecords(ctx, activityID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.activity = activity
	s.records = records
	return nil
}

// Activity returns the loaded activity, or nil before Load.
func (s *SessionController) Activity() *models.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activity == nil {
		return nil
	}
	copied := *s.activity
	return &copied
}

// Records returns a copy of the current snapshot.
func (s *SessionController) Records() []models.AttendanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.AttendanceRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Record finds one record in the snapshot by id.
func (s *SessionController) Record(recordID string) (*models.AttendanceRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].ID == recordID {
			copied := s.records[i]
			return &copied, true
		}
	}
	return nil, false
}

// AvailableAction names the one transition a record can take next; empty for
// a completed record, which is terminal.
func AvailableAction(record *models.AttendanceRecord) string {
	switch record.Status() {
	case models.StatusPending:
		return dto.ActionSignIn
	case models.StatusInProgress:
		return dto.ActionSignOut
	default:
		return ""
	}
}

// OverrideFloor is the advisory earliest sensible override time for the
// record's next transition: the activity start for a sign-in, the record's
// own sign-in for a sign-out. The server still validates; an operator
// override below the floor is sent anyway and may be rejected there.
func (s *SessionController) OverrideFloor(record *models.AttendanceRecord) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if record.Status() == models.StatusInProgress && record.SignInTime != nil {
		return *record.SignInTime
	}
	if s.activity != nil {
		return s.activity.StartTime
	}
	return time.Time{}
}

// Dispatch posts one command and, on acceptance, reconciles the snapshot by
// re-fetching the whole roster. On any error the snapshot is untouched.
func (s *SessionController) Dispatch(ctx context.Context, cmd Command) (*dto.TransitionResponse, error) {
	record, ok := s.Record(cmd.RecordID)
	if !ok {
		return nil, fmt.Errorf("no attendance record %q in this session", cmd.RecordID)
	}
	if cmd.Action != dto.ActionSignIn && cmd.Action != dto.ActionSignOut {
		return nil, fmt.Errorf("unknown action %q", cmd.Action)
	}
	if available := AvailableAction(record); available != cmd.Action {
		if available == "" {
			return nil, fmt.Errorf("record %q is already completed", cmd.RecordID)
		}
		return nil, fmt.Errorf("record %q needs %s, not %s", cmd.RecordID, available, cmd.Action)
	}

	res, err := s.repo.ApplyTransition(ctx, cmd.RecordID, dto.TransitionRequest{
		Action:     cmd.Action,
		ManualTime: cmd.OverrideTime,
	})
	if err != nil {
		return nil, err
	}

	if err := s.refresh(ctx); err != nil {
		// The mutation landed; surface the stale snapshot rather than fail.
		s.logger.Warn("snapshot refresh failed after transition",
			zap.String("record_id", cmd.RecordID), zap.Error(err))
	}
	return res, nil
}

// HasOpenRecords reports whether any record is currently in progress.
func (s *SessionController) HasOpenRecords() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.records {
		if s.records[i].Status() == models.StatusInProgress {
			return true
		}
	}
	return false
}

// BulkComplete closes every in-progress record at the activity's scheduled
// end time and reconciles the snapshot.
func (s *SessionController) BulkComplete(ctx context.Context) (*dto.BulkSignoutResponse, error) {
	s.mu.Lock()
	if s.activity == nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("no activity loaded")
	}
	activityID := s.activity.ID
	s.mu.Unlock()

	if !s.HasOpenRecords() {
		return nil, fmt.Errorf("no students are currently signed in")
	}

	res, err := s.repo.BulkSignout(ctx, activityID)
	if err != nil {
		return nil, err
	}
	if err := s.refresh(ctx); err != nil {
		s.logger.Warn("snapshot refresh failed after bulk sign-out",
			zap.String("activity_id", activityID), zap.Error(err))
	}
	return res, nil
}

func (s *SessionController) refresh(ctx context.Context) error {
	s.mu.Lock()
	if s.activity == nil {
		s.mu.Unlock()
		return fmt.Errorf("no activity loaded")
	}
	activityID := s.activity.ID
	s.mu.Unlock()

	records, err := s.repo.FetchRecords(ctx, activityID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.records = records
	s.mu.Unlock()
	return nil
}
