package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cshaw-hub/hub-api/internal/dto"
	"github.com/cshaw-hub/hub-api/internal/models"
	appErrors "github.com/cshaw-hub/hub-api/pkg/errors"
)

type attendanceSignupRepository interface {
	FindRecord(ctx context.Context, id string) (*models.AttendanceRecord, error)
	ListByActivity(ctx context.Context, activityID string) ([]models.AttendanceRecord, error)
	SetSignIn(ctx context.Context, id string, at time.Time, facilitatorID string) error
	SetSignOut(ctx context.Context, id string, at time.Time, hours float64, facilitatorID string) error
	BulkSignout(ctx context.Context, activityID string, at time.Time, facilitatorID string) (int, error)
}

type attendanceActivityReader interface {
	FindByID(ctx context.Context, id string) (*models.Activity, error)
}

type rosterCacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// AttendanceService owns the sign-in/sign-out lifecycle: it validates the
// transition against the record's current state and the activity's time
// window, stamps the timestamps and computes earned hours.
type AttendanceService struct {
	signups    attendanceSignupRepository
	activities attendanceActivityReader
	cache      rosterCacheInvalidator
	logger     *zap.Logger
	now        func() time.Time
}

// NewAttendanceService constructs the service.
func NewAttendanceService(signups attendanceSignupRepository, activities attendanceActivityReader, cache rosterCacheInvalidator, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AttendanceService{
		signups:    signups,
		activities: activities,
		cache:      cache,
		logger:     logger,
		now:        time.Now,
	}
}

// ListRecords returns every attendance record for an activity.
func (s *AttendanceService) ListRecords(ctx context.Context, activityID string) ([]models.AttendanceRecord, error) {
	if _, err := s.activities.FindByID(ctx, activityID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	records, err := s.signups.ListByActivity(ctx, activityID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance records")
	}
	return records, nil
}

// ApplyTransition performs one sign-in or sign-out on a record. The optional
// manual time ("HH:MM") replaces the wall clock on the activity's own date;
// the time-window policy is enforced here, authoritatively.
func (s *AttendanceService) ApplyTransition(ctx context.Context, recordID string, req dto.TransitionRequest, claims *models.JWTClaims) (*dto.TransitionResponse, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}

	record, err := s.signups.FindRecord(ctx, recordID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Signup not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load signup")
	}

	activity, err := s.activities.FindByID(ctx, record.ActivityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}

	switch req.Action {
	case dto.ActionSignIn:
		return s.signIn(ctx, record, activity, req.ManualTime, claims.UserID)
	case dto.ActionSignOut:
		return s.signOut(ctx, record, activity, req.ManualTime, claims.UserID)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid action")
	}
}

func (s *AttendanceService) signIn(ctx context.Context, record *models.AttendanceRecord, activity *models.Activity, manualTime, facilitatorID string) (*dto.TransitionResponse, error) {
	if record.SignInTime != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Student already signed in.")
	}

	now := s.now()
	if !sameDay(now, activity.StartTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("This event is on %s. Attendance can only be taken on the day.",
				activity.StartTime.Format("02 Jan 2006")))
	}

	at, err := s.effectiveTime(activity.StartTime, manualTime, now)
	if err != nil {
		return nil, err
	}
	if at.Before(activity.StartTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("This event starts at %s. You cannot sign students in before it begins.",
				activity.StartTime.Format("15:04")))
	}

	if err := s.signups.SetSignIn(ctx, record.ID, at, facilitatorID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record sign-in")
	}
	s.invalidateRoster(ctx)
	s.logger.Info("attendance sign-in",
		zap.String("record_id", record.ID),
		zap.String("activity_id", activity.ID),
		zap.Time("at", at))
	return &dto.TransitionResponse{Message: "Signed In", Time: at}, nil
}

func (s *AttendanceService) signOut(ctx context.Context, record *models.AttendanceRecord, activity *models.Activity, manualTime, facilitatorID string) (*dto.TransitionResponse, error) {
	if record.SignInTime == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Cannot sign out. Student never signed in.")
	}
	if record.SignOutTime != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Student already signed out.")
	}

	at, err := s.effectiveTime(activity.StartTime, manualTime, s.now())
	if err != nil {
		return nil, err
	}
	if at.Before(*record.SignInTime) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Sign-out cannot be earlier than the sign-in time.")
	}

	hours := models.HoursBetween(*record.SignInTime, at)
	if err := s.signups.SetSignOut(ctx, record.ID, at, hours, facilitatorID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record sign-out")
	}
	s.invalidateRoster(ctx)
	s.logger.Info("attendance sign-out",
		zap.String("record_id", record.ID),
		zap.String("activity_id", activity.ID),
		zap.Time("at", at),
		zap.Float64("hours", hours))
	return &dto.TransitionResponse{Message: "Signed Out", Time: at, Hours: hours}, nil
}

// BulkSignout closes every in-progress record of the activity using the
// activity's scheduled end time as the uniform log-out.
func (s *AttendanceService) BulkSignout(ctx context.Context, activityID string, claims *models.JWTClaims) (*dto.BulkSignoutResponse, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}

	activity, err := s.activities.FindByID(ctx, activityID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}

	records, err := s.signups.ListByActivity(ctx, activityID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance records")
	}
	open := 0
	for i := range records {
		if records[i].Status() == models.StatusInProgress {
			open++
		}
	}
	if open == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "No students are currently signed in.")
	}

	count, err := s.signups.BulkSignout(ctx, activityID, activity.EndTime(), claims.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign out students")
	}
	s.invalidateRoster(ctx)
	s.logger.Info("bulk sign-out",
		zap.String("activity_id", activityID),
		zap.Int("signed_out", count),
		zap.Time("at", activity.EndTime()))
	return &dto.BulkSignoutResponse{
		Message:   fmt.Sprintf("Signed out %d students.", count),
		SignedOut: count,
	}, nil
}

// effectiveTime resolves the timestamp for a transition: the wall clock, or
// the manual HH:MM override applied to the activity's own date.
func (s *AttendanceService) effectiveTime(anchor time.Time, manualTime string, now time.Time) (time.Time, error) {
	if manualTime == "" {
		return now, nil
	}
	parsed, err := time.Parse("15:04", manualTime)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "Invalid manual time. Expected HH:MM.")
	}
	return time.Date(anchor.Year(), anchor.Month(), anchor.Day(),
		parsed.Hour(), parsed.Minute(), 0, 0, anchor.Location()), nil
}

func (s *AttendanceService) invalidateRoster(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "roster:*"); err != nil {
		s.logger.Warn("failed to invalidate roster cache", zap.Error(err))
	}
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}
