package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cshaw-hub/hub-api/internal/models"
)

const attendanceColumns = `su.id, su.activity_id, su.user_id,
        u.first_name AS student_name, u.last_name AS student_surname, u.email AS student_email,
        u.campus AS student_campus, ar.role_type AS role_label,
        su.signup_at, su.attended, su.sign_in_time, su.sign_out_time, su.hours_earned,
        su.sign_in_facilitator, su.sign_out_facilitator`

const attendanceJoins = `FROM signups su
JOIN users u ON u.id = su.user_id
LEFT JOIN activity_roles ar ON ar.id = su.selected_role_id`

// SignupRepository handles persistence for RSVPs and their attendance
// lifecycle.
type SignupRepository struct {
	db *sqlx.DB
}

// NewSignupRepository constructs the repository.
func NewSignupRepository(db *sqlx.DB) *SignupRepository {
	return &SignupRepository{db: db}
}

// Create records a new RSVP.
func (r *SignupRepository) Create(ctx context.Context, activityID, userID string, roleID *string) (string, error) {
	id := uuid.NewString()
	query := `INSERT INTO signups (id, activity_id, user_id, selected_role_id, signup_at, attended, hours_earned)
        VALUES ($1, $2, $3, $4, $5, FALSE, 0)`
	if _, err := r.db.ExecContext(ctx, query, id, activityID, userID, roleID, time.Now().UTC()); err != nil {
		return "", fmt.Errorf("insert signup: %w", err)
	}
	return id, nil
}

// Exists reports whether the user already RSVPed to the activity.
func (r *SignupRepository) Exists(ctx context.Context, activityID, userID string) (bool, error) {
	var count int
	query := `SELECT COUNT(*) FROM signups WHERE activity_id = $1 AND user_id = $2`
	if err := r.db.GetContext(ctx, &count, query, activityID, userID); err != nil {
		return false, fmt.Errorf("check signup: %w", err)
	}
	return count > 0, nil
}

// Delete cancels the user's RSVP; returns true when a row was removed.
func (r *SignupRepository) Delete(ctx context.Context, activityID, userID string) (bool, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM signups WHERE activity_id = $1 AND user_id = $2 AND sign_in_time IS NULL`,
		activityID, userID)
	if err != nil {
		return false, fmt.Errorf("delete signup: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete signup rows: %w", err)
	}
	return affected > 0, nil
}

// ListByActivity returns every attendance record for one activity.
func (r *SignupRepository) ListByActivity(ctx context.Context, activityID string) ([]models.AttendanceRecord, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE su.activity_id = $1 ORDER BY u.first_name, u.last_name`,
		attendanceColumns, attendanceJoins)
	var rows []models.AttendanceRecord
	if err := r.db.SelectContext(ctx, &rows, query, activityID); err != nil {
		return nil, fmt.Errorf("list attendance records: %w", err)
	}
	return rows, nil
}

// FindRecord loads one attendance record by signup id.
func (r *SignupRepository) FindRecord(ctx context.Context, id string) (*models.AttendanceRecord, error) {
	query := fmt.Sprintf(`SELECT %s %s WHERE su.id = $1`, attendanceColumns, attendanceJoins)
	var record models.AttendanceRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, fmt.Errorf("find attendance record: %w", err)
	}
	return &record, nil
}

// SetSignIn stamps the sign-in time and the facilitator who took it.
func (r *SignupRepository) SetSignIn(ctx context.Context, id string, at time.Time, facilitatorID string) error {
	query := `UPDATE signups SET sign_in_time = $2, sign_in_facilitator = $3
        WHERE id = $1 AND sign_in_time IS NULL`
	result, err := r.db.ExecContext(ctx, query, id, at, facilitatorID)
	if err != nil {
		return fmt.Errorf("set sign-in: %w", err)
	}
	return requireAffected(result, "set sign-in")
}

// SetSignOut stamps the sign-out time, earned hours and attended flag.
func (r *SignupRepository) SetSignOut(ctx context.Context, id string, at time.Time, hours float64, facilitatorID string) error {
	query := `UPDATE signups SET sign_out_time = $2, hours_earned = $3, attended = TRUE, sign_out_facilitator = $4
        WHERE id = $1 AND sign_in_time IS NOT NULL AND sign_out_time IS NULL`
	result, err := r.db.ExecContext(ctx, query, id, at, hours, facilitatorID)
	if err != nil {
		return fmt.Errorf("set sign-out: %w", err)
	}
	return requireAffected(result, "set sign-out")
}

// BulkSignout closes every open record of the activity at the given log-out
// time. Records whose sign-in is later than the log-out time keep their
// sign-in time as the close, earning zero hours rather than negative ones.
func (r *SignupRepository) BulkSignout(ctx context.Context, activityID string, at time.Time, facilitatorID string) (int, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin bulk signout: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	open := []struct {
		ID         string    `db:"id"`
		SignInTime time.Time `db:"sign_in_time"`
	}{}
	query := `SELECT id, sign_in_time FROM signups
        WHERE activity_id = $1 AND sign_in_time IS NOT NULL AND sign_out_time IS NULL
        FOR UPDATE`
	if err := tx.SelectContext(ctx, &open, query, activityID); err != nil {
		return 0, fmt.Errorf("select open records: %w", err)
	}

	update := `UPDATE signups SET sign_out_time = $2, hours_earned = $3, attended = TRUE, sign_out_facilitator = $4
        WHERE id = $1`
	for _, row := range open {
		closeAt := at
		if closeAt.Before(row.SignInTime) {
			closeAt = row.SignInTime
		}
		hours := models.HoursBetween(row.SignInTime, closeAt)
		if _, err := tx.ExecContext(ctx, update, row.ID, closeAt, hours, facilitatorID); err != nil {
			return 0, fmt.Errorf("bulk close record %s: %w", row.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit bulk signout: %w", err)
	}
	commit = true
	return len(open), nil
}

// StudentStats aggregates one student's hours, attended count and recent
// history.
func (r *SignupRepository) StudentStats(ctx context.Context, userID string) (*models.StudentStats, error) {
	stats := &models.StudentStats{}
	totals := struct {
		TotalHours     float64 `db:"total_hours"`
		EventsAttended int     `db:"events_attended"`
	}{}
	query := `SELECT COALESCE(SUM(hours_earned), 0) AS total_hours,
        COUNT(*) FILTER (WHERE attended) AS events_attended
        FROM signups WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &totals, query, userID); err != nil {
		return nil, fmt.Errorf("student totals: %w", err)
	}
	stats.TotalHours = totals.TotalHours
	stats.EventsAttended = totals.EventsAttended

	history := `SELECT a.title AS activity, su.sign_out_time AS date, su.hours_earned AS hours
        FROM signups su
        JOIN activities a ON a.id = su.activity_id
        WHERE su.user_id = $1 AND su.attended
        ORDER BY su.sign_out_time DESC
        LIMIT 5`
	if err := r.db.SelectContext(ctx, &stats.History, history, userID); err != nil {
		return nil, fmt.Errorf("student history: %w", err)
	}
	return stats, nil
}

// Roster lists every student with lifetime hours, grouped by campus.
func (r *SignupRepository) Roster(ctx context.Context) ([]models.RosterRow, error) {
	query := `SELECT u.id, u.first_name, u.last_name, u.email, u.student_number, u.campus,
        u.executive_position, COALESCE(SUM(su.hours_earned), 0) AS total_hours
        FROM users u
        LEFT JOIN signups su ON su.user_id = u.id
        WHERE u.role = 'STUDENT'
        GROUP BY u.id, u.first_name, u.last_name, u.email, u.student_number, u.campus, u.executive_position
        ORDER BY u.campus, u.first_name`
	var rows []models.RosterRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("student roster: %w", err)
	}
	return rows, nil
}

func requireAffected(result interface{ RowsAffected() (int64, error) }, op string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows: %w", op, err)
	}
	if affected == 0 {
		return fmt.Errorf("%s: no matching record", op)
	}
	return nil
}
