package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/cshaw-hub/hub-api/internal/dto"
	"github.com/cshaw-hub/hub-api/internal/models"
)

// ReportRepository serves the read models behind event and quarterly reports.
type ReportRepository struct {
	db *sqlx.DB
}

// NewReportRepository constructs the repository.
func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// FacilitatorStats counts transitions per coordinator for one activity.
func (r *ReportRepository) FacilitatorStats(ctx context.Context, activityID string) (*dto.FacilitatorStats, error) {
	stats := &dto.FacilitatorStats{}

	signIns := `SELECT u.first_name, u.last_name, COUNT(su.id) AS count
        FROM signups su
        JOIN users u ON u.id = su.sign_in_facilitator
        WHERE su.activity_id = $1 AND su.sign_in_facilitator IS NOT NULL
        GROUP BY u.first_name, u.last_name
        ORDER BY count DESC`
	if err := r.db.SelectContext(ctx, &stats.SignIns, signIns, activityID); err != nil {
		return nil, fmt.Errorf("facilitator sign-ins: %w", err)
	}

	signOuts := `SELECT u.first_name, u.last_name, COUNT(su.id) AS count
        FROM signups su
        JOIN users u ON u.id = su.sign_out_facilitator
        WHERE su.activity_id = $1 AND su.sign_out_facilitator IS NOT NULL
        GROUP BY u.first_name, u.last_name
        ORDER BY count DESC`
	if err := r.db.SelectContext(ctx, &stats.SignOuts, signOuts, activityID); err != nil {
		return nil, fmt.Errorf("facilitator sign-outs: %w", err)
	}

	return stats, nil
}

// QuarterlyRow is one activity/signup pair within a reporting year. Signup
// columns are nullable so activities without RSVPs still appear.
type QuarterlyRow struct {
	ActivityID    string         `db:"activity_id"`
	Title         string         `db:"title"`
	Campus        models.Campus  `db:"campus"`
	StartTime     time.Time      `db:"start_time"`
	StudentCampus *models.Campus `db:"student_campus"`
	Attended      *bool          `db:"attended"`
	SignInTime    *time.Time     `db:"sign_in_time"`
}

// QuarterlyRows returns every activity in the year joined with its signups.
func (r *ReportRepository) QuarterlyRows(ctx context.Context, year int) ([]QuarterlyRow, error) {
	query := `SELECT a.id AS activity_id, a.title, a.campus, a.start_time,
        u.campus AS student_campus, su.attended, su.sign_in_time
        FROM activities a
        LEFT JOIN signups su ON su.activity_id = a.id
        LEFT JOIN users u ON u.id = su.user_id
        WHERE EXTRACT(YEAR FROM a.start_time) = $1
        ORDER BY a.start_time`
	var rows []QuarterlyRow
	if err := r.db.SelectContext(ctx, &rows, query, year); err != nil {
		return nil, fmt.Errorf("quarterly rows: %w", err)
	}
	return rows, nil
}
