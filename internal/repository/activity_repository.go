package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/cshaw-hub/hub-api/internal/models"
)

// ActivityRepository handles persistence for volunteer activities and roles.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs the repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// List returns activities matching the filter, newest start time first.
func (r *ActivityRepository) List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, int, error) {
	base := `FROM activities a`
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.Campus != "" {
		where = append(where, fmt.Sprintf("a.campus = $%d", len(args)+1))
		args = append(args, filter.Campus)
	}
	if filter.CreatedBy != "" {
		where = append(where, fmt.Sprintf("a.created_by = $%d", len(args)+1))
		args = append(args, filter.CreatedBy)
	}
	if filter.From != nil {
		where = append(where, fmt.Sprintf("a.start_time >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		where = append(where, fmt.Sprintf("a.start_time <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	whereClause := strings.Join(where, " AND ")
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT a.id, a.title, a.campus, a.description, a.details, a.additional_details,
        a.total_spots, a.spots_taken, a.start_time, a.duration_hours, a.image_url, a.created_by, a.created_at
        %s WHERE %s
        ORDER BY a.start_time DESC
        LIMIT %d OFFSET %d`, base, whereClause, size, offset)

	var rows []models.Activity
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list activities: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count activities: %w", err)
	}

	for i := range rows {
		roles, err := r.rolesFor(ctx, rows[i].ID)
		if err != nil {
			return nil, 0, err
		}
		rows[i].Roles = roles
	}
	return rows, total, nil
}

// FindByID loads one activity with its roles.
func (r *ActivityRepository) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	query := `SELECT a.id, a.title, a.campus, a.description, a.details, a.additional_details,
        a.total_spots, a.spots_taken, a.start_time, a.duration_hours, a.image_url, a.created_by, a.created_at
        FROM activities a WHERE a.id = $1`
	var activity models.Activity
	if err := r.db.GetContext(ctx, &activity, query, id); err != nil {
		return nil, fmt.Errorf("find activity: %w", err)
	}
	roles, err := r.rolesFor(ctx, activity.ID)
	if err != nil {
		return nil, err
	}
	activity.Roles = roles
	return &activity, nil
}

// Create inserts the activity and its offered roles.
func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now().UTC()
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create activity: %w", err)
	}
	commit := false
	defer func() {
		if !commit {
			tx.Rollback()
		}
	}()

	query := `INSERT INTO activities (id, title, campus, description, details, additional_details,
        total_spots, spots_taken, start_time, duration_hours, image_url, created_by, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	if _, err := tx.ExecContext(ctx, query,
		activity.ID, activity.Title, activity.Campus, activity.Description, activity.Details,
		activity.AdditionalDetails, activity.TotalSpots, activity.SpotsTaken, activity.StartTime,
		activity.DurationHours, activity.ImageURL, activity.CreatedBy, activity.CreatedAt); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}

	for i := range activity.Roles {
		role := &activity.Roles[i]
		if role.ID == "" {
			role.ID = uuid.NewString()
		}
		role.ActivityID = activity.ID
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO activity_roles (id, activity_id, role_type) VALUES ($1, $2, $3)`,
			role.ID, role.ActivityID, role.RoleType); err != nil {
			return fmt.Errorf("insert activity role: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create activity: %w", err)
	}
	commit = true
	return nil
}

// Update rewrites the mutable activity fields.
func (r *ActivityRepository) Update(ctx context.Context, activity *models.Activity) error {
	query := `UPDATE activities SET title = $2, campus = $3, description = $4, details = $5,
        additional_details = $6, total_spots = $7, start_time = $8, duration_hours = $9, image_url = $10
        WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query,
		activity.ID, activity.Title, activity.Campus, activity.Description, activity.Details,
		activity.AdditionalDetails, activity.TotalSpots, activity.StartTime, activity.DurationHours,
		activity.ImageURL)
	if err != nil {
		return fmt.Errorf("update activity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update activity rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes the activity when it belongs to the given creator.
func (r *ActivityRepository) Delete(ctx context.Context, id, createdBy string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE id = $1 AND created_by = $2`, id, createdBy)
	if err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete activity rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// AdjustSpots changes spots_taken by delta, guarded so the counter stays
// within [0, total_spots].
func (r *ActivityRepository) AdjustSpots(ctx context.Context, id string, delta int) error {
	query := `UPDATE activities SET spots_taken = spots_taken + $2
        WHERE id = $1 AND spots_taken + $2 >= 0 AND spots_taken + $2 <= total_spots`
	result, err := r.db.ExecContext(ctx, query, id, delta)
	if err != nil {
		return fmt.Errorf("adjust spots: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("adjust spots rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// FindRole resolves one offered role on an activity.
func (r *ActivityRepository) FindRole(ctx context.Context, activityID, roleID string) (*models.ActivityRole, error) {
	var role models.ActivityRole
	query := `SELECT id, activity_id, role_type FROM activity_roles WHERE id = $1 AND activity_id = $2`
	if err := r.db.GetContext(ctx, &role, query, roleID, activityID); err != nil {
		return nil, fmt.Errorf("find activity role: %w", err)
	}
	return &role, nil
}

func (r *ActivityRepository) rolesFor(ctx context.Context, activityID string) ([]models.ActivityRole, error) {
	var roles []models.ActivityRole
	query := `SELECT id, activity_id, role_type FROM activity_roles WHERE activity_id = $1 ORDER BY role_type`
	if err := r.db.SelectContext(ctx, &roles, query, activityID); err != nil {
		return nil, fmt.Errorf("list activity roles: %w", err)
	}
	return roles, nil
}
