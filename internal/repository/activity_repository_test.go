package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cshaw-hub/hub-api/internal/models"
)

func newActivityRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func activityMockColumns() []string {
	return []string{
		"id", "title", "campus", "description", "details", "additional_details",
		"total_spots", "spots_taken", "start_time", "duration_hours", "image_url",
		"created_by", "created_at",
	}
}

func TestActivityRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newActivityRepoMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("FROM activities a WHERE a.id = $1")).
		WithArgs("act-1").
		WillReturnRows(sqlmock.NewRows(activityMockColumns()).
			AddRow("act-1", "Beach Cleanup", models.CampusAPK, "Clean the beach", "Bring gloves", nil,
				20, 5, start, 4.0, nil, "coord-1", time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, activity_id, role_type FROM activity_roles")).
		WithArgs("act-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "activity_id", "role_type"}).
			AddRow("role-1", "act-1", models.RoleTypeSetup))

	activity, err := repo.FindByID(context.Background(), "act-1")
	require.NoError(t, err)
	assert.Equal(t, "Beach Cleanup", activity.Title)
	assert.Equal(t, 15, activity.SpotsLeft())
	assert.Equal(t, start.Add(4*time.Hour), activity.EndTime())
	require.Len(t, activity.Roles, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepositoryListFiltersByCampus(t *testing.T) {
	db, mock, cleanup := newActivityRepoMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("a.campus = $1")).
		WithArgs(models.CampusAPK).
		WillReturnRows(sqlmock.NewRows(activityMockColumns()).
			AddRow("act-1", "Beach Cleanup", models.CampusAPK, "d", "d", nil,
				20, 0, time.Now(), 4.0, nil, "coord-1", time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs(models.CampusAPK).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, activity_id, role_type FROM activity_roles")).
		WithArgs("act-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "activity_id", "role_type"}))

	activities, total, err := repo.List(context.Background(), models.ActivityFilter{Campus: models.CampusAPK})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, activities, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepositoryAdjustSpotsGuarded(t *testing.T) {
	db, mock, cleanup := newActivityRepoMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE activities SET spots_taken = spots_taken + $2")).
		WithArgs("act-1", 1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.AdjustSpots(context.Background(), "act-1", 1)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepositoryCreateInsertsRoles(t *testing.T) {
	db, mock, cleanup := newActivityRepoMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO activities")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO activity_roles")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	activity := &models.Activity{
		Title: "Beach Cleanup", Campus: models.CampusAPK,
		Description: "d", Details: "d", TotalSpots: 20,
		StartTime: time.Now(), DurationHours: 4, CreatedBy: "coord-1",
		Roles: []models.ActivityRole{{RoleType: models.RoleTypeGeneral}},
	}
	require.NoError(t, repo.Create(context.Background(), activity))
	assert.NotEmpty(t, activity.ID)
	assert.Equal(t, activity.ID, activity.Roles[0].ActivityID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestActivityRepositoryDeleteNotOwned(t *testing.T) {
	db, mock, cleanup := newActivityRepoMock(t)
	defer cleanup()
	repo := NewActivityRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM activities WHERE id = $1 AND created_by = $2")).
		WithArgs("act-1", "coord-2").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), "act-1", "coord-2")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
