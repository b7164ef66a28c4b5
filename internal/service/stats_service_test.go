package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cshaw-hub/hub-api/internal/models"
	"github.com/cshaw-hub/hub-api/pkg/config"
	appErrors "github.com/cshaw-hub/hub-api/pkg/errors"
)

type mockStatsRepo struct {
	stats  map[string]models.StudentStats
	roster []models.RosterRow
	calls  int
}

func (m *mockStatsRepo) StudentStats(ctx context.Context, userID string) (*models.StudentStats, error) {
	s := m.stats[userID]
	return &s, nil
}

func (m *mockStatsRepo) Roster(ctx context.Context) ([]models.RosterRow, error) {
	m.calls++
	return m.roster, nil
}

type memoryCache struct {
	store map[string][]byte
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.store == nil {
		m.store = map[string][]byte{}
	}
	m.store[key] = raw
	return nil
}

func milestonesConfig() config.MilestonesConfig {
	return config.MilestonesConfig{HikingHours: 40, CampHours: 80}
}

func TestStatsServiceRosterCaches(t *testing.T) {
	repo := &mockStatsRepo{roster: []models.RosterRow{
		{ID: "u1", FirstName: "Jane", LastName: "Doe", Campus: models.CampusAPK, TotalHours: 12},
	}}
	cache := &memoryCache{}
	svc := NewStatsService(repo, cache, milestonesConfig(), 5*time.Minute, zap.NewNop())

	first, err := svc.Roster(context.Background())
	require.NoError(t, err)
	second, err := svc.Roster(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.calls)
}

func TestStatsServiceMilestoneQualifiers(t *testing.T) {
	repo := &mockStatsRepo{roster: []models.RosterRow{
		{FirstName: "Under", LastName: "Forty", TotalHours: 39.99},
		{FirstName: "Hiking", LastName: "Only", TotalHours: 40},
		{FirstName: "Camp", LastName: "Ready", TotalHours: 95.5},
	}}
	svc := NewStatsService(repo, nil, milestonesConfig(), time.Minute, zap.NewNop())

	qualifiers, err := svc.MilestoneQualifiers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Hiking Only", "Camp Ready"}, qualifiers.HikingTrip)
	assert.Equal(t, []string{"Camp Ready"}, qualifiers.AnnualCamp)
}

func TestStatsServiceStudentStats(t *testing.T) {
	repo := &mockStatsRepo{stats: map[string]models.StudentStats{
		"u1": {TotalHours: 23.5, EventsAttended: 6},
	}}
	svc := NewStatsService(repo, nil, milestonesConfig(), time.Minute, zap.NewNop())

	stats, err := svc.StudentStats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 23.5, stats.TotalHours)
	assert.Equal(t, 6, stats.EventsAttended)
}
