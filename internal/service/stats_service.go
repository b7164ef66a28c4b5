package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cshaw-hub/hub-api/internal/dto"
	"github.com/cshaw-hub/hub-api/internal/models"
	"github.com/cshaw-hub/hub-api/pkg/config"
	appErrors "github.com/cshaw-hub/hub-api/pkg/errors"
)

type statsRepository interface {
	StudentStats(ctx context.Context, userID string) (*models.StudentStats, error)
	Roster(ctx context.Context) ([]models.RosterRow, error)
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// StatsService serves student hour totals and the coordinator roster. The
// roster is cached; attendance writes invalidate it.
type StatsService struct {
	repo       statsRepository
	cache      statsCache
	milestones config.MilestonesConfig
	cacheTTL   time.Duration
	logger     *zap.Logger
}

// NewStatsService constructs the service.
func NewStatsService(repo statsRepository, cache statsCache, milestones config.MilestonesConfig, cacheTTL time.Duration, logger *zap.Logger) *StatsService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsService{
		repo:       repo,
		cache:      cache,
		milestones: milestones,
		cacheTTL:   cacheTTL,
		logger:     logger,
	}
}

// StudentStats returns one student's totals and recent history.
func (s *StatsService) StudentStats(ctx context.Context, userID string) (*models.StudentStats, error) {
	stats, err := s.repo.StudentStats(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student stats")
	}
	return stats, nil
}

// Roster lists every student grouped by campus with lifetime hours.
func (s *StatsService) Roster(ctx context.Context) ([]models.RosterRow, error) {
	const key = "roster:students"
	if s.cache != nil {
		var cached []models.RosterRow
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("roster cache read failed", zap.Error(err))
		}
	}

	rows, err := s.repo.Roster(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, rows, s.cacheTTL); err != nil {
			s.logger.Warn("roster cache write failed", zap.Error(err))
		}
	}
	return rows, nil
}

// MilestoneQualifiers splits the roster into students whose lifetime hours
// clear the hiking trip and annual camp thresholds. The thresholds are
// advisory floors; the list is informational, not a gate.
func (s *StatsService) MilestoneQualifiers(ctx context.Context) (*dto.MilestoneQualifiers, error) {
	rows, err := s.Roster(ctx)
	if err != nil {
		return nil, err
	}

	qualifiers := &dto.MilestoneQualifiers{
		HikingTrip: []string{},
		AnnualCamp: []string{},
	}
	for _, row := range rows {
		name := fmt.Sprintf("%s %s", row.FirstName, row.LastName)
		if row.TotalHours >= s.milestones.HikingHours {
			qualifiers.HikingTrip = append(qualifiers.HikingTrip, name)
		}
		if row.TotalHours >= s.milestones.CampHours {
			qualifiers.AnnualCamp = append(qualifiers.AnnualCamp, name)
		}
	}
	return qualifiers, nil
}
