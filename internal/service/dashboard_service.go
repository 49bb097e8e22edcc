package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/academy-inventory-api/internal/dto"
	"github.com/noah-isme/academy-inventory-api/internal/models"
	appErrors "github.com/noah-isme/academy-inventory-api/pkg/errors"
)

const recentAssignmentsMax = 5

type goodTotalsRepository interface {
	Totals(ctx context.Context) (dto.InventoryTotals, error)
}

type assignmentSummaryRepository interface {
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error)
}

type categoryCounter interface {
	Count(ctx context.Context) (int, error)
}

// StatsCache persists dashboard snapshots between requests. LoadStats reports
// appErrors.ErrCacheMiss when no snapshot is stored.
type StatsCache interface {
	LoadStats(ctx context.Context) (*dto.DashboardStats, error)
	StoreStats(ctx context.Context, stats *dto.DashboardStats, ttl time.Duration) error
	Purge(ctx context.Context) (int, error)
}

// statsInvalidator drops cached aggregates after inventory mutations.
type statsInvalidator interface {
	InvalidateStats(ctx context.Context)
}

// DashboardService aggregates inventory figures, cached when Redis is configured.
type DashboardService struct {
	goods       goodTotalsRepository
	assignments assignmentSummaryRepository
	categories  categoryCounter
	cache       StatsCache
	metrics     *MetricsService
	ttl         time.Duration
	logger      *zap.Logger
}

// NewDashboardService constructs a DashboardService. A nil cache computes every request.
func NewDashboardService(goods goodTotalsRepository, assignments assignmentSummaryRepository, categories categoryCounter, cache StatsCache, metrics *MetricsService, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &DashboardService{goods: goods, assignments: assignments, categories: categories, cache: cache, metrics: metrics, ttl: ttl, logger: logger}
}

// Stats returns the inventory overview and whether it came from cache.
func (s *DashboardService) Stats(ctx context.Context) (*dto.DashboardStats, bool, error) {
	if cached := s.cachedStats(ctx); cached != nil {
		return cached, true, nil
	}

	totals, err := s.goods.Totals(ctx)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to sum inventory")
	}
	assignmentCount, err := s.assignments.Count(ctx)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to count assignments")
	}
	categoryCount, err := s.categories.Count(ctx)
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to count categories")
	}
	recent, err := s.assignments.List(ctx, models.AssignmentFilter{Limit: recentAssignmentsMax})
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to load recent assignments")
	}
	if recent == nil {
		recent = []models.Assignment{}
	}

	stats := &dto.DashboardStats{
		TotalGoods:        totals.TotalGoods,
		TotalQuantity:     totals.TotalQuantity,
		AvailableQuantity: totals.AvailableQuantity,
		AssignedQuantity:  totals.TotalQuantity - totals.AvailableQuantity,
		TotalAssignments:  assignmentCount,
		TotalCategories:   categoryCount,
		RecentAssignments: recent,
	}

	s.storeStats(ctx, stats)
	return stats, false, nil
}

// InvalidateStats drops cached aggregates. Failures only delay freshness until the TTL.
func (s *DashboardService) InvalidateStats(ctx context.Context) {
	if s == nil || s.cache == nil {
		return
	}
	removed, err := s.cache.Purge(ctx)
	if err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
		return
	}
	s.logger.Debug("dashboard cache invalidated", zap.Int("keys", removed))
}

// cachedStats returns the stored snapshot, or nil on a miss or a cache failure.
func (s *DashboardService) cachedStats(ctx context.Context) *dto.DashboardStats {
	if s.cache == nil {
		return nil
	}
	start := time.Now()
	stats, err := s.cache.LoadStats(ctx)
	s.metrics.RecordCacheOperation(err == nil, time.Since(start))
	if err != nil {
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
		return nil
	}
	return stats
}

func (s *DashboardService) storeStats(ctx context.Context, stats *dto.DashboardStats) {
	if s.cache == nil {
		return
	}
	start := time.Now()
	err := s.cache.StoreStats(ctx, stats, s.ttl)
	s.metrics.ObserveCacheWrite(time.Since(start))
	if err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
}

func invalidate(ctx context.Context, inv statsInvalidator) {
	if inv != nil {
		inv.InvalidateStats(ctx)
	}
}
