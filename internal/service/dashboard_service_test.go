package service

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/academy-inventory-api/internal/dto"
	"github.com/noah-isme/academy-inventory-api/internal/models"
	"github.com/noah-isme/academy-inventory-api/internal/repository"
)

type stubTotals struct {
	totals dto.InventoryTotals
	calls  int
}

func (s *stubTotals) Totals(ctx context.Context) (dto.InventoryTotals, error) {
	s.calls++
	return s.totals, nil
}

type stubAssignmentSummary struct {
	recent []models.Assignment
}

func (s stubAssignmentSummary) Count(ctx context.Context) (int, error) {
	return 7, nil
}

func (s stubAssignmentSummary) List(ctx context.Context, filter models.AssignmentFilter) ([]models.Assignment, error) {
	if filter.Limit > 0 && len(s.recent) > filter.Limit {
		return s.recent[:filter.Limit], nil
	}
	return s.recent, nil
}

type stubCounter int

func (s stubCounter) Count(ctx context.Context) (int, error) {
	return int(s), nil
}

func newRedisCache(t *testing.T) (StatsCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return repository.NewStatsCacheRepository(client, "dashboard"), mr
}

func TestDashboardServiceStats(t *testing.T) {
	totals := &stubTotals{totals: dto.InventoryTotals{TotalGoods: 3, TotalQuantity: 40, AvailableQuantity: 31}}
	recent := make([]models.Assignment, 8)
	for i := range recent {
		recent[i] = models.Assignment{ID: string(rune('a' + i))}
	}
	svc := NewDashboardService(totals, stubAssignmentSummary{recent: recent}, stubCounter(4), nil, nil, 0, nil)

	stats, cached, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 3, stats.TotalGoods)
	assert.Equal(t, 9, stats.AssignedQuantity)
	assert.Equal(t, 7, stats.TotalAssignments)
	assert.Equal(t, 4, stats.TotalCategories)
	assert.Len(t, stats.RecentAssignments, 5)
}

func TestDashboardServiceCachesUntilInvalidated(t *testing.T) {
	totals := &stubTotals{totals: dto.InventoryTotals{TotalGoods: 1, TotalQuantity: 5, AvailableQuantity: 5}}
	cache, _ := newRedisCache(t)
	metrics := NewMetricsService()
	svc := NewDashboardService(totals, stubAssignmentSummary{}, stubCounter(1), cache, metrics, time.Minute, zap.NewNop())
	ctx := context.Background()

	_, cached, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.False(t, cached)

	stats, cached, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 5, stats.AvailableQuantity)
	assert.Equal(t, 1, totals.calls)

	totals.totals.AvailableQuantity = 2
	svc.InvalidateStats(ctx)

	stats, cached, err = svc.Stats(ctx)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 3, stats.AssignedQuantity)
	assert.Equal(t, 2, totals.calls)
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheHits))
	assert.Equal(t, float64(2), testutil.ToFloat64(metrics.cacheMisses))
}

func TestDashboardServiceSurvivesCacheOutage(t *testing.T) {
	totals := &stubTotals{totals: dto.InventoryTotals{TotalGoods: 2, TotalQuantity: 6, AvailableQuantity: 6}}
	cache, mr := newRedisCache(t)
	svc := NewDashboardService(totals, stubAssignmentSummary{}, stubCounter(1), cache, nil, time.Minute, zap.NewNop())
	ctx := context.Background()
	mr.Close()

	stats, cached, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, stats.TotalGoods)
	assert.NotPanics(t, func() { svc.InvalidateStats(ctx) })
}

func TestDashboardInvalidateIsNilSafe(t *testing.T) {
	var svc *DashboardService
	assert.NotPanics(t, func() { svc.InvalidateStats(context.Background()) })
	assert.NotPanics(t, func() { invalidate(context.Background(), nil) })
}
