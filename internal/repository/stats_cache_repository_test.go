package repository

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/academy-inventory-api/internal/dto"
	"github.com/noah-isme/academy-inventory-api/internal/models"
	appErrors "github.com/noah-isme/academy-inventory-api/pkg/errors"
)

func newStatsCache(t *testing.T, namespace string) (*StatsCacheRepository, *miniredis.Miniredis) {
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStatsCacheRepository(client, namespace), srv
}

func TestStatsCacheRoundTrip(t *testing.T) {
	repo, srv := newStatsCache(t, "dashboard:")
	ctx := context.Background()

	_, err := repo.LoadStats(ctx)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)

	snapshot := &dto.DashboardStats{
		TotalGoods:        4,
		AvailableQuantity: 9,
		RecentAssignments: []models.Assignment{{ID: "a-1", InstructorName: "Ana", Discipline: "Football"}},
	}
	require.NoError(t, repo.StoreStats(ctx, snapshot, time.Minute))
	assert.True(t, srv.Exists("dashboard:stats"))

	got, err := repo.LoadStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, got.TotalGoods)
	require.Len(t, got.RecentAssignments, 1)
	assert.Equal(t, "Ana", got.RecentAssignments[0].InstructorName)

	srv.FastForward(2 * time.Minute)
	_, err = repo.LoadStats(ctx)
	assert.ErrorIs(t, err, appErrors.ErrCacheMiss)
}

func TestStatsCacheRejectsCorruptSnapshot(t *testing.T) {
	repo, srv := newStatsCache(t, "dashboard")
	require.NoError(t, srv.Set("dashboard:stats", "{not json"))

	_, err := repo.LoadStats(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, appErrors.ErrCacheMiss)
}

func TestStatsCachePurgeStaysInNamespace(t *testing.T) {
	repo, srv := newStatsCache(t, "inventory-dashboard")
	ctx := context.Background()

	require.NoError(t, repo.StoreStats(ctx, &dto.DashboardStats{TotalGoods: 1}, time.Minute))
	require.NoError(t, srv.Set("inventory-dashboard:legacy", "x"))
	require.NoError(t, srv.Set("sessions:abc", "keep"))

	removed, err := repo.Purge(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.False(t, srv.Exists("inventory-dashboard:stats"))
	assert.True(t, srv.Exists("sessions:abc"))

	removed, err = repo.Purge(ctx)
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestStatsCacheDefaultNamespace(t *testing.T) {
	repo := NewStatsCacheRepository(nil, "  ")
	assert.Equal(t, "dashboard:stats", repo.key(statsSnapshotKey))
}
