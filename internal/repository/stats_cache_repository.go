package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/academy-inventory-api/internal/dto"
	appErrors "github.com/noah-isme/academy-inventory-api/pkg/errors"
)

const (
	statsSnapshotKey = "stats"
	purgeScanCount   = 100
)

// StatsCacheRepository keeps dashboard snapshots in Redis. Every key lives under one
// namespace so a purge never touches keys owned by other clients of the instance.
type StatsCacheRepository struct {
	client    *redis.Client
	namespace string
}

// NewStatsCacheRepository binds the repository to a Redis client and key namespace.
func NewStatsCacheRepository(client *redis.Client, namespace string) *StatsCacheRepository {
	namespace = strings.TrimSuffix(strings.TrimSpace(namespace), ":")
	if namespace == "" {
		namespace = "dashboard"
	}
	return &StatsCacheRepository{client: client, namespace: namespace}
}

func (r *StatsCacheRepository) key(name string) string {
	return r.namespace + ":" + name
}

// LoadStats returns the cached snapshot or appErrors.ErrCacheMiss.
func (r *StatsCacheRepository) LoadStats(ctx context.Context) (*dto.DashboardStats, error) {
	key := r.key(statsSnapshotKey)
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, appErrors.ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}

	var stats dto.DashboardStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, fmt.Errorf("decode dashboard snapshot: %w", err)
	}
	return &stats, nil
}

// StoreStats caches a snapshot for ttl.
func (r *StatsCacheRepository) StoreStats(ctx context.Context, stats *dto.DashboardStats, ttl time.Duration) error {
	key := r.key(statsSnapshotKey)
	payload, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("encode dashboard snapshot: %w", err)
	}
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Purge deletes every key under the namespace and reports how many were removed.
func (r *StatsCacheRepository) Purge(ctx context.Context) (int, error) {
	pattern := r.key("*")
	removed := 0
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, purgeScanCount).Result()
		if err != nil {
			return removed, fmt.Errorf("redis scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			n, err := r.client.Del(ctx, keys...).Result()
			if err != nil {
				return removed, fmt.Errorf("redis delete under %s: %w", r.namespace, err)
			}
			removed += int(n)
		}
		if next == 0 {
			return removed, nil
		}
		cursor = next
	}
}
