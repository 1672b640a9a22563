package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/arbradar/arbradar/internal/domain"
)

const (
	statsKey        = "stats:snapshot"
	defaultStatsTTL = 30 * time.Second
)

// StatsCache implements domain.StatsCache using a single JSON-serialized
// Redis key with a short TTL.
type StatsCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewStatsCache creates a StatsCache backed by the given Client. A
// non-positive ttl falls back to 30 seconds.
func NewStatsCache(c *Client, ttl time.Duration) *StatsCache {
	if ttl <= 0 {
		ttl = defaultStatsTTL
	}
	return &StatsCache{rdb: c.Underlying(), ttl: ttl}
}

// Get returns the cached snapshot, or domain.ErrNotFound on a miss.
func (sc *StatsCache) Get(ctx context.Context) (domain.MarketStats, error) {
	data, err := sc.rdb.Get(ctx, statsKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.MarketStats{}, domain.ErrNotFound
		}
		return domain.MarketStats{}, fmt.Errorf("redis: get stats: %w", err)
	}

	var stats domain.MarketStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return domain.MarketStats{}, fmt.Errorf("redis: unmarshal stats: %w", err)
	}
	return stats, nil
}

// Set stores the snapshot with the cache TTL.
func (sc *StatsCache) Set(ctx context.Context, stats domain.MarketStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return fmt.Errorf("redis: marshal stats: %w", err)
	}
	if err := sc.rdb.Set(ctx, statsKey, data, sc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set stats: %w", err)
	}
	return nil
}

// Invalidate drops the cached snapshot so the next read recomputes it.
func (sc *StatsCache) Invalidate(ctx context.Context) error {
	if err := sc.rdb.Del(ctx, statsKey).Err(); err != nil {
		return fmt.Errorf("redis: invalidate stats: %w", err)
	}
	return nil
}

var _ domain.StatsCache = (*StatsCache)(nil)
