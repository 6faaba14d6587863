// Package cache provides an optional Redis-backed cache for trip statistics.
// Statistics are pure read-only rollups, so the cache only has to be
// invalidated on expense mutations and on trip budget/date changes.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"travelbudget/internal/logger"
)

// StatsCache caches serialized statistics payloads keyed by trip.
type StatsCache interface {
	GetStats(ctx context.Context, tripID uint) ([]byte, bool)
	SetStats(ctx context.Context, tripID uint, payload []byte, ttl time.Duration)
	Invalidate(ctx context.Context, tripID uint)
}

func statsKey(tripID uint) string {
	return fmt.Sprintf("stats:trip:%d", tripID)
}

// RedisCache is a StatsCache backed by Redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedis connects to Redis at the given URL and verifies the connection.
func NewRedis(redisURL string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		// Fallback to treating the value as a plain host:port address
		opt = &redis.Options{Addr: redisURL}
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisCache{client: client}, nil
}

// GetStats returns the cached payload for a trip, if present.
func (c *RedisCache) GetStats(ctx context.Context, tripID uint) ([]byte, bool) {
	data, err := c.client.Get(ctx, statsKey(tripID)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Get().Warnw("redis get failed", "trip_id", tripID, "error", err)
		}
		return nil, false
	}
	return data, true
}

// SetStats stores a statistics payload with the given TTL. Failures are
// logged and ignored; the cache is best-effort.
func (c *RedisCache) SetStats(ctx context.Context, tripID uint, payload []byte, ttl time.Duration) {
	if err := c.client.Set(ctx, statsKey(tripID), payload, ttl).Err(); err != nil {
		logger.Get().Warnw("redis set failed", "trip_id", tripID, "error", err)
	}
}

// Invalidate drops the cached statistics for a trip.
func (c *RedisCache) Invalidate(ctx context.Context, tripID uint) {
	if err := c.client.Del(ctx, statsKey(tripID)).Err(); err != nil {
		logger.Get().Warnw("redis del failed", "trip_id", tripID, "error", err)
	}
}

// Noop is a StatsCache that caches nothing. Used when REDIS_URL is unset
// and in tests.
type Noop struct{}

// NewNoop returns a no-op StatsCache.
func NewNoop() Noop { return Noop{} }

// GetStats always misses.
func (Noop) GetStats(context.Context, uint) ([]byte, bool) { return nil, false }

// SetStats discards the payload.
func (Noop) SetStats(context.Context, uint, []byte, time.Duration) {}

// Invalidate does nothing.
func (Noop) Invalidate(context.Context, uint) {}
