package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter tracks how many messages a tenant sent inside the rolling window
type Limiter interface {
	Count(ctx context.Context, tenantID string) (int64, error)
	Add(ctx context.Context, tenantID string, n int) error
}

// RedisWindow counts sends per tenant in a fixed window backed by a Redis
// key with a TTL. The window restarts when the key expires rather than
// sliding; the provider ceiling this mirrors is equally coarse.
type RedisWindow struct {
	rdb    *redis.Client
	window time.Duration
}

// NewRedisWindow creates a window limiter
func NewRedisWindow(rdb *redis.Client, window time.Duration) *RedisWindow {
	if window <= 0 {
		window = time.Minute
	}
	return &RedisWindow{rdb: rdb, window: window}
}

// Count returns the number of sends recorded in the current window
func (w *RedisWindow) Count(ctx context.Context, tenantID string) (int64, error) {
	count, err := w.rdb.Get(ctx, w.key(tenantID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read velocity counter: %w", err)
	}
	return count, nil
}

// Add records n sends against the current window. The TTL is set when the
// key is created, so the window starts at the first send after expiry.
func (w *RedisWindow) Add(ctx context.Context, tenantID string, n int) error {
	if n <= 0 {
		return nil
	}

	key := w.key(tenantID)
	count, err := w.rdb.IncrBy(ctx, key, int64(n)).Result()
	if err != nil {
		return fmt.Errorf("failed to increment velocity counter: %w", err)
	}

	if count == int64(n) {
		if err := w.rdb.Expire(ctx, key, w.window).Err(); err != nil {
			return fmt.Errorf("failed to set velocity window ttl: %w", err)
		}
	}

	return nil
}

func (w *RedisWindow) key(tenantID string) string {
	return "velocity:" + tenantID
}
