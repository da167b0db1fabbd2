package repositories

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aleex825/budgetwise-backend/internal/logger"
)

// RateLimitRepository keeps fixed-window request counters in Redis
type RateLimitRepository struct {
	client *redis.Client
}

// NewRateLimitRepository creates a new repository instance
func NewRateLimitRepository(client *redis.Client) *RateLimitRepository {
	return &RateLimitRepository{client: client}
}

// Increment bumps the counter stored under key and returns its new value.
// The key expires after window, counted from the first hit.
func (r *RateLimitRepository) Increment(ctx context.Context, key string, window time.Duration) (int64, error) {
	var incr *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		pipe.ExpireNX(ctx, key, window)
		return nil
	})

	var count int64
	if err == nil {
		count = incr.Val()
	}

	logger.FromContext(ctx).Infow("rate limit counter incremented",
		"key", key,
		"window", window,
		"result", count,
		"error", err,
	)

	return count, err
}
