package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ultimatefaloe/59Minutes-Backend/domain"
)

// RateLimitRepositoryImpl implements domain.RateLimitRepository using Redis fixed windows.
type RateLimitRepositoryImpl struct {
	client *redis.Client
	prefix string
}

// NewRateLimitRepository creates a new rate limit repository
func NewRateLimitRepository(client *redis.Client) domain.RateLimitRepository {
	return &RateLimitRepositoryImpl{
		client: client,
		prefix: "ratelimit:",
	}
}

// Hit implements domain.RateLimitRepository. The window starts with the first hit on key.
func (r *RateLimitRepositoryImpl) Hit(ctx context.Context, key string, window time.Duration) (int64, error) {
	fullKey := r.prefix + key

	count, err := r.client.Incr(ctx, fullKey).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to record hit: %w", err)
	}
	if count == 1 {
		if err := r.client.Expire(ctx, fullKey, window).Err(); err != nil {
			return 0, fmt.Errorf("failed to set window expiry: %w", err)
		}
	}
	return count, nil
}

// Reset implements domain.RateLimitRepository
func (r *RateLimitRepositoryImpl) Reset(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}
