package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Harsh-BH/intervue/internal/repository"
)

var _ repository.IdempotencyStore = (*redisIdempotency)(nil)

const (
	lockKeyPrefix = "intervue:lock:"

	// DefaultLockTTL outlives the longest expected pipeline run.
	DefaultLockTTL = 30 * time.Minute
)

type redisIdempotency struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewRedisIdempotencyStore creates a Redis-backed idempotency store using SET NX.
func NewRedisIdempotencyStore(client *goredis.Client, ttl time.Duration) repository.IdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &redisIdempotency{client: client, ttl: ttl}
}

// AcquireLock uses Redis SETNX to atomically claim an interview for processing.
func (r *redisIdempotency) AcquireLock(ctx context.Context, interviewID string) (bool, error) {
	ok, err := r.client.SetNX(ctx, lockKeyPrefix+interviewID, time.Now().Unix(), r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis: acquire lock: %w", err)
	}
	return ok, nil
}

// ReleaseLock refreshes the TTL on the lock key so redeliveries within the window stay deduplicated.
func (r *redisIdempotency) ReleaseLock(ctx context.Context, interviewID string) error {
	if err := r.client.Expire(ctx, lockKeyPrefix+interviewID, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis: release lock: %w", err)
	}
	return nil
}
