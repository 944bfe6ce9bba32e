package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimitService guards burst-prone operations with short-lived redis
// locks, one per (user, operation) pair.
type RateLimitService interface {
	// Allow takes the lock for the window. False means the previous window
	// has not expired yet.
	Allow(ctx context.Context, userID uuid.UUID, operation string, window time.Duration) (bool, error)
	// RetryAfter reports how long until the user may retry the operation.
	RetryAfter(ctx context.Context, userID uuid.UUID, operation string) (time.Duration, error)
	// Clear releases the lock early, used when the guarded operation fails
	// before doing any work.
	Clear(ctx context.Context, userID uuid.UUID, operation string) error
}

type rateLimitService struct {
	rdb *redis.Client
}

// NewRateLimitService wraps the redis client. A nil client disables rate
// limiting entirely.
func NewRateLimitService(rdb *redis.Client) RateLimitService {
	return &rateLimitService{rdb: rdb}
}

func (s *rateLimitService) Allow(ctx context.Context, userID uuid.UUID, operation string, window time.Duration) (bool, error) {
	return CheckAndSetRateLimit(ctx, s.rdb, userID, operation, window)
}

func (s *rateLimitService) RetryAfter(ctx context.Context, userID uuid.UUID, operation string) (time.Duration, error) {
	return GetRateLimitTTL(ctx, s.rdb, userID, operation)
}

func (s *rateLimitService) Clear(ctx context.Context, userID uuid.UUID, operation string) error {
	return ClearRateLimit(ctx, s.rdb, userID, operation)
}

// CheckAndSetRateLimit sets a short-lived redis lock for the given user and
// operation. Returns true when the caller may proceed. With no redis client
// rate limiting is disabled.
func CheckAndSetRateLimit(ctx context.Context, rdb *redis.Client, userID uuid.UUID, operation string, window time.Duration) (bool, error) {
	if rdb == nil {
		return true, nil
	}

	key := fmt.Sprintf("rate_limit:user:%s:%s", userID.String(), operation)

	wasSet, err := rdb.SetNX(ctx, key, "locked", window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check rate limit in redis: %w", err)
	}

	return wasSet, nil
}

// GetRateLimitTTL reports how long until the user may retry the operation.
func GetRateLimitTTL(ctx context.Context, rdb *redis.Client, userID uuid.UUID, operation string) (time.Duration, error) {
	if rdb == nil {
		return 0, nil
	}
	key := fmt.Sprintf("rate_limit:user:%s:%s", userID.String(), operation)
	return rdb.TTL(ctx, key).Result()
}

// ClearRateLimit releases the lock early, used when the guarded operation
// fails before doing any work.
func ClearRateLimit(ctx context.Context, rdb *redis.Client, userID uuid.UUID, operation string) error {
	if rdb == nil {
		return nil
	}
	key := fmt.Sprintf("rate_limit:user:%s:%s", userID.String(), operation)
	_, err := rdb.Del(ctx, key).Result()
	return err
}
