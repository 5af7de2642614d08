package assignment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisOfferLock implements OfferLock on Redis SETNX with a TTL so a
// crashed instance never leaves a driver fenced forever.
type RedisOfferLock struct {
	client *redis.Client
}

// NewRedisOfferLock creates a Redis-backed offer lock
func NewRedisOfferLock(client *redis.Client) *RedisOfferLock {
	return &RedisOfferLock{client: client}
}

// AcquireDriverLock attempts to acquire the lock for the given driver.
// Returns true if the lock was acquired, false if already held.
func (l *RedisOfferLock) AcquireDriverLock(ctx context.Context, driverID uuid.UUID, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:driver:%s", driverID)

	ok, err := l.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseDriverLock releases the lock for the given driver
func (l *RedisOfferLock) ReleaseDriverLock(ctx context.Context, driverID uuid.UUID) error {
	key := fmt.Sprintf("lock:driver:%s", driverID)

	return l.client.Del(ctx, key).Err()
}
