package service

import (
	"context"
	"time"

	"filing-tracker/pkg/common"

	"github.com/redis/go-redis/v9"
)

// ArchiveLocker serializes archive attempts per ticker across concurrent
// scans. TryLock returns false when another scan holds the ticker.
type ArchiveLocker interface {
	TryLock(ctx context.Context, ticker string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, ticker string) error
}

// NewRedisArchiveLocker creates a Redis SetNX-based locker.
func NewRedisArchiveLocker(client *redis.Client) ArchiveLocker {
	return &redisArchiveLocker{client: client}
}

type redisArchiveLocker struct {
	client *redis.Client
}

func (l *redisArchiveLocker) TryLock(ctx context.Context, ticker string, ttl time.Duration) (bool, error) {
	return l.client.SetNX(ctx, common.RedisKeyArchiveLockPrefix+ticker, 1, ttl).Result()
}

func (l *redisArchiveLocker) Unlock(ctx context.Context, ticker string) error {
	return l.client.Del(ctx, common.RedisKeyArchiveLockPrefix+ticker).Err()
}

// NopArchiveLocker always grants the lock. Suitable for single-scheduler
// deployments where scans never run concurrently.
type NopArchiveLocker struct{}

// TryLock implements ArchiveLocker.
func (NopArchiveLocker) TryLock(context.Context, string, time.Duration) (bool, error) {
	return true, nil
}

// Unlock implements ArchiveLocker.
func (NopArchiveLocker) Unlock(context.Context, string) error { return nil }
