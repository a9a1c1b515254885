package worker

import (
	"context"
	"fmt"
	"time"

	"docaudit/internal/platform/redis"
)

// Locker serializes audit runs per case.
type Locker interface {
	// Acquire returns false when another run already holds the case.
	Acquire(ctx context.Context, caseID int64) (bool, error)
	Release(ctx context.Context, caseID int64)
}

// RunLocker implements Locker on Redis with a TTL so a crashed worker cannot
// hold a case forever. A nil Redis client disables locking, which is fine for
// a single worker instance.
type RunLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRunLocker builds a Redis-backed run locker.
func NewRunLocker(client *redis.Client, ttl time.Duration) *RunLocker {
	return &RunLocker{client: client, ttl: ttl}
}

func lockKey(caseID int64) string {
	return fmt.Sprintf("docaudit:run-lock:%d", caseID)
}

func (l *RunLocker) Acquire(ctx context.Context, caseID int64) (bool, error) {
	if l.client == nil {
		return true, nil
	}
	return l.client.SetNX(ctx, lockKey(caseID), "1", l.ttl).Result()
}

func (l *RunLocker) Release(ctx context.Context, caseID int64) {
	if l.client == nil {
		return
	}
	l.client.Del(ctx, lockKey(caseID))
}
