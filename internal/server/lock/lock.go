// Package lock provides short-lived named locks used to serialize the
// check-then-create step of task generation across concurrent runs.
package lock

import (
	"context"
	"time"
)

// Unlock releases a lock obtained from TryLock. Releasing an expired or
// already released lock is not an error.
type Unlock func(ctx context.Context) error

// Locker acquires a named lock without waiting. When the lock is held
// elsewhere TryLock returns common.ErrLockNotAcquired.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (Unlock, error)
}
