package lock

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/plantops/internal/clock"
	"github.com/dmitrijs2005/plantops/internal/common"
)

type memoryEntry struct {
	token   uint64
	expires time.Time
}

// MemoryLocker serializes generation inside a single process. It is the
// fallback when no Redis address is configured.
type MemoryLocker struct {
	mu    sync.Mutex
	held  map[string]memoryEntry
	next  uint64
	clock clock.Clock
}

func NewMemoryLocker(c clock.Clock) *MemoryLocker {
	if c == nil {
		c = clock.Real{}
	}
	return &MemoryLocker{held: map[string]memoryEntry{}, clock: c}
}

// TryLock with ttl <= 0 holds the lock until it is released.
func (l *MemoryLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (Unlock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if cur, ok := l.held[key]; ok && (cur.expires.IsZero() || now.Before(cur.expires)) {
		return nil, common.ErrLockNotAcquired
	}

	l.next++
	entry := memoryEntry{token: l.next}
	if ttl > 0 {
		entry.expires = now.Add(ttl)
	}
	l.held[key] = entry

	return func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if cur, ok := l.held[key]; ok && cur.token == entry.token {
			delete(l.held, key)
		}
		return nil
	}, nil
}
