package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/plantops/internal/common"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisLocker(t *testing.T) (*RedisLocker, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisLocker(client, "plantops:lock:"), mr
}

func TestRedisLocker_AcquireRelease(t *testing.T) {
	ctx := context.Background()
	l, mr := newRedisLocker(t)

	unlock, err := l.TryLock(ctx, "tm-1", 30*time.Second)
	require.NoError(t, err)
	assert.True(t, mr.Exists("plantops:lock:tm-1"))
	assert.Equal(t, 30*time.Second, mr.TTL("plantops:lock:tm-1"))

	_, err = l.TryLock(ctx, "tm-1", 30*time.Second)
	require.ErrorIs(t, err, common.ErrLockNotAcquired)

	require.NoError(t, unlock(ctx))
	assert.False(t, mr.Exists("plantops:lock:tm-1"))
}

func TestRedisLocker_ExpiredLockNotReleasedByStaleHolder(t *testing.T) {
	ctx := context.Background()
	l, mr := newRedisLocker(t)

	stale, err := l.TryLock(ctx, "tm-1", 5*time.Second)
	require.NoError(t, err)

	mr.FastForward(6 * time.Second)

	_, err = l.TryLock(ctx, "tm-1", 5*time.Second)
	require.NoError(t, err)

	require.NoError(t, stale(ctx))
	assert.True(t, mr.Exists("plantops:lock:tm-1"), "new holder keeps the lock")
}

func TestRedisLocker_ServerDown(t *testing.T) {
	l, mr := newRedisLocker(t)
	mr.Close()

	_, err := l.TryLock(context.Background(), "tm-1", time.Second)
	require.Error(t, err)
	assert.NotErrorIs(t, err, common.ErrLockNotAcquired)
	assert.Contains(t, err.Error(), "redis error")
}
