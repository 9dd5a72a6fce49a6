package server

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/plantops/internal/clock"
	"github.com/dmitrijs2005/plantops/internal/server/config"
	"github.com/dmitrijs2005/plantops/internal/server/lock"
)

func TestNewLocker_InMemoryWhenRedisUnset(t *testing.T) {
	cfg := &config.Config{}

	l, client, err := NewLocker(context.Background(), cfg, clock.Real{})
	require.NoError(t, err)
	assert.Nil(t, client)
	assert.IsType(t, &lock.MemoryLocker{}, l)
}

func TestNewLocker_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := &config.Config{RedisAddr: mr.Addr()}
	ctx := context.Background()

	l, client, err := NewLocker(ctx, cfg, clock.Real{})
	require.NoError(t, err)
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })
	assert.IsType(t, &lock.RedisLocker{}, l)

	unlock, err := l.TryLock(ctx, "task-generation:abc", time.Minute)
	require.NoError(t, err)
	assert.True(t, mr.Exists(lockPrefix+"task-generation:abc"))
	require.NoError(t, unlock(ctx))
}

func TestNewLocker_RedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, _, err := NewLocker(context.Background(), &config.Config{RedisAddr: addr}, clock.Real{})
	assert.ErrorContains(t, err, "redis init error")
}

func TestNewGenerator_RejectsBadTimezone(t *testing.T) {
	_, err := NewGenerator(&Stores{}, &config.Config{Timezone: "Mars/Olympus"}, nil)
	assert.Error(t, err)
}

func TestWithRetry(t *testing.T) {
	origDelay := connectDelay
	t.Cleanup(func() { connectDelay = origDelay })
	connectDelay = time.Millisecond

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := withRetry(context.Background(), func() error {
			calls++
			if calls < 3 {
				return errors.New("connection refused")
			}
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after the configured attempts", func(t *testing.T) {
		calls := 0
		err := withRetry(context.Background(), func() error {
			calls++
			return errors.New("connection refused")
		})
		assert.EqualError(t, err, "connection refused")
		assert.Equal(t, int(connectAttempts), calls)
	})
}

func TestOpenPostgres_OpenFails(t *testing.T) {
	origOpen, origAttempts := openDB, connectAttempts
	t.Cleanup(func() { openDB, connectAttempts = origOpen, origAttempts })
	connectAttempts = 1
	openDB = func(ctx context.Context, dsn string) (*sql.DB, error) {
		return nil, errors.New("dial tcp: connection refused")
	}

	_, _, err := OpenPostgres(context.Background(), &config.Config{DatabaseDSN: "postgres://x"})
	assert.ErrorContains(t, err, "db init error")
}
