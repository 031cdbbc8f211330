package lock

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"encoding-service/ddd/domain/port"
	"encoding-service/pkg/redisclient"
)

func TestRedisLockerExclusive(t *testing.T) {
	mr := miniredis.RunT(t)
	cli := redisclient.Wrap(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = cli.Close() })
	locker := NewRedisLocker(cli, time.Minute)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "asset-1")
	require.NoError(t, err)
	assert.True(t, mr.Exists(leaseKeyPrefix+"asset-1"))

	_, err = locker.Acquire(ctx, "asset-1")
	assert.ErrorIs(t, err, port.ErrLockHeld)

	other, err := locker.Acquire(ctx, "asset-2")
	require.NoError(t, err)
	other()

	release()
	release()
	assert.False(t, mr.Exists(leaseKeyPrefix+"asset-1"))

	again, err := locker.Acquire(ctx, "asset-1")
	require.NoError(t, err)
	again()
}

func TestFileLockerExclusive(t *testing.T) {
	locker, err := NewFileLocker(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	release, err := locker.Acquire(ctx, "asset-1")
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "asset-1")
	assert.ErrorIs(t, err, port.ErrLockHeld)

	release()
	again, err := locker.Acquire(ctx, "asset-1")
	require.NoError(t, err)
	again()
}
