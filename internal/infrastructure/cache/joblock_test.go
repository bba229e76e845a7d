package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orris-inc/trafficstat/internal/testutil"
)

func TestRedisJobLock(t *testing.T) {
	mr, client := testutil.NewTestRedis(t)
	ctx := context.Background()
	lock := NewRedisJobLock(client)

	release, ok, err := lock.TryLock(ctx, "trafficstat:lock:drain", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	_, ok, err = lock.TryLock(ctx, "trafficstat:lock:drain", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, release(ctx))
	assert.False(t, mr.Exists("trafficstat:lock:drain"))

	_, ok, err = lock.TryLock(ctx, "trafficstat:lock:drain", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisJobLock_ReleaseAfterExpiry(t *testing.T) {
	mr, client := testutil.NewTestRedis(t)
	ctx := context.Background()
	lock := NewRedisJobLock(client)

	release, ok, err := lock.TryLock(ctx, "l", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)
	_, ok, err = lock.TryLock(ctx, "l", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	// The stale holder must not drop the new holder's lock.
	require.NoError(t, release(ctx))
	assert.True(t, mr.Exists("l"))
}
