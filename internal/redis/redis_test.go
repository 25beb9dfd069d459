package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestLockStore_VehicleLockIsExclusive(t *testing.T) {
	_, client := newTestClient(t)
	locks := NewLockStore(client)
	ctx := context.Background()

	ok, err := locks.AcquireVehicleLock(ctx, "v1", "trip-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = locks.AcquireVehicleLock(ctx, "v1", "trip-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	// Driver locks live in their own key space.
	ok, err = locks.AcquireDriverLock(ctx, "v1", "trip-b", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestLockStore_ReleaseOnlyByOwner(t *testing.T) {
	mr, client := newTestClient(t)
	locks := NewLockStore(client)
	ctx := context.Background()

	ok, err := locks.AcquireDriverLock(ctx, "d1", "trip-a", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, locks.ReleaseDriverLock(ctx, "d1", "trip-b"))
	assert.True(t, mr.Exists("lock:driver:d1"))

	require.NoError(t, locks.ReleaseDriverLock(ctx, "d1", "trip-a"))
	assert.False(t, mr.Exists("lock:driver:d1"))
}

func TestLockStore_Expires(t *testing.T) {
	mr, client := newTestClient(t)
	locks := NewLockStore(client)
	ctx := context.Background()

	ok, err := locks.AcquireVehicleLock(ctx, "v1", "trip-a", time.Second)
	require.NoError(t, err)
	require.True(t, ok)

	mr.FastForward(2 * time.Second)

	ok, err = locks.AcquireVehicleLock(ctx, "v1", "trip-b", time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

type report struct {
	Total int `json:"total"`
}

func TestCacheStore_RoundTripAndInvalidate(t *testing.T) {
	_, client := newTestClient(t)
	cache := NewCacheStore(client, time.Minute)
	ctx := context.Background()

	var got report
	gen, hit, err := cache.GetReport(ctx, "dashboard", "type=VAN", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.SetReport(ctx, gen, "dashboard", "type=VAN", report{Total: 7}))

	_, hit, err = cache.GetReport(ctx, "dashboard", "type=VAN", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 7, got.Total)

	require.NoError(t, cache.Invalidate(ctx))

	_, hit, err = cache.GetReport(ctx, "dashboard", "type=VAN", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheStore_ReportComputedBeforeInvalidateIsNeverServed(t *testing.T) {
	_, client := newTestClient(t)
	cache := NewCacheStore(client, time.Minute)
	ctx := context.Background()

	var got report
	gen, hit, err := cache.GetReport(ctx, "dashboard", "", &got)
	require.NoError(t, err)
	require.False(t, hit)

	// A write commits while the report is being computed.
	require.NoError(t, cache.Invalidate(ctx))
	require.NoError(t, cache.SetReport(ctx, gen, "dashboard", "", report{Total: 0}))

	next, hit, err := cache.GetReport(ctx, "dashboard", "", &got)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, gen+1, next)

	// A report computed after the write is cached normally.
	require.NoError(t, cache.SetReport(ctx, next, "dashboard", "", report{Total: 1}))
	_, hit, err = cache.GetReport(ctx, "dashboard", "", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, 1, got.Total)
}

func TestCacheStore_TTL(t *testing.T) {
	mr, client := newTestClient(t)
	cache := NewCacheStore(client, 5*time.Second)
	ctx := context.Background()

	require.NoError(t, cache.SetReport(ctx, 0, "driver-stats", "", report{Total: 1}))
	mr.FastForward(6 * time.Second)

	var got report
	_, hit, err := cache.GetReport(ctx, "driver-stats", "", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}
