package redis

import (
	"context"
	"time"
)

// LockStoreInterface defines the interface for claim locks.
type LockStoreInterface interface {
	AcquireVehicleLock(ctx context.Context, vehicleID, owner string, ttl time.Duration) (bool, error)
	ReleaseVehicleLock(ctx context.Context, vehicleID, owner string) error
	AcquireDriverLock(ctx context.Context, driverID, owner string, ttl time.Duration) (bool, error)
	ReleaseDriverLock(ctx context.Context, driverID, owner string) error
}

// CacheStoreInterface defines the interface for the analytics report cache.
type CacheStoreInterface interface {
	GetReport(ctx context.Context, report, params string, dest any) (int64, bool, error)
	SetReport(ctx context.Context, gen int64, report, params string, value any) error
	Invalidate(ctx context.Context) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface  = (*LockStore)(nil)
	_ CacheStoreInterface = (*CacheStore)(nil)
)
