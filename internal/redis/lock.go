package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes a lock only while it is still held by the caller.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore handles claim locks on vehicles and drivers in Redis.
// Each lock records its owner (the trip that took it) so a late release
// from an expired holder cannot free someone else's claim.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

func vehicleLockKey(vehicleID string) string {
	return fmt.Sprintf("lock:vehicle:%s", vehicleID)
}

func driverLockKey(driverID string) string {
	return fmt.Sprintf("lock:driver:%s", driverID)
}

// AcquireVehicleLock attempts to lock the vehicle for owner.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquireVehicleLock(ctx context.Context, vehicleID, owner string, ttl time.Duration) (bool, error) {
	return s.acquire(ctx, vehicleLockKey(vehicleID), owner, ttl)
}

// ReleaseVehicleLock releases the vehicle lock if owner still holds it.
func (s *LockStore) ReleaseVehicleLock(ctx context.Context, vehicleID, owner string) error {
	return s.release(ctx, vehicleLockKey(vehicleID), owner)
}

// AcquireDriverLock attempts to lock the driver for owner.
// Returns true if the lock was acquired, false if already held.
func (s *LockStore) AcquireDriverLock(ctx context.Context, driverID, owner string, ttl time.Duration) (bool, error) {
	return s.acquire(ctx, driverLockKey(driverID), owner, ttl)
}

// ReleaseDriverLock releases the driver lock if owner still holds it.
func (s *LockStore) ReleaseDriverLock(ctx context.Context, driverID, owner string) error {
	return s.release(ctx, driverLockKey(driverID), owner)
}

func (s *LockStore) acquire(ctx context.Context, key, owner string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, owner, ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

func (s *LockStore) release(ctx context.Context, key, owner string) error {
	return releaseScript.Run(ctx, s.client, []string{key}, owner).Err()
}
