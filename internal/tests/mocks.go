package tests

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"fleetflow/internal/domain"
	"fleetflow/internal/events"
	"fleetflow/internal/redis"
	"fleetflow/internal/repository"
)

// ErrInjected is the error returned by every injected fault.
var ErrInjected = errors.New("injected fault")

// ──────────────────────────────────────────────
// FAULTY STORE
// ──────────────────────────────────────────────

// Op names a repository write that FaultyStore can be told to fail.
type Op string

const (
	OpVehicleUpdate    Op = "vehicles.update"
	OpVehicleStatus    Op = "vehicles.status"
	OpDriverStatus     Op = "drivers.status"
	OpDriverCounters   Op = "drivers.counters"
	OpTripCreate       Op = "trips.create"
	OpTripUpdate       Op = "trips.update"
	OpMaintenanceWrite Op = "maintenance.write"
	OpFuelWrite        Op = "fuel.write"
)

// FaultyStore wraps a repository.Store and fails selected writes, so the
// services can be checked for all-or-nothing behavior.
type FaultyStore struct {
	inner repository.Store

	mu     sync.Mutex
	faults map[Op]error

	// Counters for verification
	TxCount       int32
	RollbackCount int32
}

// NewFaultyStore wraps inner.
func NewFaultyStore(inner repository.Store) *FaultyStore {
	return &FaultyStore{
		inner:  inner,
		faults: make(map[Op]error),
	}
}

// Fail makes every later call of op return err.
func (s *FaultyStore) Fail(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[op] = err
}

// Heal clears all injected faults.
func (s *FaultyStore) Heal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = make(map[Op]error)
}

func (s *FaultyStore) fault(op Op) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.faults[op]
}

func (s *FaultyStore) Repos() repository.Repos {
	return s.wrap(s.inner.Repos())
}

func (s *FaultyStore) WithinTx(ctx context.Context, fn func(r repository.Repos) error) error {
	atomic.AddInt32(&s.TxCount, 1)
	err := s.inner.WithinTx(ctx, func(r repository.Repos) error {
		return fn(s.wrap(r))
	})
	if err != nil {
		atomic.AddInt32(&s.RollbackCount, 1)
	}
	return err
}

func (s *FaultyStore) wrap(r repository.Repos) repository.Repos {
	return repository.Repos{
		Vehicles:    faultyVehicles{r.Vehicles, s},
		Drivers:     faultyDrivers{r.Drivers, s},
		Trips:       faultyTrips{r.Trips, s},
		Maintenance: faultyMaintenance{r.Maintenance, s},
		Fuel:        faultyFuel{r.Fuel, s},
	}
}

type faultyVehicles struct {
	repository.VehicleRepository
	s *FaultyStore
}

func (r faultyVehicles) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	if err := r.s.fault(OpVehicleUpdate); err != nil {
		return err
	}
	return r.VehicleRepository.Update(ctx, vehicle)
}

func (r faultyVehicles) CompareAndSetStatus(ctx context.Context, id string, expected, next domain.VehicleStatus) error {
	if err := r.s.fault(OpVehicleStatus); err != nil {
		return err
	}
	return r.VehicleRepository.CompareAndSetStatus(ctx, id, expected, next)
}

type faultyDrivers struct {
	repository.DriverRepository
	s *FaultyStore
}

func (r faultyDrivers) CompareAndSetStatus(ctx context.Context, id string, expected, next domain.DriverStatus) error {
	if err := r.s.fault(OpDriverStatus); err != nil {
		return err
	}
	return r.DriverRepository.CompareAndSetStatus(ctx, id, expected, next)
}

func (r faultyDrivers) IncrementCounters(ctx context.Context, id string, tripDelta, completedDelta int) error {
	if err := r.s.fault(OpDriverCounters); err != nil {
		return err
	}
	return r.DriverRepository.IncrementCounters(ctx, id, tripDelta, completedDelta)
}

type faultyTrips struct {
	repository.TripRepository
	s *FaultyStore
}

func (r faultyTrips) Create(ctx context.Context, trip *domain.Trip) error {
	if err := r.s.fault(OpTripCreate); err != nil {
		return err
	}
	return r.TripRepository.Create(ctx, trip)
}

func (r faultyTrips) Update(ctx context.Context, trip *domain.Trip) error {
	if err := r.s.fault(OpTripUpdate); err != nil {
		return err
	}
	return r.TripRepository.Update(ctx, trip)
}

type faultyMaintenance struct {
	repository.MaintenanceRepository
	s *FaultyStore
}

func (r faultyMaintenance) Create(ctx context.Context, entry *domain.MaintenanceLog) error {
	if err := r.s.fault(OpMaintenanceWrite); err != nil {
		return err
	}
	return r.MaintenanceRepository.Create(ctx, entry)
}

func (r faultyMaintenance) Update(ctx context.Context, entry *domain.MaintenanceLog) error {
	if err := r.s.fault(OpMaintenanceWrite); err != nil {
		return err
	}
	return r.MaintenanceRepository.Update(ctx, entry)
}

type faultyFuel struct {
	repository.FuelRepository
	s *FaultyStore
}

func (r faultyFuel) Create(ctx context.Context, entry *domain.FuelLog) error {
	if err := r.s.fault(OpFuelWrite); err != nil {
		return err
	}
	return r.FuelRepository.Create(ctx, entry)
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is an in-process redis.LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]string

	// Counters for verification
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error
	ReleaseError error
}

var _ redis.LockStoreInterface = (*MockLockStore)(nil)

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{
		locks: make(map[string]string),
	}
}

// Hold takes a lock on behalf of another owner.
func (m *MockLockStore) Hold(key, owner string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[key] = owner
}

// IsLocked reports whether key is held (for test assertions).
func (m *MockLockStore) IsLocked(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.locks[key]
	return ok
}

func (m *MockLockStore) acquire(key, owner string) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, held := m.locks[key]; held {
		return false, nil
	}
	m.locks[key] = owner
	return true, nil
}

func (m *MockLockStore) release(key, owner string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	if m.ReleaseError != nil {
		return m.ReleaseError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[key] == owner {
		delete(m.locks, key)
	}
	return nil
}

func (m *MockLockStore) AcquireVehicleLock(ctx context.Context, vehicleID, owner string, ttl time.Duration) (bool, error) {
	return m.acquire(VehicleLockKey(vehicleID), owner)
}

func (m *MockLockStore) ReleaseVehicleLock(ctx context.Context, vehicleID, owner string) error {
	return m.release(VehicleLockKey(vehicleID), owner)
}

func (m *MockLockStore) AcquireDriverLock(ctx context.Context, driverID, owner string, ttl time.Duration) (bool, error) {
	return m.acquire(DriverLockKey(driverID), owner)
}

func (m *MockLockStore) ReleaseDriverLock(ctx context.Context, driverID, owner string) error {
	return m.release(DriverLockKey(driverID), owner)
}

// VehicleLockKey is the mock's key for a vehicle claim lock.
func VehicleLockKey(id string) string { return "vehicle:" + id }

// DriverLockKey is the mock's key for a driver claim lock.
func DriverLockKey(id string) string { return "driver:" + id }

// ──────────────────────────────────────────────
// MOCK CACHE STORE
// ──────────────────────────────────────────────

// MockCacheStore is a redis.CacheStoreInterface that can be made to fail.
type MockCacheStore struct {
	// Error injection
	GetError        error
	SetError        error
	InvalidateError error

	// Counters for verification
	InvalidateCallCount int32
}

var _ redis.CacheStoreInterface = (*MockCacheStore)(nil)

func (m *MockCacheStore) GetReport(ctx context.Context, report, params string, dest any) (int64, bool, error) {
	return 0, false, m.GetError
}

func (m *MockCacheStore) SetReport(ctx context.Context, gen int64, report, params string, value any) error {
	return m.SetError
}

func (m *MockCacheStore) Invalidate(ctx context.Context) error {
	atomic.AddInt32(&m.InvalidateCallCount, 1)
	return m.InvalidateError
}

// ──────────────────────────────────────────────
// MOCK PUBLISHER
// ──────────────────────────────────────────────

// MockPublisher records trip events and can be made to fail.
type MockPublisher struct {
	mu     sync.Mutex
	events []events.TripEvent

	// Error injection
	PublishError error
}

var _ events.Publisher = (*MockPublisher)(nil)

func (m *MockPublisher) Publish(ctx context.Context, event events.TripEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return m.PublishError
}

// Types returns the types of all events seen so far.
func (m *MockPublisher) Types() []events.Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]events.Type, 0, len(m.events))
	for _, e := range m.events {
		out = append(out, e.Type)
	}
	return out
}
