package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetflow/internal/domain"
	"fleetflow/internal/repository"
)

func seedVehicle(t *testing.T, s *Store, id, plate string) *domain.Vehicle {
	t.Helper()
	v := &domain.Vehicle{
		ID:           id,
		Name:         "Unit " + id,
		LicensePlate: plate,
		Type:         domain.VehicleTypeVan,
		MaxCapacity:  500,
		Status:       domain.VehicleStatusAvailable,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, s.Repos().Vehicles.Create(context.Background(), v))
	return v
}

func TestWithinTx_RollsBackOnError(t *testing.T) {
	t.Parallel()
	s := NewStore()
	ctx := context.Background()
	seedVehicle(t, s, "v1", "AB-1")

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(r repository.Repos) error {
		require.NoError(t, r.Vehicles.CompareAndSetStatus(ctx, "v1", domain.VehicleStatusAvailable, domain.VehicleStatusOnTrip))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	v, err := s.Repos().Vehicles.GetByID(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusAvailable, v.Status)
}

func TestWithinTx_Commits(t *testing.T) {
	t.Parallel()
	s := NewStore()
	ctx := context.Background()
	seedVehicle(t, s, "v1", "AB-1")

	err := s.WithinTx(ctx, func(r repository.Repos) error {
		return r.Vehicles.CompareAndSetStatus(ctx, "v1", domain.VehicleStatusAvailable, domain.VehicleStatusInShop)
	})
	require.NoError(t, err)

	v, err := s.Repos().Vehicles.GetByID(ctx, "v1")
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusInShop, v.Status)
	assert.Equal(t, int64(2), v.Version)
}

func TestCompareAndSetStatus_Stale(t *testing.T) {
	t.Parallel()
	s := NewStore()
	ctx := context.Background()
	seedVehicle(t, s, "v1", "AB-1")

	err := s.Repos().Vehicles.CompareAndSetStatus(ctx, "v1", domain.VehicleStatusOnTrip, domain.VehicleStatusAvailable)
	assert.ErrorIs(t, err, repository.ErrStaleWrite)

	err = s.Repos().Vehicles.CompareAndSetStatus(ctx, "missing", domain.VehicleStatusAvailable, domain.VehicleStatusOnTrip)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestVehicleUpdate_VersionCheck(t *testing.T) {
	t.Parallel()
	s := NewStore()
	ctx := context.Background()
	seedVehicle(t, s, "v1", "AB-1")

	first, _ := s.Repos().Vehicles.GetByID(ctx, "v1")
	second, _ := s.Repos().Vehicles.GetByID(ctx, "v1")

	first.Name = "renamed"
	require.NoError(t, s.Repos().Vehicles.Update(ctx, first))

	second.Name = "lost update"
	assert.ErrorIs(t, s.Repos().Vehicles.Update(ctx, second), repository.ErrStaleWrite)

	got, _ := s.Repos().Vehicles.GetByID(ctx, "v1")
	assert.Equal(t, "renamed", got.Name)
}

func TestVehicleCreate_DuplicatePlate(t *testing.T) {
	t.Parallel()
	s := NewStore()
	seedVehicle(t, s, "v1", "AB-1")

	dup := &domain.Vehicle{ID: "v2", LicensePlate: "AB-1", Type: domain.VehicleTypeCar}
	assert.ErrorIs(t, s.Repos().Vehicles.Create(context.Background(), dup), repository.ErrDuplicate)
}

func TestVehicleDelete_InUseAndCascade(t *testing.T) {
	t.Parallel()
	s := NewStore()
	ctx := context.Background()
	r := s.Repos()
	seedVehicle(t, s, "v1", "AB-1")
	seedVehicle(t, s, "v2", "AB-2")
	require.NoError(t, r.Drivers.Create(ctx, &domain.Driver{ID: "d1", LicenseNumber: "L1"}))
	require.NoError(t, r.Trips.Create(ctx, &domain.Trip{ID: "t1", VehicleID: "v1", DriverID: "d1"}))
	require.NoError(t, r.Maintenance.Create(ctx, &domain.MaintenanceLog{ID: "m1", VehicleID: "v2"}))

	assert.ErrorIs(t, r.Vehicles.Delete(ctx, "v1"), repository.ErrInUse)
	require.NoError(t, r.Vehicles.Delete(ctx, "v2"))

	_, err := r.Maintenance.GetByID(ctx, "m1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestIncrementCounters(t *testing.T) {
	t.Parallel()
	s := NewStore()
	ctx := context.Background()
	r := s.Repos()
	require.NoError(t, r.Drivers.Create(ctx, &domain.Driver{ID: "d1", LicenseNumber: "L1"}))

	require.NoError(t, r.Drivers.IncrementCounters(ctx, "d1", 1, 0))
	require.NoError(t, r.Drivers.IncrementCounters(ctx, "d1", 1, 1))

	d, err := r.Drivers.GetByID(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, 2, d.TripCount)
	assert.Equal(t, 1, d.CompletedTrips)
}

func TestTripFind_VehicleIDs(t *testing.T) {
	t.Parallel()
	s := NewStore()
	ctx := context.Background()
	r := s.Repos()
	seedVehicle(t, s, "v1", "AB-1")
	seedVehicle(t, s, "v2", "AB-2")
	require.NoError(t, r.Drivers.Create(ctx, &domain.Driver{ID: "d1", LicenseNumber: "L1"}))
	require.NoError(t, r.Trips.Create(ctx, &domain.Trip{ID: "t1", VehicleID: "v1", DriverID: "d1", Status: domain.TripStatusDraft}))
	require.NoError(t, r.Trips.Create(ctx, &domain.Trip{ID: "t2", VehicleID: "v2", DriverID: "d1", Status: domain.TripStatusDraft}))

	n, err := r.Trips.Count(ctx, repository.TripFilter{Status: domain.TripStatusDraft, VehicleIDs: []string{"v2"}})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = r.Trips.Count(ctx, repository.TripFilter{VehicleIDs: []string{}})
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestFuelDetachedWhenTripDeleted(t *testing.T) {
	t.Parallel()
	s := NewStore()
	ctx := context.Background()
	r := s.Repos()
	seedVehicle(t, s, "v1", "AB-1")
	require.NoError(t, r.Drivers.Create(ctx, &domain.Driver{ID: "d1", LicenseNumber: "L1"}))
	require.NoError(t, r.Trips.Create(ctx, &domain.Trip{ID: "t1", VehicleID: "v1", DriverID: "d1"}))
	require.NoError(t, r.Fuel.Create(ctx, &domain.FuelLog{ID: "f1", VehicleID: "v1", TripID: "t1"}))

	require.NoError(t, r.Trips.Delete(ctx, "t1"))

	f, err := r.Fuel.GetByID(ctx, "f1")
	require.NoError(t, err)
	assert.Empty(t, f.TripID)
}
