package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetflow/internal/domain"
	"fleetflow/internal/repository"
)

func TestMaintenance_CreateSendsVehicleToShop(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	v := f.vehicle(t, "TRK-1", 500)

	entry, err := f.maintenance.Create(ctx, CreateMaintenanceRequest{
		VehicleID:      v.ID,
		ServiceType:    domain.ServiceTypeOilChange,
		Cost:           120,
		TechnicianName: "Sam",
	})
	require.NoError(t, err)
	assert.False(t, entry.IsResolved)
	assert.False(t, entry.Date.IsZero())
	assert.Equal(t, domain.VehicleStatusInShop, f.mustVehicle(t, v.ID).Status)
}

func TestMaintenance_ResolveLastLogReleasesVehicle(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	v := f.vehicle(t, "TRK-1", 500)

	first, err := f.maintenance.Create(ctx, CreateMaintenanceRequest{VehicleID: v.ID, Cost: 50})
	require.NoError(t, err)
	second, err := f.maintenance.Create(ctx, CreateMaintenanceRequest{VehicleID: v.ID, Cost: 70})
	require.NoError(t, err)

	_, err = f.maintenance.Resolve(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusInShop, f.mustVehicle(t, v.ID).Status)

	resolved, err := f.maintenance.Resolve(ctx, second.ID)
	require.NoError(t, err)
	assert.True(t, resolved.IsResolved)
	assert.Equal(t, domain.VehicleStatusAvailable, f.mustVehicle(t, v.ID).Status)

	// Resolving again changes nothing.
	_, err = f.maintenance.Resolve(ctx, second.ID)
	require.NoError(t, err)

	open, err := f.maintenance.List(ctx, repository.LogFilter{VehicleID: v.ID, Unresolved: true})
	require.NoError(t, err)
	assert.Empty(t, open)
}

func TestMaintenance_RetiredVehicleStaysRetired(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	v := f.vehicle(t, "TRK-1", 500)

	entry, err := f.maintenance.Create(ctx, CreateMaintenanceRequest{VehicleID: v.ID, Cost: 50})
	require.NoError(t, err)

	retired, err := f.registry.ToggleRetire(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusRetired, retired.Status)

	_, err = f.maintenance.Resolve(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusRetired, f.mustVehicle(t, v.ID).Status)
}

func TestMaintenance_DeleteReleasesVehicle(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	v := f.vehicle(t, "TRK-1", 500)

	entry, err := f.maintenance.Create(ctx, CreateMaintenanceRequest{VehicleID: v.ID, Cost: 50})
	require.NoError(t, err)

	require.NoError(t, f.maintenance.Delete(ctx, entry.ID))
	assert.Equal(t, domain.VehicleStatusAvailable, f.mustVehicle(t, v.ID).Status)

	assert.ErrorIs(t, f.maintenance.Delete(ctx, entry.ID), ErrNotFound)
}

func TestMaintenance_RestoreWithOpenLogsGoesToShop(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	v := f.vehicle(t, "TRK-1", 500)

	_, err := f.maintenance.Create(ctx, CreateMaintenanceRequest{VehicleID: v.ID, Cost: 50})
	require.NoError(t, err)
	_, err = f.registry.ToggleRetire(ctx, v.ID)
	require.NoError(t, err)

	restored, err := f.registry.ToggleRetire(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusInShop, restored.Status)
}

func TestMaintenance_Validation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	v := f.vehicle(t, "TRK-1", 500)

	_, err := f.maintenance.Create(ctx, CreateMaintenanceRequest{VehicleID: v.ID, Cost: -1})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.maintenance.Create(ctx, CreateMaintenanceRequest{VehicleID: v.ID, ServiceType: "PAINT"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.maintenance.Create(ctx, CreateMaintenanceRequest{VehicleID: "missing"})
	assert.ErrorIs(t, err, ErrNotFound)

	// Failed creates leave the vehicle alone.
	assert.Equal(t, domain.VehicleStatusAvailable, f.mustVehicle(t, v.ID).Status)
}

func TestMaintenance_UpdateKeepsVehicleStatus(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	v := f.vehicle(t, "TRK-1", 500)

	entry, err := f.maintenance.Create(ctx, CreateMaintenanceRequest{VehicleID: v.ID, Cost: 50})
	require.NoError(t, err)

	updated, err := f.maintenance.Update(ctx, entry.ID, UpdateMaintenanceRequest{
		Cost:        ptr(75.5),
		Description: ptr("replaced filter"),
	})
	require.NoError(t, err)
	assert.Equal(t, 75.5, updated.Cost)
	assert.Equal(t, "replaced filter", updated.Description)
	assert.Equal(t, domain.VehicleStatusInShop, f.mustVehicle(t, v.ID).Status)
}

func TestResolve_DuringTripKeepsVehicleClaimed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	v := f.vehicle(t, "TRK-1", 500)
	first := f.draft(t, v.ID, f.driver(t, "LIC-1").ID, 100)
	second := f.draft(t, v.ID, f.driver(t, "LIC-2").ID, 100)
	_, err := f.trips.Dispatch(ctx, first.ID)
	require.NoError(t, err)

	entry, err := f.maintenance.Create(ctx, CreateMaintenanceRequest{VehicleID: v.ID, ServiceType: domain.ServiceTypeTireReplacement, Cost: 120})
	require.NoError(t, err)
	_, err = f.maintenance.Resolve(ctx, entry.ID)
	require.NoError(t, err)

	// The running trip still owns the vehicle.
	assert.Equal(t, domain.VehicleStatusOnTrip, f.mustVehicle(t, v.ID).Status)

	_, err = f.trips.Dispatch(ctx, second.ID)
	assert.ErrorIs(t, err, ErrConflict)

	dispatched, err := f.trips.List(ctx, repository.TripFilter{VehicleID: v.ID, Status: domain.TripStatusDispatched})
	require.NoError(t, err)
	assert.Len(t, dispatched, 1)

	_, err = f.trips.Complete(ctx, first.ID, CompleteTripRequest{EndOdometer: ptr(1200.0)})
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusAvailable, f.mustVehicle(t, v.ID).Status)

	_, err = f.trips.Dispatch(ctx, second.ID)
	require.NoError(t, err)
}

func TestRestoreFromRetirement_DuringTripKeepsVehicleClaimed(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	v := f.vehicle(t, "TRK-1", 500)
	trip := f.draft(t, v.ID, f.driver(t, "LIC-1").ID, 100)
	_, err := f.trips.Dispatch(ctx, trip.ID)
	require.NoError(t, err)

	entry, err := f.maintenance.Create(ctx, CreateMaintenanceRequest{VehicleID: v.ID, ServiceType: domain.ServiceTypeEngineRepair, Cost: 900})
	require.NoError(t, err)
	_, err = f.registry.ToggleRetire(ctx, v.ID)
	require.NoError(t, err)
	require.NoError(t, f.maintenance.Delete(ctx, entry.ID))
	assert.Equal(t, domain.VehicleStatusRetired, f.mustVehicle(t, v.ID).Status)

	restored, err := f.registry.ToggleRetire(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusOnTrip, restored.Status)
}
