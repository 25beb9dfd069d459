package tests

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetflow/internal/domain"
	"fleetflow/internal/events"
	"fleetflow/internal/repository"
	"fleetflow/internal/service"
)

// ──────────────────────────────────────────────
// 1. DISPATCH IS ALL OR NOTHING
// ──────────────────────────────────────────────

func TestDispatch_FailureAtEachStepRollsBack(t *testing.T) {
	t.Parallel()

	for _, op := range []Op{OpVehicleStatus, OpDriverStatus, OpDriverCounters, OpTripUpdate} {
		op := op
		t.Run(string(op), func(t *testing.T) {
			t.Parallel()
			h := newHarness(t)
			ctx := context.Background()
			draft := h.dispatchable(t)

			h.store.Fail(op, ErrInjected)
			_, err := h.trips.Dispatch(ctx, draft.ID)
			require.ErrorIs(t, err, ErrInjected)

			s := h.snapshot(t, draft.ID)
			assert.Equal(t, domain.TripStatusDraft, s.trip.Status)
			assert.True(t, s.trip.DispatchedAt.IsZero())
			assert.Equal(t, domain.VehicleStatusAvailable, s.vehicle.Status)
			assert.Equal(t, domain.DriverStatusOffDuty, s.driver.Status)
			assert.Equal(t, 0, s.driver.TripCount)

			// Claim locks are given back even though the transaction failed.
			assert.False(t, h.locks.IsLocked(VehicleLockKey(draft.VehicleID)))
			assert.False(t, h.locks.IsLocked(DriverLockKey(draft.DriverID)))

			assert.Equal(t, []events.Type{events.TripCreated}, h.published.Types())

			h.store.Heal()
			trip, err := h.trips.Dispatch(ctx, draft.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.TripStatusDispatched, trip.Status)
			assert.Equal(t, 1, h.snapshot(t, draft.ID).driver.TripCount)
		})
	}
}

// ──────────────────────────────────────────────
// 2. RELEASE IS ALL OR NOTHING
// ──────────────────────────────────────────────

func TestComplete_FailureKeepsClaims(t *testing.T) {
	t.Parallel()

	for _, op := range []Op{OpVehicleUpdate, OpDriverStatus, OpDriverCounters, OpTripUpdate} {
		op := op
		t.Run(string(op), func(t *testing.T) {
			t.Parallel()
			h := newHarness(t)
			ctx := context.Background()
			draft := h.dispatchable(t)

			_, err := h.trips.Dispatch(ctx, draft.ID)
			require.NoError(t, err)

			h.store.Fail(op, ErrInjected)
			end := 5400.0
			_, err = h.trips.Complete(ctx, draft.ID, service.CompleteTripRequest{EndOdometer: &end})
			require.ErrorIs(t, err, ErrInjected)

			s := h.snapshot(t, draft.ID)
			assert.Equal(t, domain.TripStatusDispatched, s.trip.Status)
			assert.Zero(t, s.trip.Distance)
			assert.Equal(t, domain.VehicleStatusOnTrip, s.vehicle.Status)
			assert.Equal(t, 5000.0, s.vehicle.Odometer)
			assert.Equal(t, domain.DriverStatusOnDuty, s.driver.Status)
			assert.Equal(t, 1, s.driver.TripCount)
			assert.Equal(t, 0, s.driver.CompletedTrips)

			h.store.Heal()
			trip, err := h.trips.Complete(ctx, draft.ID, service.CompleteTripRequest{EndOdometer: &end})
			require.NoError(t, err)
			assert.Equal(t, 400.0, trip.Distance)

			s = h.snapshot(t, draft.ID)
			assert.Equal(t, domain.VehicleStatusAvailable, s.vehicle.Status)
			assert.Equal(t, 5400.0, s.vehicle.Odometer)
			assert.Equal(t, 2, s.driver.TripCount)
			assert.Equal(t, 1, s.driver.CompletedTrips)
		})
	}
}

func TestCancel_FailureKeepsClaims(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	draft := h.dispatchable(t)

	_, err := h.trips.Dispatch(ctx, draft.ID)
	require.NoError(t, err)

	// The vehicle is written before the driver, so this failure must
	// also undo the vehicle release.
	h.store.Fail(OpDriverStatus, ErrInjected)
	_, err = h.trips.Cancel(ctx, draft.ID)
	require.ErrorIs(t, err, ErrInjected)

	s := h.snapshot(t, draft.ID)
	assert.Equal(t, domain.TripStatusDispatched, s.trip.Status)
	assert.Equal(t, domain.VehicleStatusOnTrip, s.vehicle.Status)
	assert.Equal(t, domain.DriverStatusOnDuty, s.driver.Status)
	assert.Equal(t, 1, s.driver.TripCount)
	assert.Equal(t, []events.Type{events.TripCreated, events.TripDispatched}, h.published.Types())
}

// ──────────────────────────────────────────────
// 3. MAINTENANCE KEEPS LOG AND VEHICLE IN STEP
// ──────────────────────────────────────────────

func TestMaintenanceCreate_StatusFailureDropsLog(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	draft := h.dispatchable(t)

	h.store.Fail(OpVehicleStatus, ErrInjected)
	_, err := h.maintenance.Create(ctx, service.CreateMaintenanceRequest{
		VehicleID:   draft.VehicleID,
		ServiceType: domain.ServiceTypeBrakeService,
		Cost:        220,
	})
	require.ErrorIs(t, err, ErrInjected)

	logs, err := h.maintenance.List(ctx, repository.LogFilter{VehicleID: draft.VehicleID})
	require.NoError(t, err)
	assert.Empty(t, logs)
	assert.Equal(t, domain.VehicleStatusAvailable, h.snapshot(t, draft.ID).vehicle.Status)
}

func TestMaintenanceResolve_StatusFailureKeepsLogOpen(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	draft := h.dispatchable(t)

	entry, err := h.maintenance.Create(ctx, service.CreateMaintenanceRequest{
		VehicleID:   draft.VehicleID,
		ServiceType: domain.ServiceTypeOilChange,
		Cost:        80,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusInShop, h.snapshot(t, draft.ID).vehicle.Status)

	h.store.Fail(OpVehicleStatus, ErrInjected)
	_, err = h.maintenance.Resolve(ctx, entry.ID)
	require.ErrorIs(t, err, ErrInjected)

	stored, err := h.maintenance.Get(ctx, entry.ID)
	require.NoError(t, err)
	assert.False(t, stored.IsResolved)
	assert.Equal(t, domain.VehicleStatusInShop, h.snapshot(t, draft.ID).vehicle.Status)

	h.store.Heal()
	resolved, err := h.maintenance.Resolve(ctx, entry.ID)
	require.NoError(t, err)
	assert.True(t, resolved.IsResolved)
	assert.Equal(t, domain.VehicleStatusAvailable, h.snapshot(t, draft.ID).vehicle.Status)
}

func TestMaintenanceCreate_LogFailureLeavesVehicleAlone(t *testing.T) {
	t.Parallel()
	h := newHarness(t)
	ctx := context.Background()
	draft := h.dispatchable(t)
	invalidated := atomic.LoadInt32(&h.cache.InvalidateCallCount)

	h.store.Fail(OpMaintenanceWrite, ErrInjected)
	_, err := h.maintenance.Create(ctx, service.CreateMaintenanceRequest{
		VehicleID:   draft.VehicleID,
		ServiceType: domain.ServiceTypeInspection,
	})
	require.ErrorIs(t, err, ErrInjected)
	assert.Equal(t, domain.VehicleStatusAvailable, h.snapshot(t, draft.ID).vehicle.Status)
	assert.Equal(t, invalidated, atomic.LoadInt32(&h.cache.InvalidateCallCount))
}
