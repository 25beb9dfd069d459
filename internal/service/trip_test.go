package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetflow/internal/domain"
	"fleetflow/internal/events"
	"fleetflow/internal/redis"
	"fleetflow/internal/repository"
)

func TestTripLifecycle_DispatchAndComplete(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	v := f.vehicle(t, "TRK-1", 500)
	d := f.driver(t, "LIC-1")
	trip := f.draft(t, v.ID, d.ID, 400)

	assert.Equal(t, domain.TripStatusDraft, trip.Status)
	assert.Equal(t, v.Odometer, trip.StartOdometer)

	// A draft claims nothing.
	assert.Equal(t, domain.VehicleStatusAvailable, f.mustVehicle(t, v.ID).Status)
	assert.Equal(t, domain.DriverStatusOffDuty, f.mustDriver(t, d.ID).Status)

	trip, err := f.trips.Dispatch(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusDispatched, trip.Status)
	assert.False(t, trip.DispatchedAt.IsZero())
	assert.Equal(t, domain.VehicleStatusOnTrip, f.mustVehicle(t, v.ID).Status)
	driver := f.mustDriver(t, d.ID)
	assert.Equal(t, domain.DriverStatusOnDuty, driver.Status)
	assert.Equal(t, 1, driver.TripCount)

	trip, err = f.trips.Complete(ctx, trip.ID, CompleteTripRequest{EndOdometer: ptr(1250.0), Revenue: ptr(900.0)})
	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusCompleted, trip.Status)
	assert.Equal(t, 250.0, trip.Distance)
	assert.Equal(t, 900.0, trip.Revenue)

	vehicle := f.mustVehicle(t, v.ID)
	assert.Equal(t, domain.VehicleStatusAvailable, vehicle.Status)
	assert.Equal(t, 1250.0, vehicle.Odometer)

	driver = f.mustDriver(t, d.ID)
	assert.Equal(t, domain.DriverStatusOffDuty, driver.Status)
	assert.Equal(t, 2, driver.TripCount)
	assert.Equal(t, 1, driver.CompletedTrips)
	assert.Equal(t, 50, driver.CompletionRate())

	assert.Equal(t, []events.Type{events.TripCreated, events.TripDispatched, events.TripCompleted}, f.published.types())
}

func TestComplete_DistanceNeverNegative(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	v := f.vehicle(t, "TRK-1", 500)
	d := f.driver(t, "LIC-1")
	trip := f.draft(t, v.ID, d.ID, 100)
	_, err := f.trips.Dispatch(ctx, trip.ID)
	require.NoError(t, err)

	trip, err = f.trips.Complete(ctx, trip.ID, CompleteTripRequest{EndOdometer: ptr(900.0)})
	require.NoError(t, err)
	assert.Equal(t, 0.0, trip.Distance)

	// The odometer only moves forward.
	assert.Equal(t, 1000.0, f.mustVehicle(t, v.ID).Odometer)
}

func TestComplete_RequiresEndOdometer(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.trips.Complete(context.Background(), "any", CompleteTripRequest{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreate_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	tests := []struct {
		name    string
		prepare func(t *testing.T, f *fixture, v *domain.Vehicle, d *domain.Driver)
		cargo   float64
		want    error
	}{
		{
			name:  "cargo over capacity",
			cargo: 600,
			want:  ErrValidation,
		},
		{
			name:  "vehicle in shop",
			cargo: 100,
			prepare: func(t *testing.T, f *fixture, v *domain.Vehicle, d *domain.Driver) {
				_, err := f.maintenance.Create(ctx, CreateMaintenanceRequest{VehicleID: v.ID, Cost: 10})
				require.NoError(t, err)
			},
			want: ErrConflict,
		},
		{
			name:  "driver suspended",
			cargo: 100,
			prepare: func(t *testing.T, f *fixture, v *domain.Vehicle, d *domain.Driver) {
				_, err := f.registry.SetDriverStatus(ctx, d.ID, domain.DriverStatusSuspended)
				require.NoError(t, err)
			},
			want: ErrValidation,
		},
		{
			name:  "driver already on duty",
			cargo: 100,
			prepare: func(t *testing.T, f *fixture, v *domain.Vehicle, d *domain.Driver) {
				_, err := f.registry.SetDriverStatus(ctx, d.ID, domain.DriverStatusOnDuty)
				require.NoError(t, err)
			},
			want: ErrValidation,
		},
		{
			name:  "license expired",
			cargo: 100,
			prepare: func(t *testing.T, f *fixture, v *domain.Vehicle, d *domain.Driver) {
				_, err := f.registry.UpdateDriver(ctx, d.ID, UpdateDriverRequest{LicenseExpiry: ptr(time.Now().AddDate(0, 0, -1))})
				require.NoError(t, err)
			},
			want: ErrValidation,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			f := newFixture(t)
			v := f.vehicle(t, "TRK-1", 500)
			d := f.driver(t, "LIC-1")
			if tt.prepare != nil {
				tt.prepare(t, f, v, d)
			}

			_, err := f.trips.Create(ctx, CreateTripRequest{
				VehicleID:   v.ID,
				DriverID:    d.ID,
				CargoWeight: tt.cargo,
				Origin:      "A",
				Destination: "B",
			})
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCreate_MissingReferences(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	d := f.driver(t, "LIC-1")
	v := f.vehicle(t, "TRK-1", 500)

	_, err := f.trips.Create(ctx, CreateTripRequest{VehicleID: "nope", DriverID: d.ID, Origin: "A", Destination: "B"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.trips.Create(ctx, CreateTripRequest{VehicleID: v.ID, DriverID: "nope", Origin: "A", Destination: "B"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransitions_Rejected(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	v := f.vehicle(t, "TRK-1", 500)
	d := f.driver(t, "LIC-1")
	trip := f.draft(t, v.ID, d.ID, 100)

	_, err := f.trips.Complete(ctx, trip.ID, CompleteTripRequest{EndOdometer: ptr(1100.0)})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.trips.Dispatch(ctx, trip.ID)
	require.NoError(t, err)
	_, err = f.trips.Dispatch(ctx, trip.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.trips.Complete(ctx, trip.ID, CompleteTripRequest{EndOdometer: ptr(1100.0)})
	require.NoError(t, err)

	_, err = f.trips.Cancel(ctx, trip.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.trips.Complete(ctx, trip.ID, CompleteTripRequest{EndOdometer: ptr(1200.0)})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	var svcErr *Error
	require.True(t, errors.As(err, &svcErr))
	assert.Contains(t, svcErr.Msg, string(domain.TripStatusCompleted))
}

func TestCancel_DraftReleasesNothing(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	v := f.vehicle(t, "TRK-1", 500)
	d := f.driver(t, "LIC-1")
	trip := f.draft(t, v.ID, d.ID, 100)

	trip, err := f.trips.Cancel(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusCancelled, trip.Status)
	assert.Equal(t, 0, f.mustDriver(t, d.ID).TripCount)
}

func TestCancel_DispatchedReleasesClaim(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	v := f.vehicle(t, "TRK-1", 500)
	d := f.driver(t, "LIC-1")
	trip := f.draft(t, v.ID, d.ID, 100)
	_, err := f.trips.Dispatch(ctx, trip.ID)
	require.NoError(t, err)

	_, err = f.trips.Cancel(ctx, trip.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.VehicleStatusAvailable, f.mustVehicle(t, v.ID).Status)
	driver := f.mustDriver(t, d.ID)
	assert.Equal(t, domain.DriverStatusOffDuty, driver.Status)
	assert.Equal(t, 2, driver.TripCount)
	assert.Equal(t, 0, driver.CompletedTrips)
}

func TestDelete(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	v := f.vehicle(t, "TRK-1", 500)
	d := f.driver(t, "LIC-1")
	trip := f.draft(t, v.ID, d.ID, 100)
	_, err := f.trips.Dispatch(ctx, trip.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, f.trips.Delete(ctx, trip.ID), ErrInvalidState)

	_, err = f.trips.Cancel(ctx, trip.ID)
	require.NoError(t, err)
	require.NoError(t, f.trips.Delete(ctx, trip.ID))

	_, err = f.trips.Get(ctx, trip.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	draft := f.draft(t, v.ID, d.ID, 100)
	require.NoError(t, f.trips.Delete(ctx, draft.ID))
}

func TestDispatch_RevalidatesEligibility(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	v := f.vehicle(t, "TRK-1", 500)
	d := f.driver(t, "LIC-1")
	trip := f.draft(t, v.ID, d.ID, 100)

	_, err := f.registry.SetDriverStatus(ctx, d.ID, domain.DriverStatusSuspended)
	require.NoError(t, err)

	_, err = f.trips.Dispatch(ctx, trip.ID)
	assert.ErrorIs(t, err, ErrValidation)

	// Nothing was applied.
	got, err := f.trips.Get(ctx, trip.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TripStatusDraft, got.Status)
	assert.Equal(t, domain.VehicleStatusAvailable, f.mustVehicle(t, v.ID).Status)
	assert.Equal(t, 0, f.mustDriver(t, d.ID).TripCount)
}

func TestDispatch_ConcurrentDraftsOnSameVehicle(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	v := f.vehicle(t, "TRK-1", 500)
	const racers = 8
	drafts := make([]*domain.Trip, racers)
	for i := range drafts {
		d := f.driver(t, "LIC-"+string(rune('A'+i)))
		drafts[i] = f.draft(t, v.ID, d.ID, 100)
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		success  int
		conflict int
	)
	start := make(chan struct{})
	for _, trip := range drafts {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			<-start
			_, err := f.trips.Dispatch(ctx, id)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case errors.Is(err, ErrConflict):
				conflict++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(trip.ID)
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, racers-1, conflict)
	assert.Equal(t, domain.VehicleStatusOnTrip, f.mustVehicle(t, v.ID).Status)

	dispatched, err := f.trips.List(ctx, repository.TripFilter{VehicleID: v.ID, Status: domain.TripStatusDispatched})
	require.NoError(t, err)
	assert.Len(t, dispatched, 1)
}

func TestDispatch_ConcurrentSameTrip(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	v := f.vehicle(t, "TRK-1", 500)
	d := f.driver(t, "LIC-1")
	trip := f.draft(t, v.ID, d.ID, 100)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.trips.Dispatch(ctx, trip.ID)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				success++
				return
			}
			if !errors.Is(err, ErrInvalidTransition) && !errors.Is(err, ErrConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, 1, f.mustDriver(t, d.ID).TripCount)
}

func TestComplete_KeepsShopStatusSetDuringTrip(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	v := f.vehicle(t, "TRK-1", 500)
	d := f.driver(t, "LIC-1")
	trip := f.draft(t, v.ID, d.ID, 100)
	_, err := f.trips.Dispatch(ctx, trip.ID)
	require.NoError(t, err)

	_, err = f.maintenance.Create(ctx, CreateMaintenanceRequest{VehicleID: v.ID, ServiceType: domain.ServiceTypeEngineRepair, Cost: 300})
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleStatusInShop, f.mustVehicle(t, v.ID).Status)

	_, err = f.trips.Complete(ctx, trip.ID, CompleteTripRequest{EndOdometer: ptr(1100.0)})
	require.NoError(t, err)

	vehicle := f.mustVehicle(t, v.ID)
	assert.Equal(t, domain.VehicleStatusInShop, vehicle.Status)
	assert.Equal(t, 1100.0, vehicle.Odometer)
	assert.Equal(t, domain.DriverStatusOffDuty, f.mustDriver(t, d.ID).Status)
}

func newLockedTripService(t *testing.T, f *fixture) (*TripService, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	logger, _ := test.NewNullLogger()
	return NewTripService(f.store, redis.NewLockStore(client), time.Minute, nil, nil, logger), mr
}

func TestDispatch_WithClaimLocks(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	trips, mr := newLockedTripService(t, f)

	v := f.vehicle(t, "TRK-1", 500)
	d := f.driver(t, "LIC-1")
	trip := f.draft(t, v.ID, d.ID, 100)

	_, err := trips.Dispatch(ctx, trip.ID)
	require.NoError(t, err)

	// Locks only cover the dispatch itself.
	assert.False(t, mr.Exists("lock:vehicle:"+v.ID))
	assert.False(t, mr.Exists("lock:driver:"+d.ID))
}

func TestDispatch_LockHeldElsewhere(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()
	trips, mr := newLockedTripService(t, f)

	v := f.vehicle(t, "TRK-1", 500)
	d := f.driver(t, "LIC-1")
	trip := f.draft(t, v.ID, d.ID, 100)

	require.NoError(t, mr.Set("lock:driver:"+d.ID, "other-trip"))

	_, err := trips.Dispatch(ctx, trip.ID)
	assert.ErrorIs(t, err, ErrConflict)

	// The vehicle lock taken before the failure was given back.
	assert.False(t, mr.Exists("lock:vehicle:"+v.ID))
	assert.Equal(t, domain.VehicleStatusAvailable, f.mustVehicle(t, v.ID).Status)
}

func TestTripCounterDelta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		from, to domain.TripStatus
		want     counterDelta
	}{
		{domain.TripStatusDraft, domain.TripStatusDispatched, counterDelta{trips: 1}},
		{domain.TripStatusDispatched, domain.TripStatusCompleted, counterDelta{trips: 1, completed: 1}},
		{domain.TripStatusDispatched, domain.TripStatusCancelled, counterDelta{trips: 1}},
		{domain.TripStatusDraft, domain.TripStatusCancelled, counterDelta{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tripCounterDelta(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
	}
}
