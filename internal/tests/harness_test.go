package tests

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"fleetflow/internal/domain"
	"fleetflow/internal/repository/memory"
	"fleetflow/internal/service"
)

type harness struct {
	store       *FaultyStore
	locks       *MockLockStore
	cache       *MockCacheStore
	published   *MockPublisher
	logs        *test.Hook
	registry    *service.RegistryService
	trips       *service.TripService
	maintenance *service.MaintenanceService
	fuel        *service.FuelService
	analytics   *service.AnalyticsService
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	logger, hook := test.NewNullLogger()
	store := NewFaultyStore(memory.NewStore())
	locks := NewMockLockStore()
	cache := &MockCacheStore{}
	published := &MockPublisher{}

	return &harness{
		store:       store,
		locks:       locks,
		cache:       cache,
		published:   published,
		logs:        hook,
		registry:    service.NewRegistryService(store, cache, logger),
		trips:       service.NewTripService(store, locks, time.Minute, published, cache, logger),
		maintenance: service.NewMaintenanceService(store, cache, logger),
		fuel:        service.NewFuelService(store, cache, logger),
		analytics:   service.NewAnalyticsService(store, cache, logger),
	}
}

// dispatchable registers a vehicle and a driver and drafts a trip between them.
func (h *harness) dispatchable(t *testing.T) *domain.Trip {
	t.Helper()
	ctx := context.Background()

	v, err := h.registry.CreateVehicle(ctx, service.CreateVehicleRequest{
		Name:            "Van 7",
		LicensePlate:    "VAN-7",
		Type:            domain.VehicleTypeVan,
		MaxCapacity:     800,
		Odometer:        5000,
		AcquisitionCost: 30000,
	})
	require.NoError(t, err)

	d, err := h.registry.CreateDriver(ctx, service.CreateDriverRequest{
		Name:            "Ada",
		LicenseNumber:   "LIC-7",
		LicenseExpiry:   time.Now().AddDate(2, 0, 0),
		LicenseCategory: domain.VehicleTypeVan,
	})
	require.NoError(t, err)

	trip, err := h.trips.Create(ctx, service.CreateTripRequest{
		VehicleID:   v.ID,
		DriverID:    d.ID,
		CargoWeight: 300,
		Origin:      "Warehouse",
		Destination: "Store",
	})
	require.NoError(t, err)
	return trip
}

// snapshot is the persisted state of a trip and the vehicle and driver it names.
type snapshot struct {
	trip    *domain.Trip
	vehicle *domain.Vehicle
	driver  *domain.Driver
}

func (h *harness) snapshot(t *testing.T, tripID string) snapshot {
	t.Helper()
	ctx := context.Background()

	trip, err := h.trips.Get(ctx, tripID)
	require.NoError(t, err)
	vehicle, err := h.registry.GetVehicle(ctx, trip.VehicleID)
	require.NoError(t, err)
	driver, err := h.registry.GetDriver(ctx, trip.DriverID)
	require.NoError(t, err)
	return snapshot{trip: trip, vehicle: vehicle, driver: driver}
}

func (h *harness) logged(message string) bool {
	for _, e := range h.logs.AllEntries() {
		if e.Message == message {
			return true
		}
	}
	return false
}
