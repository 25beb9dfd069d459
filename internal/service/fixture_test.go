package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"fleetflow/internal/domain"
	"fleetflow/internal/events"
	"fleetflow/internal/repository/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.TripEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.TripEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type fixture struct {
	store       *memory.Store
	registry    *RegistryService
	trips       *TripService
	maintenance *MaintenanceService
	fuel        *FuelService
	analytics   *AnalyticsService
	published   *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger, _ := test.NewNullLogger()
	store := memory.NewStore()
	published := &recordingPublisher{}

	return &fixture{
		store:       store,
		registry:    NewRegistryService(store, nil, logger),
		trips:       NewTripService(store, nil, 0, published, nil, logger),
		maintenance: NewMaintenanceService(store, nil, logger),
		fuel:        NewFuelService(store, nil, logger),
		analytics:   NewAnalyticsService(store, nil, logger),
		published:   published,
	}
}

func (f *fixture) vehicle(t *testing.T, plate string, capacity float64) *domain.Vehicle {
	t.Helper()
	v, err := f.registry.CreateVehicle(context.Background(), CreateVehicleRequest{
		Name:            "Truck " + plate,
		LicensePlate:    plate,
		Type:            domain.VehicleTypeTruck,
		MaxCapacity:     capacity,
		Odometer:        1000,
		AcquisitionCost: 50000,
	})
	require.NoError(t, err)
	return v
}

func (f *fixture) driver(t *testing.T, license string) *domain.Driver {
	t.Helper()
	d, err := f.registry.CreateDriver(context.Background(), CreateDriverRequest{
		Name:            "Driver " + license,
		LicenseNumber:   license,
		LicenseExpiry:   time.Now().AddDate(1, 0, 0),
		LicenseCategory: domain.VehicleTypeTruck,
	})
	require.NoError(t, err)
	return d
}

func (f *fixture) draft(t *testing.T, vehicleID, driverID string, cargo float64) *domain.Trip {
	t.Helper()
	trip, err := f.trips.Create(context.Background(), CreateTripRequest{
		VehicleID:   vehicleID,
		DriverID:    driverID,
		CargoWeight: cargo,
		Origin:      "Depot",
		Destination: "Port",
	})
	require.NoError(t, err)
	return trip
}

func (f *fixture) mustVehicle(t *testing.T, id string) *domain.Vehicle {
	t.Helper()
	v, err := f.registry.GetVehicle(context.Background(), id)
	require.NoError(t, err)
	return v
}

func (f *fixture) mustDriver(t *testing.T, id string) *domain.Driver {
	t.Helper()
	d, err := f.registry.GetDriver(context.Background(), id)
	require.NoError(t, err)
	return d
}

func ptr[T any](v T) *T {
	return &v
}
