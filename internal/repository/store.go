package repository

import "context"

// Repos groups the repositories bound to one connection or transaction.
type Repos struct {
	Vehicles    VehicleRepository
	Drivers     DriverRepository
	Trips       TripRepository
	Maintenance MaintenanceRepository
	Fuel        FuelRepository
}

// Store is the persistence boundary consumed by the services.
type Store interface {
	// Repos returns repositories that run outside any transaction.
	Repos() Repos

	// WithinTx runs fn against transaction-scoped repositories. The
	// transaction commits if fn returns nil and rolls back otherwise, so
	// either every write made through the given Repos lands or none does.
	WithinTx(ctx context.Context, fn func(r Repos) error) error
}
