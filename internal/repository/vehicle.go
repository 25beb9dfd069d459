package repository

import (
	"context"

	"fleetflow/internal/domain"
)

// VehicleFilter narrows vehicle lookups. Zero fields match everything.
type VehicleFilter struct {
	Type   domain.VehicleType
	Status domain.VehicleStatus
	Region string
}

// Match reports whether v satisfies the filter.
func (f VehicleFilter) Match(v *domain.Vehicle) bool {
	if f.Type != "" && v.Type != f.Type {
		return false
	}
	if f.Status != "" && v.Status != f.Status {
		return false
	}
	if f.Region != "" && v.Region != f.Region {
		return false
	}
	return true
}

// VehicleRepository defines the persistence operations for vehicles.
type VehicleRepository interface {
	// Create persists a new vehicle.
	Create(ctx context.Context, vehicle *domain.Vehicle) error

	// GetByID retrieves a vehicle by ID.
	GetByID(ctx context.Context, id string) (*domain.Vehicle, error)

	// GetForUpdate retrieves a vehicle and holds it until the surrounding
	// transaction ends. Outside a transaction it behaves like GetByID.
	GetForUpdate(ctx context.Context, id string) (*domain.Vehicle, error)

	// Find retrieves vehicles matching the filter, newest first.
	Find(ctx context.Context, filter VehicleFilter) ([]*domain.Vehicle, error)

	// Update writes all fields if the stored version equals vehicle.Version,
	// then bumps the version. Returns ErrStaleWrite otherwise.
	Update(ctx context.Context, vehicle *domain.Vehicle) error

	// CompareAndSetStatus moves status from expected to next.
	// Returns ErrStaleWrite if the current status is not expected.
	CompareAndSetStatus(ctx context.Context, id string, expected, next domain.VehicleStatus) error

	// Delete removes a vehicle.
	Delete(ctx context.Context, id string) error
}
