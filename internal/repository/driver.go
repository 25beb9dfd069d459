package repository

import (
	"context"

	"fleetflow/internal/domain"
)

// DriverRepository defines the persistence operations for drivers.
type DriverRepository interface {
	// Create adds a new driver. Returns ErrDuplicate on a reused license number.
	Create(ctx context.Context, driver *domain.Driver) error

	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// GetForUpdate retrieves a driver and holds it until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Driver, error)

	// GetByLicenseNumber retrieves a driver by license number.
	GetByLicenseNumber(ctx context.Context, licenseNumber string) (*domain.Driver, error)

	// GetAll retrieves all drivers, newest first.
	GetAll(ctx context.Context) ([]*domain.Driver, error)

	// Update writes all profile fields under a version check.
	Update(ctx context.Context, driver *domain.Driver) error

	// CompareAndSetStatus moves status from expected to next.
	CompareAndSetStatus(ctx context.Context, id string, expected, next domain.DriverStatus) error

	// IncrementCounters atomically adds to tripCount and completedTrips.
	IncrementCounters(ctx context.Context, id string, tripDelta, completedDelta int) error

	// Delete removes a driver.
	Delete(ctx context.Context, id string) error
}
