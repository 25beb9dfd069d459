package repository

import (
	"context"

	"fleetflow/internal/domain"
)

// LogFilter narrows maintenance and fuel log lookups.
type LogFilter struct {
	VehicleID  string
	TripID     string
	Unresolved bool // maintenance only
}

// MaintenanceRepository defines the persistence operations for maintenance logs.
type MaintenanceRepository interface {
	Create(ctx context.Context, log *domain.MaintenanceLog) error
	GetByID(ctx context.Context, id string) (*domain.MaintenanceLog, error)
	Find(ctx context.Context, filter LogFilter) ([]*domain.MaintenanceLog, error)
	Update(ctx context.Context, log *domain.MaintenanceLog) error
	Delete(ctx context.Context, id string) error

	// CountUnresolved returns the number of open logs for a vehicle.
	CountUnresolved(ctx context.Context, vehicleID string) (int, error)
}

// FuelRepository defines the persistence operations for fuel logs.
type FuelRepository interface {
	Create(ctx context.Context, log *domain.FuelLog) error
	GetByID(ctx context.Context, id string) (*domain.FuelLog, error)
	Find(ctx context.Context, filter LogFilter) ([]*domain.FuelLog, error)
	Update(ctx context.Context, log *domain.FuelLog) error
	Delete(ctx context.Context, id string) error
}
