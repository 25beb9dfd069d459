package repository

import (
	"context"

	"fleetflow/internal/domain"
)

// TripFilter narrows trip lookups. VehicleIDs, when non-nil, restricts to
// those vehicles; an empty non-nil slice matches nothing.
type TripFilter struct {
	Status     domain.TripStatus
	VehicleID  string
	DriverID   string
	VehicleIDs []string
}

// Match reports whether t satisfies the filter.
func (f TripFilter) Match(t *domain.Trip) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.VehicleID != "" && t.VehicleID != f.VehicleID {
		return false
	}
	if f.DriverID != "" && t.DriverID != f.DriverID {
		return false
	}
	if f.VehicleIDs != nil {
		for _, id := range f.VehicleIDs {
			if id == t.VehicleID {
				return true
			}
		}
		return false
	}
	return true
}

// TripRepository defines the persistence operations for trips.
type TripRepository interface {
	// Create persists a new trip.
	Create(ctx context.Context, trip *domain.Trip) error

	// GetByID retrieves a trip by ID.
	GetByID(ctx context.Context, id string) (*domain.Trip, error)

	// GetForUpdate retrieves a trip and holds it until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id string) (*domain.Trip, error)

	// Find retrieves trips matching the filter, newest first.
	Find(ctx context.Context, filter TripFilter) ([]*domain.Trip, error)

	// Count returns the number of trips matching the filter.
	Count(ctx context.Context, filter TripFilter) (int, error)

	// Update writes all fields under a version check.
	Update(ctx context.Context, trip *domain.Trip) error

	// Delete removes a trip.
	Delete(ctx context.Context, id string) error
}
