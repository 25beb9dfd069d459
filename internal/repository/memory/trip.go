package memory

import (
	"context"
	"time"

	"fleetflow/internal/domain"
	"fleetflow/internal/repository"
)

// TripRepository is an in-memory implementation of repository.TripRepository.
type TripRepository struct {
	b binding
}

var _ repository.TripRepository = (*TripRepository)(nil)

func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	return r.b.do(func(t *tables) error {
		if _, ok := t.trips[trip.ID]; ok {
			return repository.ErrDuplicate
		}
		if _, ok := t.vehicles[trip.VehicleID]; !ok {
			return repository.ErrNotFound
		}
		if _, ok := t.drivers[trip.DriverID]; !ok {
			return repository.ErrNotFound
		}
		if trip.Version == 0 {
			trip.Version = 1
		}
		t.trips[trip.ID] = *trip
		return nil
	})
}

func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	var out *domain.Trip
	err := r.b.do(func(t *tables) error {
		trip, ok := t.trips[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &trip
		return nil
	})
	return out, err
}

func (r *TripRepository) GetForUpdate(ctx context.Context, id string) (*domain.Trip, error) {
	return r.GetByID(ctx, id)
}

func (r *TripRepository) Find(ctx context.Context, filter repository.TripFilter) ([]*domain.Trip, error) {
	var out []*domain.Trip
	err := r.b.do(func(t *tables) error {
		for _, trip := range t.trips {
			if filter.Match(&trip) {
				trip := trip
				out = append(out, &trip)
			}
		}
		return nil
	})
	newestFirst(out, func(trip *domain.Trip) time.Time { return trip.CreatedAt })
	return out, err
}

func (r *TripRepository) Count(ctx context.Context, filter repository.TripFilter) (int, error) {
	n := 0
	err := r.b.do(func(t *tables) error {
		for _, trip := range t.trips {
			if filter.Match(&trip) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	return r.b.do(func(t *tables) error {
		cur, ok := t.trips[trip.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if cur.Version != trip.Version {
			return repository.ErrStaleWrite
		}
		// vehicle and driver references are fixed at creation
		trip.VehicleID = cur.VehicleID
		trip.DriverID = cur.DriverID
		trip.Version++
		trip.UpdatedAt = time.Now()
		t.trips[trip.ID] = *trip
		return nil
	})
}

// Delete removes a trip and detaches fuel logs that pointed at it.
func (r *TripRepository) Delete(ctx context.Context, id string) error {
	return r.b.do(func(t *tables) error {
		if _, ok := t.trips[id]; !ok {
			return repository.ErrNotFound
		}
		for lid, l := range t.fuel {
			if l.TripID == id {
				l.TripID = ""
				t.fuel[lid] = l
			}
		}
		delete(t.trips, id)
		return nil
	})
}
