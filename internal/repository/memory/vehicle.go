package memory

import (
	"context"
	"time"

	"fleetflow/internal/domain"
	"fleetflow/internal/repository"
)

// VehicleRepository is an in-memory implementation of repository.VehicleRepository.
type VehicleRepository struct {
	b binding
}

var _ repository.VehicleRepository = (*VehicleRepository)(nil)

func (r *VehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	return r.b.do(func(t *tables) error {
		if _, ok := t.vehicles[vehicle.ID]; ok {
			return repository.ErrDuplicate
		}
		for _, v := range t.vehicles {
			if v.LicensePlate == vehicle.LicensePlate {
				return repository.ErrDuplicate
			}
		}
		if vehicle.Version == 0 {
			vehicle.Version = 1
		}
		t.vehicles[vehicle.ID] = *vehicle
		return nil
	})
}

func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	var out *domain.Vehicle
	err := r.b.do(func(t *tables) error {
		v, ok := t.vehicles[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &v
		return nil
	})
	return out, err
}

// GetForUpdate is GetByID; the transaction already holds the store exclusively.
func (r *VehicleRepository) GetForUpdate(ctx context.Context, id string) (*domain.Vehicle, error) {
	return r.GetByID(ctx, id)
}

func (r *VehicleRepository) Find(ctx context.Context, filter repository.VehicleFilter) ([]*domain.Vehicle, error) {
	var out []*domain.Vehicle
	err := r.b.do(func(t *tables) error {
		for _, v := range t.vehicles {
			if filter.Match(&v) {
				v := v
				out = append(out, &v)
			}
		}
		return nil
	})
	newestFirst(out, func(v *domain.Vehicle) time.Time { return v.CreatedAt })
	return out, err
}

func (r *VehicleRepository) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	return r.b.do(func(t *tables) error {
		cur, ok := t.vehicles[vehicle.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if cur.Version != vehicle.Version {
			return repository.ErrStaleWrite
		}
		for id, v := range t.vehicles {
			if id != vehicle.ID && v.LicensePlate == vehicle.LicensePlate {
				return repository.ErrDuplicate
			}
		}
		vehicle.Version++
		vehicle.UpdatedAt = time.Now()
		t.vehicles[vehicle.ID] = *vehicle
		return nil
	})
}

func (r *VehicleRepository) CompareAndSetStatus(ctx context.Context, id string, expected, next domain.VehicleStatus) error {
	return r.b.do(func(t *tables) error {
		v, ok := t.vehicles[id]
		if !ok {
			return repository.ErrNotFound
		}
		if v.Status != expected {
			return repository.ErrStaleWrite
		}
		v.Status = next
		v.Version++
		v.UpdatedAt = time.Now()
		t.vehicles[id] = v
		return nil
	})
}

// Delete removes a vehicle together with its maintenance and fuel logs.
// Vehicles referenced by trips cannot be removed.
func (r *VehicleRepository) Delete(ctx context.Context, id string) error {
	return r.b.do(func(t *tables) error {
		if _, ok := t.vehicles[id]; !ok {
			return repository.ErrNotFound
		}
		for _, trip := range t.trips {
			if trip.VehicleID == id {
				return repository.ErrInUse
			}
		}
		for lid, l := range t.maintenance {
			if l.VehicleID == id {
				delete(t.maintenance, lid)
			}
		}
		for lid, l := range t.fuel {
			if l.VehicleID == id {
				delete(t.fuel, lid)
			}
		}
		delete(t.vehicles, id)
		return nil
	})
}
