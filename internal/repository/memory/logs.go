package memory

import (
	"context"
	"time"

	"fleetflow/internal/domain"
	"fleetflow/internal/repository"
)

// MaintenanceRepository is an in-memory implementation of repository.MaintenanceRepository.
type MaintenanceRepository struct {
	b binding
}

var _ repository.MaintenanceRepository = (*MaintenanceRepository)(nil)

func (r *MaintenanceRepository) Create(ctx context.Context, log *domain.MaintenanceLog) error {
	return r.b.do(func(t *tables) error {
		if _, ok := t.maintenance[log.ID]; ok {
			return repository.ErrDuplicate
		}
		if _, ok := t.vehicles[log.VehicleID]; !ok {
			return repository.ErrNotFound
		}
		if log.Version == 0 {
			log.Version = 1
		}
		t.maintenance[log.ID] = *log
		return nil
	})
}

func (r *MaintenanceRepository) GetByID(ctx context.Context, id string) (*domain.MaintenanceLog, error) {
	var out *domain.MaintenanceLog
	err := r.b.do(func(t *tables) error {
		l, ok := t.maintenance[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &l
		return nil
	})
	return out, err
}

func (r *MaintenanceRepository) Find(ctx context.Context, filter repository.LogFilter) ([]*domain.MaintenanceLog, error) {
	var out []*domain.MaintenanceLog
	err := r.b.do(func(t *tables) error {
		for _, l := range t.maintenance {
			if filter.VehicleID != "" && l.VehicleID != filter.VehicleID {
				continue
			}
			if filter.Unresolved && l.IsResolved {
				continue
			}
			l := l
			out = append(out, &l)
		}
		return nil
	})
	newestFirst(out, func(l *domain.MaintenanceLog) time.Time { return l.Date })
	return out, err
}

func (r *MaintenanceRepository) Update(ctx context.Context, log *domain.MaintenanceLog) error {
	return r.b.do(func(t *tables) error {
		cur, ok := t.maintenance[log.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if cur.Version != log.Version {
			return repository.ErrStaleWrite
		}
		log.VehicleID = cur.VehicleID
		log.Version++
		log.UpdatedAt = time.Now()
		t.maintenance[log.ID] = *log
		return nil
	})
}

func (r *MaintenanceRepository) Delete(ctx context.Context, id string) error {
	return r.b.do(func(t *tables) error {
		if _, ok := t.maintenance[id]; !ok {
			return repository.ErrNotFound
		}
		delete(t.maintenance, id)
		return nil
	})
}

func (r *MaintenanceRepository) CountUnresolved(ctx context.Context, vehicleID string) (int, error) {
	n := 0
	err := r.b.do(func(t *tables) error {
		for _, l := range t.maintenance {
			if l.VehicleID == vehicleID && !l.IsResolved {
				n++
			}
		}
		return nil
	})
	return n, err
}

// FuelRepository is an in-memory implementation of repository.FuelRepository.
type FuelRepository struct {
	b binding
}

var _ repository.FuelRepository = (*FuelRepository)(nil)

func (r *FuelRepository) Create(ctx context.Context, log *domain.FuelLog) error {
	return r.b.do(func(t *tables) error {
		if _, ok := t.fuel[log.ID]; ok {
			return repository.ErrDuplicate
		}
		if _, ok := t.vehicles[log.VehicleID]; !ok {
			return repository.ErrNotFound
		}
		if log.TripID != "" {
			if _, ok := t.trips[log.TripID]; !ok {
				return repository.ErrNotFound
			}
		}
		if log.Version == 0 {
			log.Version = 1
		}
		t.fuel[log.ID] = *log
		return nil
	})
}

func (r *FuelRepository) GetByID(ctx context.Context, id string) (*domain.FuelLog, error) {
	var out *domain.FuelLog
	err := r.b.do(func(t *tables) error {
		l, ok := t.fuel[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &l
		return nil
	})
	return out, err
}

func (r *FuelRepository) Find(ctx context.Context, filter repository.LogFilter) ([]*domain.FuelLog, error) {
	var out []*domain.FuelLog
	err := r.b.do(func(t *tables) error {
		for _, l := range t.fuel {
			if filter.VehicleID != "" && l.VehicleID != filter.VehicleID {
				continue
			}
			if filter.TripID != "" && l.TripID != filter.TripID {
				continue
			}
			l := l
			out = append(out, &l)
		}
		return nil
	})
	newestFirst(out, func(l *domain.FuelLog) time.Time { return l.Date })
	return out, err
}

func (r *FuelRepository) Update(ctx context.Context, log *domain.FuelLog) error {
	return r.b.do(func(t *tables) error {
		cur, ok := t.fuel[log.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if cur.Version != log.Version {
			return repository.ErrStaleWrite
		}
		log.VehicleID = cur.VehicleID
		log.Version++
		log.UpdatedAt = time.Now()
		t.fuel[log.ID] = *log
		return nil
	})
}

func (r *FuelRepository) Delete(ctx context.Context, id string) error {
	return r.b.do(func(t *tables) error {
		if _, ok := t.fuel[id]; !ok {
			return repository.ErrNotFound
		}
		delete(t.fuel, id)
		return nil
	})
}
