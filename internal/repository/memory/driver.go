package memory

import (
	"context"
	"time"

	"fleetflow/internal/domain"
	"fleetflow/internal/repository"
)

// DriverRepository is an in-memory implementation of repository.DriverRepository.
type DriverRepository struct {
	b binding
}

var _ repository.DriverRepository = (*DriverRepository)(nil)

func (r *DriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	return r.b.do(func(t *tables) error {
		if _, ok := t.drivers[driver.ID]; ok {
			return repository.ErrDuplicate
		}
		for _, d := range t.drivers {
			if d.LicenseNumber == driver.LicenseNumber {
				return repository.ErrDuplicate
			}
		}
		if driver.Version == 0 {
			driver.Version = 1
		}
		t.drivers[driver.ID] = *driver
		return nil
	})
}

func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	var out *domain.Driver
	err := r.b.do(func(t *tables) error {
		d, ok := t.drivers[id]
		if !ok {
			return repository.ErrNotFound
		}
		out = &d
		return nil
	})
	return out, err
}

func (r *DriverRepository) GetForUpdate(ctx context.Context, id string) (*domain.Driver, error) {
	return r.GetByID(ctx, id)
}

func (r *DriverRepository) GetByLicenseNumber(ctx context.Context, licenseNumber string) (*domain.Driver, error) {
	var out *domain.Driver
	err := r.b.do(func(t *tables) error {
		for _, d := range t.drivers {
			if d.LicenseNumber == licenseNumber {
				d := d
				out = &d
				return nil
			}
		}
		return repository.ErrNotFound
	})
	return out, err
}

func (r *DriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	var out []*domain.Driver
	err := r.b.do(func(t *tables) error {
		for _, d := range t.drivers {
			d := d
			out = append(out, &d)
		}
		return nil
	})
	newestFirst(out, func(d *domain.Driver) time.Time { return d.CreatedAt })
	return out, err
}

// Update writes profile fields and status; counters keep their stored values.
func (r *DriverRepository) Update(ctx context.Context, driver *domain.Driver) error {
	return r.b.do(func(t *tables) error {
		cur, ok := t.drivers[driver.ID]
		if !ok {
			return repository.ErrNotFound
		}
		if cur.Version != driver.Version {
			return repository.ErrStaleWrite
		}
		for id, d := range t.drivers {
			if id != driver.ID && d.LicenseNumber == driver.LicenseNumber {
				return repository.ErrDuplicate
			}
		}
		driver.TripCount = cur.TripCount
		driver.CompletedTrips = cur.CompletedTrips
		driver.Version++
		driver.UpdatedAt = time.Now()
		t.drivers[driver.ID] = *driver
		return nil
	})
}

func (r *DriverRepository) CompareAndSetStatus(ctx context.Context, id string, expected, next domain.DriverStatus) error {
	return r.b.do(func(t *tables) error {
		d, ok := t.drivers[id]
		if !ok {
			return repository.ErrNotFound
		}
		if d.Status != expected {
			return repository.ErrStaleWrite
		}
		d.Status = next
		d.Version++
		d.UpdatedAt = time.Now()
		t.drivers[id] = d
		return nil
	})
}

func (r *DriverRepository) IncrementCounters(ctx context.Context, id string, tripDelta, completedDelta int) error {
	return r.b.do(func(t *tables) error {
		d, ok := t.drivers[id]
		if !ok {
			return repository.ErrNotFound
		}
		d.TripCount += tripDelta
		d.CompletedTrips += completedDelta
		d.Version++
		d.UpdatedAt = time.Now()
		t.drivers[id] = d
		return nil
	})
}

// Delete removes a driver. Drivers referenced by trips cannot be removed.
func (r *DriverRepository) Delete(ctx context.Context, id string) error {
	return r.b.do(func(t *tables) error {
		if _, ok := t.drivers[id]; !ok {
			return repository.ErrNotFound
		}
		for _, trip := range t.trips {
			if trip.DriverID == id {
				return repository.ErrInUse
			}
		}
		delete(t.drivers, id)
		return nil
	})
}
