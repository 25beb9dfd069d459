// Package memory is an in-process implementation of repository.Store.
// A transaction holds the store mutex for its whole duration and works on a
// copy of the tables that replaces the live tables only on commit.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"fleetflow/internal/domain"
	"fleetflow/internal/repository"
)

type tables struct {
	vehicles    map[string]domain.Vehicle
	drivers     map[string]domain.Driver
	trips       map[string]domain.Trip
	maintenance map[string]domain.MaintenanceLog
	fuel        map[string]domain.FuelLog
}

func newTables() *tables {
	return &tables{
		vehicles:    make(map[string]domain.Vehicle),
		drivers:     make(map[string]domain.Driver),
		trips:       make(map[string]domain.Trip),
		maintenance: make(map[string]domain.MaintenanceLog),
		fuel:        make(map[string]domain.FuelLog),
	}
}

func (t *tables) clone() *tables {
	c := newTables()
	for k, v := range t.vehicles {
		c.vehicles[k] = v
	}
	for k, v := range t.drivers {
		c.drivers[k] = v
	}
	for k, v := range t.trips {
		c.trips[k] = v
	}
	for k, v := range t.maintenance {
		c.maintenance[k] = v
	}
	for k, v := range t.fuel {
		c.fuel[k] = v
	}
	return c
}

// Store keeps all entities in memory.
type Store struct {
	mu sync.Mutex
	t  *tables
}

var _ repository.Store = (*Store)(nil)

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{t: newTables()}
}

// binding routes repository calls either to the live tables (taking the
// mutex per call) or to the working copy of an open transaction.
type binding struct {
	s  *Store
	tx *tables
}

func (b binding) do(fn func(t *tables) error) error {
	if b.tx != nil {
		return fn(b.tx)
	}
	b.s.mu.Lock()
	defer b.s.mu.Unlock()
	return fn(b.s.t)
}

func (b binding) repos() repository.Repos {
	return repository.Repos{
		Vehicles:    &VehicleRepository{b},
		Drivers:     &DriverRepository{b},
		Trips:       &TripRepository{b},
		Maintenance: &MaintenanceRepository{b},
		Fuel:        &FuelRepository{b},
	}
}

// Repos returns repositories that apply each call atomically on its own.
func (s *Store) Repos() repository.Repos {
	return binding{s: s}.repos()
}

// WithinTx runs fn with exclusive access to the store. Writes become
// visible only if fn returns nil. fn must not use the repositories
// returned by Repos, which would deadlock.
func (s *Store) WithinTx(ctx context.Context, fn func(r repository.Repos) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	work := s.t.clone()
	if err := fn(binding{s: s, tx: work}.repos()); err != nil {
		return err
	}
	s.t = work
	return nil
}

func newestFirst[T any](items []*T, created func(*T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return created(items[i]).After(created(items[j]))
	})
}
