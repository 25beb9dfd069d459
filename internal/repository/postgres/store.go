package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"fleetflow/internal/repository"
)

// Store is a PostgreSQL implementation of repository.Store.
type Store struct {
	db *sql.DB
}

var _ repository.Store = (*Store)(nil)

// NewStore creates a store backed by db.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Repos returns repositories bound to the connection pool.
func (s *Store) Repos() repository.Repos {
	return repository.Repos{
		Vehicles:    NewVehicleRepository(s.db),
		Drivers:     NewDriverRepository(s.db),
		Trips:       NewTripRepository(s.db),
		Maintenance: NewMaintenanceRepository(s.db),
		Fuel:        NewFuelRepository(s.db),
	}
}

// WithinTx runs fn inside a database transaction.
func (s *Store) WithinTx(ctx context.Context, fn func(r repository.Repos) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	err = fn(repository.Repos{
		Vehicles:    NewVehicleRepositoryWithTx(tx),
		Drivers:     NewDriverRepositoryWithTx(tx),
		Trips:       NewTripRepositoryWithTx(tx),
		Maintenance: NewMaintenanceRepositoryWithTx(tx),
		Fuel:        NewFuelRepositoryWithTx(tx),
	})
	if err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
