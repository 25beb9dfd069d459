package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"fleetflow/internal/domain"
	"fleetflow/internal/repository"
)

// VehicleRepository is a PostgreSQL implementation of repository.VehicleRepository.
type VehicleRepository struct {
	q Querier
}

var _ repository.VehicleRepository = (*VehicleRepository)(nil)

// NewVehicleRepository creates a new PostgreSQL vehicle repository.
func NewVehicleRepository(db *sql.DB) *VehicleRepository {
	return &VehicleRepository{q: db}
}

// NewVehicleRepositoryWithTx creates a vehicle repository using a transaction.
func NewVehicleRepositoryWithTx(tx *sql.Tx) *VehicleRepository {
	return &VehicleRepository{q: tx}
}

const vehicleColumns = `id, name, model, license_plate, type, max_capacity, odometer, status,
		region, acquisition_cost, version, created_at, updated_at`

func scanVehicle(row interface{ Scan(dest ...any) error }) (*domain.Vehicle, error) {
	var v domain.Vehicle
	err := row.Scan(
		&v.ID,
		&v.Name,
		&v.Model,
		&v.LicensePlate,
		&v.Type,
		&v.MaxCapacity,
		&v.Odometer,
		&v.Status,
		&v.Region,
		&v.AcquisitionCost,
		&v.Version,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &v, nil
}

// Create persists a new vehicle.
func (r *VehicleRepository) Create(ctx context.Context, vehicle *domain.Vehicle) error {
	query := `
		INSERT INTO vehicles (` + vehicleColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	if vehicle.Version == 0 {
		vehicle.Version = 1
	}

	_, err := r.q.ExecContext(ctx, query,
		vehicle.ID,
		vehicle.Name,
		vehicle.Model,
		vehicle.LicensePlate,
		vehicle.Type,
		vehicle.MaxCapacity,
		vehicle.Odometer,
		vehicle.Status,
		vehicle.Region,
		vehicle.AcquisitionCost,
		vehicle.Version,
		vehicle.CreatedAt,
		vehicle.UpdatedAt,
	)

	return mapError(err)
}

// GetByID retrieves a vehicle by ID.
func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1`
	return scanVehicle(r.q.QueryRowContext(ctx, query, id))
}

// GetForUpdate retrieves a vehicle and locks its row for the rest of the transaction.
func (r *VehicleRepository) GetForUpdate(ctx context.Context, id string) (*domain.Vehicle, error) {
	query := `SELECT ` + vehicleColumns + ` FROM vehicles WHERE id = $1 FOR UPDATE`
	return scanVehicle(r.q.QueryRowContext(ctx, query, id))
}

// Find retrieves vehicles matching the filter.
func (r *VehicleRepository) Find(ctx context.Context, filter repository.VehicleFilter) ([]*domain.Vehicle, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Type != "" {
		args = append(args, filter.Type)
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Region != "" {
		args = append(args, filter.Region)
		conds = append(conds, fmt.Sprintf("region = $%d", len(args)))
	}

	query := `SELECT ` + vehicleColumns + ` FROM vehicles`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var vehicles []*domain.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		vehicles = append(vehicles, v)
	}

	return vehicles, rows.Err()
}

// Update writes a vehicle under a version check.
func (r *VehicleRepository) Update(ctx context.Context, vehicle *domain.Vehicle) error {
	query := `
		UPDATE vehicles
		SET name = $3, model = $4, license_plate = $5, type = $6, max_capacity = $7,
			odometer = $8, status = $9, region = $10, acquisition_cost = $11,
			version = version + 1, updated_at = $12
		WHERE id = $1 AND version = $2
	`

	now := time.Now()
	err := guardedUpdate(ctx, r.q, "vehicles", vehicle.ID, query,
		vehicle.ID,
		vehicle.Version,
		vehicle.Name,
		vehicle.Model,
		vehicle.LicensePlate,
		vehicle.Type,
		vehicle.MaxCapacity,
		vehicle.Odometer,
		vehicle.Status,
		vehicle.Region,
		vehicle.AcquisitionCost,
		now,
	)
	if err != nil {
		return err
	}

	vehicle.Version++
	vehicle.UpdatedAt = now
	return nil
}

// CompareAndSetStatus moves a vehicle from expected to next status.
func (r *VehicleRepository) CompareAndSetStatus(ctx context.Context, id string, expected, next domain.VehicleStatus) error {
	query := `
		UPDATE vehicles
		SET status = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`
	return guardedUpdate(ctx, r.q, "vehicles", id, query, id, expected, next)
}

// Delete removes a vehicle.
func (r *VehicleRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
	return expectOneRow(result, err)
}
