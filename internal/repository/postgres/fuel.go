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

// FuelRepository is a PostgreSQL implementation of repository.FuelRepository.
type FuelRepository struct {
	q Querier
}

var _ repository.FuelRepository = (*FuelRepository)(nil)

// NewFuelRepository creates a new PostgreSQL fuel log repository.
func NewFuelRepository(db *sql.DB) *FuelRepository {
	return &FuelRepository{q: db}
}

// NewFuelRepositoryWithTx creates a fuel log repository using a transaction.
func NewFuelRepositoryWithTx(tx *sql.Tx) *FuelRepository {
	return &FuelRepository{q: tx}
}

const fuelColumns = `id, vehicle_id, trip_id, liters, cost_per_liter, total_cost, date, odometer,
		version, created_at, updated_at`

func scanFuel(row interface{ Scan(dest ...any) error }) (*domain.FuelLog, error) {
	var l domain.FuelLog
	var tripID sql.NullString

	err := row.Scan(
		&l.ID,
		&l.VehicleID,
		&tripID,
		&l.Liters,
		&l.CostPerLiter,
		&l.TotalCost,
		&l.Date,
		&l.Odometer,
		&l.Version,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	l.TripID = tripID.String
	return &l, nil
}

// Create persists a new fuel log.
func (r *FuelRepository) Create(ctx context.Context, log *domain.FuelLog) error {
	query := `
		INSERT INTO fuel_logs (` + fuelColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	if log.Version == 0 {
		log.Version = 1
	}

	_, err := r.q.ExecContext(ctx, query,
		log.ID,
		log.VehicleID,
		toNullString(log.TripID),
		log.Liters,
		log.CostPerLiter,
		log.TotalCost,
		log.Date,
		log.Odometer,
		log.Version,
		log.CreatedAt,
		log.UpdatedAt,
	)

	return mapError(err)
}

// GetByID retrieves a fuel log by ID.
func (r *FuelRepository) GetByID(ctx context.Context, id string) (*domain.FuelLog, error) {
	query := `SELECT ` + fuelColumns + ` FROM fuel_logs WHERE id = $1`
	return scanFuel(r.q.QueryRowContext(ctx, query, id))
}

// Find retrieves fuel logs matching the filter, most recent first.
func (r *FuelRepository) Find(ctx context.Context, filter repository.LogFilter) ([]*domain.FuelLog, error) {
	var (
		conds []string
		args  []any
	)
	if filter.VehicleID != "" {
		args = append(args, filter.VehicleID)
		conds = append(conds, fmt.Sprintf("vehicle_id = $%d", len(args)))
	}
	if filter.TripID != "" {
		args = append(args, filter.TripID)
		conds = append(conds, fmt.Sprintf("trip_id = $%d", len(args)))
	}

	query := `SELECT ` + fuelColumns + ` FROM fuel_logs`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY date DESC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var logs []*domain.FuelLog
	for rows.Next() {
		l, err := scanFuel(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}

	return logs, rows.Err()
}

// Update writes a fuel log under a version check.
func (r *FuelRepository) Update(ctx context.Context, log *domain.FuelLog) error {
	query := `
		UPDATE fuel_logs
		SET trip_id = $3, liters = $4, cost_per_liter = $5, total_cost = $6, date = $7,
			odometer = $8, version = version + 1, updated_at = $9
		WHERE id = $1 AND version = $2
	`

	now := time.Now()
	err := guardedUpdate(ctx, r.q, "fuel_logs", log.ID, query,
		log.ID,
		log.Version,
		toNullString(log.TripID),
		log.Liters,
		log.CostPerLiter,
		log.TotalCost,
		log.Date,
		log.Odometer,
		now,
	)
	if err != nil {
		return err
	}

	log.Version++
	log.UpdatedAt = now
	return nil
}

// Delete removes a fuel log.
func (r *FuelRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM fuel_logs WHERE id = $1`, id)
	return expectOneRow(result, err)
}
