package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"fleetflow/internal/domain"
	"fleetflow/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

var _ repository.TripRepository = (*TripRepository)(nil)

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

const tripColumns = `id, vehicle_id, driver_id, origin, destination, cargo_weight, status,
		start_odometer, end_odometer, distance, revenue, notes, version,
		created_at, updated_at, dispatched_at, completed_at, cancelled_at`

func scanTrip(row interface{ Scan(dest ...any) error }) (*domain.Trip, error) {
	var trip domain.Trip
	var dispatchedAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&trip.ID,
		&trip.VehicleID,
		&trip.DriverID,
		&trip.Origin,
		&trip.Destination,
		&trip.CargoWeight,
		&trip.Status,
		&trip.StartOdometer,
		&trip.EndOdometer,
		&trip.Distance,
		&trip.Revenue,
		&trip.Notes,
		&trip.Version,
		&trip.CreatedAt,
		&trip.UpdatedAt,
		&dispatchedAt,
		&completedAt,
		&cancelledAt,
	)
	if err != nil {
		return nil, mapError(err)
	}

	if dispatchedAt.Valid {
		trip.DispatchedAt = dispatchedAt.Time
	}
	if completedAt.Valid {
		trip.CompletedAt = completedAt.Time
	}
	if cancelledAt.Valid {
		trip.CancelledAt = cancelledAt.Time
	}

	return &trip, nil
}

// Create persists a new trip.
func (r *TripRepository) Create(ctx context.Context, trip *domain.Trip) error {
	query := `
		INSERT INTO trips (` + tripColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	if trip.Version == 0 {
		trip.Version = 1
	}

	_, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.VehicleID,
		trip.DriverID,
		trip.Origin,
		trip.Destination,
		trip.CargoWeight,
		trip.Status,
		trip.StartOdometer,
		trip.EndOdometer,
		trip.Distance,
		trip.Revenue,
		trip.Notes,
		trip.Version,
		trip.CreatedAt,
		trip.UpdatedAt,
		toNullTime(trip.DispatchedAt),
		toNullTime(trip.CompletedAt),
		toNullTime(trip.CancelledAt),
	)

	return mapError(err)
}

// GetByID retrieves a trip by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`
	return scanTrip(r.q.QueryRowContext(ctx, query, id))
}

// GetForUpdate retrieves a trip and locks its row for the rest of the transaction.
func (r *TripRepository) GetForUpdate(ctx context.Context, id string) (*domain.Trip, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1 FOR UPDATE`
	return scanTrip(r.q.QueryRowContext(ctx, query, id))
}

// tripWhere renders the filter as a WHERE clause with positional args.
func tripWhere(filter repository.TripFilter) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.VehicleID != "" {
		args = append(args, filter.VehicleID)
		conds = append(conds, fmt.Sprintf("vehicle_id = $%d", len(args)))
	}
	if filter.DriverID != "" {
		args = append(args, filter.DriverID)
		conds = append(conds, fmt.Sprintf("driver_id = $%d", len(args)))
	}
	if filter.VehicleIDs != nil {
		args = append(args, pq.Array(filter.VehicleIDs))
		conds = append(conds, fmt.Sprintf("vehicle_id::text = ANY($%d)", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return ` WHERE ` + strings.Join(conds, " AND "), args
}

// Find retrieves trips matching the filter.
func (r *TripRepository) Find(ctx context.Context, filter repository.TripFilter) ([]*domain.Trip, error) {
	where, args := tripWhere(filter)
	query := `SELECT ` + tripColumns + ` FROM trips` + where + ` ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}

	return trips, rows.Err()
}

// Count returns the number of trips matching the filter.
func (r *TripRepository) Count(ctx context.Context, filter repository.TripFilter) (int, error) {
	where, args := tripWhere(filter)

	var n int
	if err := r.q.QueryRowContext(ctx, `SELECT COUNT(*) FROM trips`+where, args...).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Update writes a trip under a version check.
func (r *TripRepository) Update(ctx context.Context, trip *domain.Trip) error {
	query := `
		UPDATE trips
		SET origin = $3, destination = $4, cargo_weight = $5, status = $6,
			start_odometer = $7, end_odometer = $8, distance = $9, revenue = $10, notes = $11,
			dispatched_at = $12, completed_at = $13, cancelled_at = $14,
			version = version + 1, updated_at = $15
		WHERE id = $1 AND version = $2
	`

	now := time.Now()
	err := guardedUpdate(ctx, r.q, "trips", trip.ID, query,
		trip.ID,
		trip.Version,
		trip.Origin,
		trip.Destination,
		trip.CargoWeight,
		trip.Status,
		trip.StartOdometer,
		trip.EndOdometer,
		trip.Distance,
		trip.Revenue,
		trip.Notes,
		toNullTime(trip.DispatchedAt),
		toNullTime(trip.CompletedAt),
		toNullTime(trip.CancelledAt),
		now,
	)
	if err != nil {
		return err
	}

	trip.Version++
	trip.UpdatedAt = now
	return nil
}

// Delete removes a trip.
func (r *TripRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM trips WHERE id = $1`, id)
	return expectOneRow(result, err)
}
