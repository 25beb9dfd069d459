package postgres

import (
	"context"
	"database/sql"
	"time"

	"fleetflow/internal/domain"
	"fleetflow/internal/repository"
)

// DriverRepository is a PostgreSQL implementation of repository.DriverRepository.
type DriverRepository struct {
	q Querier
}

var _ repository.DriverRepository = (*DriverRepository)(nil)

// NewDriverRepository creates a new PostgreSQL driver repository.
func NewDriverRepository(db *sql.DB) *DriverRepository {
	return &DriverRepository{q: db}
}

// NewDriverRepositoryWithTx creates a driver repository using a transaction.
func NewDriverRepositoryWithTx(tx *sql.Tx) *DriverRepository {
	return &DriverRepository{q: tx}
}

const driverColumns = `id, name, phone, license_number, license_expiry, license_category, status,
		safety_score, trip_count, completed_trips, version, created_at, updated_at`

func scanDriver(row interface{ Scan(dest ...any) error }) (*domain.Driver, error) {
	var d domain.Driver
	err := row.Scan(
		&d.ID,
		&d.Name,
		&d.Phone,
		&d.LicenseNumber,
		&d.LicenseExpiry,
		&d.LicenseCategory,
		&d.Status,
		&d.SafetyScore,
		&d.TripCount,
		&d.CompletedTrips,
		&d.Version,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &d, nil
}

// Create adds a new driver.
func (r *DriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	query := `
		INSERT INTO drivers (` + driverColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	if driver.Version == 0 {
		driver.Version = 1
	}

	_, err := r.q.ExecContext(ctx, query,
		driver.ID,
		driver.Name,
		driver.Phone,
		driver.LicenseNumber,
		driver.LicenseExpiry,
		driver.LicenseCategory,
		driver.Status,
		driver.SafetyScore,
		driver.TripCount,
		driver.CompletedTrips,
		driver.Version,
		driver.CreatedAt,
		driver.UpdatedAt,
	)

	return mapError(err)
}

// GetByID retrieves a driver by ID.
func (r *DriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1`
	return scanDriver(r.q.QueryRowContext(ctx, query, id))
}

// GetForUpdate retrieves a driver and locks its row for the rest of the transaction.
func (r *DriverRepository) GetForUpdate(ctx context.Context, id string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE id = $1 FOR UPDATE`
	return scanDriver(r.q.QueryRowContext(ctx, query, id))
}

// GetByLicenseNumber retrieves a driver by license number.
func (r *DriverRepository) GetByLicenseNumber(ctx context.Context, licenseNumber string) (*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers WHERE license_number = $1`
	return scanDriver(r.q.QueryRowContext(ctx, query, licenseNumber))
}

// GetAll retrieves all drivers.
func (r *DriverRepository) GetAll(ctx context.Context) ([]*domain.Driver, error) {
	query := `SELECT ` + driverColumns + ` FROM drivers ORDER BY created_at DESC`

	rows, err := r.q.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drivers []*domain.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, err
		}
		drivers = append(drivers, d)
	}

	return drivers, rows.Err()
}

// Update writes a driver's profile under a version check. Counters are
// only changed through IncrementCounters.
func (r *DriverRepository) Update(ctx context.Context, driver *domain.Driver) error {
	query := `
		UPDATE drivers
		SET name = $3, phone = $4, license_number = $5, license_expiry = $6,
			license_category = $7, status = $8, safety_score = $9,
			version = version + 1, updated_at = $10
		WHERE id = $1 AND version = $2
	`

	now := time.Now()
	err := guardedUpdate(ctx, r.q, "drivers", driver.ID, query,
		driver.ID,
		driver.Version,
		driver.Name,
		driver.Phone,
		driver.LicenseNumber,
		driver.LicenseExpiry,
		driver.LicenseCategory,
		driver.Status,
		driver.SafetyScore,
		now,
	)
	if err != nil {
		return err
	}

	driver.Version++
	driver.UpdatedAt = now
	return nil
}

// CompareAndSetStatus moves a driver from expected to next status.
func (r *DriverRepository) CompareAndSetStatus(ctx context.Context, id string, expected, next domain.DriverStatus) error {
	query := `
		UPDATE drivers
		SET status = $3, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`
	return guardedUpdate(ctx, r.q, "drivers", id, query, id, expected, next)
}

// IncrementCounters adds to trip_count and completed_trips in a single statement.
func (r *DriverRepository) IncrementCounters(ctx context.Context, id string, tripDelta, completedDelta int) error {
	query := `
		UPDATE drivers
		SET trip_count = trip_count + $2, completed_trips = completed_trips + $3,
			version = version + 1, updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.q.ExecContext(ctx, query, id, tripDelta, completedDelta)
	return expectOneRow(result, err)
}

// Delete removes a driver.
func (r *DriverRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM drivers WHERE id = $1`, id)
	return expectOneRow(result, err)
}
