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

// MaintenanceRepository is a PostgreSQL implementation of repository.MaintenanceRepository.
type MaintenanceRepository struct {
	q Querier
}

var _ repository.MaintenanceRepository = (*MaintenanceRepository)(nil)

// NewMaintenanceRepository creates a new PostgreSQL maintenance log repository.
func NewMaintenanceRepository(db *sql.DB) *MaintenanceRepository {
	return &MaintenanceRepository{q: db}
}

// NewMaintenanceRepositoryWithTx creates a maintenance log repository using a transaction.
func NewMaintenanceRepositoryWithTx(tx *sql.Tx) *MaintenanceRepository {
	return &MaintenanceRepository{q: tx}
}

const maintenanceColumns = `id, vehicle_id, service_type, description, cost, date, odometer,
		technician_name, is_resolved, version, created_at, updated_at`

func scanMaintenance(row interface{ Scan(dest ...any) error }) (*domain.MaintenanceLog, error) {
	var l domain.MaintenanceLog
	err := row.Scan(
		&l.ID,
		&l.VehicleID,
		&l.ServiceType,
		&l.Description,
		&l.Cost,
		&l.Date,
		&l.Odometer,
		&l.TechnicianName,
		&l.IsResolved,
		&l.Version,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		return nil, mapError(err)
	}
	return &l, nil
}

// Create persists a new maintenance log.
func (r *MaintenanceRepository) Create(ctx context.Context, log *domain.MaintenanceLog) error {
	query := `
		INSERT INTO maintenance_logs (` + maintenanceColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	if log.Version == 0 {
		log.Version = 1
	}

	_, err := r.q.ExecContext(ctx, query,
		log.ID,
		log.VehicleID,
		log.ServiceType,
		log.Description,
		log.Cost,
		log.Date,
		log.Odometer,
		log.TechnicianName,
		log.IsResolved,
		log.Version,
		log.CreatedAt,
		log.UpdatedAt,
	)

	return mapError(err)
}

// GetByID retrieves a maintenance log by ID.
func (r *MaintenanceRepository) GetByID(ctx context.Context, id string) (*domain.MaintenanceLog, error) {
	query := `SELECT ` + maintenanceColumns + ` FROM maintenance_logs WHERE id = $1`
	return scanMaintenance(r.q.QueryRowContext(ctx, query, id))
}

// Find retrieves maintenance logs matching the filter, most recent service date first.
func (r *MaintenanceRepository) Find(ctx context.Context, filter repository.LogFilter) ([]*domain.MaintenanceLog, error) {
	var (
		conds []string
		args  []any
	)
	if filter.VehicleID != "" {
		args = append(args, filter.VehicleID)
		conds = append(conds, fmt.Sprintf("vehicle_id = $%d", len(args)))
	}
	if filter.Unresolved {
		conds = append(conds, "NOT is_resolved")
	}

	query := `SELECT ` + maintenanceColumns + ` FROM maintenance_logs`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY date DESC`

	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var logs []*domain.MaintenanceLog
	for rows.Next() {
		l, err := scanMaintenance(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, l)
	}

	return logs, rows.Err()
}

// Update writes a maintenance log under a version check.
func (r *MaintenanceRepository) Update(ctx context.Context, log *domain.MaintenanceLog) error {
	query := `
		UPDATE maintenance_logs
		SET service_type = $3, description = $4, cost = $5, date = $6, odometer = $7,
			technician_name = $8, is_resolved = $9, version = version + 1, updated_at = $10
		WHERE id = $1 AND version = $2
	`

	now := time.Now()
	err := guardedUpdate(ctx, r.q, "maintenance_logs", log.ID, query,
		log.ID,
		log.Version,
		log.ServiceType,
		log.Description,
		log.Cost,
		log.Date,
		log.Odometer,
		log.TechnicianName,
		log.IsResolved,
		now,
	)
	if err != nil {
		return err
	}

	log.Version++
	log.UpdatedAt = now
	return nil
}

// Delete removes a maintenance log.
func (r *MaintenanceRepository) Delete(ctx context.Context, id string) error {
	result, err := r.q.ExecContext(ctx, `DELETE FROM maintenance_logs WHERE id = $1`, id)
	return expectOneRow(result, err)
}

// CountUnresolved returns the number of open logs for a vehicle.
func (r *MaintenanceRepository) CountUnresolved(ctx context.Context, vehicleID string) (int, error) {
	query := `SELECT COUNT(*) FROM maintenance_logs WHERE vehicle_id = $1 AND NOT is_resolved`

	var n int
	if err := r.q.QueryRowContext(ctx, query, vehicleID).Scan(&n); err != nil {
		return 0, mapError(err)
	}
	return n, nil
}
