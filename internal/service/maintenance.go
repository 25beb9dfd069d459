package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"fleetflow/internal/domain"
	"fleetflow/internal/redis"
	"fleetflow/internal/repository"
)

// MaintenanceService records service work and keeps a vehicle IN_SHOP for
// as long as it has unresolved maintenance logs.
type MaintenanceService struct {
	store  repository.Store
	cache  reportCache
	logger log.FieldLogger
}

// NewMaintenanceService creates a new MaintenanceService. cache may be nil.
func NewMaintenanceService(store repository.Store, cache redis.CacheStoreInterface, logger log.FieldLogger) *MaintenanceService {
	return &MaintenanceService{
		store:  store,
		cache:  reportCache{store: cache, logger: logger},
		logger: logger,
	}
}

// CreateMaintenanceRequest contains the parameters for a maintenance log.
type CreateMaintenanceRequest struct {
	VehicleID      string
	ServiceType    domain.ServiceType
	Description    string
	Cost           float64
	Date           time.Time
	Odometer       float64
	TechnicianName string
}

// Create records a maintenance log and sends the vehicle to the shop,
// whatever its current status.
func (s *MaintenanceService) Create(ctx context.Context, req CreateMaintenanceRequest) (*domain.MaintenanceLog, error) {
	if req.ServiceType == "" {
		req.ServiceType = domain.ServiceTypeOther
	}

	switch {
	case req.VehicleID == "":
		return nil, invalid("vehicle is required")
	case !req.ServiceType.Valid():
		return nil, invalid("unknown service type %q", req.ServiceType)
	case req.Cost < 0:
		return nil, invalid("cost must not be negative (got %v)", req.Cost)
	case req.Odometer < 0:
		return nil, invalid("odometer must not be negative (got %v)", req.Odometer)
	}

	now := time.Now()
	entry := &domain.MaintenanceLog{
		ID:             uuid.New().String(),
		VehicleID:      req.VehicleID,
		ServiceType:    req.ServiceType,
		Description:    strings.TrimSpace(req.Description),
		Cost:           req.Cost,
		Date:           req.Date,
		Odometer:       req.Odometer,
		TechnicianName: strings.TrimSpace(req.TechnicianName),
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if entry.Date.IsZero() {
		entry.Date = now
	}

	var previous domain.VehicleStatus

	err := s.store.WithinTx(ctx, func(r repository.Repos) error {
		vehicle, err := r.Vehicles.GetForUpdate(ctx, req.VehicleID)
		if err != nil {
			return translate(err, "vehicle", req.VehicleID)
		}
		previous = vehicle.Status

		if err := r.Maintenance.Create(ctx, entry); err != nil {
			return translate(err, "maintenance log", entry.ID)
		}
		return setVehicleStatus(ctx, r, vehicle.ID, vehicle.Status, domain.VehicleStatusInShop)
	})
	if err != nil {
		return nil, err
	}

	fields := log.Fields{
		"log_id":     entry.ID,
		"vehicle_id": entry.VehicleID,
		"from":       previous,
		"to":         domain.VehicleStatusInShop,
	}
	if previous == domain.VehicleStatusOnTrip {
		s.logger.WithFields(fields).Warn("maintenance overrode an active trip claim")
	} else {
		s.logger.WithFields(fields).Info("vehicle sent to shop")
	}

	s.cache.invalidate(ctx)
	return entry, nil
}

// UpdateMaintenanceRequest carries the log fields to change. Nil fields are left alone.
type UpdateMaintenanceRequest struct {
	ServiceType    *domain.ServiceType
	Description    *string
	Cost           *float64
	Date           *time.Time
	Odometer       *float64
	TechnicianName *string
}

// Update changes a log's details. Resolution goes through Resolve so the
// vehicle status follows.
func (s *MaintenanceService) Update(ctx context.Context, id string, req UpdateMaintenanceRequest) (*domain.MaintenanceLog, error) {
	logs := s.store.Repos().Maintenance

	entry, err := logs.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "maintenance log", id)
	}

	if req.ServiceType != nil {
		if !req.ServiceType.Valid() {
			return nil, invalid("unknown service type %q", *req.ServiceType)
		}
		entry.ServiceType = *req.ServiceType
	}
	if req.Description != nil {
		entry.Description = strings.TrimSpace(*req.Description)
	}
	if req.Cost != nil {
		if *req.Cost < 0 {
			return nil, invalid("cost must not be negative (got %v)", *req.Cost)
		}
		entry.Cost = *req.Cost
	}
	if req.Date != nil && !req.Date.IsZero() {
		entry.Date = *req.Date
	}
	if req.Odometer != nil {
		if *req.Odometer < 0 {
			return nil, invalid("odometer must not be negative (got %v)", *req.Odometer)
		}
		entry.Odometer = *req.Odometer
	}
	if req.TechnicianName != nil {
		entry.TechnicianName = strings.TrimSpace(*req.TechnicianName)
	}

	if err := logs.Update(ctx, entry); err != nil {
		return nil, translate(err, "maintenance log", id)
	}

	s.cache.invalidate(ctx)
	return entry, nil
}

// Resolve marks a log resolved. When it was the vehicle's last open log
// the vehicle returns from IN_SHOP to AVAILABLE. Resolving twice is a no-op.
func (s *MaintenanceService) Resolve(ctx context.Context, id string) (*domain.MaintenanceLog, error) {
	var entry *domain.MaintenanceLog

	err := s.store.WithinTx(ctx, func(r repository.Repos) error {
		var err error
		entry, err = s.lockLog(ctx, r, id)
		if err != nil {
			return err
		}
		if entry.IsResolved {
			return nil
		}

		entry.IsResolved = true
		if err := r.Maintenance.Update(ctx, entry); err != nil {
			return translate(err, "maintenance log", id)
		}
		return s.releaseIfClear(ctx, r, entry.VehicleID)
	})
	if err != nil {
		return nil, err
	}

	s.cache.invalidate(ctx)
	return entry, nil
}

// Delete removes a log and re-checks the vehicle like Resolve does.
func (s *MaintenanceService) Delete(ctx context.Context, id string) error {
	err := s.store.WithinTx(ctx, func(r repository.Repos) error {
		entry, err := s.lockLog(ctx, r, id)
		if err != nil {
			return err
		}
		if err := r.Maintenance.Delete(ctx, id); err != nil {
			return translate(err, "maintenance log", id)
		}
		return s.releaseIfClear(ctx, r, entry.VehicleID)
	})
	if err != nil {
		return err
	}

	s.cache.invalidate(ctx)
	return nil
}

// Get retrieves a maintenance log by ID.
func (s *MaintenanceService) Get(ctx context.Context, id string) (*domain.MaintenanceLog, error) {
	entry, err := s.store.Repos().Maintenance.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "maintenance log", id)
	}
	return entry, nil
}

// List returns maintenance logs, most recent first.
func (s *MaintenanceService) List(ctx context.Context, filter repository.LogFilter) ([]*domain.MaintenanceLog, error) {
	return s.store.Repos().Maintenance.Find(ctx, filter)
}

// lockLog loads a log after locking its vehicle, so every maintenance
// write takes the vehicle row first.
func (s *MaintenanceService) lockLog(ctx context.Context, r repository.Repos, id string) (*domain.MaintenanceLog, error) {
	entry, err := r.Maintenance.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "maintenance log", id)
	}
	if _, err := r.Vehicles.GetForUpdate(ctx, entry.VehicleID); err != nil {
		return nil, translate(err, "vehicle", entry.VehicleID)
	}
	// Re-read under the vehicle lock.
	entry, err = r.Maintenance.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "maintenance log", id)
	}
	return entry, nil
}

// releaseIfClear takes an IN_SHOP vehicle out of the shop once no open
// logs remain. A vehicle whose trip is still dispatched goes back to
// ON_TRIP so no second trip can claim it. Any other status is left alone.
func (s *MaintenanceService) releaseIfClear(ctx context.Context, r repository.Repos, vehicleID string) error {
	vehicle, err := r.Vehicles.GetForUpdate(ctx, vehicleID)
	if err != nil {
		return translate(err, "vehicle", vehicleID)
	}
	if vehicle.Status != domain.VehicleStatusInShop {
		return nil
	}

	next, err := settledStatus(ctx, r, vehicleID)
	if err != nil {
		return err
	}
	if next == domain.VehicleStatusInShop {
		return nil
	}

	if err := setVehicleStatus(ctx, r, vehicleID, domain.VehicleStatusInShop, next); err != nil {
		return err
	}

	s.logger.WithFields(log.Fields{
		"vehicle_id": vehicleID,
		"to":         next,
	}).Info("vehicle returned from shop")
	return nil
}
