package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"fleetflow/internal/domain"
	"fleetflow/internal/redis"
	"fleetflow/internal/repository"
)

// FuelService keeps the fuel ledger.
type FuelService struct {
	store  repository.Store
	cache  reportCache
	logger log.FieldLogger
}

// NewFuelService creates a new FuelService. cache may be nil.
func NewFuelService(store repository.Store, cache redis.CacheStoreInterface, logger log.FieldLogger) *FuelService {
	return &FuelService{
		store:  store,
		cache:  reportCache{store: cache, logger: logger},
		logger: logger,
	}
}

// CreateFuelRequest contains the parameters for a fuel log.
type CreateFuelRequest struct {
	VehicleID    string
	TripID       string
	Liters       float64
	CostPerLiter float64
	Date         time.Time
	Odometer     float64
}

// Create records a refuelling. The total cost is computed here.
func (s *FuelService) Create(ctx context.Context, req CreateFuelRequest) (*domain.FuelLog, error) {
	switch {
	case req.VehicleID == "":
		return nil, invalid("vehicle is required")
	case req.Liters <= 0:
		return nil, invalid("liters must be positive (got %v)", req.Liters)
	case req.CostPerLiter < 0:
		return nil, invalid("cost per liter must not be negative (got %v)", req.CostPerLiter)
	case req.Odometer < 0:
		return nil, invalid("odometer must not be negative (got %v)", req.Odometer)
	}

	repos := s.store.Repos()
	if _, err := repos.Vehicles.GetByID(ctx, req.VehicleID); err != nil {
		return nil, translate(err, "vehicle", req.VehicleID)
	}
	if err := s.checkTrip(ctx, repos, req.VehicleID, req.TripID); err != nil {
		return nil, err
	}

	now := time.Now()
	entry := &domain.FuelLog{
		ID:           uuid.New().String(),
		VehicleID:    req.VehicleID,
		TripID:       req.TripID,
		Liters:       req.Liters,
		CostPerLiter: req.CostPerLiter,
		Date:         req.Date,
		Odometer:     req.Odometer,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if entry.Date.IsZero() {
		entry.Date = now
	}
	entry.ComputeTotal()

	if err := repos.Fuel.Create(ctx, entry); err != nil {
		return nil, translate(err, "fuel log", entry.ID)
	}

	s.logger.WithFields(log.Fields{
		"log_id":     entry.ID,
		"vehicle_id": entry.VehicleID,
		"total_cost": entry.TotalCost,
	}).Info("fuel logged")

	s.cache.invalidate(ctx)
	return entry, nil
}

// UpdateFuelRequest carries the fields to change. Nil fields are left
// alone; an empty TripID detaches the log from its trip.
type UpdateFuelRequest struct {
	TripID       *string
	Liters       *float64
	CostPerLiter *float64
	Date         *time.Time
	Odometer     *float64
}

// Update changes a fuel log and recomputes its total cost.
func (s *FuelService) Update(ctx context.Context, id string, req UpdateFuelRequest) (*domain.FuelLog, error) {
	repos := s.store.Repos()

	entry, err := repos.Fuel.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "fuel log", id)
	}

	if req.TripID != nil {
		if err := s.checkTrip(ctx, repos, entry.VehicleID, *req.TripID); err != nil {
			return nil, err
		}
		entry.TripID = *req.TripID
	}
	if req.Liters != nil {
		if *req.Liters <= 0 {
			return nil, invalid("liters must be positive (got %v)", *req.Liters)
		}
		entry.Liters = *req.Liters
	}
	if req.CostPerLiter != nil {
		if *req.CostPerLiter < 0 {
			return nil, invalid("cost per liter must not be negative (got %v)", *req.CostPerLiter)
		}
		entry.CostPerLiter = *req.CostPerLiter
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
	entry.ComputeTotal()

	if err := repos.Fuel.Update(ctx, entry); err != nil {
		return nil, translate(err, "fuel log", id)
	}

	s.cache.invalidate(ctx)
	return entry, nil
}

// Delete removes a fuel log.
func (s *FuelService) Delete(ctx context.Context, id string) error {
	if err := s.store.Repos().Fuel.Delete(ctx, id); err != nil {
		return translate(err, "fuel log", id)
	}
	s.cache.invalidate(ctx)
	return nil
}

// Get retrieves a fuel log by ID.
func (s *FuelService) Get(ctx context.Context, id string) (*domain.FuelLog, error) {
	entry, err := s.store.Repos().Fuel.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "fuel log", id)
	}
	return entry, nil
}

// List returns fuel logs by vehicle and/or trip, most recent first.
func (s *FuelService) List(ctx context.Context, filter repository.LogFilter) ([]*domain.FuelLog, error) {
	return s.store.Repos().Fuel.Find(ctx, filter)
}

// checkTrip verifies that an optional trip exists and was driven by the vehicle.
func (s *FuelService) checkTrip(ctx context.Context, repos repository.Repos, vehicleID, tripID string) error {
	if tripID == "" {
		return nil
	}
	trip, err := repos.Trips.GetByID(ctx, tripID)
	if err != nil {
		return translate(err, "trip", tripID)
	}
	if trip.VehicleID != vehicleID {
		return invalid("trip %s was not driven by vehicle %s", tripID, vehicleID)
	}
	return nil
}
