package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"fleetflow/internal/domain"
	"fleetflow/internal/redis"
	"fleetflow/internal/repository"
)

// RegistryService owns vehicles and drivers and their individual status rules.
type RegistryService struct {
	store  repository.Store
	cache  reportCache
	logger log.FieldLogger
}

// NewRegistryService creates a new RegistryService. cache may be nil.
func NewRegistryService(store repository.Store, cache redis.CacheStoreInterface, logger log.FieldLogger) *RegistryService {
	return &RegistryService{
		store:  store,
		cache:  reportCache{store: cache, logger: logger},
		logger: logger,
	}
}

// CreateVehicleRequest contains the parameters for registering a vehicle.
type CreateVehicleRequest struct {
	Name            string
	Model           string
	LicensePlate    string
	Type            domain.VehicleType
	MaxCapacity     float64
	Odometer        float64
	Region          string
	AcquisitionCost float64
}

// CreateVehicle registers a vehicle as AVAILABLE.
func (s *RegistryService) CreateVehicle(ctx context.Context, req CreateVehicleRequest) (*domain.Vehicle, error) {
	plate := normalizePlate(req.LicensePlate)

	switch {
	case strings.TrimSpace(req.Name) == "":
		return nil, invalid("vehicle name is required")
	case plate == "":
		return nil, invalid("license plate is required")
	case !req.Type.Valid():
		return nil, invalid("unknown vehicle type %q", req.Type)
	case req.MaxCapacity < 0:
		return nil, invalid("max capacity must not be negative (got %v)", req.MaxCapacity)
	case req.Odometer < 0:
		return nil, invalid("odometer must not be negative (got %v)", req.Odometer)
	case req.AcquisitionCost < 0:
		return nil, invalid("acquisition cost must not be negative (got %v)", req.AcquisitionCost)
	}

	now := time.Now()
	vehicle := &domain.Vehicle{
		ID:              uuid.New().String(),
		Name:            strings.TrimSpace(req.Name),
		Model:           strings.TrimSpace(req.Model),
		LicensePlate:    plate,
		Type:            req.Type,
		MaxCapacity:     req.MaxCapacity,
		Odometer:        req.Odometer,
		Status:          domain.VehicleStatusAvailable,
		Region:          strings.TrimSpace(req.Region),
		AcquisitionCost: req.AcquisitionCost,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.Repos().Vehicles.Create(ctx, vehicle); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("license plate %s is already registered", plate)
		}
		return nil, translate(err, "vehicle", vehicle.ID)
	}

	s.cache.invalidate(ctx)
	return vehicle, nil
}

// GetVehicle retrieves a vehicle by ID.
func (s *RegistryService) GetVehicle(ctx context.Context, id string) (*domain.Vehicle, error) {
	vehicle, err := s.store.Repos().Vehicles.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "vehicle", id)
	}
	return vehicle, nil
}

// ListVehicles returns vehicles matching the filter.
func (s *RegistryService) ListVehicles(ctx context.Context, filter repository.VehicleFilter) ([]*domain.Vehicle, error) {
	if err := validateVehicleFilter(filter); err != nil {
		return nil, err
	}
	return s.store.Repos().Vehicles.Find(ctx, filter)
}

// UpdateVehicleRequest carries the profile fields to change. Nil fields are left alone.
type UpdateVehicleRequest struct {
	Name            *string
	Model           *string
	LicensePlate    *string
	Type            *domain.VehicleType
	MaxCapacity     *float64
	Odometer        *float64
	Region          *string
	AcquisitionCost *float64
}

// UpdateVehicle changes profile fields. Status is not writable here.
func (s *RegistryService) UpdateVehicle(ctx context.Context, id string, req UpdateVehicleRequest) (*domain.Vehicle, error) {
	vehicles := s.store.Repos().Vehicles

	vehicle, err := vehicles.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "vehicle", id)
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, invalid("vehicle name is required")
		}
		vehicle.Name = strings.TrimSpace(*req.Name)
	}
	if req.Model != nil {
		vehicle.Model = strings.TrimSpace(*req.Model)
	}
	if req.LicensePlate != nil {
		plate := normalizePlate(*req.LicensePlate)
		if plate == "" {
			return nil, invalid("license plate is required")
		}
		vehicle.LicensePlate = plate
	}
	if req.Type != nil {
		if !req.Type.Valid() {
			return nil, invalid("unknown vehicle type %q", *req.Type)
		}
		vehicle.Type = *req.Type
	}
	if req.MaxCapacity != nil {
		if *req.MaxCapacity < 0 {
			return nil, invalid("max capacity must not be negative (got %v)", *req.MaxCapacity)
		}
		vehicle.MaxCapacity = *req.MaxCapacity
	}
	if req.Odometer != nil {
		if *req.Odometer < vehicle.Odometer {
			return nil, invalid("odometer cannot go back from %v to %v", vehicle.Odometer, *req.Odometer)
		}
		vehicle.AdvanceOdometer(*req.Odometer)
	}
	if req.Region != nil {
		vehicle.Region = strings.TrimSpace(*req.Region)
	}
	if req.AcquisitionCost != nil {
		if *req.AcquisitionCost < 0 {
			return nil, invalid("acquisition cost must not be negative (got %v)", *req.AcquisitionCost)
		}
		vehicle.AcquisitionCost = *req.AcquisitionCost
	}

	if err := vehicles.Update(ctx, vehicle); err != nil {
		return nil, translate(err, "vehicle", id)
	}

	s.cache.invalidate(ctx)
	return vehicle, nil
}

// DeleteVehicle removes a vehicle that is not on a trip.
func (s *RegistryService) DeleteVehicle(ctx context.Context, id string) error {
	err := s.store.WithinTx(ctx, func(r repository.Repos) error {
		vehicle, err := r.Vehicles.GetForUpdate(ctx, id)
		if err != nil {
			return translate(err, "vehicle", id)
		}
		if vehicle.Status == domain.VehicleStatusOnTrip {
			return invalidState("vehicle %s is %s and cannot be deleted", id, vehicle.Status)
		}
		return translate(r.Vehicles.Delete(ctx, id), "vehicle", id)
	})
	if err != nil {
		return err
	}

	s.cache.invalidate(ctx)
	return nil
}

// ToggleRetire retires a vehicle, or restores a retired one. A restored
// vehicle with open maintenance goes back IN_SHOP, otherwise AVAILABLE.
func (s *RegistryService) ToggleRetire(ctx context.Context, id string) (*domain.Vehicle, error) {
	var out *domain.Vehicle

	err := s.store.WithinTx(ctx, func(r repository.Repos) error {
		vehicle, err := r.Vehicles.GetForUpdate(ctx, id)
		if err != nil {
			return translate(err, "vehicle", id)
		}

		var next domain.VehicleStatus
		switch vehicle.Status {
		case domain.VehicleStatusOnTrip:
			return invalidState("vehicle %s is %s and cannot be retired", id, vehicle.Status)
		case domain.VehicleStatusRetired:
			next, err = settledStatus(ctx, r, id)
			if err != nil {
				return err
			}
		default:
			next = domain.VehicleStatusRetired
		}

		if err := setVehicleStatus(ctx, r, id, vehicle.Status, next); err != nil {
			return err
		}

		out, err = r.Vehicles.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(log.Fields{
		"vehicle_id": id,
		"status":     out.Status,
	}).Info("vehicle retirement toggled")

	s.cache.invalidate(ctx)
	return out, nil
}

// settledStatus is the status a vehicle returns to when it leaves the shop
// or retirement: IN_SHOP while logs are open, ON_TRIP while a dispatched
// trip still holds it, AVAILABLE otherwise.
func settledStatus(ctx context.Context, r repository.Repos, id string) (domain.VehicleStatus, error) {
	open, err := r.Maintenance.CountUnresolved(ctx, id)
	if err != nil {
		return "", err
	}
	if open > 0 {
		return domain.VehicleStatusInShop, nil
	}

	dispatched, err := r.Trips.Count(ctx, repository.TripFilter{VehicleID: id, Status: domain.TripStatusDispatched})
	if err != nil {
		return "", err
	}
	if dispatched > 0 {
		return domain.VehicleStatusOnTrip, nil
	}
	return domain.VehicleStatusAvailable, nil
}

// setVehicleStatus is the only path that changes a vehicle's status outside
// the trip lifecycle. It is used by maintenance coupling and retirement.
func setVehicleStatus(ctx context.Context, r repository.Repos, id string, expected, next domain.VehicleStatus) error {
	if !next.Valid() {
		return invalid("unknown vehicle status %q", next)
	}
	if expected == next {
		return nil
	}
	return translate(r.Vehicles.CompareAndSetStatus(ctx, id, expected, next), "vehicle", id)
}

// CreateDriverRequest contains the parameters for registering a driver.
type CreateDriverRequest struct {
	Name            string
	Phone           string
	LicenseNumber   string
	LicenseExpiry   time.Time
	LicenseCategory domain.VehicleType
	SafetyScore     *float64
}

// CreateDriver registers a driver as OFF_DUTY.
func (s *RegistryService) CreateDriver(ctx context.Context, req CreateDriverRequest) (*domain.Driver, error) {
	license := strings.TrimSpace(req.LicenseNumber)
	score := float64(domain.DefaultSafetyScore)
	if req.SafetyScore != nil {
		score = *req.SafetyScore
	}

	switch {
	case strings.TrimSpace(req.Name) == "":
		return nil, invalid("driver name is required")
	case license == "":
		return nil, invalid("license number is required")
	case req.LicenseExpiry.IsZero():
		return nil, invalid("license expiry is required")
	case !req.LicenseCategory.Valid():
		return nil, invalid("unknown license category %q", req.LicenseCategory)
	case score < 0 || score > 100:
		return nil, invalid("safety score must be between 0 and 100 (got %v)", score)
	}

	now := time.Now()
	driver := &domain.Driver{
		ID:              uuid.New().String(),
		Name:            strings.TrimSpace(req.Name),
		Phone:           strings.TrimSpace(req.Phone),
		LicenseNumber:   license,
		LicenseExpiry:   req.LicenseExpiry,
		LicenseCategory: req.LicenseCategory,
		Status:          domain.DriverStatusOffDuty,
		SafetyScore:     score,
		Version:         1,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.store.Repos().Drivers.Create(ctx, driver); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, conflict("license number %s is already registered", license)
		}
		return nil, translate(err, "driver", driver.ID)
	}

	s.cache.invalidate(ctx)
	return driver, nil
}

// GetDriver retrieves a driver by ID.
func (s *RegistryService) GetDriver(ctx context.Context, id string) (*domain.Driver, error) {
	driver, err := s.store.Repos().Drivers.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "driver", id)
	}
	return driver, nil
}

// ListDrivers returns all drivers.
func (s *RegistryService) ListDrivers(ctx context.Context) ([]*domain.Driver, error) {
	return s.store.Repos().Drivers.GetAll(ctx)
}

// UpdateDriverRequest carries the profile fields to change. Nil fields are left alone.
type UpdateDriverRequest struct {
	Name            *string
	Phone           *string
	LicenseNumber   *string
	LicenseExpiry   *time.Time
	LicenseCategory *domain.VehicleType
	SafetyScore     *float64
}

// UpdateDriver changes profile fields. Status and trip counters are not writable here.
func (s *RegistryService) UpdateDriver(ctx context.Context, id string, req UpdateDriverRequest) (*domain.Driver, error) {
	drivers := s.store.Repos().Drivers

	driver, err := drivers.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "driver", id)
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, invalid("driver name is required")
		}
		driver.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		driver.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.LicenseNumber != nil {
		license := strings.TrimSpace(*req.LicenseNumber)
		if license == "" {
			return nil, invalid("license number is required")
		}
		driver.LicenseNumber = license
	}
	if req.LicenseExpiry != nil {
		if req.LicenseExpiry.IsZero() {
			return nil, invalid("license expiry is required")
		}
		driver.LicenseExpiry = *req.LicenseExpiry
	}
	if req.LicenseCategory != nil {
		if !req.LicenseCategory.Valid() {
			return nil, invalid("unknown license category %q", *req.LicenseCategory)
		}
		driver.LicenseCategory = *req.LicenseCategory
	}
	if req.SafetyScore != nil {
		if *req.SafetyScore < 0 || *req.SafetyScore > 100 {
			return nil, invalid("safety score must be between 0 and 100 (got %v)", *req.SafetyScore)
		}
		driver.SafetyScore = *req.SafetyScore
	}

	if err := drivers.Update(ctx, driver); err != nil {
		return nil, translate(err, "driver", id)
	}

	s.cache.invalidate(ctx)
	return driver, nil
}

// SetDriverStatus changes a driver's duty status. A driver holding a
// dispatched trip cannot be moved off it here; the trip must end first.
func (s *RegistryService) SetDriverStatus(ctx context.Context, id string, status domain.DriverStatus) (*domain.Driver, error) {
	if !status.Valid() {
		return nil, invalid("unknown driver status %q", status)
	}

	var out *domain.Driver

	err := s.store.WithinTx(ctx, func(r repository.Repos) error {
		driver, err := r.Drivers.GetForUpdate(ctx, id)
		if err != nil {
			return translate(err, "driver", id)
		}

		if driver.Status == status {
			out = driver
			return nil
		}

		active, err := r.Trips.Count(ctx, repository.TripFilter{
			DriverID: id,
			Status:   domain.TripStatusDispatched,
		})
		if err != nil {
			return err
		}
		if active > 0 {
			return invalidState("driver %s is on a dispatched trip; complete or cancel it first", id)
		}

		if err := r.Drivers.CompareAndSetStatus(ctx, id, driver.Status, status); err != nil {
			return translate(err, "driver", id)
		}

		out, err = r.Drivers.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(log.Fields{
		"driver_id": id,
		"status":    out.Status,
	}).Info("driver status changed")

	s.cache.invalidate(ctx)
	return out, nil
}

// DeleteDriver removes a driver that is not on duty.
func (s *RegistryService) DeleteDriver(ctx context.Context, id string) error {
	err := s.store.WithinTx(ctx, func(r repository.Repos) error {
		driver, err := r.Drivers.GetForUpdate(ctx, id)
		if err != nil {
			return translate(err, "driver", id)
		}
		if driver.Status == domain.DriverStatusOnDuty {
			return invalidState("driver %s is %s and cannot be deleted", id, driver.Status)
		}
		return translate(r.Drivers.Delete(ctx, id), "driver", id)
	})
	if err != nil {
		return err
	}

	s.cache.invalidate(ctx)
	return nil
}

func normalizePlate(plate string) string {
	return strings.ToUpper(strings.TrimSpace(plate))
}

func validateVehicleFilter(filter repository.VehicleFilter) error {
	if filter.Type != "" && !filter.Type.Valid() {
		return invalid("unknown vehicle type %q", filter.Type)
	}
	if filter.Status != "" && !filter.Status.Valid() {
		return invalid("unknown vehicle status %q", filter.Status)
	}
	return nil
}
