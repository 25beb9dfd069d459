package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"fleetflow/internal/domain"
	"fleetflow/internal/events"
	"fleetflow/internal/redis"
	"fleetflow/internal/repository"
)

// DefaultClaimLockTTL bounds how long a dispatch may hold its vehicle and driver locks.
const DefaultClaimLockTTL = 10 * time.Second

// TripService runs the trip lifecycle. Every transition that touches a
// vehicle or driver is applied in one store transaction together with the
// trip itself.
type TripService struct {
	store     repository.Store
	locks     redis.LockStoreInterface
	lockTTL   time.Duration
	publisher events.Publisher
	cache     reportCache
	logger    log.FieldLogger
}

// NewTripService creates a new TripService. locks, publisher and cache may be nil.
func NewTripService(
	store repository.Store,
	locks redis.LockStoreInterface,
	lockTTL time.Duration,
	publisher events.Publisher,
	cache redis.CacheStoreInterface,
	logger log.FieldLogger,
) *TripService {
	if lockTTL <= 0 {
		lockTTL = DefaultClaimLockTTL
	}
	return &TripService{
		store:     store,
		locks:     locks,
		lockTTL:   lockTTL,
		publisher: publisher,
		cache:     reportCache{store: cache, logger: logger},
		logger:    logger,
	}
}

// CreateTripRequest contains the parameters for drafting a trip.
type CreateTripRequest struct {
	VehicleID     string
	DriverID      string
	CargoWeight   float64
	Origin        string
	Destination   string
	StartOdometer *float64
	Revenue       *float64
	Notes         string
}

// Create drafts a trip. The vehicle and driver are checked but not claimed.
func (s *TripService) Create(ctx context.Context, req CreateTripRequest) (*domain.Trip, error) {
	switch {
	case req.VehicleID == "":
		return nil, invalid("vehicle is required")
	case req.DriverID == "":
		return nil, invalid("driver is required")
	case strings.TrimSpace(req.Origin) == "":
		return nil, invalid("origin is required")
	case strings.TrimSpace(req.Destination) == "":
		return nil, invalid("destination is required")
	case req.CargoWeight < 0:
		return nil, invalid("cargo weight must not be negative (got %v)", req.CargoWeight)
	case req.StartOdometer != nil && *req.StartOdometer < 0:
		return nil, invalid("start odometer must not be negative (got %v)", *req.StartOdometer)
	case req.Revenue != nil && *req.Revenue < 0:
		return nil, invalid("revenue must not be negative (got %v)", *req.Revenue)
	}

	repos := s.store.Repos()

	vehicle, err := repos.Vehicles.GetByID(ctx, req.VehicleID)
	if err != nil {
		return nil, translate(err, "vehicle", req.VehicleID)
	}
	if vehicle.Status != domain.VehicleStatusAvailable {
		return nil, conflict("vehicle %s is not available (status: %s)", vehicle.ID, vehicle.Status)
	}
	if !vehicle.CanCarry(req.CargoWeight) {
		return nil, invalid("cargo weight %v kg exceeds vehicle max capacity %v kg", req.CargoWeight, vehicle.MaxCapacity)
	}

	driver, err := repos.Drivers.GetByID(ctx, req.DriverID)
	if err != nil {
		return nil, translate(err, "driver", req.DriverID)
	}
	if err := checkDriverEligible(driver, time.Now()); err != nil {
		return nil, err
	}
	if driver.Status == domain.DriverStatusOnDuty {
		return nil, invalid("driver %s is already on duty on another trip", driver.ID)
	}

	now := time.Now()
	trip := &domain.Trip{
		ID:            uuid.New().String(),
		VehicleID:     vehicle.ID,
		DriverID:      driver.ID,
		Origin:        strings.TrimSpace(req.Origin),
		Destination:   strings.TrimSpace(req.Destination),
		CargoWeight:   req.CargoWeight,
		Status:        domain.TripStatusDraft,
		StartOdometer: vehicle.Odometer,
		Notes:         req.Notes,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.StartOdometer != nil {
		trip.StartOdometer = *req.StartOdometer
	}
	if req.Revenue != nil {
		trip.Revenue = *req.Revenue
	}

	if err := repos.Trips.Create(ctx, trip); err != nil {
		return nil, translate(err, "trip", trip.ID)
	}

	s.committed(ctx, trip, events.TripCreated, "", domain.TripStatusDraft)
	return trip, nil
}

// Dispatch claims the trip's vehicle and driver and moves it to DISPATCHED.
// Eligibility is checked again against the locked rows, so a vehicle or
// driver that became unavailable after the draft was made is refused.
func (s *TripService) Dispatch(ctx context.Context, id string) (*domain.Trip, error) {
	draft, err := s.store.Repos().Trips.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "trip", id)
	}
	if !draft.Status.CanTransition(domain.TripStatusDispatched) {
		return nil, invalidTransition(draft, domain.TripStatusDispatched)
	}

	release, err := s.acquireClaimLocks(ctx, draft)
	if err != nil {
		return nil, err
	}
	defer release()

	var trip *domain.Trip

	err = s.store.WithinTx(ctx, func(r repository.Repos) error {
		var err error
		trip, err = r.Trips.GetForUpdate(ctx, id)
		if err != nil {
			return translate(err, "trip", id)
		}
		if !trip.Status.CanTransition(domain.TripStatusDispatched) {
			return invalidTransition(trip, domain.TripStatusDispatched)
		}

		vehicle, err := r.Vehicles.GetForUpdate(ctx, trip.VehicleID)
		if err != nil {
			return translate(err, "vehicle", trip.VehicleID)
		}
		driver, err := r.Drivers.GetForUpdate(ctx, trip.DriverID)
		if err != nil {
			return translate(err, "driver", trip.DriverID)
		}

		if vehicle.Status != domain.VehicleStatusAvailable {
			return conflict("vehicle %s is not available (status: %s)", vehicle.ID, vehicle.Status)
		}
		if !vehicle.CanCarry(trip.CargoWeight) {
			return invalid("cargo weight %v kg exceeds vehicle max capacity %v kg", trip.CargoWeight, vehicle.MaxCapacity)
		}
		if err := checkDriverEligible(driver, time.Now()); err != nil {
			return err
		}
		if driver.Status == domain.DriverStatusOnDuty {
			return conflict("driver %s is already on duty on another trip", driver.ID)
		}

		if err := r.Vehicles.CompareAndSetStatus(ctx, vehicle.ID, domain.VehicleStatusAvailable, domain.VehicleStatusOnTrip); err != nil {
			return claimLost(err, "vehicle", vehicle.ID)
		}
		if err := r.Drivers.CompareAndSetStatus(ctx, driver.ID, driver.Status, domain.DriverStatusOnDuty); err != nil {
			return claimLost(err, "driver", driver.ID)
		}
		if err := applyTripCounters(ctx, r, driver.ID, trip.Status, domain.TripStatusDispatched); err != nil {
			return err
		}

		trip.Status = domain.TripStatusDispatched
		trip.DispatchedAt = time.Now()
		return translate(r.Trips.Update(ctx, trip), "trip", id)
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			s.logger.WithFields(log.Fields{
				"trip_id":    id,
				"vehicle_id": draft.VehicleID,
				"driver_id":  draft.DriverID,
			}).WithError(err).Warn("dispatch lost claim")
		}
		return nil, err
	}

	s.committed(ctx, trip, events.TripDispatched, domain.TripStatusDraft, domain.TripStatusDispatched)
	return trip, nil
}

// CompleteTripRequest contains the parameters for completing a trip.
type CompleteTripRequest struct {
	EndOdometer *float64
	Revenue     *float64
}

// Complete finishes a dispatched trip, records its distance and releases
// the vehicle and driver.
func (s *TripService) Complete(ctx context.Context, id string, req CompleteTripRequest) (*domain.Trip, error) {
	if req.EndOdometer == nil {
		return nil, invalid("end odometer is required to complete a trip")
	}
	if *req.EndOdometer < 0 {
		return nil, invalid("end odometer must not be negative (got %v)", *req.EndOdometer)
	}
	if req.Revenue != nil && *req.Revenue < 0 {
		return nil, invalid("revenue must not be negative (got %v)", *req.Revenue)
	}

	var trip *domain.Trip

	err := s.store.WithinTx(ctx, func(r repository.Repos) error {
		var err error
		trip, err = r.Trips.GetForUpdate(ctx, id)
		if err != nil {
			return translate(err, "trip", id)
		}
		if !trip.Status.CanTransition(domain.TripStatusCompleted) {
			return invalidTransition(trip, domain.TripStatusCompleted)
		}

		end := *req.EndOdometer
		if err := s.releaseClaims(ctx, r, trip, &end); err != nil {
			return err
		}
		if err := applyTripCounters(ctx, r, trip.DriverID, trip.Status, domain.TripStatusCompleted); err != nil {
			return err
		}

		trip.Status = domain.TripStatusCompleted
		trip.EndOdometer = end
		trip.Distance = domain.TripDistance(trip.StartOdometer, end)
		if req.Revenue != nil {
			trip.Revenue = *req.Revenue
		}
		trip.CompletedAt = time.Now()
		return translate(r.Trips.Update(ctx, trip), "trip", id)
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, trip, events.TripCompleted, domain.TripStatusDispatched, domain.TripStatusCompleted)
	return trip, nil
}

// Cancel cancels a draft or dispatched trip. A dispatched trip releases
// its vehicle and driver.
func (s *TripService) Cancel(ctx context.Context, id string) (*domain.Trip, error) {
	var (
		trip *domain.Trip
		from domain.TripStatus
	)

	err := s.store.WithinTx(ctx, func(r repository.Repos) error {
		var err error
		trip, err = r.Trips.GetForUpdate(ctx, id)
		if err != nil {
			return translate(err, "trip", id)
		}
		if !trip.Status.CanTransition(domain.TripStatusCancelled) {
			return invalidTransition(trip, domain.TripStatusCancelled)
		}

		from = trip.Status
		if from.HoldsClaim() {
			if err := s.releaseClaims(ctx, r, trip, nil); err != nil {
				return err
			}
		}
		if err := applyTripCounters(ctx, r, trip.DriverID, from, domain.TripStatusCancelled); err != nil {
			return err
		}

		trip.Status = domain.TripStatusCancelled
		trip.CancelledAt = time.Now()
		return translate(r.Trips.Update(ctx, trip), "trip", id)
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, trip, events.TripCancelled, from, domain.TripStatusCancelled)
	return trip, nil
}

// Delete removes a trip that holds no claim (DRAFT or CANCELLED).
func (s *TripService) Delete(ctx context.Context, id string) error {
	var trip *domain.Trip

	err := s.store.WithinTx(ctx, func(r repository.Repos) error {
		var err error
		trip, err = r.Trips.GetForUpdate(ctx, id)
		if err != nil {
			return translate(err, "trip", id)
		}
		if !trip.Status.Deletable() {
			return invalidState("trip %s is %s; only DRAFT or CANCELLED trips can be deleted", id, trip.Status)
		}
		return translate(r.Trips.Delete(ctx, id), "trip", id)
	})
	if err != nil {
		return err
	}

	s.committed(ctx, trip, events.TripDeleted, trip.Status, "")
	return nil
}

// Get retrieves a trip by ID.
func (s *TripService) Get(ctx context.Context, id string) (*domain.Trip, error) {
	trip, err := s.store.Repos().Trips.GetByID(ctx, id)
	if err != nil {
		return nil, translate(err, "trip", id)
	}
	return trip, nil
}

// List returns trips matching the filter, newest first.
func (s *TripService) List(ctx context.Context, filter repository.TripFilter) ([]*domain.Trip, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, invalid("unknown trip status %q", filter.Status)
	}
	return s.store.Repos().Trips.Find(ctx, filter)
}

// releaseClaims frees the vehicle and driver of a dispatched trip. A
// vehicle that was moved IN_SHOP or RETIRED while the trip ran keeps that
// status. endOdometer, when set, advances the vehicle's odometer.
func (s *TripService) releaseClaims(ctx context.Context, r repository.Repos, trip *domain.Trip, endOdometer *float64) error {
	vehicle, err := r.Vehicles.GetForUpdate(ctx, trip.VehicleID)
	if err != nil {
		return translate(err, "vehicle", trip.VehicleID)
	}
	driver, err := r.Drivers.GetForUpdate(ctx, trip.DriverID)
	if err != nil {
		return translate(err, "driver", trip.DriverID)
	}

	if vehicle.Status == domain.VehicleStatusOnTrip {
		vehicle.Status = domain.VehicleStatusAvailable
	} else {
		s.logger.WithFields(log.Fields{
			"trip_id":    trip.ID,
			"vehicle_id": vehicle.ID,
			"status":     vehicle.Status,
		}).Warn("vehicle left its trip claim early; keeping current status")
	}
	if endOdometer != nil {
		vehicle.AdvanceOdometer(*endOdometer)
	}
	if err := r.Vehicles.Update(ctx, vehicle); err != nil {
		return claimLost(err, "vehicle", vehicle.ID)
	}

	if driver.Status == domain.DriverStatusOnDuty {
		if err := r.Drivers.CompareAndSetStatus(ctx, driver.ID, domain.DriverStatusOnDuty, domain.DriverStatusOffDuty); err != nil {
			return claimLost(err, "driver", driver.ID)
		}
	}
	return nil
}

// acquireClaimLocks serializes dispatches that target the same vehicle or
// driver. The returned func releases whatever was taken.
func (s *TripService) acquireClaimLocks(ctx context.Context, trip *domain.Trip) (func(), error) {
	if s.locks == nil {
		return func() {}, nil
	}

	ok, err := s.locks.AcquireVehicleLock(ctx, trip.VehicleID, trip.ID, s.lockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, conflict("vehicle %s is being claimed by another dispatch", trip.VehicleID)
	}

	ok, err = s.locks.AcquireDriverLock(ctx, trip.DriverID, trip.ID, s.lockTTL)
	if err != nil || !ok {
		s.releaseVehicleLock(ctx, trip)
		if err != nil {
			return nil, err
		}
		return nil, conflict("driver %s is being claimed by another dispatch", trip.DriverID)
	}

	return func() {
		s.releaseVehicleLock(ctx, trip)
		if err := s.locks.ReleaseDriverLock(context.WithoutCancel(ctx), trip.DriverID, trip.ID); err != nil {
			s.logger.WithError(err).WithField("driver_id", trip.DriverID).Warn("release driver lock")
		}
	}, nil
}

// releaseVehicleLock still runs when the request context is already cancelled.
func (s *TripService) releaseVehicleLock(ctx context.Context, trip *domain.Trip) {
	if err := s.locks.ReleaseVehicleLock(context.WithoutCancel(ctx), trip.VehicleID, trip.ID); err != nil {
		s.logger.WithError(err).WithField("vehicle_id", trip.VehicleID).Warn("release vehicle lock")
	}
}

// committed runs the after-commit side effects of a transition.
func (s *TripService) committed(ctx context.Context, trip *domain.Trip, typ events.Type, from, to domain.TripStatus) {
	s.logger.WithFields(log.Fields{
		"trip_id":    trip.ID,
		"vehicle_id": trip.VehicleID,
		"driver_id":  trip.DriverID,
		"from":       from,
		"to":         to,
	}).Info("trip transition committed")

	s.cache.invalidate(ctx)

	if s.publisher == nil {
		return
	}
	event := events.TripEvent{
		Type:       typ,
		TripID:     trip.ID,
		VehicleID:  trip.VehicleID,
		DriverID:   trip.DriverID,
		From:       from,
		To:         to,
		Distance:   trip.Distance,
		OccurredAt: time.Now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WithError(err).WithField("trip_id", trip.ID).Warn("publish trip event")
	}
}

func checkDriverEligible(driver *domain.Driver, now time.Time) error {
	if driver.Status == domain.DriverStatusSuspended {
		return invalid("driver %s is suspended and cannot be assigned", driver.ID)
	}
	if driver.IsLicenseExpired(now) {
		return invalid("driver %s license expired on %s", driver.ID, driver.LicenseExpiry.Format("2006-01-02"))
	}
	return nil
}

func invalidTransition(trip *domain.Trip, to domain.TripStatus) error {
	return newError(ErrInvalidTransition, "trip %s cannot move from %s to %s", trip.ID, trip.Status, to)
}

// claimLost reports a status compare-and-swap that lost to a concurrent writer.
func claimLost(err error, entity, id string) error {
	if errors.Is(err, repository.ErrStaleWrite) {
		return conflict("%s %s was claimed concurrently", entity, id)
	}
	return translate(err, entity, id)
}
