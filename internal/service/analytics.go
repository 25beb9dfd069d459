package service

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"fleetflow/internal/domain"
	"fleetflow/internal/redis"
	"fleetflow/internal/repository"
)

// Report names used as cache keys.
const (
	reportDashboard    = "dashboard"
	reportVehicleCosts = "vehicle-costs"
	reportDriverStats  = "driver-stats"
)

// AnalyticsService derives fleet KPIs. It only reads.
type AnalyticsService struct {
	store  repository.Store
	cache  reportCache
	logger log.FieldLogger
}

// NewAnalyticsService creates a new AnalyticsService. cache may be nil.
func NewAnalyticsService(store repository.Store, cache redis.CacheStoreInterface, logger log.FieldLogger) *AnalyticsService {
	return &AnalyticsService{
		store:  store,
		cache:  reportCache{store: cache, logger: logger},
		logger: logger,
	}
}

// DashboardFilter narrows the dashboard to a vehicle type and/or status.
type DashboardFilter struct {
	VehicleType domain.VehicleType
	Status      domain.VehicleStatus
}

// Dashboard holds fleet-wide KPIs.
type Dashboard struct {
	ActiveFleet       int `json:"activeFleet"`
	MaintenanceAlerts int `json:"maintenanceAlerts"`
	RetiredVehicles   int `json:"retiredVehicles"`
	AvailableVehicles int `json:"availableVehicles"`
	UtilizationRate   int `json:"utilizationRate"`
	PendingCargo      int `json:"pendingCargo"`
	TotalVehicles     int `json:"totalVehicles"`
	TotalDrivers      int `json:"totalDrivers"`
	SuspendedDrivers  int `json:"suspendedDrivers"`
}

// VehicleCost is the operating cost and return of one vehicle.
type VehicleCost struct {
	VehicleID            string               `json:"vehicleId"`
	Name                 string               `json:"name"`
	LicensePlate         string               `json:"licensePlate"`
	Type                 domain.VehicleType   `json:"type"`
	Status               domain.VehicleStatus `json:"status"`
	AcquisitionCost      float64              `json:"acquisitionCost"`
	FuelCost             float64              `json:"fuelCost"`
	MaintenanceCost      float64              `json:"maintenanceCost"`
	TotalOperationalCost float64              `json:"totalOperationalCost"`
	TotalDistance        float64              `json:"totalDistance"`
	TotalRevenue         float64              `json:"totalRevenue"`
	TotalLiters          float64              `json:"totalLiters"`
	FuelEfficiency       float64              `json:"fuelEfficiency"`
	ROI                  float64              `json:"roi"`
}

// DriverStats summarizes a driver's record and compliance.
type DriverStats struct {
	DriverID         string              `json:"driverId"`
	Name             string              `json:"name"`
	Status           domain.DriverStatus `json:"status"`
	LicenseExpiry    time.Time           `json:"licenseExpiry"`
	IsLicenseExpired bool                `json:"isLicenseExpired"`
	SafetyScore      float64             `json:"safetyScore"`
	TripCount        int                 `json:"tripCount"`
	CompletedTrips   int                 `json:"completedTrips"`
	CompletionRate   int                 `json:"completionRate"`
}

// Dashboard computes the fleet KPIs. A status filter zeroes every bucket
// other than its own.
func (s *AnalyticsService) Dashboard(ctx context.Context, filter DashboardFilter) (*Dashboard, error) {
	if err := validateVehicleFilter(repository.VehicleFilter{Type: filter.VehicleType, Status: filter.Status}); err != nil {
		return nil, err
	}

	params := fmt.Sprintf("type=%s&status=%s", filter.VehicleType, filter.Status)
	var cached Dashboard
	slot, hit := s.cache.get(ctx, reportDashboard, params, &cached)
	if hit {
		return &cached, nil
	}

	repos := s.store.Repos()

	vehicles, err := repos.Vehicles.Find(ctx, repository.VehicleFilter{Type: filter.VehicleType, Status: filter.Status})
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.VehicleStatus]int)
	ids := make([]string, 0, len(vehicles))
	for _, v := range vehicles {
		counts[v.Status]++
		ids = append(ids, v.ID)
	}

	pending, err := repos.Trips.Count(ctx, repository.TripFilter{
		Status:     domain.TripStatusDraft,
		VehicleIDs: ids,
	})
	if err != nil {
		return nil, err
	}

	drivers, err := repos.Drivers.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	suspended := 0
	for _, d := range drivers {
		if d.Status == domain.DriverStatusSuspended {
			suspended++
		}
	}

	d := computeDashboard(len(vehicles), counts[domain.VehicleStatusOnTrip], counts[domain.VehicleStatusInShop], counts[domain.VehicleStatusRetired])
	d.PendingCargo = pending
	d.TotalDrivers = len(drivers)
	d.SuspendedDrivers = suspended

	s.cache.set(ctx, slot, reportDashboard, params, d)
	return &d, nil
}

// computeDashboard derives the vehicle KPIs from bucket counts. Available
// counts every vehicle that is neither in the shop nor retired, including
// those on a trip.
func computeDashboard(total, onTrip, inShop, retired int) Dashboard {
	available := total - inShop - retired

	utilization := 0
	if available > 0 {
		utilization = int(domain.RoundHalfUp(float64(onTrip) / float64(available+onTrip) * 100))
	}

	return Dashboard{
		ActiveFleet:       onTrip,
		MaintenanceAlerts: inShop,
		RetiredVehicles:   retired,
		AvailableVehicles: available,
		UtilizationRate:   utilization,
		TotalVehicles:     total,
	}
}

// VehicleCosts computes cost, efficiency and ROI for every vehicle.
func (s *AnalyticsService) VehicleCosts(ctx context.Context) ([]VehicleCost, error) {
	var cached []VehicleCost
	slot, hit := s.cache.get(ctx, reportVehicleCosts, "", &cached)
	if hit {
		return cached, nil
	}

	repos := s.store.Repos()

	vehicles, err := repos.Vehicles.Find(ctx, repository.VehicleFilter{})
	if err != nil {
		return nil, err
	}

	costs := make([]VehicleCost, 0, len(vehicles))
	for _, v := range vehicles {
		fuel, err := repos.Fuel.Find(ctx, repository.LogFilter{VehicleID: v.ID})
		if err != nil {
			return nil, err
		}
		maintenance, err := repos.Maintenance.Find(ctx, repository.LogFilter{VehicleID: v.ID})
		if err != nil {
			return nil, err
		}
		trips, err := repos.Trips.Find(ctx, repository.TripFilter{VehicleID: v.ID, Status: domain.TripStatusCompleted})
		if err != nil {
			return nil, err
		}
		costs = append(costs, computeVehicleCost(v, fuel, maintenance, trips))
	}

	s.cache.set(ctx, slot, reportVehicleCosts, "", costs)
	return costs, nil
}

func computeVehicleCost(v *domain.Vehicle, fuel []*domain.FuelLog, maintenance []*domain.MaintenanceLog, completed []*domain.Trip) VehicleCost {
	var fuelCost, liters, maintenanceCost, distance, revenue float64
	for _, f := range fuel {
		fuelCost += f.TotalCost
		liters += f.Liters
	}
	for _, m := range maintenance {
		maintenanceCost += m.Cost
	}
	for _, t := range completed {
		distance += t.Distance
		revenue += t.Revenue
	}
	operational := fuelCost + maintenanceCost

	var efficiency, roi float64
	if liters > 0 {
		efficiency = domain.Round2(distance / liters)
	}
	if v.AcquisitionCost > 0 {
		roi = domain.Round2((revenue - operational) / v.AcquisitionCost * 100)
	}

	return VehicleCost{
		VehicleID:            v.ID,
		Name:                 v.Name,
		LicensePlate:         v.LicensePlate,
		Type:                 v.Type,
		Status:               v.Status,
		AcquisitionCost:      v.AcquisitionCost,
		FuelCost:             domain.Round2(fuelCost),
		MaintenanceCost:      domain.Round2(maintenanceCost),
		TotalOperationalCost: domain.Round2(operational),
		TotalDistance:        distance,
		TotalRevenue:         domain.Round2(revenue),
		TotalLiters:          domain.Round2(liters),
		FuelEfficiency:       efficiency,
		ROI:                  roi,
	}
}

// DriverStats summarizes every driver.
func (s *AnalyticsService) DriverStats(ctx context.Context) ([]DriverStats, error) {
	var cached []DriverStats
	slot, hit := s.cache.get(ctx, reportDriverStats, "", &cached)
	if hit {
		return cached, nil
	}

	drivers, err := s.store.Repos().Drivers.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	stats := make([]DriverStats, 0, len(drivers))
	for _, d := range drivers {
		stats = append(stats, DriverStats{
			DriverID:         d.ID,
			Name:             d.Name,
			Status:           d.Status,
			LicenseExpiry:    d.LicenseExpiry,
			IsLicenseExpired: d.IsLicenseExpired(now),
			SafetyScore:      d.SafetyScore,
			TripCount:        d.TripCount,
			CompletedTrips:   d.CompletedTrips,
			CompletionRate:   d.CompletionRate(),
		})
	}

	s.cache.set(ctx, slot, reportDriverStats, "", stats)
	return stats, nil
}
