package domain

import "time"

// DriverStatus represents the current duty status of a driver.
type DriverStatus string

const (
	DriverStatusOnDuty    DriverStatus = "ON_DUTY"
	DriverStatusOffDuty   DriverStatus = "OFF_DUTY"
	DriverStatusSuspended DriverStatus = "SUSPENDED"
)

// Valid reports whether s is a known driver status.
func (s DriverStatus) Valid() bool {
	switch s {
	case DriverStatusOnDuty, DriverStatusOffDuty, DriverStatusSuspended:
		return true
	}
	return false
}

// DefaultSafetyScore is assigned to newly registered drivers.
const DefaultSafetyScore = 100

// Driver represents a driver in the system.
type Driver struct {
	ID              string
	Name            string
	Phone           string
	LicenseNumber   string
	LicenseExpiry   time.Time
	LicenseCategory VehicleType
	Status          DriverStatus
	SafetyScore     float64 // 0-100
	TripCount       int
	CompletedTrips  int
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsLicenseExpired reports whether the license has expired at now.
func (d *Driver) IsLicenseExpired(now time.Time) bool {
	return now.After(d.LicenseExpiry)
}

// CompletionRate is the rounded percentage of completed trips over tripCount.
// tripCount is bumped on dispatch and again on completion/cancellation, so a
// driver who completes every trip reports 50.
func (d *Driver) CompletionRate() int {
	if d.TripCount == 0 {
		return 0
	}
	return int(RoundHalfUp(float64(d.CompletedTrips) / float64(d.TripCount) * 100))
}
