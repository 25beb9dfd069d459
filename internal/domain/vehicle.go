package domain

import "time"

// VehicleType is the body class of a vehicle. Drivers hold a license for one class.
type VehicleType string

const (
	VehicleTypeTruck VehicleType = "TRUCK"
	VehicleTypeVan   VehicleType = "VAN"
	VehicleTypeCar   VehicleType = "CAR"
	VehicleTypeBike  VehicleType = "BIKE"
)

// Valid reports whether t is a known vehicle type.
func (t VehicleType) Valid() bool {
	switch t {
	case VehicleTypeTruck, VehicleTypeVan, VehicleTypeCar, VehicleTypeBike:
		return true
	}
	return false
}

// VehicleStatus represents the current availability of a vehicle.
type VehicleStatus string

const (
	VehicleStatusAvailable VehicleStatus = "AVAILABLE"
	VehicleStatusOnTrip    VehicleStatus = "ON_TRIP"
	VehicleStatusInShop    VehicleStatus = "IN_SHOP"
	VehicleStatusRetired   VehicleStatus = "RETIRED"
)

// Valid reports whether s is a known vehicle status.
func (s VehicleStatus) Valid() bool {
	switch s {
	case VehicleStatusAvailable, VehicleStatusOnTrip, VehicleStatusInShop, VehicleStatusRetired:
		return true
	}
	return false
}

// Vehicle represents a fleet vehicle.
type Vehicle struct {
	ID              string
	Name            string
	Model           string
	LicensePlate    string
	Type            VehicleType
	MaxCapacity     float64 // kg
	Odometer        float64 // km, never decreases
	Status          VehicleStatus
	Region          string
	AcquisitionCost float64
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CanCarry reports whether the vehicle can take the given cargo weight.
func (v *Vehicle) CanCarry(weight float64) bool {
	return weight >= 0 && weight <= v.MaxCapacity
}

// AdvanceOdometer moves the odometer forward to reading. Lower readings are ignored.
func (v *Vehicle) AdvanceOdometer(reading float64) {
	if reading > v.Odometer {
		v.Odometer = reading
	}
}
