package domain

import "time"

// ServiceType is the kind of work recorded in a maintenance log.
type ServiceType string

const (
	ServiceTypeOilChange       ServiceType = "OIL_CHANGE"
	ServiceTypeTireReplacement ServiceType = "TIRE_REPLACEMENT"
	ServiceTypeBrakeService    ServiceType = "BRAKE_SERVICE"
	ServiceTypeEngineRepair    ServiceType = "ENGINE_REPAIR"
	ServiceTypeElectrical      ServiceType = "ELECTRICAL"
	ServiceTypeBodyWork        ServiceType = "BODY_WORK"
	ServiceTypeInspection      ServiceType = "INSPECTION"
	ServiceTypeOther           ServiceType = "OTHER"
)

// Valid reports whether t is a known service type.
func (t ServiceType) Valid() bool {
	switch t {
	case ServiceTypeOilChange, ServiceTypeTireReplacement, ServiceTypeBrakeService,
		ServiceTypeEngineRepair, ServiceTypeElectrical, ServiceTypeBodyWork,
		ServiceTypeInspection, ServiceTypeOther:
		return true
	}
	return false
}

// MaintenanceLog is a service record against a vehicle. While unresolved it
// keeps the vehicle IN_SHOP.
type MaintenanceLog struct {
	ID             string
	VehicleID      string
	ServiceType    ServiceType
	Description    string
	Cost           float64
	Date           time.Time
	Odometer       float64
	TechnicianName string
	IsResolved     bool
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
