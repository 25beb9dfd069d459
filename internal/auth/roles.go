package auth

// Role is the job function a token is issued for.
type Role string

const (
	RoleManager          Role = "manager"
	RoleDispatcher       Role = "dispatcher"
	RoleSafetyOfficer    Role = "safety_officer"
	RoleFinancialAnalyst Role = "financial_analyst"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := capabilities[r]
	return ok
}

// Capability is a permission checked by the HTTP layer.
type Capability string

const (
	CapRead               Capability = "read"
	CapManageVehicles     Capability = "vehicles:write"
	CapManageDrivers      Capability = "drivers:write"
	CapEditDriverProfiles Capability = "drivers:profile"
	CapManageTrips        Capability = "trips:write"
	CapManageMaintenance  Capability = "maintenance:write"
	CapManageFuel         Capability = "fuel:write"
)

// capabilities is the role matrix. Managers hold everything; every role may read.
var capabilities = map[Role][]Capability{
	RoleManager: {
		CapRead, CapManageVehicles, CapManageDrivers, CapEditDriverProfiles,
		CapManageTrips, CapManageMaintenance, CapManageFuel,
	},
	RoleDispatcher:       {CapRead, CapManageTrips},
	RoleSafetyOfficer:    {CapRead, CapEditDriverProfiles},
	RoleFinancialAnalyst: {CapRead, CapManageFuel},
}

// Can reports whether the role holds the capability.
func (r Role) Can(c Capability) bool {
	for _, held := range capabilities[r] {
		if held == c {
			return true
		}
	}
	return false
}
