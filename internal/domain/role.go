package domain

// Role enumerates account roles.
type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleManager    Role = "Manager"
	RoleStaff      Role = "Staff"
	RoleTechnician Role = "Technician"
	RoleCourier    Role = "Courier"
	RoleUser       Role = "User"
)

// Capability names an action guarded by role.
type Capability string

const (
	CapViewDashboard     Capability = "view_dashboard"
	CapViewLockers       Capability = "view_lockers"
	CapManageLockers     Capability = "manage_lockers"
	CapReportMaintenance Capability = "report_maintenance"
	CapManageUsers       Capability = "manage_users"
	CapRent              Capability = "rent"
)

var roleCapabilities = map[Role][]Capability{
	RoleAdmin:      {CapViewDashboard, CapViewLockers, CapManageLockers, CapReportMaintenance, CapManageUsers},
	RoleManager:    {CapViewDashboard, CapViewLockers, CapManageLockers, CapReportMaintenance},
	RoleStaff:      {CapViewLockers, CapManageLockers, CapReportMaintenance},
	RoleTechnician: {CapViewLockers, CapManageLockers, CapReportMaintenance},
	RoleCourier:    {CapRent},
	RoleUser:       {CapRent},
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleCapabilities[r]
	return ok
}

// Can reports whether the role holds the capability.
func (r Role) Can(c Capability) bool {
	for _, candidate := range roleCapabilities[r] {
		if candidate == c {
			return true
		}
	}
	return false
}

// Caller is the authenticated identity passed explicitly into every service call.
type Caller struct {
	UserID string
	Role   Role
}

// Can reports whether the caller's role holds the capability.
func (c Caller) Can(capability Capability) bool {
	return c.UserID != "" && c.Role.Can(capability)
}
