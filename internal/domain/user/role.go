package user

// Role is used for RBAC on the driver and admin API surfaces. The customer
// tracking page is public (booking ref as capability token) and carries no
// role.
type Role string

const (
	RoleDriver Role = "DRIVER"
	RoleAdmin  Role = "ADMIN"
)

// Valid reports whether the role is one of the known values.
func (role Role) Valid() bool {
	switch role {
	case RoleDriver, RoleAdmin:
		return true
	default:
		return false
	}
}

func (role Role) String() string { return string(role) }
