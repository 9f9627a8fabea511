// Package auth defines the caller-identity and role model the engine
// consumes from an external authentication mechanism (out of scope per
// the engine's own contract — we only need to decode and enforce a
// bearer credential's role, not issue or store one).
package auth

// Role is the caller's authorization level, per spec §6.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleSupervisor Role = "SUPERVISOR"
	RoleReader     Role = "READER"
)

// rolePriority ranks roles so AtLeast can compare them numerically.
var rolePriority = map[Role]int{
	RoleAdmin:      3,
	RoleSupervisor: 2,
	RoleReader:     1,
}

// IsValidRole reports whether role is one of the three known roles.
func IsValidRole(role Role) bool {
	_, ok := rolePriority[role]
	return ok
}

// AtLeast reports whether role meets or exceeds minimum in privilege.
// Generate and Simulate require AtLeast(role, RoleSupervisor); any
// authenticated caller (AtLeast(role, RoleReader)) may read.
func AtLeast(role, minimum Role) bool {
	return rolePriority[role] >= rolePriority[minimum]
}
