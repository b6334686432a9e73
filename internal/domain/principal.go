package domain

// Role enumerates the closed set of caller roles. Anything outside this set
// must be rejected at the boundary.
type Role string

const (
	RoleViewer     Role = "viewer"
	RoleManager    Role = "manager"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// ParseRole returns the Role for s, or false if s is not a recognized role.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleViewer, RoleManager, RoleAdmin, RoleSuperAdmin:
		return Role(s), true
	}
	return "", false
}

// Principal is the authenticated caller identity handed in by the external
// auth collaborator. Every operation is implicitly scoped to ClientID unless
// the role grants cross-tenant visibility.
type Principal struct {
	ID       string `json:"id"`
	ClientID int64  `json:"client_id"`
	Role     Role   `json:"role"`
}

// CanQueryOtherTenants reports whether the principal may aim metric reads at
// a tenant other than its own.
func (p Principal) CanQueryOtherTenants() bool {
	return p.Role == RoleAdmin || p.Role == RoleManager || p.Role == RoleSuperAdmin
}
