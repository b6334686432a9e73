package tenant

import (
	"errors"

	"github.com/hoylabs/hoy-analytics/internal/domain"
)

// Sentinel errors for scope resolution.
var (
	// ErrUnknownRole rejects principals outside the closed role set.
	ErrUnknownRole = errors.New("unknown principal role")
	// ErrCrossTenantDenied rejects a cross-tenant request from an
	// under-privileged principal. Never retried, surfaces immediately.
	ErrCrossTenantDenied = errors.New("cross-tenant access denied")
)

// Scope constrains a query or mutation to one tenant. A nil ClientID means
// no tenant constraint (superadmin-wide visibility).
type Scope struct {
	ClientID *int64
}

// All returns the unconstrained scope.
func All() Scope { return Scope{} }

// Client returns a scope constrained to the given tenant.
func Client(id int64) Scope { return Scope{ClientID: &id} }

// Allows reports whether a row owned by clientID is visible under the scope.
func (s Scope) Allows(clientID int64) bool {
	return s.ClientID == nil || *s.ClientID == clientID
}

// ForMetrics resolves the metric-read scope for a principal. Viewers are
// always pinned to their own tenant. Admin, manager and superadmin read
// across tenants by default and may supply an explicit target tenant to
// narrow to. A target differing from the principal's own tenant without that
// privilege is ErrCrossTenantDenied.
func ForMetrics(p domain.Principal, target *int64) (Scope, error) {
	if _, ok := domain.ParseRole(string(p.Role)); !ok {
		return Scope{}, ErrUnknownRole
	}
	if target != nil {
		if *target != p.ClientID && !p.CanQueryOtherTenants() {
			return Scope{}, ErrCrossTenantDenied
		}
		return Client(*target), nil
	}
	if p.CanQueryOtherTenants() {
		return All(), nil
	}
	return Client(p.ClientID), nil
}

// ForRules resolves the alert-rule scope for a principal. Only superadmin
// sees across tenants; everyone else is pinned to their own client, and the
// scope applies to mutations as well as reads.
func ForRules(p domain.Principal) (Scope, error) {
	if _, ok := domain.ParseRole(string(p.Role)); !ok {
		return Scope{}, ErrUnknownRole
	}
	if p.Role == domain.RoleSuperAdmin {
		return All(), nil
	}
	return Client(p.ClientID), nil
}
