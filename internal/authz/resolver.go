// Package authz derives the effective role and dashboard routing from a
// session snapshot. Everything here is a pure function with no side effects.
package authz

import (
	"github.com/frontenddevmichael/openrole-connect/internal/model"
	"github.com/frontenddevmichael/openrole-connect/internal/session"
)

// Role is the effective role of a session: what the profile role enum
// carries, plus the two states a profile row cannot express.
type Role string

const (
	RoleAnonymous    Role = "anonymous"
	RoleStudent      Role = Role(model.RoleStudent)
	RoleOrganization Role = Role(model.RoleOrganization)
	RoleAdmin        Role = "admin"
)

// Dashboard namespaces. A profile's role fixes which one its session may
// resolve to.
const (
	StudentDashboard      = "/student-dashboard"
	OrganizationDashboard = "/organization-dashboard"
	AdminDashboard        = "/admin-dashboard"
)

// EffectiveRole returns exactly one of the four roles. The admin flag and a
// profile role never both contribute: admin wins and carries no profile.
func EffectiveRole(snap session.Snapshot) Role {
	switch {
	case snap.IsAdmin:
		return RoleAdmin
	case snap.Profile != nil:
		return Role(snap.Profile.Role)
	default:
		return RoleAnonymous
	}
}

// DashboardPath maps the session to its dashboard namespace; empty for an
// anonymous session.
func DashboardPath(snap session.Snapshot) string {
	switch EffectiveRole(snap) {
	case RoleAdmin:
		return AdminDashboard
	case RoleOrganization:
		return OrganizationDashboard
	case RoleStudent:
		return StudentDashboard
	default:
		return ""
	}
}

// CanAccess reports whether the session may use pages requiring the given
// role. Admin is granted every role check.
func CanAccess(snap session.Snapshot, required Role) bool {
	if required == RoleAnonymous {
		return true
	}
	role := EffectiveRole(snap)
	if role == RoleAdmin {
		return true
	}
	return role == required
}

// CanAccessOwner is the owner-only variant for profile-management views: it
// requires an actual profile of the given role. The admin shortcut holds no
// profile row and is refused.
func CanAccessOwner(snap session.Snapshot, required Role) bool {
	if snap.IsAdmin || snap.Profile == nil {
		return false
	}
	return Role(snap.Profile.Role) == required
}
