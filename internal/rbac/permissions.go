package rbac

import (
	"github.com/carebridge/userhub/internal/domain/user"
)

// Permission is an atomic capability tag. The set is closed; anything that
// does not match one of these constants carries no access.
type Permission string

const (
	// User management
	PermViewUsers   Permission = "view_users"
	PermCreateUsers Permission = "create_users"
	PermUpdateUsers Permission = "update_users"
	PermDeleteUsers Permission = "delete_users"

	// Agenda / events
	PermViewAgenda   Permission = "view_agenda"
	PermCreateEvents Permission = "create_events"
	PermUpdateEvents Permission = "update_events"
	PermDeleteEvents Permission = "delete_events"
	PermManageAgenda Permission = "manage_agenda"

	// Dashboard
	PermViewDashboard Permission = "view_dashboard"
	PermViewAnalytics Permission = "view_analytics"

	// Settings
	PermViewSettings  Permission = "view_settings"
	PermUpdateProfile Permission = "update_profile"
	PermDeleteAccount Permission = "delete_account"

	// Registry
	PermViewRegistry   Permission = "view_registry"
	PermManageRegistry Permission = "manage_registry"

	// Admin
	PermAdminAccess    Permission = "admin_access"
	PermSystemSettings Permission = "system_settings"
)

var allPermissions = []Permission{
	PermViewUsers, PermCreateUsers, PermUpdateUsers, PermDeleteUsers,
	PermViewAgenda, PermCreateEvents, PermUpdateEvents, PermDeleteEvents, PermManageAgenda,
	PermViewDashboard, PermViewAnalytics,
	PermViewSettings, PermUpdateProfile, PermDeleteAccount,
	PermViewRegistry, PermManageRegistry,
	PermAdminAccess, PermSystemSettings,
}

// Parse validates a wire permission string against the closed set.
func Parse(s string) (Permission, bool) {
	for _, p := range allPermissions {
		if string(p) == s {
			return p, true
		}
	}
	return "", false
}

// rolePermissions is defined once at process start and never mutated.
var rolePermissions = map[user.Role][]Permission{
	user.RoleAdmin: allPermissions,

	user.RoleVolunteer: {
		PermViewAgenda, PermCreateEvents, PermUpdateEvents,
		PermViewDashboard,
		PermViewSettings, PermUpdateProfile,
		PermViewRegistry,
	},

	user.RolePatient: {
		PermViewAgenda,
		PermViewDashboard,
		PermViewSettings, PermUpdateProfile,
		PermViewRegistry,
	},

	user.RoleSponsor: {
		PermViewAgenda,
		PermViewDashboard,
		PermViewSettings, PermUpdateProfile,
		PermViewRegistry,
	},

	user.RoleSupporter: {
		PermViewAgenda,
		PermViewDashboard,
		PermViewSettings, PermUpdateProfile,
		PermViewRegistry,
	},

	user.RoleUser: {
		PermViewDashboard,
		PermViewSettings, PermUpdateProfile,
		PermViewRegistry,
	},
}

// PermissionsFor returns the permission set for a wire role string.
// Unknown, malformed or empty roles map to the empty set: fail closed,
// never an error.
func PermissionsFor(role string) map[Permission]struct{} {
	r, err := user.ParseRole(role)
	if err != nil {
		return map[Permission]struct{}{}
	}

	perms := rolePermissions[r]
	set := make(map[Permission]struct{}, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// List returns the permissions for a role in declaration order, for
// client-facing listings.
func List(role string) []Permission {
	r, err := user.ParseRole(role)
	if err != nil {
		return nil
	}

	perms := rolePermissions[r]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

func Has(role string, p Permission) bool {
	_, ok := PermissionsFor(role)[p]
	return ok
}

func HasAny(role string, perms ...Permission) bool {
	set := PermissionsFor(role)
	for _, p := range perms {
		if _, ok := set[p]; ok {
			return true
		}
	}
	return false
}

func HasAll(role string, perms ...Permission) bool {
	set := PermissionsFor(role)
	for _, p := range perms {
		if _, ok := set[p]; !ok {
			return false
		}
	}
	return true
}
