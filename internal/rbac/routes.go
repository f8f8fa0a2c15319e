package rbac

// routeGrants maps a permission to the client route prefixes it unlocks.
// Declaration order here is the order clients receive; it is deliberately
// not alphabetical so navigation rendering stays stable.
var routeGrants = []struct {
	perm   Permission
	routes []string
}{
	{PermViewAgenda, []string{"/agenda", "/agenda/*"}},
	{PermViewDashboard, []string{"/dashboard", "/dashboard/*"}},
	{PermViewSettings, []string{"/settings", "/settings/*"}},
	{PermViewRegistry, []string{"/registry", "/registry/*"}},
	{PermAdminAccess, []string{"/admin", "/admin/*"}},
}

// AccessibleRoutes derives the route prefixes a role may navigate to.
// Unknown roles get nothing.
func AccessibleRoutes(role string) []string {
	set := PermissionsFor(role)

	var routes []string
	for _, grant := range routeGrants {
		if _, ok := set[grant.perm]; ok {
			routes = append(routes, grant.routes...)
		}
	}
	return routes
}
