package models

// Route names a screen the client navigates to after a flow completes.
type Route string

const (
	RouteLogin             Route = "/login"
	RouteSeekerDashboard   Route = "/youth/dashboard"
	RouteEmployerDashboard Route = "/employer/dashboard"
	RouteAdminDashboard    Route = "/admin/dashboard"
)

// DashboardRoute returns the landing screen for role. Unknown roles go back
// to the login screen.
func DashboardRoute(role Role) Route {
	switch role {
	case RoleSeeker:
		return RouteSeekerDashboard
	case RoleEmployer:
		return RouteEmployerDashboard
	case RoleAdmin:
		return RouteAdminDashboard
	default:
		return RouteLogin
	}
}
