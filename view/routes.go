// Package view is the screen-independent half of the UI: route gating,
// the event board with its optimistic patches, dashboards and form checks.
package view

import (
	"sync"

	"github.com/puyokura/eventdesk/model"
)

type Route string

const (
	RouteLoading          Route = "loading"
	RouteLogin            Route = "login"
	RouteRegister         Route = "register"
	RouteHome             Route = "home"
	RouteEvents           Route = "events"
	RouteAdminDashboard   Route = "admin-dashboard"
	RouteStudentDashboard Route = "student-dashboard"
	RouteProfile          Route = "profile"
)

var publicRoutes = map[Route]bool{
	RouteLogin:    true,
	RouteRegister: true,
}

var protectedRoutes = map[Route][]model.Role{
	RouteHome:             nil,
	RouteEvents:           nil,
	RouteProfile:          nil,
	RouteAdminDashboard:   {model.RoleAdmin},
	RouteStudentDashboard: {model.RoleStudent},
}

// Auth is what the guard needs to know about the session.
type Auth struct {
	Loading       bool
	Authenticated bool
	Role          model.Role
}

// Resolve maps a requested route to the one that should be shown.
func Resolve(target Route, a Auth) Route {
	if a.Loading {
		return RouteLoading
	}
	if publicRoutes[target] {
		if a.Authenticated {
			return RouteHome
		}
		return target
	}
	roles, known := protectedRoutes[target]
	if !a.Authenticated {
		return RouteLogin
	}
	if !known {
		return RouteEvents
	}
	if len(roles) > 0 && !hasRole(roles, a.Role) {
		return RouteEvents
	}
	return target
}

func hasRole(roles []model.Role, r model.Role) bool {
	for _, x := range roles {
		if x == r {
			return true
		}
	}
	return false
}

func AfterLogin(role model.Role) Route {
	if role == model.RoleAdmin {
		return RouteAdminDashboard
	}
	return RouteEvents
}

func AfterRegister() Route {
	return RouteEvents
}

// Navigator keeps the current route and always goes through Resolve.
type Navigator struct {
	mu      sync.Mutex
	auth    func() Auth
	current Route
	target  Route
}

// NewNavigator takes a func reading the live session state.
func NewNavigator(auth func() Auth) *Navigator {
	n := &Navigator{auth: auth, target: RouteHome}
	n.current = Resolve(n.target, auth())
	return n
}

func (n *Navigator) Current() Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.current
}

// Go navigates to target and returns where the guard actually landed.
func (n *Navigator) Go(target Route) Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.target = target
	n.current = Resolve(target, n.auth())
	return n.current
}

// Refresh re-runs the guard for the last requested route, e.g. once the
// session finishes loading.
func (n *Navigator) Refresh() Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.current = Resolve(n.target, n.auth())
	return n.current
}

func (n *Navigator) HandleUnauthorized() Route {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.target = RouteLogin
	n.current = RouteLogin
	return n.current
}
