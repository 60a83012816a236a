package guard

import (
	"errors"
	"strings"
)

// Route is a navigable screen of the application
type Route string

const (
	RouteLogin        Route = "/login"
	RouteDashboard    Route = "/"
	RouteClients      Route = "/clients"
	RouteProcesses    Route = "/processes"
	RouteAppointments Route = "/appointments"
)

// Routes lists the protected screens in sidebar order
var Routes = []Route{RouteDashboard, RouteClients, RouteProcesses, RouteAppointments}

// ErrNotAuthenticated is returned by Require when nobody is logged in
var ErrNotAuthenticated = errors.New("not authenticated")

// Resolve maps a path to a known route. Unmatched paths go to the dashboard.
func Resolve(path string) Route {
	path = strings.TrimSpace(path)
	if path != "/" {
		path = strings.TrimRight(path, "/")
	}
	switch r := Route(path); r {
	case RouteLogin, RouteDashboard, RouteClients, RouteProcesses, RouteAppointments:
		return r
	default:
		return RouteDashboard
	}
}

// Protected reports whether the route requires a session
func (r Route) Protected() bool {
	return r != RouteLogin
}

// Title returns the screen title shown in the sidebar
func (r Route) Title() string {
	switch r {
	case RouteLogin:
		return "Login"
	case RouteClients:
		return "Clientes"
	case RouteProcesses:
		return "Processos"
	case RouteAppointments:
		return "Agenda"
	default:
		return "Dashboard"
	}
}

// State is the part of the session the guard looks at
type State struct {
	Loading       bool
	Authenticated bool
}

// SessionState is implemented by the session store
type SessionState interface {
	Loading() bool
	IsAuthenticated() bool
}

// StateOf snapshots a session
func StateOf(s SessionState) State {
	return State{Loading: s.Loading(), Authenticated: s.IsAuthenticated()}
}

// Action is what the caller should do with a route
type Action int

const (
	// Wait: restore has not finished, show a neutral placeholder
	Wait Action = iota
	Render
	Redirect
)

func (a Action) String() string {
	switch a {
	case Wait:
		return "wait"
	case Render:
		return "render"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

// Decision is the outcome of Decide. Target is set only for Redirect.
type Decision struct {
	Action Action
	Target Route
}

// Decide is the guard's decision table. It holds no state and is re-run on every change.
func Decide(state State, route Route) Decision {
	if state.Loading {
		return Decision{Action: Wait}
	}

	switch {
	case route.Protected() && !state.Authenticated:
		return Decision{Action: Redirect, Target: RouteLogin}
	case !route.Protected() && state.Authenticated:
		return Decision{Action: Redirect, Target: RouteDashboard}
	default:
		return Decision{Action: Render}
	}
}

// Require is the CLI form of the guard: protected commands fail instead of redirecting.
// Callers restore the session before asking.
func Require(s SessionState) error {
	if Decide(StateOf(s), RouteDashboard).Action != Render {
		return ErrNotAuthenticated
	}
	return nil
}
