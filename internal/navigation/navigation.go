// ABOUTME: Route guard consulted before every screen change and CLI command
// ABOUTME: Restores a stored session once and redirects between login and text

package navigation

import (
	"context"
	"log/slog"
)

// Route names a screen
type Route string

const (
	RouteLogin Route = "login"
	RouteText  Route = "text"
	RouteStats Route = "stats"
)

// DefaultRoute is where authenticated users land
const DefaultRoute = RouteText

// RequiresAuth reports whether r needs a session
func (r Route) RequiresAuth() bool {
	return r != RouteLogin
}

// Session is what the guard needs to know about authentication
type Session interface {
	IsAuthenticated() bool
	HasToken() bool
	RestoreAttempted() bool
	Restore(ctx context.Context) error
}

// Guard decides the route actually shown for a requested one
type Guard struct {
	session Session
}

// NewGuard creates a guard for session
func NewGuard(session Session) *Guard {
	return &Guard{session: session}
}

// Resolve returns the route to show for target
func (g *Guard) Resolve(ctx context.Context, target Route) Route {
	if !g.session.IsAuthenticated() && g.session.HasToken() && !g.session.RestoreAttempted() {
		if err := g.session.Restore(ctx); err != nil {
			slog.Debug("Session restore failed", "error", err)
		}
	}

	authenticated := g.session.IsAuthenticated()
	switch {
	case target.RequiresAuth() && !authenticated:
		slog.Debug("Redirecting to login", "target", target)
		return RouteLogin
	case target == RouteLogin && authenticated:
		return DefaultRoute
	default:
		return target
	}
}
