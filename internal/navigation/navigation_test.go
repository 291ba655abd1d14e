// ABOUTME: Tests for route resolution and one-time session restore
// ABOUTME: Uses a scripted session double

package navigation

import (
	"context"
	"errors"
	"testing"
)

type fakeSession struct {
	authenticated    bool
	hasToken         bool
	restoreAttempted bool
	restoreResult    bool
	restoreErr       error
	restores         int
}

func (f *fakeSession) IsAuthenticated() bool  { return f.authenticated }
func (f *fakeSession) HasToken() bool         { return f.hasToken }
func (f *fakeSession) RestoreAttempted() bool { return f.restoreAttempted }

func (f *fakeSession) Restore(ctx context.Context) error {
	f.restores++
	f.restoreAttempted = true
	f.authenticated = f.restoreResult
	return f.restoreErr
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name         string
		session      fakeSession
		target       Route
		want         Route
		wantRestores int
	}{
		{"no token to text", fakeSession{}, RouteText, RouteLogin, 0},
		{"no token to stats", fakeSession{}, RouteStats, RouteLogin, 0},
		{"no token to login", fakeSession{}, RouteLogin, RouteLogin, 0},
		{"authenticated to text", fakeSession{authenticated: true}, RouteText, RouteText, 0},
		{"authenticated to stats", fakeSession{authenticated: true}, RouteStats, RouteStats, 0},
		{"authenticated to login", fakeSession{authenticated: true}, RouteLogin, RouteText, 0},
		{"token restores", fakeSession{hasToken: true, restoreResult: true}, RouteText, RouteText, 1},
		{"token restore fails", fakeSession{hasToken: true, restoreErr: errors.New("rejected")}, RouteStats, RouteLogin, 1},
		{"restored token to login", fakeSession{hasToken: true, restoreResult: true}, RouteLogin, RouteText, 1},
		{"restore already attempted", fakeSession{hasToken: true, restoreAttempted: true}, RouteText, RouteLogin, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.session
			g := NewGuard(&s)
			if got := g.Resolve(context.Background(), tt.target); got != tt.want {
				t.Errorf("Resolve(%s) = %s, want %s", tt.target, got, tt.want)
			}
			if s.restores != tt.wantRestores {
				t.Errorf("expected %d restores, got %d", tt.wantRestores, s.restores)
			}
		})
	}
}

func TestResolve_RestoresOnlyOnce(t *testing.T) {
	s := &fakeSession{hasToken: true}
	g := NewGuard(s)

	g.Resolve(context.Background(), RouteText)
	g.Resolve(context.Background(), RouteStats)

	if s.restores != 1 {
		t.Errorf("expected a single restore attempt, got %d", s.restores)
	}
}

func TestRequiresAuth(t *testing.T) {
	if RouteLogin.RequiresAuth() {
		t.Error("login must not require auth")
	}
	if !RouteText.RequiresAuth() || !RouteStats.RequiresAuth() {
		t.Error("text and stats require auth")
	}
}
