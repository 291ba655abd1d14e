// ABOUTME: Session manager owning the authenticated user and the stored token
// ABOUTME: Drives login, restore and logout, and reacts to 401 responses

package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/markalston/korrekturleser-cli/internal/client"
	"github.com/markalston/korrekturleser-cli/internal/jwtclaims"
	"github.com/markalston/korrekturleser-cli/internal/tokenstore"
)

// API is the part of the backend the session needs
type API interface {
	Login(ctx context.Context, secret string) (*client.TokenResponse, error)
	CurrentUser(ctx context.Context) (*client.UserInfo, error)
}

// User is the server-verified identity of the session
type User struct {
	DisplayName  string
	RequestCount int
	TokenCount   int
}

// State is a snapshot of the session. User is non-nil iff authenticated.
type State struct {
	User      *User
	Loading   bool
	LastError string
}

// Authenticated reports whether the snapshot carries a user
func (s State) Authenticated() bool {
	return s.User != nil
}

// Manager owns session state. It is the only writer of the token store
// apart from HandleUnauthorized, which the API client calls on 401.
type Manager struct {
	store tokenstore.Store
	api   API
	now   func() time.Time

	mu               sync.Mutex
	state            State
	restoreAttempted bool
	listeners        map[int]func(State)
	nextListener     int

	restores singleflight.Group
}

// New creates an unauthenticated session manager
func New(store tokenstore.Store, api API) *Manager {
	return &Manager{
		store:     store,
		api:       api,
		now:       time.Now,
		listeners: make(map[int]func(State)),
	}
}

// TokenSupplier returns the client token source for store. Expired or
// undecodable tokens are withheld so the backend answers 401 instead of
// receiving a token known to be stale.
func TokenSupplier(store tokenstore.Store) func() string {
	return func() string {
		token := store.Get()
		if token == "" || jwtclaims.IsExpired(token) {
			return ""
		}
		return token
	}
}

// Login exchanges secret for a token, stores it and loads the user.
// Callers should not start a second login while State().Loading is true.
func (m *Manager) Login(ctx context.Context, secret string) error {
	m.update(func(s *State) {
		s.Loading = true
		s.LastError = ""
	})

	tok, err := m.api.Login(ctx, secret)
	if err != nil {
		slog.Info("Login failed", "error", err)
		m.update(func(s *State) {
			s.User = nil
			s.Loading = false
			s.LastError = err.Error()
		})
		return err
	}

	m.store.Set(tok.AccessToken)

	info, err := m.api.CurrentUser(ctx)
	var user *User
	switch {
	case err == nil:
		user = userFromInfo(info)
	case errors.Is(err, client.ErrAuthentication):
		m.store.Clear()
		m.update(func(s *State) {
			s.User = nil
			s.Loading = false
			s.LastError = err.Error()
		})
		return err
	default:
		slog.Warn("Could not load user after login", "error", err)
		user = userFromLogin(tok)
	}

	m.mu.Lock()
	m.restoreAttempted = true
	m.mu.Unlock()

	slog.Info("Logged in", "user", user.DisplayName)
	m.update(func(s *State) {
		s.User = user
		s.Loading = false
	})
	return nil
}

// Restore validates a stored token against the backend. Concurrent calls
// share one round trip.
func (m *Manager) Restore(ctx context.Context) error {
	_, err, _ := m.restores.Do("restore", func() (any, error) {
		return nil, m.restore(ctx)
	})
	return err
}

func (m *Manager) restore(ctx context.Context) error {
	m.mu.Lock()
	m.restoreAttempted = true
	m.mu.Unlock()

	token := m.store.Get()
	if token == "" {
		return nil
	}

	if jwtclaims.IsExpiredAt(token, m.now()) {
		slog.Info("Stored token expired")
		m.store.Clear()
		m.update(func(s *State) {
			s.User = nil
		})
		return nil
	}

	m.update(func(s *State) {
		s.Loading = true
		s.LastError = ""
	})

	info, err := m.api.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, client.ErrAuthentication) {
			slog.Info("Stored token rejected", "error", err)
			m.store.Clear()
			m.update(func(s *State) {
				s.User = nil
				s.Loading = false
			})
			return err
		}
		// The token may still be good; keep it for the next attempt.
		slog.Warn("Could not validate stored token", "error", err)
		m.update(func(s *State) {
			s.Loading = false
			s.LastError = err.Error()
		})
		return err
	}

	user := userFromInfo(info)
	m.update(func(s *State) {
		s.User = user
		s.Loading = false
	})
	return nil
}

// Logout clears the token, the user and any error. It cannot fail.
func (m *Manager) Logout() {
	m.store.Clear()
	m.update(func(s *State) {
		s.User = nil
		s.LastError = ""
	})
	slog.Info("Logged out")
}

// HandleUnauthorized forces the session to unauthenticated after the
// backend rejected a token. LastError is left for the caller to set.
func (m *Manager) HandleUnauthorized() {
	m.store.Clear()
	m.update(func(s *State) {
		s.User = nil
	})
	slog.Debug("Session invalidated by 401")
}

// Refresh reloads usage counters for an authenticated session
func (m *Manager) Refresh(ctx context.Context) error {
	if !m.IsAuthenticated() {
		return nil
	}
	info, err := m.api.CurrentUser(ctx)
	if err != nil {
		return err
	}
	user := userFromInfo(info)
	m.update(func(s *State) {
		if s.User != nil {
			s.User = user
		}
	})
	return nil
}

// State returns a snapshot of the session
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.clone()
}

// IsAuthenticated reports whether a user is present
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.User != nil
}

// RestoreAttempted reports whether Restore or a successful Login ran
func (m *Manager) RestoreAttempted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.restoreAttempted
}

// HasToken reports whether a token is stored
func (m *Manager) HasToken() bool {
	return m.store.Exists()
}

// Subscribe registers fn for every state change. The returned function
// removes it.
func (m *Manager) Subscribe(fn func(State)) func() {
	m.mu.Lock()
	id := m.nextListener
	m.nextListener++
	m.listeners[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.listeners, id)
		m.mu.Unlock()
	}
}

// update mutates state under the lock and notifies listeners after it
func (m *Manager) update(fn func(*State)) {
	m.mu.Lock()
	fn(&m.state)
	snapshot := m.state.clone()
	listeners := make([]func(State), 0, len(m.listeners))
	for _, l := range m.listeners {
		listeners = append(listeners, l)
	}
	m.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
}

func (s State) clone() State {
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

func userFromInfo(info *client.UserInfo) *User {
	return &User{
		DisplayName:  info.Username,
		RequestCount: info.RequestCount,
		TokenCount:   info.TokenCount,
	}
}

// userFromLogin builds a user from the login response, falling back to
// the unverified token claims for the name.
func userFromLogin(tok *client.TokenResponse) *User {
	u := &User{DisplayName: tok.Username}
	if u.DisplayName == "" {
		if claims, ok := jwtclaims.Decode(tok.AccessToken); ok {
			u.DisplayName = claims.Username
		}
	}
	if tok.RequestCount != nil {
		u.RequestCount = *tok.RequestCount
	}
	if tok.TokenCount != nil {
		u.TokenCount = *tok.TokenCount
	}
	return u
}
