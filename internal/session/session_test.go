// ABOUTME: Tests for the session state machine
// ABOUTME: Uses a scripted API and an in-memory token store

package session

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/markalston/korrekturleser-cli/internal/client"
	"github.com/markalston/korrekturleser-cli/internal/tokenstore"
)

type fakeAPI struct {
	login       func(ctx context.Context, secret string) (*client.TokenResponse, error)
	currentUser func(ctx context.Context) (*client.UserInfo, error)
	meCalls     atomic.Int32
}

func (f *fakeAPI) Login(ctx context.Context, secret string) (*client.TokenResponse, error) {
	return f.login(ctx, secret)
}

func (f *fakeAPI) CurrentUser(ctx context.Context) (*client.UserInfo, error) {
	f.meCalls.Add(1)
	return f.currentUser(ctx)
}

func token(t *testing.T, username string, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  1,
		"username": username,
		"exp":      exp.Unix(),
	}).SignedString([]byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	return tok
}

var (
	authErr      = &client.APIError{Kind: client.ErrAuthentication, StatusCode: 401, Message: "invalid secret"}
	transportErr = &client.APIError{Kind: client.ErrTransport, Message: "cannot connect to backend"}
)

func okAPI(t *testing.T) *fakeAPI {
	tok := token(t, "claims-name", time.Now().Add(time.Hour))
	return &fakeAPI{
		login: func(ctx context.Context, secret string) (*client.TokenResponse, error) {
			if secret != "good" {
				return nil, authErr
			}
			return &client.TokenResponse{AccessToken: tok, TokenType: "bearer", Username: "login-name"}, nil
		},
		currentUser: func(ctx context.Context) (*client.UserInfo, error) {
			return &client.UserInfo{Username: "anna", RequestCount: 5, TokenCount: 900}, nil
		},
	}
}

func TestLogin_Success(t *testing.T) {
	store := tokenstore.NewMemoryStore("")
	m := New(store, okAPI(t))

	if err := m.Login(context.Background(), "good"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := m.State()
	if !s.Authenticated() || !m.IsAuthenticated() {
		t.Fatal("expected authenticated session")
	}
	if s.User.DisplayName != "anna" || s.User.RequestCount != 5 || s.User.TokenCount != 900 {
		t.Errorf("unexpected user: %+v", s.User)
	}
	if s.Loading {
		t.Error("expected loading cleared")
	}
	if !store.Exists() {
		t.Error("expected token stored")
	}
	if !m.RestoreAttempted() {
		t.Error("expected login to count as restore attempt")
	}
}

func TestLogin_InvalidSecret(t *testing.T) {
	store := tokenstore.NewMemoryStore("")
	m := New(store, okAPI(t))

	err := m.Login(context.Background(), "bad")
	if !errors.Is(err, client.ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}

	s := m.State()
	if s.Authenticated() {
		t.Error("expected unauthenticated session")
	}
	if s.LastError != "invalid secret" {
		t.Errorf("expected last error, got %q", s.LastError)
	}
	if store.Exists() {
		t.Error("expected no stored token")
	}
}

func TestLogin_ClearsPreviousError(t *testing.T) {
	m := New(tokenstore.NewMemoryStore(""), okAPI(t))
	m.Login(context.Background(), "bad")

	var sawCleared bool
	m.Subscribe(func(s State) {
		if s.Loading && s.LastError == "" {
			sawCleared = true
		}
	})
	m.Login(context.Background(), "good")

	if !sawCleared {
		t.Error("expected last error cleared at start of attempt")
	}
	if m.State().LastError != "" {
		t.Errorf("expected no error after success, got %q", m.State().LastError)
	}
}

func TestLogin_UserFetchRejected(t *testing.T) {
	api := okAPI(t)
	api.currentUser = func(ctx context.Context) (*client.UserInfo, error) {
		return nil, authErr
	}
	store := tokenstore.NewMemoryStore("")
	m := New(store, api)

	if err := m.Login(context.Background(), "good"); err == nil {
		t.Fatal("expected error")
	}
	if m.IsAuthenticated() {
		t.Error("expected unauthenticated when /me rejects the new token")
	}
	if store.Exists() {
		t.Error("expected token cleared")
	}
}

func TestLogin_UserFetchFallback(t *testing.T) {
	tests := []struct {
		name     string
		username string
		want     string
	}{
		{"login response name", "login-name", "login-name"},
		{"claims name", "", "claims-name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok := token(t, "claims-name", time.Now().Add(time.Hour))
			count := 2
			api := &fakeAPI{
				login: func(ctx context.Context, secret string) (*client.TokenResponse, error) {
					return &client.TokenResponse{AccessToken: tok, Username: tt.username, RequestCount: &count}, nil
				},
				currentUser: func(ctx context.Context) (*client.UserInfo, error) {
					return nil, transportErr
				},
			}
			m := New(tokenstore.NewMemoryStore(""), api)

			if err := m.Login(context.Background(), "good"); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			s := m.State()
			if !s.Authenticated() {
				t.Fatal("expected authenticated")
			}
			if s.User.DisplayName != tt.want {
				t.Errorf("expected display name %q, got %q", tt.want, s.User.DisplayName)
			}
			if s.User.RequestCount != 2 {
				t.Errorf("expected request count from login response, got %d", s.User.RequestCount)
			}
		})
	}
}

func TestLogout(t *testing.T) {
	store := tokenstore.NewMemoryStore("")
	m := New(store, okAPI(t))
	m.Login(context.Background(), "good")

	m.Logout()

	s := m.State()
	if s.User != nil || s.LastError != "" {
		t.Errorf("expected empty state, got %+v", s)
	}
	if store.Exists() {
		t.Error("expected token cleared")
	}

	// Logging out again from Unauthenticated still succeeds.
	m.Logout()
	if m.IsAuthenticated() {
		t.Error("expected unauthenticated")
	}
}

func TestLogout_ClearsError(t *testing.T) {
	m := New(tokenstore.NewMemoryStore(""), okAPI(t))
	m.Login(context.Background(), "bad")
	m.Logout()
	if m.State().LastError != "" {
		t.Errorf("expected last error cleared, got %q", m.State().LastError)
	}
}

func TestRestore_NoToken(t *testing.T) {
	api := okAPI(t)
	m := New(tokenstore.NewMemoryStore(""), api)

	if err := m.Restore(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if api.meCalls.Load() != 0 {
		t.Error("expected no backend call without token")
	}
	if m.IsAuthenticated() {
		t.Error("expected unauthenticated")
	}
	if !m.RestoreAttempted() {
		t.Error("expected restore marked attempted")
	}
}

func TestRestore_ExpiredToken(t *testing.T) {
	api := okAPI(t)
	store := tokenstore.NewMemoryStore(token(t, "anna", time.Now().Add(-time.Minute)))
	m := New(store, api)

	m.Restore(context.Background())

	if api.meCalls.Load() != 0 {
		t.Error("expected no backend call for expired token")
	}
	if store.Exists() {
		t.Error("expected expired token cleared")
	}
	if m.IsAuthenticated() {
		t.Error("expected unauthenticated")
	}
}

func TestRestore_Valid(t *testing.T) {
	store := tokenstore.NewMemoryStore(token(t, "anna", time.Now().Add(time.Hour)))
	m := New(store, okAPI(t))

	if err := m.Restore(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := m.State()
	if !s.Authenticated() || s.User.DisplayName != "anna" {
		t.Errorf("expected restored user anna, got %+v", s.User)
	}
}

func TestRestore_Rejected(t *testing.T) {
	api := okAPI(t)
	api.currentUser = func(ctx context.Context) (*client.UserInfo, error) { return nil, authErr }
	store := tokenstore.NewMemoryStore(token(t, "anna", time.Now().Add(time.Hour)))
	m := New(store, api)

	m.Restore(context.Background())

	if m.IsAuthenticated() {
		t.Error("expected unauthenticated")
	}
	if store.Exists() {
		t.Error("expected rejected token cleared")
	}
}

func TestRestore_TransportFailureKeepsToken(t *testing.T) {
	api := okAPI(t)
	api.currentUser = func(ctx context.Context) (*client.UserInfo, error) { return nil, transportErr }
	store := tokenstore.NewMemoryStore(token(t, "anna", time.Now().Add(time.Hour)))
	m := New(store, api)

	err := m.Restore(context.Background())
	if !errors.Is(err, client.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if !store.Exists() {
		t.Error("expected token kept after transport failure")
	}
	if m.State().LastError == "" {
		t.Error("expected last error set")
	}
}

func TestRestore_ConcurrentCallsCollapse(t *testing.T) {
	release := make(chan struct{})
	api := okAPI(t)
	api.currentUser = func(ctx context.Context) (*client.UserInfo, error) {
		<-release
		return &client.UserInfo{Username: "anna"}, nil
	}
	m := New(tokenstore.NewMemoryStore(token(t, "anna", time.Now().Add(time.Hour))), api)

	var wg sync.WaitGroup
	for range 5 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.Restore(context.Background())
		}()
	}

	// Wait until the first call reached the backend before releasing it.
	for api.meCalls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := api.meCalls.Load(); got != 1 {
		t.Errorf("expected 1 backend call, got %d", got)
	}
	if !m.IsAuthenticated() {
		t.Error("expected authenticated")
	}
}

func TestHandleUnauthorized(t *testing.T) {
	store := tokenstore.NewMemoryStore("")
	m := New(store, okAPI(t))
	m.Login(context.Background(), "good")

	m.HandleUnauthorized()

	if m.IsAuthenticated() {
		t.Error("expected unauthenticated")
	}
	if store.Exists() {
		t.Error("expected token cleared")
	}
}

func TestRefresh(t *testing.T) {
	api := okAPI(t)
	m := New(tokenstore.NewMemoryStore(""), api)

	// Unauthenticated sessions do not call the backend.
	m.Refresh(context.Background())
	if api.meCalls.Load() != 0 {
		t.Error("expected no call while unauthenticated")
	}

	m.Login(context.Background(), "good")
	api.currentUser = func(ctx context.Context) (*client.UserInfo, error) {
		return &client.UserInfo{Username: "anna", RequestCount: 6, TokenCount: 950}, nil
	}
	if err := m.Refresh(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.State().User.RequestCount; got != 6 {
		t.Errorf("expected refreshed count 6, got %d", got)
	}
}

func TestSubscribe(t *testing.T) {
	m := New(tokenstore.NewMemoryStore(""), okAPI(t))

	var states []State
	cancel := m.Subscribe(func(s State) { states = append(states, s) })
	m.Login(context.Background(), "good")

	if len(states) < 2 {
		t.Fatalf("expected loading and final notifications, got %d", len(states))
	}
	if !states[0].Loading {
		t.Error("expected first notification to be loading")
	}
	if last := states[len(states)-1]; !last.Authenticated() || last.Loading {
		t.Errorf("expected final authenticated state, got %+v", last)
	}

	cancel()
	n := len(states)
	m.Logout()
	if len(states) != n {
		t.Error("expected no notification after cancel")
	}
}

func TestState_IsSnapshot(t *testing.T) {
	m := New(tokenstore.NewMemoryStore(""), okAPI(t))
	m.Login(context.Background(), "good")

	s := m.State()
	s.User.DisplayName = "mutated"
	if m.State().User.DisplayName != "anna" {
		t.Error("expected State() to return a copy")
	}
}

func TestTokenSupplier(t *testing.T) {
	fresh := token(t, "anna", time.Now().Add(time.Hour))
	stale := token(t, "anna", time.Now().Add(-time.Hour))

	tests := []struct {
		name  string
		store string
		want  string
	}{
		{"absent", "", ""},
		{"fresh", fresh, fresh},
		{"expired", stale, ""},
		{"garbage", "not-a-token", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := tokenstore.NewMemoryStore(tt.store)
			if got := TokenSupplier(store)(); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
			if store.Get() != tt.store {
				t.Error("expected supplier not to modify the store")
			}
		})
	}
}
