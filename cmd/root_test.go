// ABOUTME: Tests for the root command and global flag handling
// ABOUTME: Verifies configuration precedence, exit code mapping and session checks

package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/markalston/korrekturleser-cli/internal/client"
	"github.com/markalston/korrekturleser-cli/internal/config"
	"github.com/markalston/korrekturleser-cli/internal/fakeapi"
	"github.com/markalston/korrekturleser-cli/internal/render"
	"github.com/markalston/korrekturleser-cli/internal/services"
	"github.com/markalston/korrekturleser-cli/internal/tokenstore"
)

// testServices wires the core against srv with token in an in-memory store
func testServices(t *testing.T, srv *fakeapi.Server, token string) *services.Services {
	t.Helper()
	cfg := &config.Config{
		APIURL:         srv.URL,
		TextPath:       "/api/text/",
		HTTPTimeout:    5 * time.Second,
		ConfigDir:      t.TempDir(),
		ConfigCacheTTL: time.Minute,
	}
	svc, err := services.New(cfg, render.NewHTML(), services.WithStore(tokenstore.NewMemoryStore(token)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc
}

// annaToken returns a valid token for the default non-admin user
func annaToken(srv *fakeapi.Server) string {
	return srv.MintToken(2, time.Hour)
}

func withJSONOutput(t *testing.T) {
	t.Helper()
	jsonOutput = true
	t.Cleanup(func() { jsonOutput = false })
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("KORREKTURLESER_API_URL", "https://backend.example.com/")
	t.Setenv("KORREKTURLESER_CONFIG_DIR", t.TempDir())
	apiURL = "" // Reset flag

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIURL != "https://backend.example.com" {
		t.Errorf("expected https://backend.example.com, got %s", cfg.APIURL)
	}
}

func TestLoadConfig_FlagOverridesEnv(t *testing.T) {
	t.Setenv("KORREKTURLESER_API_URL", "https://backend.example.com")
	t.Setenv("KORREKTURLESER_CONFIG_DIR", t.TempDir())
	dir := t.TempDir()
	apiURL = "https://flag-override.example.com"
	configDir = dir
	defer func() {
		apiURL = ""
		configDir = ""
	}()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIURL != "https://flag-override.example.com" {
		t.Errorf("expected flag to override env, got %s", cfg.APIURL)
	}
	if cfg.ConfigDir != dir {
		t.Errorf("expected config dir %s, got %s", dir, cfg.ConfigDir)
	}
}

func TestLoadConfig_MissingURL(t *testing.T) {
	t.Setenv("KORREKTURLESER_API_URL", "")
	apiURL = ""

	if _, err := loadConfig(); err == nil {
		t.Error("expected error without an API URL")
	}
}

func TestJSONOutput(t *testing.T) {
	withJSONOutput(t)

	if !IsJSONOutput() {
		t.Error("expected IsJSONOutput to return true")
	}
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"authentication", &client.APIError{Kind: client.ErrAuthentication, StatusCode: 401}, exitUnauthenticated},
		{"wrapped authentication", fmt.Errorf("login: %w", client.ErrAuthentication), exitUnauthenticated},
		{"validation", &client.APIError{Kind: client.ErrValidation, StatusCode: 422}, exitError},
		{"transport", &client.APIError{Kind: client.ErrTransport}, exitError},
		{"other", errors.New("boom"), exitError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := exitCodeFor(tc.err); got != tc.want {
				t.Errorf("exitCodeFor() = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestRequireSession_NoToken(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()
	var buf bytes.Buffer

	code := requireSession(context.Background(), testServices(t, srv, ""), &buf)

	if code != exitUnauthenticated {
		t.Errorf("expected exit code %d, got %d", exitUnauthenticated, code)
	}
	if !strings.Contains(buf.String(), "korrekturleser login") {
		t.Errorf("expected login hint, got %q", buf.String())
	}
}

func TestRequireSession_ValidToken(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()
	var buf bytes.Buffer

	code := requireSession(context.Background(), testServices(t, srv, annaToken(srv)), &buf)

	if code != exitOK {
		t.Errorf("expected exit code %d, got %d", exitOK, code)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestRequireSession_ExpiredToken(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()
	var buf bytes.Buffer

	code := requireSession(context.Background(), testServices(t, srv, srv.MintToken(2, -time.Minute)), &buf)

	if code != exitUnauthenticated {
		t.Errorf("expected exit code %d, got %d", exitUnauthenticated, code)
	}
}

func TestRequireSession_BackendDown(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()
	srv.FailWith(fakeapi.RouteMe, http.StatusInternalServerError, "database unavailable")
	svc := testServices(t, srv, annaToken(srv))
	var buf bytes.Buffer

	code := requireSession(context.Background(), svc, &buf)

	if code != exitError {
		t.Errorf("expected exit code %d, got %d", exitError, code)
	}
	if !strings.HasPrefix(buf.String(), "Error:") {
		t.Errorf("expected error output, got %q", buf.String())
	}
	if !svc.Session.HasToken() {
		t.Error("expected token kept when the backend could not check it")
	}
}
