// ABOUTME: Tests for the models command
// ABOUTME: Verifies provider, model and mode listing in human and JSON form

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/markalston/korrekturleser-cli/internal/config"
	"github.com/markalston/korrekturleser-cli/internal/fakeapi"
	"github.com/markalston/korrekturleser-cli/internal/textproc"
)

func TestFormatModelsHuman(t *testing.T) {
	state := textproc.State{
		Mode:               "correct",
		Modes:              []config.Mode{{ID: "correct", Description: "Korrigiere"}, {ID: "improve", Description: "Verbessere"}},
		SelectedProvider:   "openai",
		SelectedModel:      "gpt-4o",
		AvailableProviders: []string{"gemini", "openai"},
		AvailableModels:    []string{"gpt-4o-mini", "gpt-4o"},
	}

	output := formatModelsHuman(state)

	for _, check := range []string{"Providers:", "* openai", "  gemini", "* gpt-4o\n", "* correct", "Verbessere"} {
		if !strings.Contains(output, check) {
			t.Errorf("expected output to contain %q", check)
		}
	}
	if strings.Contains(output, "Note:") {
		t.Error("expected no disclaimer for openai")
	}
}

func TestFormatModelsHuman_GeminiDisclaimer(t *testing.T) {
	output := formatModelsHuman(textproc.State{SelectedProvider: "gemini"})

	if !strings.Contains(output, textproc.ProviderDisclaimer) {
		t.Error("expected disclaimer for gemini")
	}
}

func TestRunModels(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()
	var buf bytes.Buffer

	code := runModels(context.Background(), testServices(t, srv, annaToken(srv)), &buf, "openai")

	if code != exitOK {
		t.Fatalf("expected exit code %d, got %d: %s", exitOK, code, buf.String())
	}
	for _, check := range []string{"* openai", "* gpt-4o-mini", "translate_en"} {
		if !strings.Contains(buf.String(), check) {
			t.Errorf("expected output to contain %q", check)
		}
	}
}

func TestRunModels_NotLoggedIn(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()
	var buf bytes.Buffer

	if code := runModels(context.Background(), testServices(t, srv, ""), &buf, ""); code != exitUnauthenticated {
		t.Errorf("expected exit code %d, got %d", exitUnauthenticated, code)
	}
}

func TestRunModels_ConfigFailure(t *testing.T) {
	srv := fakeapi.New()
	defer srv.Close()
	srv.FailWith(fakeapi.RouteConfig, http.StatusInternalServerError, "provider down")
	var buf bytes.Buffer

	code := runModels(context.Background(), testServices(t, srv, annaToken(srv)), &buf, "")

	if code != exitError {
		t.Errorf("expected exit code %d, got %d", exitError, code)
	}
	if !strings.Contains(buf.String(), "failed to load models") {
		t.Errorf("expected load failure, got %q", buf.String())
	}
}

func TestRunModels_JSON(t *testing.T) {
	withJSONOutput(t)
	srv := fakeapi.New()
	defer srv.Close()
	var buf bytes.Buffer

	runModels(context.Background(), testServices(t, srv, annaToken(srv)), &buf, "")

	var parsed map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if parsed["selected_provider"] != "gemini" {
		t.Errorf("expected default provider gemini, got %v", parsed["selected_provider"])
	}
	if modes, ok := parsed["modes"].([]interface{}); !ok || len(modes) == 0 {
		t.Errorf("expected modes in JSON, got %v", parsed["modes"])
	}
}
