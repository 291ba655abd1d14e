// ABOUTME: Tests for the mode selection menu
// ABOUTME: Validates options, preselection and the custom mode guard

package menu

import (
	"errors"
	"testing"

	"github.com/markalston/korrekturleser-cli/internal/config"
)

func TestMenuOptions(t *testing.T) {
	modes := config.DefaultPresentation().Modes
	m := New(modes, "improve", true)

	if len(m.options) != len(modes) {
		t.Errorf("expected %d options, got %d", len(modes), len(m.options))
	}
	if m.options[0].label != "Korrigiere (correct)" {
		t.Errorf("expected first option 'Korrigiere (correct)', got %s", m.options[0].label)
	}
	if m.selected != "improve" {
		t.Errorf("expected current mode preselected, got %q", m.selected)
	}
}

func TestMenuDefaultsToFirstMode(t *testing.T) {
	m := New(config.DefaultPresentation().Modes, "", false)

	if m.selected != "correct" {
		t.Errorf("expected first mode preselected, got %q", m.selected)
	}
}

func TestMenuCustomDisabledWithoutInstruction(t *testing.T) {
	m := New(config.DefaultPresentation().Modes, "custom", false)

	if _, err := m.Selected(); !errors.Is(err, ErrInstructionRequired) {
		t.Errorf("expected ErrInstructionRequired, got %v", err)
	}
}

func TestMenuCustomEnabledWithInstruction(t *testing.T) {
	m := New(config.DefaultPresentation().Modes, "custom", true)

	got, err := m.Selected()
	if err != nil || got != "custom" {
		t.Errorf("expected custom selected, got %q, %v", got, err)
	}
}

func TestMenuNoModes(t *testing.T) {
	if _, err := New(nil, "", false).Run(); !errors.Is(err, ErrNoModes) {
		t.Errorf("expected ErrNoModes, got %v", err)
	}
}
