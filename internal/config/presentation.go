// ABOUTME: Mode presentation settings loaded from presentation.yaml
// ABOUTME: Decides which modes render as diff or markdown and which mode is the default

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"
)

// PresentationFile is the file name looked up in the config directory.
const PresentationFile = "presentation.yaml"

// Mode is a backend mode identifier with its button label.
type Mode struct {
	ID          string `yaml:"id"`
	Description string `yaml:"description"`
}

// Presentation maps modes to the way their results are displayed.
type Presentation struct {
	DefaultMode   string   `yaml:"default_mode"`
	Modes         []Mode   `yaml:"modes"`
	DiffModes     []string `yaml:"diff_modes"`
	MarkdownModes []string `yaml:"markdown_modes"`
}

// DefaultPresentation returns the built-in mode set used when no
// presentation.yaml exists.
func DefaultPresentation() *Presentation {
	return &Presentation{
		DefaultMode: "correct",
		Modes: []Mode{
			{ID: "correct", Description: "Korrigiere"},
			{ID: "improve", Description: "Verbessere"},
			{ID: "summarize", Description: "Text -> Stichwörter"},
			{ID: "expand", Description: "Stichwörter -> Text"},
			{ID: "translate_de", Description: "Übersetzen -> DE"},
			{ID: "translate_en", Description: "Übersetzen -> EN"},
			{ID: "custom", Description: "Eigene Anweisung"},
		},
		DiffModes:     []string{"correct", "improve"},
		MarkdownModes: []string{"summarize"},
	}
}

// LoadPresentation reads presentation.yaml from dir. Fields left out of the
// file keep their defaults.
func LoadPresentation(dir string) (*Presentation, error) {
	p := DefaultPresentation()

	data, err := os.ReadFile(filepath.Join(dir, PresentationFile))
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", PresentationFile, err)
	}

	var file Presentation
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", PresentationFile, err)
	}

	if file.DefaultMode != "" {
		p.DefaultMode = file.DefaultMode
	}
	if file.Modes != nil {
		p.Modes = file.Modes
	}
	if file.DiffModes != nil {
		p.DiffModes = file.DiffModes
	}
	if file.MarkdownModes != nil {
		p.MarkdownModes = file.MarkdownModes
	}

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", PresentationFile, err)
	}
	return p, nil
}

// Validate checks that the default mode exists and that no mode is both a
// diff and a markdown mode.
func (p *Presentation) Validate() error {
	if len(p.Modes) == 0 {
		return fmt.Errorf("at least one mode is required")
	}
	for _, m := range p.Modes {
		if m.ID == "" {
			return fmt.Errorf("mode id must not be empty")
		}
	}
	if !p.HasMode(p.DefaultMode) {
		return fmt.Errorf("default_mode %q is not a known mode", p.DefaultMode)
	}
	for _, m := range p.DiffModes {
		if slices.Contains(p.MarkdownModes, m) {
			return fmt.Errorf("mode %q cannot be both a diff and a markdown mode", m)
		}
	}
	return nil
}

// HasMode reports whether id is in the mode list.
func (p *Presentation) HasMode(id string) bool {
	return slices.ContainsFunc(p.Modes, func(m Mode) bool { return m.ID == id })
}

// IsDiff reports whether results of mode are shown as a diff.
func (p *Presentation) IsDiff(mode string) bool {
	return slices.Contains(p.DiffModes, mode)
}

// IsMarkdown reports whether results of mode are rendered as markdown.
func (p *Presentation) IsMarkdown(mode string) bool {
	return slices.Contains(p.MarkdownModes, mode)
}

// Description returns the label of mode, or the id itself when unknown.
func (p *Presentation) Description(mode string) string {
	for _, m := range p.Modes {
		if m.ID == mode && m.Description != "" {
			return m.Description
		}
	}
	return mode
}
