// ABOUTME: Mode selection menu for the improve command
// ABOUTME: Lists the modes the backend offers; custom needs an instruction

package menu

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"

	"github.com/markalston/korrekturleser-cli/internal/config"
	"github.com/markalston/korrekturleser-cli/internal/textproc"
)

// ErrInstructionRequired is returned when custom is picked without an instruction
var ErrInstructionRequired = errors.New("the custom mode needs --instruction")

// ErrNoModes is returned when there is nothing to pick from
var ErrNoModes = errors.New("no modes available")

type option struct {
	label   string
	value   string
	enabled bool
}

// Menu represents the mode selection menu
type Menu struct {
	options  []option
	selected string
}

// New creates a mode menu preselecting current
func New(modes []config.Mode, current string, hasInstruction bool) *Menu {
	m := &Menu{selected: current}
	for _, mode := range modes {
		m.options = append(m.options, option{
			label:   fmt.Sprintf("%s (%s)", mode.Description, mode.ID),
			value:   mode.ID,
			enabled: mode.ID != textproc.CustomMode || hasInstruction,
		})
	}
	if m.selected == "" && len(m.options) > 0 {
		m.selected = m.options[0].value
	}
	return m
}

// Run displays the menu and returns the selected mode
func (m *Menu) Run() (string, error) {
	if len(m.options) == 0 {
		return "", ErrNoModes
	}

	var options []huh.Option[string]
	for _, opt := range m.options {
		label := opt.label
		if !opt.enabled {
			label = fmt.Sprintf("%s (needs --instruction)", label)
		}
		options = append(options, huh.NewOption(label, opt.value))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Select mode").
				Options(options...).
				Value(&m.selected),
		),
	).WithTheme(huh.ThemeBase())

	if err := form.Run(); err != nil {
		return "", err
	}
	return m.Selected()
}

// Selected returns the current choice, rejecting disabled options
func (m *Menu) Selected() (string, error) {
	for _, opt := range m.options {
		if opt.value == m.selected && !opt.enabled {
			return "", ErrInstructionRequired
		}
	}
	return m.selected, nil
}
