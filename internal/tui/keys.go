// ABOUTME: Key bindings for the TUI screens
// ABOUTME: Feeds both the footer shortcuts and the help overlay

package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// keyMap holds every binding the app reacts to
type keyMap struct {
	Submit   key.Binding
	Clear    key.Binding
	Transfer key.Binding
	Reset    key.Binding
	NextMode key.Binding
	Copy     key.Binding
	Settings key.Binding
	Open     key.Binding
	Stats    key.Binding
	Logout   key.Binding
	Scroll   key.Binding
	Back     key.Binding
	Refresh  key.Binding
	Help     key.Binding
	Quit     key.Binding
}

// Terminals rarely deliver ctrl+enter as its own key; ctrl+s is always bound.
func newKeyMap() keyMap {
	return keyMap{
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s", "ctrl+enter"),
			key.WithHelp("^s", "Submit"),
		),
		Clear: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Clear"),
		),
		Transfer: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("^t", "Transfer"),
		),
		Reset: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("^r", "Reset"),
		),
		NextMode: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "Mode"),
		),
		Copy: key.NewBinding(
			key.WithKeys("ctrl+y"),
			key.WithHelp("^y", "Copy"),
		),
		Settings: key.NewBinding(
			key.WithKeys("ctrl+o"),
			key.WithHelp("^o", "Settings"),
		),
		Open: key.NewBinding(
			key.WithKeys("f2"),
			key.WithHelp("f2", "Open file"),
		),
		Stats: key.NewBinding(
			key.WithKeys("ctrl+g"),
			key.WithHelp("^g", "Stats"),
		),
		Logout: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("^l", "Logout"),
		),
		Scroll: key.NewBinding(
			key.WithKeys("pgup", "pgdown"),
			key.WithHelp("pgup/pgdn", "Scroll output"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "b"),
			key.WithHelp("b", "Back"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "Help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("^c", "Quit"),
		),
	}
}

// ShortHelp implements help.KeyMap
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.NextMode, k.Settings, k.Help, k.Quit}
}

// FullHelp implements help.KeyMap
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Clear, k.Transfer, k.Reset},
		{k.NextMode, k.Copy, k.Settings, k.Open, k.Scroll},
		{k.Stats, k.Logout, k.Help, k.Quit},
	}
}

// shortcuts returns the footer bindings for screen
func (k keyMap) shortcuts(screen Screen) []key.Binding {
	switch screen {
	case ScreenLogin:
		return []key.Binding{
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "Login")),
			k.Quit,
		}
	case ScreenText:
		return []key.Binding{k.Submit, k.NextMode, k.Settings, k.Stats, k.Help, k.Quit}
	case ScreenStats:
		return []key.Binding{k.Refresh, k.Scroll, k.Back, k.Quit}
	case ScreenOpen:
		return []key.Binding{
			key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑↓", "Select")),
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "Open")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "Cancel")),
		}
	case ScreenSettings:
		return []key.Binding{
			key.NewBinding(key.WithKeys("up", "down"), key.WithHelp("↑↓", "Select")),
			key.NewBinding(key.WithKeys("enter"), key.WithHelp("Enter", "Confirm")),
			key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "Cancel")),
		}
	}
	return []key.Binding{k.Quit}
}
