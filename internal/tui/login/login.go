// ABOUTME: Login screen component with a masked secret input
// ABOUTME: Emits SubmitMsg on enter; shows a spinner while the session logs in

package login

import (
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/korrekturleser-cli/internal/tui/icons"
	"github.com/markalston/korrekturleser-cli/internal/tui/styles"
)

// SubmitMsg asks the app to log in with Secret
type SubmitMsg struct {
	Secret string
}

// Login is the login form
type Login struct {
	input   textinput.Model
	spinner spinner.Model
	loading bool
	err     string
	width   int
}

// New creates a focused login form
func New() *Login {
	ti := textinput.New()
	ti.Placeholder = "secret"
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.CharLimit = 256
	ti.Width = 40
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	return &Login{input: ti, spinner: sp}
}

// Init implements tea.Model
func (l *Login) Init() tea.Cmd {
	return textinput.Blink
}

// SetLoading switches between the form and the spinner
func (l *Login) SetLoading(loading bool) tea.Cmd {
	l.loading = loading
	if loading {
		return l.spinner.Tick
	}
	return nil
}

// SetError shows err below the form; empty clears it
func (l *Login) SetError(err string) {
	l.err = err
}

// Reset clears the secret and error
func (l *Login) Reset() {
	l.input.Reset()
	l.err = ""
	l.loading = false
}

// SetWidth sets the available width
func (l *Login) SetWidth(width int) {
	l.width = width
}

// Update implements tea.Model
func (l *Login) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !l.loading {
			return l, nil
		}
		var cmd tea.Cmd
		l.spinner, cmd = l.spinner.Update(msg)
		return l, cmd

	case tea.KeyMsg:
		if l.loading {
			return l, nil
		}
		if msg.Type == tea.KeyEnter {
			secret := strings.TrimSpace(l.input.Value())
			if secret == "" {
				l.err = "Please enter your secret"
				return l, nil
			}
			return l, func() tea.Msg { return SubmitMsg{Secret: secret} }
		}
	}

	var cmd tea.Cmd
	l.input, cmd = l.input.Update(msg)
	return l, cmd
}

// View implements tea.Model
func (l *Login) View() string {
	var sb strings.Builder

	sb.WriteString(styles.Title.Render(icons.Lock.String() + " Login"))
	sb.WriteString("\n")
	sb.WriteString(styles.Subtitle.Render("Enter the secret you received for the Korrekturleser."))
	sb.WriteString("\n")

	if l.loading {
		sb.WriteString(l.spinner.View() + " Logging in...")
	} else {
		sb.WriteString(l.input.View())
	}

	if l.err != "" {
		sb.WriteString("\n\n")
		sb.WriteString(styles.StatusCritical.Render(l.err))
	}

	width := max(l.width-4, 50)
	return styles.ActivePanel.Width(min(width, 70)).Render(sb.String())
}
