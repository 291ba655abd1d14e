// ABOUTME: Text screen component with input area, output view and status line
// ABOUTME: Mirrors the orchestrator state; the app owns key handling and submission

package editor

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/korrekturleser-cli/internal/textproc"
	"github.com/markalston/korrekturleser-cli/internal/tui/icons"
	"github.com/markalston/korrekturleser-cli/internal/tui/styles"
	"github.com/markalston/korrekturleser-cli/internal/tui/widgets"
)

// Layout constants
const (
	sideBySideWidth = 100 // below this the panels are stacked
	panelChrome     = 4   // border and horizontal padding of a panel
	panelLines      = 3   // border and title of a panel
	statusLines     = 2   // status line and the line under the panels
)

// Editor is the text processing screen
type Editor struct {
	input   textarea.Model
	output  viewport.Model
	spinner spinner.Model
	state   textproc.State
	notice  string
	width   int
	height  int
}

// New creates an editor with a focused input
func New() *Editor {
	ta := textarea.New()
	ta.Placeholder = "Text eingeben oder einfügen..."
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	e := &Editor{
		input:   ta,
		output:  viewport.New(40, 10),
		spinner: sp,
	}
	e.SetSize(sideBySideWidth, 24)
	return e
}

// Init implements tea.Model
func (e *Editor) Init() tea.Cmd {
	return textarea.Blink
}

// SetSize lays the panels out for the terminal size
func (e *Editor) SetSize(width, height int) {
	e.width = width
	e.height = height

	panelWidth, panelHeight := e.panelSize()
	e.input.SetWidth(panelWidth)
	e.input.SetHeight(panelHeight)
	e.output.Width = panelWidth
	e.output.Height = panelHeight
	e.refreshOutput()
}

// panelSize returns the inner size of each panel. A panel adds its
// border and title line to the height.
func (e *Editor) panelSize() (int, int) {
	height := max(e.height-statusLines, 6)
	if e.stacked() {
		return max(e.width-panelChrome, 10), max(height/2-panelLines, 3)
	}
	return max(e.width/2-panelChrome, 10), max(height-panelLines, 3)
}

func (e *Editor) stacked() bool {
	return e.width < sideBySideWidth
}

// OutputWidth is the width available to rendered output
func (e *Editor) OutputWidth() int {
	w, _ := e.panelSize()
	return w
}

// SetState mirrors the orchestrator state. The input is only replaced when
// the orchestrator changed it, so typing is never overwritten.
func (e *Editor) SetState(state textproc.State) tea.Cmd {
	wasPending := e.state.Pending
	if state.InputText != e.state.InputText && state.InputText != e.input.Value() {
		e.input.SetValue(state.InputText)
	}
	e.state = state
	e.refreshOutput()

	if state.Pending && !wasPending {
		return e.spinner.Tick
	}
	return nil
}

// SetNotice shows a short message in the status line; empty clears it
func (e *Editor) SetNotice(notice string) {
	e.notice = notice
}

// Input returns the text typed so far
func (e *Editor) Input() string {
	return e.input.Value()
}

// Update forwards typing to the input and paging keys to the output
func (e *Editor) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !e.state.Pending {
			return nil
		}
		var cmd tea.Cmd
		e.spinner, cmd = e.spinner.Update(msg)
		return cmd

	case tea.KeyMsg:
		switch msg.String() {
		case "pgup":
			e.output.PageUp()
			return nil
		case "pgdown":
			e.output.PageDown()
			return nil
		}
		if e.state.Pending {
			return nil
		}
	}

	var cmd tea.Cmd
	e.input, cmd = e.input.Update(msg)
	return cmd
}

func (e *Editor) refreshOutput() {
	e.output.SetContent(e.outputContent())
}

func (e *Editor) outputContent() string {
	switch {
	case e.state.Error != "":
		return styles.StatusCritical.Render(e.state.Error)
	case e.state.Pending:
		return styles.Subtitle.Render("Processing...")
	case e.state.Display.Kind == textproc.DisplayPlain:
		return lipgloss.NewStyle().Width(e.output.Width).Render(e.state.Display.Content)
	default:
		return e.state.Display.Content
	}
}

// View implements tea.Model
func (e *Editor) View() string {
	panelWidth, _ := e.panelSize()
	inputPanel := styles.ActivePanel.Width(panelWidth + 2).Render(
		styles.PanelTitle.Render("Mein Text") + "\n" + e.input.View())
	outputPanel := styles.Panel.Width(panelWidth + 2).Render(
		styles.PanelTitle.Render(e.outputTitle()) + "\n" + e.output.View())

	var panels string
	if e.stacked() {
		panels = lipgloss.JoinVertical(lipgloss.Left, inputPanel, outputPanel)
	} else {
		panels = lipgloss.JoinHorizontal(lipgloss.Top, inputPanel, outputPanel)
	}

	return strings.Join([]string{e.statusLine(), panels, e.bottomLine()}, "\n")
}

func (e *Editor) outputTitle() string {
	title := "KI Text"
	if e.state.Display.Kind == textproc.DisplayDiff {
		title = icons.Diff.String() + " Änderungen"
	}
	if r := e.state.LastResult; r != nil {
		title += styles.Subtitle.UnsetMarginBottom().Render(fmt.Sprintf("  %d tokens", r.TokensUsed))
	}
	return title
}

// statusLine shows mode, model and progress
func (e *Editor) statusLine() string {
	parts := []string{widgets.ModeBadge(e.modeDescription())}

	if e.state.SelectedProvider != "" || e.state.SelectedModel != "" {
		model := strings.Trim(e.state.SelectedProvider+" / "+e.state.SelectedModel, " /")
		parts = append(parts, lipgloss.NewStyle().Foreground(styles.Muted).Render(icons.Model.String()+" "+model))
	}
	if e.state.Mode == textproc.CustomMode && e.state.CustomInstruction != "" {
		parts = append(parts, lipgloss.NewStyle().Foreground(styles.Info).Render("“"+truncate(e.state.CustomInstruction, 40)+"”"))
	}
	if e.state.Pending {
		parts = append(parts, e.spinner.View()+" processing")
	}
	if e.notice != "" {
		parts = append(parts, widgets.StatusText(e.notice, widgets.StatusOK))
	}
	return strings.Join(parts, "  ")
}

// bottomLine carries the provider disclaimer
func (e *Editor) bottomLine() string {
	if e.state.ShowsProviderDisclaimer() {
		return styles.Disclaimer.MaxWidth(e.width).Render(textproc.ProviderDisclaimer)
	}
	return ""
}

func (e *Editor) modeDescription() string {
	for _, m := range e.state.Modes {
		if m.ID == e.state.Mode {
			return m.Description
		}
	}
	return e.state.Mode
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
