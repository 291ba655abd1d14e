// ABOUTME: Settings wizard choosing mode, provider, model and custom instruction
// ABOUTME: Uses huh forms with a step indicator; models load asynchronously per provider

package settings

import (
	"context"
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/korrekturleser-cli/internal/textproc"
	"github.com/markalston/korrekturleser-cli/internal/tui/icons"
	"github.com/markalston/korrekturleser-cli/internal/tui/styles"
)

// CompleteMsg is sent when the settings were confirmed
type CompleteMsg struct {
	Mode        string
	Provider    string
	Model       string
	Instruction string
}

// CancelledMsg is sent when the settings were abandoned
type CancelledMsg struct{}

// modelsLoadedMsg carries the model list for the chosen provider
type modelsLoadedMsg struct {
	provider string
	models   []string
	err      error
}

// ModelLister returns the models offered for provider
type ModelLister func(ctx context.Context, provider string) ([]string, error)

// Step names for progress indicator
var stepNames = []string{"Mode & Provider", "Model", "Instruction"}

// Settings manages the settings flow as a bubbletea model
type Settings struct {
	form       *huh.Form
	step       int
	width      int
	loading    bool
	err        error
	listModels ModelLister

	modeList  []modeOption
	providers []string
	models    []string

	// Form field values
	mode        string
	provider    string
	model       string
	instruction string
}

type modeOption struct {
	id, description string
}

// New starts the settings flow from the current text state
func New(state textproc.State, listModels ModelLister) *Settings {
	s := &Settings{
		step:        1,
		listModels:  listModels,
		providers:   slices.Clone(state.AvailableProviders),
		models:      slices.Clone(state.AvailableModels),
		mode:        state.Mode,
		provider:    state.SelectedProvider,
		model:       state.SelectedModel,
		instruction: state.CustomInstruction,
	}
	for _, m := range state.Modes {
		s.modeList = append(s.modeList, modeOption{id: m.ID, description: m.Description})
	}
	s.form = s.createStep1Form()
	return s
}

func (s *Settings) createStep1Form() *huh.Form {
	modeOptions := make([]huh.Option[string], len(s.modeList))
	for i, m := range s.modeList {
		modeOptions[i] = huh.NewOption(fmt.Sprintf("%s (%s)", m.description, m.id), m.id)
	}

	fields := []huh.Field{
		huh.NewSelect[string]().
			Title("Mode").
			Description("What should happen to your text").
			Options(modeOptions...).
			Value(&s.mode),
	}
	if len(s.providers) > 0 {
		fields = append(fields, huh.NewSelect[string]().
			Title("Provider").
			Description("LLM provider answering the request").
			Options(huh.NewOptions(s.providers...)...).
			Value(&s.provider))
	}

	return huh.NewForm(
		huh.NewGroup(fields...).
			Title("Step 1: Mode & Provider").
			Description("Use ↑/↓ to select, Enter to confirm"),
	).WithTheme(createTheme())
}

func (s *Settings) createStep2Form() *huh.Form {
	if !slices.Contains(s.models, s.model) && len(s.models) > 0 {
		s.model = s.models[0]
	}
	return huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Model").
				Description("Models offered by " + s.provider).
				Options(huh.NewOptions(s.models...)...).
				Value(&s.model),
		).Title("Step 2: Model"),
	).WithTheme(createTheme())
}

func (s *Settings) createStep3Form() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewText().
				Title("Instruction").
				Description("Sent along with your text, e.g. \"Write it as a haiku\"").
				CharLimit(1000).
				Value(&s.instruction).
				Validate(validateInstruction),
		).Title("Step 3: Instruction"),
	).WithTheme(createTheme())
}

// Init implements tea.Model
func (s *Settings) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model
func (s *Settings) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		form, cmd := s.form.Update(msg)
		if f, ok := form.(*huh.Form); ok {
			s.form = f
		}
		return s, cmd

	case tea.KeyMsg:
		if msg.String() == "esc" {
			return s, func() tea.Msg { return CancelledMsg{} }
		}
		if s.loading {
			return s, nil
		}

	case modelsLoadedMsg:
		return s.handleModelsLoaded(msg)
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		return s.advanceStep()
	}
	return s, cmd
}

func (s *Settings) advanceStep() (tea.Model, tea.Cmd) {
	switch s.step {
	case 1:
		if s.provider == "" || s.listModels == nil {
			return s.afterModel()
		}
		s.loading = true
		s.err = nil
		return s, s.loadModels(s.provider)

	case 2:
		return s.afterModel()

	case 3:
		return s, s.complete()
	}
	return s, nil
}

// afterModel moves to the instruction step for the custom mode, or finishes
func (s *Settings) afterModel() (tea.Model, tea.Cmd) {
	if s.mode != textproc.CustomMode {
		return s, s.complete()
	}
	s.step = 3
	s.form = s.createStep3Form()
	return s, s.form.Init()
}

func (s *Settings) handleModelsLoaded(msg modelsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.provider != s.provider {
		return s, nil
	}
	s.loading = false
	if msg.err != nil {
		s.err = msg.err
		s.step = 1
		s.form = s.createStep1Form()
		return s, s.form.Init()
	}
	s.models = msg.models
	if len(s.models) == 0 {
		s.model = ""
		return s.afterModel()
	}
	s.step = 2
	s.form = s.createStep2Form()
	return s, s.form.Init()
}

func (s *Settings) loadModels(provider string) tea.Cmd {
	return func() tea.Msg {
		models, err := s.listModels(context.Background(), provider)
		return modelsLoadedMsg{provider: provider, models: models, err: err}
	}
}

func (s *Settings) complete() tea.Cmd {
	result := s.Result()
	return func() tea.Msg { return result }
}

// Result returns the values chosen so far
func (s *Settings) Result() CompleteMsg {
	instruction := ""
	if s.mode == textproc.CustomMode {
		instruction = strings.TrimSpace(s.instruction)
	}
	return CompleteMsg{
		Mode:        s.mode,
		Provider:    s.provider,
		Model:       s.model,
		Instruction: instruction,
	}
}

// View implements tea.Model
func (s *Settings) View() string {
	var sb strings.Builder

	sb.WriteString(s.renderProgress())
	sb.WriteString("\n\n")

	switch {
	case s.loading:
		sb.WriteString(styles.Subtitle.Render("Loading models for " + s.provider + "..."))
	default:
		if s.err != nil {
			sb.WriteString(styles.StatusCritical.Render("Error: " + s.err.Error()))
			sb.WriteString("\n\n")
		}
		sb.WriteString(s.form.View())
	}
	return sb.String()
}

// renderProgress renders the step progress indicator
func (s *Settings) renderProgress() string {
	width := max(s.width-1, 60)

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary)

	var steps []string
	for i, name := range stepNames {
		stepNum := i + 1
		var indicator string
		var nameStyle lipgloss.Style

		switch {
		case stepNum == 3 && s.mode != textproc.CustomMode:
			indicator = lipgloss.NewStyle().Foreground(styles.Surface).Render("–")
			nameStyle = lipgloss.NewStyle().Foreground(styles.Surface)
		case stepNum < s.step:
			indicator = lipgloss.NewStyle().Foreground(styles.Secondary).Render(icons.CheckOK.String())
			nameStyle = lipgloss.NewStyle().Foreground(styles.Muted)
		case stepNum == s.step:
			indicator = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true).Render("●")
			nameStyle = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
		default:
			indicator = lipgloss.NewStyle().Foreground(styles.Muted).Render("○")
			nameStyle = lipgloss.NewStyle().Foreground(styles.Muted)
		}

		steps = append(steps, fmt.Sprintf("%s %s", indicator, nameStyle.Render(name)))
	}
	stepsLine := strings.Join(steps, "    ")

	// "┌─ " + title + " " + fill + "┐"
	title := "Settings"
	topBorder := "┌─ " + titleStyle.Render(title) + " " + strings.Repeat("─", max(0, width-5-lipgloss.Width(title))) + "┐"

	// "│ " + content + padding + " │"
	stepsPadding := max(0, width-4-lipgloss.Width(stepsLine))
	stepsLinePadded := "│ " + stepsLine + strings.Repeat(" ", stepsPadding) + " │"

	bottomBorder := "└" + strings.Repeat("─", width-2) + "┘"

	return borderStyle.Render(strings.Join([]string{
		topBorder,
		stepsLinePadded,
		bottomBorder,
	}, "\n"))
}

// SetWidth sets the settings width for proper rendering
func (s *Settings) SetWidth(width int) {
	s.width = width
}

func validateInstruction(v string) error {
	if strings.TrimSpace(v) == "" {
		return fmt.Errorf("an instruction is required for the custom mode")
	}
	return nil
}

// createTheme returns the huh theme matching the TUI palette
func createTheme() *huh.Theme {
	t := huh.ThemeBase()

	gray := lipgloss.Color("#9CA3AF")
	grayLight := lipgloss.Color("#E5E7EB")
	red := lipgloss.Color("#F87171")

	t.Group.Title = lipgloss.NewStyle().
		Foreground(styles.Primary).
		Bold(true).
		MarginBottom(1)
	t.Group.Description = lipgloss.NewStyle().
		Foreground(gray).
		MarginBottom(1)

	t.Focused.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.ThickBorder()).
		BorderLeft(true).
		BorderForeground(styles.Primary)
	t.Focused.Title = lipgloss.NewStyle().
		Foreground(styles.Accent).
		Bold(true)
	t.Focused.Description = lipgloss.NewStyle().
		Foreground(gray)
	t.Focused.ErrorIndicator = lipgloss.NewStyle().
		Foreground(red).
		SetString(" *")
	t.Focused.ErrorMessage = lipgloss.NewStyle().
		Foreground(red)

	t.Focused.SelectSelector = lipgloss.NewStyle().
		Foreground(styles.Primary).
		SetString("> ")
	t.Focused.Option = lipgloss.NewStyle().
		Foreground(grayLight)
	t.Focused.SelectedOption = lipgloss.NewStyle().
		Foreground(styles.Accent).
		Bold(true)

	t.Focused.TextInput.Cursor = lipgloss.NewStyle().
		Foreground(styles.Primary)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().
		Foreground(gray)
	t.Focused.TextInput.Text = lipgloss.NewStyle().
		Foreground(grayLight)

	t.Blurred = t.Focused
	t.Blurred.Base = lipgloss.NewStyle().
		PaddingLeft(1).
		BorderStyle(lipgloss.HiddenBorder()).
		BorderLeft(true)
	t.Blurred.Title = lipgloss.NewStyle().
		Foreground(gray)
	t.Blurred.SelectSelector = lipgloss.NewStyle().
		Foreground(gray).
		SetString("  ")
	t.Blurred.Option = lipgloss.NewStyle().
		Foreground(gray)

	return t
}
