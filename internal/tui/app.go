// ABOUTME: Root bubbletea model for the TUI application
// ABOUTME: Manages screen state, routes keys to child components and bridges core state

package tui

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/korrekturleser-cli/internal/client"
	"github.com/markalston/korrekturleser-cli/internal/logger"
	"github.com/markalston/korrekturleser-cli/internal/navigation"
	"github.com/markalston/korrekturleser-cli/internal/render"
	"github.com/markalston/korrekturleser-cli/internal/services"
	"github.com/markalston/korrekturleser-cli/internal/session"
	"github.com/markalston/korrekturleser-cli/internal/textproc"
	"github.com/markalston/korrekturleser-cli/internal/tui/editor"
	"github.com/markalston/korrekturleser-cli/internal/tui/filepicker"
	"github.com/markalston/korrekturleser-cli/internal/tui/icons"
	"github.com/markalston/korrekturleser-cli/internal/tui/login"
	"github.com/markalston/korrekturleser-cli/internal/tui/recentfiles"
	"github.com/markalston/korrekturleser-cli/internal/tui/settings"
	"github.com/markalston/korrekturleser-cli/internal/tui/stats"
	"github.com/markalston/korrekturleser-cli/internal/tui/styles"
)

// Screen represents the current TUI screen
type Screen int

const (
	ScreenStartup Screen = iota
	ScreenLogin
	ScreenText
	ScreenStats
	ScreenSettings
	ScreenOpen
)

// Layout constants
const (
	minTerminalWidth = 80 // Frame never renders narrower than this
	frameLines       = 2  // Header and footer
	noticeDuration   = 3 * time.Second
)

const sessionExpired = "Session expired, please log in again"

// copyToClipboard is replaced in tests
var copyToClipboard = clipboard.WriteAll

// stateChangedMsg signals that session or text state changed
type stateChangedMsg struct{}

// routeResolvedMsg carries the screen the guard allowed
type routeResolvedMsg struct {
	route navigation.Route
}

// loginDoneMsg is sent when a login attempt finished
type loginDoneMsg struct {
	err error
}

// configLoadedMsg is sent when providers, models and modes were fetched
type configLoadedMsg struct {
	err error
}

// submitDoneMsg is sent when a text request finished
type submitDoneMsg struct {
	err error
}

// statsLoadedMsg is sent when usage statistics arrived
type statsLoadedMsg struct {
	usage *client.UsageStatsResponse
	err   error
}

// settingsAppliedMsg is sent when a provider change finished
type settingsAppliedMsg struct {
	err error
}

// clearNoticeMsg hides the status notice with the given sequence number
type clearNoticeMsg struct {
	seq int
}

// App is the root model for the TUI
type App struct {
	svc      *services.Services
	renderer *render.Terminal
	ctx      context.Context
	cancel   context.CancelFunc

	screen   Screen
	width    int
	height   int
	keys     keyMap
	help     help.Model
	showHelp bool

	session      session.State
	text         textproc.State
	configLoaded bool
	noticeSeq    int

	// Child models
	login    *login.Login
	editor   *editor.Editor
	stats    *stats.Stats
	settings *settings.Settings
	picker   *filepicker.FilePicker
	recent   *recentfiles.List

	changes chan struct{}
	unsubs  []func()
}

// New creates the TUI application. renderer may be nil when output is not
// rendered for the terminal.
func New(svc *services.Services, renderer *render.Terminal) *App {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		svc:      svc,
		renderer: renderer,
		ctx:      ctx,
		cancel:   cancel,
		screen:   ScreenStartup,
		keys:     newKeyMap(),
		help:     help.New(),
		login:    login.New(),
		editor:   editor.New(),
		recent:   recentfiles.New(),
		changes:  make(chan struct{}, 1),
	}

	notify := func() {
		select {
		case a.changes <- struct{}{}:
		default:
		}
	}
	a.unsubs = append(a.unsubs,
		svc.Session.Subscribe(func(session.State) { notify() }),
		svc.Text.Subscribe(func(textproc.State) { notify() }),
	)
	a.syncState()
	return a
}

// Close stops background work and detaches from the core
func (a *App) Close() {
	a.cancel()
	for _, unsub := range a.unsubs {
		unsub()
	}
	a.unsubs = nil
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.navigate(navigation.RouteText), a.waitForChange())
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resize()
		if a.settings != nil {
			return a.updateSettings(msg)
		}
		return a, nil

	case tea.KeyMsg:
		if key.Matches(msg, a.keys.Quit) {
			return a, tea.Quit
		}

		switch a.screen {
		case ScreenLogin:
			return a.updateLogin(msg)
		case ScreenText:
			return a.updateText(msg)
		case ScreenStats:
			return a.updateStats(msg)
		case ScreenSettings:
			return a.updateSettings(msg)
		case ScreenOpen:
			return a.updatePicker(msg)
		}
		return a, nil

	case stateChangedMsg:
		cmd := a.syncState()
		return a, tea.Batch(cmd, a.checkSession(), a.waitForChange())

	case routeResolvedMsg:
		return a, a.enterRoute(msg.route)

	case login.SubmitMsg:
		cmd := a.login.SetLoading(true)
		return a, tea.Batch(cmd, a.doLogin(msg.Secret))

	case loginDoneMsg:
		a.syncState()
		a.login.SetLoading(false)
		if msg.err != nil {
			a.login.SetError(loginError(a.session, msg.err))
			return a, nil
		}
		return a, a.navigate(navigation.RouteText)

	case configLoadedMsg:
		a.syncState()
		if msg.err != nil {
			slog.Warn("Loading configuration failed", "error", msg.err)
			return a, a.checkSession()
		}
		a.configLoaded = true
		return a, nil

	case submitDoneMsg:
		a.syncState()
		if msg.err != nil {
			return a, a.checkSession()
		}
		// Counters in the header come from /me
		return a, a.refreshSession()

	case statsLoadedMsg:
		if a.stats != nil {
			a.stats.SetData(msg.usage, msg.err)
		}
		if msg.err != nil {
			return a, a.checkSession()
		}
		return a, nil

	case settings.CompleteMsg:
		a.settings = nil
		a.screen = ScreenText
		return a, a.applySettings(msg)

	case settings.CancelledMsg:
		a.settings = nil
		a.screen = ScreenText
		return a, nil

	case filepicker.FileSelectedMsg:
		a.picker = nil
		a.screen = ScreenText
		return a, a.loadFile(msg)

	case filepicker.CancelledMsg:
		a.picker = nil
		a.screen = ScreenText
		return a, nil

	case settingsAppliedMsg:
		a.syncState()
		if msg.err != nil {
			slog.Warn("Changing provider failed", "error", msg.err)
			return a, a.checkSession()
		}
		return a, nil

	case clearNoticeMsg:
		if msg.seq == a.noticeSeq {
			a.editor.SetNotice("")
		}
		return a, nil

	default:
		switch a.screen {
		case ScreenSettings:
			// huh forms need their internal messages
			return a.updateSettings(msg)
		case ScreenOpen:
			return a.updatePicker(msg)
		case ScreenLogin:
			_, cmd := a.login.Update(msg)
			return a, cmd
		case ScreenText:
			return a, a.editor.Update(msg)
		case ScreenStats:
			if a.stats != nil {
				return a, a.stats.Update(msg)
			}
		}
	}

	return a, nil
}

func (a *App) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	_, cmd := a.login.Update(msg)
	return a, cmd
}

func (a *App) updateText(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.showHelp && !key.Matches(msg, a.keys.Help) {
		a.showHelp = false
		return a, nil
	}

	switch {
	case key.Matches(msg, a.keys.Help):
		a.showHelp = !a.showHelp
		return a, nil

	case key.Matches(msg, a.keys.Submit):
		return a, a.submit()

	case key.Matches(msg, a.keys.Clear):
		a.svc.Text.ClearOutput()
		a.syncState()
		return a, nil

	case key.Matches(msg, a.keys.Transfer):
		a.pushInput()
		a.svc.Text.TransferOutputToInput()
		a.syncState()
		return a, nil

	case key.Matches(msg, a.keys.Reset):
		a.pushInput()
		a.svc.Text.ClearAll()
		a.syncState()
		return a, nil

	case key.Matches(msg, a.keys.NextMode):
		a.pushInput()
		a.svc.Text.NextMode()
		a.syncState()
		return a, nil

	case key.Matches(msg, a.keys.Copy):
		return a, a.copyOutput()

	case key.Matches(msg, a.keys.Settings):
		return a, a.openSettings()

	case key.Matches(msg, a.keys.Open):
		return a, a.openPicker()

	case key.Matches(msg, a.keys.Stats):
		return a, a.navigate(navigation.RouteStats)

	case key.Matches(msg, a.keys.Logout):
		return a, a.logout()
	}

	return a, a.editor.Update(msg)
}

func (a *App) updateStats(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Back):
		a.stats = nil
		return a, a.navigate(navigation.RouteText)
	case key.Matches(msg, a.keys.Refresh):
		if a.stats != nil {
			a.stats.SetData(nil, nil)
		}
		return a, a.loadStats()
	}
	if a.stats != nil {
		return a, a.stats.Update(msg)
	}
	return a, nil
}

func (a *App) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.picker == nil {
		return a, nil
	}
	_, cmd := a.picker.Update(msg)
	return a, cmd
}

func (a *App) updateSettings(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.settings == nil {
		return a, nil
	}
	_, cmd := a.settings.Update(msg)
	return a, cmd
}

// navigate asks the guard for target. Resolving may restore a stored
// session, so it runs off the update loop.
func (a *App) navigate(target navigation.Route) tea.Cmd {
	return func() tea.Msg {
		return routeResolvedMsg{route: a.svc.Guard.Resolve(a.ctx, target)}
	}
}

// enterRoute switches to the screen for route
func (a *App) enterRoute(route navigation.Route) tea.Cmd {
	a.syncState()
	a.showHelp = false

	switch route {
	case navigation.RouteLogin:
		a.screen = ScreenLogin
		a.login.Reset()
		if a.session.LastError != "" {
			a.login.SetError(a.session.LastError)
		}
		return a.login.Init()

	case navigation.RouteStats:
		a.screen = ScreenStats
		a.stats = stats.New(a.displayName(), a.width, a.contentHeight())
		return a.loadStats()

	default:
		a.screen = ScreenText
		cmds := []tea.Cmd{a.editor.Init()}
		if !a.configLoaded {
			cmds = append(cmds, a.loadConfig())
		}
		return tea.Batch(cmds...)
	}
}

// checkSession returns to the login screen when the session ended while
// the user was elsewhere, typically after a 401.
func (a *App) checkSession() tea.Cmd {
	if a.screen == ScreenLogin || a.screen == ScreenStartup || a.svc.Session.IsAuthenticated() {
		return nil
	}
	slog.Info("Session ended, returning to login")
	a.leaveSession()
	cmd := a.enterRoute(navigation.RouteLogin)
	a.login.SetError(sessionExpired)
	return cmd
}

func (a *App) logout() tea.Cmd {
	a.svc.Session.Logout()
	a.leaveSession()
	return a.enterRoute(navigation.RouteLogin)
}

// pushInput hands the typed text to the orchestrator before it acts on it
func (a *App) pushInput() {
	a.svc.Text.SetInput(a.editor.Input())
	a.syncState()
}

// leaveSession drops per-user screen state
func (a *App) leaveSession() {
	a.svc.Text.Reset()
	a.configLoaded = false
	a.stats = nil
	a.settings = nil
	a.picker = nil
	a.syncState()
}

func (a *App) doLogin(secret string) tea.Cmd {
	return func() tea.Msg {
		return loginDoneMsg{err: a.svc.Session.Login(a.ctx, secret)}
	}
}

func (a *App) refreshSession() tea.Cmd {
	return func() tea.Msg {
		if err := a.svc.Session.Refresh(a.ctx); err != nil {
			slog.Debug("Refreshing user failed", "error", err)
		}
		// Subscribers already heard about the new counters
		return nil
	}
}

func (a *App) loadConfig() tea.Cmd {
	return func() tea.Msg {
		return configLoadedMsg{err: a.svc.Text.LoadConfig(a.ctx)}
	}
}

func (a *App) loadStats() tea.Cmd {
	return func() tea.Msg {
		usage, err := a.svc.Client.Stats(a.ctx)
		return statsLoadedMsg{usage: usage, err: err}
	}
}

// submit hands the typed text to the orchestrator and sends it
func (a *App) submit() tea.Cmd {
	a.pushInput()
	return func() tea.Msg {
		return submitDoneMsg{err: a.svc.Text.Submit(a.ctx)}
	}
}

func (a *App) copyOutput() tea.Cmd {
	output := a.text.OutputText
	if output == "" {
		return a.showNotice("Nothing to copy")
	}
	if err := copyToClipboard(output); err != nil {
		slog.Warn("Copying to clipboard failed", "error", err)
		return a.showNotice("Copy failed")
	}
	return a.showNotice(icons.Copy.String() + " Copied")
}

// showNotice shows notice in the status line for a moment
func (a *App) showNotice(notice string) tea.Cmd {
	a.noticeSeq++
	seq := a.noticeSeq
	a.editor.SetNotice(notice)
	return tea.Tick(noticeDuration, func(time.Time) tea.Msg {
		return clearNoticeMsg{seq: seq}
	})
}

func (a *App) openSettings() tea.Cmd {
	a.pushInput()
	a.settings = settings.New(a.text, a.listModels)
	a.settings.SetWidth(a.width)
	a.screen = ScreenSettings
	return a.settings.Init()
}

func (a *App) openPicker() tea.Cmd {
	a.pushInput()
	a.picker = filepicker.New(a.recent.Paths())
	a.picker.SetWidth(a.frameWidth())
	a.screen = ScreenOpen
	return a.picker.Init()
}

// loadFile replaces the input with the file text and remembers the file
func (a *App) loadFile(msg filepicker.FileSelectedMsg) tea.Cmd {
	a.recent.Add(msg.Path)
	a.svc.Text.SetInput(msg.Text)
	slog.Debug("Loaded file into input", "path", msg.Path, "bytes", len(msg.Text))
	return tea.Batch(a.syncState(), a.showNotice(icons.File.String()+" "+filepath.Base(msg.Path)))
}

// listModels backs the settings model step
func (a *App) listModels(ctx context.Context, provider string) ([]string, error) {
	cfg, err := a.svc.Client.Config(ctx, provider)
	if err != nil {
		return nil, err
	}
	return cfg.Models, nil
}

// applySettings writes the chosen settings into the orchestrator. A
// provider change reloads models, so it runs as a command.
func (a *App) applySettings(msg settings.CompleteMsg) tea.Cmd {
	if err := a.svc.Text.SetMode(msg.Mode); err != nil {
		slog.Warn("Ignoring unknown mode", "mode", msg.Mode, "error", err)
	}
	if msg.Mode == textproc.CustomMode {
		a.svc.Text.SetCustomInstruction(msg.Instruction)
	}
	a.syncState()

	if msg.Provider == "" || msg.Provider == a.text.SelectedProvider {
		if msg.Model != "" {
			a.svc.Text.SetModel(msg.Model)
			a.syncState()
		}
		return nil
	}

	return func() tea.Msg {
		err := a.svc.Text.ChangeProvider(a.ctx, msg.Provider)
		if err == nil && msg.Model != "" {
			a.svc.Text.SetModel(msg.Model)
		}
		return settingsAppliedMsg{err: err}
	}
}

// syncState copies the core state into the screens. The returned command
// starts the spinner when a request began.
func (a *App) syncState() tea.Cmd {
	a.session = a.svc.Session.State()
	a.text = a.svc.Text.State()
	return a.editor.SetState(a.text)
}

func (a *App) waitForChange() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-a.changes:
			return stateChangedMsg{}
		case <-a.ctx.Done():
			return nil
		}
	}
}

// resize lays out the screens and re-renders output for the new width
func (a *App) resize() {
	a.login.SetWidth(a.width)
	a.editor.SetSize(a.frameWidth(), a.contentHeight())
	if a.stats != nil {
		a.stats.SetSize(a.frameWidth(), a.contentHeight())
	}
	if a.settings != nil {
		a.settings.SetWidth(a.frameWidth())
	}
	if a.picker != nil {
		a.picker.SetWidth(a.frameWidth())
	}
	if a.renderer != nil && a.renderer.Width() != a.editor.OutputWidth() {
		a.renderer.SetWidth(a.editor.OutputWidth())
		a.svc.Text.Redisplay()
		a.syncState()
	}
}

// View implements tea.Model
func (a *App) View() string {
	var content string

	switch a.screen {
	case ScreenStartup:
		content = styles.Subtitle.Render("Checking session...")
	case ScreenLogin:
		content = a.login.View()
	case ScreenText:
		content = a.viewText()
	case ScreenStats:
		if a.stats != nil {
			content = a.stats.View()
		}
	case ScreenSettings:
		if a.settings != nil {
			content = a.settings.View()
		}
	case ScreenOpen:
		if a.picker != nil {
			content = a.picker.View()
		}
	}

	return a.wrapWithFrame(content)
}

func (a *App) viewText() string {
	if a.showHelp {
		a.help.ShowAll = true
		a.help.Width = a.frameWidth()
		return styles.ActivePanel.Render(
			styles.Title.Render(icons.Info.String()+" Keys") + "\n" + a.help.View(a.keys))
	}
	return a.editor.View()
}

// frameWidth is the drawn frame width. One column is left free to prevent
// wrapping on some terminals.
func (a *App) frameWidth() int {
	return max(a.width-1, minTerminalWidth)
}

// contentHeight is the height between header and footer
func (a *App) contentHeight() int {
	return max(a.height-frameLines, 10)
}

func (a *App) displayName() string {
	if a.session.User == nil {
		return ""
	}
	return a.session.User.DisplayName
}

// renderHeader creates the header bar with app branding and the user
func (a *App) renderHeader() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	leftText := fmt.Sprintf(" %s %s ", icons.App.String(), titleStyle.Render("Korrekturleser"))

	rightText := ""
	if u := a.session.User; u != nil && a.screen != ScreenLogin {
		rightText = " " + contextStyle.Render(fmt.Sprintf("%s %s  %s %d  %s %d",
			icons.User.String(), u.DisplayName,
			icons.Requests.String(), u.RequestCount,
			icons.Tokens.String(), u.TokenCount)) + " "
	}

	leftWidth := lipgloss.Width(leftText)
	rightWidth := lipgloss.Width(rightText)
	fillWidth := max(width-4-leftWidth-rightWidth, 0) // -4 for ╭─ and ─╮

	header := "╭─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╮"

	return borderStyle.Render(header)
}

// renderFooter creates the footer with keyboard shortcuts and the backend host
func (a *App) renderFooter() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	keyStyle := lipgloss.NewStyle().Foreground(styles.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	statusStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	var styled, plain []string
	for _, b := range a.keys.shortcuts(a.screen) {
		h := b.Help()
		styled = append(styled, keyStyle.Render(h.Key)+" "+labelStyle.Render(h.Desc))
		plain = append(plain, h.Key+" "+h.Desc)
	}

	leftText := " " + strings.Join(styled, "  ") + " "
	leftPlainText := " " + strings.Join(plain, "  ") + " "

	rightText, rightPlainText := "", ""
	if host := a.backendHost(); host != "" {
		rightText = " " + statusStyle.Render(host) + " "
		rightPlainText = " " + host + " "
	}

	leftWidth := lipgloss.Width(leftPlainText)
	rightWidth := lipgloss.Width(rightPlainText)
	if width-4-leftWidth-rightWidth < 0 {
		rightText, rightWidth = "", 0
	}
	fillWidth := max(width-4-leftWidth-rightWidth, 0) // -4 for ╰─ and ─╯

	footer := "╰─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╯"

	return borderStyle.Render(footer)
}

func (a *App) backendHost() string {
	u, err := url.Parse(a.svc.Client.BaseURL())
	if err != nil {
		return ""
	}
	return u.Host
}

// wrapWithFrame wraps content with header and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())

	return sb.String()
}

// loginError picks the message shown under the login form
func loginError(state session.State, err error) string {
	if state.LastError != "" {
		return state.LastError
	}
	return err.Error()
}

// Run starts the TUI. Logs go to the debug log in the config directory so
// they never draw over the alternate screen.
func Run(svc *services.Services, renderer *render.Terminal) error {
	f, err := logger.OpenFile(svc.Config.ConfigDir)
	if err != nil {
		return fmt.Errorf("opening debug log: %w", err)
	}
	defer f.Close()
	logger.Init(f, svc.Config.LogLevel, svc.Config.LogFormat)

	app := New(svc, renderer)
	defer app.Close()

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
	)
	_, err = p.Run()
	return err
}
