// ABOUTME: Text-processing orchestrator holding input, output and selections
// ABOUTME: Submits text for improvement and derives the diff, markdown or plain display

package textproc

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/markalston/korrekturleser-cli/internal/client"
	"github.com/markalston/korrekturleser-cli/internal/config"
)

// CustomMode sends the user's own instruction along with the text
const CustomMode = "custom"

// fallbackError is shown when a failure carries no message
const fallbackError = "text processing failed"

// ErrUnknownMode is returned by SetMode for modes outside the mode list
var ErrUnknownMode = errors.New("unknown mode")

// API is the part of the backend the orchestrator needs
type API interface {
	ImproveText(ctx context.Context, req *client.TextRequest) (*client.TextResponse, error)
	Config(ctx context.Context, provider string) (*client.ConfigResponse, error)
	Modes(ctx context.Context) (*client.ModesResponse, error)
}

// Renderer turns a result into displayable content
type Renderer interface {
	Diff(original, improved string) string
	Markdown(src string) (string, error)
}

// DisplayKind says how OutputText is presented
type DisplayKind string

const (
	DisplayNone     DisplayKind = ""
	DisplayPlain    DisplayKind = "plain"
	DisplayDiff     DisplayKind = "diff"
	DisplayMarkdown DisplayKind = "markdown"
)

// Display is the rendered form of the output
type Display struct {
	Kind    DisplayKind
	Content string
}

// State is a snapshot of the orchestrator
type State struct {
	Mode              string
	InputText         string
	OutputText        string
	CustomInstruction string

	SelectedModel      string
	SelectedProvider   string
	AvailableModels    []string
	AvailableProviders []string
	Modes              []config.Mode

	Display    Display
	LastResult *client.TextResponse
	Error      string
	Pending    bool
}

// ProviderDisclaimer warns that the provider may use submitted text
const ProviderDisclaimer = "Gemini may use submitted text to improve Google products. Do not submit confidential text."

// ShowsProviderDisclaimer reports whether the selected provider may use
// submitted text for training. Without a selection the provider that
// answered the last request counts.
func (s State) ShowsProviderDisclaimer() bool {
	provider := s.SelectedProvider
	if provider == "" && s.LastResult != nil {
		provider = s.LastResult.Provider
	}
	return strings.EqualFold(provider, "gemini")
}

// Orchestrator owns text-processing state. It has no in-flight guard:
// overlapping submissions are allowed and the last response wins.
type Orchestrator struct {
	api          API
	renderer     Renderer
	presentation *config.Presentation

	mu        sync.Mutex
	state     State
	submitted string // input of the most recent successful submission
	inFlight  int
	listeners map[int]func(State)
	nextID    int
}

// New creates an orchestrator in the presentation's default mode
func New(api API, renderer Renderer, presentation *config.Presentation) *Orchestrator {
	if presentation == nil {
		presentation = config.DefaultPresentation()
	}
	return &Orchestrator{
		api:          api,
		renderer:     renderer,
		presentation: presentation,
		state: State{
			Mode:  presentation.DefaultMode,
			Modes: slices.Clone(presentation.Modes),
		},
		listeners: make(map[int]func(State)),
	}
}

// Submit sends the current input for improvement. Empty input is a no-op.
func (o *Orchestrator) Submit(ctx context.Context) error {
	o.mu.Lock()
	if o.state.InputText == "" {
		o.mu.Unlock()
		return nil
	}

	req := &client.TextRequest{
		Text:     o.state.InputText,
		Mode:     o.state.Mode,
		Model:    o.state.SelectedModel,
		Provider: o.state.SelectedProvider,
	}
	if req.Mode == CustomMode {
		req.CustomInstruction = o.state.CustomInstruction
	}

	o.clearOutputLocked()
	o.inFlight++
	o.state.Pending = true
	o.notifyAndUnlock()

	slog.Debug("Submitting text", "mode", req.Mode, "model", req.Model, "provider", req.Provider, "chars", len(req.Text))
	result, err := o.api.ImproveText(ctx, req)

	o.mu.Lock()
	o.inFlight--
	o.state.Pending = o.inFlight > 0
	if err != nil {
		slog.Info("Text processing failed", "error", err)
		o.state.OutputText = ""
		o.state.Display = Display{}
		o.state.LastResult = nil
		o.state.Error = errorMessage(err)
		o.notifyAndUnlock()
		return err
	}

	o.state.OutputText = result.TextAI
	o.state.LastResult = result
	o.state.Error = ""
	o.submitted = req.Text
	o.state.Display = o.deriveDisplayLocked()
	o.notifyAndUnlock()
	return nil
}

// SetInput replaces the input text
func (o *Orchestrator) SetInput(text string) {
	o.mu.Lock()
	o.state.InputText = text
	o.notifyAndUnlock()
}

// SetMode selects a mode from the mode list. An existing result is
// redisplayed for the new mode.
func (o *Orchestrator) SetMode(mode string) error {
	o.mu.Lock()
	if !containsMode(o.state.Modes, mode) {
		o.mu.Unlock()
		return ErrUnknownMode
	}
	o.state.Mode = mode
	if o.state.OutputText != "" {
		o.state.Display = o.deriveDisplayLocked()
	}
	o.notifyAndUnlock()
	return nil
}

// NextMode cycles to the mode after the current one
func (o *Orchestrator) NextMode() string {
	o.mu.Lock()
	modes := o.state.Modes
	if len(modes) == 0 {
		mode := o.state.Mode
		o.mu.Unlock()
		return mode
	}
	idx := slices.IndexFunc(modes, func(m config.Mode) bool { return m.ID == o.state.Mode })
	next := modes[(idx+1)%len(modes)].ID
	o.mu.Unlock()

	o.SetMode(next)
	return next
}

// SetModel selects a model; empty means server default
func (o *Orchestrator) SetModel(model string) {
	o.mu.Lock()
	o.state.SelectedModel = model
	o.notifyAndUnlock()
}

// SetProvider selects a provider without refetching models
func (o *Orchestrator) SetProvider(provider string) {
	o.mu.Lock()
	o.state.SelectedProvider = provider
	o.notifyAndUnlock()
}

// SetCustomInstruction sets the instruction sent in custom mode
func (o *Orchestrator) SetCustomInstruction(instruction string) {
	o.mu.Lock()
	o.state.CustomInstruction = instruction
	o.notifyAndUnlock()
}

// TransferOutputToInput moves the output into the input field
func (o *Orchestrator) TransferOutputToInput() {
	o.mu.Lock()
	o.state.InputText = o.state.OutputText
	o.state.OutputText = ""
	o.state.Display = Display{}
	o.notifyAndUnlock()
}

// ClearOutput drops the result and any error
func (o *Orchestrator) ClearOutput() {
	o.mu.Lock()
	o.clearOutputLocked()
	o.notifyAndUnlock()
}

// ClearAll clears input and output and restores the default mode
func (o *Orchestrator) ClearAll() {
	o.mu.Lock()
	o.state.InputText = ""
	o.state.CustomInstruction = ""
	o.clearOutputLocked()
	o.state.Mode = o.defaultModeLocked()
	o.notifyAndUnlock()
}

// Reset is ClearAll
func (o *Orchestrator) Reset() {
	o.ClearAll()
}

// LoadConfig fetches providers, models and modes in parallel and selects
// the first model and provider when none is selected.
func (o *Orchestrator) LoadConfig(ctx context.Context) error {
	o.mu.Lock()
	provider := o.state.SelectedProvider
	o.mu.Unlock()

	var (
		cfg   *client.ConfigResponse
		modes *client.ModesResponse
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		cfg, err = o.api.Config(gctx, provider)
		return err
	})
	g.Go(func() error {
		// Older backends have no modes endpoint; the configured list stays.
		m, err := o.api.Modes(gctx)
		if err != nil {
			slog.Debug("Mode list unavailable", "error", err)
			return nil
		}
		modes = m
		return nil
	})
	if err := g.Wait(); err != nil {
		slog.Warn("Failed to load models", "error", err)
		o.mu.Lock()
		o.state.Error = "failed to load models"
		o.notifyAndUnlock()
		return err
	}

	o.mu.Lock()
	o.state.AvailableModels = cfg.Models
	o.state.AvailableProviders = cfg.Providers
	if o.state.SelectedModel == "" && len(cfg.Models) > 0 {
		o.state.SelectedModel = cfg.Models[0]
	}
	if o.state.SelectedProvider == "" && len(cfg.Providers) > 0 {
		o.state.SelectedProvider = cfg.Providers[0]
	}
	if modes != nil && len(modes.Modes) > 0 {
		o.state.Modes = o.modesFromBackend(modes)
		if !containsMode(o.state.Modes, o.state.Mode) {
			o.state.Mode = o.defaultModeLocked()
		}
	}
	o.notifyAndUnlock()
	return nil
}

// ChangeProvider selects provider, refetches its models and selects the
// first one.
func (o *Orchestrator) ChangeProvider(ctx context.Context, provider string) error {
	o.SetProvider(provider)

	cfg, err := o.api.Config(ctx, provider)
	if err != nil {
		slog.Warn("Failed to load models", "provider", provider, "error", err)
		o.mu.Lock()
		o.state.Error = "failed to load models"
		o.notifyAndUnlock()
		return err
	}

	o.mu.Lock()
	o.state.AvailableModels = cfg.Models
	if len(cfg.Models) > 0 {
		o.state.SelectedModel = cfg.Models[0]
	}
	o.notifyAndUnlock()
	return nil
}

// Redisplay renders the current output again, for renderers whose
// settings changed.
func (o *Orchestrator) Redisplay() {
	o.mu.Lock()
	if o.state.OutputText == "" {
		o.mu.Unlock()
		return
	}
	o.state.Display = o.deriveDisplayLocked()
	o.notifyAndUnlock()
}

// State returns a snapshot
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.clone()
}

// Subscribe registers fn for every state change. The returned function
// removes it.
func (o *Orchestrator) Subscribe(fn func(State)) func() {
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.listeners[id] = fn
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		delete(o.listeners, id)
		o.mu.Unlock()
	}
}

func (o *Orchestrator) clearOutputLocked() {
	o.state.OutputText = ""
	o.state.Display = Display{}
	o.state.LastResult = nil
	o.state.Error = ""
}

func (o *Orchestrator) deriveDisplayLocked() Display {
	output := o.state.OutputText
	switch {
	case output == "":
		return Display{}
	case o.presentation.IsDiff(o.state.Mode):
		return Display{Kind: DisplayDiff, Content: o.renderer.Diff(o.submitted, output)}
	case o.presentation.IsMarkdown(o.state.Mode):
		rendered, err := o.renderer.Markdown(output)
		if err != nil {
			slog.Warn("Markdown rendering failed", "error", err)
			return Display{Kind: DisplayPlain, Content: output}
		}
		return Display{Kind: DisplayMarkdown, Content: rendered}
	default:
		return Display{Kind: DisplayPlain, Content: output}
	}
}

func (o *Orchestrator) defaultModeLocked() string {
	if containsMode(o.state.Modes, o.presentation.DefaultMode) || len(o.state.Modes) == 0 {
		return o.presentation.DefaultMode
	}
	return o.state.Modes[0].ID
}

// modesFromBackend keeps the backend's order and prefers its descriptions
func (o *Orchestrator) modesFromBackend(resp *client.ModesResponse) []config.Mode {
	modes := make([]config.Mode, 0, len(resp.Modes))
	for _, id := range resp.Modes {
		desc := resp.Descriptions[id]
		if desc == "" {
			desc = o.presentation.Description(id)
		}
		modes = append(modes, config.Mode{ID: id, Description: desc})
	}
	return modes
}

// notifyAndUnlock releases the lock and calls listeners with a snapshot
func (o *Orchestrator) notifyAndUnlock() {
	snapshot := o.state.clone()
	listeners := make([]func(State), 0, len(o.listeners))
	for _, l := range o.listeners {
		listeners = append(listeners, l)
	}
	o.mu.Unlock()

	for _, l := range listeners {
		l(snapshot)
	}
}

func (s State) clone() State {
	s.AvailableModels = slices.Clone(s.AvailableModels)
	s.AvailableProviders = slices.Clone(s.AvailableProviders)
	s.Modes = slices.Clone(s.Modes)
	if s.LastResult != nil {
		r := *s.LastResult
		s.LastResult = &r
	}
	return s
}

func containsMode(modes []config.Mode, id string) bool {
	return slices.ContainsFunc(modes, func(m config.Mode) bool { return m.ID == id })
}

func errorMessage(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fallbackError
}
