// ABOUTME: Builds the client core from configuration and injects its parts
// ABOUTME: Shared by CLI commands and the TUI so both see one session and one token store

package services

import (
	"fmt"
	"log/slog"

	"github.com/markalston/korrekturleser-cli/internal/client"
	"github.com/markalston/korrekturleser-cli/internal/config"
	"github.com/markalston/korrekturleser-cli/internal/navigation"
	"github.com/markalston/korrekturleser-cli/internal/session"
	"github.com/markalston/korrekturleser-cli/internal/textproc"
	"github.com/markalston/korrekturleser-cli/internal/tokenstore"
)

// Services holds the wired core
type Services struct {
	Config       *config.Config
	Presentation *config.Presentation
	Store        tokenstore.Store
	Client       *client.Client
	Session      *session.Manager
	Text         *textproc.Orchestrator
	Guard        *navigation.Guard
}

// Option adjusts construction
type Option func(*options)

type options struct {
	store         tokenstore.Store
	clientOptions []client.Option
}

// WithStore replaces the file token store
func WithStore(store tokenstore.Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithClientOptions appends options for the API client
func WithClientOptions(opts ...client.Option) Option {
	return func(o *options) {
		o.clientOptions = append(o.clientOptions, opts...)
	}
}

// New wires store, client, session, orchestrator and guard for cfg
func New(cfg *config.Config, renderer textproc.Renderer, opts ...Option) (*Services, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	presentation, err := config.LoadPresentation(cfg.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("loading presentation settings: %w", err)
	}

	store := o.store
	if store == nil {
		store = tokenstore.NewFileStore(cfg.ConfigDir)
	}

	s := &Services{
		Config:       cfg,
		Presentation: presentation,
		Store:        store,
	}

	clientOpts := []client.Option{
		client.WithTimeout(cfg.HTTPTimeout),
		client.WithTextPath(cfg.TextPath),
		client.WithConfigCache(cfg.ConfigCacheTTL),
		client.WithTokenSource(session.TokenSupplier(store)),
		// Bound late: the session is created after the client.
		client.WithUnauthorizedHandler(s.handleUnauthorized),
	}
	s.Client = client.New(cfg.APIURL, append(clientOpts, o.clientOptions...)...)
	s.Session = session.New(store, s.Client)
	s.Text = textproc.New(s.Client, renderer, presentation)
	s.Guard = navigation.NewGuard(s.Session)

	slog.Debug("Services ready", "api_url", cfg.APIURL, "config_dir", cfg.ConfigDir)
	return s, nil
}

func (s *Services) handleUnauthorized() {
	if s.Session != nil {
		s.Session.HandleUnauthorized()
	}
}
