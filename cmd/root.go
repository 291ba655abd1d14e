// ABOUTME: Root command for the korrekturleser CLI
// ABOUTME: Handles global flags, configuration loading and logging setup

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/markalston/korrekturleser-cli/internal/client"
	"github.com/markalston/korrekturleser-cli/internal/config"
	"github.com/markalston/korrekturleser-cli/internal/logger"
	"github.com/markalston/korrekturleser-cli/internal/navigation"
	"github.com/markalston/korrekturleser-cli/internal/render"
	"github.com/markalston/korrekturleser-cli/internal/services"
	"github.com/markalston/korrekturleser-cli/internal/textproc"
)

// Exit codes shared by all commands
const (
	exitOK              = 0
	exitUnauthenticated = 1
	exitError           = 2
)

var (
	apiURL     string
	configDir  string
	jsonOutput bool
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "korrekturleser",
	Short: "CLI for the Korrekturleser text correction service",
	Long: `korrekturleser corrects, improves, summarizes and translates text through a
Korrekturleser backend, from the command line or an interactive terminal UI.

Exit codes:
  0 - Success
  1 - Not authenticated (run "korrekturleser login")
  2 - Error (connectivity, invalid input, backend failure)

Environment Variables:
  KORREKTURLESER_API_URL           Backend API URL (required)
  KORREKTURLESER_TEXT_PATH         Text endpoint path (default: /api/text/)
  KORREKTURLESER_CONFIG_DIR        Token and settings directory
  KORREKTURLESER_HTTP_TIMEOUT      Request timeout in seconds (default: 120)
  KORREKTURLESER_CONFIG_CACHE_TTL  Model list cache in seconds (default: 300)
  KORREKTURLESER_SECRET            Secret used by login when no flag is given
  LOG_LEVEL                        debug, info, warn, error (default: info)
  LOG_FORMAT                       text, json (default: text)`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides KORREKTURLESER_API_URL)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Token and settings directory (overrides KORREKTURLESER_CONFIG_DIR)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}

// loadConfig reads configuration with flags taking priority over the environment
func loadConfig() (*config.Config, error) {
	return config.Load(
		config.WithAPIURL(apiURL),
		config.WithConfigDir(configDir),
	)
}

// buildServices loads configuration, sets up stderr logging and wires the core
func buildServices(renderer textproc.Renderer) (*services.Services, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger.Init(os.Stderr, cfg.LogLevel, cfg.LogFormat)
	return services.New(cfg, renderer)
}

// runWithServices is the common Run body: it builds the core, runs fn with a
// signal-aware context and exits with fn's code.
func runWithServices(renderer textproc.Renderer, fn func(ctx context.Context, svc *services.Services, w io.Writer) int) {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	svc, err := buildServices(renderer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitError)
	}

	exitCode := fn(ctx, svc, os.Stdout)
	if exitCode != exitOK {
		os.Exit(exitCode)
	}
}

const notLoggedIn = `Not logged in. Run "korrekturleser login" first.`

// requireSession resolves the text route and returns exitOK when the session
// is usable. A stored token that could not be checked is an error, not a
// logout.
func requireSession(ctx context.Context, svc *services.Services, w io.Writer) int {
	if svc.Guard.Resolve(ctx, navigation.RouteText) == navigation.RouteText {
		return exitOK
	}
	if msg := svc.Session.State().LastError; msg != "" && svc.Session.HasToken() {
		fmt.Fprintf(w, "Error: %s\n", msg)
		return exitError
	}
	fmt.Fprintln(w, notLoggedIn)
	return exitUnauthenticated
}

// exitCodeFor maps an error to the CLI exit code
func exitCodeFor(err error) int {
	if errors.Is(err, client.ErrAuthentication) {
		return exitUnauthenticated
	}
	return exitError
}

// exitCodeAfter maps a failure of a command that needed a session. Any 401
// ends the session, whatever error kind the endpoint reports.
func exitCodeAfter(svc *services.Services, err error) int {
	if !svc.Session.IsAuthenticated() {
		return exitUnauthenticated
	}
	return exitCodeFor(err)
}

// defaultRenderer is used by commands that do not display results
func defaultRenderer() textproc.Renderer {
	return render.NewHTML()
}
