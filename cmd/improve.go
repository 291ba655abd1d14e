// ABOUTME: Improve command for the korrekturleser CLI
// ABOUTME: Sends text for correction or rewriting and prints the result in the chosen format

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"

	"github.com/markalston/korrekturleser-cli/internal/config"
	"github.com/markalston/korrekturleser-cli/internal/render"
	"github.com/markalston/korrekturleser-cli/internal/services"
	"github.com/markalston/korrekturleser-cli/internal/textproc"
	"github.com/markalston/korrekturleser-cli/internal/tui/menu"
)

// Output formats of the improve command
const (
	formatPlain   = "plain"
	formatHTML    = "html"
	formatUnified = "unified"
	formatPretty  = "pretty"
)

var (
	improveMode        string
	improveModel       string
	improveProvider    string
	improveInstruction string
	improveFile        string
	improveFormat      string
	improveCopy        bool
	improvePick        bool
)

// copyToClipboard writes text to the system clipboard. Replaced in tests.
var copyToClipboard = clipboard.WriteAll

// pickMode asks for a mode interactively. Replaced in tests.
var pickMode = func(modes []config.Mode, current string, hasInstruction bool) (string, error) {
	return menu.New(modes, current, hasInstruction).Run()
}

// improveOptions holds the parsed flags of one improve run
type improveOptions struct {
	text        string
	mode        string
	model       string
	provider    string
	instruction string
	format      string
	copy        bool
	pick        bool
}

var improveCmd = &cobra.Command{
	Use:   "improve [text...]",
	Short: "Correct or rewrite text",
	Long: `Send text to the backend and print the result.

The text is taken from the arguments, from --file, or from stdin.

Formats:
  plain    - the processed text only (default)
  pretty   - side-by-side diff for correction modes, rendered markdown for summaries
  html     - the same display as HTML
  unified  - unified diff of input and result

Exit codes:
  0 - Success
  1 - Not authenticated
  2 - Error (connectivity, invalid input, backend failure)`,
	Run: func(cmd *cobra.Command, args []string) {
		var stdin io.Reader
		if !isTerminal(os.Stdin) {
			stdin = os.Stdin
		}
		text, err := readInput(args, improveFile, stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitError)
		}
		if err := validateFormat(improveFormat); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(exitError)
		}

		opts := improveOptions{
			text:        text,
			mode:        improveMode,
			model:       improveModel,
			provider:    improveProvider,
			instruction: improveInstruction,
			format:      improveFormat,
			copy:        improveCopy,
			pick:        improvePick,
		}
		runWithServices(rendererFor(improveFormat), func(ctx context.Context, svc *services.Services, w io.Writer) int {
			return runImprove(ctx, svc, w, opts)
		})
	},
}

func init() {
	rootCmd.AddCommand(improveCmd)
	improveCmd.Flags().StringVarP(&improveMode, "mode", "m", "", "Processing mode (default from presentation settings)")
	improveCmd.Flags().StringVar(&improveModel, "model", "", "LLM model (default: first model the backend offers)")
	improveCmd.Flags().StringVar(&improveProvider, "provider", "", "LLM provider (default: first provider the backend offers)")
	improveCmd.Flags().StringVarP(&improveInstruction, "instruction", "i", "", "Own instruction, implies --mode custom")
	improveCmd.Flags().StringVarP(&improveFile, "file", "f", "", "Read text from file")
	improveCmd.Flags().StringVar(&improveFormat, "format", formatPlain, "Output format: plain, pretty, html, unified")
	improveCmd.Flags().BoolVar(&improveCopy, "copy", false, "Copy the processed text to the clipboard")
	improveCmd.Flags().BoolVar(&improvePick, "pick", false, "Choose the mode from a menu")
}

// runImprove processes the text and returns exit code
func runImprove(ctx context.Context, svc *services.Services, w io.Writer, opts improveOptions) int {
	if strings.TrimSpace(opts.text) == "" {
		fmt.Fprintln(w, "Error: text must not be empty")
		return exitError
	}
	if code := requireSession(ctx, svc, w); code != exitOK {
		return code
	}

	// --mode is checked against the modes the backend offers
	svc.Text.SetProvider(opts.provider)
	if err := svc.Text.LoadConfig(ctx); err != nil {
		if !svc.Session.IsAuthenticated() {
			fmt.Fprintf(w, "Error: %v\n", err)
			return exitUnauthenticated
		}
		slog.Warn("Using configured modes, backend configuration unavailable", "error", err)
	}

	if err := applyImproveOptions(svc, &opts); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	if err := svc.Text.Submit(ctx); err != nil {
		if IsJSONOutput() {
			fmt.Fprintln(w, formatErrorJSON(err))
		} else {
			fmt.Fprintf(w, "Error: %s\n", svc.Text.State().Error)
		}
		return exitCodeAfter(svc, err)
	}

	state := svc.Text.State()
	if opts.copy {
		if err := copyToClipboard(state.OutputText); err != nil {
			slog.Warn("Could not copy to clipboard", "error", err)
		} else {
			slog.Info("Copied result to clipboard")
		}
	}
	if state.ShowsProviderDisclaimer() {
		slog.Info(textproc.ProviderDisclaimer)
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(state.LastResult, "", "  ")
		fmt.Fprintln(w, string(data))
		return exitOK
	}

	out, err := formatImprove(state, opts.format)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	fmt.Fprintln(w, out)
	return exitOK
}

// applyImproveOptions moves the parsed flags into the orchestrator
func applyImproveOptions(svc *services.Services, opts *improveOptions) error {
	if opts.instruction != "" && opts.mode == "" {
		opts.mode = textproc.CustomMode
	}
	if opts.pick {
		state := svc.Text.State()
		mode, err := pickMode(state.Modes, state.Mode, strings.TrimSpace(opts.instruction) != "")
		if err != nil {
			return err
		}
		opts.mode = mode
	}
	if opts.mode != "" {
		if err := svc.Text.SetMode(opts.mode); err != nil {
			return fmt.Errorf("%w %q", err, opts.mode)
		}
	}
	if svc.Text.State().Mode == textproc.CustomMode && strings.TrimSpace(opts.instruction) == "" {
		return errors.New("--instruction is required for the custom mode")
	}

	svc.Text.SetInput(opts.text)
	svc.Text.SetCustomInstruction(opts.instruction)
	if opts.model != "" {
		svc.Text.SetModel(opts.model)
	}
	return nil
}

// formatImprove renders the result in the requested format
func formatImprove(state textproc.State, format string) (string, error) {
	switch format {
	case formatUnified:
		return render.Unified(state.LastResult.TextOriginal, state.OutputText)
	case formatHTML:
		if state.Display.Kind == textproc.DisplayPlain {
			return "<pre>" + html.EscapeString(state.OutputText) + "</pre>", nil
		}
		return state.Display.Content, nil
	case formatPretty:
		return state.Display.Content, nil
	default:
		return state.OutputText, nil
	}
}

// validateFormat ensures the output format is known
func validateFormat(format string) error {
	switch format {
	case formatPlain, formatPretty, formatHTML, formatUnified:
		return nil
	}
	return fmt.Errorf("--format must be one of plain, pretty, html, unified, got %q", format)
}

// rendererFor picks the display renderer matching the output format
func rendererFor(format string) textproc.Renderer {
	if format == formatPretty {
		return render.NewTerminal(0)
	}
	return render.NewHTML()
}

// readInput takes text from a file, the arguments or stdin, in that order.
// A nil stdin means it is a terminal and not read.
func readInput(args []string, file string, stdin io.Reader) (string, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", file, err)
		}
		return string(data), nil
	}
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if stdin == nil {
		return "", errors.New("no text given: pass it as arguments, with --file or on stdin")
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return string(data), nil
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
