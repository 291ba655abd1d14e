// ABOUTME: Models command for the korrekturleser CLI
// ABOUTME: Lists providers, models and processing modes offered by the backend

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/markalston/korrekturleser-cli/internal/services"
	"github.com/markalston/korrekturleser-cli/internal/textproc"
)

var modelsProvider string

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List providers, models and modes",
	Long:  `List the LLM providers and models the backend offers, and the processing modes.`,
	Run: func(cmd *cobra.Command, args []string) {
		runWithServices(defaultRenderer(), func(ctx context.Context, svc *services.Services, w io.Writer) int {
			return runModels(ctx, svc, w, modelsProvider)
		})
	},
}

func init() {
	rootCmd.AddCommand(modelsCmd)
	modelsCmd.Flags().StringVar(&modelsProvider, "provider", "", "List models of this provider (default: backend default)")
}

// runModels loads the backend configuration and returns exit code
func runModels(ctx context.Context, svc *services.Services, w io.Writer, provider string) int {
	if code := requireSession(ctx, svc, w); code != exitOK {
		return code
	}

	svc.Text.SetProvider(provider)
	if err := svc.Text.LoadConfig(ctx); err != nil {
		fmt.Fprintf(w, "Error: %s: %v\n", svc.Text.State().Error, err)
		return exitCodeAfter(svc, err)
	}

	state := svc.Text.State()
	if IsJSONOutput() {
		fmt.Fprintln(w, formatModelsJSON(state))
	} else {
		fmt.Fprintln(w, formatModelsHuman(state))
	}
	return exitOK
}

// formatModelsHuman formats the configuration for human readability.
// Selected entries are marked with *.
func formatModelsHuman(state textproc.State) string {
	var b strings.Builder

	b.WriteString("Providers:\n")
	for _, p := range state.AvailableProviders {
		b.WriteString(listItem(p, p == state.SelectedProvider))
	}
	b.WriteString("\nModels:\n")
	for _, m := range state.AvailableModels {
		b.WriteString(listItem(m, m == state.SelectedModel))
	}
	b.WriteString("\nModes:\n")
	for _, m := range state.Modes {
		b.WriteString(listItem(fmt.Sprintf("%-14s %s", m.ID, m.Description), m.ID == state.Mode))
	}

	if state.ShowsProviderDisclaimer() {
		b.WriteString("\nNote: " + textproc.ProviderDisclaimer + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func listItem(text string, selected bool) string {
	marker := " "
	if selected {
		marker = "*"
	}
	return fmt.Sprintf("  %s %s\n", marker, text)
}

// formatModelsJSON formats the configuration as JSON
func formatModelsJSON(state textproc.State) string {
	modes := make([]map[string]interface{}, len(state.Modes))
	for i, m := range state.Modes {
		modes[i] = map[string]interface{}{
			"id":          m.ID,
			"description": m.Description,
		}
	}

	output := map[string]interface{}{
		"providers":         state.AvailableProviders,
		"models":            state.AvailableModels,
		"modes":             modes,
		"selected_provider": state.SelectedProvider,
		"selected_model":    state.SelectedModel,
		"default_mode":      state.Mode,
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}
