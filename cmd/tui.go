// ABOUTME: TUI command for the korrekturleser CLI
// ABOUTME: Starts the interactive terminal interface with login, text and stats screens

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/markalston/korrekturleser-cli/internal/render"
	"github.com/markalston/korrekturleser-cli/internal/services"
	"github.com/markalston/korrekturleser-cli/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Start the interactive terminal interface",
	Long: `Start the interactive terminal interface.

Type or paste text, pick a mode with tab and submit with ctrl+s. Press f1
for all key bindings. Logs are written to debug.log in the config directory.`,
	Run: func(cmd *cobra.Command, args []string) {
		if code := runTUI(); code != exitOK {
			os.Exit(code)
		}
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// runTUI wires the core with a terminal renderer and runs the interface
func runTUI() int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	renderer := render.NewTerminal(0)
	svc, err := services.New(cfg, renderer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}

	if err := tui.Run(svc, renderer); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return exitError
	}
	return exitOK
}
