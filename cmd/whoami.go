// ABOUTME: Whoami command for the korrekturleser CLI
// ABOUTME: Shows the logged-in user and their usage counters

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/markalston/korrekturleser-cli/internal/services"
	"github.com/markalston/korrekturleser-cli/internal/session"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the logged-in user",
	Long: `Validate the stored token and show the user with request and token counts.

Exit codes:
  0 - Logged in
  1 - Not logged in or token rejected
  2 - Error (connectivity)`,
	Run: func(cmd *cobra.Command, args []string) {
		runWithServices(defaultRenderer(), runWhoami)
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

// runWhoami validates the session and returns exit code
func runWhoami(ctx context.Context, svc *services.Services, w io.Writer) int {
	if code := requireSession(ctx, svc, w); code != exitOK {
		return code
	}

	user := svc.Session.State().User
	if IsJSONOutput() {
		fmt.Fprintln(w, formatUserJSON(user))
	} else {
		fmt.Fprintln(w, formatUserHuman(user))
	}
	return exitOK
}

// formatUserHuman formats the session user for human readability
func formatUserHuman(user *session.User) string {
	return fmt.Sprintf("%s\n  Requests: %d\n  Tokens:   %d", user.DisplayName, user.RequestCount, user.TokenCount)
}
