// ABOUTME: Health command for the korrekturleser CLI
// ABOUTME: Checks backend connectivity and the locally stored token

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/markalston/korrekturleser-cli/internal/client"
	"github.com/markalston/korrekturleser-cli/internal/jwtclaims"
	"github.com/markalston/korrekturleser-cli/internal/services"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check backend connectivity",
	Long: `Check connectivity to the Korrekturleser backend and show the state of the
stored token. The token is decoded locally; use whoami to have the backend
validate it.

Exit codes:
  0 - Backend reachable
  2 - Backend unreachable`,
	Run: func(cmd *cobra.Command, args []string) {
		runWithServices(defaultRenderer(), func(ctx context.Context, svc *services.Services, w io.Writer) int {
			return runHealth(ctx, svc, w, time.Now())
		})
	},
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

// healthReport is what the health command found out
type healthReport struct {
	Backend   string
	Modes     int // -1 when the backend has no mode list
	HasToken  bool
	Expired   bool
	ExpiresAt time.Time
	Username  string
}

// runHealth executes the health check and returns exit code
func runHealth(ctx context.Context, svc *services.Services, w io.Writer, now time.Time) int {
	report := healthReport{Backend: svc.Client.BaseURL(), Modes: -1}

	modes, err := svc.Client.Modes(ctx)
	switch {
	case err == nil:
		report.Modes = len(modes.Modes)
	case client.StatusCode(err) == http.StatusNotFound:
		// Older backends answer but have no modes endpoint
	default:
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	if token := svc.Store.Get(); token != "" {
		report.HasToken = true
		report.Expired = jwtclaims.IsExpiredAt(token, now)
		if claims, ok := jwtclaims.Decode(token); ok {
			report.ExpiresAt = claims.Expiry()
			report.Username = claims.Username
		}
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatHealthJSON(report))
	} else {
		fmt.Fprintln(w, formatHealthHuman(report))
	}
	return exitOK
}

// formatHealthHuman formats the report for human readability
func formatHealthHuman(r healthReport) string {
	modes := "not offered"
	if r.Modes >= 0 {
		modes = fmt.Sprintf("%d", r.Modes)
	}
	return fmt.Sprintf(`Backend:  %s ✓
Modes:    %s
Token:    %s`, r.Backend, modes, tokenSummary(r))
}

func tokenSummary(r healthReport) string {
	switch {
	case !r.HasToken:
		return "none"
	case r.ExpiresAt.IsZero():
		return "unreadable"
	case r.Expired:
		return "expired " + r.ExpiresAt.Format(time.DateTime)
	case r.Username != "":
		return fmt.Sprintf("%s, valid until %s", r.Username, r.ExpiresAt.Format(time.DateTime))
	default:
		return "valid until " + r.ExpiresAt.Format(time.DateTime)
	}
}

// formatHealthJSON formats the report as JSON
func formatHealthJSON(r healthReport) string {
	token := map[string]interface{}{
		"present": r.HasToken,
		"expired": r.HasToken && r.Expired,
	}
	if !r.ExpiresAt.IsZero() {
		token["expires_at"] = r.ExpiresAt.UTC().Format(time.RFC3339)
	}
	output := map[string]interface{}{
		"backend": r.Backend,
		"token":   token,
	}
	if r.Modes >= 0 {
		output["modes"] = r.Modes
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}
