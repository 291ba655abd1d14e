// ABOUTME: Login and logout commands for the korrekturleser CLI
// ABOUTME: Exchanges a secret for a bearer token stored in the config directory

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/markalston/korrekturleser-cli/internal/client"
	"github.com/markalston/korrekturleser-cli/internal/services"
	"github.com/markalston/korrekturleser-cli/internal/session"
)

var loginSecret string

// promptSecret asks for the secret interactively. Replaced in tests.
var promptSecret = func() (string, error) {
	var secret string
	err := huh.NewInput().
		Title("Secret").
		Description("Your Korrekturleser access secret").
		EchoMode(huh.EchoModePassword).
		Value(&secret).
		Run()
	return secret, err
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in with your secret",
	Long: `Exchange your secret for an access token and store it for later commands.

The secret is taken from --secret, then KORREKTURLESER_SECRET, and is
prompted for when neither is set.`,
	Run: func(cmd *cobra.Command, args []string) {
		runWithServices(defaultRenderer(), func(ctx context.Context, svc *services.Services, w io.Writer) int {
			secret := loginSecret
			if secret == "" {
				secret = svc.Config.Secret
			}
			if secret == "" {
				var err error
				if secret, err = promptSecret(); err != nil {
					fmt.Fprintf(w, "Error: %v\n", err)
					return exitError
				}
			}
			return runLogin(ctx, svc, w, secret)
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored access token",
	Run: func(cmd *cobra.Command, args []string) {
		runWithServices(defaultRenderer(), func(ctx context.Context, svc *services.Services, w io.Writer) int {
			return runLogout(svc, w)
		})
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	loginCmd.Flags().StringVar(&loginSecret, "secret", "", "Secret to log in with (visible in shell history, prefer the prompt)")
}

// runLogin logs in and returns exit code
func runLogin(ctx context.Context, svc *services.Services, w io.Writer, secret string) int {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		fmt.Fprintln(w, "Error: secret must not be empty")
		return exitError
	}

	if err := svc.Session.Login(ctx, secret); err != nil {
		if IsJSONOutput() {
			fmt.Fprintln(w, formatErrorJSON(err))
		} else {
			fmt.Fprintf(w, "✗ Login failed: %v\n", err)
		}
		return exitCodeFor(err)
	}

	user := svc.Session.State().User
	if IsJSONOutput() {
		fmt.Fprintln(w, formatUserJSON(user))
	} else {
		fmt.Fprintf(w, "✓ Logged in as %s\n", user.DisplayName)
	}
	return exitOK
}

// runLogout clears the session and returns exit code
func runLogout(svc *services.Services, w io.Writer) int {
	wasLoggedIn := svc.Session.HasToken()
	svc.Session.Logout()

	if IsJSONOutput() {
		fmt.Fprintln(w, `{"logged_out": true}`)
		return exitOK
	}
	if wasLoggedIn {
		fmt.Fprintln(w, "✓ Logged out")
	} else {
		fmt.Fprintln(w, "Already logged out")
	}
	return exitOK
}

// formatUserJSON formats the session user as JSON
func formatUserJSON(user *session.User) string {
	output := map[string]interface{}{
		"username":      user.DisplayName,
		"request_count": user.RequestCount,
		"token_count":   user.TokenCount,
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}

// formatErrorJSON formats a failure as JSON
func formatErrorJSON(err error) string {
	output := map[string]interface{}{
		"error": err.Error(),
	}
	if status := client.StatusCode(err); status != 0 {
		output["status"] = status
	}
	data, _ := json.MarshalIndent(output, "", "  ")
	return string(data)
}
