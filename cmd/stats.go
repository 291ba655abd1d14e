// ABOUTME: Stats command for the korrekturleser CLI
// ABOUTME: Shows daily and total usage per user as tables

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/markalston/korrekturleser-cli/internal/client"
	"github.com/markalston/korrekturleser-cli/internal/services"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show usage statistics",
	Long:  `Show requests and tokens per day and in total. Admins see every user.`,
	Run: func(cmd *cobra.Command, args []string) {
		runWithServices(defaultRenderer(), runStats)
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

// runStats fetches usage statistics and returns exit code
func runStats(ctx context.Context, svc *services.Services, w io.Writer) int {
	if code := requireSession(ctx, svc, w); code != exitOK {
		return code
	}

	resp, err := svc.Client.Stats(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitCodeAfter(svc, err)
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(resp, "", "  ")
		fmt.Fprintln(w, string(data))
	} else {
		fmt.Fprintln(w, formatStatsHuman(resp))
	}
	return exitOK
}

// formatStatsHuman formats usage as two tables
func formatStatsHuman(resp *client.UsageStatsResponse) string {
	var b strings.Builder

	b.WriteString("Total\n")
	total := make([][]string, len(resp.Total))
	for i, u := range resp.Total {
		total[i] = []string{u.UserName, strconv.Itoa(u.Requests), strconv.Itoa(u.Tokens)}
	}
	b.WriteString(usageTable([]string{"User", "Requests", "Tokens"}, total))

	b.WriteString("\n\nDaily\n")
	if len(resp.Daily) == 0 {
		b.WriteString("  No requests yet")
		return b.String()
	}
	daily := make([][]string, len(resp.Daily))
	for i, d := range resp.Daily {
		daily[i] = []string{d.Date, d.UserName, strconv.Itoa(d.Requests), strconv.Itoa(d.Tokens)}
	}
	b.WriteString(usageTable([]string{"Date", "User", "Requests", "Tokens"}, daily))
	return b.String()
}

func usageTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		String()
}
