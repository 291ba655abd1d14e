// ABOUTME: Usage statistics screen component
// ABOUTME: Shows the viewer's totals, per-user shares and the daily request trend

package stats

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/markalston/korrekturleser-cli/internal/client"
	"github.com/markalston/korrekturleser-cli/internal/tui/icons"
	"github.com/markalston/korrekturleser-cli/internal/tui/styles"
	"github.com/markalston/korrekturleser-cli/internal/tui/widgets"
)

// trendDays is the number of days drawn in the sparkline
const trendDays = 30

// Stats displays usage statistics
type Stats struct {
	usage    *client.UsageStatsResponse
	username string
	err      error
	viewport viewport.Model
	width    int
	height   int
}

// New creates a stats view for username
func New(username string, width, height int) *Stats {
	s := &Stats{
		username: username,
		viewport: viewport.New(width, height),
	}
	s.SetSize(width, height)
	return s
}

// SetData replaces the statistics shown
func (s *Stats) SetData(usage *client.UsageStatsResponse, err error) {
	s.usage = usage
	s.err = err
	s.viewport.SetContent(s.content())
	s.viewport.GotoTop()
}

// SetSize updates the dimensions
func (s *Stats) SetSize(width, height int) {
	s.width = width
	s.height = height
	s.viewport.Width = width
	s.viewport.Height = max(height, 1)
	s.viewport.SetContent(s.content())
}

// Update scrolls the view
func (s *Stats) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	s.viewport, cmd = s.viewport.Update(msg)
	return cmd
}

// View renders the statistics
func (s *Stats) View() string {
	return s.viewport.View()
}

func (s *Stats) content() string {
	if s.err != nil {
		return styles.StatusCritical.Render("Error: " + s.err.Error())
	}
	if s.usage == nil {
		return "Loading usage statistics..."
	}

	var sb strings.Builder
	sb.WriteString(styles.Title.Render(icons.Chart.String() + " Usage"))
	sb.WriteString("\n")

	own := s.ownTotal()
	cfg := widgets.DefaultMetricBlockConfig()
	sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		widgets.MetricBlock(icons.Requests, "Requests", strconv.Itoa(own.Requests), "all time", cfg),
		" ",
		widgets.MetricBlock(icons.Tokens, "Tokens", strconv.Itoa(own.Tokens), "all time", cfg),
	))
	sb.WriteString("\n\n")

	if len(s.usage.Total) > 1 {
		sb.WriteString(styles.PanelTitle.Render("Share of tokens"))
		sb.WriteString("\n")
		sb.WriteString(s.sharesTable())
		sb.WriteString("\n\n")
	}

	sb.WriteString(styles.PanelTitle.Render(fmt.Sprintf("Requests, last %d days", trendDays)))
	sb.WriteString("\n")
	sb.WriteString(widgets.Sparkline(DailyRequests(s.usage.Daily), trendDays, styles.Secondary))
	sb.WriteString("\n\n")

	sb.WriteString(styles.PanelTitle.Render("Daily"))
	sb.WriteString("\n")
	if len(s.usage.Daily) == 0 {
		sb.WriteString(styles.Subtitle.Render("No requests yet"))
	} else {
		sb.WriteString(s.dailyTable())
	}
	return sb.String()
}

// ownTotal finds the viewer's row; for a single row it is that row
func (s *Stats) ownTotal() client.TotalUsage {
	for _, t := range s.usage.Total {
		if t.UserName == s.username {
			return t
		}
	}
	if len(s.usage.Total) == 1 {
		return s.usage.Total[0]
	}
	return client.TotalUsage{UserName: s.username}
}

func (s *Stats) sharesTable() string {
	var total int
	for _, t := range s.usage.Total {
		total += t.Tokens
	}

	rows := make([][]string, len(s.usage.Total))
	for i, t := range s.usage.Total {
		rows[i] = []string{
			t.UserName,
			strconv.Itoa(t.Requests),
			strconv.Itoa(t.Tokens),
			widgets.ShareBar(widgets.SharePercent(t.Tokens, total), 12, styles.Accent),
		}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.Muted)).
		Headers("User", "Requests", "Tokens", "Share").
		Rows(rows...).
		String()
}

func (s *Stats) dailyTable() string {
	rows := make([][]string, len(s.usage.Daily))
	for i, d := range s.usage.Daily {
		rows[i] = []string{d.Date, d.UserName, strconv.Itoa(d.Requests), strconv.Itoa(d.Tokens)}
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(styles.Muted)).
		Headers("Date", "User", "Requests", "Tokens").
		Rows(rows...).
		String()
}

// DailyRequests sums requests per date across users, oldest date first
func DailyRequests(daily []client.DailyUsage) []float64 {
	perDay := make(map[string]int)
	for _, d := range daily {
		perDay[d.Date] += d.Requests
	}

	dates := make([]string, 0, len(perDay))
	for date := range perDay {
		dates = append(dates, date)
	}
	// ISO dates sort chronologically as strings.
	slices.Sort(dates)

	values := make([]float64, len(dates))
	for i, date := range dates {
		values[i] = float64(perDay[date])
	}
	return values
}
