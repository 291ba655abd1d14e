// ABOUTME: Share bar widget showing one user's part of the total usage
// ABOUTME: Renders a filled/empty block bar with the percentage after it

package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var emptyColor = lipgloss.Color("#374151")

// SharePercent returns part as a percentage of total, 0 when total is 0
func SharePercent(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

// ShareBar renders percent as a bar of width characters followed by the
// rounded percentage.
func ShareBar(percent float64, width int, color lipgloss.Color) string {
	if width <= 0 {
		width = 10
	}
	percent = max(0, min(percent, 100))

	filled := int(percent / 100.0 * float64(width))
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("▓", filled)) +
		lipgloss.NewStyle().Foreground(emptyColor).Render(strings.Repeat("░", width-filled))

	return fmt.Sprintf("%s %3.0f%%", bar, percent)
}
