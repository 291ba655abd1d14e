// ABOUTME: Tests for sparkline, share bar, metric block and badge widgets
// ABOUTME: Checks widths, scaling and visible content

package widgets

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/korrekturleser-cli/internal/tui/icons"
)

func TestSparkline(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		width  int
		want   string
	}{
		{"scaled from zero", []float64{0, 7}, 2, "▁█"},
		{"padded left", []float64{7}, 3, "▁▁█"},
		{"keeps newest", []float64{7, 0, 7}, 2, "▁█"},
		{"all zero", []float64{0, 0}, 2, "▁▁"},
		{"empty", nil, 5, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sparkline(tt.values, tt.width, ""); got != tt.want {
				t.Errorf("Sparkline(%v, %d) = %q, want %q", tt.values, tt.width, got, tt.want)
			}
		})
	}
}

func TestSharePercent(t *testing.T) {
	if got := SharePercent(1, 4); got != 25 {
		t.Errorf("expected 25, got %v", got)
	}
	if got := SharePercent(1, 0); got != 0 {
		t.Errorf("expected 0 for empty total, got %v", got)
	}
}

func TestShareBar(t *testing.T) {
	bar := ShareBar(50, 10, lipgloss.Color("#fff"))
	if !strings.Contains(bar, " 50%") {
		t.Errorf("expected percentage, got %q", bar)
	}
	if w := lipgloss.Width(bar); w != 15 {
		t.Errorf("expected 15 columns, got %d", w)
	}

	if over := ShareBar(150, 10, ""); !strings.Contains(over, "100%") {
		t.Errorf("expected clamp to 100%%, got %q", over)
	}
}

func TestMetricBlock(t *testing.T) {
	cfg := DefaultMetricBlockConfig()
	block := MetricBlock(icons.Tokens, "Tokens", "1234", "all time", cfg)

	lines := strings.Split(block, "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d", len(lines))
	}
	for i, line := range lines {
		if w := lipgloss.Width(line); w != cfg.Width {
			t.Errorf("line %d: expected width %d, got %d: %q", i, cfg.Width, w, line)
		}
	}
	if !strings.Contains(block, "1234") || !strings.Contains(block, "Tokens") {
		t.Errorf("expected title and value, got %q", block)
	}
}

func TestModeBadge(t *testing.T) {
	if badge := ModeBadge("Korrigiere"); !strings.Contains(badge, "Korrigiere") {
		t.Errorf("expected description in badge, got %q", badge)
	}
}

func TestStatusText(t *testing.T) {
	if text := StatusText("failed", StatusCritical); !strings.Contains(text, "failed") {
		t.Errorf("expected text in status, got %q", text)
	}
}
