// ABOUTME: Sparkline widget renders daily usage as a mini bar chart
// ABOUTME: Scales values to block characters; missing days count as zero

package widgets

import (
	"github.com/charmbracelet/lipgloss"
)

// SparklineBlocks are the Unicode block characters for different heights
var SparklineBlocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// Sparkline renders values (oldest first) in width characters. Shorter
// input is padded on the left, longer input keeps the most recent values.
func Sparkline(values []float64, width int, color lipgloss.Color) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}

	window := fitValues(values, width)

	// Usage never goes below zero, so bars are scaled from zero rather than
	// from the smallest value.
	peak := 0.0
	for _, v := range window {
		peak = max(peak, v)
	}

	result := make([]rune, len(window))
	for i, v := range window {
		result[i] = valueToBlock(v, peak)
	}

	style := lipgloss.NewStyle()
	if color != "" {
		style = style.Foreground(color)
	}
	return style.Render(string(result))
}

// fitValues pads or truncates values to width, keeping the newest
func fitValues(values []float64, width int) []float64 {
	if len(values) >= width {
		return values[len(values)-width:]
	}
	result := make([]float64, width)
	copy(result[width-len(values):], values)
	return result
}

// valueToBlock maps value in [0, peak] to a block character
func valueToBlock(value, peak float64) rune {
	if peak <= 0 {
		return SparklineBlocks[0]
	}
	idx := int(value / peak * float64(len(SparklineBlocks)-1))
	idx = max(0, min(idx, len(SparklineBlocks)-1))
	return SparklineBlocks[idx]
}
