// ABOUTME: Terminal renderer drawing diffs with lipgloss and markdown with glamour
// ABOUTME: No gutters or prefixes; insertions and deletions are told apart by colour

package render

import (
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

var (
	delLineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F87171"))
	insLineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#4ADE80"))
	delWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#991B1B"))
	insWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(lipgloss.Color("#166534"))
	ctxLineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
	hunkSepStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Faint(true)
)

const defaultWidth = 100

// Terminal renders for a terminal of a given width. The width may change
// while a render is running elsewhere.
type Terminal struct {
	width atomic.Int64
	// Style is a glamour standard style name
	Style string
}

// NewTerminal creates a terminal renderer for the given width
func NewTerminal(width int) *Terminal {
	r := &Terminal{Style: styles.DarkStyle}
	r.SetWidth(width)
	return r
}

// SetWidth changes the width used by later renders
func (r *Terminal) SetWidth(width int) {
	if width <= 0 {
		width = defaultWidth
	}
	r.width.Store(int64(width))
}

// Width returns the current render width
func (r *Terminal) Width() int {
	return int(r.width.Load())
}

// Diff draws original and improved in two columns
func (r *Terminal) Diff(original, improved string) string {
	hunks := computeHunks(original, improved)
	if len(hunks) == 0 {
		return ctxLineStyle.Render("(no changes)")
	}

	width := r.Width()
	col := max((width-3)/2, 10)
	cellStyle := lipgloss.NewStyle().Width(col)
	sep := hunkSepStyle.Render(" │ ")

	var blocks []string
	for i, h := range hunks {
		if i > 0 {
			blocks = append(blocks, hunkSepStyle.Render(strings.Repeat("┈", min(width, 2*col+3))))
		}
		for _, row := range h.Rows {
			left := cellStyle.Render(styleCell(row.Left, row.Kind, delLineStyle, delWordStyle))
			right := cellStyle.Render(styleCell(row.Right, row.Kind, insLineStyle, insWordStyle))
			blocks = append(blocks, lipgloss.JoinHorizontal(lipgloss.Top, left, sep, right))
		}
	}
	return strings.Join(blocks, "\n")
}

func styleCell(c *Cell, kind RowKind, line, word lipgloss.Style) string {
	if c == nil {
		return ""
	}
	if kind == RowContext {
		return ctxLineStyle.Render(c.Text())
	}

	var b strings.Builder
	for _, s := range c.Segments {
		if s.Changed && kind == RowChange {
			b.WriteString(word.Render(s.Text))
			continue
		}
		b.WriteString(line.Render(s.Text))
	}
	return b.String()
}

// Markdown renders src for the terminal
func (r *Terminal) Markdown(src string) (string, error) {
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(r.Style),
		glamour.WithWordWrap(r.Width()),
	)
	if err != nil {
		return "", err
	}
	return tr.Render(src)
}
