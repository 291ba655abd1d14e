// ABOUTME: Side-by-side diff model shared by the HTML and terminal renderers
// ABOUTME: Line opcodes come from go-difflib, changed line pairs are matched word by word

package render

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

// ContextLines is the number of unchanged lines kept around each change.
const ContextLines = 3

// RowKind classifies one side-by-side row
type RowKind int

const (
	RowContext RowKind = iota
	RowChange
	RowDelete
	RowInsert
)

// Segment is a run of words inside a line
type Segment struct {
	Text    string
	Changed bool
}

// Cell is one side of a row. A nil cell is an empty gutter.
type Cell struct {
	LineNo   int
	Segments []Segment
}

// Text joins the cell's segments
func (c *Cell) Text() string {
	if c == nil {
		return ""
	}
	var b strings.Builder
	for _, s := range c.Segments {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Row is one line of the side-by-side view
type Row struct {
	Kind  RowKind
	Left  *Cell
	Right *Cell
}

// Hunk is a block of rows with its unified-diff style header
type Hunk struct {
	Header string
	Rows   []Row
}

// computeHunks diffs original against improved. Both get two trailing
// newlines so a change on the last line still has a stable boundary.
func computeHunks(original, improved string) []Hunk {
	a := splitLines(original + "\n\n")
	b := splitLines(improved + "\n\n")

	m := difflib.NewMatcher(a, b)
	var hunks []Hunk
	for _, group := range m.GetGroupedOpCodes(ContextLines) {
		first, last := group[0], group[len(group)-1]
		h := Hunk{
			Header: fmt.Sprintf("@@ -%s +%s @@", hunkRange(first.I1, last.I2), hunkRange(first.J1, last.J2)),
		}
		for _, op := range group {
			h.Rows = append(h.Rows, rowsFor(op, a, b)...)
		}
		hunks = append(hunks, h)
	}
	return hunks
}

func rowsFor(op difflib.OpCode, a, b []string) []Row {
	var rows []Row
	switch op.Tag {
	case 'e':
		for k := 0; k < op.I2-op.I1; k++ {
			rows = append(rows, Row{
				Kind:  RowContext,
				Left:  plainCell(op.I1+k, a[op.I1+k]),
				Right: plainCell(op.J1+k, b[op.J1+k]),
			})
		}
	case 'd':
		for i := op.I1; i < op.I2; i++ {
			rows = append(rows, Row{Kind: RowDelete, Left: changedCell(i, a[i])})
		}
	case 'i':
		for j := op.J1; j < op.J2; j++ {
			rows = append(rows, Row{Kind: RowInsert, Right: changedCell(j, b[j])})
		}
	case 'r':
		n, m := op.I2-op.I1, op.J2-op.J1
		for k := 0; k < max(n, m); k++ {
			switch {
			case k < n && k < m:
				left, right := wordDiff(a[op.I1+k], b[op.J1+k])
				rows = append(rows, Row{
					Kind:  RowChange,
					Left:  &Cell{LineNo: op.I1 + k + 1, Segments: left},
					Right: &Cell{LineNo: op.J1 + k + 1, Segments: right},
				})
			case k < n:
				rows = append(rows, Row{Kind: RowDelete, Left: changedCell(op.I1+k, a[op.I1+k])})
			default:
				rows = append(rows, Row{Kind: RowInsert, Right: changedCell(op.J1+k, b[op.J1+k])})
			}
		}
	}
	return rows
}

var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+|\s+|[^\p{L}\p{N}_\s]`)

// wordDiff matches two lines token by token and marks the tokens that
// differ on each side.
func wordDiff(left, right string) ([]Segment, []Segment) {
	lw := wordPattern.FindAllString(left, -1)
	rw := wordPattern.FindAllString(right, -1)

	var ls, rs []Segment
	for _, op := range difflib.NewMatcher(lw, rw).GetOpCodes() {
		equal := op.Tag == 'e'
		if op.I2 > op.I1 {
			ls = appendSegment(ls, strings.Join(lw[op.I1:op.I2], ""), !equal)
		}
		if op.J2 > op.J1 {
			rs = appendSegment(rs, strings.Join(rw[op.J1:op.J2], ""), !equal)
		}
	}
	return ls, rs
}

func appendSegment(segs []Segment, text string, changed bool) []Segment {
	if n := len(segs); n > 0 && segs[n-1].Changed == changed {
		segs[n-1].Text += text
		return segs
	}
	return append(segs, Segment{Text: text, Changed: changed})
}

func plainCell(idx int, line string) *Cell {
	return &Cell{LineNo: idx + 1, Segments: []Segment{{Text: line}}}
}

func changedCell(idx int, line string) *Cell {
	return &Cell{LineNo: idx + 1, Segments: []Segment{{Text: line, Changed: true}}}
}

// splitLines splits s into lines without their terminators
func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func hunkRange(start, stop int) string {
	length := stop - start
	if length == 1 {
		return fmt.Sprintf("%d", start+1)
	}
	if length == 0 {
		return fmt.Sprintf("%d,0", start)
	}
	return fmt.Sprintf("%d,%d", start+1, length)
}
