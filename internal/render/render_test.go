// ABOUTME: Tests for diff computation and the HTML, terminal and unified renderers
// ABOUTME: Checks that gutters and prefixes never reach the rendered output

package render

import (
	"strings"
	"testing"

	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"
)

var gutterMarkers = []string{
	"d2h-code-linenumber",
	"d2h-code-side-linenumber",
	"d2h-code-line-prefix",
	"d2h-file-header",
	"d2h-info",
}

func TestComputeHunks_SingleWordChange(t *testing.T) {
	hunks := computeHunks("Helo wordl", "Hello world")
	if len(hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(hunks))
	}

	var change *Row
	for i, r := range hunks[0].Rows {
		if r.Kind == RowChange {
			change = &hunks[0].Rows[i]
		}
	}
	if change == nil {
		t.Fatal("expected a changed row")
	}
	if change.Left.Text() != "Helo wordl" || change.Right.Text() != "Hello world" {
		t.Errorf("unexpected row texts %q / %q", change.Left.Text(), change.Right.Text())
	}
	if change.Left.LineNo != 1 || change.Right.LineNo != 1 {
		t.Errorf("expected line 1 on both sides, got %d/%d", change.Left.LineNo, change.Right.LineNo)
	}

	var changedWords []string
	for _, s := range change.Right.Segments {
		if s.Changed {
			changedWords = append(changedWords, s.Text)
		}
	}
	// Both words differ, separated by an unchanged space.
	if strings.Join(changedWords, "|") != "Hello|world" {
		t.Errorf("unexpected changed segments %v", changedWords)
	}
}

func TestComputeHunks_Identical(t *testing.T) {
	if hunks := computeHunks("same\ntext", "same\ntext"); len(hunks) != 0 {
		t.Errorf("expected no hunks, got %d", len(hunks))
	}
}

func TestComputeHunks_ContextWindow(t *testing.T) {
	var lines []string
	for i := 0; i < 20; i++ {
		lines = append(lines, "line")
	}
	original := strings.Join(lines, "\n")
	lines[10] = "changed"
	improved := strings.Join(lines, "\n")

	hunks := computeHunks(original, improved)
	if len(hunks) != 1 {
		t.Fatalf("expected 1 hunk, got %d", len(hunks))
	}
	if got := len(hunks[0].Rows); got != 2*ContextLines+1 {
		t.Errorf("expected %d rows, got %d", 2*ContextLines+1, got)
	}
	if hunks[0].Header != "@@ -8,7 +8,7 @@" {
		t.Errorf("unexpected header %q", hunks[0].Header)
	}
}

func TestComputeHunks_UnevenReplace(t *testing.T) {
	hunks := computeHunks("a\nb", "x\ny\nz")
	var kinds []RowKind
	for _, r := range hunks[0].Rows {
		if r.Kind != RowContext {
			kinds = append(kinds, r.Kind)
		}
	}
	want := []RowKind{RowChange, RowChange, RowInsert}
	if len(kinds) != len(want) {
		t.Fatalf("expected kinds %v, got %v", want, kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("row %d: expected %v, got %v", i, want[i], kinds[i])
		}
	}
}

func TestWordDiff_Umlauts(t *testing.T) {
	left, right := wordDiff("Die Straße ist grün", "Die Strasse ist grün")
	if len(left) != 3 || !left[1].Changed || left[1].Text != "Straße" {
		t.Errorf("unexpected left segments %+v", left)
	}
	if len(right) != 3 || right[1].Text != "Strasse" {
		t.Errorf("unexpected right segments %+v", right)
	}
}

func TestHTMLDiff_NoGutters(t *testing.T) {
	out := NewHTML().Diff("Helo wordl", "Hello world")
	if out == "" {
		t.Fatal("expected non-empty diff")
	}
	for _, marker := range gutterMarkers {
		if strings.Contains(out, marker) {
			t.Errorf("expected %q to be stripped, got %s", marker, out)
		}
	}
	if !strings.Contains(out, "<del>") || !strings.Contains(out, "<ins>") {
		t.Errorf("expected word-level del/ins markup, got %s", out)
	}
	if !strings.Contains(out, "d2h-del") || !strings.Contains(out, "d2h-ins") {
		t.Errorf("expected colour classes kept, got %s", out)
	}
	if strings.Contains(out, "@@") {
		t.Errorf("expected hunk headers removed, got %s", out)
	}
}

func TestHTMLDiff_EscapesText(t *testing.T) {
	out := NewHTML().Diff("a <b> c", "a <i> c")
	if strings.Contains(out, "<b>") || strings.Contains(out, "<i>") {
		t.Errorf("expected user text escaped, got %s", out)
	}
	if !strings.Contains(out, "&lt;") || !strings.Contains(out, "&gt;") {
		t.Errorf("expected escaped original, got %s", out)
	}
}

func TestHTMLDiff_Identical(t *testing.T) {
	out := NewHTML().Diff("same", "same")
	if !strings.Contains(out, "d2h-wrapper") {
		t.Errorf("expected wrapper for identical texts, got %s", out)
	}
}

func TestHTMLMarkdown(t *testing.T) {
	out, err := NewHTML().Markdown("# Summary\n\n- one\n- two\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"<h1>Summary</h1>", "<li>one</li>", "<table>"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %s", want, out)
		}
	}
}

func TestTerminalDiff(t *testing.T) {
	out := NewTerminal(80).Diff("Helo wordl", "Hello world")
	if !strings.Contains(out, "Helo") || !strings.Contains(out, "Hello") {
		t.Errorf("expected both sides in output, got %q", out)
	}
	if strings.Contains(out, "@@") {
		t.Errorf("expected no hunk header, got %q", out)
	}
}

func TestTerminalDiff_Identical(t *testing.T) {
	if out := NewTerminal(80).Diff("x", "x"); !strings.Contains(out, "no changes") {
		t.Errorf("expected no-changes note, got %q", out)
	}
}

func TestTerminalSetWidth(t *testing.T) {
	r := NewTerminal(0)
	if r.Width() != 100 {
		t.Errorf("expected default width 100, got %d", r.Width())
	}

	r.SetWidth(40)
	for _, line := range strings.Split(r.Diff("Helo wordl", "Hello world"), "\n") {
		if w := lipgloss.Width(line); w > 40 {
			t.Errorf("line wider than 40 columns (%d): %q", w, line)
		}
	}
}

func TestTerminalMarkdown(t *testing.T) {
	r := NewTerminal(60)
	r.Style = styles.NoTTYStyle
	out, err := r.Markdown("# Summary\n\nSome **bold** text.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Summary") || !strings.Contains(out, "bold") {
		t.Errorf("unexpected markdown output %q", out)
	}
}

func TestUnified(t *testing.T) {
	out, err := Unified("Helo wordl\n", "Hello world\n")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{"--- original", "+++ improved", "-Helo wordl", "+Hello world"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in %q", want, out)
		}
	}

	same, _ := Unified("a\n", "a\n")
	if same != "" {
		t.Errorf("expected empty diff for identical input, got %q", same)
	}
}
