// ABOUTME: Tests for the text screen component
// ABOUTME: Covers layout, state mirroring, the spinner and the status line

package editor

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/markalston/korrekturleser-cli/internal/client"
	"github.com/markalston/korrekturleser-cli/internal/config"
	"github.com/markalston/korrekturleser-cli/internal/textproc"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestLayout_StacksOnNarrowTerminals(t *testing.T) {
	e := New()

	e.SetSize(120, 30)
	if e.stacked() {
		t.Error("expected side-by-side panels at width 120")
	}
	wide := e.OutputWidth()

	e.SetSize(90, 30)
	if !e.stacked() {
		t.Error("expected stacked panels at width 90")
	}
	if e.OutputWidth() <= wide {
		t.Errorf("expected stacked output (%d) wider than side-by-side (%d)", e.OutputWidth(), wide)
	}
}

func TestView_FitsHeight(t *testing.T) {
	for _, width := range []int{90, 120} {
		e := New()
		e.SetSize(width, 30)

		if got := strings.Count(e.View(), "\n") + 1; got > 30 {
			t.Errorf("width %d: expected at most 30 lines, got %d", width, got)
		}
	}
}

func TestSetState_ReplacesInputOnlyWhenChanged(t *testing.T) {
	e := New()
	e.Update(runes("getippt"))

	e.SetState(textproc.State{Mode: "correct"})
	if e.Input() != "getippt" {
		t.Errorf("expected typed text kept, got %q", e.Input())
	}

	e.SetState(textproc.State{Mode: "correct", InputText: "übernommen"})
	if e.Input() != "übernommen" {
		t.Errorf("expected transferred text, got %q", e.Input())
	}

	e.SetState(textproc.State{Mode: "correct"})
	if e.Input() != "" {
		t.Errorf("expected cleared input, got %q", e.Input())
	}
}

func TestSetState_StartsSpinnerWhenPending(t *testing.T) {
	e := New()

	if cmd := e.SetState(textproc.State{Pending: true}); cmd == nil {
		t.Error("expected spinner tick when a request starts")
	}
	if cmd := e.SetState(textproc.State{Pending: true}); cmd != nil {
		t.Error("expected no second tick while still pending")
	}
	if !strings.Contains(e.View(), "processing") {
		t.Error("expected progress in status line")
	}
}

func TestUpdate_IgnoresTypingWhilePending(t *testing.T) {
	e := New()
	e.SetState(textproc.State{Pending: true})

	e.Update(runes("x"))
	if e.Input() != "" {
		t.Errorf("expected no typing while pending, got %q", e.Input())
	}
}

func TestView_ShowsResultAndTokens(t *testing.T) {
	e := New()
	e.SetSize(120, 30)
	e.SetState(textproc.State{
		Mode:       "correct",
		Modes:      []config.Mode{{ID: "correct", Description: "Korrigieren"}},
		Display:    textproc.Display{Kind: textproc.DisplayPlain, Content: "Hello world"},
		LastResult: &client.TextResponse{TokensUsed: 42},
	})

	view := e.View()
	for _, want := range []string{"Korrigieren", "Mein Text", "KI Text", "Hello world", "42 tokens"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected %q in view", want)
		}
	}
}

func TestView_DiffTitle(t *testing.T) {
	e := New()
	e.SetState(textproc.State{Display: textproc.Display{Kind: textproc.DisplayDiff, Content: "-a\n+b"}})

	if !strings.Contains(e.View(), "Änderungen") {
		t.Error("expected diff title")
	}
}

func TestView_ErrorReplacesOutput(t *testing.T) {
	e := New()
	e.SetState(textproc.State{
		Error:   "backend unavailable",
		Display: textproc.Display{Kind: textproc.DisplayPlain, Content: "old"},
	})

	view := e.View()
	if !strings.Contains(view, "backend unavailable") || strings.Contains(view, "old") {
		t.Errorf("expected only the error in the output, got %q", view)
	}
}

func TestView_Disclaimer(t *testing.T) {
	e := New()
	e.SetSize(200, 30)

	e.SetState(textproc.State{SelectedProvider: "claude"})
	if strings.Contains(e.View(), "Gemini may use") {
		t.Error("expected no disclaimer for claude")
	}

	e.SetState(textproc.State{SelectedProvider: "gemini"})
	if !strings.Contains(e.View(), "Gemini may use") {
		t.Error("expected disclaimer for gemini")
	}
}

func TestStatusLine_CustomInstructionAndNotice(t *testing.T) {
	e := New()
	e.SetState(textproc.State{Mode: textproc.CustomMode, CustomInstruction: "Mach es förmlicher"})
	e.SetNotice("Copied")

	line := e.statusLine()
	if !strings.Contains(line, "Mach es förmlicher") {
		t.Error("expected custom instruction in status line")
	}
	if !strings.Contains(line, "Copied") {
		t.Error("expected notice in status line")
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("kurz", 10); got != "kurz" {
		t.Errorf("expected short text unchanged, got %q", got)
	}
	if got := truncate("äöüäöüäöüä", 5); got != "äöüä…" {
		t.Errorf("expected rune-safe truncation, got %q", got)
	}
}
