// ABOUTME: Icon system with Nerd Font detection and Unicode fallback
// ABOUTME: Provides consistent iconography across different terminal capabilities

package icons

import (
	"os"
	"strings"
	"sync"
)

var (
	useNerdFonts     bool
	nerdFontDetected sync.Once
)

// detectNerdFonts checks if Nerd Fonts should be used
func detectNerdFonts() bool {
	// Explicit override via environment variable
	if env := os.Getenv("KORREKTURLESER_NERD_FONTS"); env != "" {
		return env == "1" || strings.ToLower(env) == "true"
	}

	term := os.Getenv("TERM")
	termProgram := os.Getenv("TERM_PROGRAM")

	nerdFontTerminals := []string{
		"iTerm.app",
		"alacritty",
		"WezTerm",
		"kitty",
		"ghostty",
	}

	for _, t := range nerdFontTerminals {
		if strings.Contains(termProgram, t) || strings.Contains(term, strings.ToLower(t)) {
			return true
		}
	}

	if os.Getenv("NERD_FONTS") == "1" {
		return true
	}

	return false
}

// HasNerdFonts returns true if Nerd Fonts are available
func HasNerdFonts() bool {
	nerdFontDetected.Do(func() {
		useNerdFonts = detectNerdFonts()
	})
	return useNerdFonts
}

// Icon represents an icon with Nerd Font and Unicode fallback variants
type Icon struct {
	NerdFont string
	Fallback string
}

// String returns the appropriate icon based on font availability
func (i Icon) String() string {
	if HasNerdFonts() {
		return i.NerdFont
	}
	return i.Fallback
}

// Icon definitions - Nerd Font codepoints with Unicode fallbacks
var (
	// Status indicators
	CheckOK  = Icon{"\uf058", "✓"} // nf-fa-check_circle
	Warning  = Icon{"\uf071", "⚠"} // nf-fa-warning
	Critical = Icon{"\uf057", "✗"} // nf-fa-times_circle
	Info     = Icon{"\uf05a", "ℹ"} // nf-fa-info_circle

	// Usage
	User     = Icon{"\uf007", "☺"} // nf-fa-user
	Requests = Icon{"󰑮", "⇄"} // nf-md-swap_horizontal
	Tokens   = Icon{"󰆙", "◆"} // nf-md-counter
	Chart    = Icon{"󰄭", "▁"} // nf-md-chart_line

	// Text processing
	Mode     = Icon{"󰏫", "✎"} // nf-md-pencil
	Model    = Icon{"󰚩", "◎"} // nf-md-robot
	Diff     = Icon{"\uf440", "±"} // nf-oct-diff
	Copy     = Icon{"\uf0c5", "⧉"} // nf-fa-copy
	File     = Icon{"\uf15c", "▤"} // nf-fa-file_text

	// Session
	Lock = Icon{"\uf023", "⚿"} // nf-fa-lock

	// Application
	App = Icon{"󰗊", "✍"} // nf-md-spellcheck
)
