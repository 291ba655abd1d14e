// ABOUTME: File picker screen for loading a text file into the editor
// ABOUTME: Lists recently opened files and accepts a typed path

package filepicker

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/markalston/korrekturleser-cli/internal/tui/icons"
	"github.com/markalston/korrekturleser-cli/internal/tui/styles"
)

// MaxFileSize is the largest file that is loaded
const MaxFileSize = 512 * 1024

type state int

const (
	stateList state = iota
	stateInput
)

// FileSelectedMsg is sent when a file was read
type FileSelectedMsg struct {
	Path string
	Text string
}

// CancelledMsg is sent when the user leaves without a file
type CancelledMsg struct{}

// FilePicker is the file selection screen
type FilePicker struct {
	recent    []string
	cursor    int
	state     state
	textInput textinput.Model
	err       string
	width     int
}

var (
	selectedStyle = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	normalStyle   = lipgloss.NewStyle().Foreground(styles.Text)
	dividerStyle  = lipgloss.NewStyle().Foreground(styles.Surface)
)

// New creates a picker offering the recent files
func New(recent []string) *FilePicker {
	ti := textinput.New()
	ti.Placeholder = "~/Dokumente/brief.txt"
	ti.CharLimit = 512
	ti.Width = 60

	return &FilePicker{
		recent:    recent,
		textInput: ti,
	}
}

// Init implements tea.Model
func (fp *FilePicker) Init() tea.Cmd {
	if len(fp.recent) == 0 {
		return fp.enterInput()
	}
	return nil
}

// SetWidth sets the width used to shorten long paths
func (fp *FilePicker) SetWidth(width int) {
	fp.width = width
	fp.textInput.Width = max(min(width-6, 80), 20)
}

// Update implements tea.Model
func (fp *FilePicker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		fp.SetWidth(msg.Width)
		return fp, nil

	case tea.KeyMsg:
		fp.err = ""
		if fp.state == stateInput {
			return fp.updateInput(msg)
		}
		return fp.updateList(msg)
	}

	if fp.state == stateInput {
		var cmd tea.Cmd
		fp.textInput, cmd = fp.textInput.Update(msg)
		return fp, cmd
	}
	return fp, nil
}

func (fp *FilePicker) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	last := len(fp.recent) // the "Enter path..." entry

	switch msg.String() {
	case "up", "k":
		if fp.cursor > 0 {
			fp.cursor--
		}
	case "down", "j":
		if fp.cursor < last {
			fp.cursor++
		}
	case "enter":
		if fp.cursor == last {
			return fp, fp.enterInput()
		}
		return fp, fp.load(fp.recent[fp.cursor])
	case "esc", "b":
		return fp, cancel
	}
	return fp, nil
}

func (fp *FilePicker) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		if len(fp.recent) == 0 {
			return fp, cancel
		}
		fp.state = stateList
		fp.textInput.SetValue("")
		fp.textInput.Blur()
		return fp, nil
	case "enter":
		path := strings.TrimSpace(fp.textInput.Value())
		if path == "" {
			fp.err = "Please enter a file path"
			return fp, nil
		}
		return fp, fp.load(path)
	}

	var cmd tea.Cmd
	fp.textInput, cmd = fp.textInput.Update(msg)
	return fp, cmd
}

func (fp *FilePicker) enterInput() tea.Cmd {
	fp.state = stateInput
	fp.textInput.Focus()
	return textinput.Blink
}

func cancel() tea.Msg { return CancelledMsg{} }

// load reads path; problems are shown in place instead of leaving the screen
func (fp *FilePicker) load(path string) tea.Cmd {
	expanded := expandPath(path)
	text, err := ReadText(expanded)
	if err != nil {
		fp.err = describe(path, err)
		return nil
	}
	return func() tea.Msg {
		return FileSelectedMsg{Path: expanded, Text: text}
	}
}

// ErrNotText is returned for files that are not UTF-8 text
var ErrNotText = errors.New("not a UTF-8 text file")

// ErrTooLarge is returned for files above MaxFileSize
var ErrTooLarge = errors.New("file too large")

// ReadText reads a UTF-8 text file of at most MaxFileSize bytes
func ReadText(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.IsDir() {
		return "", fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > MaxFileSize {
		return "", ErrTooLarge
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		return "", ErrNotText
	}
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}

func describe(path string, err error) string {
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "File not found: " + path
	case errors.Is(err, fs.ErrPermission):
		return "Cannot read file: permission denied"
	case errors.Is(err, ErrTooLarge):
		return fmt.Sprintf("File is larger than %d KiB", MaxFileSize/1024)
	case errors.Is(err, ErrNotText):
		return "Not a text file: " + path
	default:
		return "Error reading file: " + err.Error()
	}
}

// expandPath expands a leading ~ to the home directory
func expandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return home + strings.TrimPrefix(path, "~")
}

// View implements tea.Model
func (fp *FilePicker) View() string {
	var b strings.Builder

	if fp.state == stateInput {
		b.WriteString(styles.Title.Render(icons.File.String() + " Open file"))
		b.WriteString("\n")
		b.WriteString(fp.textInput.View())
	} else {
		fp.viewList(&b)
	}

	if fp.err != "" {
		b.WriteString("\n\n")
		b.WriteString(styles.StatusCritical.Render("Error: " + fp.err))
	}
	return b.String()
}

func (fp *FilePicker) viewList(b *strings.Builder) {
	b.WriteString(styles.Title.Render(icons.File.String() + " Open file"))
	b.WriteString("\n")
	b.WriteString(styles.Subtitle.Render("Recent files"))
	b.WriteString("\n")

	for i, path := range fp.recent {
		b.WriteString(fp.item(i, shorten(path, fp.width-6)))
	}

	b.WriteString(dividerStyle.Render(strings.Repeat("─", max(min(40, fp.width-4), 10))))
	b.WriteString("\n")
	b.WriteString(fp.item(len(fp.recent), "Enter path..."))
}

func (fp *FilePicker) item(i int, label string) string {
	if i == fp.cursor {
		return "> " + selectedStyle.Render(label) + "\n"
	}
	return "  " + normalStyle.Render(label) + "\n"
}

// shorten keeps the end of long paths
func shorten(path string, width int) string {
	r := []rune(path)
	if width < 20 || len(r) <= width {
		return path
	}
	return "..." + string(r[len(r)-(width-3):])
}
