package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
)

// Palette
var (
	colorPrimary      = lipgloss.Color("#E0633A") // tomato
	colorPrimaryLight = lipgloss.Color("#F29A6B")
	colorPrimaryDark  = lipgloss.Color("#A8421F")
	colorAccent       = lipgloss.Color("#7BAE4E") // basil

	colorText  = lipgloss.Color("#F5F1EA")
	colorMuted = lipgloss.Color("240")

	colorSuccess = lipgloss.Color("#22C55E")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")
)

var (
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(colorPrimary)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	labelStyle   = lipgloss.NewStyle().Foreground(colorPrimaryLight).Bold(true)
	matchStyle   = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
)

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "⚠"
	iconInfo    = "●"
)

// testIsTTYOverride forces isTTY in tests.
var (
	testIsTTYOverride *bool
	testIsTTYMutex    sync.Mutex
)

// isTTY returns true if stdout is a terminal
func isTTY() bool {
	testIsTTYMutex.Lock()
	override := testIsTTYOverride
	testIsTTYMutex.Unlock()
	if override != nil {
		return *override
	}
	return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
}

// styled renders s with style in TTY mode and returns it unchanged otherwise.
func styled(style lipgloss.Style, s string) string {
	if isTTY() {
		return style.Render(s)
	}
	return s
}

func printStyled(w io.Writer, icon string, style lipgloss.Style, format string, args ...interface{}) {
	fmt.Fprintf(w, "%s %s\n", styled(style, icon), fmt.Sprintf(format, args...))
}

func printSuccess(w io.Writer, format string, args ...interface{}) {
	printStyled(w, iconSuccess, successStyle, format, args...)
}

func printError(w io.Writer, format string, args ...interface{}) {
	printStyled(w, iconError, errorStyle, format, args...)
}

func printWarning(w io.Writer, format string, args ...interface{}) {
	printStyled(w, iconWarning, warningStyle, format, args...)
}

func printInfo(w io.Writer, format string, args ...interface{}) {
	printStyled(w, iconInfo, infoStyle, format, args...)
}

// printMuted prints muted/secondary text
func printMuted(w io.Writer, format string, args ...interface{}) {
	fmt.Fprintln(w, styled(mutedStyle, fmt.Sprintf(format, args...)))
}

// renderMarkdown renders markdown with glamour on a terminal. Piped output
// gets the raw markdown.
func renderMarkdown(content string) string {
	if !isTTY() {
		return content
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return content
	}

	rendered, err := renderer.Render(content)
	if err != nil {
		return content
	}
	return strings.TrimSpace(rendered)
}

// renderTable renders rows under headers: a rounded lipgloss table on a
// terminal, space-aligned columns otherwise. No headers renders nothing.
func renderTable(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}

	if isTTY() {
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			BorderStyle(lipgloss.NewStyle().Foreground(colorMuted)).
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return labelStyle.Padding(0, 1)
				}
				return lipgloss.NewStyle().Padding(0, 1)
			}).
			Headers(headers...).
			Rows(rows...)
		return t.String()
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && lipgloss.Width(cell) > widths[i] {
				widths[i] = lipgloss.Width(cell)
			}
		}
	}

	var sb strings.Builder
	writeRow := func(cells []string) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			if i < len(widths) && i < len(cells)-1 {
				cell += strings.Repeat(" ", widths[i]-lipgloss.Width(cell))
			}
			parts[i] = cell
		}
		sb.WriteString(strings.TrimRight(strings.Join(parts, "  "), " "))
		sb.WriteString("\n")
	}
	writeRow(headers)
	for _, row := range rows {
		writeRow(row)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// renderPanel renders content in a titled rounded box on a terminal and as a
// title line followed by the content otherwise.
func renderPanel(title, content string) string {
	if !isTTY() {
		if title == "" {
			return content
		}
		return title + "\n\n" + content
	}

	body := content
	if title != "" {
		body = labelStyle.Render(title) + "\n\n" + content
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Padding(0, 1).
		Render(body)
}
