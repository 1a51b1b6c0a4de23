package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// outputStyles colours command output. Styles are plain unless the
// writer is a terminal.
type outputStyles struct {
	Title   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
}

func newOutputStyles(w io.Writer) outputStyles {
	if !isTerminal(w) {
		plain := lipgloss.NewStyle()
		return outputStyles{Title: plain, Success: plain, Error: plain, Muted: plain}
	}
	return outputStyles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color("#A6E3A1")),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8")),
		Muted:   lipgloss.NewStyle().Foreground(lipgloss.Color("#6C7086")),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
