package bubbletea

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/jkowal/recall"
)

// Styles maps a Theme to lipgloss styles for chat panel rendering.
type Styles struct {
	UserMsg      lipgloss.Style
	Source       lipgloss.Style
	Error        lipgloss.Style
	Success      lipgloss.Style
	Muted        lipgloss.Style
	Accent       lipgloss.Style
	ToastInfo    lipgloss.Style
	ToastSuccess lipgloss.Style
	ToastError   lipgloss.Style
}

// NewStyles creates Styles from a Theme.
func NewStyles(t recall.Theme) Styles {
	return Styles{
		UserMsg:      lipgloss.NewStyle().Foreground(ansiColor(t.UserMsg)).Bold(true),
		Source:       lipgloss.NewStyle().Foreground(ansiColor(t.Source)),
		Error:        lipgloss.NewStyle().Foreground(ansiColor(t.Error)),
		Success:      lipgloss.NewStyle().Foreground(ansiColor(t.Success)),
		Muted:        lipgloss.NewStyle().Foreground(ansiColor(t.Muted)).Faint(true),
		Accent:       lipgloss.NewStyle().Foreground(ansiColor(t.Accent)).Bold(true),
		ToastInfo:    lipgloss.NewStyle().Foreground(ansiColor(t.Accent)).PaddingLeft(1),
		ToastSuccess: lipgloss.NewStyle().Foreground(ansiColor(t.Success)).PaddingLeft(1),
		ToastError:   lipgloss.NewStyle().Foreground(ansiColor(t.Error)).PaddingLeft(1),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}
