package styles

import (
	"github.com/allbin/go-serialterm/internal/tui/colors"
	"github.com/charmbracelet/lipgloss"
)

var (
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Mauve).
			Background(colors.Surface0).
			Padding(0, 1)

	// Inline status lines printed between device output
	StatusInfoStyle = lipgloss.NewStyle().
			Foreground(colors.Sapphire).
			Bold(true)

	StatusCommandStyle = lipgloss.NewStyle().
				Foreground(colors.Yellow).
				Bold(true)

	StatusErrorStyle = lipgloss.NewStyle().
				Foreground(colors.Red).
				Bold(true)

	// Hex threshold prompt and its echoed digits
	PromptStyle = lipgloss.NewStyle().
			Foreground(colors.Peach)

	LabelStyle = lipgloss.NewStyle().
			Foreground(colors.Subtext0)

	ValueStyle = lipgloss.NewStyle().
			Foreground(colors.Text).
			Bold(true)

	SignalOnStyle = lipgloss.NewStyle().
			Foreground(colors.Green).
			Bold(true)

	SignalOffStyle = lipgloss.NewStyle().
			Foreground(colors.Overlay0)

	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colors.Red)

	HelpStyle = lipgloss.NewStyle().
			Foreground(colors.Overlay1)
)

type StatusType int

const (
	StatusInfo StatusType = iota
	StatusCommand
	StatusError
)

func GetStatusStyle(status StatusType) lipgloss.Style {
	switch status {
	case StatusCommand:
		return StatusCommandStyle
	case StatusError:
		return StatusErrorStyle
	default:
		return StatusInfoStyle
	}
}

// Signal renders a modem line name coloured by its state
func Signal(name string, on bool) string {
	if on {
		return SignalOnStyle.Render(name)
	}
	return SignalOffStyle.Render(name)
}
