package colors

import "github.com/charmbracelet/lipgloss"

// Catppuccin palette: Latte on light terminals, Mocha on dark ones.
// Only the entries the session and picker render with are listed.
var (
	Surface0 = lipgloss.AdaptiveColor{Light: "#ccd0da", Dark: "#313244"}
	Surface1 = lipgloss.AdaptiveColor{Light: "#bcc0cc", Dark: "#45475a"}
	Overlay0 = lipgloss.AdaptiveColor{Light: "#9ca0b0", Dark: "#6c7086"}
	Overlay1 = lipgloss.AdaptiveColor{Light: "#8c8fa1", Dark: "#7f849c"}
	Subtext0 = lipgloss.AdaptiveColor{Light: "#6c6f85", Dark: "#a6adc8"}
	Text     = lipgloss.AdaptiveColor{Light: "#4c4f69", Dark: "#cdd6f4"}

	Sapphire = lipgloss.AdaptiveColor{Light: "#209fb5", Dark: "#74c7ec"}
	Green    = lipgloss.AdaptiveColor{Light: "#40a02b", Dark: "#a6e3a1"}
	Yellow   = lipgloss.AdaptiveColor{Light: "#df8e1d", Dark: "#f9e2af"}
	Peach    = lipgloss.AdaptiveColor{Light: "#fe640b", Dark: "#fab387"}
	Red      = lipgloss.AdaptiveColor{Light: "#d20f39", Dark: "#f38ba8"}
	Mauve    = lipgloss.AdaptiveColor{Light: "#8839ef", Dark: "#cba6f7"}
)
