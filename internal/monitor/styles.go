package monitor

import "github.com/charmbracelet/lipgloss"

var (
	colorFg      = lipgloss.Color("#EDEDED")
	colorMuted   = lipgloss.Color("#666666")
	colorBorder  = lipgloss.Color("#333333")
	colorNear    = lipgloss.Color("#F5A623")
	colorPressed = lipgloss.Color("#50E3C2")
	colorError   = lipgloss.Color("#E00")
)

var (
	containerStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorFg)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	hintStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError)
)

// Cell styles by key state.
var (
	releasedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	nearStyle = lipgloss.NewStyle().
			Foreground(colorNear)

	pressedStyle = lipgloss.NewStyle().
			Foreground(colorPressed).
			Bold(true)
)
