package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	panel = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444466")).
		Padding(0, 1)

	title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	selected = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff00ff"))

	subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	metricLabel = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888899"))

	metricValue = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00ccff")).
			Bold(true)

	keyHint = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688")).
		Italic(true)

	buttonReady = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#00ff88")).
			Padding(0, 2)

	buttonBusy = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#ffaa00")).
			Padding(0, 2)

	buttonDead = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ffffff")).
			Background(lipgloss.Color("#ff4444")).
			Padding(0, 2)

	barHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	barMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	barLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// bar renders a position indicator for a value at fraction p of its range.
func bar(p float64, width int) string {
	filled := int(p * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	s := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case p > 0.8:
		return barHigh.Render(s)
	case p > 0.4:
		return barMid.Render(s)
	}
	return barLow.Render(s)
}

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

func spinner(frame int) string {
	if frame < 0 {
		frame = -frame
	}
	return spinnerFrames[frame%len(spinnerFrames)]
}
