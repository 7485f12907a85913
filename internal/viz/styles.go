package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444466")).
			Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ffff"))

	subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	statusRunning = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00ff88"))

	statusPaused = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffaa00"))

	statusStopped = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ff4444"))

	labelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#888899")).Width(14)
	valueStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ccff")).Bold(true)
	activeParamStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff00ff")).Bold(true)
	errorStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
	keyHint          = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688")).Italic(true)

	barHigh = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff88"))
	barMid  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffcc00"))
	barLow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
)

// ProgressBar renders a bar for fraction in [0, 1], coloured by level.
func ProgressBar(fraction float64, width int) string {
	filled := int(fraction * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	if fraction > 0.5 {
		return barHigh.Render(bar)
	} else if fraction > 0.2 {
		return barMid.Render(bar)
	}
	return barLow.Render(bar)
}

// Separator draws a muted horizontal rule.
func Separator(width int) string {
	if width < 8 {
		width = 8
	}
	mid := width / 2
	left := strings.Repeat("─", mid-2)
	right := strings.Repeat("─", width-mid-2)
	return subtle.Render(left + " ◆ " + right)
}
