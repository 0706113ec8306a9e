package terminal

import "github.com/charmbracelet/lipgloss"

var (
	primary = lipgloss.Color("#1cc2e3")
	gray    = lipgloss.Color("#6B7280")

	questionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primary)

	helpStyle = lipgloss.NewStyle().
			Foreground(gray)

	alertStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(primary).
			Padding(0, 1)
)
