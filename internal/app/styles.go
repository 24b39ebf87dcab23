package app

import "github.com/charmbracelet/lipgloss"

var (
	// titleStyle for the startup banner
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))

	// dimStyle for muted hints and metadata
	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	// errorStyle for error indicators
	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	// successStyle for confirmation messages
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))
)
