package panel

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	primaryColor   = lipgloss.Color("#7D56F4") // Purple
	secondaryColor = lipgloss.Color("#43BF6D") // Green
	errorColor     = lipgloss.Color("#FF0000") // Red
	textColor      = lipgloss.Color("#FFFFFF") // White
	subtleColor    = lipgloss.Color("#626262") // Gray
)

// Common styles
var (
	titleStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true).
			Padding(1, 0)

	serialStyle = lipgloss.NewStyle().
			Foreground(subtleColor).
			Italic(true)

	rowStyle = lipgloss.NewStyle().
			PaddingLeft(4).
			Foreground(textColor)

	selectedRowStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Foreground(secondaryColor).
				Bold(true)

	onStyle = lipgloss.NewStyle().
		Foreground(secondaryColor).
		Bold(true)

	offStyle = lipgloss.NewStyle().
			Foreground(subtleColor)

	errStyle = lipgloss.NewStyle().
			Foreground(errorColor).
			Bold(true).
			PaddingTop(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(subtleColor).
			PaddingTop(1)
)
