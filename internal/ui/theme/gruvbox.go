package theme

import "github.com/charmbracelet/lipgloss"

// Gruvbox theme, dark variant
// https://github.com/morhetz/gruvbox
var Gruvbox = Theme{
	Name: "gruvbox",

	Background: lipgloss.Color("#282828"),
	Foreground: lipgloss.Color("#EBDBB2"),
	Subtle:     lipgloss.Color("#928374"),
	Highlight:  lipgloss.Color("#3C3836"),
	Border:     lipgloss.Color("#504945"),

	Primary:   lipgloss.Color("#83A598"), // Aqua
	Secondary: lipgloss.Color("#8EC07C"),
	Info:      lipgloss.Color("#83A598"),

	Success: lipgloss.Color("#B8BB26"),
	Warning: lipgloss.Color("#FABD2F"),
	Error:   lipgloss.Color("#FB4934"),

	ModeWork:       lipgloss.Color("#FB4934"),
	ModeShortBreak: lipgloss.Color("#B8BB26"),
	ModeLongBreak:  lipgloss.Color("#83A598"),
	ModePaused:     lipgloss.Color("#FE8019"), // Orange
}
