package theme

import "github.com/charmbracelet/lipgloss"

// Catppuccin theme, Mocha flavor
// https://catppuccin.com/
var Catppuccin = Theme{
	Name: "catppuccin",

	Background: lipgloss.Color("#1E1E2E"),
	Foreground: lipgloss.Color("#CDD6F4"),
	Subtle:     lipgloss.Color("#6C7086"),
	Highlight:  lipgloss.Color("#313244"),
	Border:     lipgloss.Color("#45475A"),

	Primary:   lipgloss.Color("#89B4FA"), // Blue
	Secondary: lipgloss.Color("#CBA6F7"), // Mauve
	Info:      lipgloss.Color("#74C7EC"), // Sapphire

	Success: lipgloss.Color("#A6E3A1"),
	Warning: lipgloss.Color("#F9E2AF"),
	Error:   lipgloss.Color("#F38BA8"),

	ModeWork:       lipgloss.Color("#F38BA8"),
	ModeShortBreak: lipgloss.Color("#A6E3A1"),
	ModeLongBreak:  lipgloss.Color("#89B4FA"),
	ModePaused:     lipgloss.Color("#FAB387"), // Peach
}
