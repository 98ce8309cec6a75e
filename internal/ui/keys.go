package ui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the global keybindings. View specific keys are handled by
// each view and listed in the footer.
type KeyMap struct {
	TimerView      key.Binding
	TasksView      key.Binding
	CurriculumView key.Binding
	CalendarView   key.Binding
	ClassroomView  key.Binding
	MediaView      key.Binding
	AssistantView  key.Binding
	StatsView      key.Binding
	NextView       key.Binding

	ToggleTimer key.Binding
	Help        key.Binding
	ThemeCycle  key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the default keybindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		TimerView: key.NewBinding(
			key.WithKeys("1"),
			key.WithHelp("1", "timer"),
		),
		TasksView: key.NewBinding(
			key.WithKeys("2"),
			key.WithHelp("2", "tasks"),
		),
		CurriculumView: key.NewBinding(
			key.WithKeys("3"),
			key.WithHelp("3", "curriculum"),
		),
		CalendarView: key.NewBinding(
			key.WithKeys("4"),
			key.WithHelp("4", "calendar"),
		),
		ClassroomView: key.NewBinding(
			key.WithKeys("5"),
			key.WithHelp("5", "classroom"),
		),
		MediaView: key.NewBinding(
			key.WithKeys("6"),
			key.WithHelp("6", "media"),
		),
		AssistantView: key.NewBinding(
			key.WithKeys("7"),
			key.WithHelp("7", "assistant"),
		),
		StatsView: key.NewBinding(
			key.WithKeys("8"),
			key.WithHelp("8", "stats"),
		),
		NextView: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("ctrl+n", "next view"),
		),
		ToggleTimer: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "start/pause timer"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		ThemeCycle: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "cycle theme"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns keybindings for the short help view
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.ToggleTimer, k.Quit}
}

// FullHelp returns keybindings for the full help view
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.TimerView, k.TasksView, k.CurriculumView, k.CalendarView},
		{k.ClassroomView, k.MediaView, k.AssistantView, k.StatsView},
		{k.NextView, k.ToggleTimer, k.ThemeCycle, k.Help, k.Quit},
	}
}
