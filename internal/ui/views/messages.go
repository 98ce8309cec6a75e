package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/zenith/internal/store"
	"github.com/dori/zenith/internal/timer"
	"github.com/dori/zenith/internal/ui/theme"
)

// StoreChangedMsg is delivered after a collection changes, whether the TUI
// or the embedded HTTP API made the change
type StoreChangedMsg struct {
	Change store.Change
}

// TimerEventMsg wraps an event published by the timer runner
type TimerEventMsg struct {
	Event timer.Event
}

// StatusMsg shows an informational message in the footer
type StatusMsg struct {
	Message string
}

// ErrorMsg shows an error in the footer
type ErrorMsg struct {
	Err error
}

func errorCmd(err error) tea.Cmd {
	if err == nil {
		return nil
	}
	return func() tea.Msg { return ErrorMsg{Err: err} }
}

func statusCmd(format string, args ...interface{}) tea.Cmd {
	message := fmt.Sprintf(format, args...)
	return func() tea.Msg { return StatusMsg{Message: message} }
}

// FormatClock renders seconds as MM:SS
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}

// ModeColor returns the accent for the timer state
func ModeColor(s timer.State) lipgloss.Color {
	t := theme.Current.Theme
	if !s.Active {
		return t.ModePaused
	}
	switch s.Mode {
	case timer.ModeShortBreak:
		return t.ModeShortBreak
	case timer.ModeLongBreak:
		return t.ModeLongBreak
	default:
		return t.ModeWork
	}
}

// progressBar draws a fixed-width bar for a fraction in [0,1]
func progressBar(fraction float64, width int, color lipgloss.Color) string {
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction * float64(width))
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	return lipgloss.NewStyle().Foreground(color).Render(bar)
}

// truncate shortens s to max runes, adding an ellipsis
func truncate(s string, max int) string {
	r := []rune(s)
	if max <= 3 || len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}

// clampCursor keeps a cursor inside a list of n items
func clampCursor(cursor, n int) int {
	if cursor >= n {
		cursor = n - 1
	}
	if cursor < 0 {
		cursor = 0
	}
	return cursor
}

// subjectBadge renders a subject name on its color
func subjectBadge(name, color string) string {
	return theme.Current.Styles.Tag.Background(lipgloss.Color(color)).Render(name)
}
