package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dori/zenith/internal/timer"
	"github.com/dori/zenith/internal/ui/theme"
)

// PomodoroView drives the shared timer runner
type PomodoroView struct {
	runner *timer.Runner
	save   func(timer.Durations) error
	width  int
	height int

	snap timer.Snapshot
	last *timer.Transition
}

// NewPomodoroView creates a new Pomodoro view. save persists changed
// durations and may be nil.
func NewPomodoroView(runner *timer.Runner, save func(timer.Durations) error) PomodoroView {
	return PomodoroView{
		runner: runner,
		save:   save,
		snap:   runner.Snapshot(),
	}
}

// Init initializes the Pomodoro view
func (v PomodoroView) Init() tea.Cmd {
	return nil
}

// SetSize sets the view dimensions
func (v PomodoroView) SetSize(width, height int) PomodoroView {
	v.width = width
	v.height = height
	return v
}

// Update handles messages
func (v PomodoroView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case TimerEventMsg:
		v.snap = msg.Event.Snapshot
		if msg.Event.Transition != nil {
			tr := *msg.Event.Transition
			v.last = &tr
		}
		return v, nil

	case tea.KeyMsg:
		switch msg.String() {
		case " ", "s":
			if v.runner.Toggle() {
				v.snap = v.runner.Snapshot()
				return v, statusCmd("%s started", v.snap.State.Mode.Title())
			}
			v.snap = v.runner.Snapshot()
			return v, statusCmd("Paused")

		case "n":
			tr := v.runner.Skip()
			v.last = &tr
			v.snap = v.runner.Snapshot()
			return v, statusCmd("%s", tr.Notification().Body)

		case "r":
			v.runner.Reset()
			v.snap = v.runner.Snapshot()
			return v, statusCmd("Timer reset")

		case "w":
			return v.switchMode(timer.ModeWork)
		case "b":
			return v.switchMode(timer.ModeShortBreak)
		case "B":
			return v.switchMode(timer.ModeLongBreak)

		case "+", "=":
			return v.adjust(1)
		case "-", "_":
			return v.adjust(-1)
		}
	}

	return v, nil
}

func (v PomodoroView) switchMode(mode timer.Mode) (tea.Model, tea.Cmd) {
	v.runner.SwitchMode(mode)
	v.snap = v.runner.Snapshot()
	return v, statusCmd("Switched to %s", mode.Title())
}

// adjust changes the length of the current mode by delta minutes
func (v PomodoroView) adjust(delta int) (tea.Model, tea.Cmd) {
	mode := v.snap.State.Mode
	minutes := timer.ClampMinutes(v.snap.Durations.Minutes(mode) + delta)
	v.runner.SetDuration(mode, minutes)
	v.snap = v.runner.Snapshot()

	if v.save != nil {
		if err := v.save(v.snap.Durations); err != nil {
			return v, errorCmd(fmt.Errorf("failed to save durations: %w", err))
		}
	}
	return v, statusCmd("%s length: %d min", mode.Title(), minutes)
}

// View renders the Pomodoro view
func (v PomodoroView) View() string {
	if v.width == 0 || v.height == 0 {
		return "Loading..."
	}

	t := theme.Current.Theme
	var sections []string

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(t.Primary).
		MarginBottom(1)
	sections = append(sections, titleStyle.Render("Pomodoro Timer"))

	sections = append(sections, v.renderModes())
	sections = append(sections, v.renderTimer())

	statsStyle := lipgloss.NewStyle().
		Foreground(t.Subtle).
		MarginTop(1)
	tomatoes := strings.Repeat("🍅", v.snap.State.CompletedWorkCycles%timer.LongBreakEvery)
	if tomatoes == "" {
		tomatoes = "(none yet)"
	}
	sections = append(sections, statsStyle.Render(fmt.Sprintf(
		"Completed work cycles: %d   until long break: %s",
		v.snap.State.CompletedWorkCycles, tomatoes,
	)))

	d := v.snap.Durations
	sections = append(sections, lipgloss.NewStyle().Foreground(t.Subtle).Render(fmt.Sprintf(
		"Lengths: work %d min · short break %d min · long break %d min",
		d.Work, d.ShortBreak, d.LongBreak,
	)))

	if v.last != nil {
		n := v.last.Notification()
		sections = append(sections, lipgloss.NewStyle().
			Foreground(t.Info).
			MarginTop(1).
			Render(n.Title+" "+n.Body))
	}

	return strings.Join(sections, "\n")
}

// renderModes renders the mode selector
func (v PomodoroView) renderModes() string {
	t := theme.Current.Theme
	var tabs []string
	for _, m := range timer.Modes {
		style := lipgloss.NewStyle().Padding(0, 2).Foreground(t.Subtle)
		if m == v.snap.State.Mode {
			style = style.Foreground(t.Background).Background(t.Primary).Bold(true)
		}
		tabs = append(tabs, style.Render(m.Title()))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

// renderTimer renders the countdown with its progress bar
func (v PomodoroView) renderTimer() string {
	state := v.snap.State
	color := ModeColor(state)

	bigTime := lipgloss.NewStyle().
		Bold(true).
		Foreground(color).
		Padding(1, 4).
		MarginTop(1).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color)

	label := "PAUSED"
	if state.Active {
		label = strings.ToUpper(state.Mode.Label())
	}
	if !state.Active && v.snap.TotalSeconds == state.RemainingSeconds {
		label = "READY"
	}

	return lipgloss.JoinVertical(lipgloss.Center,
		bigTime.Render(FormatClock(state.RemainingSeconds)),
		lipgloss.NewStyle().Bold(true).Foreground(color).Render(label),
		progressBar(v.snap.Progress, 30, color),
	)
}

// IsInputMode returns whether the view is in input mode
func (v PomodoroView) IsInputMode() bool {
	return false
}
