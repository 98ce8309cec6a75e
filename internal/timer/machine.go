package timer

import "fmt"

// State is the authoritative timer state
type State struct {
	Mode                Mode `json:"mode"`
	RemainingSeconds    int  `json:"remainingSeconds"`
	Active              bool `json:"isActive"`
	CompletedWorkCycles int  `json:"completedWorkCycles"`
}

// Notification is the user-visible message for a transition
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Transition describes a mode change caused by expiry or skip
type Transition struct {
	From           Mode `json:"from"`
	To             Mode `json:"to"`
	Cycles         int  `json:"cycles"` // CompletedWorkCycles after the transition
	Skipped        bool `json:"skipped"`
	PlannedSeconds int  `json:"plannedSeconds"`
	ElapsedSeconds int  `json:"elapsedSeconds"`
}

// Notification returns the message announcing the transition
func (t Transition) Notification() Notification {
	if !t.Skipped {
		return Notification{
			Title: "Time's up!",
			Body:  fmt.Sprintf("Your %s session has ended. Time for a %s.", t.From.Label(), t.To.Session()),
		}
	}
	if t.From == ModeWork {
		return Notification{
			Title: "Session Skipped",
			Body:  fmt.Sprintf("Skipped work session. Starting %s.", t.To.Label()),
		}
	}
	return Notification{
		Title: "Break Skipped",
		Body:  fmt.Sprintf("Skipped %s. Starting work session.", t.From.Label()),
	}
}

// Machine is the Pomodoro state machine. It is not safe for concurrent
// use; Runner wraps it with a mutex and a ticker.
type Machine struct {
	durations Durations
	state     State
}

// NewMachine returns a machine in work mode, paused, with the full work duration
func NewMachine(d Durations) *Machine {
	m := &Machine{durations: d}
	m.state = State{
		Mode:             ModeWork,
		RemainingSeconds: d.Work * 60,
	}
	return m
}

// Restore returns a machine resuming from a saved state. The countdown is
// always restored paused and never longer than the mode's configured length.
func Restore(d Durations, s State) *Machine {
	m := NewMachine(d)
	if _, err := ParseMode(string(s.Mode)); err != nil {
		return m
	}
	s.RemainingSeconds = max(0, min(s.RemainingSeconds, d.Minutes(s.Mode)*60))
	if s.CompletedWorkCycles < 0 {
		s.CompletedWorkCycles = 0
	}
	s.Active = false
	m.state = s
	return m
}

// State returns a copy of the current state
func (m *Machine) State() State {
	return m.state
}

// Durations returns the configured durations
func (m *Machine) Durations() Durations {
	return m.durations
}

// TotalSeconds returns the full length of the current mode
func (m *Machine) TotalSeconds() int {
	return m.durations.Minutes(m.state.Mode) * 60
}

// Progress returns the elapsed fraction of the current mode, for display only
func (m *Machine) Progress() float64 {
	total := m.TotalSeconds()
	if total <= 0 {
		return 0
	}
	p := float64(total-m.state.RemainingSeconds) / float64(total)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// SwitchMode selects a mode, pausing and loading its full duration
func (m *Machine) SwitchMode(mode Mode) {
	m.state.Mode = mode
	m.state.Active = false
	m.state.RemainingSeconds = m.durations.Minutes(mode) * 60
}

// Tick advances one second. When the countdown reaches zero while active
// the expiry transition runs and is returned.
func (m *Machine) Tick() *Transition {
	if !m.state.Active || m.state.RemainingSeconds <= 0 {
		return nil
	}
	m.state.RemainingSeconds--
	if m.state.RemainingSeconds > 0 {
		return nil
	}
	t := m.advance(false)
	return &t
}

// Skip moves to the next mode without waiting for expiry
func (m *Machine) Skip() Transition {
	return m.advance(true)
}

// ToggleActive flips between running and paused. It has no effect when
// nothing is left to count down. Returns the new active flag.
func (m *Machine) ToggleActive() bool {
	if m.state.RemainingSeconds <= 0 {
		return m.state.Active
	}
	m.state.Active = !m.state.Active
	return m.state.Active
}

// Pause stops the countdown
func (m *Machine) Pause() {
	m.state.Active = false
}

// Reset pauses and restores the current mode's full duration
func (m *Machine) Reset() {
	m.state.Active = false
	m.state.RemainingSeconds = m.TotalSeconds()
}

// SetDuration changes the minutes of one mode. When that mode is current the
// countdown is reset to the new length and paused. Values are not validated.
func (m *Machine) SetDuration(mode Mode, minutes int) {
	m.durations = m.durations.With(mode, minutes)
	if mode == m.state.Mode {
		m.Reset()
	}
}

// SetDurations applies every mode's minutes with SetDuration semantics
func (m *Machine) SetDurations(d Durations) {
	for _, mode := range Modes {
		if d.Minutes(mode) != m.durations.Minutes(mode) {
			m.SetDuration(mode, d.Minutes(mode))
		}
	}
}

func (m *Machine) advance(skipped bool) Transition {
	from := m.state.Mode
	planned := m.TotalSeconds()
	elapsed := planned - m.state.RemainingSeconds
	if elapsed < 0 {
		elapsed = 0
	}

	next := ModeWork
	if from == ModeWork {
		m.state.CompletedWorkCycles++
		if m.state.CompletedWorkCycles%LongBreakEvery == 0 {
			next = ModeLongBreak
		} else {
			next = ModeShortBreak
		}
	}
	m.SwitchMode(next)

	return Transition{
		From:           from,
		To:             next,
		Cycles:         m.state.CompletedWorkCycles,
		Skipped:        skipped,
		PlannedSeconds: planned,
		ElapsedSeconds: elapsed,
	}
}
