package timer

import "testing"

func TestNewMachineInitialState(t *testing.T) {
	m := NewMachine(DefaultDurations())
	s := m.State()

	if s.Mode != ModeWork {
		t.Errorf("expected work mode, got %s", s.Mode)
	}
	if s.RemainingSeconds != 25*60 {
		t.Errorf("expected 1500 seconds, got %d", s.RemainingSeconds)
	}
	if s.Active {
		t.Error("expected machine to start paused")
	}
	if s.CompletedWorkCycles != 0 {
		t.Errorf("expected 0 cycles, got %d", s.CompletedWorkCycles)
	}
}

func TestSwitchModeLoadsFullDuration(t *testing.T) {
	m := NewMachine(Durations{Work: 30, ShortBreak: 7, LongBreak: 20})
	m.ToggleActive()

	for _, mode := range []Mode{ModeLongBreak, ModeShortBreak, ModeWork, ModeShortBreak} {
		m.SwitchMode(mode)
		s := m.State()
		if s.Mode != mode {
			t.Fatalf("expected mode %s, got %s", mode, s.Mode)
		}
		if want := m.Durations().Minutes(mode) * 60; s.RemainingSeconds != want {
			t.Errorf("%s: expected %d seconds, got %d", mode, want, s.RemainingSeconds)
		}
		if s.Active {
			t.Errorf("%s: expected paused after switch", mode)
		}
	}
}

func TestExpiryFromWork(t *testing.T) {
	tests := []struct {
		cycles int
		want   Mode
	}{
		{0, ModeShortBreak},
		{1, ModeShortBreak},
		{2, ModeShortBreak},
		{3, ModeLongBreak},
		{7, ModeLongBreak},
	}

	for _, tt := range tests {
		m := Restore(Durations{Work: 1, ShortBreak: 5, LongBreak: 15}, State{
			Mode:                ModeWork,
			RemainingSeconds:    1,
			CompletedWorkCycles: tt.cycles,
		})
		m.ToggleActive()

		tr := m.Tick()
		if tr == nil {
			t.Fatalf("cycles=%d: expected expiry transition", tt.cycles)
		}
		s := m.State()
		if s.Mode != tt.want {
			t.Errorf("cycles=%d: expected %s, got %s", tt.cycles, tt.want, s.Mode)
		}
		if s.CompletedWorkCycles != tt.cycles+1 {
			t.Errorf("cycles=%d: expected %d cycles after expiry, got %d", tt.cycles, tt.cycles+1, s.CompletedWorkCycles)
		}
		if s.Active {
			t.Errorf("cycles=%d: expected paused after expiry", tt.cycles)
		}
		if tr.Skipped {
			t.Errorf("cycles=%d: expiry must not be marked skipped", tt.cycles)
		}
	}
}

func TestWorkExpiryScenario(t *testing.T) {
	m := NewMachine(DefaultDurations())
	m.ToggleActive()

	var tr *Transition
	for i := 0; i < 25*60; i++ {
		if tr = m.Tick(); tr != nil && i != 25*60-1 {
			t.Fatalf("expiry fired early at tick %d", i)
		}
	}
	if tr == nil {
		t.Fatal("expected expiry after 1500 ticks")
	}

	s := m.State()
	if s.Mode != ModeShortBreak || s.Active || s.RemainingSeconds != 300 || s.CompletedWorkCycles != 1 {
		t.Errorf("unexpected state after expiry: %+v", s)
	}

	n := tr.Notification()
	if n.Title != "Time's up!" {
		t.Errorf("unexpected title %q", n.Title)
	}
	if n.Body != "Your work session has ended. Time for a short break." {
		t.Errorf("unexpected body %q", n.Body)
	}
}

func TestTickWhilePausedDoesNothing(t *testing.T) {
	m := NewMachine(DefaultDurations())
	if tr := m.Tick(); tr != nil {
		t.Fatal("paused machine must not expire")
	}
	if m.State().RemainingSeconds != 1500 {
		t.Errorf("paused machine must not count down, got %d", m.State().RemainingSeconds)
	}
}

func TestSkipFromBreakKeepsCycles(t *testing.T) {
	for _, mode := range []Mode{ModeShortBreak, ModeLongBreak} {
		m := Restore(DefaultDurations(), State{Mode: mode, RemainingSeconds: 42, CompletedWorkCycles: 2})
		tr := m.Skip()

		s := m.State()
		if s.Mode != ModeWork {
			t.Errorf("%s: expected work after skip, got %s", mode, s.Mode)
		}
		if s.CompletedWorkCycles != 2 {
			t.Errorf("%s: skip from break changed cycles to %d", mode, s.CompletedWorkCycles)
		}
		if n := tr.Notification(); n.Title != "Break Skipped" {
			t.Errorf("%s: unexpected title %q", mode, n.Title)
		}
	}
}

func TestSkipFromWorkIncrementsCycles(t *testing.T) {
	m := Restore(DefaultDurations(), State{Mode: ModeWork, RemainingSeconds: 600, CompletedWorkCycles: 3})
	tr := m.Skip()

	if m.State().Mode != ModeLongBreak {
		t.Errorf("expected long break, got %s", m.State().Mode)
	}
	if m.State().CompletedWorkCycles != 4 {
		t.Errorf("expected 4 cycles, got %d", m.State().CompletedWorkCycles)
	}
	n := tr.Notification()
	if n.Title != "Session Skipped" || n.Body != "Skipped work session. Starting long break." {
		t.Errorf("unexpected notification %+v", n)
	}
	if tr.ElapsedSeconds != 25*60-600 {
		t.Errorf("expected elapsed %d, got %d", 25*60-600, tr.ElapsedSeconds)
	}
}

func TestToggleActiveAtZero(t *testing.T) {
	m := Restore(DefaultDurations(), State{Mode: ModeWork, RemainingSeconds: 0})
	if m.ToggleActive() {
		t.Error("toggle must have no effect with nothing left")
	}
}

func TestResetRestoresDuration(t *testing.T) {
	m := NewMachine(DefaultDurations())
	m.ToggleActive()
	m.Tick()
	m.Tick()
	m.Reset()

	s := m.State()
	if s.Active || s.RemainingSeconds != 1500 {
		t.Errorf("unexpected state after reset: %+v", s)
	}
}

func TestSetDurationCurrentMode(t *testing.T) {
	m := NewMachine(DefaultDurations())
	m.ToggleActive()
	m.Tick()

	m.SetDuration(ModeWork, 50)
	s := m.State()
	if s.RemainingSeconds != 3000 || s.Active {
		t.Errorf("expected reset to 3000 and paused, got %+v", s)
	}
}

func TestSetDurationOtherMode(t *testing.T) {
	m := NewMachine(DefaultDurations())
	m.ToggleActive()
	m.Tick()

	m.SetDuration(ModeLongBreak, 30)
	s := m.State()
	if s.RemainingSeconds != 1499 || !s.Active {
		t.Errorf("changing another mode must not touch the countdown, got %+v", s)
	}
	if m.Durations().LongBreak != 30 {
		t.Errorf("expected long break 30, got %d", m.Durations().LongBreak)
	}
}

func TestProgress(t *testing.T) {
	m := Restore(Durations{Work: 10, ShortBreak: 5, LongBreak: 15}, State{Mode: ModeWork, RemainingSeconds: 150})
	if got := m.Progress(); got != 0.75 {
		t.Errorf("expected 0.75, got %v", got)
	}

	zero := NewMachine(Durations{})
	if got := zero.Progress(); got != 0 {
		t.Errorf("expected 0 for zero duration, got %v", got)
	}
}

func TestClampMinutes(t *testing.T) {
	for in, want := range map[int]int{-5: 1, 0: 1, 1: 1, 45: 45} {
		if got := ClampMinutes(in); got != want {
			t.Errorf("ClampMinutes(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("short"); err != nil || m != ModeShortBreak {
		t.Errorf("ParseMode(short) = %v, %v", m, err)
	}
	if _, err := ParseMode("nap"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestRestoreCapsRemainingAtDuration(t *testing.T) {
	d := Durations{Work: 10, ShortBreak: 5, LongBreak: 15}
	m := Restore(d, State{Mode: ModeWork, RemainingSeconds: 25 * 60, Active: true})

	s := m.State()
	if s.RemainingSeconds != 600 {
		t.Errorf("expected remaining capped at 600, got %d", s.RemainingSeconds)
	}
	if s.Active {
		t.Error("restored machine must be paused")
	}
	if m.Progress() != 0 {
		t.Errorf("expected progress 0 at the start of a capped session, got %v", m.Progress())
	}

	m = Restore(d, State{Mode: ModeShortBreak, RemainingSeconds: -5})
	if m.State().RemainingSeconds != 0 {
		t.Errorf("negative remaining restored as %d", m.State().RemainingSeconds)
	}
}
