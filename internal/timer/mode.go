package timer

import "fmt"

// Mode is the kind of interval the timer is counting down
type Mode string

const (
	ModeWork       Mode = "work"
	ModeShortBreak Mode = "shortBreak"
	ModeLongBreak  Mode = "longBreak"
)

// Modes lists every mode in display order
var Modes = []Mode{ModeWork, ModeShortBreak, ModeLongBreak}

// LongBreakEvery is the number of work cycles between long breaks
const LongBreakEvery = 4

// ParseMode accepts the mode identifiers plus a few shorthand spellings
func ParseMode(s string) (Mode, error) {
	switch s {
	case "work", "pomodoro", "focus":
		return ModeWork, nil
	case "shortBreak", "short", "short_break":
		return ModeShortBreak, nil
	case "longBreak", "long", "long_break":
		return ModeLongBreak, nil
	}
	return "", fmt.Errorf("unknown timer mode %q", s)
}

// IsBreak returns true for either break mode
func (m Mode) IsBreak() bool {
	return m == ModeShortBreak || m == ModeLongBreak
}

// Label returns the lower-case human name ("short break")
func (m Mode) Label() string {
	switch m {
	case ModeShortBreak:
		return "short break"
	case ModeLongBreak:
		return "long break"
	default:
		return "work"
	}
}

// Session returns the name used when announcing the next interval
func (m Mode) Session() string {
	if m == ModeWork {
		return "work session"
	}
	return m.Label()
}

// Title returns the label used in headers ("Short Break")
func (m Mode) Title() string {
	switch m {
	case ModeShortBreak:
		return "Short Break"
	case ModeLongBreak:
		return "Long Break"
	default:
		return "Pomodoro"
	}
}

// Durations holds the configured length of each mode in whole minutes
type Durations struct {
	Work       int `json:"work" yaml:"work_minutes" mapstructure:"work"`
	ShortBreak int `json:"shortBreak" yaml:"short_break_minutes" mapstructure:"short_break"`
	LongBreak  int `json:"longBreak" yaml:"long_break_minutes" mapstructure:"long_break"`
}

// DefaultDurations returns 25/5/15
func DefaultDurations() Durations {
	return Durations{Work: 25, ShortBreak: 5, LongBreak: 15}
}

// Minutes returns the configured minutes for m
func (d Durations) Minutes(m Mode) int {
	switch m {
	case ModeShortBreak:
		return d.ShortBreak
	case ModeLongBreak:
		return d.LongBreak
	default:
		return d.Work
	}
}

// With returns a copy with the minutes for m replaced
func (d Durations) With(m Mode, minutes int) Durations {
	switch m {
	case ModeShortBreak:
		d.ShortBreak = minutes
	case ModeLongBreak:
		d.LongBreak = minutes
	default:
		d.Work = minutes
	}
	return d
}

// Clamped returns a copy with every duration raised to at least one minute
func (d Durations) Clamped() Durations {
	return Durations{
		Work:       ClampMinutes(d.Work),
		ShortBreak: ClampMinutes(d.ShortBreak),
		LongBreak:  ClampMinutes(d.LongBreak),
	}
}

// ClampMinutes raises non-positive minute values to 1.
// The machine itself accepts any value; callers use this before SetDuration.
func ClampMinutes(minutes int) int {
	if minutes < 1 {
		return 1
	}
	return minutes
}
