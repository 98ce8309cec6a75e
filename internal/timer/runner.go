package timer

import (
	"sync"
	"time"
)

// EventType identifies a Runner event
type EventType string

const (
	EventStateChange EventType = "state_change"
	EventTick        EventType = "tick"
	EventExpired     EventType = "expired"
	EventSkipped     EventType = "skipped"
	EventConfig      EventType = "config"
)

// Event is published to subscribers after every change
type Event struct {
	Type       EventType
	Snapshot   Snapshot
	Transition *Transition
	At         time.Time
}

// Snapshot is a consistent view of the runner for rendering
type Snapshot struct {
	State        State     `json:"state"`
	Durations    Durations `json:"durations"`
	TotalSeconds int       `json:"totalSeconds"`
	Progress     float64   `json:"progress"`
}

// Config contains runtime options for Runner
type Config struct {
	TickInterval time.Duration
}

// Runner drives a Machine with a ticker that only runs while the timer is
// active. It is safe for concurrent use by the TUI, HTTP handlers and the
// device controller.
type Runner struct {
	mu      sync.Mutex
	machine *Machine
	options Config
	events  []chan Event
	stopCh  chan struct{}
	closed  bool
}

// NewRunner wraps machine. A zero TickInterval means one second.
func NewRunner(machine *Machine, options Config) *Runner {
	if options.TickInterval <= 0 {
		options.TickInterval = time.Second
	}
	return &Runner{machine: machine, options: options}
}

// Subscribe registers a new observer channel
func (r *Runner) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	r.mu.Lock()
	if r.closed {
		close(ch)
	} else {
		r.events = append(r.events, ch)
	}
	r.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a channel returned by Subscribe
func (r *Runner) Unsubscribe(ch <-chan Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, c := range r.events {
		if c == ch {
			r.events = append(r.events[:i], r.events[i+1:]...)
			close(c)
			return
		}
	}
}

// Snapshot returns the current state
func (r *Runner) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.snapshotLocked()
}

// SwitchMode selects a mode and pauses
func (r *Runner) SwitchMode(mode Mode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.machine.SwitchMode(mode)
	r.afterLocked(EventStateChange, nil)
}

// Toggle starts or pauses the countdown and returns the new active flag
func (r *Runner) Toggle() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	active := r.machine.ToggleActive()
	r.afterLocked(EventStateChange, nil)
	return active
}

// Start resumes the countdown if it is paused
func (r *Runner) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.machine.State().Active {
		return
	}
	r.machine.ToggleActive()
	r.afterLocked(EventStateChange, nil)
}

// Pause stops the countdown
func (r *Runner) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.machine.State().Active {
		return
	}
	r.machine.Pause()
	r.afterLocked(EventStateChange, nil)
}

// Skip moves to the next mode immediately
func (r *Runner) Skip() Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	t := r.machine.Skip()
	r.afterLocked(EventSkipped, &t)
	return t
}

// Reset restores the current mode's full duration and pauses
func (r *Runner) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.machine.Reset()
	r.afterLocked(EventStateChange, nil)
}

// SetDuration changes one mode's minutes
func (r *Runner) SetDuration(mode Mode, minutes int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.machine.SetDuration(mode, minutes)
	r.afterLocked(EventConfig, nil)
}

// SetDurations changes every mode's minutes
func (r *Runner) SetDurations(d Durations) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.machine.SetDurations(d)
	r.afterLocked(EventConfig, nil)
}

// Close stops the ticker and closes all subscriber channels
func (r *Runner) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	r.machine.Pause()
	r.stopTickerLocked()
	events := r.events
	r.events = nil
	r.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}

func (r *Runner) run(stop chan struct{}) {
	ticker := time.NewTicker(r.options.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			r.tick(stop)
		}
	}
}

func (r *Runner) tick(stop chan struct{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// A ticker that was replaced or stopped must not advance the machine.
	if r.stopCh != stop {
		return
	}
	if t := r.machine.Tick(); t != nil {
		r.afterLocked(EventExpired, t)
		return
	}
	r.emitLocked(Event{Type: EventTick, Snapshot: r.snapshotLocked(), At: time.Now()})
}

// afterLocked reconciles the ticker with the active flag and notifies observers
func (r *Runner) afterLocked(typ EventType, t *Transition) {
	if r.machine.State().Active && !r.closed {
		if r.stopCh == nil {
			r.stopCh = make(chan struct{})
			go r.run(r.stopCh)
		}
	} else {
		r.stopTickerLocked()
	}
	r.emitLocked(Event{Type: typ, Snapshot: r.snapshotLocked(), Transition: t, At: time.Now()})
}

func (r *Runner) stopTickerLocked() {
	if r.stopCh != nil {
		close(r.stopCh)
		r.stopCh = nil
	}
}

func (r *Runner) snapshotLocked() Snapshot {
	return Snapshot{
		State:        r.machine.State(),
		Durations:    r.machine.Durations(),
		TotalSeconds: r.machine.TotalSeconds(),
		Progress:     r.machine.Progress(),
	}
}

func (r *Runner) emitLocked(event Event) {
	for _, ch := range r.events {
		select {
		case ch <- event:
		default:
		}
	}
}
