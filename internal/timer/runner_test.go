package timer

import (
	"testing"
	"time"
)

func waitFor(t *testing.T, ch <-chan Event, typ EventType) Event {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				t.Fatalf("channel closed while waiting for %s", typ)
			}
			if ev.Type == typ {
				return ev
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", typ)
		}
	}
}

func TestRunnerTicksToExpiry(t *testing.T) {
	r := NewRunner(NewMachine(Durations{Work: 1, ShortBreak: 1, LongBreak: 1}), Config{TickInterval: time.Millisecond})
	defer r.Close()

	events := r.Subscribe(256)
	r.Start()

	ev := waitFor(t, events, EventExpired)
	if ev.Transition == nil || ev.Transition.To != ModeShortBreak {
		t.Fatalf("unexpected transition %+v", ev.Transition)
	}
	if ev.Snapshot.State.Active {
		t.Error("expected paused after expiry")
	}

	// The ticker must be stopped once the machine pauses itself.
	time.Sleep(20 * time.Millisecond)
	if got := r.Snapshot().State.RemainingSeconds; got != 60 {
		t.Errorf("expected short break to stay at 60 seconds, got %d", got)
	}
}

func TestRunnerPauseStopsCountdown(t *testing.T) {
	r := NewRunner(NewMachine(DefaultDurations()), Config{TickInterval: time.Millisecond})
	defer r.Close()

	events := r.Subscribe(64)
	r.Start()
	waitFor(t, events, EventTick)
	r.Pause()

	before := r.Snapshot().State.RemainingSeconds
	time.Sleep(20 * time.Millisecond)
	if after := r.Snapshot().State.RemainingSeconds; after != before {
		t.Errorf("countdown moved while paused: %d -> %d", before, after)
	}
}

func TestRunnerSkipPublishesTransition(t *testing.T) {
	r := NewRunner(NewMachine(DefaultDurations()), Config{})
	defer r.Close()

	events := r.Subscribe(4)
	tr := r.Skip()
	if tr.To != ModeShortBreak {
		t.Fatalf("expected short break, got %s", tr.To)
	}

	ev := waitFor(t, events, EventSkipped)
	if ev.Transition == nil || !ev.Transition.Skipped {
		t.Errorf("expected skipped transition, got %+v", ev.Transition)
	}
}

func TestRunnerSetDurationPublishesConfig(t *testing.T) {
	r := NewRunner(NewMachine(DefaultDurations()), Config{})
	defer r.Close()

	events := r.Subscribe(4)
	r.SetDuration(ModeWork, 40)

	ev := waitFor(t, events, EventConfig)
	if ev.Snapshot.Durations.Work != 40 || ev.Snapshot.State.RemainingSeconds != 2400 {
		t.Errorf("unexpected snapshot %+v", ev.Snapshot)
	}
}

func TestRunnerCloseClosesSubscribers(t *testing.T) {
	r := NewRunner(NewMachine(DefaultDurations()), Config{TickInterval: time.Millisecond})
	events := r.Subscribe(1)
	r.Start()
	r.Close()

	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				if r.Snapshot().State.Active {
					t.Error("expected runner to be paused after close")
				}
				return
			}
		case <-deadline:
			t.Fatal("subscriber channel not closed")
		}
	}
}

func TestRunnerUnsubscribe(t *testing.T) {
	r := NewRunner(NewMachine(DefaultDurations()), Config{})
	defer r.Close()

	events := r.Subscribe(4)
	r.Unsubscribe(events)
	if _, ok := <-events; ok {
		t.Fatal("expected closed channel after Unsubscribe")
	}
	// a second call and later events must not panic
	r.Unsubscribe(events)
	r.Reset()
}
