package notify

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dori/zenith/internal/timer"
)

type recorder struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *recorder) run(name string, args ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, append([]string{name}, args...))
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func newTestNotifier(goos string) (*Notifier, *recorder) {
	rec := &recorder{}
	n := NewNotifier(true, nil)
	n.goos = goos
	n.run = rec.run
	return n, rec
}

func TestSendLinux(t *testing.T) {
	n, rec := newTestNotifier("linux")
	if err := n.SendSimple("Time's up!", "Back to work"); err != nil {
		t.Fatal(err)
	}
	got := strings.Join(rec.calls[0], " ")
	want := "notify-send -u normal -t 5000 -a zenith Time's up! Back to work"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSendDarwinQuotes(t *testing.T) {
	n, rec := newTestNotifier("darwin")
	n.SendSimple(`Say "hi"`, "body")
	call := rec.calls[0]
	if call[0] != "osascript" || call[1] != "-e" {
		t.Fatalf("unexpected command %v", call)
	}
	if call[2] != `display notification "body" with title "Say \"hi\""` {
		t.Errorf("unexpected script %q", call[2])
	}
}

func TestSendDisabledAndUnsupported(t *testing.T) {
	n, rec := newTestNotifier("linux")
	n.SetEnabled(false)
	n.SendSimple("a", "b")

	w, wrec := newTestNotifier("windows")
	w.SendSimple("a", "b")

	if rec.count() != 0 || wrec.count() != 0 {
		t.Error("expected no commands")
	}
}

func TestForwardOnlyTransitions(t *testing.T) {
	n, rec := newTestNotifier("linux")
	events := make(chan timer.Event, 4)
	events <- timer.Event{Type: timer.EventTick}
	events <- timer.Event{Type: timer.EventExpired, Transition: &timer.Transition{From: timer.ModeWork, To: timer.ModeShortBreak, Cycles: 1}}
	events <- timer.Event{Type: timer.EventStateChange}
	events <- timer.Event{Type: timer.EventSkipped, Transition: &timer.Transition{From: timer.ModeShortBreak, To: timer.ModeWork, Skipped: true}}
	close(events)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	n.Forward(ctx, events)

	if rec.count() != 2 {
		t.Fatalf("expected 2 notifications, got %d", rec.count())
	}
	if !strings.Contains(strings.Join(rec.calls[0], " "), "Your work session has ended. Time for a short break.") {
		t.Errorf("unexpected expiry notification %v", rec.calls[0])
	}
	if !strings.Contains(strings.Join(rec.calls[1], " "), "Break Skipped") {
		t.Errorf("unexpected skip notification %v", rec.calls[1])
	}
}
