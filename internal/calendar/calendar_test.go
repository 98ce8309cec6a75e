package calendar

import (
	"testing"
	"time"

	"github.com/dori/zenith/internal/model"
)

func day(y int, m time.Month, d int) *time.Time {
	t := time.Date(y, m, d, 0, 0, 0, 0, time.Local)
	return &t
}

func TestByDay(t *testing.T) {
	tasks := []model.Task{
		{ID: "1", Text: "a", Date: day(2026, 2, 3)},
		{ID: "2", Text: "b"},
		{ID: "3", Text: "c", Date: day(2026, 2, 3)},
		{ID: "4", Text: "d", Date: day(2026, 3, 3)},
	}

	got := ByDay(tasks, Month{2026, time.February})
	if len(got) != 1 || len(got[3]) != 2 {
		t.Fatalf("unexpected grouping %+v", got)
	}
	if got[3][0].ID != "1" || got[3][1].ID != "3" {
		t.Errorf("expected list order kept, got %+v", got[3])
	}
}

func TestGrid(t *testing.T) {
	// February 2026 starts on a Sunday and has 28 days.
	weeks := Grid(Month{2026, time.February})
	if len(weeks) != 4 {
		t.Fatalf("expected 4 weeks, got %d", len(weeks))
	}
	if weeks[0][0] != 1 || weeks[3][6] != 28 {
		t.Errorf("unexpected grid %+v", weeks)
	}

	// March 2026 starts on a Sunday too and spills into a fifth row.
	weeks = Grid(Month{2026, time.March})
	if len(weeks) != 5 || weeks[4][2] != 31 || weeks[4][3] != 0 {
		t.Errorf("unexpected March grid %+v", weeks)
	}
}

func TestMonthNavigation(t *testing.T) {
	m := Month{2026, time.December}
	if n := m.Next(); n.Year != 2027 || n.Month != time.January {
		t.Errorf("unexpected next %v", n)
	}
	if p := (Month{2026, time.January}).Prev(); p.Year != 2025 || p.Month != time.December {
		t.Errorf("unexpected prev %v", p)
	}
	if d := (Month{2028, time.February}).Days(); d != 29 {
		t.Errorf("expected leap February, got %d", d)
	}
}

func TestEventsText(t *testing.T) {
	now := time.Date(2026, 4, 10, 9, 0, 0, 0, time.Local)
	if got := EventsText(nil, now); got != NoCalendarText {
		t.Errorf("expected placeholder, got %q", got)
	}

	tasks := []model.Task{
		{Text: "later", Date: day(2026, 4, 20)},
		{Text: "past", Date: day(2026, 4, 1)},
		{Text: "done", Completed: true, Date: day(2026, 4, 12)},
		{Text: "today", Date: day(2026, 4, 10)},
	}
	want := "- Fri Apr 10: today\n- Mon Apr 20: later"
	if got := EventsText(tasks, now); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestTaskListText(t *testing.T) {
	tasks := []model.Task{{Text: "Read"}, {Text: "Write", Completed: true}}
	want := "- Read (pending)\n- Write (completed)"
	if got := TaskListText(tasks); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestParseDay(t *testing.T) {
	now := time.Date(2026, 10, 14, 15, 30, 0, 0, time.Local)

	tests := []struct {
		in   string
		want *time.Time
		err  bool
	}{
		{in: "", want: nil},
		{in: "  ", want: nil},
		{in: "today", want: day(2026, 10, 14)},
		{in: "Tomorrow", want: day(2026, 10, 15)},
		{in: "2026-12-01", want: day(2026, 12, 1)},
		{in: "12/01/2026", err: true},
	}

	for _, tt := range tests {
		got, err := ParseDay(tt.in, now)
		if tt.err {
			if err == nil {
				t.Errorf("ParseDay(%q) expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseDay(%q) failed: %v", tt.in, err)
			continue
		}
		if (got == nil) != (tt.want == nil) || (got != nil && !got.Equal(*tt.want)) {
			t.Errorf("ParseDay(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
