package views

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/dori/zenith/internal/model"
	"github.com/dori/zenith/internal/snapshot"
	"github.com/dori/zenith/internal/store"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, v TasksView, keys ...tea.KeyMsg) TasksView {
	t.Helper()
	for _, k := range keys {
		m, _ := v.Update(k)
		next, ok := m.(TasksView)
		if !ok {
			t.Fatalf("Update returned %T", m)
		}
		v = next
	}
	return v
}

func TestTasksViewAddToggleDelete(t *testing.T) {
	st, err := store.New(snapshot.NewMemory(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	v := NewTasksView(st).SetSize(80, 24)
	v = press(t, v, runes("a"))
	if !v.IsInputMode() {
		t.Fatal("a should open the input")
	}
	v = press(t, v, runes("revise"), tea.KeyMsg{Type: tea.KeyEnter})
	if v.IsInputMode() {
		t.Fatal("enter should close the input")
	}

	tasks := st.Tasks()
	if len(tasks) != 1 || tasks[0].Text != "revise" {
		t.Fatalf("unexpected tasks %+v", tasks)
	}

	v = press(t, v, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	if task, _ := st.Task(tasks[0].ID); !task.Completed {
		t.Error("space should toggle the selected task")
	}

	v = press(t, v, runes("f"), runes("f"))
	if v.filter != FilterCompleted || len(v.tasks) != 1 {
		t.Errorf("filter %s shows %d tasks", v.filter, len(v.tasks))
	}

	press(t, v, runes("d"))
	if len(st.Tasks()) != 0 {
		t.Error("d should delete the selected task")
	}
}

func TestTasksViewEscapeKeepsStore(t *testing.T) {
	st, err := store.New(snapshot.NewMemory(), nil)
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	v := NewTasksView(st)
	press(t, v, runes("a"), runes("draft"), tea.KeyMsg{Type: tea.KeyEsc})
	if len(st.Tasks()) != 0 {
		t.Error("esc must discard the input")
	}
}

func TestTaskFilterMatches(t *testing.T) {
	done := model.Task{Completed: true}
	open := model.Task{}
	if !FilterAll.Matches(done) || !FilterAll.Matches(open) {
		t.Error("all keeps everything")
	}
	if FilterPending.Matches(done) || !FilterPending.Matches(open) {
		t.Error("pending keeps open tasks only")
	}
	if !FilterCompleted.Matches(done) || FilterCompleted.Matches(open) {
		t.Error("completed keeps finished tasks only")
	}
}

func TestSummarize(t *testing.T) {
	days := []model.DayStat{
		{Day: "2026-03-01", Sessions: 2, Minutes: 50},
		{Day: "2026-03-02", Sessions: 0},
		{Day: "2026-03-03", Sessions: 1, Minutes: 25},
		{Day: "2026-03-04", Sessions: 3, Minutes: 75},
	}
	sessions, minutes, streak := summarize(days)
	if sessions != 6 || minutes != 150 || streak != 2 {
		t.Errorf("summarize = %d, %d, %d", sessions, minutes, streak)
	}
	if _, _, streak := summarize(nil); streak != 0 {
		t.Errorf("empty streak = %d", streak)
	}
}

func TestFormatting(t *testing.T) {
	if got := FormatClock(25 * 60); got != "25:00" {
		t.Errorf("FormatClock = %s", got)
	}
	if got := FormatClock(-3); got != "00:00" {
		t.Errorf("FormatClock(-3) = %s", got)
	}
	if got := truncate("organic chemistry", 10); got != "organic..." {
		t.Errorf("truncate = %q", got)
	}
	if got := truncate("math", 10); got != "math" {
		t.Errorf("truncate short = %q", got)
	}
	if clampCursor(5, 3) != 2 || clampCursor(-1, 3) != 0 || clampCursor(0, 0) != 0 {
		t.Error("clampCursor out of range")
	}
}
