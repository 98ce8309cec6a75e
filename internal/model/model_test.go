package model

import (
	"bytes"
	"testing"
	"time"
)

func TestDataURL(t *testing.T) {
	payload := []byte("%PDF-1.4 notes")
	url := EncodeDataURL("application/pdf", payload)
	if url != "data:application/pdf;base64,JVBERi0xLjQgbm90ZXM=" {
		t.Errorf("unexpected data url %q", url)
	}

	mime, data, err := DecodeDataURL(url)
	if err != nil {
		t.Fatalf("DecodeDataURL failed: %v", err)
	}
	if mime != "application/pdf" || !bytes.Equal(data, payload) {
		t.Errorf("decoded %q %q", mime, data)
	}

	if got := EncodeDataURL("", nil); got != "data:application/octet-stream;base64," {
		t.Errorf("blank mime encoded as %q", got)
	}

	for _, bad := range []string{"http://x", "data:text/plain", "data:text/plain,hello", "data:text/plain;base64,***"} {
		if _, _, err := DecodeDataURL(bad); err == nil {
			t.Errorf("DecodeDataURL(%q) should fail", bad)
		}
	}
}

func TestSubjectProgress(t *testing.T) {
	s := Subject{}
	if s.Progress() != 0 {
		t.Errorf("empty subject progress = %v", s.Progress())
	}

	s.Chapters = []Chapter{{ID: "a", Completed: true}, {ID: "b"}, {ID: "c"}}
	if s.CompletedChapters() != 1 {
		t.Errorf("CompletedChapters = %d", s.CompletedChapters())
	}
	if s.Progress() != 33.3 {
		t.Errorf("Progress = %v, want 33.3", s.Progress())
	}
	if s.ChapterIndex("c") != 2 || s.ChapterIndex("z") != -1 {
		t.Error("ChapterIndex returned the wrong position")
	}
}

func TestPaletteColor(t *testing.T) {
	if PaletteColor(0) != Palette[0] || PaletteColor(len(Palette)) != Palette[0] {
		t.Error("palette should wrap around")
	}
	if PaletteColor(-1) != Palette[1] {
		t.Errorf("PaletteColor(-1) = %s", PaletteColor(-1))
	}
}

func TestTaskDates(t *testing.T) {
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.Local)
	yesterday := time.Date(2026, 3, 9, 23, 0, 0, 0, time.Local)
	today := time.Date(2026, 3, 10, 1, 0, 0, 0, time.Local)

	task := Task{Date: &yesterday}
	if !task.IsOverdue(now) {
		t.Error("pending task from yesterday should be overdue")
	}
	task.Completed = true
	if task.IsOverdue(now) {
		t.Error("completed tasks are never overdue")
	}

	task = Task{Date: &today}
	if task.IsOverdue(now) || !task.IsOn(now) {
		t.Error("task dated today is on today and not overdue")
	}
	if (&Task{}).IsOn(now) {
		t.Error("undated task is on no day")
	}
	if got := StartOfDay(now); !got.Equal(time.Date(2026, 3, 10, 0, 0, 0, 0, time.Local)) {
		t.Errorf("StartOfDay = %v", got)
	}
}

func TestSessionFocusMinutes(t *testing.T) {
	work := SessionLog{Mode: "work", ElapsedSeconds: 25*60 + 59}
	rest := SessionLog{Mode: "shortBreak", ElapsedSeconds: 300}
	if work.FocusMinutes() != 25 || rest.FocusMinutes() != 0 {
		t.Errorf("FocusMinutes = %d, %d", work.FocusMinutes(), rest.FocusMinutes())
	}
}
