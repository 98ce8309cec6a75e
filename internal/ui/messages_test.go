package ui

import "testing"

func TestParseView(t *testing.T) {
	tests := []struct {
		in   string
		want View
	}{
		{"timer", ViewTimer},
		{"Pomodoro", ViewTimer},
		{"TASKS", ViewTasks},
		{"classroom", ViewClassroom},
		{"stats", ViewStats},
	}
	for _, tt := range tests {
		got, err := ParseView(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseView(%q) = %v, %v", tt.in, got, err)
		}
	}
	if _, err := ParseView("kanban"); err == nil {
		t.Error("expected an error for an unknown view")
	}
	if View(99).String() != "Unknown" {
		t.Error("out of range views are Unknown")
	}
}
