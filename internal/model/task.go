package model

import (
	"time"
)

// Task represents a to-do item, optionally tagged with a subject
type Task struct {
	ID        string     `json:"id"`
	Text      string     `json:"text"`
	Completed bool       `json:"completed"`
	Date      *time.Time `json:"date,omitempty"`      // Calendar day, time of day is ignored
	SubjectID *string    `json:"subjectId,omitempty"` // Non-owning, may dangle
}

// HasDate returns true if the task is placed on the calendar
func (t *Task) HasDate() bool {
	return t.Date != nil
}

// IsOn returns true if the task's date falls on the same calendar day as day
func (t *Task) IsOn(day time.Time) bool {
	if t.Date == nil {
		return false
	}
	return SameDay(*t.Date, day)
}

// IsOverdue returns true if the task is pending and its day has passed
func (t *Task) IsOverdue(now time.Time) bool {
	if t.Date == nil || t.Completed {
		return false
	}
	return StartOfDay(*t.Date).Before(StartOfDay(now))
}

// StatusLabel returns "completed" or "pending"
func (t *Task) StatusLabel() string {
	if t.Completed {
		return "completed"
	}
	return "pending"
}

// TaskPatch carries the fields EditTask may change.
// A nil field is left alone; ClearDate/ClearSubject remove the value.
type TaskPatch struct {
	Text         *string
	Date         *time.Time
	ClearDate    bool
	SubjectID    *string
	ClearSubject bool
}

// SameDay reports whether a and b fall on the same local calendar day
func SameDay(a, b time.Time) bool {
	a, b = a.Local(), b.Local()
	return a.Year() == b.Year() && a.YearDay() == b.YearDay()
}

// StartOfDay truncates t to local midnight
func StartOfDay(t time.Time) time.Time {
	t = t.Local()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local)
}
