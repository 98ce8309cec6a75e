package ui

import (
	"fmt"
	"strings"
)

// View represents the different views in the application
type View int

const (
	ViewTimer View = iota
	ViewTasks
	ViewCurriculum
	ViewCalendar
	ViewClassroom
	ViewMedia
	ViewAssistant
	ViewStats
	viewCount
)

var viewNames = [...]string{
	ViewTimer:      "Timer",
	ViewTasks:      "Tasks",
	ViewCurriculum: "Curriculum",
	ViewCalendar:   "Calendar",
	ViewClassroom:  "Classroom",
	ViewMedia:      "Media",
	ViewAssistant:  "Assistant",
	ViewStats:      "Stats",
}

// String returns the view name
func (v View) String() string {
	if v < 0 || v >= viewCount {
		return "Unknown"
	}
	return viewNames[v]
}

// ParseView resolves a view by its case-insensitive name
func ParseView(name string) (View, error) {
	for i, n := range viewNames {
		if strings.EqualFold(n, name) {
			return View(i), nil
		}
	}
	if strings.EqualFold(name, "pomodoro") {
		return ViewTimer, nil
	}
	return 0, fmt.Errorf("unknown view %q", name)
}

// ThemeChangedMsg is sent when the theme changes
type ThemeChangedMsg struct {
	ThemeName string
}
