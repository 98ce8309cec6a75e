package model

import (
	"time"
)

// SessionLog records one finished or skipped timer session
type SessionLog struct {
	ID             string    `json:"id" db:"id"`
	Mode           string    `json:"mode" db:"mode"`
	PlannedSeconds int       `json:"planned_seconds" db:"planned_seconds"`
	ElapsedSeconds int       `json:"elapsed_seconds" db:"elapsed_seconds"`
	Skipped        bool      `json:"skipped" db:"skipped"`
	Cycle          int       `json:"cycle" db:"cycle"`
	EndedAt        time.Time `json:"ended_at" db:"ended_at"`
}

// IsWork returns true if the session was a work interval
func (s *SessionLog) IsWork() bool {
	return s.Mode == "work"
}

// FocusMinutes returns the elapsed minutes for work sessions, 0 otherwise
func (s *SessionLog) FocusMinutes() int {
	if !s.IsWork() {
		return 0
	}
	return s.ElapsedSeconds / 60
}

// DayStat aggregates work sessions per day
type DayStat struct {
	Day      string `json:"day" db:"day"` // YYYY-MM-DD
	Sessions int    `json:"sessions" db:"sessions"`
	Minutes  int    `json:"minutes" db:"minutes"`
}
