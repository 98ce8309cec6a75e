package db

import (
	"time"

	"github.com/dori/zenith/internal/model"
	"github.com/google/uuid"
)

// RecordSession stores a finished or skipped timer session
func (db *DB) RecordSession(s *model.SessionLog) error {
	return insertSession(db, s)
}

// insertSession ignores rows whose id is already stored
func insertSession(e execer, s *model.SessionLog) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	if s.EndedAt.IsZero() {
		s.EndedAt = time.Now()
	}
	s.EndedAt = s.EndedAt.UTC().Truncate(time.Second)

	_, err := e.NamedExec(`
		INSERT OR IGNORE INTO sessions (id, mode, planned_seconds, elapsed_seconds, skipped, cycle, ended_at)
		VALUES (:id, :mode, :planned_seconds, :elapsed_seconds, :skipped, :cycle, :ended_at)
	`, s)
	return err
}

// RecentSessions returns the latest sessions, newest first
func (db *DB) RecentSessions(limit int) ([]model.SessionLog, error) {
	if limit <= 0 {
		limit = 20
	}
	var sessions []model.SessionLog
	err := db.Select(&sessions, `
		SELECT id, mode, planned_seconds, elapsed_seconds, skipped, cycle, ended_at
		FROM sessions
		ORDER BY ended_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// SessionsSince returns every session that ended at or after since, oldest first
func (db *DB) SessionsSince(since time.Time) ([]model.SessionLog, error) {
	var sessions []model.SessionLog
	err := db.Select(&sessions, `
		SELECT id, mode, planned_seconds, elapsed_seconds, skipped, cycle, ended_at
		FROM sessions
		WHERE ended_at >= ?
		ORDER BY ended_at ASC
	`, since.UTC())
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// DailyStats aggregates completed work sessions per local calendar day.
// Days without sessions are included so the result has one entry per day.
func (db *DB) DailyStats(days int, now time.Time) ([]model.DayStat, error) {
	if days <= 0 {
		days = 7
	}
	start := model.StartOfDay(now).AddDate(0, 0, -(days - 1))

	sessions, err := db.SessionsSince(start)
	if err != nil {
		return nil, err
	}

	stats := make([]model.DayStat, days)
	index := make(map[string]int, days)
	for i := range stats {
		key := start.AddDate(0, 0, i).Format("2006-01-02")
		stats[i].Day = key
		index[key] = i
	}

	for _, s := range sessions {
		if !s.IsWork() || s.Skipped {
			continue
		}
		i, ok := index[s.EndedAt.Local().Format("2006-01-02")]
		if !ok {
			continue
		}
		stats[i].Sessions++
		stats[i].Minutes += s.FocusMinutes()
	}

	return stats, nil
}
