package db

import (
	"database/sql"
	"errors"
	"time"
)

// LoadSnapshot returns the payload stored under key, or nil if there is none
func (db *DB) LoadSnapshot(key string) ([]byte, error) {
	var payload []byte
	err := db.Get(&payload, `SELECT payload FROM snapshots WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

// SaveSnapshot overwrites the payload stored under key
func (db *DB) SaveSnapshot(key string, payload []byte) error {
	return saveSnapshot(db, key, payload)
}

func saveSnapshot(e execer, key string, payload []byte) error {
	_, err := e.Exec(`
		INSERT INTO snapshots (key, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, key, payload, time.Now().UTC())
	return err
}

// DeleteSnapshot removes the payload stored under key
func (db *DB) DeleteSnapshot(key string) error {
	_, err := db.Exec(`DELETE FROM snapshots WHERE key = ?`, key)
	return err
}

// SnapshotKeys returns every stored key
func (db *DB) SnapshotKeys() ([]string, error) {
	var keys []string
	if err := db.Select(&keys, `SELECT key FROM snapshots ORDER BY key`); err != nil {
		return nil, err
	}
	return keys, nil
}
