// Package snapshot persists whole-collection JSON payloads under fixed keys.
package snapshot

import (
	"fmt"

	"github.com/dori/zenith/internal/config"
	"github.com/dori/zenith/internal/db"
)

// Fixed storage keys, one per collection
const (
	KeyTasks        = "tasks"
	KeySubjects     = "curriculum_subjects"
	KeyFolders      = "classroom_folders"
	KeySpotifyToken = "spotify_token"
	KeyTimerState   = "timer_state"
)

// Store reads and overwrites snapshots. Load returns (nil, nil) when the key
// has never been written.
type Store interface {
	Load(key string) ([]byte, error)
	Save(key string, payload []byte) error
	Delete(key string) error
}

// SQLite stores snapshots in the snapshots table
type SQLite struct {
	db *db.DB
}

// NewSQLite returns a Store backed by database
func NewSQLite(database *db.DB) *SQLite {
	return &SQLite{db: database}
}

func (s *SQLite) Load(key string) ([]byte, error) {
	return s.db.LoadSnapshot(key)
}

func (s *SQLite) Save(key string, payload []byte) error {
	return s.db.SaveSnapshot(key, payload)
}

func (s *SQLite) Delete(key string) error {
	return s.db.DeleteSnapshot(key)
}

// Open builds the backend named in cfg. The sqlite backend needs database;
// the others ignore it.
func Open(cfg *config.Config, database *db.DB) (Store, error) {
	switch cfg.Storage.Backend {
	case "", "sqlite":
		if database == nil {
			return nil, fmt.Errorf("sqlite snapshot backend needs an open database")
		}
		return NewSQLite(database), nil
	case "file":
		return NewFile(cfg.Storage.SnapshotDir)
	case "redis":
		return NewRedis(cfg.Redis)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
}
