package db

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/dori/zenith/internal/model"
)

// DumpVersion is bumped when the Dump layout changes
const DumpVersion = 1

// Dump is a portable copy of the database
type Dump struct {
	Version    int                `json:"version"`
	ExportedAt time.Time          `json:"exportedAt"`
	Snapshots  map[string][]byte  `json:"snapshots"`
	Sessions   []model.SessionLog `json:"sessions"`
}

// Export copies every snapshot except the excluded keys, and the whole
// session history, oldest first
func (db *DB) Export(exclude ...string) (*Dump, error) {
	skip := make(map[string]bool, len(exclude))
	for _, k := range exclude {
		skip[k] = true
	}

	keys, err := db.SnapshotKeys()
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	d := &Dump{
		Version:    DumpVersion,
		ExportedAt: time.Now().UTC().Truncate(time.Second),
		Snapshots:  make(map[string][]byte, len(keys)),
	}
	for _, key := range keys {
		if skip[key] {
			continue
		}
		payload, err := db.LoadSnapshot(key)
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot %s: %w", key, err)
		}
		d.Snapshots[key] = payload
	}

	d.Sessions, err = db.SessionsSince(time.Time{})
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions: %w", err)
	}
	return d, nil
}

// Import writes a dump in one transaction. Snapshots overwrite the stored
// ones, sessions already present are kept.
func (db *DB) Import(d *Dump) error {
	if d == nil {
		return nil
	}
	if d.Version != DumpVersion {
		return fmt.Errorf("unsupported dump version %d", d.Version)
	}
	return db.Transaction(func(tx *sqlx.Tx) error {
		for key, payload := range d.Snapshots {
			if payload == nil {
				continue
			}
			if err := saveSnapshot(tx, key, payload); err != nil {
				return fmt.Errorf("failed to restore snapshot %s: %w", key, err)
			}
		}
		for i := range d.Sessions {
			if err := insertSession(tx, &d.Sessions[i]); err != nil {
				return fmt.Errorf("failed to restore session: %w", err)
			}
		}
		return nil
	})
}
