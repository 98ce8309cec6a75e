package db

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/dori/zenith/internal/model"
	"github.com/jmoiron/sqlx"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "zenith.db")
	for i := 0; i < 2; i++ {
		db, err := Open(path)
		if err != nil {
			t.Fatalf("Open #%d failed: %v", i+1, err)
		}
		db.Close()
	}
}

func TestSnapshotMissingKey(t *testing.T) {
	db := openTestDB(t)

	payload, err := db.LoadSnapshot("tasks")
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if payload != nil {
		t.Errorf("expected nil payload, got %q", payload)
	}
}

func TestSnapshotOverwrite(t *testing.T) {
	db := openTestDB(t)

	if err := db.SaveSnapshot("tasks", []byte(`[1]`)); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	if err := db.SaveSnapshot("tasks", []byte(`[1,2]`)); err != nil {
		t.Fatalf("SaveSnapshot overwrite failed: %v", err)
	}
	if err := db.SaveSnapshot("classroom_folders", []byte(`[]`)); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}

	payload, err := db.LoadSnapshot("tasks")
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if string(payload) != `[1,2]` {
		t.Errorf("expected latest payload, got %q", payload)
	}

	keys, err := db.SnapshotKeys()
	if err != nil {
		t.Fatalf("SnapshotKeys failed: %v", err)
	}
	if len(keys) != 2 || keys[0] != "classroom_folders" || keys[1] != "tasks" {
		t.Errorf("unexpected keys %v", keys)
	}

	if err := db.DeleteSnapshot("tasks"); err != nil {
		t.Fatalf("DeleteSnapshot failed: %v", err)
	}
	if payload, _ := db.LoadSnapshot("tasks"); payload != nil {
		t.Errorf("expected deleted snapshot, got %q", payload)
	}
}

func TestRecordAndListSessions(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.Local)

	logs := []model.SessionLog{
		{Mode: "work", PlannedSeconds: 1500, ElapsedSeconds: 1500, Cycle: 1, EndedAt: base},
		{Mode: "shortBreak", PlannedSeconds: 300, ElapsedSeconds: 300, Cycle: 1, EndedAt: base.Add(5 * time.Minute)},
		{Mode: "work", PlannedSeconds: 1500, ElapsedSeconds: 600, Skipped: true, Cycle: 2, EndedAt: base.Add(20 * time.Minute)},
	}
	for i := range logs {
		if err := db.RecordSession(&logs[i]); err != nil {
			t.Fatalf("RecordSession failed: %v", err)
		}
		if logs[i].ID == "" {
			t.Fatal("expected generated id")
		}
	}

	recent, err := db.RecentSessions(2)
	if err != nil {
		t.Fatalf("RecentSessions failed: %v", err)
	}
	if len(recent) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(recent))
	}
	if !recent[0].Skipped || recent[0].Mode != "work" {
		t.Errorf("expected newest skipped work session first, got %+v", recent[0])
	}
	if !recent[0].EndedAt.Equal(logs[2].EndedAt) {
		t.Errorf("ended_at did not round-trip: %v vs %v", recent[0].EndedAt, logs[2].EndedAt)
	}
}

func TestDailyStats(t *testing.T) {
	db := openTestDB(t)
	now := time.Date(2026, 3, 5, 18, 0, 0, 0, time.Local)

	for _, s := range []model.SessionLog{
		{Mode: "work", ElapsedSeconds: 1500, EndedAt: now.Add(-time.Hour)},
		{Mode: "work", ElapsedSeconds: 1500, EndedAt: now.Add(-2 * time.Hour)},
		{Mode: "work", ElapsedSeconds: 900, Skipped: true, EndedAt: now.Add(-3 * time.Hour)},
		{Mode: "longBreak", ElapsedSeconds: 900, EndedAt: now.Add(-4 * time.Hour)},
		{Mode: "work", ElapsedSeconds: 1200, EndedAt: now.AddDate(0, 0, -2)},
		{Mode: "work", ElapsedSeconds: 1200, EndedAt: now.AddDate(0, 0, -30)},
	} {
		s := s
		if err := db.RecordSession(&s); err != nil {
			t.Fatalf("RecordSession failed: %v", err)
		}
	}

	stats, err := db.DailyStats(3, now)
	if err != nil {
		t.Fatalf("DailyStats failed: %v", err)
	}
	if len(stats) != 3 {
		t.Fatalf("expected 3 days, got %d", len(stats))
	}
	if stats[0].Day != "2026-03-03" || stats[0].Sessions != 1 || stats[0].Minutes != 20 {
		t.Errorf("unexpected first day %+v", stats[0])
	}
	if stats[1].Sessions != 0 {
		t.Errorf("expected empty middle day, got %+v", stats[1])
	}
	if stats[2].Day != "2026-03-05" || stats[2].Sessions != 2 || stats[2].Minutes != 50 {
		t.Errorf("unexpected last day %+v", stats[2])
	}
}

func TestExportImport(t *testing.T) {
	src := openTestDB(t)
	src.SaveSnapshot("tasks", []byte(`[{"id":"a"}]`))
	src.SaveSnapshot("spotify_token", []byte(`{"access_token":"secret"}`))
	ended := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	src.RecordSession(&model.SessionLog{ID: "s1", Mode: "work", PlannedSeconds: 1500, ElapsedSeconds: 1500, Cycle: 1, EndedAt: ended})

	dump, err := src.Export("spotify_token")
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if _, ok := dump.Snapshots["spotify_token"]; ok {
		t.Error("excluded key was exported")
	}
	if len(dump.Sessions) != 1 || dump.Version != DumpVersion {
		t.Fatalf("unexpected dump %+v", dump)
	}

	dst := openTestDB(t)
	// importing twice must not duplicate sessions
	for i := 0; i < 2; i++ {
		if err := dst.Import(dump); err != nil {
			t.Fatalf("Import #%d failed: %v", i+1, err)
		}
	}
	if payload, _ := dst.LoadSnapshot("tasks"); string(payload) != `[{"id":"a"}]` {
		t.Errorf("tasks snapshot not restored, got %q", payload)
	}
	sessions, err := dst.RecentSessions(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(sessions) != 1 || sessions[0].ID != "s1" || !sessions[0].EndedAt.Equal(ended) {
		t.Errorf("unexpected sessions %+v", sessions)
	}
}

func TestImportRollsBackOnFailure(t *testing.T) {
	db := openTestDB(t)

	bad := &Dump{
		Version:   DumpVersion,
		Snapshots: map[string][]byte{"tasks": []byte(`[]`)},
		Sessions:  []model.SessionLog{{ID: "x", Mode: "work", EndedAt: time.Now()}},
	}
	if _, err := db.Exec(`DROP TABLE sessions`); err != nil {
		t.Fatal(err)
	}

	if err := db.Import(bad); err == nil {
		t.Fatal("expected import to fail")
	}
	if payload, _ := db.LoadSnapshot("tasks"); payload != nil {
		t.Errorf("snapshot written by a failed import: %q", payload)
	}

	if err := db.Import(&Dump{Version: 99}); err == nil {
		t.Error("expected unknown dump version to be refused")
	}
}

func TestTransactionRollback(t *testing.T) {
	db := openTestDB(t)

	errRollback := errors.New("rollback")
	err := db.Transaction(func(tx *sqlx.Tx) error {
		if _, err := tx.Exec(`INSERT INTO snapshots (key, payload, updated_at) VALUES ('x', 'y', ?)`, time.Now()); err != nil {
			return err
		}
		return errRollback
	})
	if !errors.Is(err, errRollback) {
		t.Fatalf("expected rollback error, got %v", err)
	}
	if payload, _ := db.LoadSnapshot("x"); payload != nil {
		t.Errorf("expected rolled back insert, got %q", payload)
	}
}
