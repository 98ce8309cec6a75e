package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dori/zenith/internal/timer"
)

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ZENITH_DATA_DIR", dir)
	t.Chdir(dir)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Timer.Work != 25 || cfg.Timer.ShortBreak != 5 || cfg.Timer.LongBreak != 15 {
		t.Errorf("unexpected timer defaults: %+v", cfg.Timer)
	}
	if cfg.Storage.Backend != "sqlite" {
		t.Errorf("expected sqlite backend, got %q", cfg.Storage.Backend)
	}
	if cfg.Storage.DBPath != filepath.Join(dir, "zenith.db") {
		t.Errorf("unexpected db path %q", cfg.Storage.DBPath)
	}
	if cfg.AI.Model != "gemini-2.5-flash" {
		t.Errorf("unexpected model %q", cfg.AI.Model)
	}
	if cfg.Spotify.RedirectURL != "http://127.0.0.1:8888/callback" {
		t.Errorf("unexpected redirect %q", cfg.Spotify.RedirectURL)
	}
	if cfg.Device.Enabled || cfg.Device.Baud != 9600 {
		t.Errorf("unexpected device defaults: %+v", cfg.Device)
	}
}

func TestLoadRejectsBadBaud(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ZENITH_DATA_DIR", dir)
	t.Setenv("ZENITH_DEVICE_BAUD", "0")
	t.Chdir(dir)

	if _, err := Load(""); err != nil {
		t.Fatalf("a disabled device must not be validated: %v", err)
	}

	t.Setenv("ZENITH_DEVICE_ENABLED", "true")
	if _, err := Load(""); err == nil {
		t.Fatal("expected an error for baud 0 on an enabled device")
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ZENITH_DATA_DIR", dir)
	t.Setenv("GEMINI_API_KEY", "secret")
	t.Chdir(dir)

	path := filepath.Join(dir, "custom.yaml")
	content := "timer:\n  work: 50\nstorage:\n  backend: file\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Timer.Work != 50 {
		t.Errorf("expected work 50, got %d", cfg.Timer.Work)
	}
	if cfg.Storage.Backend != "file" {
		t.Errorf("expected file backend, got %q", cfg.Storage.Backend)
	}
	if cfg.AI.APIKey != "secret" {
		t.Errorf("expected api key from env, got %q", cfg.AI.APIKey)
	}
}

func TestLoadRejectsUnknownBackend(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("ZENITH_DATA_DIR", dir)
	t.Setenv("ZENITH_STORAGE", "floppy")
	t.Chdir(dir)

	if _, err := Load(""); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestSettingsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	defaults := Settings{Durations: timer.DefaultDurations(), Theme: "nord"}

	got, err := LoadSettings(dir, defaults)
	if err != nil {
		t.Fatalf("LoadSettings on empty dir: %v", err)
	}
	if got != defaults {
		t.Errorf("expected defaults, got %+v", got)
	}

	want := Settings{
		Durations: timer.Durations{Work: 45, ShortBreak: 10, LongBreak: 30},
		Theme:     "dracula",
		Embed:     "https://www.youtube.com/embed/abc",
	}
	if err := SaveSettings(dir, want); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	got, err = LoadSettings(dir, defaults)
	if err != nil {
		t.Fatalf("LoadSettings: %v", err)
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestDefaultSettingsClampsDurations(t *testing.T) {
	cfg := &Config{Timer: TimerConfig{Work: 0, ShortBreak: -3, LongBreak: 15}}
	d := cfg.DefaultSettings().Durations
	if d.Work != 1 || d.ShortBreak != 1 || d.LongBreak != 15 {
		t.Errorf("unexpected durations %+v", d)
	}
}
