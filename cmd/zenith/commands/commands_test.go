package commands

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dori/zenith/internal/model"
)

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand("test")
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("%v failed: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func setupDataDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("ZENITH_DATA_DIR", dir)
	t.Setenv("LOG_LEVEL", "error")
	t.Chdir(dir)
}

func TestTaskCommands(t *testing.T) {
	setupDataDir(t)

	run(t, "subject", "add", "Physics")
	run(t, "add", "read", "chapter", "one", "--subject", "physics", "--date", "2030-01-02")
	run(t, "add", "buy pens")

	out := run(t, "tasks")
	if !strings.Contains(out, "read chapter one  2030-01-02  #Physics") {
		t.Errorf("unexpected listing:\n%s", out)
	}

	// newest tasks are listed first
	run(t, "done", "1")
	out = run(t, "tasks", "--filter", "completed")
	if !strings.Contains(out, "[x] buy pens") || strings.Contains(out, "read chapter one") {
		t.Errorf("unexpected completed listing:\n%s", out)
	}

	if out := run(t, "clear"); !strings.Contains(out, "Cleared 1") {
		t.Errorf("unexpected clear output: %s", out)
	}
	out = run(t, "tasks")
	if strings.Contains(out, "buy pens") {
		t.Errorf("completed task survived clear:\n%s", out)
	}
}

func TestChapterCommands(t *testing.T) {
	setupDataDir(t)

	run(t, "subject", "add", "Math")
	run(t, "chapter", "add", "math", "Limits")
	run(t, "chapter", "add", "math", "Derivatives")
	run(t, "chapter", "done", "Math", "1")

	out := run(t, "subject", "list")
	if !strings.Contains(out, "Math  1/2 (50%)") || !strings.Contains(out, "[x] Limits") {
		t.Errorf("unexpected subject listing:\n%s", out)
	}
}

func TestUnknownTaskRef(t *testing.T) {
	setupDataDir(t)

	cmd := NewRootCommand("test")
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"done", "7"})
	if err := cmd.Execute(); err == nil {
		t.Fatal("expected an error for a missing task")
	}
}

func TestTaskFilter(t *testing.T) {
	done := model.Task{Completed: true}
	open := model.Task{}

	tests := []struct {
		name       string
		done, open bool
	}{
		{"all", true, true},
		{"", true, true},
		{"Pending", false, true},
		{"completed", true, false},
	}
	for _, tt := range tests {
		keep, err := taskFilter(tt.name)
		if err != nil {
			t.Fatalf("taskFilter(%q): %v", tt.name, err)
		}
		if keep(done) != tt.done || keep(open) != tt.open {
			t.Errorf("taskFilter(%q) kept done=%v open=%v", tt.name, keep(done), keep(open))
		}
	}
	if _, err := taskFilter("someday"); err == nil {
		t.Error("expected an error for an unknown filter")
	}
}

func TestChapterAt(t *testing.T) {
	sub := model.Subject{Name: "Art", Chapters: []model.Chapter{{ID: "a", Name: "Color"}}}
	if c, err := chapterAt(sub, "1"); err != nil || c.ID != "a" {
		t.Errorf("chapterAt(1) = %+v, %v", c, err)
	}
	for _, ref := range []string{"0", "2", "x"} {
		if _, err := chapterAt(sub, ref); err == nil {
			t.Errorf("chapterAt(%q) should fail", ref)
		}
	}
}

func TestDataExportImport(t *testing.T) {
	setupDataDir(t)
	run(t, "add", "carry me over")
	dumpPath := filepath.Join(t.TempDir(), "dump.json")
	if out := run(t, "data", "export", dumpPath); !strings.Contains(out, "Exported") {
		t.Errorf("unexpected export output: %s", out)
	}

	setupDataDir(t)
	if out := run(t, "tasks"); !strings.Contains(out, "No tasks") {
		t.Fatalf("fresh data dir should be empty:\n%s", out)
	}
	run(t, "data", "import", dumpPath)
	if out := run(t, "tasks"); !strings.Contains(out, "carry me over") {
		t.Errorf("task missing after import:\n%s", out)
	}
}
