package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dori/zenith/internal/model"
	"github.com/dori/zenith/internal/snapshot"
)

func newTestStore(t *testing.T, snaps snapshot.Store) *Store {
	t.Helper()
	n := 0
	s, err := New(snaps, nil, WithIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return s
}

func strPtr(s string) *string { return &s }

func TestAddTaskRejectsBlank(t *testing.T) {
	s := newTestStore(t, snapshot.NewMemory())

	for _, text := range []string{"", "   ", "\t\n"} {
		task, err := s.AddTask(text, nil, nil)
		if err != nil || task != nil {
			t.Errorf("AddTask(%q) = %v, %v; want nil, nil", text, task, err)
		}
	}
	if len(s.Tasks()) != 0 {
		t.Errorf("expected no tasks, got %d", len(s.Tasks()))
	}
}

func TestAddTaskPrepends(t *testing.T) {
	s := newTestStore(t, snapshot.NewMemory())

	s.AddTask("First", nil, nil)
	task, err := s.AddTask("  Study  ", nil, nil)
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}

	tasks := s.Tasks()
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got %d", len(tasks))
	}
	if tasks[0].ID != task.ID || tasks[0].Text != "Study" || tasks[0].Completed {
		t.Errorf("expected new pending task first, got %+v", tasks[0])
	}
}

func TestTaskDateRoundTrip(t *testing.T) {
	snaps := snapshot.NewMemory()
	s := newTestStore(t, snaps)

	due := time.Date(2026, 5, 17, 15, 30, 0, 0, time.Local)
	if _, err := s.AddTask("Exam", &due, strPtr("math")); err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}

	raw, _ := snaps.Load(snapshot.KeyTasks)
	var decoded []map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("snapshot is not JSON: %v", err)
	}
	if _, ok := decoded[0]["date"].(string); !ok {
		t.Fatalf("expected date serialized as string, got %T", decoded[0]["date"])
	}

	reloaded := newTestStore(t, snaps)
	tasks := reloaded.Tasks()
	if len(tasks) != 1 || tasks[0].Date == nil {
		t.Fatalf("expected one dated task, got %+v", tasks)
	}
	if !model.SameDay(*tasks[0].Date, due) {
		t.Errorf("expected %v, got %v", due, *tasks[0].Date)
	}
	if tasks[0].SubjectID == nil || *tasks[0].SubjectID != "math" {
		t.Errorf("expected subject to round-trip, got %v", tasks[0].SubjectID)
	}
}

func TestToggleEditDeleteClear(t *testing.T) {
	s := newTestStore(t, snapshot.NewMemory())
	a, _ := s.AddTask("a", nil, nil)
	b, _ := s.AddTask("b", nil, strPtr("sub"))
	c, _ := s.AddTask("c", nil, nil)

	if task, _ := s.ToggleTask("missing"); task != nil {
		t.Error("toggle of unknown id must be a no-op")
	}
	s.ToggleTask(a.ID)
	s.ToggleTask(c.ID)

	day := time.Date(2026, 1, 2, 0, 0, 0, 0, time.Local)
	edited, err := s.EditTask(b.ID, model.TaskPatch{Text: strPtr("b2"), Date: &day, ClearSubject: true})
	if err != nil || edited == nil {
		t.Fatalf("EditTask failed: %v", err)
	}
	if edited.Text != "b2" || edited.Date == nil || edited.SubjectID != nil {
		t.Errorf("unexpected edit result %+v", edited)
	}

	if edited, _ := s.EditTask(b.ID, model.TaskPatch{Text: strPtr("  ")}); edited.Text != "b2" {
		t.Errorf("blank text must be ignored, got %q", edited.Text)
	}

	removed, err := s.ClearCompleted()
	if err != nil {
		t.Fatalf("ClearCompleted failed: %v", err)
	}
	if removed != 2 {
		t.Errorf("expected 2 removed, got %d", removed)
	}

	ok, _ := s.DeleteTask(b.ID)
	if !ok || len(s.Tasks()) != 0 {
		t.Errorf("expected empty list after delete, got %+v", s.Tasks())
	}
}

func TestResolveTask(t *testing.T) {
	s := newTestStore(t, snapshot.NewMemory())
	s.AddTask("older", nil, nil)
	s.AddTask("newer", nil, nil)

	if task, ok := s.ResolveTask("1"); !ok || task.Text != "newer" {
		t.Errorf("position 1 should be newest, got %+v", task)
	}
	if task, ok := s.ResolveTask("id-1"); !ok || task.Text != "older" {
		t.Errorf("id lookup failed, got %+v", task)
	}
	if _, ok := s.ResolveTask("9"); ok {
		t.Error("out of range position must not resolve")
	}
}

func TestSubjectPaletteRoundRobin(t *testing.T) {
	s := newTestStore(t, snapshot.NewMemory())
	for i := 0; i < 7; i++ {
		sub, err := s.AddSubject(fmt.Sprintf("S%d", i))
		if err != nil {
			t.Fatalf("AddSubject failed: %v", err)
		}
		if want := model.Palette[i%len(model.Palette)]; sub.Color != want {
			t.Errorf("subject %d: expected color %s, got %s", i, want, sub.Color)
		}
	}
	if sub, _ := s.AddSubject("  "); sub != nil {
		t.Error("blank subject name must be ignored")
	}
}

func TestSubjectChaptersAndProgress(t *testing.T) {
	s := newTestStore(t, snapshot.NewMemory())
	sub, _ := s.AddSubject("Physics")

	if p, _ := s.SubjectProgress(sub.ID); p.Percent != 0 {
		t.Errorf("expected 0 progress with no chapters, got %v", p.Percent)
	}

	c1, _ := s.AddChapter(sub.ID, "Kinematics")
	s.AddChapter(sub.ID, "Dynamics")
	c3, _ := s.AddChapter(sub.ID, "Optics")
	s.ToggleChapter(sub.ID, c1.ID)

	p, ok := s.SubjectProgress(sub.ID)
	if !ok || p.Completed != 1 || p.Total != 3 || p.Percent != 33.3 {
		t.Errorf("unexpected progress %+v", p)
	}

	if ok, _ := s.DeleteChapter(sub.ID, c3.ID); !ok {
		t.Error("expected chapter delete")
	}
	if p, _ := s.SubjectProgress(sub.ID); p.Percent != 50 {
		t.Errorf("expected 50%%, got %v", p.Percent)
	}

	if c, _ := s.AddChapter("missing", "Nope"); c != nil {
		t.Error("chapter on unknown subject must be a no-op")
	}
	if c, _ := s.ToggleChapter("missing", c1.ID); c != nil {
		t.Error("toggle on unknown subject must be a no-op")
	}

	renamed, _ := s.RenameSubject(sub.ID, "Physics II")
	recolored, _ := s.RecolorSubject(sub.ID, "#112233")
	if renamed.Name != "Physics II" || recolored.Color != "#112233" {
		t.Errorf("rename/recolor failed: %+v %+v", renamed, recolored)
	}
}

func TestDeleteSubjectLeavesDanglingReference(t *testing.T) {
	s := newTestStore(t, snapshot.NewMemory())
	sub, _ := s.AddSubject("Chemistry")
	task, _ := s.AddTask("Lab report", nil, &sub.ID)

	if ok, _ := s.DeleteSubject(sub.ID); !ok {
		t.Fatal("expected subject delete")
	}

	got, _ := s.Task(task.ID)
	if got.SubjectID == nil || *got.SubjectID != sub.ID {
		t.Errorf("task subject id must be unchanged, got %v", got.SubjectID)
	}
	if _, ok := s.LookupSubject(got.SubjectID); ok {
		t.Error("lookup of deleted subject must report no subject")
	}
	if _, ok := s.LookupSubject(nil); ok {
		t.Error("lookup of nil must report no subject")
	}
}

func TestDefaultFolder(t *testing.T) {
	s := newTestStore(t, snapshot.NewMemory())
	folders := s.Folders()
	if len(folders) != 1 || folders[0].ID != "default" || folders[0].Name != "My Study Materials" {
		t.Fatalf("expected default folder, got %+v", folders)
	}

	if ok, _ := s.DeleteFolder("default"); ok {
		t.Error("the last folder must not be deletable")
	}
}

func TestCorruptSnapshotFallsBack(t *testing.T) {
	snaps := snapshot.NewMemory()
	snaps.Save(snapshot.KeyFolders, []byte(`{not json`))
	snaps.Save(snapshot.KeyTasks, []byte(`[{"id":1}]`))

	s := newTestStore(t, snaps)
	if f := s.Folders(); len(f) != 1 || f[0].ID != model.DefaultFolderID {
		t.Errorf("expected default folder after corrupt snapshot, got %+v", f)
	}
	if len(s.Tasks()) != 0 {
		t.Errorf("expected empty tasks after corrupt snapshot, got %+v", s.Tasks())
	}
}

func TestFilesLifecycle(t *testing.T) {
	s := newTestStore(t, snapshot.NewMemory())
	folder, _ := s.AddFolder("Biology")

	file, err := s.AddFile(folder.ID, "notes.pdf", "application/pdf", []byte("%PDF-1.4"))
	if err != nil || file == nil {
		t.Fatalf("AddFile failed: %v", err)
	}
	mime, data, err := model.DecodeDataURL(file.DataURL)
	if err != nil || mime != "application/pdf" || string(data) != "%PDF-1.4" {
		t.Errorf("data url did not round-trip: %q %q %v", mime, data, err)
	}

	if ok, _ := s.TagFile(folder.ID, file.ID, strPtr("bio")); !ok {
		t.Error("expected tag")
	}
	got, _ := s.File(folder.ID, file.ID)
	if got.SubjectTagID == nil || *got.SubjectTagID != "bio" {
		t.Errorf("expected tag bio, got %v", got.SubjectTagID)
	}

	inbox, _ := s.AddFile("", "syllabus.txt", "text/plain", []byte("hi"))
	if f, _ := s.Folder(model.DefaultFolderID); len(f.Files) != 1 || f.Files[0].ID != inbox.ID {
		t.Errorf("empty folder id should target the first folder, got %+v", f)
	}

	if ok, _ := s.DeleteFile(folder.ID, file.ID); !ok {
		t.Error("expected file delete")
	}
	if ok, _ := s.DeleteFolder(folder.ID); !ok {
		t.Error("expected folder delete with two folders present")
	}
}

func TestPersistFailureKeepsMutation(t *testing.T) {
	snaps := snapshot.NewMemory()
	s := newTestStore(t, snaps)
	snaps.FailSaves = errors.New("quota exceeded")

	task, err := s.AddTask("Still here", nil, nil)
	if err == nil {
		t.Fatal("expected save error")
	}
	if task == nil || len(s.Tasks()) != 1 {
		t.Error("in-memory mutation must be kept on save failure")
	}
}

func TestChangeBus(t *testing.T) {
	s := newTestStore(t, snapshot.NewMemory())
	changes := s.Subscribe(4)

	s.AddSubject("History")
	select {
	case c := <-changes:
		if c.Collection != CollectionSubjects {
			t.Errorf("expected subjects change, got %s", c.Collection)
		}
	case <-time.After(time.Second):
		t.Fatal("no change published")
	}

	s.Unsubscribe(changes)
	if _, ok := <-changes; ok {
		t.Error("expected closed channel after unsubscribe")
	}
}

func TestSubscribeAfterClose(t *testing.T) {
	s := newTestStore(t, snapshot.NewMemory())
	before := s.Subscribe(1)
	s.Close()

	if _, ok := <-before; ok {
		t.Error("expected Close to close existing subscribers")
	}

	after := s.Subscribe(1)
	select {
	case _, ok := <-after:
		if ok {
			t.Error("expected a closed channel after Close")
		}
	case <-time.After(time.Second):
		t.Fatal("subscribing after Close returned an open channel")
	}

	s.AddTask("still works", nil, nil)
	if len(s.Tasks()) != 1 {
		t.Error("mutations keep working after Close")
	}
}
