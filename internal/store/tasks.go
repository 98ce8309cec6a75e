package store

import (
	"strconv"
	"strings"
	"time"

	"github.com/dori/zenith/internal/model"
	"github.com/dori/zenith/internal/snapshot"
	"github.com/google/uuid"
)

func newID() string {
	return uuid.New().String()
}

func normalizeDate(d *time.Time) *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	day := model.StartOfDay(*d)
	return &day
}

func normalizeRef(id *string) *string {
	if id == nil || strings.TrimSpace(*id) == "" {
		return nil
	}
	v := *id
	return &v
}

// Tasks returns a copy of the task list in display order
func (s *Store) Tasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]model.Task(nil), s.tasks...)
}

// Task returns the task with id
func (s *Store) Task(id string) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.taskIndexLocked(id); i >= 0 {
		return s.tasks[i], true
	}
	return model.Task{}, false
}

func (s *Store) taskIndexLocked(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// AddTask prepends a new pending task. Blank text is ignored and returns
// (nil, nil).
func (s *Store) AddTask(text string, date *time.Time, subjectID *string) (*model.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}

	task := model.Task{
		ID:        s.newID(),
		Text:      text,
		Date:      normalizeDate(date),
		SubjectID: normalizeRef(subjectID),
	}

	s.mu.Lock()
	s.tasks = append([]model.Task{task}, s.tasks...)
	err := s.persistLocked(snapshot.KeyTasks, s.tasks)
	s.mu.Unlock()

	s.publish(CollectionTasks)
	return &task, err
}

// ToggleTask flips the completion flag. Unknown ids are ignored.
func (s *Store) ToggleTask(id string) (*model.Task, error) {
	s.mu.Lock()
	i := s.taskIndexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return nil, nil
	}
	s.tasks[i].Completed = !s.tasks[i].Completed
	task := s.tasks[i]
	err := s.persistLocked(snapshot.KeyTasks, s.tasks)
	s.mu.Unlock()

	s.publish(CollectionTasks)
	return &task, err
}

// EditTask merges patch into the task. Blank text in the patch is ignored.
func (s *Store) EditTask(id string, patch model.TaskPatch) (*model.Task, error) {
	s.mu.Lock()
	i := s.taskIndexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return nil, nil
	}

	t := &s.tasks[i]
	if patch.Text != nil {
		if text := strings.TrimSpace(*patch.Text); text != "" {
			t.Text = text
		}
	}
	if patch.ClearDate {
		t.Date = nil
	} else if patch.Date != nil {
		t.Date = normalizeDate(patch.Date)
	}
	if patch.ClearSubject {
		t.SubjectID = nil
	} else if patch.SubjectID != nil {
		t.SubjectID = normalizeRef(patch.SubjectID)
	}

	task := *t
	err := s.persistLocked(snapshot.KeyTasks, s.tasks)
	s.mu.Unlock()

	s.publish(CollectionTasks)
	return &task, err
}

// DeleteTask removes one task. Returns false if the id was unknown.
func (s *Store) DeleteTask(id string) (bool, error) {
	s.mu.Lock()
	i := s.taskIndexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	err := s.persistLocked(snapshot.KeyTasks, s.tasks)
	s.mu.Unlock()

	s.publish(CollectionTasks)
	return true, err
}

// ClearCompleted removes every completed task and returns how many went
func (s *Store) ClearCompleted() (int, error) {
	s.mu.Lock()
	kept := make([]model.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		if !t.Completed {
			kept = append(kept, t)
		}
	}
	removed := len(s.tasks) - len(kept)
	s.tasks = kept
	err := s.persistLocked(snapshot.KeyTasks, s.tasks)
	s.mu.Unlock()

	s.publish(CollectionTasks)
	return removed, err
}

// ResolveTask finds a task by 1-based list position or by id prefix
func (s *Store) ResolveTask(ref string) (model.Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(s.tasks) {
			return model.Task{}, false
		}
		return s.tasks[n-1], true
	}
	if ref == "" {
		return model.Task{}, false
	}
	for _, t := range s.tasks {
		if strings.HasPrefix(t.ID, ref) {
			return t, true
		}
	}
	return model.Task{}, false
}
