package store

import (
	"strings"

	"github.com/dori/zenith/internal/model"
	"github.com/dori/zenith/internal/snapshot"
)

// SubjectProgress is the completion summary of one subject
type SubjectProgress struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Color     string  `json:"color"`
	Completed int     `json:"completed"`
	Total     int     `json:"total"`
	Percent   float64 `json:"progress"`
}

func copySubject(s model.Subject) model.Subject {
	s.Chapters = append([]model.Chapter{}, s.Chapters...)
	return s
}

// Subjects returns a copy of the subject list
func (s *Store) Subjects() []model.Subject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Subject, len(s.subjects))
	for i, sub := range s.subjects {
		out[i] = copySubject(sub)
	}
	return out
}

func (s *Store) subjectIndexLocked(id string) int {
	for i := range s.subjects {
		if s.subjects[i].ID == id {
			return i
		}
	}
	return -1
}

// LookupSubject resolves a subject reference. A nil, empty or dangling
// reference yields false, never an error.
func (s *Store) LookupSubject(id *string) (model.Subject, bool) {
	if id == nil || *id == "" {
		return model.Subject{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.subjectIndexLocked(*id); i >= 0 {
		return copySubject(s.subjects[i]), true
	}
	return model.Subject{}, false
}

// FindSubject resolves a subject by id or case-insensitive name
func (s *Store) FindSubject(ref string) (model.Subject, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sub := range s.subjects {
		if sub.ID == ref || strings.EqualFold(sub.Name, ref) {
			return copySubject(sub), true
		}
	}
	return model.Subject{}, false
}

// AddSubject appends a subject with the next palette color. Blank names are
// ignored.
func (s *Store) AddSubject(name string) (*model.Subject, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	s.mu.Lock()
	sub := model.Subject{
		ID:       s.newID(),
		Name:     name,
		Color:    model.PaletteColor(len(s.subjects)),
		Chapters: []model.Chapter{},
	}
	s.subjects = append(s.subjects, sub)
	err := s.persistLocked(snapshot.KeySubjects, s.subjects)
	s.mu.Unlock()

	s.publish(CollectionSubjects)
	return &sub, err
}

// mutateSubject runs fn on the subject with id and persists. Unknown ids and
// fn returning false are no-ops.
func (s *Store) mutateSubject(id string, fn func(sub *model.Subject) bool) (*model.Subject, error) {
	s.mu.Lock()
	i := s.subjectIndexLocked(id)
	if i < 0 || !fn(&s.subjects[i]) {
		s.mu.Unlock()
		return nil, nil
	}
	sub := copySubject(s.subjects[i])
	err := s.persistLocked(snapshot.KeySubjects, s.subjects)
	s.mu.Unlock()

	s.publish(CollectionSubjects)
	return &sub, err
}

// RenameSubject changes the name. Blank names are ignored.
func (s *Store) RenameSubject(id, name string) (*model.Subject, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	return s.mutateSubject(id, func(sub *model.Subject) bool {
		sub.Name = name
		return true
	})
}

// RecolorSubject changes the display color
func (s *Store) RecolorSubject(id, color string) (*model.Subject, error) {
	color = strings.TrimSpace(color)
	if color == "" {
		return nil, nil
	}
	return s.mutateSubject(id, func(sub *model.Subject) bool {
		sub.Color = color
		return true
	})
}

// DeleteSubject removes a subject and its chapters. Tasks and files that
// reference it keep the dangling id.
func (s *Store) DeleteSubject(id string) (bool, error) {
	s.mu.Lock()
	i := s.subjectIndexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false, nil
	}
	s.subjects = append(s.subjects[:i], s.subjects[i+1:]...)
	err := s.persistLocked(snapshot.KeySubjects, s.subjects)
	s.mu.Unlock()

	s.publish(CollectionSubjects)
	return true, err
}

// AddChapter appends a chapter to the subject
func (s *Store) AddChapter(subjectID, name string) (*model.Chapter, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var chapter *model.Chapter
	_, err := s.mutateSubject(subjectID, func(sub *model.Subject) bool {
		c := model.Chapter{ID: s.newID(), Name: name}
		sub.Chapters = append(sub.Chapters, c)
		chapter = &c
		return true
	})
	return chapter, err
}

// ToggleChapter flips a chapter's completion flag
func (s *Store) ToggleChapter(subjectID, chapterID string) (*model.Chapter, error) {
	var chapter *model.Chapter
	_, err := s.mutateSubject(subjectID, func(sub *model.Subject) bool {
		i := sub.ChapterIndex(chapterID)
		if i < 0 {
			return false
		}
		sub.Chapters[i].Completed = !sub.Chapters[i].Completed
		c := sub.Chapters[i]
		chapter = &c
		return true
	})
	return chapter, err
}

// RenameChapter changes a chapter's name
func (s *Store) RenameChapter(subjectID, chapterID, name string) (*model.Chapter, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var chapter *model.Chapter
	_, err := s.mutateSubject(subjectID, func(sub *model.Subject) bool {
		i := sub.ChapterIndex(chapterID)
		if i < 0 {
			return false
		}
		sub.Chapters[i].Name = name
		c := sub.Chapters[i]
		chapter = &c
		return true
	})
	return chapter, err
}

// DeleteChapter removes a chapter from the subject
func (s *Store) DeleteChapter(subjectID, chapterID string) (bool, error) {
	deleted := false
	_, err := s.mutateSubject(subjectID, func(sub *model.Subject) bool {
		i := sub.ChapterIndex(chapterID)
		if i < 0 {
			return false
		}
		sub.Chapters = append(sub.Chapters[:i], sub.Chapters[i+1:]...)
		deleted = true
		return true
	})
	return deleted, err
}

// SubjectProgress returns the completion summary of one subject
func (s *Store) SubjectProgress(id string) (SubjectProgress, bool) {
	sub, ok := s.LookupSubject(&id)
	if !ok {
		return SubjectProgress{}, false
	}
	return progressOf(sub), true
}

// Progress returns the completion summary of every subject
func (s *Store) Progress() []SubjectProgress {
	subjects := s.Subjects()
	out := make([]SubjectProgress, len(subjects))
	for i, sub := range subjects {
		out[i] = progressOf(sub)
	}
	return out
}

func progressOf(sub model.Subject) SubjectProgress {
	return SubjectProgress{
		ID:        sub.ID,
		Name:      sub.Name,
		Color:     sub.Color,
		Completed: sub.CompletedChapters(),
		Total:     len(sub.Chapters),
		Percent:   sub.Progress(),
	}
}
