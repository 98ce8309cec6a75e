package store

import (
	"strings"

	"github.com/dori/zenith/internal/model"
	"github.com/dori/zenith/internal/snapshot"
)

func copyFolder(f model.Folder) model.Folder {
	f.Files = append([]model.FileItem{}, f.Files...)
	return f
}

// Folders returns a copy of the classroom folders
func (s *Store) Folders() []model.Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Folder, len(s.folders))
	for i, f := range s.folders {
		out[i] = copyFolder(f)
	}
	return out
}

// Folder returns one folder
func (s *Store) Folder(id string) (model.Folder, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.folderIndexLocked(id); i >= 0 {
		return copyFolder(s.folders[i]), true
	}
	return model.Folder{}, false
}

// folderIndexLocked resolves id; an empty id means the first folder
func (s *Store) folderIndexLocked(id string) int {
	if id == "" && len(s.folders) > 0 {
		return 0
	}
	for i := range s.folders {
		if s.folders[i].ID == id {
			return i
		}
	}
	return -1
}

// AddFolder appends an empty folder. Blank names are ignored.
func (s *Store) AddFolder(name string) (*model.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	s.mu.Lock()
	folder := model.Folder{ID: s.newID(), Name: name, Files: []model.FileItem{}}
	s.folders = append(s.folders, folder)
	err := s.persistLocked(snapshot.KeyFolders, s.folders)
	s.mu.Unlock()

	s.publish(CollectionFolders)
	return &folder, err
}

func (s *Store) mutateFolder(id string, fn func(f *model.Folder) bool) error {
	s.mu.Lock()
	i := s.folderIndexLocked(id)
	if i < 0 || !fn(&s.folders[i]) {
		s.mu.Unlock()
		return nil
	}
	err := s.persistLocked(snapshot.KeyFolders, s.folders)
	s.mu.Unlock()

	s.publish(CollectionFolders)
	return err
}

// RenameFolder changes a folder's name
func (s *Store) RenameFolder(id, name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, nil
	}
	renamed := false
	err := s.mutateFolder(id, func(f *model.Folder) bool {
		f.Name = name
		renamed = true
		return true
	})
	return renamed, err
}

// DeleteFolder removes a folder and its files. The last folder cannot be
// deleted.
func (s *Store) DeleteFolder(id string) (bool, error) {
	s.mu.Lock()
	i := s.folderIndexLocked(id)
	if i < 0 || id == "" || len(s.folders) <= 1 {
		s.mu.Unlock()
		return false, nil
	}
	s.folders = append(s.folders[:i], s.folders[i+1:]...)
	err := s.persistLocked(snapshot.KeyFolders, s.folders)
	s.mu.Unlock()

	s.publish(CollectionFolders)
	return true, err
}

// AddFile stores data inline in a folder. An empty folderID targets the
// first folder.
func (s *Store) AddFile(folderID, name, mime string, data []byte) (*model.FileItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}
	var file *model.FileItem
	err := s.mutateFolder(folderID, func(f *model.Folder) bool {
		item := model.FileItem{
			ID:      s.newID(),
			Name:    name,
			DataURL: model.EncodeDataURL(mime, data),
		}
		f.Files = append(f.Files, item)
		file = &item
		return true
	})
	return file, err
}

// File returns one file from a folder
func (s *Store) File(folderID, fileID string) (model.FileItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.folderIndexLocked(folderID)
	if i < 0 {
		return model.FileItem{}, false
	}
	if j := s.folders[i].FileIndex(fileID); j >= 0 {
		return s.folders[i].Files[j], true
	}
	return model.FileItem{}, false
}

// DeleteFile removes a file from its folder
func (s *Store) DeleteFile(folderID, fileID string) (bool, error) {
	deleted := false
	err := s.mutateFolder(folderID, func(f *model.Folder) bool {
		j := f.FileIndex(fileID)
		if j < 0 {
			return false
		}
		f.Files = append(f.Files[:j], f.Files[j+1:]...)
		deleted = true
		return true
	})
	return deleted, err
}

// TagFile sets or clears (nil) the subject tag of a file
func (s *Store) TagFile(folderID, fileID string, subjectID *string) (bool, error) {
	tagged := false
	err := s.mutateFolder(folderID, func(f *model.Folder) bool {
		j := f.FileIndex(fileID)
		if j < 0 {
			return false
		}
		f.Files[j].SubjectTagID = normalizeRef(subjectID)
		tagged = true
		return true
	})
	return tagged, err
}
