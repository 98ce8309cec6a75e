// Package store owns the task, curriculum and classroom collections. Every
// view, the HTTP API and the CLI share one Store; mutations are persisted
// wholesale and announced on a change bus.
package store

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dori/zenith/internal/logger"
	"github.com/dori/zenith/internal/model"
	"github.com/dori/zenith/internal/snapshot"
)

// Collection names a persisted list
type Collection string

const (
	CollectionTasks    Collection = "tasks"
	CollectionSubjects Collection = "subjects"
	CollectionFolders  Collection = "folders"
)

// Change is published after a collection is mutated
type Change struct {
	Collection Collection
	At         time.Time
}

// Store holds the in-memory collections
type Store struct {
	mu        sync.RWMutex
	snapshots snapshot.Store
	log       *logger.Logger
	newID     func() string

	tasks    []model.Task
	subjects []model.Subject
	folders  []model.Folder

	subsMu sync.Mutex
	subs   []chan Change
	closed bool
}

// Option customizes a Store
type Option func(*Store)

// WithIDGenerator replaces the uuid generator, for deterministic tests
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

// New loads every collection from snapshots. A snapshot that cannot be
// parsed is logged and replaced by the collection's default.
func New(snapshots snapshot.Store, log *logger.Logger, opts ...Option) (*Store, error) {
	if log == nil {
		log = logger.Nop()
	}
	s := &Store{
		snapshots: snapshots,
		log:       log.WithComponent("store"),
		newID:     newID,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.load(snapshot.KeyTasks, &s.tasks); err != nil {
		return nil, err
	}
	if err := s.load(snapshot.KeySubjects, &s.subjects); err != nil {
		return nil, err
	}
	if err := s.load(snapshot.KeyFolders, &s.folders); err != nil {
		return nil, err
	}

	if s.tasks == nil {
		s.tasks = []model.Task{}
	}
	if s.subjects == nil {
		s.subjects = []model.Subject{}
	}
	if len(s.folders) == 0 {
		s.folders = []model.Folder{model.DefaultFolder()}
	}
	for i := range s.subjects {
		if s.subjects[i].Chapters == nil {
			s.subjects[i].Chapters = []model.Chapter{}
		}
	}
	for i := range s.folders {
		if s.folders[i].Files == nil {
			s.folders[i].Files = []model.FileItem{}
		}
	}

	return s, nil
}

func (s *Store) load(key string, into interface{}) error {
	payload, err := s.snapshots.Load(key)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", key, err)
	}
	if payload == nil {
		return nil
	}
	if err := json.Unmarshal(payload, into); err != nil {
		s.log.Warnw("Discarding unreadable snapshot", "key", key, "error", err.Error())
		// Leave the zero value so New applies the default.
		switch v := into.(type) {
		case *[]model.Task:
			*v = nil
		case *[]model.Subject:
			*v = nil
		case *[]model.Folder:
			*v = nil
		}
	}
	return nil
}

// persistLocked writes one collection. The in-memory mutation is kept even
// when the write fails.
func (s *Store) persistLocked(key string, value interface{}) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	err = s.snapshots.Save(key, payload)
	s.log.LogStoreWrite(key, len(payload), err)
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", key, err)
	}
	return nil
}

// Subscribe registers a change observer. After Close the returned channel
// is already closed.
func (s *Store) Subscribe(buffer int) <-chan Change {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Change, buffer)
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	if s.closed {
		close(ch)
		return ch
	}
	s.subs = append(s.subs, ch)
	return ch
}

// Unsubscribe removes and closes an observer channel
func (s *Store) Unsubscribe(ch <-chan Change) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for i, sub := range s.subs {
		if sub == ch {
			s.subs = append(s.subs[:i], s.subs[i+1:]...)
			close(sub)
			return
		}
	}
}

// Close closes every observer channel
func (s *Store) Close() {
	s.subsMu.Lock()
	subs := s.subs
	s.subs = nil
	s.closed = true
	s.subsMu.Unlock()
	for _, ch := range subs {
		close(ch)
	}
}

func (s *Store) publish(c Collection) {
	change := Change{Collection: c, At: time.Now()}
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- change:
		default:
		}
	}
}
