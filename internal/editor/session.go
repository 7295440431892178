package editor

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Gateway is the persistence collaborator a session saves through. SaveFiles
// is a full replace of the project's files map, not a diff; LoadFiles returns
// ErrProjectNotFound when the project does not exist for that owner.
type Gateway interface {
	LoadFiles(ctx context.Context, ownerID, projectID string) (map[string]string, error)
	SaveFiles(ctx context.Context, ownerID, projectID string, files map[string]string) error
}

// Session is one user's open editing session on one project. It owns the
// in-memory FileSet and mirrors mutations to the gateway behind a debounce
// window: every edit cancels the pending save and schedules a new one, so a
// burst of keystrokes collapses into a single write carrying the last state.
//
// A failed save never rolls back local edits and is not retried on its own;
// the next edit's debounce cycle tries again.
type Session struct {
	ID        string
	OwnerID   string
	ProjectID string

	mu       sync.Mutex
	fs       *FileSet
	gw       Gateway
	sched    *Scheduler
	debounce time.Duration

	pending  Handle
	dirty    bool
	lastUsed time.Time
	saveTO   time.Duration
}

func newSession(ownerID, projectID string, files map[string]string, gw Gateway, sched *Scheduler, debounce time.Duration) *Session {
	return &Session{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		ProjectID: projectID,
		fs:        NewFileSet(files),
		gw:        gw,
		sched:     sched,
		debounce:  debounce,
		lastUsed:  time.Now(),
		saveTO:    10 * time.Second,
	}
}

// Snapshot returns a copy of the files map and the active file name.
func (s *Session) Snapshot() (map[string]string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.fs.Files(), s.fs.Active()
}

// ReadFile returns the content of one file.
func (s *Session) ReadFile(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	content, ok := s.fs.Get(name)
	if !ok {
		return "", ErrFileNotFound
	}
	return content, nil
}

// OpenFile moves the active pointer without mutating content. Not persisted:
// the active file is session state, not project state.
func (s *Session) OpenFile(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()
	return s.fs.Open(name)
}

// CreateFile inserts a new file, makes it active, and schedules a save.
func (s *Session) CreateFile(name, content string) error {
	return s.mutate(func() error { return s.fs.Create(name, content) })
}

// UpdateFile replaces the content of an existing file and schedules a save.
func (s *Session) UpdateFile(name, content string) error {
	return s.mutate(func() error { return s.fs.Update(name, content) })
}

// RenameFile renames a file and schedules a save.
func (s *Session) RenameFile(oldName, newName string) error {
	return s.mutate(func() error { return s.fs.Rename(oldName, newName) })
}

// DeleteFile removes a file and schedules a save. Deleting an absent name is
// a no-op and does not schedule anything.
func (s *Session) DeleteFile(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if _, ok := s.fs.Get(name); !ok {
		return
	}
	s.fs.Delete(name)
	s.markDirtyLocked()
}

func (s *Session) mutate(op func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch()

	if err := op(); err != nil {
		return err
	}
	s.markDirtyLocked()
	return nil
}

// markDirtyLocked cancels the pending debounced save and schedules a fresh
// one. Caller holds s.mu.
func (s *Session) markDirtyLocked() {
	s.dirty = true
	if s.pending != 0 {
		s.sched.Cancel(s.pending)
	}
	s.pending = s.sched.Schedule(s.debounce, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.saveTO)
		defer cancel()
		if err := s.save(ctx); err != nil {
			log.Printf("[warn] session=%s project=%s autosave failed: %v", s.ID, s.ProjectID, err)
		}
	})
}

// Flush cancels any pending debounced save and writes the current state out
// immediately. A clean session is a no-op.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.pending != 0 {
		s.sched.Cancel(s.pending)
		s.pending = 0
	}
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	return s.save(ctx)
}

// save snapshots under the lock and performs the round-trip outside it, so an
// in-flight save never blocks edits. An edit that lands while the request is
// in flight re-marks the session dirty and schedules its own save.
func (s *Session) save(ctx context.Context) error {
	s.mu.Lock()
	files := s.fs.Files()
	s.dirty = false
	s.pending = 0
	s.mu.Unlock()

	if err := s.gw.SaveFiles(ctx, s.OwnerID, s.ProjectID, files); err != nil {
		s.mu.Lock()
		s.dirty = true
		s.mu.Unlock()
		return err
	}
	return nil
}

// Dirty reports whether the session has unsaved edits.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// IdleSince returns the time of the last operation on the session.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// teardown cancels pending work without saving. The manager flushes first
// when the session should survive.
func (s *Session) teardown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != 0 {
		s.sched.Cancel(s.pending)
		s.pending = 0
	}
}

func (s *Session) touch() { s.lastUsed = time.Now() }
