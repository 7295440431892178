package editor

import (
	"context"
	"log"
	"sync"
	"time"
)

const (
	defaultDebounce = 1 * time.Second
	defaultMaxIdle  = 15 * time.Minute
)

// Manager owns the live editing sessions, keyed by owner and project. It is
// the explicit replacement for ambient "current project" state: sessions are
// created on first use, flushed by the periodic job while dirty, and torn
// down when idle or when their project is deleted.
type Manager struct {
	gw       Gateway
	sched    *Scheduler
	debounce time.Duration
	maxIdle  time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

type ManagerOptions struct {
	// Debounce is the autosave window; defaults to one second.
	Debounce time.Duration
	// MaxIdle is how long an untouched session survives before the eviction
	// pass closes it; defaults to fifteen minutes.
	MaxIdle time.Duration
}

func NewManager(gw Gateway, opts ManagerOptions) *Manager {
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	if opts.MaxIdle <= 0 {
		opts.MaxIdle = defaultMaxIdle
	}
	return &Manager{
		gw:       gw,
		sched:    NewScheduler(),
		debounce: opts.Debounce,
		maxIdle:  opts.MaxIdle,
		sessions: make(map[string]*Session),
	}
}

func sessionKey(ownerID, projectID string) string {
	return ownerID + "/" + projectID
}

// Acquire returns the live session for the project, loading the file set
// from the gateway on first use.
func (m *Manager) Acquire(ctx context.Context, ownerID, projectID string) (*Session, error) {
	m.mu.Lock()
	if s, ok := m.sessions[sessionKey(ownerID, projectID)]; ok {
		m.mu.Unlock()
		return s, nil
	}
	m.mu.Unlock()

	// Load outside the lock; a concurrent Acquire for the same project may
	// race the load, the first one registered wins.
	files, err := m.gw.LoadFiles(ctx, ownerID, projectID)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	key := sessionKey(ownerID, projectID)
	if s, ok := m.sessions[key]; ok {
		return s, nil
	}
	s := newSession(ownerID, projectID, files, m.gw, m.sched, m.debounce)
	m.sessions[key] = s
	return s, nil
}

// Drop discards the session for a deleted project without saving.
func (m *Manager) Drop(ownerID, projectID string) {
	m.mu.Lock()
	s, ok := m.sessions[sessionKey(ownerID, projectID)]
	if ok {
		delete(m.sessions, sessionKey(ownerID, projectID))
	}
	m.mu.Unlock()

	if ok {
		s.teardown()
	}
}

// FlushDirty force-saves every session with unsaved edits. Run periodically
// so a crashed debounce timer or a long-idle tab cannot strand edits.
func (m *Manager) FlushDirty(ctx context.Context) {
	for _, s := range m.snapshot() {
		if !s.Dirty() {
			continue
		}
		if err := s.Flush(ctx); err != nil {
			log.Printf("[warn] flush project=%s: %v", s.ProjectID, err)
		}
	}
}

// EvictIdle flushes and closes sessions that have been untouched longer than
// the idle limit.
func (m *Manager) EvictIdle(ctx context.Context) {
	cutoff := time.Now().Add(-m.maxIdle)

	m.mu.Lock()
	var idle []*Session
	for key, s := range m.sessions {
		if s.IdleSince().Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, key)
		}
	}
	m.mu.Unlock()

	for _, s := range idle {
		if err := s.Flush(ctx); err != nil {
			log.Printf("[warn] evict flush project=%s: %v", s.ProjectID, err)
		}
		s.teardown()
	}
}

// Close flushes everything and stops the scheduler. Called on shutdown.
func (m *Manager) Close(ctx context.Context) {
	for _, s := range m.snapshot() {
		if err := s.Flush(ctx); err != nil {
			log.Printf("[warn] shutdown flush project=%s: %v", s.ProjectID, err)
		}
	}
	m.sched.Stop()

	m.mu.Lock()
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
}

func (m *Manager) snapshot() []*Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	return out
}
