package editor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	mu       sync.Mutex
	projects map[string]map[string]string
	saves    []map[string]string
	loads    int
	saveErr  error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{projects: make(map[string]map[string]string)}
}

func (g *fakeGateway) seed(owner, project string, files map[string]string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.projects[owner+"/"+project] = files
}

func (g *fakeGateway) LoadFiles(_ context.Context, ownerID, projectID string) (map[string]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.loads++
	files, ok := g.projects[ownerID+"/"+projectID]
	if !ok {
		return nil, ErrProjectNotFound
	}
	out := make(map[string]string, len(files))
	for k, v := range files {
		out[k] = v
	}
	return out, nil
}

func (g *fakeGateway) SaveFiles(_ context.Context, ownerID, projectID string, files map[string]string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.saveErr != nil {
		return g.saveErr
	}
	g.projects[ownerID+"/"+projectID] = files
	g.saves = append(g.saves, files)
	return nil
}

func (g *fakeGateway) saveCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.saves)
}

func (g *fakeGateway) lastSave() map[string]string {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.saves) == 0 {
		return nil
	}
	return g.saves[len(g.saves)-1]
}

func (g *fakeGateway) setSaveErr(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.saveErr = err
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestManager_Acquire(t *testing.T) {
	t.Run("loads the file set once and reuses the session", func(t *testing.T) {
		gw := newFakeGateway()
		gw.seed("u1", "p1", map[string]string{"App.jsx": "x"})
		m := NewManager(gw, ManagerOptions{})
		defer m.Close(context.Background())

		s1, err := m.Acquire(context.Background(), "u1", "p1")
		require.NoError(t, err)
		s2, err := m.Acquire(context.Background(), "u1", "p1")
		require.NoError(t, err)

		assert.Same(t, s1, s2)
		assert.Equal(t, 1, gw.loads)

		files, active := s1.Snapshot()
		assert.Equal(t, "x", files["App.jsx"])
		assert.Equal(t, "App.jsx", active)
	})

	t.Run("missing project propagates not-found", func(t *testing.T) {
		m := NewManager(newFakeGateway(), ManagerOptions{})
		defer m.Close(context.Background())

		_, err := m.Acquire(context.Background(), "u1", "ghost")
		require.ErrorIs(t, err, ErrProjectNotFound)
	})

	t.Run("sessions are scoped per owner", func(t *testing.T) {
		gw := newFakeGateway()
		gw.seed("u1", "p1", map[string]string{})
		m := NewManager(gw, ManagerOptions{})
		defer m.Close(context.Background())

		_, err := m.Acquire(context.Background(), "u2", "p1")
		require.ErrorIs(t, err, ErrProjectNotFound)
	})
}

func TestSession_DebouncedSave(t *testing.T) {
	t.Run("a burst of edits collapses into one save carrying the last state", func(t *testing.T) {
		gw := newFakeGateway()
		gw.seed("u1", "p1", map[string]string{"App.jsx": ""})
		m := NewManager(gw, ManagerOptions{Debounce: 30 * time.Millisecond})
		defer m.Close(context.Background())

		s, err := m.Acquire(context.Background(), "u1", "p1")
		require.NoError(t, err)

		require.NoError(t, s.UpdateFile("App.jsx", "v1"))
		require.NoError(t, s.UpdateFile("App.jsx", "v2"))
		require.NoError(t, s.UpdateFile("App.jsx", "v3"))

		waitFor(t, func() bool { return gw.saveCount() > 0 })
		assert.Equal(t, 1, gw.saveCount())
		assert.Equal(t, "v3", gw.lastSave()["App.jsx"])
		assert.False(t, s.Dirty())
	})

	t.Run("delete of an absent file schedules nothing", func(t *testing.T) {
		gw := newFakeGateway()
		gw.seed("u1", "p1", map[string]string{"a.js": "x"})
		m := NewManager(gw, ManagerOptions{Debounce: 10 * time.Millisecond})
		defer m.Close(context.Background())

		s, err := m.Acquire(context.Background(), "u1", "p1")
		require.NoError(t, err)

		s.DeleteFile("ghost.js")
		time.Sleep(50 * time.Millisecond)
		assert.Equal(t, 0, gw.saveCount())
		assert.False(t, s.Dirty())
	})
}

func TestSession_SaveFailure(t *testing.T) {
	gw := newFakeGateway()
	gw.seed("u1", "p1", map[string]string{"App.jsx": "orig"})
	m := NewManager(gw, ManagerOptions{Debounce: 10 * time.Millisecond})
	defer m.Close(context.Background())

	s, err := m.Acquire(context.Background(), "u1", "p1")
	require.NoError(t, err)

	gw.setSaveErr(errors.New("connection reset"))
	require.NoError(t, s.UpdateFile("App.jsx", "edited"))

	// the failed autosave must not roll the local edit back
	waitFor(t, s.Dirty)
	time.Sleep(30 * time.Millisecond)
	content, err := s.ReadFile("App.jsx")
	require.NoError(t, err)
	assert.Equal(t, "edited", content)
	assert.True(t, s.Dirty())

	// next explicit save succeeds once the gateway recovers
	gw.setSaveErr(nil)
	require.NoError(t, s.Flush(context.Background()))
	assert.Equal(t, "edited", gw.lastSave()["App.jsx"])
	assert.False(t, s.Dirty())
}

func TestSession_Flush(t *testing.T) {
	t.Run("clean session does not hit the gateway", func(t *testing.T) {
		gw := newFakeGateway()
		gw.seed("u1", "p1", map[string]string{"a.js": "x"})
		m := NewManager(gw, ManagerOptions{})
		defer m.Close(context.Background())

		s, err := m.Acquire(context.Background(), "u1", "p1")
		require.NoError(t, err)

		require.NoError(t, s.Flush(context.Background()))
		assert.Equal(t, 0, gw.saveCount())
	})

	t.Run("flush preempts the pending debounce", func(t *testing.T) {
		gw := newFakeGateway()
		gw.seed("u1", "p1", map[string]string{"a.js": "x"})
		m := NewManager(gw, ManagerOptions{Debounce: 10 * time.Second})
		defer m.Close(context.Background())

		s, err := m.Acquire(context.Background(), "u1", "p1")
		require.NoError(t, err)

		require.NoError(t, s.UpdateFile("a.js", "y"))
		require.NoError(t, s.Flush(context.Background()))

		assert.Equal(t, 1, gw.saveCount())
		assert.Equal(t, "y", gw.lastSave()["a.js"])
	})
}

func TestManager_Drop(t *testing.T) {
	gw := newFakeGateway()
	gw.seed("u1", "p1", map[string]string{"a.js": "x"})
	m := NewManager(gw, ManagerOptions{Debounce: 10 * time.Second})
	defer m.Close(context.Background())

	s, err := m.Acquire(context.Background(), "u1", "p1")
	require.NoError(t, err)
	require.NoError(t, s.UpdateFile("a.js", "doomed"))

	m.Drop("u1", "p1")

	// dropped session saves nothing, and the next acquire reloads fresh
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, 0, gw.saveCount())

	s2, err := m.Acquire(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.NotSame(t, s, s2)
	assert.Equal(t, 2, gw.loads)
}

func TestManager_FlushDirty(t *testing.T) {
	gw := newFakeGateway()
	gw.seed("u1", "p1", map[string]string{"a.js": "x"})
	gw.seed("u1", "p2", map[string]string{"b.js": "y"})
	m := NewManager(gw, ManagerOptions{Debounce: 10 * time.Second})
	defer m.Close(context.Background())

	s1, err := m.Acquire(context.Background(), "u1", "p1")
	require.NoError(t, err)
	_, err = m.Acquire(context.Background(), "u1", "p2")
	require.NoError(t, err)

	require.NoError(t, s1.UpdateFile("a.js", "changed"))
	m.FlushDirty(context.Background())

	assert.Equal(t, 1, gw.saveCount())
	assert.Equal(t, "changed", gw.lastSave()["a.js"])
}

func TestManager_EvictIdle(t *testing.T) {
	gw := newFakeGateway()
	gw.seed("u1", "p1", map[string]string{"a.js": "x"})
	m := NewManager(gw, ManagerOptions{Debounce: 10 * time.Second, MaxIdle: 20 * time.Millisecond})
	defer m.Close(context.Background())

	s, err := m.Acquire(context.Background(), "u1", "p1")
	require.NoError(t, err)
	require.NoError(t, s.UpdateFile("a.js", "kept"))

	time.Sleep(40 * time.Millisecond)
	m.EvictIdle(context.Background())

	// eviction flushed the dirty state before closing the session
	assert.Equal(t, 1, gw.saveCount())
	assert.Equal(t, "kept", gw.lastSave()["a.js"])

	_, err = m.Acquire(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, gw.loads)
}
