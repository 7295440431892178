package preview

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cipherstudio/cipherstudio-backend/internal/auth"
	"github.com/cipherstudio/cipherstudio-backend/internal/editor"
)

type mapGateway struct {
	projects map[string]map[string]string
}

func (g *mapGateway) LoadFiles(_ context.Context, ownerID, projectID string) (map[string]string, error) {
	files, ok := g.projects[ownerID+"/"+projectID]
	if !ok {
		return nil, editor.ErrProjectNotFound
	}
	out := make(map[string]string, len(files))
	for k, v := range files {
		out[k] = v
	}
	return out, nil
}

func (g *mapGateway) SaveFiles(_ context.Context, ownerID, projectID string, files map[string]string) error {
	g.projects[ownerID+"/"+projectID] = files
	return nil
}

func setupPreviewRouter(t *testing.T, gw editor.Gateway, cache *Cache) (*gin.Engine, *editor.Manager) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := editor.NewManager(gw, editor.ManagerOptions{Debounce: 10 * time.Second})
	t.Cleanup(func() { m.Close(context.Background()) })

	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(auth.CtxUserDBID, "u1")
		c.Next()
	})
	Register(r.Group("/projects"), m, cache)
	return r, m
}

func get(r *gin.Engine, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPreview_ServesSandboxedDocument(t *testing.T) {
	gw := &mapGateway{projects: map[string]map[string]string{
		"u1/p1": {"App.jsx": "export default function App(){ return null; }"},
	}}
	r, _ := setupPreviewRouter(t, gw, NewCache(nil))

	w := get(r, "/projects/p1/preview")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
	assert.Equal(t, "sandbox allow-scripts", w.Header().Get("Content-Security-Policy"))
	assert.Equal(t, "App.jsx", w.Header().Get("X-Preview-Entry"))
	assert.NotEmpty(t, w.Header().Get("X-Preview-Fingerprint"))
	assert.Contains(t, w.Body.String(), "function App(){ return null; }")
}

func TestPreview_UnknownProject(t *testing.T) {
	gw := &mapGateway{projects: map[string]map[string]string{}}
	r, _ := setupPreviewRouter(t, gw, NewCache(nil))

	w := get(r, "/projects/ghost/preview")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPreview_EmptyProjectUsesFallback(t *testing.T) {
	gw := &mapGateway{projects: map[string]map[string]string{"u1/p1": {}}}
	r, _ := setupPreviewRouter(t, gw, NewCache(nil))

	w := get(r, "/projects/p1/preview")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Welcome to CipherStudio!")
	assert.Empty(t, w.Header().Get("X-Preview-Entry"))
}

func TestPreview_CacheFollowsEdits(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	gw := &mapGateway{projects: map[string]map[string]string{
		"u1/p1": {"App.jsx": "export default function App(){ return 'one'; }"},
	}}
	r, m := setupPreviewRouter(t, gw, NewCache(client))

	w := get(r, "/projects/p1/preview")
	require.Equal(t, http.StatusOK, w.Code)
	first := w.Header().Get("X-Preview-Fingerprint")
	assert.Contains(t, w.Body.String(), "'one'")

	// cached copy serves while nothing changed
	w = get(r, "/projects/p1/preview")
	assert.Equal(t, first, w.Header().Get("X-Preview-Fingerprint"))

	// an edit changes the fingerprint and invalidates the cached document
	s, err := m.Acquire(context.Background(), "u1", "p1")
	require.NoError(t, err)
	require.NoError(t, s.UpdateFile("App.jsx", "export default function App(){ return 'two'; }"))

	w = get(r, "/projects/p1/preview")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, first, w.Header().Get("X-Preview-Fingerprint"))
	assert.Contains(t, w.Body.String(), "'two'")
}

func TestPreview_RefreshForcesRecompute(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	gw := &mapGateway{projects: map[string]map[string]string{
		"u1/p1": {"App.jsx": "export default function App(){ return 'one'; }"},
	}}
	cache := NewCache(client)
	r, _ := setupPreviewRouter(t, gw, cache)

	w := get(r, "/projects/p1/preview")
	require.Equal(t, http.StatusOK, w.Code)
	fp := w.Header().Get("X-Preview-Fingerprint")

	// overwrite the cached document under the live fingerprint; a plain GET
	// trusts the cache and serves it as-is
	cache.Put(context.Background(), "p1", &Document{HTML: "stale copy", Fingerprint: fp})
	w = get(r, "/projects/p1/preview")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "stale copy", w.Body.String())

	// refresh=1 re-renders even though the fingerprint is unchanged, and the
	// fresh document replaces the cached one
	w = get(r, "/projects/p1/preview?refresh=1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "'one'")
	assert.Equal(t, fp, w.Header().Get("X-Preview-Fingerprint"))

	w = get(r, "/projects/p1/preview")
	assert.Contains(t, w.Body.String(), "'one'")
}

func TestPreview_ExportDisposition(t *testing.T) {
	gw := &mapGateway{projects: map[string]map[string]string{"u1/p1": {}}}
	r, _ := setupPreviewRouter(t, gw, NewCache(nil))

	w := get(r, "/projects/p1/preview/export")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "p1-preview.html")
	assert.Equal(t, "sandbox allow-scripts", w.Header().Get("Content-Security-Policy"))
}
