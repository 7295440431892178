package preview

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cipherstudio/cipherstudio-backend/internal/auth"
	"github.com/cipherstudio/cipherstudio-backend/internal/editor"
)

type Handler struct {
	sessions *editor.Manager
	cache    *Cache
}

// Register mounts the preview endpoints under the projects group. The SPA
// points its sandboxed iframe at the preview URL; export serves the same
// document as a download.
func Register(rg *gin.RouterGroup, sessions *editor.Manager, cache *Cache) {
	h := &Handler{sessions: sessions, cache: cache}

	rg.GET("/:public_id/preview", h.preview)
	rg.GET("/:public_id/preview/export", h.export)
}

func (h *Handler) preview(c *gin.Context) {
	doc, ok := h.document(c)
	if !ok {
		return
	}
	writeDocument(c, doc, "")
}

func (h *Handler) export(c *gin.Context) {
	doc, ok := h.document(c)
	if !ok {
		return
	}
	filename := fmt.Sprintf("%s-preview.html", c.Param("public_id"))
	writeDocument(c, doc, filename)
}

// document resolves the current preview, serving from the fingerprint cache
// unless ?refresh=1 forces a recompute.
func (h *Handler) document(c *gin.Context) (*Document, bool) {
	userID := auth.UserDBID(c)
	projectID := c.Param("public_id")

	s, err := h.sessions.Acquire(c.Request.Context(), userID, projectID)
	if err != nil {
		if errors.Is(err, editor.ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		}
		return nil, false
	}

	files, active := s.Snapshot()
	fingerprint := Fingerprint(files, active)

	if c.Query("refresh") != "1" {
		if doc, hit := h.cache.Get(c.Request.Context(), projectID, fingerprint); hit {
			return doc, true
		}
	}

	doc, err := Render(files, active)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return nil, false
	}
	h.cache.Put(c.Request.Context(), projectID, doc)
	return doc, true
}

// writeDocument serves the HTML under a sandbox CSP: scripts may run but the
// document gets no same-origin privileges, so it cannot reach the host
// page's storage, cookies, or DOM even if embedded same-origin.
func writeDocument(c *gin.Context, doc *Document, downloadName string) {
	c.Header("Content-Security-Policy", "sandbox allow-scripts")
	c.Header("Cache-Control", "no-store")
	c.Header("X-Preview-Fingerprint", doc.Fingerprint)
	if doc.EntryFile != "" {
		c.Header("X-Preview-Entry", doc.EntryFile)
	}
	if downloadName != "" {
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", downloadName))
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(doc.HTML))
}
