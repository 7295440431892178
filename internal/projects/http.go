package projects

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cipherstudio/cipherstudio-backend/internal/auth"
)

// Store is what the handlers need from the repository.
type Store interface {
	Create(ctx context.Context, userDBID, name string, files map[string]string) (*Project, error)
	List(ctx context.Context, userDBID string) ([]Project, error)
	Get(ctx context.Context, userDBID, publicID string) (*Project, error)
	Rename(ctx context.Context, userDBID, publicID, newName string) (*Project, error)
	Delete(ctx context.Context, userDBID, publicID string) (bool, error)
}

// SessionDropper discards any live editing session for a deleted project.
type SessionDropper interface {
	Drop(ownerID, projectID string)
}

// CacheInvalidator drops the cached preview document for a deleted project.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, projectID string)
}

type Handler struct {
	store    Store
	sessions SessionDropper
	cache    CacheInvalidator
}

func Register(rg *gin.RouterGroup, store Store, sessions SessionDropper, cache CacheInvalidator) {
	h := &Handler{store: store, sessions: sessions, cache: cache}

	rg.POST("", h.create)
	rg.GET("", h.list)
	rg.GET("/:public_id", h.get)
	rg.PATCH("/:public_id", h.rename)
	rg.DELETE("/:public_id", h.delete)
}

type createReq struct {
	Name  string            `json:"name"`
	Files map[string]string `json:"files"`
}

func (h *Handler) create(c *gin.Context) {
	var req createReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	userID := auth.UserDBID(c)
	p, err := h.store.Create(c.Request.Context(), userID, strings.TrimSpace(req.Name), req.Files)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"ok": true, "project": p})
}

func (h *Handler) list(c *gin.Context) {
	userID := auth.UserDBID(c)
	items, err := h.store.List(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "projects": items})
}

func (h *Handler) get(c *gin.Context) {
	userID := auth.UserDBID(c)
	p, err := h.store.Get(c.Request.Context(), userID, c.Param("public_id"))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

type renameReq struct {
	Name string `json:"name"`
}

func (h *Handler) rename(c *gin.Context) {
	var req renameReq
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Name) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	userID := auth.UserDBID(c)
	p, err := h.store.Rename(c.Request.Context(), userID, c.Param("public_id"), strings.TrimSpace(req.Name))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "project": p})
}

func (h *Handler) delete(c *gin.Context) {
	userID := auth.UserDBID(c)
	publicID := c.Param("public_id")

	ok, err := h.store.Delete(c.Request.Context(), userID, publicID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		return
	}

	// The row is gone; drop the in-memory session and cached preview so a
	// stale autosave cannot resurrect anything.
	if h.sessions != nil {
		h.sessions.Drop(userID, publicID)
	}
	if h.cache != nil {
		h.cache.Invalidate(c.Request.Context(), publicID)
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
