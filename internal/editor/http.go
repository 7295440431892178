package editor

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cipherstudio/cipherstudio-backend/internal/auth"
)

type Handler struct {
	sessions *Manager
}

// RegisterFileRoutes mounts the file-level operations of a project. All of
// them go through the live editing session, so edits land in memory first
// and reach the database on the debounce cycle.
func RegisterFileRoutes(rg *gin.RouterGroup, sessions *Manager) {
	h := &Handler{sessions: sessions}

	rg.POST("/:public_id/files", h.createFile)
	rg.GET("/:public_id/files/:name", h.getFile)
	rg.PUT("/:public_id/files/:name", h.updateFile)
	rg.PUT("/:public_id/files/:name/open", h.openFile)
	rg.DELETE("/:public_id/files/:name", h.deleteFile)
	rg.POST("/:public_id/save", h.save)
}

func (h *Handler) session(c *gin.Context) (*Session, bool) {
	userID := auth.UserDBID(c)
	s, err := h.sessions.Acquire(c.Request.Context(), userID, c.Param("public_id"))
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "project not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		}
		return nil, false
	}
	return s, true
}

type createFileReq struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

func (h *Handler) createFile(c *gin.Context) {
	var req createFileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}

	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.CreateFile(req.Name, req.Content); err != nil {
		fileError(c, err)
		return
	}
	c.JSON(http.StatusCreated, fileState(s))
}

func (h *Handler) getFile(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}

	name := c.Param("name")
	content, err := s.ReadFile(name)
	if err != nil {
		fileError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "name": name, "content": content})
}

type updateFileReq struct {
	Content *string `json:"content"`
	NewName string  `json:"new_name"`
}

// updateFile covers both content updates and renames, matching the editor's
// single "apply my change to this file" call. Rename runs first so a combined
// request writes the content under the new name.
func (h *Handler) updateFile(c *gin.Context) {
	var req updateFileReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "invalid body"})
		return
	}
	if req.Content == nil && req.NewName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "nothing to update"})
		return
	}

	s, ok := h.session(c)
	if !ok {
		return
	}

	name := c.Param("name")
	if req.NewName != "" && req.NewName != name {
		if err := s.RenameFile(name, req.NewName); err != nil {
			fileError(c, err)
			return
		}
		name = req.NewName
	}
	if req.Content != nil {
		if err := s.UpdateFile(name, *req.Content); err != nil {
			fileError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, fileState(s))
}

func (h *Handler) openFile(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.OpenFile(c.Param("name")); err != nil {
		fileError(c, err)
		return
	}
	c.JSON(http.StatusOK, fileState(s))
}

func (h *Handler) deleteFile(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	s.DeleteFile(c.Param("name"))
	c.JSON(http.StatusOK, fileState(s))
}

// save forces the pending debounced write out immediately.
func (h *Handler) save(c *gin.Context) {
	s, ok := h.session(c)
	if !ok {
		return
	}
	if err := s.Flush(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"ok": false, "error": "save failed: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func fileState(s *Session) gin.H {
	files, active := s.Snapshot()
	return gin.H{"ok": true, "files": files, "active_file": active}
}

func fileError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidName):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": err.Error()})
	case errors.Is(err, ErrFileNotFound):
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
	}
}
