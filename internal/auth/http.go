package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cipherstudio/cipherstudio-backend/internal/users"
)

type Handler struct {
	userRepo *users.Repo
}

func Register(rg *gin.RouterGroup, userRepo *users.Repo) {
	h := &Handler{userRepo: userRepo}

	rg.POST("/sync", h.sync)
	rg.GET("/profile", h.profile)
}

// sync is called by the SPA right after sign-in. The middleware already
// upserted the user, so this just echoes the resolved profile back.
func (h *Handler) sync(c *gin.Context) {
	user, err := h.userRepo.GetByFirebaseUID(c.Request.Context(), FirebaseUID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": user})
}

func (h *Handler) profile(c *gin.Context) {
	user, err := h.userRepo.GetByFirebaseUID(c.Request.Context(), FirebaseUID(c))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "user": user})
}
