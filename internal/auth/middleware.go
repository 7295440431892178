package auth

import (
	"net/http"
	"strings"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/gin-gonic/gin"

	"github.com/cipherstudio/cipherstudio-backend/internal/users"
)

// WithUser authenticates the request and resolves the caller to a database
// user. With a Firebase client it verifies the bearer token; with a nil
// client (local development) it trusts the X-User-Id header and falls back
// to "demo-user". Either way the user row is upserted so downstream handlers
// can rely on a valid database id.
func WithUser(client *fbauth.Client, userRepo *users.Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		var uid, email, name string

		if client != nil {
			token := extractBearer(c)
			if token == "" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "missing authorization token"})
				return
			}
			decoded, err := client.VerifyIDToken(c.Request.Context(), token)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid token"})
				return
			}
			uid = decoded.UID
			if v, ok := decoded.Claims["email"].(string); ok {
				email = v
			}
			if v, ok := decoded.Claims["name"].(string); ok {
				name = v
			}
		} else {
			uid = strings.TrimSpace(c.GetHeader("X-User-Id"))
			if uid == "" {
				uid = "demo-user"
			}
			email = c.GetHeader("X-User-Email")
			name = c.GetHeader("X-User-Name")
		}

		dbID, err := userRepo.EnsureUser(c.Request.Context(), users.UpsertUser{
			FirebaseUID: uid,
			Email:       email,
			DisplayName: name,
		})
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "ensure user: " + err.Error()})
			return
		}

		c.Set(CtxFirebaseUID, uid)
		c.Set(CtxUserDBID, dbID)
		c.Set(CtxUserEmail, email)
		c.Next()
	}
}

func extractBearer(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if strings.HasPrefix(h, "Bearer ") && len(h) > 7 {
		return h[7:]
	}
	return ""
}
