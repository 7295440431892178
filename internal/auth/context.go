package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	CtxFirebaseUID = "firebase_uid"
	CtxUserDBID    = "user_db_id"
	CtxUserEmail   = "user_email"
)

// UserDBID returns the database id of the authenticated user, set by
// WithUser. Empty means the request never passed the auth middleware.
func UserDBID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxUserDBID))
}

// FirebaseUID returns the verified Firebase UID of the caller.
func FirebaseUID(c *gin.Context) string {
	return strings.TrimSpace(c.GetString(CtxFirebaseUID))
}
