package middleware

import (
	"gestionale/internal/database"
	"gestionale/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// CurrentUserKey is the gin context key holding the authenticated user.
const CurrentUserKey = "CurrentUser"

// InjectUser loads the session's user into the request context so
// handlers can attribute writes and audit events.
func InjectUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)

		if uidRaw := sess.Get("user_id"); uidRaw != nil {
			if uid, ok := uidRaw.(uint); ok && uid > 0 {
				var user models.User
				if err := database.DB.First(&user, uid).Error; err == nil && user.IsActive {
					c.Set(CurrentUserKey, &user)
				}
			}
		}

		c.Next()
	}
}

// CurrentUser returns the user injected by InjectUser, or nil.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(CurrentUserKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}
