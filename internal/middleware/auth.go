package middleware

import (
	"net/http"

	"gestionale/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// RequireAuth rejects requests without a logged-in session. JSON API: 401,
// no redirect.
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := sessions.Default(c)
		if sess.Get("user_id") == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":   "UNAUTHORIZED",
				"detail": "Autenticazione richiesta.",
			})
			return
		}
		c.Next()
	}
}

// RequireRole allows only the given roles.
func RequireRole(roles ...models.UserRole) gin.HandlerFunc {
	roleSet := map[models.UserRole]struct{}{}
	for _, r := range roles {
		roleSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		sess := sessions.Default(c)
		roleStr, ok := sess.Get("role").(string)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":   "UNAUTHORIZED",
				"detail": "Autenticazione richiesta.",
			})
			return
		}

		if _, ok := roleSet[models.UserRole(roleStr)]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":   "FORBIDDEN",
				"detail": "Permessi insufficienti.",
			})
			return
		}
		c.Next()
	}
}

// RequireWriter allows roles that may mutate business entities
// (admin and operator; viewer is read-only).
func RequireWriter() gin.HandlerFunc {
	return RequireRole(models.RoleAdmin, models.RoleOperator)
}
