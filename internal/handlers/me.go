package handlers

import (
	"net/http"

	"gestionale/internal/middleware"
	"gestionale/internal/models"

	"github.com/gin-gonic/gin"
)

// rolePermissions maps a role onto the permission strings the frontend
// uses to toggle UI affordances.
func rolePermissions(role models.UserRole) []string {
	perms := []string{"read"}
	if role.CanWrite() {
		perms = append(perms, "write", "restore")
	}
	if role.CanViewSecrets() {
		perms = append(perms, "view_secrets")
	}
	if role == models.RoleAdmin {
		perms = append(perms, "manage_definitions", "manage_users", "view_audit")
	}
	return perms
}

// Me returns the authenticated user's profile.
func Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED", "detail": "Autenticazione richiesta."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":          user.ID,
		"username":    user.Username,
		"email":       user.Email,
		"first_name":  user.FirstName,
		"last_name":   user.LastName,
		"role":        user.Role,
		"permissions": rolePermissions(user.Role),
	})
}
