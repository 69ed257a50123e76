package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"strings"

	"gestionale/internal/apperr"
	"gestionale/internal/audit"
	"gestionale/internal/database"
	"gestionale/internal/middleware"
	"gestionale/internal/models"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

const csrfHeader = "X-CSRF-Token"

// CSRF seeds (or returns) the session's csrf token. The SPA calls this
// once before login.
func CSRF(c *gin.Context) {
	sess := sessions.Default(c)

	token, _ := sess.Get("csrf_token").(string)
	if token == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			fail(c, apperr.Internal("Errore interno.", err))
			return
		}
		token = hex.EncodeToString(buf)
		sess.Set("csrf_token", token)
		_ = sess.Save()
	}

	c.JSON(http.StatusOK, gin.H{"csrftoken": token})
}

func checkCSRF(c *gin.Context) bool {
	sess := sessions.Default(c)
	token, _ := sess.Get("csrf_token").(string)
	if token == "" || c.GetHeader(csrfHeader) != token {
		fail(c, apperr.Forbidden("Token CSRF mancante o non valido."))
		return false
	}
	return true
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login authenticates against the users table and opens a session. Every
// attempt is recorded; the password never is.
func Login(c *gin.Context) {
	if !checkCSRF(c) {
		return
	}

	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, apperr.BadRequest("Dati non validi."))
		return
	}
	req.Username = strings.TrimSpace(req.Username)

	var user models.User
	err := database.DB.Where("username = ?", req.Username).First(&user).Error
	if err != nil || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		audit.LogAuthAttempt(database.DB, req.Username, false, c.Request)
		audit.LogEvent(database.DB, audit.Entry{
			Action:   models.ActionLoginFailed,
			Metadata: map[string]any{"username": req.Username, "reason": "invalid_credentials"},
			Request:  c.Request,
		})
		fail(c, apperr.BadRequest("Credenziali non valide."))
		return
	}

	if !user.IsActive {
		audit.LogAuthAttempt(database.DB, req.Username, false, c.Request)
		audit.LogEvent(database.DB, audit.Entry{
			Action:   models.ActionLoginFailed,
			Metadata: map[string]any{"username": req.Username, "reason": "disabled"},
			Request:  c.Request,
		})
		fail(c, apperr.Forbidden("Utente disabilitato."))
		return
	}

	sess := sessions.Default(c)
	sess.Set("user_id", user.ID)
	sess.Set("role", string(user.Role))
	_ = sess.Save()

	audit.LogAuthAttempt(database.DB, req.Username, true, c.Request)
	audit.LogEvent(database.DB, audit.Entry{
		Actor:   &user,
		Action:  models.ActionLogin,
		Target:  &user,
		Request: c.Request,
	})

	c.JSON(http.StatusOK, gin.H{"detail": "ok"})
}

// Logout audits first, then drops the session.
func Logout(c *gin.Context) {
	if !checkCSRF(c) {
		return
	}

	if user := middleware.CurrentUser(c); user != nil {
		audit.LogEvent(database.DB, audit.Entry{
			Actor:   user,
			Action:  models.ActionLogout,
			Target:  user,
			Request: c.Request,
		})
	}

	sess := sessions.Default(c)
	sess.Clear()
	_ = sess.Save()

	c.JSON(http.StatusOK, gin.H{"detail": "ok"})
}
