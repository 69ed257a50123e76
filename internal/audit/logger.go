package audit

import (
	"net/http"
	"strconv"
	"strings"

	"gestionale/internal/logger"
	"gestionale/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Entry describes one auditable action.
type Entry struct {
	Actor    *models.User
	Action   models.AuditAction
	Target   models.Auditable
	Changes  models.JSONMap
	Metadata map[string]any
	Request  *http.Request
}

// LogEvent appends an audit event. Best-effort: a failed write is logged
// and swallowed so the triggering business operation always completes.
func LogEvent(db *gorm.DB, e Entry) {
	if db == nil {
		return
	}

	event := models.AuditEvent{
		Action:   e.Action,
		Changes:  e.Changes,
		Metadata: RequestMetadata(e.Request),
	}

	if e.Actor != nil {
		id := e.Actor.ID
		event.ActorID = &id
		event.ActorUsername = e.Actor.Username
	}

	if e.Target != nil {
		event.EntityType = e.Target.EntityType()
		event.ObjectID = strconv.FormatUint(uint64(e.Target.GetID()), 10)
		event.ObjectRepr = truncate(e.Target.DisplayLabel(), maxReprLen)
	}

	for k, v := range e.Metadata {
		if event.Metadata == nil {
			event.Metadata = models.JSONMap{}
		}
		event.Metadata[k] = v
	}

	if err := db.Create(&event).Error; err != nil {
		logger.Error("audit event write failed",
			zap.String("action", string(e.Action)),
			zap.String("entity_type", event.EntityType),
			zap.String("object_id", event.ObjectID),
			zap.Error(err),
		)
	}
}

// LogAuthAttempt records a login attempt. Never stores the password;
// best-effort like LogEvent.
func LogAuthAttempt(db *gorm.DB, username string, success bool, r *http.Request) {
	if db == nil {
		return
	}
	attempt := models.AuthAttempt{
		Username:  username,
		Success:   success,
		IP:        clientIP(r),
		UserAgent: userAgent(r),
	}
	if err := db.Create(&attempt).Error; err != nil {
		logger.Error("auth attempt write failed", zap.String("username", username), zap.Error(err))
	}
}

// RequestMetadata extracts the request context stored with every event.
func RequestMetadata(r *http.Request) models.JSONMap {
	if r == nil {
		return nil
	}
	meta := models.JSONMap{
		"path":   r.URL.Path,
		"method": r.Method,
		"ip":     clientIP(r),
	}
	if ua := userAgent(r); ua != "" {
		meta["user_agent"] = ua
	}
	if q := r.URL.RawQuery; q != "" {
		meta["query"] = q
	}
	return meta
}

func clientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.IndexByte(xff, ','); i >= 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	host := r.RemoteAddr
	if i := strings.LastIndexByte(host, ':'); i >= 0 {
		host = host[:i]
	}
	return host
}

func userAgent(r *http.Request) string {
	if r == nil {
		return ""
	}
	return r.Header.Get("User-Agent")
}
