package models

import "time"

type AuditAction string

const (
	ActionCreate      AuditAction = "create"
	ActionUpdate      AuditAction = "update"
	ActionDelete      AuditAction = "delete"
	ActionRestore     AuditAction = "restore"
	ActionLogin       AuditAction = "login"
	ActionLoginFailed AuditAction = "login_failed"
	ActionLogout      AuditAction = "logout"
)

// AuditEvent is an append-only log record. Rows are never updated or
// deleted.
type AuditEvent struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index:ix_audit_events_action_created,priority:2;index:ix_audit_events_actor_created,priority:2" json:"created_at"`

	ActorID       *uint  `gorm:"index:ix_audit_events_actor_created,priority:1" json:"actor"`
	Actor         *User  `json:"-"`
	ActorUsername string `gorm:"size:150" json:"actor_username"`

	Action AuditAction `gorm:"type:varchar(16);not null;index:ix_audit_events_action_created,priority:1" json:"action"`

	EntityType string `gorm:"size:64;not null;index:ix_audit_events_entity,priority:1" json:"entity_type"`
	ObjectID   string `gorm:"size:64;index:ix_audit_events_entity,priority:2" json:"object_id"`
	ObjectRepr string `gorm:"size:255" json:"object_repr"`

	// Changes holds the masked {field: {from, to}} diff.
	Changes JSONMap `gorm:"type:jsonb" json:"changes"`

	// Metadata holds request context: path, method, ip, user_agent, query.
	Metadata JSONMap `gorm:"type:jsonb" json:"metadata"`
}

// AuthAttempt records every login attempt, success or failure. The
// password is never stored.
type AuthAttempt struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `gorm:"index:ix_auth_attempts_username_created,priority:2" json:"created_at"`

	Username string `gorm:"size:150;not null;index:ix_auth_attempts_username_created,priority:1" json:"username"`
	Success  bool   `gorm:"default:false" json:"success"`

	IP        string `gorm:"size:64" json:"ip"`
	UserAgent string `gorm:"type:text" json:"user_agent"`
}
