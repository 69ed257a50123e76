package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"
)

// Base carries the timestamps shared by every business entity. DeletedAt
// is the soft-delete marker: rows are never removed, only stamped.
type Base struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

func (b *Base) GetID() uint { return b.ID }

func (b *Base) GetDeletedAt() gorm.DeletedAt   { return b.DeletedAt }
func (b *Base) SetDeletedAt(at gorm.DeletedAt) { b.DeletedAt = at }

// Auditable is implemented by every entity that appears in the audit log.
type Auditable interface {
	GetID() uint
	EntityType() string
	DisplayLabel() string
}

// SoftDeletable exposes the delete timestamp for restore operations.
type SoftDeletable interface {
	GetDeletedAt() gorm.DeletedAt
	SetDeletedAt(gorm.DeletedAt)
}

// JSONMap stores an open JSON object in a jsonb column.
type JSONMap map[string]any

func (m JSONMap) Value() (driver.Value, error) {
	if m == nil {
		return nil, nil
	}
	return json.Marshal(m)
}

func (m *JSONMap) Scan(value any) error {
	if value == nil {
		*m = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("jsonmap: unsupported column type")
	}
	if len(data) == 0 {
		*m = nil
		return nil
	}
	return json.Unmarshal(data, m)
}

// StringList stores a list of strings in a jsonb column (tags etc.).
type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("stringlist: unsupported column type")
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, l)
}
