package database

import (
	"strings"

	"gorm.io/gorm"
)

// Soft-delete query convention, shared by every list endpoint:
//
//	?include_deleted=1 -> active + soft-deleted
//	?only_deleted=1    -> only soft-deleted
//
// The restore action must be able to see soft-deleted rows, so it always
// behaves like include_deleted=1.

func IsTruthy(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// WithDeletedFilters applies the standard soft-delete filters to a query.
// The zero-value flags keep gorm's default behavior (active rows only).
func WithDeletedFilters(q *gorm.DB, includeDeleted, onlyDeleted string, restore bool) *gorm.DB {
	if restore {
		includeDeleted = "1"
	}

	if IsTruthy(onlyDeleted) {
		return q.Unscoped().Where("deleted_at IS NOT NULL")
	}
	if IsTruthy(includeDeleted) {
		return q.Unscoped()
	}
	return q
}
