package database

import (
	"errors"
	"strings"

	"gestionale/internal/apperr"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ConstraintMessage maps a violated unique constraint onto a field-level
// validation message, so API clients never see a raw DB error.
type ConstraintMessage struct {
	Field   string
	Column  string
	Message string
}

const (
	pgUniqueViolation     = "23505"
	sqliteUniqueViolation = "UNIQUE constraint failed"
)

// AsValidationError translates a unique-constraint violation into a
// field-level validation error. Returns nil when err is not a duplicate.
// The raw driver error must reach this function: gorm's TranslateError
// replaces it with a bare sentinel that names no constraint or column.
func AsValidationError(err error, constraints map[string]ConstraintMessage) *apperr.Error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != pgUniqueViolation {
			return nil
		}
		if cm, ok := constraints[pgErr.ConstraintName]; ok {
			return apperr.Validation(map[string]any{cm.Field: cm.Message})
		}
		return apperr.Validation(map[string]any{"detail": "Vincolo di unicità violato. (" + pgErr.ConstraintName + ")"})
	}

	// sqlite has no constraint names but spells out table.column pairs.
	if msg := err.Error(); strings.Contains(msg, sqliteUniqueViolation) {
		for _, cm := range constraints {
			if cm.Column != "" && strings.Contains(msg, "."+cm.Column) {
				return apperr.Validation(map[string]any{cm.Field: cm.Message})
			}
		}
		return apperr.Validation(map[string]any{"detail": "Vincolo di unicità violato."})
	}

	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return apperr.Validation(map[string]any{"detail": "Vincolo di unicità violato."})
	}

	return nil
}
