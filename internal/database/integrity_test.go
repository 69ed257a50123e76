package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestAsValidationErrorConstraintName(t *testing.T) {
	t.Parallel()

	constraints := map[string]ConstraintMessage{
		"ux_customers_vat_active": {Field: "vat_number", Column: "vat_number", Message: "Partita IVA già in uso."},
	}

	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "ux_customers_vat_active"}
	ve := AsValidationError(fmt.Errorf("insert: %w", pgErr), constraints)
	if assert.NotNil(t, ve) {
		assert.Equal(t, "Partita IVA già in uso.", ve.Fields["vat_number"])
	}

	// Unknown constraint still reports a duplicate, without a field.
	pgErr = &pgconn.PgError{Code: "23505", ConstraintName: "ux_something_else"}
	ve = AsValidationError(pgErr, constraints)
	if assert.NotNil(t, ve) {
		assert.Contains(t, ve.Fields["detail"], "Vincolo di unicità violato.")
	}

	// Other pg errors are not duplicates.
	assert.Nil(t, AsValidationError(&pgconn.PgError{Code: "23503"}, constraints))
}

func TestAsValidationErrorSqliteMessage(t *testing.T) {
	t.Parallel()

	constraints := map[string]ConstraintMessage{
		"ux_customers_code_active": {Field: "code", Column: "code", Message: "Codice già in uso."},
		"ux_customers_tax_active":  {Field: "tax_code", Column: "tax_code", Message: "Codice fiscale già in uso."},
	}

	ve := AsValidationError(errors.New("UNIQUE constraint failed: customers.code"), constraints)
	if assert.NotNil(t, ve) {
		assert.Equal(t, "Codice già in uso.", ve.Fields["code"])
	}

	// tax_code must not be mistaken for code.
	ve = AsValidationError(errors.New("UNIQUE constraint failed: customers.tax_code"), constraints)
	if assert.NotNil(t, ve) {
		assert.Equal(t, "Codice fiscale già in uso.", ve.Fields["tax_code"])
		assert.NotContains(t, ve.Fields, "code")
	}

	// Unmapped column falls back to the generic duplicate message.
	ve = AsValidationError(errors.New("UNIQUE constraint failed: customers.email"), constraints)
	if assert.NotNil(t, ve) {
		assert.Equal(t, "Vincolo di unicità violato.", ve.Fields["detail"])
	}

	// The bare gorm sentinel carries no column and stays generic.
	ve = AsValidationError(gorm.ErrDuplicatedKey, constraints)
	if assert.NotNil(t, ve) {
		assert.Equal(t, "Vincolo di unicità violato.", ve.Fields["detail"])
	}
}
