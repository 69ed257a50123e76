// Package apperr defines the structured error shape returned by the API.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Machine-readable error codes.
const (
	CodeNotFound         = "NOT_FOUND"
	CodeBadRequest       = "BAD_REQUEST"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeForbidden        = "FORBIDDEN"
	CodeValidationFailed = "VALIDATION_FAILED"
	CodeDuplicate        = "DUPLICATE"
	CodeInternal         = "INTERNAL"
)

// Error is a structured application error with an HTTP status.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"detail"`

	// Fields carries field-level validation messages, possibly nested
	// (e.g. {"custom_fields": {"citta": "Campo obbligatorio."}}).
	Fields map[string]any `json:"fields,omitempty"`

	HTTPStatus int   `json:"-"`
	Err        error `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// WithFields attaches field-level messages.
func (e *Error) WithFields(fields map[string]any) *Error {
	if e == nil || len(fields) == 0 {
		return e
	}
	e.Fields = fields
	return e
}

func New(code, message string, status int) *Error {
	return &Error{Code: code, Message: message, HTTPStatus: status}
}

func NotFound(message string) *Error {
	return New(CodeNotFound, message, http.StatusNotFound)
}

func BadRequest(message string) *Error {
	return New(CodeBadRequest, message, http.StatusBadRequest)
}

func Unauthorized(message string) *Error {
	return New(CodeUnauthorized, message, http.StatusUnauthorized)
}

func Forbidden(message string) *Error {
	return New(CodeForbidden, message, http.StatusForbidden)
}

func Internal(message string, err error) *Error {
	return &Error{Code: CodeInternal, Message: message, HTTPStatus: http.StatusInternalServerError, Err: err}
}

// Validation builds a 400 carrying per-field messages. All field errors
// surface together, never just the first one.
func Validation(fields map[string]any) *Error {
	return &Error{
		Code:       CodeValidationFailed,
		Message:    "Dati non validi.",
		Fields:     fields,
		HTTPStatus: http.StatusBadRequest,
	}
}

// As extracts an *Error from err when present.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}
