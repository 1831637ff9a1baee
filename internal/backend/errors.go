package backend

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// Machine-readable error codes reported by the backend.
const (
	// CodeNoRows is reported when a single-row read matches nothing.
	CodeNoRows = "PGRST116"
	// CodeUniqueViolation is reported when an insert hits a unique constraint.
	CodeUniqueViolation = "23505"
	// CodeInvalidParameter is reported for malformed request values.
	CodeInvalidParameter = "22023"
	// CodeInternal covers every other storage failure.
	CodeInternal = "XX000"

	CodeInvalidCredentials = "invalid_credentials"
	CodeEmailNotConfirmed  = "email_not_confirmed"
	CodeUserAlreadyExists  = "user_already_exists"
	CodeUserNotFound       = "user_not_found"
	CodeInvalidToken       = "invalid_token"
	CodeWeakPassword       = "weak_password"
	CodeValidationFailed   = "validation_failed"
	CodeSessionMissing     = "session_not_found"
)

// Error is returned by every backend call that fails.
type Error struct {
	Code    string
	Message string
	cause   error
}

func (e *Error) Error() string {
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

func newError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// CodeOf returns the backend error code carried by err, or "" if err is not
// a backend error.
func CodeOf(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// IsCode reports whether err carries the given backend error code.
func IsCode(err error, code string) bool {
	return err != nil && CodeOf(err) == code
}

// Translate maps storage errors onto backend error codes.
func Translate(err error) error {
	if err == nil {
		return nil
	}
	var be *Error
	if errors.As(err, &be) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Code: CodeNoRows, Message: "the result contains 0 rows", cause: err}
	case errors.Is(err, gorm.ErrDuplicatedKey), isUniqueViolation(err):
		return &Error{Code: CodeUniqueViolation, Message: "duplicate key value violates unique constraint", cause: err}
	}
	return &Error{Code: CodeInternal, Message: err.Error(), cause: err}
}

// isUniqueViolation catches drivers that do not implement gorm's error
// translation.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value")
}
