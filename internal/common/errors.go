package common

import (
	"errors"
	"fmt"
)

// Business logic errors
var (
	// General errors
	ErrNotFound     = errors.New("resource not found")
	ErrForbidden    = errors.New("forbidden")
	ErrDuplicateKey = errors.New("duplicate key")

	// Auth errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("expired token")

	// Validation errors
	ErrInvalidInput       = errors.New("invalid input")
	ErrValidationRejected = errors.New("validation rejected")

	// Redirect errors
	ErrRedirectNotFound = errors.New("redirect not found")
	ErrSelfRedirect     = fmt.Errorf("%w: target cannot equal source", ErrValidationRejected)
	ErrRedirectLoop     = fmt.Errorf("%w: redirect would create a loop", ErrValidationRejected)
	ErrSourceTaken      = fmt.Errorf("%w: a redirect for this source already exists", ErrValidationRejected)
	ErrRedirectBusy     = errors.New("another redirect change is in progress")

	// Content errors
	ErrPostNotFound = errors.New("post not found")
	ErrPageNotFound = errors.New("page not found")
	ErrSlugTaken    = fmt.Errorf("%w: slug is already in use", ErrValidationRejected)

	// Revision errors
	ErrRevisionNotFound  = errors.New("revision not found")
	ErrRevisionConflict  = errors.New("revision number conflict")
	ErrProtectedRevision = errors.New("protected revisions cannot be deleted")
	ErrOwnerNotFound     = errors.New("revision owner not found")
	ErrUnknownOwnerKind  = errors.New("unknown revision owner kind")
)

// ValidationError attaches a validation failure to a single form field.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// NewValidationError wraps err as a field-level validation error
func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Message: err.Error(), Err: err}
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
