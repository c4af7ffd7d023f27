package apperrors

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// FieldViolation names a single input field that failed validation.
type FieldViolation struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError reports every field violation found in a request. Fields
// are validated independently and all failures are collected, so a caller
// can fix the whole request in one round trip instead of replaying it once
// per error.
type ValidationError struct {
	Violations []FieldViolation
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		parts[i] = v.Field + ": " + v.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError wraps the collected violations. Returns nil when the
// slice is empty so validation helpers can return their result directly.
func NewValidationError(violations []FieldViolation) error {
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}

// StoreUnavailable marks a store error as retryable for the caller. The
// result matches errors.Is(err, ErrStoreUnavailable) and keeps the cause in
// the message.
func StoreUnavailable(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}
