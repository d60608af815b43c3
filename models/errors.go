package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound covers both "does not exist" and "exists but outside the
// caller's clinic scope" so responses never leak cross-clinic existence.
var ErrNotFound = errors.New("not found")

// ValidationError carries the full list of per-field messages for a rejected
// payload. Nothing is persisted when one is returned.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s", strings.Join(e.Errors, "; "))
}

// Conflict reasons surfaced to callers.
const (
	ReasonDuplicateApplication = "duplicate_application"
	ReasonLimitReached         = "limit_reached"
	ReasonTaskNotAvailable     = "task_not_available"
	ReasonInvalidTransition    = "invalid_transition"
	ReasonInvalidState         = "invalid_state"
	ReasonNotEligible          = "assistant_not_active"
)

// ConflictError is a business-rule failure (illegal transition, duplicate
// application, capacity exceeded, lost race). The transaction that raised it
// has been aborted, so persisted state is unchanged.
type ConflictError struct {
	Reason  string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// NewConflict builds a ConflictError with a formatted message.
func NewConflict(reason, format string, args ...interface{}) *ConflictError {
	return &ConflictError{Reason: reason, Message: fmt.Sprintf(format, args...)}
}
