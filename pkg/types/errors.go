package types

import (
	"errors"
	"fmt"
	"strings"
)

// Record and store errors.
var (
	ErrNotFound        = errors.New("record not found")
	ErrInvalidID       = errors.New("invalid record ID")
	ErrDuplicateID     = errors.New("duplicate record ID")
	ErrValidation      = errors.New("validation failed")
	ErrUnknownEntity   = errors.New("unknown entity")
	ErrInvalidPosition = errors.New("invalid position")
)

// Dialog flow errors.
var (
	ErrInvalidTransition = errors.New("invalid dialog transition")
	ErrNothingPending    = errors.New("no pending mutation")
)

// Persistence errors.
var (
	ErrBackendClosed = errors.New("backend is closed")
)

// ValidationError reports the fields that rejected a create or update.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Entity Entity
	Fields []string
	Reason string
	Cause  error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s", e.Entity, ErrValidation.Error())
	if len(e.Fields) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(e.Fields, ", "))
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	return b.String()
}

// Unwrap exposes both the sentinel and the underlying cause.
func (e *ValidationError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrValidation}
	}
	return []error{ErrValidation, e.Cause}
}

// IsUserError reports whether err is caused by caller input rather than by
// the system: validation, unknown ids or entities, and bad positions.
func IsUserError(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrUnknownEntity) ||
		errors.Is(err, ErrInvalidPosition) ||
		errors.Is(err, ErrInvalidTransition)
}
