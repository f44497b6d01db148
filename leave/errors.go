/*
errors.go - Error types for the leave service

ERROR CATEGORIES:
  1. Validation errors - malformed input at the submission boundary
  2. Not found        - unknown request or holiday
  3. Conflicts        - duplicate holiday date, illegal status transition

  Stores return the sentinels below (wrapped or bare); the API layer maps
  them to HTTP status codes through IsClientError / IsNotFound / IsConflict.

The billable-hours calculator itself never fails. Unparseable timestamps
are rejected here, before the calculator is called.
*/
package leave

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	ErrValidation        = errors.New("validation failed")
	ErrRequestNotFound   = errors.New("request not found")
	ErrHolidayNotFound   = errors.New("holiday not found")
	ErrDuplicateHoliday  = errors.New("a holiday already exists on this date")
	ErrInvalidTransition = errors.New("invalid status transition")
)

// =============================================================================
// STRUCTURED ERRORS
// =============================================================================

// ValidationError reports one invalid input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// TransitionError reports a status change the workflow does not allow.
type TransitionError struct {
	RequestID string
	From      Status
	To        Status
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("request %s cannot move from %s to %s", e.RequestID, e.From, e.To)
}

func (e *TransitionError) Unwrap() error { return ErrInvalidTransition }

// RecalcError reports a recalculation sweep that could not run to the end.
// Any calendar change that preceded it has already been stored.
type RecalcError struct {
	Err error
}

func (e *RecalcError) Error() string { return "recalculate hours: " + e.Err.Error() }

func (e *RecalcError) Unwrap() error { return e.Err }

// =============================================================================
// ERROR HELPERS
// =============================================================================

func IsClientError(err error) bool {
	return errors.Is(err, ErrValidation)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrRequestNotFound) || errors.Is(err, ErrHolidayNotFound)
}

func IsConflict(err error) bool {
	return errors.Is(err, ErrDuplicateHoliday) || errors.Is(err, ErrInvalidTransition)
}

// IsRecalcOnly reports whether err is solely a failed sweep, meaning the
// operation's own write succeeded.
func IsRecalcOnly(err error) bool {
	_, ok := err.(*RecalcError)
	return ok
}
