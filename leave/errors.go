/*
errors.go - Error types for leave accounting

ERROR CATEGORIES:
  1. Input errors - bad dates or ranges coming from a form
  2. Policy errors - a policy that cannot be applied

A missing date is NOT an error. Classify returns an empty status for it,
because an unfinished form is a normal state during entry.

USAGE:

	if errors.Is(err, leave.ErrInvalidRange) {
	    // show a field-level message on the end date
	}

SEE ALSO:
  - accountant.go: returns these errors
  - payroll/validate.go: turns them into field messages
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
	// ErrInvalidRange is returned when an interval ends before it starts.
	ErrInvalidRange = errors.New("invalid leave range: end date before start date")

	// ErrInvalidDate is returned when a date string cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")

	// ErrInvalidPolicy is returned when a policy threshold is not positive.
	ErrInvalidPolicy = errors.New("invalid leave policy")

	// ErrInvalidPeriod is returned for a malformed reference period.
	ErrInvalidPeriod = errors.New("invalid reference period")

	errBeforeMinYear = errors.New("year before MinYear")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InvalidRangeError reports an interval whose end precedes its start.
type InvalidRangeError struct {
	Start Date
	End   Date
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("leave end date %s is before start date %s", e.End, e.Start)
}

func (e *InvalidRangeError) Unwrap() error {
	return ErrInvalidRange
}

// InvalidDateError reports a date string that is not YYYY-MM-DD.
type InvalidDateError struct {
	Value string
	Err   error
}

func (e *InvalidDateError) Error() string {
	if errors.Is(e.Err, errBeforeMinYear) {
		return fmt.Sprintf("invalid date %q (years before %04d are not supported)", e.Value, MinYear)
	}
	return fmt.Sprintf("invalid date %q (use YYYY-MM-DD)", e.Value)
}

func (e *InvalidDateError) Unwrap() error {
	return ErrInvalidDate
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsInputError returns true if the error is caller-correctable input.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidPeriod)
}
