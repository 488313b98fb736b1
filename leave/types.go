/*
Package leave provides the leave accounting engine.

PURPOSE:
  Classifies a leave interval as Paid or Unpaid against a policy threshold
  and aggregates leave days (taken, left, in period) over a record's
  history. Everything here is a pure function of its inputs: no I/O, no
  shared state, safe to call from any goroutine.

KEY CONCEPTS IN THIS FILE (types.go):
  - Interval: a contiguous, inclusive date range of absence
  - Policy: the paid-day threshold, injected as configuration
  - Classification: derived day count + status for one interval
  - Record: the leave history of one payroll identity

DESIGN PRINCIPLES:
  1. Derived, never stored: status is recomputed from dates on every call
  2. Precision: day counts and thresholds use decimal.Decimal
  3. Calendar days: time-of-day is truncated before any subtraction

USAGE:
  policy := leave.DefaultPolicy()
  c, err := leave.Classify(leave.Interval{Start: mar1, End: mar2}, policy)
  // c.DayCount == 2, c.Status == leave.StatusUnpaid

SEE ALSO:
  - accountant.go: Classify, DaysTaken, DaysLeft, DaysInPeriod
  - period.go: reference periods
  - factory/policy.go: JSON policy definitions
*/
package leave

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// INTERVAL
// =============================================================================

// Interval is a leave range, both ends inclusive. A zero Start or End means
// the date has not been chosen yet.
type Interval struct {
	Start Date
	End   Date
}

// NewInterval parses two YYYY-MM-DD strings. Blank strings give zero dates.
func NewInterval(start, end string) (Interval, error) {
	s, err := ParseDate(start)
	if err != nil {
		return Interval{}, err
	}
	e, err := ParseDate(end)
	if err != nil {
		return Interval{}, err
	}
	return Interval{Start: s, End: e}, nil
}

// IsComplete reports whether both dates are present.
func (iv Interval) IsComplete() bool {
	return !iv.Start.IsZero() && !iv.End.IsZero()
}

// Validate returns InvalidRangeError for a complete interval whose end
// precedes its start. Incomplete intervals are valid.
func (iv Interval) Validate() error {
	if iv.IsComplete() && iv.End.Before(iv.Start) {
		return &InvalidRangeError{Start: iv.Start, End: iv.End}
	}
	return nil
}

func (iv Interval) String() string {
	return "[" + iv.Start.String() + ", " + iv.End.String() + "]"
}

// =============================================================================
// POLICY
// =============================================================================

// DefaultMaxPaidDaysPerMonth is the paid-leave threshold used when no policy
// is configured.
var DefaultMaxPaidDaysPerMonth = decimal.NewFromFloat(1.5)

// Policy is the leave threshold configuration. Immutable once built.
type Policy struct {
	Name string

	// Intervals longer than this are Unpaid. Also the monthly allotment.
	MaxPaidDaysPerMonth decimal.Decimal

	// Yearly allotment. Zero means 12 x MaxPaidDaysPerMonth.
	AnnualAllotment decimal.Decimal
}

func DefaultPolicy() Policy {
	return Policy{Name: "default", MaxPaidDaysPerMonth: DefaultMaxPaidDaysPerMonth}
}

// Validate checks the threshold is positive and the annual allotment is not
// negative.
func (p Policy) Validate() error {
	if !p.MaxPaidDaysPerMonth.IsPositive() {
		return fmt.Errorf("%w: max paid days per month must be positive, got %s",
			ErrInvalidPolicy, p.MaxPaidDaysPerMonth)
	}
	if p.AnnualAllotment.IsNegative() {
		return fmt.Errorf("%w: annual allotment must not be negative, got %s",
			ErrInvalidPolicy, p.AnnualAllotment)
	}
	return nil
}

// Allotment is the paid-day budget for the given period. The granularity
// follows the period kind.
func (p Policy) Allotment(period Period) decimal.Decimal {
	if period.Kind == PeriodYear {
		if p.AnnualAllotment.IsPositive() {
			return p.AnnualAllotment
		}
		return p.MaxPaidDaysPerMonth.Mul(decimal.NewFromInt(12))
	}
	return p.MaxPaidDaysPerMonth
}

// =============================================================================
// CLASSIFICATION
// =============================================================================

// Status is the derived pay status of an interval.
type Status string

const (
	StatusUnknown Status = "" // one or both dates missing
	StatusPaid    Status = "Paid"
	StatusUnpaid  Status = "Unpaid"
)

// Classification is the result of Classify.
type Classification struct {
	DayCount decimal.Decimal
	Status   Status
}

// IsPending reports whether the classification is waiting for dates.
func (c Classification) IsPending() bool { return c.Status == StatusUnknown }

// =============================================================================
// RECORD & SUMMARY
// =============================================================================

// Record is the leave history of one payroll identity. The accountant only
// reads it.
type Record struct {
	ID        string
	Intervals []Interval
}

// Summary bundles the aggregate figures for one period.
type Summary struct {
	Period       Period
	DaysInPeriod int
	DaysTaken    decimal.Decimal
	PaidDays     decimal.Decimal
	UnpaidDays   decimal.Decimal
	Allotment    decimal.Decimal
	DaysLeft     decimal.Decimal
}
