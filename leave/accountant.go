package leave

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// CLASSIFY
// =============================================================================

// Classify counts the days of iv (end day inclusive) and marks the interval
// Unpaid when the count exceeds the policy threshold.
//
// A missing date yields an empty classification and no error.
// End before start yields *InvalidRangeError.
func Classify(iv Interval, policy Policy) (Classification, error) {
	if err := policy.Validate(); err != nil {
		return Classification{}, err
	}
	if !iv.IsComplete() {
		return Classification{DayCount: decimal.Zero, Status: StatusUnknown}, nil
	}
	if err := iv.Validate(); err != nil {
		return Classification{}, err
	}

	days := decimal.NewFromInt(int64(DaysBetween(iv.Start, iv.End) + 1))
	status := StatusPaid
	if days.GreaterThan(policy.MaxPaidDaysPerMonth) {
		status = StatusUnpaid
	}
	return Classification{DayCount: days, Status: status}, nil
}

// =============================================================================
// AGGREGATION
// =============================================================================

// DaysInPeriod returns the exact number of calendar days in the period.
func DaysInPeriod(period Period) int {
	return period.Days()
}

// DaysTaken sums the days of every interval, Paid or Unpaid, that fall inside
// the period. An interval crossing a period boundary only contributes the
// days on the inside. Incomplete intervals are skipped.
func DaysTaken(record Record, period Period) (decimal.Decimal, error) {
	total := decimal.Zero
	for i, iv := range record.Intervals {
		if !iv.IsComplete() {
			continue
		}
		if err := iv.Validate(); err != nil {
			return decimal.Zero, fmt.Errorf("interval %d: %w", i, err)
		}
		if clipped, ok := period.Overlap(iv); ok {
			total = total.Add(decimal.NewFromInt(int64(DaysBetween(clipped.Start, clipped.End) + 1)))
		}
	}
	return total, nil
}

// DaysLeft returns the period allotment minus the in-period days of Paid
// intervals, floored at zero. Unpaid intervals never consume the allotment:
// their excess is already accounted for by the Unpaid status.
func DaysLeft(record Record, policy Policy, period Period) (decimal.Decimal, error) {
	s, err := Summarize(record, policy, period)
	if err != nil {
		return decimal.Zero, err
	}
	return s.DaysLeft, nil
}

// Summarize computes all aggregates for a period in one pass.
func Summarize(record Record, policy Policy, period Period) (Summary, error) {
	if err := policy.Validate(); err != nil {
		return Summary{}, err
	}

	paid, unpaid := decimal.Zero, decimal.Zero
	for i, iv := range record.Intervals {
		c, err := Classify(iv, policy)
		if err != nil {
			return Summary{}, fmt.Errorf("interval %d: %w", i, err)
		}
		if c.IsPending() {
			continue
		}
		clipped, ok := period.Overlap(iv)
		if !ok {
			continue
		}
		inside := decimal.NewFromInt(int64(DaysBetween(clipped.Start, clipped.End) + 1))
		if c.Status == StatusPaid {
			paid = paid.Add(inside)
		} else {
			unpaid = unpaid.Add(inside)
		}
	}

	allotment := policy.Allotment(period)
	left := allotment.Sub(paid)
	if left.IsNegative() {
		left = decimal.Zero
	}

	return Summary{
		Period:       period,
		DaysInPeriod: DaysInPeriod(period),
		DaysTaken:    paid.Add(unpaid),
		PaidDays:     paid,
		UnpaidDays:   unpaid,
		Allotment:    allotment,
		DaysLeft:     left,
	}, nil
}

// =============================================================================
// ACCOUNTANT - Policy bound to the functions above
// =============================================================================

// Accountant binds one policy to the pure functions of this package so
// callers do not pass it around. It holds no other state.
type Accountant struct {
	policy Policy
}

// NewAccountant validates the policy and returns an Accountant for it.
func NewAccountant(policy Policy) (*Accountant, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Accountant{policy: policy}, nil
}

func (a *Accountant) Policy() Policy { return a.policy }

func (a *Accountant) Classify(iv Interval) (Classification, error) {
	return Classify(iv, a.policy)
}

func (a *Accountant) DaysLeft(record Record, period Period) (decimal.Decimal, error) {
	return DaysLeft(record, a.policy, period)
}

func (a *Accountant) DaysTaken(record Record, period Period) (decimal.Decimal, error) {
	return DaysTaken(record, period)
}

func (a *Accountant) Summarize(record Record, period Period) (Summary, error) {
	return Summarize(record, a.policy, period)
}
