package leave

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - Reference window for leave aggregation
// =============================================================================

// Period is an inclusive calendar window [Start, End]. Aggregates (days
// taken, days left) are always computed for a period, never for "now".
type Period struct {
	Kind  PeriodKind
	Start Date
	End   Date
}

// PeriodKind decides which allotment applies to a period.
type PeriodKind string

const (
	PeriodMonth PeriodKind = "month"
	PeriodYear  PeriodKind = "year"
)

// MonthPeriod returns the calendar month.
func MonthPeriod(year int, month time.Month) Period {
	return Period{
		Kind:  PeriodMonth,
		Start: StartOfMonth(year, month),
		End:   EndOfMonth(year, month),
	}
}

// YearPeriod returns the calendar year.
func YearPeriod(year int) Period {
	return Period{
		Kind:  PeriodYear,
		Start: StartOfYear(year),
		End:   EndOfYear(year),
	}
}

// PeriodFor builds a month period when month is 1..12, and a year period
// when month is 0.
func PeriodFor(year int, month int) (Period, error) {
	if year < MinYear || year > 9999 {
		return Period{}, fmt.Errorf("%w: year %d", ErrInvalidPeriod, year)
	}
	switch {
	case month == 0:
		return YearPeriod(year), nil
	case month >= 1 && month <= 12:
		return MonthPeriod(year, time.Month(month)), nil
	default:
		return Period{}, fmt.Errorf("%w: month %d", ErrInvalidPeriod, month)
	}
}

// Contains returns true if d is within [Start, End].
func (p Period) Contains(d Date) bool {
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// Days returns the number of calendar days in the period, both ends included.
func (p Period) Days() int {
	return DaysBetween(p.Start, p.End) + 1
}

// Overlap clips iv to the period. ok is false when they do not intersect.
// The interval must already be valid.
func (p Period) Overlap(iv Interval) (clipped Interval, ok bool) {
	start := MaxDate(iv.Start, p.Start)
	end := MinDate(iv.End, p.End)
	if end.Before(start) {
		return Interval{}, false
	}
	return Interval{Start: start, End: end}, true
}

// Previous returns the period of the same kind right before p.
func (p Period) Previous() Period {
	if p.Kind == PeriodYear {
		return YearPeriod(p.Start.Year() - 1)
	}
	prev := p.Start.AddMonths(-1)
	return MonthPeriod(prev.Year(), prev.Month())
}

func (p Period) String() string {
	return "[" + p.Start.String() + ", " + p.End.String() + "]"
}
