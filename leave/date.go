package leave

import (
	"strings"
	"time"
)

// =============================================================================
// DATE - Calendar day, no time-of-day
// =============================================================================

// DateLayout is the wire format for dates (form fields, JSON, SQLite).
const DateLayout = "2006-01-02"

// MinYear is the first supported year. 0001-01-01 is the zero time.Time,
// which Date reserves for "not chosen yet".
const MinYear = 2

// Date is a calendar day. The zero value means "not chosen yet".
type Date struct {
	Time time.Time
}

// NewDate builds a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day, keeping the day as seen in t's own
// location. A zero time stays zero.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return NewDate(t.Year(), t.Month(), t.Day())
}

func Today() Date { return DateOf(time.Now()) }

// ParseDate parses a YYYY-MM-DD string. An empty string yields the zero Date
// and no error: a blank form field is a pending value, not a bad one.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, &InvalidDateError{Value: s, Err: err}
	}
	if t.Year() < MinYear {
		return Date{}, &InvalidDateError{Value: s, Err: errBeforeMinYear}
	}
	return DateOf(t), nil
}

// MustParseDate is ParseDate for tests and fixtures; it panics on bad input.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Comparison
func (d Date) Before(other Date) bool        { return d.normalize().Before(other.normalize()) }
func (d Date) Equal(other Date) bool         { return d.normalize().Equal(other.normalize()) }
func (d Date) After(other Date) bool         { return d.normalize().After(other.normalize()) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

func (d Date) normalize() time.Time {
	if d.Time.IsZero() {
		return time.Time{}
	}
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

// Arithmetic
func (d Date) AddDays(n int) Date   { return DateOf(d.normalize().AddDate(0, 0, n)) }
func (d Date) AddMonths(n int) Date { return DateOf(d.normalize().AddDate(0, n, 0)) }

// Properties
func (d Date) Year() int         { return d.Time.Year() }
func (d Date) Month() time.Month { return d.Time.Month() }
func (d Date) Day() int          { return d.Time.Day() }
func (d Date) IsZero() bool      { return d.Time.IsZero() }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.normalize().Format(DateLayout)
}

// Min / Max of two dates.
func MinDate(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}

func MaxDate(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

// =============================================================================
// CALENDAR UTILITIES
// =============================================================================

// DaysBetween counts whole calendar days from -> to. Both ends are normalized
// to midnight UTC first, so DST transitions in the caller's zone cannot
// produce fractional days. Unix seconds are used because time.Duration
// saturates at about 292 years.
func DaysBetween(from, to Date) int {
	return int((to.normalize().Unix() - from.normalize().Unix()) / secondsPerDay)
}

const secondsPerDay = 24 * 60 * 60

func StartOfYear(year int) Date                    { return NewDate(year, time.January, 1) }
func EndOfYear(year int) Date                      { return NewDate(year, time.December, 31) }
func StartOfMonth(year int, month time.Month) Date { return NewDate(year, month, 1) }

func EndOfMonth(year int, month time.Month) Date {
	return DateOf(time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1))
}

// DaysInMonth returns 28..31, leap-year aware.
func DaysInMonth(year int, month time.Month) int {
	return EndOfMonth(year, month).Day()
}

func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
