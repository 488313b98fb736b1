package leave_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-leave/leave"
)

func TestParseDate(t *testing.T) {
	d, err := leave.ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.String())

	d, err = leave.ParseDate("  ")
	require.NoError(t, err)
	assert.True(t, d.IsZero(), "blank input is a pending date")

	_, err = leave.ParseDate("2023-02-29")
	assert.ErrorIs(t, err, leave.ErrInvalidDate)

	_, err = leave.ParseDate("03/01/2024")
	var dateErr *leave.InvalidDateError
	require.ErrorAs(t, err, &dateErr)
	assert.Equal(t, "03/01/2024", dateErr.Value)
}

func TestParseDate_RejectsFirstYear(t *testing.T) {
	// 0001-01-01 would read back as a date not chosen yet
	for _, s := range []string{"0001-01-01", "0001-12-31"} {
		_, err := leave.ParseDate(s)
		assert.ErrorIs(t, err, leave.ErrInvalidDate, s)
		assert.Contains(t, err.Error(), "not supported")
	}

	d, err := leave.ParseDate("0002-01-01")
	require.NoError(t, err)
	assert.False(t, d.IsZero())

	in, err := leave.NewInterval("0002-01-01", "0002-01-01")
	require.NoError(t, err)
	c, err := leave.Classify(in, leave.DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPaid, c.Status)

	_, err = leave.NewInterval("0001-01-01", "0001-01-05")
	assert.ErrorIs(t, err, leave.ErrInvalidDate)
}

func TestDaysBetween_LongSpans(t *testing.T) {
	assert.Equal(t, 146097, leave.DaysBetween(leave.MustParseDate("1700-01-01"), leave.MustParseDate("2100-01-01")))
	assert.Equal(t, -146097, leave.DaysBetween(leave.MustParseDate("2100-01-01"), leave.MustParseDate("1700-01-01")))
	assert.Equal(t, 366, leave.YearPeriod(2024).Days())
}

func TestPeriodFor(t *testing.T) {
	p, err := leave.PeriodFor(2024, 2)
	require.NoError(t, err)
	assert.Equal(t, leave.PeriodMonth, p.Kind)
	assert.Equal(t, "[2024-02-01, 2024-02-29]", p.String())

	p, err = leave.PeriodFor(2024, 0)
	require.NoError(t, err)
	assert.Equal(t, leave.PeriodYear, p.Kind)
	assert.Equal(t, 366, p.Days())

	_, err = leave.PeriodFor(2024, 13)
	assert.ErrorIs(t, err, leave.ErrInvalidPeriod)
	_, err = leave.PeriodFor(0, 1)
	assert.ErrorIs(t, err, leave.ErrInvalidPeriod)
	_, err = leave.PeriodFor(1, 1)
	assert.ErrorIs(t, err, leave.ErrInvalidPeriod)
}

func TestPeriod_Overlap(t *testing.T) {
	march := leave.MonthPeriod(2024, time.March)

	clipped, ok := march.Overlap(iv("2024-02-28", "2024-03-02"))
	require.True(t, ok)
	assert.Equal(t, "[2024-03-01, 2024-03-02]", clipped.String())

	clipped, ok = march.Overlap(iv("2024-03-31", "2024-04-03"))
	require.True(t, ok)
	assert.Equal(t, "[2024-03-31, 2024-03-31]", clipped.String())

	_, ok = march.Overlap(iv("2024-04-01", "2024-04-03"))
	assert.False(t, ok)
}

func TestPeriod_Previous(t *testing.T) {
	assert.Equal(t, "[2023-12-01, 2023-12-31]", leave.MonthPeriod(2024, time.January).Previous().String())
	assert.Equal(t, "[2024-02-01, 2024-02-29]", leave.MonthPeriod(2024, time.March).Previous().String())
	assert.Equal(t, "[2023-01-01, 2023-12-31]", leave.YearPeriod(2024).Previous().String())
}
