package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-leave/leave"
	"github.com/warp/payroll-leave/payroll"
)

func entry(id, start, end string) payroll.LeaveEntry {
	return payroll.LeaveEntry{
		ID: id, PayPersonID: "p1",
		Interval: leave.Interval{Start: leave.MustParseDate(start), End: leave.MustParseDate(end)},
	}
}

func TestMemory_LeaveStaysOrdered(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreatePayPerson(ctx, payroll.PayPerson{ID: "p1"}))

	require.NoError(t, s.AddLeave(ctx, entry("c", "2024-03-20", "2024-03-20")))
	require.NoError(t, s.AddLeave(ctx, entry("a", "2024-01-02", "2024-01-02")))
	require.NoError(t, s.AddLeave(ctx, entry("b", "2024-02-10", "2024-02-11")))

	p, err := s.GetPayPerson(ctx, "p1")
	require.NoError(t, err)
	ids := []string{p.Leave[0].ID, p.Leave[1].ID, p.Leave[2].ID}
	assert.Equal(t, []string{"a", "b", "c"}, ids)

	// moving an entry re-sorts
	moved := entry("a", "2024-04-01", "2024-04-01")
	require.NoError(t, s.UpdateLeave(ctx, moved))
	p, err = s.GetPayPerson(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "a", p.Leave[2].ID)
}

func TestMemory_ReturnsCopies(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreatePayPerson(ctx, payroll.PayPerson{ID: "p1"}))
	require.NoError(t, s.AddLeave(ctx, entry("a", "2024-01-02", "2024-01-02")))

	p, err := s.GetPayPerson(ctx, "p1")
	require.NoError(t, err)
	p.Leave[0].Reason = "mutated"

	again, err := s.GetPayPerson(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, again.Leave[0].Reason)
}

func TestMemory_NotFound(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, err := s.GetEmployee(ctx, "x")
	assert.ErrorIs(t, err, payroll.ErrNotFound)
	assert.ErrorIs(t, s.UpdatePayPerson(ctx, payroll.PayPerson{ID: "x"}), payroll.ErrNotFound)
	assert.ErrorIs(t, s.AddLeave(ctx, entry("a", "2024-01-02", "2024-01-02")), payroll.ErrNotFound)
	assert.ErrorIs(t, s.DeleteLeave(ctx, "p1", "a"), payroll.ErrNotFound)

	_, err = s.GetPayPersonByEmployee(ctx, "")
	assert.ErrorIs(t, err, payroll.ErrNotFound)
}

func TestMemory_SnapshotUniqueness(t *testing.T) {
	s := New()
	ctx := context.Background()
	period := leave.MonthPeriod(2024, time.January)
	snap := payroll.LeaveSnapshot{ID: "s1", PayPersonID: "p1", Summary: leave.Summary{Period: period, DaysLeft: decimal.Zero}}

	require.NoError(t, s.SaveSnapshot(ctx, snap))
	assert.ErrorIs(t, s.SaveSnapshot(ctx, snap), payroll.ErrDuplicateSnapshot)

	has, err := s.HasSnapshot(ctx, "p1", period)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestMemory_ConcurrentWrites(t *testing.T) {
	s := New()
	ctx := context.Background()
	require.NoError(t, s.CreatePayPerson(ctx, payroll.PayPerson{ID: "p1"}))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			day := leave.NewDate(2024, time.January, 1).AddDays(i)
			_ = s.AddLeave(ctx, payroll.LeaveEntry{
				ID: day.String(), PayPersonID: "p1",
				Interval: leave.Interval{Start: day, End: day},
			})
			_, _ = s.GetPayPerson(ctx, "p1")
		}(i)
	}
	wg.Wait()

	p, err := s.GetPayPerson(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, p.Leave, 50)
	for i := 1; i < len(p.Leave); i++ {
		assert.True(t, p.Leave[i-1].Interval.Start.Before(p.Leave[i].Interval.Start))
	}
}
