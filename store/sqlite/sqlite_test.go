package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-leave/leave"
	"github.com/warp/payroll-leave/payroll"
)

func newStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var t0 = time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)

func person(id string, created time.Time) payroll.PayPerson {
	return payroll.PayPerson{
		ID: id, Name: "Thandi", Surname: "Mokoena", Company: "Acme",
		Salary: decimal.RequireFromString("300000.50"), Deductions: decimal.NewFromInt(1000),
		Rebate: decimal.Zero, CreatedAt: created, UpdatedAt: created,
	}
}

func TestStore_PayPersonRoundTrip(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.CreatePayPerson(ctx, person("p1", t0)))

	got, err := s.GetPayPerson(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Thandi", got.Name)
	assert.True(t, got.Salary.Equal(decimal.RequireFromString("300000.50")))
	assert.True(t, got.Deductions.Equal(decimal.NewFromInt(1000)))
	assert.True(t, got.CreatedAt.Equal(t0))
	assert.Empty(t, got.EmployeeID)
	assert.Empty(t, got.Leave)

	_, err = s.GetPayPerson(ctx, "nope")
	assert.ErrorIs(t, err, payroll.ErrNotFound)
}

func TestStore_ListOrdersByCreation(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	// created_at 08:00:00.5 must sort after 08:00:00
	require.NoError(t, s.CreatePayPerson(ctx, person("b", t0.Add(500*time.Millisecond))))
	require.NoError(t, s.CreatePayPerson(ctx, person("a", t0)))

	all, err := s.ListPayPersons(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].ID)
	assert.Equal(t, "b", all[1].ID)
}

func TestStore_LeaveEntries(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreatePayPerson(ctx, person("p1", t0)))

	// GIVEN: entries added out of order, one pending
	require.NoError(t, s.AddLeave(ctx, payroll.LeaveEntry{
		ID: "l2", PayPersonID: "p1", CreatedAt: t0,
		Interval: leave.Interval{Start: leave.MustParseDate("2024-03-20"), End: leave.MustParseDate("2024-03-21")},
	}))
	require.NoError(t, s.AddLeave(ctx, payroll.LeaveEntry{
		ID: "l1", PayPersonID: "p1", CreatedAt: t0, Reason: "doctor",
		Interval: leave.Interval{Start: leave.MustParseDate("2024-03-04")},
	}))

	// THEN: loaded ordered by start, pending end preserved as zero
	p, err := s.GetPayPerson(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, p.Leave, 2)
	assert.Equal(t, "l1", p.Leave[0].ID)
	assert.Equal(t, "doctor", p.Leave[0].Reason)
	assert.True(t, p.Leave[0].Interval.End.IsZero())
	assert.Equal(t, "2024-03-21", p.Leave[1].Interval.End.String())

	// WHEN: the pending one is completed
	e := p.Leave[0]
	e.Interval.End = leave.MustParseDate("2024-03-04")
	require.NoError(t, s.UpdateLeave(ctx, e))
	p, err = s.GetPayPerson(ctx, "p1")
	require.NoError(t, err)
	assert.True(t, p.Leave[0].Interval.IsComplete())

	// Deleting checks the owner
	assert.ErrorIs(t, s.DeleteLeave(ctx, "other", "l1"), payroll.ErrNotFound)
	require.NoError(t, s.DeleteLeave(ctx, "p1", "l1"))

	// Unknown pay person
	err = s.AddLeave(ctx, payroll.LeaveEntry{ID: "x", PayPersonID: "ghost", CreatedAt: t0})
	assert.ErrorIs(t, err, payroll.ErrNotFound)
}

func TestStore_EmployeeLinkAndCascade(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	emp := payroll.Employee{
		ID: "e1", Name: "Sipho", Surname: "Dlamini", Email: "s@acme.test",
		Salary: decimal.NewFromInt(240000), StartDate: leave.MustParseDate("2023-01-09"),
		CreatedAt: t0, UpdatedAt: t0,
	}
	require.NoError(t, s.CreateEmployee(ctx, emp))

	p := person("p1", t0)
	p.EmployeeID = "e1"
	require.NoError(t, s.CreatePayPerson(ctx, p))

	dup := person("p2", t0)
	dup.EmployeeID = "e1"
	assert.Error(t, s.CreatePayPerson(ctx, dup), "one pay person per employee")

	got, err := s.GetPayPersonByEmployee(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)

	gotEmp, err := s.GetEmployee(ctx, "e1")
	require.NoError(t, err)
	assert.Equal(t, "2023-01-09", gotEmp.StartDate.String())
	assert.True(t, gotEmp.EndDate.IsZero())

	// Deleting the employee unlinks the pay person
	require.NoError(t, s.DeleteEmployee(ctx, "e1"))
	got, err = s.GetPayPerson(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, got.EmployeeID)

	assert.ErrorIs(t, s.DeleteEmployee(ctx, "e1"), payroll.ErrNotFound)
}

func TestStore_Snapshots(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreatePayPerson(ctx, person("p1", t0)))

	feb := leave.MonthPeriod(2024, time.February)
	snap := payroll.LeaveSnapshot{
		ID: "s1", PayPersonID: "p1", TakenAt: t0,
		Summary: leave.Summary{
			Period: feb, DaysInPeriod: 29,
			DaysTaken: decimal.NewFromInt(2), PaidDays: decimal.Zero, UnpaidDays: decimal.NewFromInt(2),
			Allotment: decimal.RequireFromString("1.5"), DaysLeft: decimal.RequireFromString("1.5"),
		},
	}
	require.NoError(t, s.SaveSnapshot(ctx, snap))

	snap.ID = "s2"
	assert.ErrorIs(t, s.SaveSnapshot(ctx, snap), payroll.ErrDuplicateSnapshot)

	has, err := s.HasSnapshot(ctx, "p1", feb)
	require.NoError(t, err)
	assert.True(t, has)
	has, err = s.HasSnapshot(ctx, "p1", leave.MonthPeriod(2024, time.March))
	require.NoError(t, err)
	assert.False(t, has)

	list, err := s.ListSnapshots(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, leave.PeriodMonth, list[0].Summary.Period.Kind)
	assert.Equal(t, 29, list[0].Summary.DaysInPeriod)
	assert.True(t, list[0].Summary.DaysLeft.Equal(decimal.RequireFromString("1.5")))

	// Deleting the pay person removes its snapshots
	require.NoError(t, s.DeletePayPerson(ctx, "p1"))
	list, err = s.ListSnapshots(ctx, "p1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStore_Reset(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.CreatePayPerson(ctx, person("p1", t0)))

	require.NoError(t, s.Reset(ctx))

	all, err := s.ListPayPersons(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}
