package payroll_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/payroll-leave/leave"
	"github.com/warp/payroll-leave/payroll"
	"github.com/warp/payroll-leave/store/memory"
)

func newService(t *testing.T) *payroll.Service {
	t.Helper()
	return newServiceWithStore(t, memory.New())
}

func newServiceWithStore(t *testing.T, store payroll.Store) *payroll.Service {
	t.Helper()
	acct, err := leave.NewAccountant(leave.DefaultPolicy())
	require.NoError(t, err)

	svc := payroll.NewService(store, acct, nil)

	now := time.Date(2024, time.March, 15, 9, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time {
		now = now.Add(time.Second)
		return now
	}
	seq := 0
	svc.NewID = func() string {
		seq++
		return fmt.Sprintf("id-%03d", seq)
	}
	return svc
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func payForm() payroll.PayPersonForm {
	return payroll.PayPersonForm{Name: "Thandi", Surname: "Mokoena", Company: "Acme", Salary: dec("300000")}
}

func TestService_CreatePayPerson_WithPendingLeave(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	// GIVEN: a form with only a start date
	f := payForm()
	f.LeaveStartDate = "2024-03-04"

	// WHEN: created
	p, err := svc.CreatePayPerson(ctx, f)
	require.NoError(t, err)

	// THEN: one pending leave entry is stored
	require.Len(t, p.Leave, 1)
	assert.False(t, p.Leave[0].Interval.IsComplete())

	v, err := svc.View(ctx, p.ID)
	require.NoError(t, err)
	assert.True(t, v.LeaveStatus.IsPending())
	assert.True(t, v.Pay.MonthlyGross.Equal(dec("25000")))
}

func TestService_CreatePayPerson_Invalid(t *testing.T) {
	svc := newService(t)

	f := payForm()
	f.LeaveStartDate = "2024-03-05"
	f.LeaveEndDate = "2024-03-04"

	_, err := svc.CreatePayPerson(context.Background(), f)

	ve, ok := payroll.AsValidationError(err)
	require.True(t, ok)
	assert.Contains(t, ve.Fields, "leave_end_date")

	all, err := svc.ListPayPersons(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all, "nothing stored on a rejected form")
}

func TestService_UpdatePayPerson_EditsLatestLeave(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	f := payForm()
	f.LeaveStartDate = "2024-03-04"
	p, err := svc.CreatePayPerson(ctx, f)
	require.NoError(t, err)

	// WHEN: the end date is filled in and the salary changed
	f.LeaveEndDate = "2024-03-05"
	f.Salary = dec("360000")
	p, err = svc.UpdatePayPerson(ctx, p.ID, f)
	require.NoError(t, err)

	// THEN: the same entry is completed and now classifies as unpaid
	require.Len(t, p.Leave, 1)
	assert.True(t, p.Salary.Equal(dec("360000")))

	v, err := svc.View(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusUnpaid, v.LeaveStatus.Status)
	assert.True(t, v.LeaveStatus.DayCount.Equal(dec("2")))
}

func TestService_UpdatePayPerson_ReplacesAllFields(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	f := payForm()
	f.Deductions = dec("1000")
	f.Rebate = dec("500")
	p, err := svc.CreatePayPerson(ctx, f)
	require.NoError(t, err)

	f.Deductions = decimal.Zero
	f.Rebate = dec("200")
	p, err = svc.UpdatePayPerson(ctx, p.ID, f)
	require.NoError(t, err)

	assert.True(t, p.Deductions.IsZero(), "update replaces, it does not add")
	assert.True(t, p.Rebate.Equal(dec("200")))
}

func TestService_AddLeaveAndSummary(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	p, err := svc.CreatePayPerson(ctx, payForm())
	require.NoError(t, err)

	_, err = svc.AddLeave(ctx, p.ID, payroll.LeaveForm{StartDate: "2024-03-04", EndDate: "2024-03-04"})
	require.NoError(t, err)
	_, err = svc.AddLeave(ctx, p.ID, payroll.LeaveForm{StartDate: "2024-03-20", EndDate: "2024-03-22", Reason: "family"})
	require.NoError(t, err)

	sum, err := svc.LeaveSummary(ctx, p.ID, leave.MonthPeriod(2024, time.March))
	require.NoError(t, err)

	assert.True(t, sum.DaysTaken.Equal(dec("4")))
	assert.True(t, sum.PaidDays.Equal(dec("1")))
	assert.True(t, sum.UnpaidDays.Equal(dec("3")))
	assert.True(t, sum.DaysLeft.Equal(dec("0.5")))

	unpaid, err := svc.UnpaidLeave(ctx, p.ID, leave.MonthPeriod(2024, time.March))
	require.NoError(t, err)
	assert.True(t, unpaid.Equal(dec("3")))
}

func TestService_AddLeave_Rejects(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	p, err := svc.CreatePayPerson(ctx, payForm())
	require.NoError(t, err)

	_, err = svc.AddLeave(ctx, p.ID, payroll.LeaveForm{StartDate: "2024-03-05", EndDate: "2024-03-04"})
	assert.ErrorIs(t, err, payroll.ErrInvalidInput)

	_, err = svc.AddLeave(ctx, "missing", payroll.LeaveForm{StartDate: "2024-03-04", EndDate: "2024-03-04"})
	assert.ErrorIs(t, err, payroll.ErrNotFound)
}

func TestService_RemoveLeave(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	p, err := svc.CreatePayPerson(ctx, payForm())
	require.NoError(t, err)
	e, err := svc.AddLeave(ctx, p.ID, payroll.LeaveForm{StartDate: "2024-03-04", EndDate: "2024-03-04"})
	require.NoError(t, err)

	require.NoError(t, svc.RemoveLeave(ctx, p.ID, e.ID))
	assert.ErrorIs(t, svc.RemoveLeave(ctx, p.ID, e.ID), payroll.ErrNotFound)

	got, err := svc.GetPayPerson(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Leave)
}

func TestService_MigrateAndSync(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	e, err := svc.CreateEmployee(ctx, payroll.EmployeeForm{
		Name: "Sipho", Surname: "Dlamini", Email: "sipho@acme.test", Company: "Acme", Salary: dec("240000"),
	})
	require.NoError(t, err)

	// WHEN: migrated twice
	res, err := svc.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, payroll.MigrateResult{Created: 1}, res)

	res, err = svc.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, payroll.MigrateResult{Synced: 1}, res)

	// THEN: exactly one linked pay person
	persons, err := svc.ListPayPersons(ctx)
	require.NoError(t, err)
	require.Len(t, persons, 1)
	assert.Equal(t, e.ID, persons[0].EmployeeID)
	assert.True(t, persons[0].Salary.Equal(dec("240000")))

	// Employee edits flow to payroll
	_, err = svc.UpdateEmployee(ctx, e.ID, payroll.EmployeeForm{Salary: dec("250000")})
	require.NoError(t, err)
	p, err := svc.GetPayPerson(ctx, persons[0].ID)
	require.NoError(t, err)
	assert.True(t, p.Salary.Equal(dec("250000")))
	assert.Equal(t, "Sipho", p.Name, "partial update keeps other fields")

	// Payroll edits flow back to the employee
	f := payroll.PayPersonForm{Name: "Sipho", Surname: "Dlamini-Nkosi", Company: "Acme", Salary: dec("260000")}
	_, err = svc.UpdatePayPerson(ctx, p.ID, f)
	require.NoError(t, err)
	e, err = svc.GetEmployee(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Dlamini-Nkosi", e.Surname)
	assert.Equal(t, "sipho@acme.test", e.Email)
}

func TestService_DeletePayPerson_RemovesEmployee(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	e, err := svc.CreateEmployee(ctx, payroll.EmployeeForm{Name: "A", Surname: "B", Email: "a@b.test", Company: "C", Salary: dec("1")})
	require.NoError(t, err)
	_, err = svc.Migrate(ctx)
	require.NoError(t, err)
	persons, err := svc.ListPayPersons(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.DeletePayPerson(ctx, persons[0].ID))

	_, err = svc.GetEmployee(ctx, e.ID)
	assert.ErrorIs(t, err, payroll.ErrNotFound)
	assert.ErrorIs(t, svc.DeletePayPerson(ctx, persons[0].ID), payroll.ErrNotFound)
}

func TestService_DeleteEmployee_UnlinksPayPerson(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	e, err := svc.CreateEmployee(ctx, payroll.EmployeeForm{Name: "A", Surname: "B", Email: "a@b.test", Company: "C", Salary: dec("1")})
	require.NoError(t, err)
	_, err = svc.Migrate(ctx)
	require.NoError(t, err)

	require.NoError(t, svc.DeleteEmployee(ctx, e.ID))

	persons, err := svc.ListPayPersons(ctx)
	require.NoError(t, err)
	require.Len(t, persons, 1)
	assert.Empty(t, persons[0].EmployeeID)
}

func TestService_SnapshotPeriod_IsIdempotent(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	p, err := svc.CreatePayPerson(ctx, payForm())
	require.NoError(t, err)
	_, err = svc.AddLeave(ctx, p.ID, payroll.LeaveForm{StartDate: "2024-02-28", EndDate: "2024-03-01"})
	require.NoError(t, err)

	feb := leave.MonthPeriod(2024, time.February)

	n, err := svc.SnapshotPeriod(ctx, feb)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = svc.SnapshotPeriod(ctx, feb)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	snaps, err := svc.Snapshots(ctx, p.ID)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, 29, snaps[0].Summary.DaysInPeriod)
	assert.True(t, snaps[0].Summary.DaysTaken.Equal(dec("2")), "28 and 29 February")
	assert.True(t, snaps[0].Summary.UnpaidDays.Equal(dec("2")))
}

// failingLeaveStore rejects every leave write.
type failingLeaveStore struct {
	payroll.Store
}

func (failingLeaveStore) AddLeave(context.Context, payroll.LeaveEntry) error {
	return errors.New("disk full")
}

func TestService_CreatePayPerson_LeaveFailureLeavesNothing(t *testing.T) {
	store := memory.New()
	svc := newServiceWithStore(t, failingLeaveStore{Store: store})
	ctx := context.Background()

	// GIVEN: a form with leave and a store that cannot write leave
	f := payForm()
	f.LeaveStartDate = "2024-03-04"
	f.LeaveEndDate = "2024-03-04"

	// WHEN: created
	_, err := svc.CreatePayPerson(ctx, f)
	require.Error(t, err)

	// THEN: no half-created pay person remains
	people, err := store.ListPayPersons(ctx)
	require.NoError(t, err)
	assert.Empty(t, people)
}

func TestService_AddLeave_ReturnsClassifiableEntry(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()
	p, err := svc.CreatePayPerson(ctx, payForm())
	require.NoError(t, err)

	entry, err := svc.AddLeave(ctx, p.ID, payroll.LeaveForm{StartDate: "2024-03-04", EndDate: "2024-03-04"})
	require.NoError(t, err)

	c, err := svc.Accountant().Classify(entry.Interval)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPaid, c.Status)
}
