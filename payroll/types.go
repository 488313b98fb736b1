// Package payroll implements employee and payroll records on top of the
// leave accounting engine. Pay figures and leave status are always derived
// from the stored inputs, never stored themselves.
package payroll

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-leave/leave"
)

// =============================================================================
// EMPLOYEE
// =============================================================================

// Employee is the HR record an employee is created from.
type Employee struct {
	ID          string
	Name        string
	Surname     string
	Email       string
	Address     string
	Company     string
	CompanyTerm string
	Role        string
	Location    string
	Salary      decimal.Decimal
	StartDate   leave.Date
	EndDate     leave.Date
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// =============================================================================
// PAY PERSON
// =============================================================================

// PayPerson is the payroll view of an employee. Salary is the annual gross.
type PayPerson struct {
	ID         string
	EmployeeID string // empty when created directly on payroll
	Name       string
	Surname    string
	Company    string
	Salary     decimal.Decimal
	Deductions decimal.Decimal
	Rebate     decimal.Decimal
	Leave      []LeaveEntry // ordered by start date
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// LeaveRecord returns the leave history in the accountant's input shape.
func (p PayPerson) LeaveRecord() leave.Record {
	intervals := make([]leave.Interval, len(p.Leave))
	for i, e := range p.Leave {
		intervals[i] = e.Interval
	}
	return leave.Record{ID: p.ID, Intervals: intervals}
}

// LatestLeave returns the entry with the latest start date, or nil.
func (p PayPerson) LatestLeave() *LeaveEntry {
	var latest *LeaveEntry
	for i := range p.Leave {
		if latest == nil || p.Leave[i].Interval.Start.After(latest.Interval.Start) {
			latest = &p.Leave[i]
		}
	}
	return latest
}

// LeaveEntry is one stored leave interval. It has no status field: status
// comes from leave.Classify each time it is shown.
type LeaveEntry struct {
	ID          string
	PayPersonID string
	Interval    leave.Interval
	Reason      string
	CreatedAt   time.Time
}

// =============================================================================
// SNAPSHOT - Frozen month-end leave figures
// =============================================================================

// LeaveSnapshot captures a leave summary at period end for reporting.
type LeaveSnapshot struct {
	ID          string
	PayPersonID string
	Summary     leave.Summary
	TakenAt     time.Time
}

// =============================================================================
// VIEW - What the payroll screen shows
// =============================================================================

// PayPersonView bundles a record with everything derived from it.
type PayPersonView struct {
	Person         PayPerson
	Pay            Pay
	LeaveStatus    leave.Classification // latest leave entry, pending if none
	CurrentMonth   leave.Summary
	Classification map[string]leave.Classification // by leave entry ID
}
