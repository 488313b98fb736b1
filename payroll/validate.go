package payroll

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-leave/leave"
)

// =============================================================================
// FORMS - Raw input as it arrives from the UI
// =============================================================================

// PayPersonForm is an unvalidated pay person submission. Dates are the raw
// strings the user typed.
type PayPersonForm struct {
	Name           string
	Surname        string
	Company        string
	Salary         decimal.Decimal
	Deductions     decimal.Decimal
	Rebate         decimal.Decimal
	LeaveStartDate string
	LeaveEndDate   string
}

// EmployeeForm is an unvalidated employee submission.
type EmployeeForm struct {
	Name        string
	Surname     string
	Email       string
	Address     string
	Company     string
	CompanyTerm string
	Role        string
	Location    string
	Salary      decimal.Decimal
	StartDate   string
	EndDate     string
	Status      string
}

// LeaveForm is an unvalidated leave interval submission.
type LeaveForm struct {
	StartDate string
	EndDate   string
	Reason    string
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidatePayPerson checks a pay person form. An empty map means valid.
// Missing leave dates are allowed: the leave is simply pending.
func ValidatePayPerson(f PayPersonForm) FieldErrors {
	errs := FieldErrors{}
	required(errs, "name", f.Name)
	required(errs, "surname", f.Surname)
	required(errs, "company", f.Company)

	if !f.Salary.IsPositive() {
		errs["salary"] = "salary must be greater than zero"
	}
	if f.Deductions.IsNegative() {
		errs["deductions"] = "deductions must not be negative"
	}
	if f.Rebate.IsNegative() {
		errs["rebate"] = "rebate must not be negative"
	}

	validateInterval(errs, "leave_start_date", "leave_end_date", f.LeaveStartDate, f.LeaveEndDate)
	return errs
}

// ValidateEmployee checks an employee form. An empty map means valid.
func ValidateEmployee(f EmployeeForm) FieldErrors {
	errs := FieldErrors{}
	required(errs, "name", f.Name)
	required(errs, "surname", f.Surname)
	required(errs, "email", f.Email)
	if f.Email != "" && !strings.Contains(f.Email, "@") {
		errs["email"] = "email must be a valid address"
	}
	if f.Salary.IsNegative() {
		errs["salary"] = "salary must not be negative"
	}
	validateInterval(errs, "start_date", "end_date", f.StartDate, f.EndDate)
	return errs
}

// ValidateLeave checks a leave form. Both dates are required here, unlike
// the optional leave fields of a pay person form.
func ValidateLeave(f LeaveForm) FieldErrors {
	errs := FieldErrors{}
	required(errs, "start_date", f.StartDate)
	required(errs, "end_date", f.EndDate)
	validateInterval(errs, "start_date", "end_date", f.StartDate, f.EndDate)
	return errs
}

func required(errs FieldErrors, field, value string) {
	if strings.TrimSpace(value) == "" {
		errs[field] = field + " is required"
	}
}

// validateInterval records parse failures on each field and a reversed
// range on the end field.
func validateInterval(errs FieldErrors, startField, endField, start, end string) {
	startDate, err := leave.ParseDate(start)
	if err != nil {
		errs[startField] = err.Error()
	}
	endDate, err := leave.ParseDate(end)
	if err != nil {
		errs[endField] = err.Error()
	}
	if _, bad := errs[startField]; bad {
		return
	}
	if _, bad := errs[endField]; bad {
		return
	}

	iv := leave.Interval{Start: startDate, End: endDate}
	if err := iv.Validate(); err != nil {
		var rangeErr *leave.InvalidRangeError
		if errors.As(err, &rangeErr) {
			errs[endField] = rangeErr.Error()
		}
	}
}

// toError turns a non-empty map into a *ValidationError.
func (f FieldErrors) toError() error {
	if len(f) == 0 {
		return nil
	}
	return &ValidationError{Fields: f}
}
