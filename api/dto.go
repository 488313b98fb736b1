/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the payroll model from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Small response wrappers

MONEY AND DAYS:
  Decimals are serialized as JSON strings ("25000", "1.5") so no precision
  is lost in transit. Requests accept either strings or numbers.

DATES:
  Dates are "YYYY-MM-DD". An empty string is a date not chosen yet, and a
  leave status of "" means pending.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/policy.go: PolicyJSON type
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/payroll-leave/leave"
	"github.com/warp/payroll-leave/payroll"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeDTO struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Surname     string          `json:"surname"`
	Email       string          `json:"email"`
	Address     string          `json:"address"`
	Company     string          `json:"company"`
	CompanyTerm string          `json:"company_term"`
	Role        string          `json:"role"`
	Location    string          `json:"location"`
	Salary      decimal.Decimal `json:"salary"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	Status      string          `json:"status"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

// EmployeeRequest creates or partially updates an employee.
type EmployeeRequest struct {
	Name        string          `json:"name"`
	Surname     string          `json:"surname"`
	Email       string          `json:"email"`
	Address     string          `json:"address"`
	Company     string          `json:"company"`
	CompanyTerm string          `json:"company_term"`
	Role        string          `json:"role"`
	Location    string          `json:"location"`
	Salary      decimal.Decimal `json:"salary"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	Status      string          `json:"status"`
}

func (r EmployeeRequest) form() payroll.EmployeeForm {
	return payroll.EmployeeForm{
		Name:        r.Name,
		Surname:     r.Surname,
		Email:       r.Email,
		Address:     r.Address,
		Company:     r.Company,
		CompanyTerm: r.CompanyTerm,
		Role:        r.Role,
		Location:    r.Location,
		Salary:      r.Salary,
		StartDate:   r.StartDate,
		EndDate:     r.EndDate,
		Status:      r.Status,
	}
}

// =============================================================================
// PAYROLL
// =============================================================================

// PayPersonRequest creates or replaces a pay person. The leave dates are
// optional and edit the latest leave entry.
type PayPersonRequest struct {
	Name           string          `json:"name"`
	Surname        string          `json:"surname"`
	Company        string          `json:"company"`
	Salary         decimal.Decimal `json:"salary"`
	Deductions     decimal.Decimal `json:"deductions"`
	Rebate         decimal.Decimal `json:"rebate"`
	LeaveStartDate string          `json:"leave_start_date"`
	LeaveEndDate   string          `json:"leave_end_date"`
}

func (r PayPersonRequest) form() payroll.PayPersonForm {
	return payroll.PayPersonForm{
		Name:           r.Name,
		Surname:        r.Surname,
		Company:        r.Company,
		Salary:         r.Salary,
		Deductions:     r.Deductions,
		Rebate:         r.Rebate,
		LeaveStartDate: r.LeaveStartDate,
		LeaveEndDate:   r.LeaveEndDate,
	}
}

type PayPersonDTO struct {
	ID           string          `json:"id"`
	EmployeeID   string          `json:"employee_id,omitempty"`
	Name         string          `json:"name"`
	Surname      string          `json:"surname"`
	Company      string          `json:"company"`
	Salary       decimal.Decimal `json:"salary"`
	Deductions   decimal.Decimal `json:"deductions"`
	Rebate       decimal.Decimal `json:"rebate"`
	Pay          PayDTO          `json:"pay"`
	LeaveStatus  string          `json:"leave_status"`
	LeaveDays    decimal.Decimal `json:"leave_days"`
	Leave        []LeaveEntryDTO `json:"leave"`
	CurrentMonth LeaveSummaryDTO `json:"current_month"`
	CreatedAt    string          `json:"created_at"`
	UpdatedAt    string          `json:"updated_at"`
}

type PayDTO struct {
	AnnualGross  decimal.Decimal `json:"annual_gross"`
	Tax          decimal.Decimal `json:"tax"`
	AnnualNet    decimal.Decimal `json:"annual_net"`
	MonthlyGross decimal.Decimal `json:"monthly_gross"`
	MonthlyNet   decimal.Decimal `json:"monthly_net"`
	UIF          decimal.Decimal `json:"uif"`
}

type MigrateResponse struct {
	Created int `json:"created"`
	Synced  int `json:"synced"`
}

// =============================================================================
// LEAVE
// =============================================================================

type LeaveRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
}

// LeaveEntryDTO is a stored interval with its derived classification.
type LeaveEntryDTO struct {
	ID        string          `json:"id"`
	StartDate string          `json:"start_date"`
	EndDate   string          `json:"end_date"`
	Reason    string          `json:"reason,omitempty"`
	DayCount  decimal.Decimal `json:"day_count"`
	Status    string          `json:"status"`
}

type LeaveSummaryDTO struct {
	PeriodKind   string          `json:"period_kind"`
	PeriodStart  string          `json:"period_start"`
	PeriodEnd    string          `json:"period_end"`
	DaysInPeriod int             `json:"days_in_period"`
	DaysTaken    decimal.Decimal `json:"days_taken"`
	PaidDays     decimal.Decimal `json:"paid_days"`
	UnpaidDays   decimal.Decimal `json:"unpaid_days"`
	Allotment    decimal.Decimal `json:"allotment"`
	DaysLeft     decimal.Decimal `json:"days_left"`
}

type ClassificationDTO struct {
	StartDate string          `json:"start_date"`
	EndDate   string          `json:"end_date"`
	DayCount  decimal.Decimal `json:"day_count"`
	Status    string          `json:"status"`
}

type SnapshotDTO struct {
	ID      string          `json:"id"`
	TakenAt string          `json:"taken_at"`
	Summary LeaveSummaryDTO `json:"summary"`
}

type DaysInPeriodDTO struct {
	PeriodKind  string `json:"period_kind"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	Days        int    `json:"days"`
}

type PayoutDTO struct {
	Salary     decimal.Decimal `json:"salary"`
	Days       decimal.Decimal `json:"days"`
	Year       int             `json:"year"`
	DaysInYear int             `json:"days_in_year"`
	Payout     decimal.Decimal `json:"payout"`
}

// =============================================================================
// TAX
// =============================================================================

type TaxDTO struct {
	Salary     decimal.Decimal `json:"salary"`
	Deductions decimal.Decimal `json:"deductions"`
	Rebate     decimal.Decimal `json:"rebate"`
	Taxable    decimal.Decimal `json:"taxable"`
	Tax        decimal.Decimal `json:"tax"`
}

type UIFDTO struct {
	Salary decimal.Decimal `json:"salary"`
	UIF    decimal.Decimal `json:"uif"`
}

// =============================================================================
// SCENARIOS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id"`
}

// =============================================================================
// ERRORS
// =============================================================================

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Details string            `json:"details,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toEmployeeDTO(e payroll.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:          e.ID,
		Name:        e.Name,
		Surname:     e.Surname,
		Email:       e.Email,
		Address:     e.Address,
		Company:     e.Company,
		CompanyTerm: e.CompanyTerm,
		Role:        e.Role,
		Location:    e.Location,
		Salary:      e.Salary,
		StartDate:   e.StartDate.String(),
		EndDate:     e.EndDate.String(),
		Status:      e.Status,
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   e.UpdatedAt.Format(time.RFC3339),
	}
}

func toPayPersonDTO(v payroll.PayPersonView) PayPersonDTO {
	p := v.Person
	entries := make([]LeaveEntryDTO, 0, len(p.Leave))
	for _, e := range p.Leave {
		c := v.Classification[e.ID]
		entries = append(entries, LeaveEntryDTO{
			ID:        e.ID,
			StartDate: e.Interval.Start.String(),
			EndDate:   e.Interval.End.String(),
			Reason:    e.Reason,
			DayCount:  c.DayCount,
			Status:    string(c.Status),
		})
	}

	return PayPersonDTO{
		ID:           p.ID,
		EmployeeID:   p.EmployeeID,
		Name:         p.Name,
		Surname:      p.Surname,
		Company:      p.Company,
		Salary:       p.Salary,
		Deductions:   p.Deductions,
		Rebate:       p.Rebate,
		Pay:          toPayDTO(v.Pay),
		LeaveStatus:  string(v.LeaveStatus.Status),
		LeaveDays:    v.LeaveStatus.DayCount,
		Leave:        entries,
		CurrentMonth: toLeaveSummaryDTO(v.CurrentMonth),
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:    p.UpdatedAt.Format(time.RFC3339),
	}
}

func toPayDTO(p payroll.Pay) PayDTO {
	return PayDTO{
		AnnualGross:  p.AnnualGross,
		Tax:          p.Tax,
		AnnualNet:    p.AnnualNet,
		MonthlyGross: p.MonthlyGross,
		MonthlyNet:   p.MonthlyNet,
		UIF:          p.UIF,
	}
}

func toLeaveSummaryDTO(s leave.Summary) LeaveSummaryDTO {
	return LeaveSummaryDTO{
		PeriodKind:   string(s.Period.Kind),
		PeriodStart:  s.Period.Start.String(),
		PeriodEnd:    s.Period.End.String(),
		DaysInPeriod: s.DaysInPeriod,
		DaysTaken:    s.DaysTaken,
		PaidDays:     s.PaidDays,
		UnpaidDays:   s.UnpaidDays,
		Allotment:    s.Allotment,
		DaysLeft:     s.DaysLeft,
	}
}

func toSnapshotDTO(s payroll.LeaveSnapshot) SnapshotDTO {
	return SnapshotDTO{
		ID:      s.ID,
		TakenAt: s.TakenAt.Format(time.RFC3339),
		Summary: toLeaveSummaryDTO(s.Summary),
	}
}
