/*
handlers.go - HTTP API handlers for payroll and leave accounting

PURPOSE:
  Exposes the payroll service and the leave accountant via REST API.
  Handles HTTP request/response and JSON serialization, and delegates
  everything else to the payroll and leave packages.

ENDPOINTS:
  Employees:
    GET    /api/employees              List employees
    POST   /api/employees              Create employee
    GET    /api/employees/{id}         Get employee
    PUT    /api/employees/{id}         Partial update
    DELETE /api/employees/{id}         Delete (unlinks pay person)

  Payroll:
    GET    /api/payroll                List pay persons with derived pay
    POST   /api/payroll                Create pay person
    POST   /api/payroll/migrate        Create/sync pay persons from employees
    GET    /api/payroll/{id}           Get pay person
    PUT    /api/payroll/{id}           Replace pay person
    DELETE /api/payroll/{id}           Delete pay person and its employee
    GET    /api/payroll/{id}/leave     Leave summary (?year=&month=)
    POST   /api/payroll/{id}/leave     Add leave interval
    DELETE /api/payroll/{id}/leave/{leaveID}
    GET    /api/payroll/{id}/snapshots Month-end leave snapshots
    GET    /api/payroll/{id}/gross-salary
    GET    /api/payroll/{id}/net-salary
    GET    /api/payroll/{id}/unpaid-leave

  Leave and tax calculators:
    GET    /api/leave/policy
    GET    /api/leave/classify?start=&end=
    GET    /api/leave/days-in-period?year=&month=
    GET    /api/leave/payout?salary=&days=&year=
    GET    /api/tax?salary=&deductions=&rebate=
    GET    /api/tax/uif?salary=

PERIOD PARAMETERS:
  No year or month: the current month.
  year only:        the calendar year.
  year and month:   that month. month alone uses the current year.

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, with per-field messages in "fields"
  - 404: Resource not found
  - 500: Internal errors (logged)

SEE ALSO:
  - dto.go: Request/response data structures
  - scenarios.go: Demo data loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/payroll-leave/factory"
	"github.com/warp/payroll-leave/leave"
	"github.com/warp/payroll-leave/payroll"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Pinger is implemented by stores that can report their health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *payroll.Service
	Logger  *zap.Logger
	DB      Pinger // optional, checked by Health

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler around the payroll service.
func NewHandler(svc *payroll.Service, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Service: svc, Logger: logger}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if h.DB != nil {
		if err := h.DB.Ping(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// EMPLOYEE ENDPOINTS
// =============================================================================

func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Service.ListEmployees(r.Context())
	if err != nil {
		h.writeServiceError(w, "Failed to list employees", err)
		return
	}
	dtos := make([]EmployeeDTO, 0, len(employees))
	for _, e := range employees {
		dtos = append(dtos, toEmployeeDTO(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	e, err := h.Service.GetEmployee(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(e))
}

func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	e, err := h.Service.CreateEmployee(r.Context(), req.form())
	if err != nil {
		h.writeServiceError(w, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(e))
}

// UpdateEmployee applies a partial update; omitted fields are kept.
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	e, err := h.Service.UpdateEmployee(r.Context(), chi.URLParam(r, "id"), req.form())
	if err != nil {
		h.writeServiceError(w, "Failed to update employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(e))
}

func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeleteEmployee(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, "Failed to delete employee", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// PAYROLL ENDPOINTS
// =============================================================================

func (h *Handler) ListPayPersons(w http.ResponseWriter, r *http.Request) {
	views, err := h.Service.Views(r.Context())
	if err != nil {
		h.writeServiceError(w, "Failed to list payroll", err)
		return
	}
	dtos := make([]PayPersonDTO, 0, len(views))
	for _, v := range views {
		dtos = append(dtos, toPayPersonDTO(v))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetPayPerson(w http.ResponseWriter, r *http.Request) {
	h.writeView(w, r, chi.URLParam(r, "id"), http.StatusOK)
}

func (h *Handler) CreatePayPerson(w http.ResponseWriter, r *http.Request) {
	var req PayPersonRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := h.Service.CreatePayPerson(r.Context(), req.form())
	if err != nil {
		h.writeServiceError(w, "Failed to create pay person", err)
		return
	}
	h.writeView(w, r, p.ID, http.StatusCreated)
}

// UpdatePayPerson replaces every pay field.
func (h *Handler) UpdatePayPerson(w http.ResponseWriter, r *http.Request) {
	var req PayPersonRequest
	if !decodeBody(w, r, &req) {
		return
	}
	p, err := h.Service.UpdatePayPerson(r.Context(), chi.URLParam(r, "id"), req.form())
	if err != nil {
		h.writeServiceError(w, "Failed to update pay person", err)
		return
	}
	h.writeView(w, r, p.ID, http.StatusOK)
}

func (h *Handler) DeletePayPerson(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.DeletePayPerson(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.writeServiceError(w, "Failed to delete pay person", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) MigrateEmployees(w http.ResponseWriter, r *http.Request) {
	res, err := h.Service.Migrate(r.Context())
	if err != nil {
		h.writeServiceError(w, "Failed to migrate employees", err)
		return
	}
	writeJSON(w, http.StatusOK, MigrateResponse{Created: res.Created, Synced: res.Synced})
}

func (h *Handler) GrossSalary(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.GetPayPerson(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, "Failed to get pay person", err)
		return
	}
	pay := payroll.CalculatePay(p)
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{
		"annual_gross":  pay.AnnualGross,
		"monthly_gross": pay.MonthlyGross,
	})
}

func (h *Handler) NetSalary(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.GetPayPerson(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, "Failed to get pay person", err)
		return
	}
	pay := payroll.CalculatePay(p)
	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{
		"tax":         pay.Tax,
		"annual_net":  pay.AnnualNet,
		"monthly_net": pay.MonthlyNet,
		"uif":         pay.UIF,
	})
}

func (h *Handler) writeView(w http.ResponseWriter, r *http.Request, id string, status int) {
	v, err := h.Service.View(r.Context(), id)
	if err != nil {
		h.writeServiceError(w, "Failed to get pay person", err)
		return
	}
	writeJSON(w, status, toPayPersonDTO(v))
}

// =============================================================================
// LEAVE ENDPOINTS
// =============================================================================

func (h *Handler) GetLeaveSummary(w http.ResponseWriter, r *http.Request) {
	period, ok := h.periodFromQuery(w, r)
	if !ok {
		return
	}
	sum, err := h.Service.LeaveSummary(r.Context(), chi.URLParam(r, "id"), period)
	if err != nil {
		h.writeServiceError(w, "Failed to compute leave summary", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveSummaryDTO(sum))
}

func (h *Handler) UnpaidLeave(w http.ResponseWriter, r *http.Request) {
	period, ok := h.periodFromQuery(w, r)
	if !ok {
		return
	}
	days, err := h.Service.UnpaidLeave(r.Context(), chi.URLParam(r, "id"), period)
	if err != nil {
		h.writeServiceError(w, "Failed to compute unpaid leave", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"period_start": period.Start.String(),
		"period_end":   period.End.String(),
		"unpaid_days":  days,
	})
}

func (h *Handler) AddLeave(w http.ResponseWriter, r *http.Request) {
	var req LeaveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	entry, err := h.Service.AddLeave(r.Context(), chi.URLParam(r, "id"), payroll.LeaveForm{
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		Reason:    req.Reason,
	})
	if err != nil {
		h.writeServiceError(w, "Failed to add leave", err)
		return
	}

	c, err := h.Service.Accountant().Classify(entry.Interval)
	if err != nil {
		h.writeServiceError(w, "Failed to classify leave", err)
		return
	}
	writeJSON(w, http.StatusCreated, LeaveEntryDTO{
		ID:        entry.ID,
		StartDate: entry.Interval.Start.String(),
		EndDate:   entry.Interval.End.String(),
		Reason:    entry.Reason,
		DayCount:  c.DayCount,
		Status:    string(c.Status),
	})
}

func (h *Handler) RemoveLeave(w http.ResponseWriter, r *http.Request) {
	err := h.Service.RemoveLeave(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "leaveID"))
	if err != nil {
		h.writeServiceError(w, "Failed to remove leave", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.Service.Snapshots(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, "Failed to list snapshots", err)
		return
	}
	dtos := make([]SnapshotDTO, 0, len(snaps))
	for _, s := range snaps {
		dtos = append(dtos, toSnapshotDTO(s))
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetPolicy(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, factory.ToJSON(h.Service.Accountant().Policy()))
}

// Classify classifies an ad-hoc range. A missing date is not an error: the
// response carries an empty status.
func (h *Handler) Classify(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	fields := map[string]string{}

	start, err := leave.ParseDate(q.Get("start"))
	if err != nil {
		fields["start"] = err.Error()
	}
	end, err := leave.ParseDate(q.Get("end"))
	if err != nil {
		fields["end"] = err.Error()
	}
	if len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}

	iv := leave.Interval{Start: start, End: end}
	c, err := h.Service.Accountant().Classify(iv)
	if err != nil {
		if errors.Is(err, leave.ErrInvalidRange) {
			writeFieldErrors(w, map[string]string{"end": err.Error()})
			return
		}
		h.writeServiceError(w, "Failed to classify leave", err)
		return
	}

	writeJSON(w, http.StatusOK, ClassificationDTO{
		StartDate: start.String(),
		EndDate:   end.String(),
		DayCount:  c.DayCount,
		Status:    string(c.Status),
	})
}

func (h *Handler) DaysInPeriod(w http.ResponseWriter, r *http.Request) {
	period, ok := h.periodFromQuery(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, DaysInPeriodDTO{
		PeriodKind:  string(period.Kind),
		PeriodStart: period.Start.String(),
		PeriodEnd:   period.End.String(),
		Days:        leave.DaysInPeriod(period),
	})
}

func (h *Handler) LeavePayout(w http.ResponseWriter, r *http.Request) {
	fields := map[string]string{}
	salary := decimalParam(r, "salary", true, fields)
	days := decimalParam(r, "days", true, fields)
	year := intParam(r, "year", leave.DateOf(h.Service.Now()).Year(), fields)
	if len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}

	payout, err := payroll.LeavePayout(salary, days, year)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid payout request", err)
		return
	}
	writeJSON(w, http.StatusOK, PayoutDTO{
		Salary:     salary,
		Days:       days,
		Year:       year,
		DaysInYear: leave.DaysInPeriod(leave.YearPeriod(year)),
		Payout:     payout,
	})
}

// =============================================================================
// TAX ENDPOINTS
// =============================================================================

func (h *Handler) Tax(w http.ResponseWriter, r *http.Request) {
	fields := map[string]string{}
	salary := decimalParam(r, "salary", true, fields)
	deductions := decimalParam(r, "deductions", false, fields)
	rebate := decimalParam(r, "rebate", false, fields)
	if len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}

	taxable := salary.Sub(deductions)
	if taxable.IsNegative() {
		taxable = decimal.Zero
	}
	writeJSON(w, http.StatusOK, TaxDTO{
		Salary:     salary,
		Deductions: deductions,
		Rebate:     rebate,
		Taxable:    taxable,
		Tax:        payroll.CalculateTax(salary, deductions, rebate).Round(2),
	})
}

func (h *Handler) UIF(w http.ResponseWriter, r *http.Request) {
	fields := map[string]string{}
	salary := decimalParam(r, "salary", true, fields)
	if len(fields) > 0 {
		writeFieldErrors(w, fields)
		return
	}
	writeJSON(w, http.StatusOK, UIFDTO{Salary: salary, UIF: payroll.CalculateUIF(salary)})
}

// =============================================================================
// HELPERS
// =============================================================================

// periodFromQuery reads ?year=&month=, defaulting to the current month.
func (h *Handler) periodFromQuery(w http.ResponseWriter, r *http.Request) (leave.Period, bool) {
	q := r.URL.Query()
	today := leave.DateOf(h.Service.Now())
	fields := map[string]string{}

	year := intParam(r, "year", today.Year(), fields)
	month := intParam(r, "month", int(today.Month()), fields)
	if q.Get("year") != "" && q.Get("month") == "" {
		month = 0
	}
	if len(fields) > 0 {
		writeFieldErrors(w, fields)
		return leave.Period{}, false
	}

	period, err := leave.PeriodFor(year, month)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period", err)
		return leave.Period{}, false
	}
	return period, true
}

func decimalParam(r *http.Request, name string, required bool, fields map[string]string) decimal.Decimal {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		if required {
			fields[name] = name + " is required"
		}
		return decimal.Zero
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		fields[name] = fmt.Sprintf("%s must be a number, got %q", name, raw)
		return decimal.Zero
	}
	return d
}

func intParam(r *http.Request, name string, def int, fields map[string]string) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		fields[name] = fmt.Sprintf("%s must be an integer, got %q", name, raw)
		return def
	}
	return n
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	return true
}

// writeServiceError maps payroll and leave errors to HTTP statuses.
func (h *Handler) writeServiceError(w http.ResponseWriter, message string, err error) {
	if ve, ok := payroll.AsValidationError(err); ok {
		writeFieldErrors(w, ve.Fields)
		return
	}
	switch {
	case errors.Is(err, payroll.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found", err)
	case leave.IsInputError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		h.Logger.Error(message, zap.Error(err))
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeFieldErrors(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Validation failed", Fields: fields})
}
