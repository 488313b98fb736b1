/*
scenarios.go - Demo data loaders for testing and demonstrations

PURPOSE:
	Provides pre-built scenarios that populate the store with realistic
	payroll data. Each scenario shows one leave accounting behavior.

AVAILABLE SCENARIOS:

	paid-leave:         Single day off, within the 1.5 day threshold
	unpaid-leave:       Two consecutive days, over the threshold
	pending-leave:      Start date chosen, end date still open
	month-boundary:     Leave spanning two months, split per month
	employee-migration: HR employees moved onto payroll

HOW SCENARIOS WORK:
 1. Reset the store (clear all data)
 2. Create pay persons or employees through the payroll service
 3. Add leave relative to the current month

Dates are relative to the service clock, so the current-month figures on
the payroll screen always show the scenario.

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "unpaid-leave"}

NOTE:

	Scenarios reset the store. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: payroll endpoints that display the loaded data
*/
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/payroll-leave/leave"
	"github.com/warp/payroll-leave/payroll"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "paid-leave",
		Name:        "Paid Leave",
		Description: "One day off this month, within the paid threshold",
	},
	{
		ID:          "unpaid-leave",
		Name:        "Unpaid Leave",
		Description: "Two consecutive days off, classified as unpaid",
	},
	{
		ID:          "pending-leave",
		Name:        "Pending Leave",
		Description: "Leave with a start date only, shown with an empty status",
	},
	{
		ID:          "month-boundary",
		Name:        "Month Boundary",
		Description: "Leave from the last day of last month into this month",
	},
	{
		ID:          "employee-migration",
		Name:        "Employee Migration",
		Description: "Three HR employees migrated onto payroll",
	},
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the store and loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.loadScenario(r.Context(), req.ScenarioID); err != nil {
		if errors.Is(err, errUnknownScenario) {
			writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
			return
		}
		h.Logger.Error("scenario load failed", zap.String("scenario", req.ScenarioID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Service.Store().Reset(r.Context()); err != nil {
		h.writeServiceError(w, "Failed to reset database", err)
		return
	}
	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	h.Logger.Info("store reset")
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

var errUnknownScenario = errors.New("unknown scenario")

func (h *Handler) loadScenario(ctx context.Context, id string) error {
	var load func(context.Context) error
	switch id {
	case "paid-leave":
		load = h.loadPaidLeaveScenario
	case "unpaid-leave":
		load = h.loadUnpaidLeaveScenario
	case "pending-leave":
		load = h.loadPendingLeaveScenario
	case "month-boundary":
		load = h.loadMonthBoundaryScenario
	case "employee-migration":
		load = h.loadEmployeeMigrationScenario
	default:
		return errUnknownScenario
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Service.Store().Reset(ctx); err != nil {
		return fmt.Errorf("resetting store: %w", err)
	}
	h.currentScenario = ""

	if err := load(ctx); err != nil {
		return err
	}

	h.currentScenario = id
	h.Logger.Info("scenario loaded", zap.String("scenario", id))
	return nil
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

// thisMonth returns day n of the current month.
func (h *Handler) thisMonth(n int) string {
	today := leave.DateOf(h.Service.Now())
	return leave.StartOfMonth(today.Year(), today.Month()).AddDays(n - 1).String()
}

func (h *Handler) createPerson(ctx context.Context, name, surname, salary, start, end string) (payroll.PayPerson, error) {
	return h.Service.CreatePayPerson(ctx, payroll.PayPersonForm{
		Name:           name,
		Surname:        surname,
		Company:        "Warp Demo",
		Salary:         decimal.RequireFromString(salary),
		LeaveStartDate: start,
		LeaveEndDate:   end,
	})
}

func (h *Handler) loadPaidLeaveScenario(ctx context.Context) error {
	_, err := h.createPerson(ctx, "Thandi", "Mokoena", "300000", h.thisMonth(2), h.thisMonth(2))
	return err
}

func (h *Handler) loadUnpaidLeaveScenario(ctx context.Context) error {
	p, err := h.createPerson(ctx, "Sipho", "Dlamini", "420000", h.thisMonth(2), h.thisMonth(2))
	if err != nil {
		return err
	}
	_, err = h.Service.AddLeave(ctx, p.ID, payroll.LeaveForm{
		StartDate: h.thisMonth(9),
		EndDate:   h.thisMonth(10),
		Reason:    "family responsibility",
	})
	return err
}

func (h *Handler) loadPendingLeaveScenario(ctx context.Context) error {
	_, err := h.createPerson(ctx, "Lerato", "Nkosi", "250000", h.thisMonth(15), "")
	return err
}

func (h *Handler) loadMonthBoundaryScenario(ctx context.Context) error {
	today := leave.DateOf(h.Service.Now())
	first := leave.StartOfMonth(today.Year(), today.Month())
	_, err := h.createPerson(ctx, "Pieter", "van Wyk", "510000",
		first.AddDays(-1).String(), first.String())
	return err
}

func (h *Handler) loadEmployeeMigrationScenario(ctx context.Context) error {
	employees := []payroll.EmployeeForm{
		{Name: "Ayanda", Surname: "Zulu", Email: "ayanda@warp.demo", Company: "Warp Demo", Role: "Engineer", Salary: decimal.NewFromInt(480000)},
		{Name: "Karin", Surname: "Botha", Email: "karin@warp.demo", Company: "Warp Demo", Role: "Designer", Salary: decimal.NewFromInt(360000)},
		{Name: "Musa", Surname: "Khumalo", Email: "musa@warp.demo", Company: "Warp Demo", Role: "Support", Salary: decimal.NewFromInt(220000)},
	}
	for _, f := range employees {
		f.StartDate = h.thisMonth(1)
		if _, err := h.Service.CreateEmployee(ctx, f); err != nil {
			return err
		}
	}
	_, err := h.Service.Migrate(ctx)
	return err
}
