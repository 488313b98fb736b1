/*
service.go - Payroll operations over a Store

PURPOSE:
  The single entry point for handlers and background jobs. It validates
  forms, writes inputs through the Store and derives pay figures and leave
  status on every read through the leave.Accountant.

LINKED RECORDS:
  A pay person may point at the employee it was migrated from. Editing
  either side copies name, surname, company and salary across. Deleting a
  pay person deletes its employee; deleting an employee only unlinks the
  pay person so payroll history survives.

LEAVE ON THE PAY PERSON FORM:
  The pay person form carries one optional leave range. It edits the
  latest leave entry, or creates the first one. Further ranges are added
  through AddLeave.

SEE ALSO:
  - store.go: persistence contract
  - tax.go: pay figures
  - leave/accountant.go: leave figures
*/
package payroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/warp/payroll-leave/leave"
)

type Service struct {
	store      Store
	accountant *leave.Accountant
	logger     *zap.Logger

	// Now and NewID are replaceable in tests.
	Now   func() time.Time
	NewID func() string
}

func NewService(store Store, accountant *leave.Accountant, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:      store,
		accountant: accountant,
		logger:     logger,
		Now:        time.Now,
		NewID:      func() string { return uuid.New().String() },
	}
}

func (s *Service) Accountant() *leave.Accountant { return s.accountant }

// Store exposes the underlying store for scenario seeding.
func (s *Service) Store() Store { return s.store }

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Service) CreateEmployee(ctx context.Context, f EmployeeForm) (Employee, error) {
	if err := ValidateEmployee(f).toError(); err != nil {
		return Employee{}, err
	}

	now := s.Now().UTC()
	e := Employee{ID: s.NewID(), CreatedAt: now, UpdatedAt: now}
	applyEmployeeForm(&e, f)

	if err := s.store.CreateEmployee(ctx, e); err != nil {
		return Employee{}, fmt.Errorf("creating employee: %w", err)
	}
	s.logger.Info("employee created", zap.String("employee_id", e.ID))
	return e, nil
}

func (s *Service) GetEmployee(ctx context.Context, id string) (Employee, error) {
	return s.store.GetEmployee(ctx, id)
}

func (s *Service) ListEmployees(ctx context.Context) ([]Employee, error) {
	return s.store.ListEmployees(ctx)
}

// UpdateEmployee applies a partial update: blank strings and a zero salary
// keep the stored value.
func (s *Service) UpdateEmployee(ctx context.Context, id string, f EmployeeForm) (Employee, error) {
	e, err := s.store.GetEmployee(ctx, id)
	if err != nil {
		return Employee{}, err
	}

	merged := employeeForm(e)
	overlay(&merged.Name, f.Name)
	overlay(&merged.Surname, f.Surname)
	overlay(&merged.Email, f.Email)
	overlay(&merged.Address, f.Address)
	overlay(&merged.Company, f.Company)
	overlay(&merged.CompanyTerm, f.CompanyTerm)
	overlay(&merged.Role, f.Role)
	overlay(&merged.Location, f.Location)
	overlay(&merged.StartDate, f.StartDate)
	overlay(&merged.EndDate, f.EndDate)
	overlay(&merged.Status, f.Status)
	if !f.Salary.IsZero() {
		merged.Salary = f.Salary
	}

	if err := ValidateEmployee(merged).toError(); err != nil {
		return Employee{}, err
	}

	applyEmployeeForm(&e, merged)
	e.UpdatedAt = s.Now().UTC()
	if err := s.store.UpdateEmployee(ctx, e); err != nil {
		return Employee{}, fmt.Errorf("updating employee %s: %w", id, err)
	}

	if err := s.syncFromEmployee(ctx, e); err != nil {
		return Employee{}, err
	}
	return e, nil
}

func (s *Service) DeleteEmployee(ctx context.Context, id string) error {
	if _, err := s.store.GetEmployee(ctx, id); err != nil {
		return err
	}

	p, err := s.store.GetPayPersonByEmployee(ctx, id)
	switch {
	case err == nil:
		p.EmployeeID = ""
		p.UpdatedAt = s.Now().UTC()
		if err := s.store.UpdatePayPerson(ctx, p); err != nil {
			return fmt.Errorf("unlinking pay person %s: %w", p.ID, err)
		}
	case !errors.Is(err, ErrNotFound):
		return err
	}

	if err := s.store.DeleteEmployee(ctx, id); err != nil {
		return fmt.Errorf("deleting employee %s: %w", id, err)
	}
	s.logger.Info("employee deleted", zap.String("employee_id", id))
	return nil
}

// syncFromEmployee copies the shared fields onto the linked pay person.
func (s *Service) syncFromEmployee(ctx context.Context, e Employee) error {
	p, err := s.store.GetPayPersonByEmployee(ctx, e.ID)
	if errors.Is(err, ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !copyEmployeeFields(&p, e) {
		return nil
	}
	p.UpdatedAt = s.Now().UTC()
	if err := s.store.UpdatePayPerson(ctx, p); err != nil {
		return fmt.Errorf("syncing pay person %s: %w", p.ID, err)
	}
	return nil
}

// =============================================================================
// PAY PERSONS
// =============================================================================

func (s *Service) CreatePayPerson(ctx context.Context, f PayPersonForm) (PayPerson, error) {
	if err := ValidatePayPerson(f).toError(); err != nil {
		return PayPerson{}, err
	}

	now := s.Now().UTC()
	p := PayPerson{ID: s.NewID(), CreatedAt: now, UpdatedAt: now}
	applyPayPersonForm(&p, f)

	if err := s.store.CreatePayPerson(ctx, p); err != nil {
		return PayPerson{}, fmt.Errorf("creating pay person: %w", err)
	}
	if err := s.writeFormLeave(ctx, &p, f); err != nil {
		// Undo the create; the pay person must not exist without its leave.
		if delErr := s.store.DeletePayPerson(ctx, p.ID); delErr != nil {
			s.logger.Error("pay person rollback failed", zap.String("pay_person_id", p.ID), zap.Error(delErr))
			return PayPerson{}, errors.Join(err, delErr)
		}
		return PayPerson{}, err
	}
	s.logger.Info("pay person created", zap.String("pay_person_id", p.ID))
	return s.store.GetPayPerson(ctx, p.ID)
}

func (s *Service) GetPayPerson(ctx context.Context, id string) (PayPerson, error) {
	return s.store.GetPayPerson(ctx, id)
}

func (s *Service) ListPayPersons(ctx context.Context) ([]PayPerson, error) {
	return s.store.ListPayPersons(ctx)
}

// UpdatePayPerson replaces every pay field with the form's values.
func (s *Service) UpdatePayPerson(ctx context.Context, id string, f PayPersonForm) (PayPerson, error) {
	p, err := s.store.GetPayPerson(ctx, id)
	if err != nil {
		return PayPerson{}, err
	}
	if err := ValidatePayPerson(f).toError(); err != nil {
		return PayPerson{}, err
	}

	applyPayPersonForm(&p, f)
	p.UpdatedAt = s.Now().UTC()
	if err := s.store.UpdatePayPerson(ctx, p); err != nil {
		return PayPerson{}, fmt.Errorf("updating pay person %s: %w", id, err)
	}
	if err := s.writeFormLeave(ctx, &p, f); err != nil {
		return PayPerson{}, err
	}

	if p.EmployeeID != "" {
		if err := s.syncToEmployee(ctx, p); err != nil {
			return PayPerson{}, err
		}
	}
	return s.store.GetPayPerson(ctx, id)
}

// DeletePayPerson removes the pay person and its linked employee.
func (s *Service) DeletePayPerson(ctx context.Context, id string) error {
	p, err := s.store.GetPayPerson(ctx, id)
	if err != nil {
		return err
	}
	if err := s.store.DeletePayPerson(ctx, id); err != nil {
		return fmt.Errorf("deleting pay person %s: %w", id, err)
	}
	if p.EmployeeID != "" {
		err := s.store.DeleteEmployee(ctx, p.EmployeeID)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return fmt.Errorf("deleting employee %s: %w", p.EmployeeID, err)
		}
	}
	s.logger.Info("pay person deleted",
		zap.String("pay_person_id", id),
		zap.String("employee_id", p.EmployeeID))
	return nil
}

func (s *Service) syncToEmployee(ctx context.Context, p PayPerson) error {
	e, err := s.store.GetEmployee(ctx, p.EmployeeID)
	if errors.Is(err, ErrNotFound) {
		s.logger.Warn("linked employee missing", zap.String("pay_person_id", p.ID), zap.String("employee_id", p.EmployeeID))
		return nil
	}
	if err != nil {
		return err
	}
	e.Name, e.Surname, e.Company, e.Salary = p.Name, p.Surname, p.Company, p.Salary
	e.UpdatedAt = s.Now().UTC()
	if err := s.store.UpdateEmployee(ctx, e); err != nil {
		return fmt.Errorf("syncing employee %s: %w", e.ID, err)
	}
	return nil
}

// writeFormLeave stores the form's leave range on the latest entry. A form
// with both dates blank leaves the entries alone.
func (s *Service) writeFormLeave(ctx context.Context, p *PayPerson, f PayPersonForm) error {
	iv, err := leave.NewInterval(f.LeaveStartDate, f.LeaveEndDate)
	if err != nil {
		return err
	}
	if iv.Start.IsZero() && iv.End.IsZero() {
		return nil
	}

	if latest := p.LatestLeave(); latest != nil {
		entry := *latest
		entry.Interval = iv
		if err := s.store.UpdateLeave(ctx, entry); err != nil {
			return fmt.Errorf("updating leave %s: %w", entry.ID, err)
		}
		return nil
	}

	entry := LeaveEntry{ID: s.NewID(), PayPersonID: p.ID, Interval: iv, CreatedAt: s.Now().UTC()}
	if err := s.store.AddLeave(ctx, entry); err != nil {
		return fmt.Errorf("adding leave: %w", err)
	}
	return nil
}

// =============================================================================
// MIGRATION - Employees onto payroll
// =============================================================================

// MigrateResult counts what Migrate did.
type MigrateResult struct {
	Created int
	Synced  int
}

// Migrate makes sure every employee has exactly one pay person, creating
// missing ones and refreshing the shared fields of existing ones.
func (s *Service) Migrate(ctx context.Context) (MigrateResult, error) {
	var res MigrateResult

	employees, err := s.store.ListEmployees(ctx)
	if err != nil {
		return res, err
	}

	for _, e := range employees {
		p, err := s.store.GetPayPersonByEmployee(ctx, e.ID)
		switch {
		case errors.Is(err, ErrNotFound):
			now := s.Now().UTC()
			p = PayPerson{ID: s.NewID(), EmployeeID: e.ID, CreatedAt: now, UpdatedAt: now}
			copyEmployeeFields(&p, e)
			if err := s.store.CreatePayPerson(ctx, p); err != nil {
				return res, fmt.Errorf("migrating employee %s: %w", e.ID, err)
			}
			res.Created++
		case err != nil:
			return res, err
		default:
			if err := s.syncFromEmployee(ctx, e); err != nil {
				return res, err
			}
			res.Synced++
		}
	}

	s.logger.Info("employees migrated to payroll",
		zap.Int("created", res.Created),
		zap.Int("synced", res.Synced))
	return res, nil
}

// =============================================================================
// LEAVE
// =============================================================================

func (s *Service) AddLeave(ctx context.Context, payPersonID string, f LeaveForm) (LeaveEntry, error) {
	if _, err := s.store.GetPayPerson(ctx, payPersonID); err != nil {
		return LeaveEntry{}, err
	}
	if err := ValidateLeave(f).toError(); err != nil {
		return LeaveEntry{}, err
	}
	iv, err := leave.NewInterval(f.StartDate, f.EndDate)
	if err != nil {
		return LeaveEntry{}, err
	}

	c, err := s.accountant.Classify(iv)
	if err != nil {
		return LeaveEntry{}, err
	}

	entry := LeaveEntry{
		ID:          s.NewID(),
		PayPersonID: payPersonID,
		Interval:    iv,
		Reason:      f.Reason,
		CreatedAt:   s.Now().UTC(),
	}
	if err := s.store.AddLeave(ctx, entry); err != nil {
		return LeaveEntry{}, fmt.Errorf("adding leave: %w", err)
	}

	s.logger.Info("leave added",
		zap.String("pay_person_id", payPersonID),
		zap.String("interval", iv.String()),
		zap.String("status", string(c.Status)))
	return entry, nil
}

func (s *Service) RemoveLeave(ctx context.Context, payPersonID, leaveID string) error {
	if err := s.store.DeleteLeave(ctx, payPersonID, leaveID); err != nil {
		return err
	}
	s.logger.Info("leave removed", zap.String("pay_person_id", payPersonID), zap.String("leave_id", leaveID))
	return nil
}

// LeaveSummary computes the leave figures of a pay person for a period.
func (s *Service) LeaveSummary(ctx context.Context, id string, period leave.Period) (leave.Summary, error) {
	p, err := s.store.GetPayPerson(ctx, id)
	if err != nil {
		return leave.Summary{}, err
	}
	return s.accountant.Summarize(p.LeaveRecord(), period)
}

// UnpaidLeave returns the unpaid days falling in the period.
func (s *Service) UnpaidLeave(ctx context.Context, id string, period leave.Period) (decimal.Decimal, error) {
	sum, err := s.LeaveSummary(ctx, id, period)
	if err != nil {
		return decimal.Zero, err
	}
	return sum.UnpaidDays, nil
}

// =============================================================================
// VIEWS
// =============================================================================

// View derives pay and leave figures for one pay person. The current month
// is taken from Now.
func (s *Service) View(ctx context.Context, id string) (PayPersonView, error) {
	p, err := s.store.GetPayPerson(ctx, id)
	if err != nil {
		return PayPersonView{}, err
	}
	return s.view(p)
}

func (s *Service) Views(ctx context.Context) ([]PayPersonView, error) {
	persons, err := s.store.ListPayPersons(ctx)
	if err != nil {
		return nil, err
	}
	views := make([]PayPersonView, 0, len(persons))
	for _, p := range persons {
		v, err := s.view(p)
		if err != nil {
			return nil, err
		}
		views = append(views, v)
	}
	return views, nil
}

func (s *Service) view(p PayPerson) (PayPersonView, error) {
	v := PayPersonView{
		Person:         p,
		Pay:            CalculatePay(p),
		Classification: make(map[string]leave.Classification, len(p.Leave)),
	}

	for _, e := range p.Leave {
		c, err := s.accountant.Classify(e.Interval)
		if err != nil {
			return PayPersonView{}, fmt.Errorf("pay person %s leave %s: %w", p.ID, e.ID, err)
		}
		v.Classification[e.ID] = c
	}
	if latest := p.LatestLeave(); latest != nil {
		v.LeaveStatus = v.Classification[latest.ID]
	}

	today := leave.DateOf(s.Now())
	month, err := s.accountant.Summarize(p.LeaveRecord(), leave.MonthPeriod(today.Year(), today.Month()))
	if err != nil {
		return PayPersonView{}, err
	}
	v.CurrentMonth = month
	return v, nil
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

func (s *Service) Snapshots(ctx context.Context, id string) ([]LeaveSnapshot, error) {
	if _, err := s.store.GetPayPerson(ctx, id); err != nil {
		return nil, err
	}
	return s.store.ListSnapshots(ctx, id)
}

// SnapshotPeriod stores the period's summary for every pay person that does
// not have one yet, and returns how many were written.
func (s *Service) SnapshotPeriod(ctx context.Context, period leave.Period) (int, error) {
	persons, err := s.store.ListPayPersons(ctx)
	if err != nil {
		return 0, err
	}

	written := 0
	for _, p := range persons {
		exists, err := s.store.HasSnapshot(ctx, p.ID, period)
		if err != nil {
			return written, err
		}
		if exists {
			continue
		}

		sum, err := s.accountant.Summarize(p.LeaveRecord(), period)
		if err != nil {
			s.logger.Error("leave summary failed", zap.String("pay_person_id", p.ID), zap.Error(err))
			continue
		}
		snap := LeaveSnapshot{ID: s.NewID(), PayPersonID: p.ID, Summary: sum, TakenAt: s.Now().UTC()}
		if err := s.store.SaveSnapshot(ctx, snap); err != nil {
			if errors.Is(err, ErrDuplicateSnapshot) {
				continue
			}
			return written, fmt.Errorf("saving snapshot for %s: %w", p.ID, err)
		}
		written++
	}
	return written, nil
}

// =============================================================================
// FORM MAPPING
// =============================================================================

func applyEmployeeForm(e *Employee, f EmployeeForm) {
	e.Name = f.Name
	e.Surname = f.Surname
	e.Email = f.Email
	e.Address = f.Address
	e.Company = f.Company
	e.CompanyTerm = f.CompanyTerm
	e.Role = f.Role
	e.Location = f.Location
	e.Salary = f.Salary
	e.StartDate, _ = leave.ParseDate(f.StartDate)
	e.EndDate, _ = leave.ParseDate(f.EndDate)
	e.Status = f.Status
}

func employeeForm(e Employee) EmployeeForm {
	return EmployeeForm{
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
	}
}

func applyPayPersonForm(p *PayPerson, f PayPersonForm) {
	p.Name = f.Name
	p.Surname = f.Surname
	p.Company = f.Company
	p.Salary = f.Salary
	p.Deductions = f.Deductions
	p.Rebate = f.Rebate
}

// copyEmployeeFields reports whether anything changed.
func copyEmployeeFields(p *PayPerson, e Employee) bool {
	changed := p.Name != e.Name || p.Surname != e.Surname ||
		p.Company != e.Company || !p.Salary.Equal(e.Salary)
	p.Name, p.Surname, p.Company, p.Salary = e.Name, e.Surname, e.Company, e.Salary
	return changed
}

func overlay(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
