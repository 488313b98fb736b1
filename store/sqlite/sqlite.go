/*
Package sqlite provides a SQLite-backed implementation of payroll.Store.

PURPOSE:
  Persists employees, pay persons, leave entries and leave snapshots.
  Only inputs are stored. Pay figures and leave status are derived by the
  payroll service on every read.

KEY TABLES:
  employees:       HR records
  pay_persons:     Payroll records, optionally linked to an employee
  leave_entries:   Leave intervals per pay person (no status column)
  leave_snapshots: Month-end leave figures, one per person and period

ENCODING:
  Decimals are stored as strings to keep exact values.
  Dates are YYYY-MM-DD; an unchosen date is the empty string.
  Timestamps are fixed-width RFC3339 with nanoseconds, UTC.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. SQLite is opened in WAL mode with
  foreign keys on, so deleting a pay person cascades to its leave.

USAGE:
  store, err := sqlite.New("./data/payroll.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := payroll.NewService(store, accountant, logger)

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - payroll/store.go: Interface definition
  - store/memory/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/payroll-leave/leave"
	"github.com/warp/payroll-leave/payroll"
)

// Store implements payroll.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

var _ payroll.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every connection would get its own empty database
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the connection, for health checks.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		surname TEXT NOT NULL,
		email TEXT NOT NULL,
		address TEXT NOT NULL DEFAULT '',
		company TEXT NOT NULL DEFAULT '',
		company_term TEXT NOT NULL DEFAULT '',
		role TEXT NOT NULL DEFAULT '',
		location TEXT NOT NULL DEFAULT '',
		salary TEXT NOT NULL DEFAULT '0',
		start_date TEXT NOT NULL DEFAULT '',
		end_date TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pay_persons (
		id TEXT PRIMARY KEY,
		employee_id TEXT REFERENCES employees(id) ON DELETE SET NULL,
		name TEXT NOT NULL,
		surname TEXT NOT NULL,
		company TEXT NOT NULL,
		salary TEXT NOT NULL,
		deductions TEXT NOT NULL DEFAULT '0',
		rebate TEXT NOT NULL DEFAULT '0',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- One pay person per employee
	CREATE UNIQUE INDEX IF NOT EXISTS idx_pay_persons_employee
		ON pay_persons(employee_id) WHERE employee_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS leave_entries (
		id TEXT PRIMARY KEY,
		pay_person_id TEXT NOT NULL REFERENCES pay_persons(id) ON DELETE CASCADE,
		start_date TEXT NOT NULL DEFAULT '',
		end_date TEXT NOT NULL DEFAULT '',
		reason TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_leave_entries_person_start
		ON leave_entries(pay_person_id, start_date);

	CREATE TABLE IF NOT EXISTS leave_snapshots (
		id TEXT PRIMARY KEY,
		pay_person_id TEXT NOT NULL REFERENCES pay_persons(id) ON DELETE CASCADE,
		period_kind TEXT NOT NULL,
		period_start TEXT NOT NULL,
		period_end TEXT NOT NULL,
		days_in_period INTEGER NOT NULL,
		days_taken TEXT NOT NULL,
		paid_days TEXT NOT NULL,
		unpaid_days TEXT NOT NULL,
		allotment TEXT NOT NULL,
		days_left TEXT NOT NULL,
		taken_at TEXT NOT NULL,
		UNIQUE(pay_person_id, period_start, period_end)
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// EMPLOYEES
// =============================================================================

const employeeColumns = `id, name, surname, email, address, company, company_term, role,
	location, salary, start_date, end_date, status, created_at, updated_at`

func (s *Store) CreateEmployee(ctx context.Context, e payroll.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO employees (`+employeeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.Surname, e.Email, e.Address, e.Company, e.CompanyTerm, e.Role,
		e.Location, e.Salary.String(), e.StartDate.String(), e.EndDate.String(), e.Status,
		formatTime(e.CreatedAt), formatTime(e.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert employee: %w", err)
	}
	return nil
}

// GetEmployee retrieves an employee by ID.
func (s *Store) GetEmployee(ctx context.Context, id string) (payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = ?`, id)
	e, err := scanEmployee(row)
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.Employee{}, payroll.NewNotFoundError("employee", id)
	}
	return e, err
}

// ListEmployees returns all employees in creation order.
func (s *Store) ListEmployees(ctx context.Context) ([]payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+employeeColumns+` FROM employees ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	employees := []payroll.Employee{}
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

func (s *Store) UpdateEmployee(ctx context.Context, e payroll.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE employees SET
			name = ?, surname = ?, email = ?, address = ?, company = ?, company_term = ?,
			role = ?, location = ?, salary = ?, start_date = ?, end_date = ?, status = ?,
			updated_at = ?
		WHERE id = ?`,
		e.Name, e.Surname, e.Email, e.Address, e.Company, e.CompanyTerm,
		e.Role, e.Location, e.Salary.String(), e.StartDate.String(), e.EndDate.String(), e.Status,
		formatTime(e.UpdatedAt), e.ID,
	)
	return affectedOne(res, err, "employee", e.ID)
}

// DeleteEmployee removes an employee. A linked pay person is unlinked by
// the foreign key.
func (s *Store) DeleteEmployee(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM employees WHERE id = ?", id)
	return affectedOne(res, err, "employee", id)
}

func scanEmployee(row scanner) (payroll.Employee, error) {
	var e payroll.Employee
	var salary, startDate, endDate, createdAt, updatedAt string
	err := row.Scan(&e.ID, &e.Name, &e.Surname, &e.Email, &e.Address, &e.Company, &e.CompanyTerm,
		&e.Role, &e.Location, &salary, &startDate, &endDate, &e.Status, &createdAt, &updatedAt)
	if err != nil {
		return payroll.Employee{}, err
	}
	e.Salary = parseDecimal(salary)
	e.StartDate = parseDate(startDate)
	e.EndDate = parseDate(endDate)
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)
	return e, nil
}

// =============================================================================
// PAY PERSONS
// =============================================================================

const payPersonColumns = `id, employee_id, name, surname, company, salary, deductions, rebate,
	created_at, updated_at`

func (s *Store) CreatePayPerson(ctx context.Context, p payroll.PayPerson) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pay_persons (`+payPersonColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, nullString(p.EmployeeID), p.Name, p.Surname, p.Company,
		p.Salary.String(), p.Deductions.String(), p.Rebate.String(),
		formatTime(p.CreatedAt), formatTime(p.UpdatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return fmt.Errorf("employee %s already has a pay person: %w", p.EmployeeID, err)
		}
		return fmt.Errorf("failed to insert pay person: %w", err)
	}
	return nil
}

func (s *Store) GetPayPerson(ctx context.Context, id string) (payroll.PayPerson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getPayPerson(ctx, "pay person", id,
		`SELECT `+payPersonColumns+` FROM pay_persons WHERE id = ?`, id)
}

func (s *Store) GetPayPersonByEmployee(ctx context.Context, employeeID string) (payroll.PayPerson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.getPayPerson(ctx, "pay person for employee", employeeID,
		`SELECT `+payPersonColumns+` FROM pay_persons WHERE employee_id = ?`, employeeID)
}

func (s *Store) getPayPerson(ctx context.Context, kind, id, query string, args ...any) (payroll.PayPerson, error) {
	p, err := scanPayPerson(s.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return payroll.PayPerson{}, payroll.NewNotFoundError(kind, id)
	}
	if err != nil {
		return payroll.PayPerson{}, err
	}

	p.Leave, err = s.loadLeave(ctx, p.ID)
	if err != nil {
		return payroll.PayPerson{}, err
	}
	return p, nil
}

// ListPayPersons returns all pay persons in creation order, with leave.
func (s *Store) ListPayPersons(ctx context.Context) ([]payroll.PayPerson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT `+payPersonColumns+` FROM pay_persons ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query pay persons: %w", err)
	}

	persons := []payroll.PayPerson{}
	for rows.Next() {
		p, err := scanPayPerson(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		persons = append(persons, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	// Leave is loaded after the cursor is closed; the in-memory database
	// has a single connection.
	for i := range persons {
		persons[i].Leave, err = s.loadLeave(ctx, persons[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return persons, nil
}

func (s *Store) UpdatePayPerson(ctx context.Context, p payroll.PayPerson) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE pay_persons SET
			employee_id = ?, name = ?, surname = ?, company = ?,
			salary = ?, deductions = ?, rebate = ?, updated_at = ?
		WHERE id = ?`,
		nullString(p.EmployeeID), p.Name, p.Surname, p.Company,
		p.Salary.String(), p.Deductions.String(), p.Rebate.String(), formatTime(p.UpdatedAt),
		p.ID,
	)
	return affectedOne(res, err, "pay person", p.ID)
}

// DeletePayPerson removes a pay person; leave and snapshots cascade.
func (s *Store) DeletePayPerson(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, "DELETE FROM pay_persons WHERE id = ?", id)
	return affectedOne(res, err, "pay person", id)
}

func scanPayPerson(row scanner) (payroll.PayPerson, error) {
	var p payroll.PayPerson
	var employeeID sql.NullString
	var salary, deductions, rebate, createdAt, updatedAt string
	err := row.Scan(&p.ID, &employeeID, &p.Name, &p.Surname, &p.Company,
		&salary, &deductions, &rebate, &createdAt, &updatedAt)
	if err != nil {
		return payroll.PayPerson{}, err
	}
	p.EmployeeID = employeeID.String
	p.Salary = parseDecimal(salary)
	p.Deductions = parseDecimal(deductions)
	p.Rebate = parseDecimal(rebate)
	p.CreatedAt = parseTime(createdAt)
	p.UpdatedAt = parseTime(updatedAt)
	return p, nil
}

// =============================================================================
// LEAVE
// =============================================================================

func (s *Store) AddLeave(ctx context.Context, e payroll.LeaveEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_entries (id, pay_person_id, start_date, end_date, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.PayPersonID, e.Interval.Start.String(), e.Interval.End.String(), e.Reason,
		formatTime(e.CreatedAt),
	)
	if err != nil {
		if isForeignKeyError(err) {
			return payroll.NewNotFoundError("pay person", e.PayPersonID)
		}
		return fmt.Errorf("failed to insert leave entry: %w", err)
	}
	return nil
}

func (s *Store) UpdateLeave(ctx context.Context, e payroll.LeaveEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx, `
		UPDATE leave_entries SET start_date = ?, end_date = ?, reason = ?
		WHERE id = ? AND pay_person_id = ?`,
		e.Interval.Start.String(), e.Interval.End.String(), e.Reason, e.ID, e.PayPersonID,
	)
	return affectedOne(res, err, "leave entry", e.ID)
}

func (s *Store) DeleteLeave(ctx context.Context, payPersonID, leaveID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM leave_entries WHERE id = ? AND pay_person_id = ?", leaveID, payPersonID)
	return affectedOne(res, err, "leave entry", leaveID)
}

// loadLeave returns the entries of a pay person ordered by start date.
// Callers hold the lock.
func (s *Store) loadLeave(ctx context.Context, payPersonID string) ([]payroll.LeaveEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pay_person_id, start_date, end_date, reason, created_at
		FROM leave_entries
		WHERE pay_person_id = ?
		ORDER BY start_date ASC, created_at ASC`,
		payPersonID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query leave entries: %w", err)
	}
	defer rows.Close()

	entries := []payroll.LeaveEntry{}
	for rows.Next() {
		var e payroll.LeaveEntry
		var start, end, createdAt string
		if err := rows.Scan(&e.ID, &e.PayPersonID, &start, &end, &e.Reason, &createdAt); err != nil {
			return nil, err
		}
		e.Interval = leave.Interval{Start: parseDate(start), End: parseDate(end)}
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

// SaveSnapshot inserts a snapshot. A second one for the same period is
// rejected, snapshots are never overwritten.
func (s *Store) SaveSnapshot(ctx context.Context, snap payroll.LeaveSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sum := snap.Summary
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO leave_snapshots
		(id, pay_person_id, period_kind, period_start, period_end, days_in_period,
		 days_taken, paid_days, unpaid_days, allotment, days_left, taken_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.PayPersonID, string(sum.Period.Kind),
		sum.Period.Start.String(), sum.Period.End.String(), sum.DaysInPeriod,
		sum.DaysTaken.String(), sum.PaidDays.String(), sum.UnpaidDays.String(),
		sum.Allotment.String(), sum.DaysLeft.String(), formatTime(snap.TakenAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return payroll.ErrDuplicateSnapshot
		}
		if isForeignKeyError(err) {
			return payroll.NewNotFoundError("pay person", snap.PayPersonID)
		}
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	return nil
}

func (s *Store) HasSnapshot(ctx context.Context, payPersonID string, period leave.Period) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM leave_snapshots
		WHERE pay_person_id = ? AND period_start = ? AND period_end = ?`,
		payPersonID, period.Start.String(), period.End.String(),
	).Scan(&count)
	return count > 0, err
}

// ListSnapshots returns snapshots ordered by period start.
func (s *Store) ListSnapshots(ctx context.Context, payPersonID string) ([]payroll.LeaveSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, pay_person_id, period_kind, period_start, period_end, days_in_period,
		       days_taken, paid_days, unpaid_days, allotment, days_left, taken_at
		FROM leave_snapshots
		WHERE pay_person_id = ?
		ORDER BY period_start ASC`,
		payPersonID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer rows.Close()

	snaps := []payroll.LeaveSnapshot{}
	for rows.Next() {
		var snap payroll.LeaveSnapshot
		var kind, start, end, taken, paid, unpaid, allotment, left, takenAt string
		if err := rows.Scan(&snap.ID, &snap.PayPersonID, &kind, &start, &end,
			&snap.Summary.DaysInPeriod, &taken, &paid, &unpaid, &allotment, &left, &takenAt); err != nil {
			return nil, err
		}
		snap.Summary.Period = leave.Period{Kind: leave.PeriodKind(kind), Start: parseDate(start), End: parseDate(end)}
		snap.Summary.DaysTaken = parseDecimal(taken)
		snap.Summary.PaidDays = parseDecimal(paid)
		snap.Summary.UnpaidDays = parseDecimal(unpaid)
		snap.Summary.Allotment = parseDecimal(allotment)
		snap.Summary.DaysLeft = parseDecimal(left)
		snap.TakenAt = parseTime(takenAt)
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

// =============================================================================
// UTILITIES
// =============================================================================

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"leave_snapshots", "leave_entries", "pay_persons", "employees"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// Helper functions

type scanner interface {
	Scan(dest ...any) error
}

func affectedOne(res sql.Result, err error, kind, id string) error {
	if err != nil {
		return fmt.Errorf("failed to write %s %s: %w", kind, id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return payroll.NewNotFoundError(kind, id)
	}
	return nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// timeLayout is fixed-width so that ORDER BY on the text sorts by time.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func parseDate(s string) leave.Date {
	d, _ := leave.ParseDate(s)
	return d
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func isForeignKeyError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "FOREIGN KEY constraint failed")
}
