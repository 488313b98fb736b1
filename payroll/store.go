/*
store.go - Persistence interface for payroll records

PURPOSE:
  Defines the interface between the payroll service and the database.
  Stores hold inputs only: employees, pay persons, leave entries and
  month-end snapshots. Pay figures and leave status are never persisted.

CONTRACT:
  - Get* return an error wrapping ErrNotFound for unknown IDs
  - GetPayPerson loads the leave entries, ordered by start date
  - DeletePayPerson removes its leave entries and snapshots
  - SaveSnapshot rejects a second snapshot for the same person and period
    with ErrDuplicateSnapshot

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: SQLite, used by the server
  - store/memory/memory.go: in-memory, used by tests and demos

SEE ALSO:
  - service.go: the only caller
*/
package payroll

import (
	"context"

	"github.com/warp/payroll-leave/leave"
)

// =============================================================================
// STORE
// =============================================================================

type Store interface {
	EmployeeStore
	PayPersonStore
	LeaveStore
	SnapshotStore

	// Reset removes every record. Used by demo scenarios.
	Reset(ctx context.Context) error
}

type EmployeeStore interface {
	CreateEmployee(ctx context.Context, e Employee) error
	GetEmployee(ctx context.Context, id string) (Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)
	UpdateEmployee(ctx context.Context, e Employee) error
	DeleteEmployee(ctx context.Context, id string) error
}

// PayPersonStore persists pay persons. Create and Update ignore the Leave
// field; leave entries are written through LeaveStore.
type PayPersonStore interface {
	CreatePayPerson(ctx context.Context, p PayPerson) error
	GetPayPerson(ctx context.Context, id string) (PayPerson, error)
	GetPayPersonByEmployee(ctx context.Context, employeeID string) (PayPerson, error)
	ListPayPersons(ctx context.Context) ([]PayPerson, error)
	UpdatePayPerson(ctx context.Context, p PayPerson) error
	DeletePayPerson(ctx context.Context, id string) error
}

type LeaveStore interface {
	AddLeave(ctx context.Context, e LeaveEntry) error
	UpdateLeave(ctx context.Context, e LeaveEntry) error
	DeleteLeave(ctx context.Context, payPersonID, leaveID string) error
}

type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, s LeaveSnapshot) error
	HasSnapshot(ctx context.Context, payPersonID string, period leave.Period) (bool, error)
	ListSnapshots(ctx context.Context, payPersonID string) ([]LeaveSnapshot, error)
}
