// Package memory provides an in-memory payroll.Store for tests and demos.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/payroll-leave/leave"
	"github.com/warp/payroll-leave/payroll"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Store struct {
	mu         sync.RWMutex
	employees  map[string]payroll.Employee
	payPersons map[string]payroll.PayPerson // Leave is kept empty here
	leave      map[string][]payroll.LeaveEntry
	snapshots  map[string][]payroll.LeaveSnapshot
}

var _ payroll.Store = (*Store)(nil)

func New() *Store {
	s := &Store{}
	s.resetLocked()
	return s
}

func (s *Store) Reset(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
	return nil
}

func (s *Store) resetLocked() {
	s.employees = make(map[string]payroll.Employee)
	s.payPersons = make(map[string]payroll.PayPerson)
	s.leave = make(map[string][]payroll.LeaveEntry)
	s.snapshots = make(map[string][]payroll.LeaveSnapshot)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) CreateEmployee(_ context.Context, e payroll.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.employees[e.ID] = e
	return nil
}

func (s *Store) GetEmployee(_ context.Context, id string) (payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.employees[id]
	if !ok {
		return payroll.Employee{}, payroll.NewNotFoundError("employee", id)
	}
	return e, nil
}

func (s *Store) ListEmployees(_ context.Context) ([]payroll.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]payroll.Employee, 0, len(s.employees))
	for _, e := range s.employees {
		result = append(result, e)
	}
	sort.Slice(result, func(i, j int) bool {
		return lessByCreated(result[i].CreatedAt.UnixNano(), result[j].CreatedAt.UnixNano(), result[i].ID, result[j].ID)
	})
	return result, nil
}

func (s *Store) UpdateEmployee(_ context.Context, e payroll.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[e.ID]; !ok {
		return payroll.NewNotFoundError("employee", e.ID)
	}
	s.employees[e.ID] = e
	return nil
}

func (s *Store) DeleteEmployee(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.employees[id]; !ok {
		return payroll.NewNotFoundError("employee", id)
	}
	delete(s.employees, id)
	return nil
}

// =============================================================================
// PAY PERSONS
// =============================================================================

func (s *Store) CreatePayPerson(_ context.Context, p payroll.PayPerson) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p.Leave = nil
	s.payPersons[p.ID] = p
	return nil
}

func (s *Store) GetPayPerson(_ context.Context, id string) (payroll.PayPerson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payPersons[id]
	if !ok {
		return payroll.PayPerson{}, payroll.NewNotFoundError("pay person", id)
	}
	return s.withLeaveLocked(p), nil
}

func (s *Store) GetPayPersonByEmployee(_ context.Context, employeeID string) (payroll.PayPerson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if employeeID != "" {
		for _, p := range s.payPersons {
			if p.EmployeeID == employeeID {
				return s.withLeaveLocked(p), nil
			}
		}
	}
	return payroll.PayPerson{}, payroll.NewNotFoundError("pay person for employee", employeeID)
}

func (s *Store) ListPayPersons(_ context.Context) ([]payroll.PayPerson, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]payroll.PayPerson, 0, len(s.payPersons))
	for _, p := range s.payPersons {
		result = append(result, s.withLeaveLocked(p))
	}
	sort.Slice(result, func(i, j int) bool {
		return lessByCreated(result[i].CreatedAt.UnixNano(), result[j].CreatedAt.UnixNano(), result[i].ID, result[j].ID)
	})
	return result, nil
}

func (s *Store) UpdatePayPerson(_ context.Context, p payroll.PayPerson) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payPersons[p.ID]; !ok {
		return payroll.NewNotFoundError("pay person", p.ID)
	}
	p.Leave = nil
	s.payPersons[p.ID] = p
	return nil
}

func (s *Store) DeletePayPerson(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payPersons[id]; !ok {
		return payroll.NewNotFoundError("pay person", id)
	}
	delete(s.payPersons, id)
	delete(s.leave, id)
	delete(s.snapshots, id)
	return nil
}

// withLeaveLocked returns p with a copy of its leave entries attached.
func (s *Store) withLeaveLocked(p payroll.PayPerson) payroll.PayPerson {
	entries := s.leave[p.ID]
	p.Leave = make([]payroll.LeaveEntry, len(entries))
	copy(p.Leave, entries)
	return p
}

// =============================================================================
// LEAVE
// =============================================================================

func (s *Store) AddLeave(_ context.Context, e payroll.LeaveEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payPersons[e.PayPersonID]; !ok {
		return payroll.NewNotFoundError("pay person", e.PayPersonID)
	}

	entries := s.leave[e.PayPersonID]

	// Binary search for insertion point, keeping entries ordered by start
	i := sort.Search(len(entries), func(i int) bool {
		return entries[i].Interval.Start.After(e.Interval.Start)
	})
	entries = append(entries, payroll.LeaveEntry{})
	copy(entries[i+1:], entries[i:])
	entries[i] = e
	s.leave[e.PayPersonID] = entries
	return nil
}

func (s *Store) UpdateLeave(_ context.Context, e payroll.LeaveEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.leave[e.PayPersonID]
	for i := range entries {
		if entries[i].ID == e.ID {
			entries[i] = e
			sort.SliceStable(entries, func(a, b int) bool {
				return entries[a].Interval.Start.Before(entries[b].Interval.Start)
			})
			return nil
		}
	}
	return payroll.NewNotFoundError("leave entry", e.ID)
}

func (s *Store) DeleteLeave(_ context.Context, payPersonID, leaveID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.leave[payPersonID]
	for i := range entries {
		if entries[i].ID == leaveID {
			s.leave[payPersonID] = append(entries[:i:i], entries[i+1:]...)
			return nil
		}
	}
	return payroll.NewNotFoundError("leave entry", leaveID)
}

// =============================================================================
// SNAPSHOTS
// =============================================================================

func (s *Store) SaveSnapshot(_ context.Context, snap payroll.LeaveSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasSnapshotLocked(snap.PayPersonID, snap.Summary.Period) {
		return payroll.ErrDuplicateSnapshot
	}
	s.snapshots[snap.PayPersonID] = append(s.snapshots[snap.PayPersonID], snap)
	return nil
}

func (s *Store) HasSnapshot(_ context.Context, payPersonID string, period leave.Period) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasSnapshotLocked(payPersonID, period), nil
}

func (s *Store) hasSnapshotLocked(payPersonID string, period leave.Period) bool {
	for _, snap := range s.snapshots[payPersonID] {
		if snap.Summary.Period.Start.Equal(period.Start) && snap.Summary.Period.End.Equal(period.End) {
			return true
		}
	}
	return false
}

// ListSnapshots returns snapshots ordered by period start.
func (s *Store) ListSnapshots(_ context.Context, payPersonID string) ([]payroll.LeaveSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]payroll.LeaveSnapshot, len(s.snapshots[payPersonID]))
	copy(result, s.snapshots[payPersonID])
	sort.Slice(result, func(i, j int) bool {
		return result[i].Summary.Period.Start.Before(result[j].Summary.Period.Start)
	})
	return result, nil
}

func lessByCreated(a, b int64, idA, idB string) bool {
	if a != b {
		return a < b
	}
	return idA < idB
}
