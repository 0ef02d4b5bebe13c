package memory

import (
	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// Seeding helpers for collaborator-owned data (catalog, personnel, leave, holidays).

// AddEmployee registers an active employee with an optional monthly salary
func (s *Store) AddEmployee(employeeID, name string, salary *decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.employees = append(s.data.employees, employeeID)
	s.data.personnel[employeeID] = payroll.Personnel{
		EmployeeID:   employeeID,
		EmployeeName: name,
		BasicSalary:  salary,
	}
}

func (s *Store) AddHoliday(h attendance.Holiday) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if h.ID == "" {
		h.ID = newID()
	}
	s.data.holidays = append(s.data.holidays, h)
}

func (s *Store) AddApprovedLeave(l attendance.LeaveSpan) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l.ID == "" {
		l.ID = newID()
	}
	s.data.leaves = append(s.data.leaves, l)
}

func (s *Store) AddDeductionType(t payroll.DeductionType) payroll.DeductionType {
	s.mu.Lock()
	defer s.mu.Unlock()

	if t.ID == "" {
		t.ID = newID()
	}
	t.CreatedAt = s.now()
	s.data.deductionTypes[t.ID] = t
	return t
}

func (s *Store) AddLoan(l payroll.Loan) payroll.Loan {
	s.mu.Lock()
	defer s.mu.Unlock()

	if l.ID == "" {
		l.ID = newID()
	}
	s.data.loans = append(s.data.loans, l)
	return l
}
