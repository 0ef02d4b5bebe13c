package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
)

// =============================================================================
// PAYROLL ENTRIES
// =============================================================================

type entryRepository struct {
	s *Store
}

func (s *Store) Entries() payroll.EntryRepository {
	return &entryRepository{s: s}
}

func overlaps(e payroll.Entry, start, end time.Time) bool {
	return dateKey(e.PeriodStart) <= dateKey(end) && dateKey(e.PeriodEnd) >= dateKey(start)
}

func (r *entryRepository) Create(ctx context.Context, entry payroll.Entry) (payroll.Entry, error) {
	defer r.s.acquire(ctx)()

	// Mirrors the exclusion constraint on active entries
	for _, e := range r.s.data.entries {
		if e.EmployeeID == entry.EmployeeID && e.Status != payroll.EntryStatusArchived && overlaps(e, entry.PeriodStart, entry.PeriodEnd) {
			return payroll.Entry{}, payroll.ErrPayrollEntryExists
		}
	}

	now := r.s.now()
	entry.ID = newID()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	if entry.ProcessedAt.IsZero() {
		entry.ProcessedAt = now
	}
	if entry.Snapshot != nil {
		data, err := entry.Snapshot.Encode()
		if err != nil {
			return payroll.Entry{}, err
		}
		r.s.data.snapshots[entry.ID] = data
	}
	entry.Snapshot = nil
	r.s.data.entries = append(r.s.data.entries, entry)
	return r.hydrate(entry)
}

// hydrate decodes the stored snapshot into a fresh value
func (r *entryRepository) hydrate(e payroll.Entry) (payroll.Entry, error) {
	data, ok := r.s.data.snapshots[e.ID]
	if !ok {
		e.Snapshot = nil
		return e, nil
	}
	b, err := payroll.DecodeBreakdown(data)
	if err != nil {
		return payroll.Entry{}, err
	}
	e.Snapshot = &b
	return e, nil
}

func (r *entryRepository) find(id string) (int, bool) {
	for i, e := range r.s.data.entries {
		if e.ID == id {
			return i, true
		}
	}
	return -1, false
}

func (r *entryRepository) GetByID(ctx context.Context, id string) (payroll.Entry, error) {
	defer r.s.acquire(ctx)()

	i, ok := r.find(id)
	if !ok {
		return payroll.Entry{}, payroll.ErrPayrollEntryNotFound
	}
	return r.hydrate(r.s.data.entries[i])
}

// GetForUpdate relies on the store mutex held by the surrounding transaction
func (r *entryRepository) GetForUpdate(ctx context.Context, id string) (payroll.Entry, error) {
	return r.GetByID(ctx, id)
}

func (r *entryRepository) ListActiveOverlapping(ctx context.Context, employeeID string, start, end time.Time) ([]payroll.Entry, error) {
	defer r.s.acquire(ctx)()

	var result []payroll.Entry
	for _, e := range r.s.data.entries {
		if e.EmployeeID == employeeID && e.Status != payroll.EntryStatusArchived && overlaps(e, start, end) {
			h, err := r.hydrate(e)
			if err != nil {
				return nil, err
			}
			result = append(result, h)
		}
	}
	return result, nil
}

func (r *entryRepository) List(ctx context.Context, filter payroll.EntryFilter) ([]payroll.Entry, error) {
	defer r.s.acquire(ctx)()

	var result []payroll.Entry
	for _, e := range r.s.data.entries {
		if filter.EmployeeID != nil && e.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && e.Status != *filter.Status {
			continue
		}
		if filter.PeriodStart != nil && dateKey(e.PeriodStart) != dateKey(*filter.PeriodStart) {
			continue
		}
		if filter.PeriodEnd != nil && dateKey(e.PeriodEnd) != dateKey(*filter.PeriodEnd) {
			continue
		}
		h, err := r.hydrate(e)
		if err != nil {
			return nil, err
		}
		result = append(result, h)
	}
	sort.SliceStable(result, func(i, j int) bool {
		return dateKey(result[i].PeriodStart) > dateKey(result[j].PeriodStart)
	})
	return result, nil
}

func (r *entryRepository) MarkReleased(ctx context.Context, entry payroll.Entry) (bool, error) {
	defer r.s.acquire(ctx)()

	i, ok := r.find(entry.ID)
	if !ok {
		return false, payroll.ErrPayrollEntryNotFound
	}
	stored := r.s.data.entries[i]
	if stored.Status != payroll.EntryStatusPending {
		return false, nil
	}
	if entry.Snapshot == nil {
		return false, payroll.ErrEntryNotReleased
	}
	data, err := entry.Snapshot.Encode()
	if err != nil {
		return false, err
	}

	stored.BasicSalary = entry.BasicSalary
	stored.Overtime = entry.Overtime
	stored.Deductions = entry.Deductions
	stored.NetPay = entry.NetPay
	stored.ProcessedAt = entry.ProcessedAt
	stored.ReleasedAt = entry.ReleasedAt
	stored.Status = payroll.EntryStatusReleased
	stored.UpdatedAt = r.s.now()
	r.s.data.entries[i] = stored
	r.s.data.snapshots[stored.ID] = data
	return true, nil
}

func (r *entryRepository) ArchivePeriod(ctx context.Context, start, end time.Time, at time.Time) (int64, error) {
	defer r.s.acquire(ctx)()

	var n int64
	for i, e := range r.s.data.entries {
		if e.Status != payroll.EntryStatusReleased {
			continue
		}
		if dateKey(e.PeriodStart) != dateKey(start) || dateKey(e.PeriodEnd) != dateKey(end) {
			continue
		}
		e.Status = payroll.EntryStatusArchived
		e.ArchivedAt = timePtr(at)
		e.UpdatedAt = r.s.now()
		r.s.data.entries[i] = e
		n++
	}
	return n, nil
}

// =============================================================================
// DEDUCTIONS / LOANS / PERSONNEL
// =============================================================================

type deductionRepository struct {
	s *Store
}

func (s *Store) Deductions() payroll.DeductionRepository {
	return &deductionRepository{s: s}
}

func (r *deductionRepository) GetTypeByID(ctx context.Context, id string) (payroll.DeductionType, error) {
	defer r.s.acquire(ctx)()

	t, ok := r.s.data.deductionTypes[id]
	if !ok {
		return payroll.DeductionType{}, payroll.ErrDeductionTypeNotFound
	}
	return t, nil
}

func (r *deductionRepository) ListTypes(ctx context.Context) ([]payroll.DeductionType, error) {
	defer r.s.acquire(ctx)()

	result := make([]payroll.DeductionType, 0, len(r.s.data.deductionTypes))
	for _, t := range r.s.data.deductionTypes {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (r *deductionRepository) Create(ctx context.Context, d payroll.Deduction) (payroll.Deduction, error) {
	defer r.s.acquire(ctx)()

	t, ok := r.s.data.deductionTypes[d.DeductionTypeID]
	if !ok {
		return payroll.Deduction{}, payroll.ErrDeductionTypeNotFound
	}
	d.ID = newID()
	d.CreatedAt = r.s.now()
	d.TypeName = t.Name
	d.Category = t.Category
	r.s.data.deductions = append(r.s.data.deductions, d)
	return d, nil
}

func (r *deductionRepository) ListUnarchived(ctx context.Context, employeeID string) ([]payroll.Deduction, error) {
	defer r.s.acquire(ctx)()

	var result []payroll.Deduction
	for _, d := range r.s.data.deductions {
		if d.EmployeeID != employeeID || d.ArchivedAt != nil {
			continue
		}
		t := r.s.data.deductionTypes[d.DeductionTypeID]
		d.TypeName = t.Name
		d.Category = t.Category
		result = append(result, d)
	}
	return result, nil
}

func (r *deductionRepository) ArchiveDiscretionary(ctx context.Context, employeeID string, from, to time.Time, at time.Time) (int64, error) {
	defer r.s.acquire(ctx)()

	var n int64
	for i, d := range r.s.data.deductions {
		if d.EmployeeID != employeeID || d.ArchivedAt != nil || !inDateRange(d.AppliedAt, from, to) {
			continue
		}
		if r.s.data.deductionTypes[d.DeductionTypeID].Category != payroll.CategoryDiscretionary {
			continue
		}
		d.ArchivedAt = timePtr(at)
		r.s.data.deductions[i] = d
		n++
	}
	return n, nil
}

type loanRepository struct {
	s *Store
}

func (s *Store) Loans() payroll.LoanRepository {
	return &loanRepository{s: s}
}

func (r *loanRepository) ListByEmployee(ctx context.Context, employeeID string) ([]payroll.Loan, error) {
	defer r.s.acquire(ctx)()

	var result []payroll.Loan
	for _, l := range r.s.data.loans {
		if l.EmployeeID == employeeID {
			result = append(result, l)
		}
	}
	return result, nil
}

type personnelRepository struct {
	s *Store
}

func (s *Store) Personnel() payroll.PersonnelRepository {
	return &personnelRepository{s: s}
}

func (r *personnelRepository) GetByEmployeeID(ctx context.Context, employeeID string) (payroll.Personnel, error) {
	defer r.s.acquire(ctx)()

	p, ok := r.s.data.personnel[employeeID]
	if !ok {
		return payroll.Personnel{}, payroll.ErrPersonnelNotFound
	}
	return p, nil
}
