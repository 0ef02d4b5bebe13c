package memory

import (
	"context"
	"sort"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
)

// =============================================================================
// ATTENDANCE
// =============================================================================

type attendanceRepository struct {
	s *Store
}

func (s *Store) Attendance() attendance.AttendanceRepository {
	return &attendanceRepository{s: s}
}

func (r *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	defer r.s.acquire(ctx)()

	rec, ok := r.s.data.records[recordKey{EmployeeID: employeeID, Date: dateKey(date)}]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *attendanceRepository) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Record, error) {
	defer r.s.acquire(ctx)()

	var result []attendance.Record
	for k, rec := range r.s.data.records {
		if k.EmployeeID == employeeID && inDateRange(rec.Date, from, to) {
			result = append(result, rec)
		}
	}
	sortRecords(result)
	return result, nil
}

func (r *attendanceRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]attendance.Record, error) {
	defer r.s.acquire(ctx)()

	var result []attendance.Record
	for _, rec := range r.s.data.records {
		if inDateRange(rec.Date, from, to) {
			result = append(result, rec)
		}
	}
	sortRecords(result)
	return result, nil
}

func (r *attendanceRepository) CreateIfAbsent(ctx context.Context, record attendance.Record) (attendance.Record, bool, error) {
	defer r.s.acquire(ctx)()

	stored, created := r.createLocked(record)
	return stored, created, nil
}

func (r *attendanceRepository) BulkCreateIfAbsent(ctx context.Context, records []attendance.Record) (int64, error) {
	defer r.s.acquire(ctx)()

	var created int64
	for _, rec := range records {
		if _, ok := r.createLocked(rec); ok {
			created++
		}
	}
	return created, nil
}

func (r *attendanceRepository) createLocked(record attendance.Record) (attendance.Record, bool) {
	k := recordKey{EmployeeID: record.EmployeeID, Date: dateKey(record.Date)}
	if existing, ok := r.s.data.records[k]; ok {
		return existing, false
	}

	now := r.s.now()
	record.ID = newID()
	record.CreatedAt = now
	record.UpdatedAt = now
	if record.Status == "" {
		record.Status = attendance.StatusPending
	}
	r.s.data.records[k] = record
	r.s.data.recordIDs[record.ID] = k
	return record, true
}

func (r *attendanceRepository) UpdatePunches(ctx context.Context, record attendance.Record) error {
	defer r.s.acquire(ctx)()

	k, ok := r.s.data.recordIDs[record.ID]
	if !ok {
		return attendance.ErrAttendanceNotFound
	}
	stored := r.s.data.records[k]
	stored.TimeIn = record.TimeIn
	stored.TimeOut = record.TimeOut
	stored.Status = record.Status
	stored.UpdatedAt = r.s.now()
	r.s.data.records[k] = stored
	return nil
}

func (r *attendanceRepository) UpdateStatusIf(ctx context.Context, id string, from, to attendance.Status) (bool, error) {
	defer r.s.acquire(ctx)()

	k, ok := r.s.data.recordIDs[id]
	if !ok {
		return false, attendance.ErrAttendanceNotFound
	}
	stored := r.s.data.records[k]
	if stored.Status != from {
		return false, nil
	}
	stored.Status = to
	stored.UpdatedAt = r.s.now()
	r.s.data.records[k] = stored
	return true, nil
}

func (r *attendanceRepository) ForceLeave(ctx context.Context, employeeID string, date time.Time) error {
	defer r.s.acquire(ctx)()

	stored, _ := r.createLocked(attendance.Record{EmployeeID: employeeID, Date: date, Status: attendance.StatusOnLeave})
	stored.Status = attendance.StatusOnLeave
	stored.TimeIn = nil
	stored.TimeOut = nil
	stored.UpdatedAt = r.s.now()
	r.s.data.records[recordKey{EmployeeID: employeeID, Date: dateKey(date)}] = stored
	return nil
}

func sortRecords(records []attendance.Record) {
	sort.Slice(records, func(i, j int) bool {
		if ki, kj := dateKey(records[i].Date), dateKey(records[j].Date); ki != kj {
			return ki < kj
		}
		return records[i].EmployeeID < records[j].EmployeeID
	})
}

// =============================================================================
// SETTINGS / HOLIDAYS / LEAVES / EMPLOYEES
// =============================================================================

type settingsRepository struct {
	s *Store
}

func (s *Store) Settings() attendance.SettingsRepository {
	return &settingsRepository{s: s}
}

func (r *settingsRepository) Get(ctx context.Context) (attendance.Settings, error) {
	defer r.s.acquire(ctx)()

	if r.s.data.settings == nil {
		return attendance.Settings{}, attendance.ErrSettingsNotFound
	}
	return *r.s.data.settings, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, settings attendance.Settings) (attendance.Settings, error) {
	defer r.s.acquire(ctx)()

	now := r.s.now()
	if r.s.data.settings == nil {
		settings.ID = newID()
		settings.CreatedAt = now
	} else {
		settings.ID = r.s.data.settings.ID
		settings.CreatedAt = r.s.data.settings.CreatedAt
	}
	settings.UpdatedAt = now
	r.s.data.settings = &settings
	return settings, nil
}

type holidayRepository struct {
	s *Store
}

func (s *Store) Holidays() attendance.HolidayRepository {
	return &holidayRepository{s: s}
}

func (r *holidayRepository) ListBetween(ctx context.Context, from, to time.Time) ([]attendance.Holiday, error) {
	defer r.s.acquire(ctx)()

	var result []attendance.Holiday
	for _, h := range r.s.data.holidays {
		if inDateRange(h.Date, from, to) {
			result = append(result, h)
		}
	}
	return result, nil
}

type leaveRepository struct {
	s *Store
}

func (s *Store) Leaves() attendance.LeaveRepository {
	return &leaveRepository{s: s}
}

// ListApproved returns spans overlapping [from, to]
func (r *leaveRepository) ListApproved(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.LeaveSpan, error) {
	defer r.s.acquire(ctx)()

	var result []attendance.LeaveSpan
	for _, l := range r.s.data.leaves {
		if l.EmployeeID != employeeID {
			continue
		}
		if dateKey(l.StartDate) <= dateKey(to) && dateKey(l.EndDate) >= dateKey(from) {
			result = append(result, l)
		}
	}
	return result, nil
}

type employeeDirectory struct {
	s *Store
}

func (s *Store) Employees() attendance.EmployeeDirectory {
	return &employeeDirectory{s: s}
}

func (r *employeeDirectory) ListActiveEmployeeIDs(ctx context.Context) ([]string, error) {
	defer r.s.acquire(ctx)()

	return append([]string(nil), r.s.data.employees...), nil
}
