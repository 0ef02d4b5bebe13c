package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for attendance records.
// At most one record exists per (employee, date); create methods never overwrite.
type AttendanceRepository interface {
	// GetByEmployeeAndDate returns nil, nil when no record exists for that day
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*Record, error)

	// ListByEmployee returns records with date in [from, to], ordered by date
	ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]Record, error)

	// ListByDateRange returns every employee's records with date in [from, to]
	ListByDateRange(ctx context.Context, from, to time.Time) ([]Record, error)

	// CreateIfAbsent inserts the record unless one already exists for (employee, date).
	// It returns the stored row and whether it was created by this call.
	CreateIfAbsent(ctx context.Context, record Record) (Record, bool, error)

	// BulkCreateIfAbsent inserts all records, skipping existing (employee, date) pairs
	BulkCreateIfAbsent(ctx context.Context, records []Record) (int64, error)

	// UpdatePunches writes time-in/time-out and status on an existing record
	UpdatePunches(ctx context.Context, record Record) error

	// UpdateStatusIf flips status only while the stored status equals from.
	// Returns false when the guard did not match.
	UpdateStatusIf(ctx context.Context, id string, from, to Status) (bool, error)

	// ForceLeave sets ON_LEAVE and clears punches, creating the row if missing
	ForceLeave(ctx context.Context, employeeID string, date time.Time) error
}

// SettingsRepository reads and writes the attendance settings singleton.
type SettingsRepository interface {
	// Get returns ErrSettingsNotFound when no settings row exists
	Get(ctx context.Context) (Settings, error)
	Upsert(ctx context.Context, settings Settings) (Settings, error)
}

// HolidayRepository lists configured holidays.
type HolidayRepository interface {
	ListBetween(ctx context.Context, from, to time.Time) ([]Holiday, error)
}

// LeaveRepository exposes approved leave spans from the leave workflow.
type LeaveRepository interface {
	ListApproved(ctx context.Context, employeeID string, from, to time.Time) ([]LeaveSpan, error)
}

// EmployeeDirectory lists employees subject to period provisioning.
type EmployeeDirectory interface {
	ListActiveEmployeeIDs(ctx context.Context) ([]string, error)
}
