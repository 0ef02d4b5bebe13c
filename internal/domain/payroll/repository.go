package payroll

import (
	"context"
	"time"
)

// EntryRepository defines data access methods for payroll entries.
type EntryRepository interface {
	// Create returns ErrPayrollEntryExists when an active entry already holds the period
	Create(ctx context.Context, entry Entry) (Entry, error)
	GetByID(ctx context.Context, id string) (Entry, error)

	// GetForUpdate locks the row until the surrounding transaction ends
	GetForUpdate(ctx context.Context, id string) (Entry, error)

	// ListActiveOverlapping returns PENDING or RELEASED entries whose period intersects [start, end]
	ListActiveOverlapping(ctx context.Context, employeeID string, start, end time.Time) ([]Entry, error)

	List(ctx context.Context, filter EntryFilter) ([]Entry, error)

	// MarkReleased writes the final figures and snapshot only while status is PENDING.
	// Returns false when the guard did not match.
	MarkReleased(ctx context.Context, entry Entry) (bool, error)

	// ArchivePeriod moves every RELEASED entry of exactly [start, end] to ARCHIVED
	ArchivePeriod(ctx context.Context, start, end time.Time, at time.Time) (int64, error)
}

// DeductionRepository reads the deduction catalog and employee deductions.
type DeductionRepository interface {
	GetTypeByID(ctx context.Context, id string) (DeductionType, error)
	ListTypes(ctx context.Context) ([]DeductionType, error)

	Create(ctx context.Context, deduction Deduction) (Deduction, error)

	// ListUnarchived returns the employee's deductions with no archive stamp, joined with their type
	ListUnarchived(ctx context.Context, employeeID string) ([]Deduction, error)

	// ArchiveDiscretionary stamps archivedAt on discretionary deductions applied in [from, to]
	ArchiveDiscretionary(ctx context.Context, employeeID string, from, to time.Time, at time.Time) (int64, error)
}

// LoanRepository lists employee loans.
type LoanRepository interface {
	ListByEmployee(ctx context.Context, employeeID string) ([]Loan, error)
}

// PersonnelRepository resolves the salary source of an employee.
type PersonnelRepository interface {
	// GetByEmployeeID returns ErrPersonnelNotFound when the employee is unknown
	GetByEmployeeID(ctx context.Context, employeeID string) (Personnel, error)
}
