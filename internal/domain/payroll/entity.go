package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryStatus enum
type EntryStatus string

const (
	EntryStatusPending  EntryStatus = "PENDING"
	EntryStatusReleased EntryStatus = "RELEASED"
	EntryStatusArchived EntryStatus = "ARCHIVED"
)

func (s EntryStatus) IsValid() bool {
	switch s {
	case EntryStatusPending, EntryStatusReleased, EntryStatusArchived:
		return true
	}
	return false
}

// Frozen reports whether reads must be served from the stored snapshot.
func (s EntryStatus) Frozen() bool {
	return s == EntryStatusReleased || s == EntryStatusArchived
}

// Entry - one payroll result per (employee, period)
type Entry struct {
	ID          string
	EmployeeID  string
	PeriodStart time.Time
	PeriodEnd   time.Time

	// Figures; BasicSalary is already prorated to the period
	BasicSalary decimal.Decimal
	Overtime    decimal.Decimal
	Deductions  decimal.Decimal
	NetPay      decimal.Decimal

	Status      EntryStatus
	ProcessedAt time.Time
	ReleasedAt  *time.Time
	ArchivedAt  *time.Time

	// Snapshot is set exactly once, at release
	Snapshot *Breakdown

	CreatedAt time.Time
	UpdatedAt time.Time

	// Joined fields
	EmployeeName *string
}

// DeductionKind enum
type DeductionKind string

const (
	DeductionKindFixed      DeductionKind = "FIXED"
	DeductionKindPercentage DeductionKind = "PERCENTAGE"
)

// DeductionCategory tags a catalog type at definition time.
type DeductionCategory string

const (
	// CategoryAttendanceCaused types are computed live from attendance and never summed from the catalog
	CategoryAttendanceCaused DeductionCategory = "ATTENDANCE_CAUSED"
	// CategoryMandatory types apply every period and are never archived
	CategoryMandatory DeductionCategory = "MANDATORY"
	// CategoryDiscretionary types apply to the period they were applied in and are archived on release
	CategoryDiscretionary DeductionCategory = "DISCRETIONARY"
)

func (c DeductionCategory) IsValid() bool {
	switch c {
	case CategoryAttendanceCaused, CategoryMandatory, CategoryDiscretionary:
		return true
	}
	return false
}

// DeductionType - catalog entry
type DeductionType struct {
	ID        string
	Name      string
	Kind      DeductionKind
	Value     decimal.Decimal // fixed amount, or percent of basic salary
	Category  DeductionCategory
	CreatedAt time.Time
}

// Deduction - a catalog deduction applied to one employee
type Deduction struct {
	ID              string
	EmployeeID      string
	DeductionTypeID string
	Amount          decimal.Decimal // snapshotted at creation
	AppliedAt       time.Time
	ArchivedAt      *time.Time
	CreatedAt       time.Time

	// Joined fields
	TypeName string
	Category DeductionCategory
}

// LoanStatus enum
type LoanStatus string

const (
	LoanStatusActive    LoanStatus = "ACTIVE"
	LoanStatusCompleted LoanStatus = "COMPLETED"
	LoanStatusDefaulted LoanStatus = "DEFAULTED"
)

// Loan - employee loan amortized through payroll
type Loan struct {
	ID                    string
	EmployeeID            string
	Amount                decimal.Decimal
	Balance               decimal.Decimal
	MonthlyPaymentPercent decimal.Decimal
	TermMonths            int
	Status                LoanStatus
	StartDate             time.Time
	EndDate               *time.Time
}

// Personnel - salary source for an employee
type Personnel struct {
	EmployeeID        string
	EmployeeName      string
	PersonnelTypeID   *string
	PersonnelTypeName *string
	BasicSalary       *decimal.Decimal // nil when no personnel type is assigned
}

// MonthlySalary returns the basic salary, or zero with ok=false when none is configured.
func (p Personnel) MonthlySalary() (decimal.Decimal, bool) {
	if p.BasicSalary == nil {
		return decimal.Zero, false
	}
	return *p.BasicSalary, true
}
