package attendance

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/clock"
	"github.com/shopspring/decimal"
)

// Status enum
type Status string

const (
	StatusPending    Status = "PENDING"
	StatusPresent    Status = "PRESENT"
	StatusLate       Status = "LATE"
	StatusAbsent     Status = "ABSENT"
	StatusPartial    Status = "PARTIAL"
	StatusOnLeave    Status = "ON_LEAVE"
	StatusNonWorking Status = "NON_WORKING"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusPresent, StatusLate, StatusAbsent, StatusPartial, StatusOnLeave, StatusNonWorking:
		return true
	}
	return false
}

// Worked reports whether the status implies a time-in punch.
func (s Status) Worked() bool {
	return s == StatusPresent || s == StatusLate || s == StatusPartial
}

// Settings - admin-configured attendance rules (singleton)
type Settings struct {
	ID string

	// Time windows; nil means not configured
	TimeInStart  *clock.TimeOfDay
	TimeInEnd    *clock.TimeOfDay
	TimeOutStart *clock.TimeOfDay
	TimeOutEnd   *clock.TimeOfDay

	TimeInCutoffDisabled  bool
	TimeOutCutoffDisabled bool

	// Current pay period
	PeriodStart *time.Time
	PeriodEnd   *time.Time

	AutoMarkAbsent bool
	AutoMarkLate   bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// TimeInCutoffEnforced is true only when a time-in cutoff is configured and not disabled.
func (s *Settings) TimeInCutoffEnforced() bool {
	return s != nil && !s.TimeInCutoffDisabled && s.TimeInEnd != nil
}

// TimeOutCutoffEnforced is true only when a time-out cutoff is configured and not disabled.
func (s *Settings) TimeOutCutoffEnforced() bool {
	return s != nil && !s.TimeOutCutoffDisabled && s.TimeOutEnd != nil
}

// LateMarkingEnabled gates automatic LATE classification and late deductions.
func (s *Settings) LateMarkingEnabled() bool {
	return s.TimeInCutoffEnforced() && s.AutoMarkLate
}

// AbsentMarkingEnabled gates automatic ABSENT classification.
func (s *Settings) AbsentMarkingEnabled() bool {
	return s.TimeOutCutoffEnforced() && s.AutoMarkAbsent
}

// EarlyOutEnforced gates early time-out deductions.
func (s *Settings) EarlyOutEnforced() bool {
	return s != nil && !s.TimeOutCutoffDisabled && s.TimeOutStart != nil
}

// Record - one attendance row per (employee, calendar day)
type Record struct {
	ID         string
	EmployeeID string
	Date       time.Time
	Status     Status
	TimeIn     *time.Time
	TimeOut    *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// Joined fields
	EmployeeName *string
}

// LeaveSpan - an approved leave, inclusive of both ends
type LeaveSpan struct {
	ID         string
	EmployeeID string
	StartDate  time.Time
	EndDate    time.Time
	Reason     *string
}

// Holiday - a configured non-working date
type Holiday struct {
	ID   string
	Date time.Time
	Name string
}

// Period - resolved pay period
type Period struct {
	Start        time.Time
	End          time.Time // end of the configured last day
	EffectiveEnd time.Time // End capped at the end of today
	WorkingDays  int
	LengthDays   int
	Defaulted    bool
}

// InProgress reports whether the configured period extends past today.
func (p Period) InProgress() bool {
	return p.EffectiveEnd.Before(p.End)
}

// Contains reports whether t falls inside [Start, EffectiveEnd].
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && !t.After(p.EffectiveEnd)
}

// DayResult - per-day figures derived from a record at a given instant
type DayResult struct {
	Date              time.Time
	Status            Status
	SecondsWorked     int64
	SecondsLate       int64
	SecondsEarly      int64
	HoursWorked       decimal.Decimal
	Earnings          decimal.Decimal
	LateDeduction     decimal.Decimal
	AbsenceDeduction  decimal.Decimal
	PartialDeduction  decimal.Decimal
	EarlyOutDeduction decimal.Decimal
}

// TotalDeduction sums every attendance-caused deduction for the day.
func (d DayResult) TotalDeduction() decimal.Decimal {
	return d.LateDeduction.Add(d.AbsenceDeduction).Add(d.PartialDeduction).Add(d.EarlyOutDeduction)
}
