package payroll

import "errors"

var (
	ErrPayrollEntryNotFound  = errors.New("payroll entry not found")
	ErrPayrollEntryExists    = errors.New("an active payroll entry already exists for this employee and period")
	ErrEntryAlreadyReleased  = errors.New("payroll entry already released")
	ErrEntryArchived         = errors.New("payroll entry is archived")
	ErrEntryNotReleased      = errors.New("payroll entry has not been released")
	ErrNothingToArchive      = errors.New("no released payroll entries for this period")
	ErrPeriodInProgress      = errors.New("payroll period has not ended yet")
	ErrDeductionTypeNotFound = errors.New("deduction type not found")
	ErrAttendanceDeduction   = errors.New("attendance deductions are computed from attendance and cannot be applied manually")
	ErrPersonnelNotFound     = errors.New("employee has no personnel record")
	ErrUnsupportedSnapshot   = errors.New("unsupported breakdown snapshot version")
)
