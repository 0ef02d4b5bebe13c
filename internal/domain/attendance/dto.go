package attendance

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========================================
// SETTINGS DTOs
// ========================================

type SettingsResponse struct {
	ID                    string  `json:"id,omitempty"`
	TimeInStart           *string `json:"time_in_start,omitempty"`
	TimeInEnd             *string `json:"time_in_end,omitempty"`
	TimeOutStart          *string `json:"time_out_start,omitempty"`
	TimeOutEnd            *string `json:"time_out_end,omitempty"`
	TimeInCutoffDisabled  bool    `json:"time_in_cutoff_disabled"`
	TimeOutCutoffDisabled bool    `json:"time_out_cutoff_disabled"`
	PeriodStart           *string `json:"period_start,omitempty"`
	PeriodEnd             *string `json:"period_end,omitempty"`
	AutoMarkAbsent        bool    `json:"auto_mark_absent"`
	AutoMarkLate          bool    `json:"auto_mark_late"`
	Configured            bool    `json:"configured"`
}

type UpdateSettingsRequest struct {
	TimeInStart           *string `json:"time_in_start,omitempty"`
	TimeInEnd             *string `json:"time_in_end,omitempty"`
	TimeOutStart          *string `json:"time_out_start,omitempty"`
	TimeOutEnd            *string `json:"time_out_end,omitempty"`
	TimeInCutoffDisabled  *bool   `json:"time_in_cutoff_disabled,omitempty"`
	TimeOutCutoffDisabled *bool   `json:"time_out_cutoff_disabled,omitempty"`
	PeriodStart           *string `json:"period_start,omitempty"`
	PeriodEnd             *string `json:"period_end,omitempty"`
	AutoMarkAbsent        *bool   `json:"auto_mark_absent,omitempty"`
	AutoMarkLate          *bool   `json:"auto_mark_late,omitempty"`
}

func (r *UpdateSettingsRequest) Validate() error {
	var errs validator.ValidationErrors

	windows := []struct {
		field string
		value *string
	}{
		{"time_in_start", r.TimeInStart},
		{"time_in_end", r.TimeInEnd},
		{"time_out_start", r.TimeOutStart},
		{"time_out_end", r.TimeOutEnd},
	}
	for _, w := range windows {
		if w.value != nil && !validator.IsValidTimeOfDay(*w.value) {
			errs = append(errs, validator.ValidationError{Field: w.field, Message: "must be HH:MM or HH:MM:SS"})
		}
	}

	var start, end time.Time
	var startOK, endOK bool
	if r.PeriodStart != nil {
		if start, startOK = validator.IsValidDate(*r.PeriodStart); !startOK {
			errs = append(errs, validator.ValidationError{Field: "period_start", Message: "must be YYYY-MM-DD"})
		}
	}
	if r.PeriodEnd != nil {
		if end, endOK = validator.IsValidDate(*r.PeriodEnd); !endOK {
			errs = append(errs, validator.ValidationError{Field: "period_end", Message: "must be YYYY-MM-DD"})
		}
	}
	if startOK && endOK && end.Before(start) {
		errs = append(errs, validator.ValidationError{Field: "period_end", Message: "must not be before period_start"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========================================
// PUNCH DTOs
// ========================================

type PunchRequest struct {
	EmployeeID string `json:"employee_id"`
}

func (r *PunchRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{
			Field:   "employee_id",
			Message: "employee_id is required",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RecordResponse struct {
	ID                string          `json:"id,omitempty"`
	EmployeeID        string          `json:"employee_id"`
	Date              string          `json:"date"`
	StoredStatus      Status          `json:"stored_status,omitempty"`
	Status            Status          `json:"status"`
	TimeIn            *string         `json:"time_in,omitempty"`
	TimeOut           *string         `json:"time_out,omitempty"`
	HoursWorked       decimal.Decimal `json:"hours_worked"`
	Earnings          decimal.Decimal `json:"earnings"`
	LateDeduction     decimal.Decimal `json:"late_deduction"`
	AbsenceDeduction  decimal.Decimal `json:"absence_deduction"`
	PartialDeduction  decimal.Decimal `json:"partial_deduction"`
	EarlyOutDeduction decimal.Decimal `json:"early_out_deduction"`
	TotalDeduction    decimal.Decimal `json:"total_deduction"`
}

type PeriodAttendanceResponse struct {
	EmployeeID     string           `json:"employee_id"`
	PeriodStart    string           `json:"period_start"`
	PeriodEnd      string           `json:"period_end"`
	EffectiveEnd   string           `json:"effective_end"`
	WorkingDays    int              `json:"working_days"`
	DailyRate      decimal.Decimal  `json:"daily_rate"`
	Days           []RecordResponse `json:"days"`
	TotalEarnings  decimal.Decimal  `json:"total_earnings"`
	TotalDeduction decimal.Decimal  `json:"total_deduction"`
	Warnings       []string         `json:"warnings,omitempty"`
}

// ========================================
// BATCH DTOs
// ========================================

type ProvisionResult struct {
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	Employees   int    `json:"employees"`
	WorkingDays int    `json:"working_days"`
	Created     int64  `json:"created"`
}

type MarkAbsentResult struct {
	Marked int `json:"marked"`
}

type ApplyLeaveRequest struct {
	EmployeeID string `json:"employee_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

func (r *ApplyLeaveRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs = append(errs, validator.ValidationError{Field: "start_date", Message: "must be YYYY-MM-DD"})
	}
	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "must be YYYY-MM-DD"})
	}
	if startOK && endOK && end.Before(start) {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "must not be before start_date"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ApplyLeaveResult struct {
	EmployeeID string `json:"employee_id"`
	Days       int    `json:"days"`
}

// ========================================
// MAPPERS
// ========================================

func timeOfDayPtrToString(t *clock.TimeOfDay) *string {
	if t == nil {
		return nil
	}
	s := t.String()
	return &s
}

func datePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format("2006-01-02")
	return &s
}

// ToSettingsResponse maps stored settings to their API shape.
func ToSettingsResponse(s Settings, configured bool) SettingsResponse {
	return SettingsResponse{
		ID:                    s.ID,
		TimeInStart:           timeOfDayPtrToString(s.TimeInStart),
		TimeInEnd:             timeOfDayPtrToString(s.TimeInEnd),
		TimeOutStart:          timeOfDayPtrToString(s.TimeOutStart),
		TimeOutEnd:            timeOfDayPtrToString(s.TimeOutEnd),
		TimeInCutoffDisabled:  s.TimeInCutoffDisabled,
		TimeOutCutoffDisabled: s.TimeOutCutoffDisabled,
		PeriodStart:           datePtrToString(s.PeriodStart),
		PeriodEnd:             datePtrToString(s.PeriodEnd),
		AutoMarkAbsent:        s.AutoMarkAbsent,
		AutoMarkLate:          s.AutoMarkLate,
		Configured:            configured,
	}
}
