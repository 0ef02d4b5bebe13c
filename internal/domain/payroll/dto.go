package payroll

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// ========== COMPUTATION DTOs ==========

// ComputeRequest selects an employee and an optional explicit period.
// When both dates are omitted the configured attendance period is used.
type ComputeRequest struct {
	EmployeeID  string           `json:"employee_id"`
	PeriodStart *string          `json:"period_start,omitempty"`
	PeriodEnd   *string          `json:"period_end,omitempty"`
	Overtime    *decimal.Decimal `json:"overtime,omitempty"`
}

func (r *ComputeRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	if (r.PeriodStart == nil) != (r.PeriodEnd == nil) {
		errs = append(errs, validator.ValidationError{Field: "period_end", Message: "period_start and period_end must be given together"})
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
	if r.Overtime != nil && !validator.IsNonNegative(*r.Overtime) {
		errs = append(errs, validator.ValidationError{Field: "overtime", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ========== ENTRY DTOs ==========

type EntryResponse struct {
	ID           string          `json:"id"`
	EmployeeID   string          `json:"employee_id"`
	EmployeeName *string         `json:"employee_name,omitempty"`
	PeriodStart  string          `json:"period_start"`
	PeriodEnd    string          `json:"period_end"`
	Status       EntryStatus     `json:"status"`
	BasicSalary  decimal.Decimal `json:"basic_salary"`
	Overtime     decimal.Decimal `json:"overtime"`
	Deductions   decimal.Decimal `json:"deductions"`
	NetPay       decimal.Decimal `json:"net_pay"`
	ProcessedAt  string          `json:"processed_at"`
	ReleasedAt   *string         `json:"released_at,omitempty"`
	ArchivedAt   *string         `json:"archived_at,omitempty"`

	// Live is true when the breakdown was recomputed for this read
	Live      bool      `json:"live"`
	Breakdown Breakdown `json:"breakdown"`
}

type EntryFilter struct {
	EmployeeID  *string      `json:"employee_id,omitempty"`
	Status      *EntryStatus `json:"status,omitempty"`
	PeriodStart *time.Time   `json:"period_start,omitempty"`
	PeriodEnd   *time.Time   `json:"period_end,omitempty"`
}

type ArchivePeriodRequest struct {
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

func (r *ArchivePeriodRequest) Validate() error {
	var errs validator.ValidationErrors

	start, startOK := validator.IsValidDate(r.PeriodStart)
	if !startOK {
		errs = append(errs, validator.ValidationError{Field: "period_start", Message: "must be YYYY-MM-DD"})
	}
	end, endOK := validator.IsValidDate(r.PeriodEnd)
	if !endOK {
		errs = append(errs, validator.ValidationError{Field: "period_end", Message: "must be YYYY-MM-DD"})
	}
	if startOK && endOK && end.Before(start) {
		errs = append(errs, validator.ValidationError{Field: "period_end", Message: "must not be before period_start"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ArchivePeriodResult struct {
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
	Archived    int64  `json:"archived"`
}

// ========== DEDUCTION DTOs ==========

type ApplyDeductionRequest struct {
	EmployeeID      string  `json:"employee_id"`
	DeductionTypeID string  `json:"deduction_type_id"`
	AppliedAt       *string `json:"applied_at,omitempty"` // YYYY-MM-DD, defaults to today
}

func (r *ApplyDeductionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	if validator.IsEmpty(r.DeductionTypeID) {
		errs = append(errs, validator.ValidationError{Field: "deduction_type_id", Message: "deduction_type_id is required"})
	}
	if r.AppliedAt != nil {
		if _, ok := validator.IsValidDate(*r.AppliedAt); !ok {
			errs = append(errs, validator.ValidationError{Field: "applied_at", Message: "must be YYYY-MM-DD"})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type DeductionResponse struct {
	ID              string            `json:"id"`
	EmployeeID      string            `json:"employee_id"`
	DeductionTypeID string            `json:"deduction_type_id"`
	Name            string            `json:"name"`
	Category        DeductionCategory `json:"category"`
	Amount          decimal.Decimal   `json:"amount"`
	AppliedAt       string            `json:"applied_at"`
	ArchivedAt      *string           `json:"archived_at,omitempty"`
}

// ========== MAPPERS ==========

func formatTimestamp(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}

// ToEntryResponse maps an entry and the breakdown served for it.
func ToEntryResponse(e Entry, b Breakdown, live bool) EntryResponse {
	return EntryResponse{
		ID:           e.ID,
		EmployeeID:   e.EmployeeID,
		EmployeeName: e.EmployeeName,
		PeriodStart:  e.PeriodStart.Format("2006-01-02"),
		PeriodEnd:    e.PeriodEnd.Format("2006-01-02"),
		Status:       e.Status,
		BasicSalary:  e.BasicSalary,
		Overtime:     e.Overtime,
		Deductions:   e.Deductions,
		NetPay:       e.NetPay,
		ProcessedAt:  e.ProcessedAt.Format(time.RFC3339),
		ReleasedAt:   formatTimestamp(e.ReleasedAt),
		ArchivedAt:   formatTimestamp(e.ArchivedAt),
		Live:         live,
		Breakdown:    b,
	}
}

func ToDeductionResponse(d Deduction) DeductionResponse {
	return DeductionResponse{
		ID:              d.ID,
		EmployeeID:      d.EmployeeID,
		DeductionTypeID: d.DeductionTypeID,
		Name:            d.TypeName,
		Category:        d.Category,
		Amount:          d.Amount,
		AppliedAt:       d.AppliedAt.Format("2006-01-02"),
		ArchivedAt:      formatTimestamp(d.ArchivedAt),
	}
}
