package payroll

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BreakdownVersion is bumped whenever the snapshot layout changes.
const BreakdownVersion = 1

// Breakdown is the full computation for one employee in one period.
// Once stored as a snapshot it is never decoded, edited and re-encoded.
type Breakdown struct {
	Version    int       `json:"version"`
	EmployeeID string    `json:"employee_id"`
	ComputedAt time.Time `json:"computed_at"`

	PeriodStart  string          `json:"period_start"`
	PeriodEnd    string          `json:"period_end"`
	EffectiveEnd string          `json:"effective_end"`
	WorkingDays  int             `json:"working_days"`
	PeriodFactor decimal.Decimal `json:"period_factor"`

	MonthlySalary decimal.Decimal `json:"monthly_salary"`
	PeriodSalary  decimal.Decimal `json:"period_salary"`
	DailyRate     decimal.Decimal `json:"daily_rate"`
	PerSecondRate decimal.Decimal `json:"per_second_rate"`
	Overtime      decimal.Decimal `json:"overtime"`
	GrossPay      decimal.Decimal `json:"gross_pay"`

	AttendanceDeductions decimal.Decimal `json:"attendance_deductions"`
	CatalogDeductions    decimal.Decimal `json:"catalog_deductions"`
	LoanPayments         decimal.Decimal `json:"loan_payments"`
	TotalDeductions      decimal.Decimal `json:"total_deductions"`
	NetPay               decimal.Decimal `json:"net_pay"`

	Days       []DayLine       `json:"days"`
	Deductions []DeductionLine `json:"deductions"`
	Loans      []LoanLine      `json:"loans"`

	Warnings    []string `json:"warnings,omitempty"`
	NeedsReview bool     `json:"needs_review"`
}

// DayLine - one attendance day as it was used in the computation
type DayLine struct {
	Date              string          `json:"date"`
	StoredStatus      string          `json:"stored_status,omitempty"`
	Status            string          `json:"status"`
	TimeIn            *time.Time      `json:"time_in,omitempty"`
	TimeOut           *time.Time      `json:"time_out,omitempty"`
	HoursWorked       decimal.Decimal `json:"hours_worked"`
	Earnings          decimal.Decimal `json:"earnings"`
	LateDeduction     decimal.Decimal `json:"late_deduction"`
	AbsenceDeduction  decimal.Decimal `json:"absence_deduction"`
	PartialDeduction  decimal.Decimal `json:"partial_deduction"`
	EarlyOutDeduction decimal.Decimal `json:"early_out_deduction"`
}

// DeductionLine - one catalog deduction included in the total
type DeductionLine struct {
	DeductionID     string            `json:"deduction_id"`
	DeductionTypeID string            `json:"deduction_type_id"`
	Name            string            `json:"name"`
	Category        DeductionCategory `json:"category"`
	Amount          decimal.Decimal   `json:"amount"`
	AppliedAt       time.Time         `json:"applied_at"`
}

// LoanLine - one loan's scheduled payment for the period
type LoanLine struct {
	LoanID                string          `json:"loan_id"`
	Amount                decimal.Decimal `json:"amount"`
	Balance               decimal.Decimal `json:"balance"`
	MonthlyPaymentPercent decimal.Decimal `json:"monthly_payment_percent"`
	Payment               decimal.Decimal `json:"payment"`
}

// Encode serializes the breakdown for storage.
func (b Breakdown) Encode() ([]byte, error) {
	if b.Version == 0 {
		b.Version = BreakdownVersion
	}
	data, err := json.Marshal(b)
	if err != nil {
		return nil, fmt.Errorf("encode breakdown: %w", err)
	}
	return data, nil
}

// DecodeBreakdown parses a stored snapshot.
func DecodeBreakdown(data []byte) (Breakdown, error) {
	var b Breakdown
	if err := json.Unmarshal(data, &b); err != nil {
		return Breakdown{}, fmt.Errorf("decode breakdown: %w", err)
	}
	if b.Version != BreakdownVersion {
		return Breakdown{}, fmt.Errorf("%w: %d", ErrUnsupportedSnapshot, b.Version)
	}
	return b, nil
}
