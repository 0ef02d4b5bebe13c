package payroll

import (
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	attendancesvc "github.com/cmlabs-hris/payroll-engine/internal/service/attendance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func septemberInput(t *testing.T) AggregateInput {
	t.Helper()
	now := at(time.October, 1, 9, 0, 0)
	period, err := attendancesvc.ResolvePeriodFor(date(time.September, 1), date(time.September, 25), testCal, now)
	require.NoError(t, err)

	return AggregateInput{
		EmployeeID: "emp-1",
		Personnel:  payroll.Personnel{EmployeeID: "emp-1", BasicSalary: decPtr("22000")},
		Period:     period,
		Settings:   testSettings(),
		Calendar:   testCal,
		Now:        now,
		Records:    workedRecords("emp-1", date(time.September, 1), date(time.September, 25), 9, 10),
		Overtime:   dec("0"),
	}
}

func TestAggregate_TwoAbsences(t *testing.T) {
	b := Aggregate(septemberInput(t))

	assert.Equal(t, payroll.BreakdownVersion, b.Version)
	assert.Equal(t, 22, b.WorkingDays)
	assert.Equal(t, "1", b.PeriodFactor.String())
	assert.Equal(t, "22000.00", b.GrossPay.StringFixed(2))
	assert.Equal(t, "1000.00", b.DailyRate.StringFixed(2))
	assert.Equal(t, "2000.00", b.AttendanceDeductions.StringFixed(2))
	assert.Equal(t, "2000.00", b.TotalDeductions.StringFixed(2))
	assert.Equal(t, "20000.00", b.NetPay.StringFixed(2))
	assert.Len(t, b.Days, 22)
	assert.False(t, b.NeedsReview)
	assert.Empty(t, b.Warnings)

	absent := 0
	for _, d := range b.Days {
		if d.Status == string(attendance.StatusAbsent) {
			absent++
			assert.Equal(t, string(attendance.StatusPending), d.StoredStatus)
		}
	}
	assert.Equal(t, 2, absent)
}

func TestAggregate_IsDeterministic(t *testing.T) {
	in := septemberInput(t)
	first, err := Aggregate(in).Encode()
	require.NoError(t, err)
	second, err := Aggregate(in).Encode()
	require.NoError(t, err)

	assert.JSONEq(t, string(first), string(second))
}

func TestAggregate_NetPayFloorsAtZero(t *testing.T) {
	in := septemberInput(t)
	in.Deductions = []payroll.Deduction{{
		ID:        "d-1",
		Amount:    dec("30000"),
		Category:  payroll.CategoryMandatory,
		AppliedAt: date(time.August, 1),
	}}

	b := Aggregate(in)
	assert.Equal(t, "32000.00", b.TotalDeductions.StringFixed(2))
	assert.True(t, b.NetPay.IsZero())
}

func TestAggregate_DeductionSelection(t *testing.T) {
	archivedAt := date(time.September, 5)
	in := septemberInput(t)
	in.Deductions = []payroll.Deduction{
		{ID: "mandatory-old", Amount: dec("100"), Category: payroll.CategoryMandatory, AppliedAt: date(time.January, 5)},
		{ID: "discretionary-in", Amount: dec("50"), Category: payroll.CategoryDiscretionary, AppliedAt: date(time.September, 12)},
		{ID: "discretionary-out", Amount: dec("70"), Category: payroll.CategoryDiscretionary, AppliedAt: date(time.August, 28)},
		{ID: "archived", Amount: dec("80"), Category: payroll.CategoryMandatory, AppliedAt: date(time.September, 2), ArchivedAt: &archivedAt},
		{ID: "attendance", Amount: dec("90"), Category: payroll.CategoryAttendanceCaused, AppliedAt: date(time.September, 3)},
	}

	b := Aggregate(in)

	var ids []string
	for _, d := range b.Deductions {
		ids = append(ids, d.DeductionID)
	}
	assert.Equal(t, []string{"mandatory-old", "discretionary-in"}, ids)
	assert.Equal(t, "150.00", b.CatalogDeductions.StringFixed(2))
	assert.Equal(t, "2150.00", b.TotalDeductions.StringFixed(2))
	assert.Equal(t, "19850.00", b.NetPay.StringFixed(2))
}

func TestAggregate_SemiMonthlyLoansAndSalary(t *testing.T) {
	now := at(time.September, 20, 9, 0, 0)
	period, err := attendancesvc.ResolvePeriodFor(date(time.September, 1), date(time.September, 15), testCal, now)
	require.NoError(t, err)

	b := Aggregate(AggregateInput{
		EmployeeID: "emp-1",
		Personnel:  payroll.Personnel{EmployeeID: "emp-1", BasicSalary: decPtr("22000")},
		Period:     period,
		Settings:   testSettings(),
		Calendar:   testCal,
		Now:        now,
		Records:    workedRecords("emp-1", date(time.September, 1), date(time.September, 15)),
		Loans: []payroll.Loan{
			{ID: "loan-1", Amount: dec("10000"), Balance: dec("8000"), MonthlyPaymentPercent: dec("5"), Status: payroll.LoanStatusActive},
			{ID: "loan-2", Amount: dec("5000"), Balance: dec("0"), MonthlyPaymentPercent: dec("10"), Status: payroll.LoanStatusCompleted},
		},
		Overtime: dec("500"),
	})

	assert.Equal(t, "0.5", b.PeriodFactor.String())
	assert.Equal(t, "11000.00", b.PeriodSalary.StringFixed(2))
	assert.Equal(t, "11500.00", b.GrossPay.StringFixed(2))
	require.Len(t, b.Loans, 1)
	assert.Equal(t, "250.00", b.Loans[0].Payment.StringFixed(2))
	assert.Equal(t, "250.00", b.TotalDeductions.StringFixed(2))
	assert.Equal(t, "11250.00", b.NetPay.StringFixed(2))
}

func TestAggregate_MissingSalaryNeedsReview(t *testing.T) {
	in := septemberInput(t)
	in.Personnel = payroll.Personnel{EmployeeID: "emp-1"}

	b := Aggregate(in)
	assert.True(t, b.NeedsReview)
	assert.NotEmpty(t, b.Warnings)
	assert.True(t, b.GrossPay.IsZero())
	assert.True(t, b.NetPay.IsZero())
	assert.True(t, b.AttendanceDeductions.IsZero())
}

func TestAggregate_DefaultedPeriodWarns(t *testing.T) {
	in := septemberInput(t)
	in.Period.Defaulted = true

	b := Aggregate(in)
	assert.Len(t, b.Warnings, 1)
}

func TestComputeDeductionAmount(t *testing.T) {
	fixed := payroll.DeductionType{Kind: payroll.DeductionKindFixed, Value: dec("150")}
	pct := payroll.DeductionType{Kind: payroll.DeductionKindPercentage, Value: dec("4.5")}

	assert.Equal(t, "150.00", ComputeDeductionAmount(fixed, dec("22000")).StringFixed(2))
	assert.Equal(t, "990.00", ComputeDeductionAmount(pct, dec("22000")).StringFixed(2))
}
