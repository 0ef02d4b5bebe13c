package payroll

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/clock"
	attendancesvc "github.com/cmlabs-hris/payroll-engine/internal/service/attendance"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// AggregateInput is everything one employee's period computation reads.
type AggregateInput struct {
	EmployeeID string
	Personnel  payroll.Personnel
	Period     attendance.Period
	Settings   *attendance.Settings
	Calendar   clock.Calendar
	Now        time.Time

	Records    []attendance.Record
	Holidays   []attendance.Holiday
	Deductions []payroll.Deduction
	Loans      []payroll.Loan
	Overtime   decimal.Decimal

	Warnings []string
}

// Aggregate combines attendance, catalog and loan deductions into gross and net pay.
// It reads nothing but its input, so equal inputs give equal breakdowns.
func Aggregate(in AggregateInput) payroll.Breakdown {
	b := payroll.Breakdown{
		Version:      payroll.BreakdownVersion,
		EmployeeID:   in.EmployeeID,
		ComputedAt:   in.Now,
		PeriodStart:  in.Calendar.DateKey(in.Period.Start),
		PeriodEnd:    in.Calendar.DateKey(in.Period.End),
		EffectiveEnd: in.Calendar.DateKey(in.Period.EffectiveEnd),
		WorkingDays:  in.Period.WorkingDays,
		Days:         []payroll.DayLine{},
		Deductions:   []payroll.DeductionLine{},
		Loans:        []payroll.LoanLine{},
		Warnings:     append([]string(nil), in.Warnings...),
	}

	salary, ok := in.Personnel.MonthlySalary()
	if !ok {
		b.NeedsReview = true
		b.Warnings = append(b.Warnings, "employee has no personnel type or basic salary; computed as zero")
	}
	if in.Period.Defaulted {
		b.Warnings = append(b.Warnings, "no pay period configured; using the current semi-monthly window")
	}

	factor := attendancesvc.PeriodFactor(in.Period)
	periodSalary := salary.Mul(factor)
	rates := attendancesvc.NewRates(salary, in.Period)

	// Attendance deductions, replayed live from records
	attendanceTotal := decimal.Zero
	used, results := attendancesvc.EvaluateDays(in.Records, in.Settings, in.Calendar, in.Period, rates,
		attendancesvc.NewHolidaySet(in.Calendar, in.Holidays), in.Now)
	for i, rec := range used {
		res := results[i]
		attendanceTotal = attendanceTotal.Add(res.TotalDeduction())
		b.Days = append(b.Days, payroll.DayLine{
			Date:              in.Calendar.DateKey(res.Date),
			StoredStatus:      string(rec.Status),
			Status:            string(res.Status),
			TimeIn:            rec.TimeIn,
			TimeOut:           rec.TimeOut,
			HoursWorked:       res.HoursWorked.Round(2),
			Earnings:          res.Earnings.Round(2),
			LateDeduction:     res.LateDeduction.Round(2),
			AbsenceDeduction:  res.AbsenceDeduction.Round(2),
			PartialDeduction:  res.PartialDeduction.Round(2),
			EarlyOutDeduction: res.EarlyOutDeduction.Round(2),
		})
	}

	// Catalog deductions; attendance-caused types never count here
	catalogTotal := decimal.Zero
	for _, d := range in.Deductions {
		if !includeDeduction(d, in.Period, in.Calendar) {
			continue
		}
		catalogTotal = catalogTotal.Add(d.Amount)
		b.Deductions = append(b.Deductions, payroll.DeductionLine{
			DeductionID:     d.ID,
			DeductionTypeID: d.DeductionTypeID,
			Name:            d.TypeName,
			Category:        d.Category,
			Amount:          d.Amount.Round(2),
			AppliedAt:       d.AppliedAt,
		})
	}

	// Scheduled loan payments, prorated like salary
	loanTotal := decimal.Zero
	for _, l := range in.Loans {
		if l.Status != payroll.LoanStatusActive {
			continue
		}
		payment := LoanPayment(l, factor)
		loanTotal = loanTotal.Add(payment)
		b.Loans = append(b.Loans, payroll.LoanLine{
			LoanID:                l.ID,
			Amount:                l.Amount,
			Balance:               l.Balance,
			MonthlyPaymentPercent: l.MonthlyPaymentPercent,
			Payment:               payment.Round(2),
		})
	}

	gross := periodSalary.Add(in.Overtime)
	total := attendanceTotal.Add(catalogTotal).Add(loanTotal)
	net := gross.Sub(total)
	if net.IsNegative() {
		net = decimal.Zero
	}

	b.PeriodFactor = factor
	b.MonthlySalary = salary.Round(2)
	b.PeriodSalary = periodSalary.Round(2)
	b.DailyRate = rates.Daily.Amount().Round(2)
	b.PerSecondRate = rates.PerSecond().Round(6)
	b.Overtime = in.Overtime.Round(2)
	b.GrossPay = gross.Round(2)
	b.AttendanceDeductions = attendanceTotal.Round(2)
	b.CatalogDeductions = catalogTotal.Round(2)
	b.LoanPayments = loanTotal.Round(2)
	b.TotalDeductions = total.Round(2)
	b.NetPay = net.Round(2)

	return b
}

func includeDeduction(d payroll.Deduction, period attendance.Period, cal clock.Calendar) bool {
	if d.ArchivedAt != nil {
		return false
	}
	switch d.Category {
	case payroll.CategoryMandatory:
		return true
	case payroll.CategoryDiscretionary:
		return period.Contains(cal.Date(d.AppliedAt))
	}
	return false
}

// LoanPayment is amount x monthlyPaymentPercent / 100 x periodFactor.
func LoanPayment(l payroll.Loan, factor decimal.Decimal) decimal.Decimal {
	return l.Amount.Mul(l.MonthlyPaymentPercent).Div(hundred).Mul(factor)
}

// ComputeDeductionAmount snapshots a catalog type into an amount for one employee.
func ComputeDeductionAmount(t payroll.DeductionType, basicSalary decimal.Decimal) decimal.Decimal {
	if t.Kind == payroll.DeductionKindPercentage {
		return basicSalary.Mul(t.Value).Div(hundred)
	}
	return t.Value
}
