package attendance

import (
	"sort"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/clock"
	"github.com/shopspring/decimal"
)

const (
	HoursPerDay     = 8
	secondsPerHour  = 3600
	secondsPerShift = HoursPerDay * secondsPerHour
)

// lateCap bounds a late deduction as a fraction of the daily rate
var lateCap = decimal.NewFromFloat(0.5)

// DailyRateForPeriod is monthly salary over the working days of the current
// pay period capped at today. It is the only rate deductions are computed from.
type DailyRateForPeriod struct {
	amount decimal.Decimal
}

func (r DailyRateForPeriod) Amount() decimal.Decimal { return r.amount }

// DailyRateForMonth is monthly salary over the working days of a calendar month.
// Reference figure only; it never enters a deduction.
type DailyRateForMonth struct {
	amount decimal.Decimal
}

func (r DailyRateForMonth) Amount() decimal.Decimal { return r.amount }

// Rates holds the per-period rates derived from one monthly salary.
type Rates struct {
	MonthlySalary decimal.Decimal
	WorkingDays   int
	Daily         DailyRateForPeriod
}

// NewRates derives rates for the period's working days.
func NewRates(monthlySalary decimal.Decimal, period attendance.Period) Rates {
	wd := period.WorkingDays
	if wd <= 0 {
		wd = DefaultWorkingDays
	}
	return Rates{
		MonthlySalary: monthlySalary,
		WorkingDays:   wd,
		Daily:         DailyRateForPeriod{amount: monthlySalary.Div(decimal.NewFromInt(int64(wd)))},
	}
}

// Hourly is the daily rate over an 8-hour shift.
func (r Rates) Hourly() decimal.Decimal {
	return r.forSeconds(secondsPerHour)
}

// PerSecond is salary / working days / 8 / 3600.
func (r Rates) PerSecond() decimal.Decimal {
	return r.forSeconds(1)
}

// forSeconds prices a number of shift seconds with a single division.
func (r Rates) forSeconds(seconds int64) decimal.Decimal {
	if seconds <= 0 {
		return decimal.Zero
	}
	return r.MonthlySalary.Mul(decimal.NewFromInt(seconds)).
		Div(decimal.NewFromInt(int64(r.WorkingDays) * secondsPerShift))
}

// LateDeduction is min(secondsLate x perSecond, 0.5 x daily).
func (r Rates) LateDeduction(secondsLate int64) decimal.Decimal {
	return decimal.Min(r.forSeconds(secondsLate), r.Daily.amount.Mul(lateCap))
}

// AbsenceDeduction is one full daily rate.
func (r Rates) AbsenceDeduction() decimal.Decimal {
	return r.Daily.amount
}

// PartialDeduction is the shortfall against an 8-hour shift at daily / 8 per hour.
func (r Rates) PartialDeduction(secondsWorked int64) decimal.Decimal {
	return r.forSeconds(secondsPerShift - secondsWorked)
}

// EarlyOutDeduction is secondsEarly x perSecond, capped at the daily rate.
func (r Rates) EarlyOutDeduction(secondsEarly int64) decimal.Decimal {
	return decimal.Min(r.forSeconds(secondsEarly), r.Daily.amount)
}

// Earnings is hours worked at daily / 8 per hour.
func (r Rates) Earnings(secondsWorked int64) decimal.Decimal {
	return r.forSeconds(secondsWorked)
}

// MonthlyDailyRate divides by the working days of the calendar month containing month.
func MonthlyDailyRate(monthlySalary decimal.Decimal, cal clock.Calendar, month time.Time) DailyRateForMonth {
	first := cal.StartOfDay(month).AddDate(0, 0, 1-cal.StartOfDay(month).Day())
	last := first.AddDate(0, 1, -1)
	wd := cal.CountWorkingDays(first, last)
	if wd <= 0 {
		wd = DefaultWorkingDays
	}
	return DailyRateForMonth{amount: monthlySalary.Div(decimal.NewFromInt(int64(wd)))}
}

// ComputeDay prices one record with an already derived effective status.
func ComputeDay(rec attendance.Record, status attendance.Status, settings *attendance.Settings, cal clock.Calendar, rates Rates, now time.Time) attendance.DayResult {
	day := cal.Date(rec.Date)
	res := attendance.DayResult{
		Date:              day,
		Status:            status,
		HoursWorked:       decimal.Zero,
		Earnings:          decimal.Zero,
		LateDeduction:     decimal.Zero,
		AbsenceDeduction:  decimal.Zero,
		PartialDeduction:  decimal.Zero,
		EarlyOutDeduction: decimal.Zero,
	}

	switch status {
	case attendance.StatusAbsent:
		res.AbsenceDeduction = rates.AbsenceDeduction()
		return res
	case attendance.StatusPresent, attendance.StatusLate, attendance.StatusPartial:
	default:
		return res
	}
	if rec.TimeIn == nil {
		return res
	}

	timeIn := *rec.TimeIn
	end := now
	if rec.TimeOut != nil {
		end = *rec.TimeOut
	} else if limit := openPunchLimit(timeIn, day, settings, cal); end.After(limit) {
		end = limit
	}
	res.SecondsWorked = wholeSeconds(end.Sub(timeIn))
	res.HoursWorked = decimal.NewFromInt(res.SecondsWorked).Div(decimal.NewFromInt(secondsPerHour))
	res.Earnings = rates.Earnings(res.SecondsWorked)

	if beforeTimeOutCutoff(day, settings, cal, now) {
		return res
	}

	switch status {
	case attendance.StatusLate:
		if settings.LateMarkingEnabled() {
			res.SecondsLate = wholeSeconds(timeIn.Sub(cal.At(day, *settings.TimeInEnd)))
			res.LateDeduction = rates.LateDeduction(res.SecondsLate)
		}
	case attendance.StatusPartial:
		if rec.TimeOut != nil {
			res.PartialDeduction = rates.PartialDeduction(res.SecondsWorked)
		}
		return res
	}

	if rec.TimeOut != nil && settings.EarlyOutEnforced() {
		res.SecondsEarly = wholeSeconds(cal.At(day, *settings.TimeOutStart).Sub(*rec.TimeOut))
		res.EarlyOutDeduction = rates.EarlyOutDeduction(res.SecondsEarly)
	}

	return res
}

// EvaluateDays replays the status engine and calculator over every record
// dated inside [period.Start, period.EffectiveEnd], ordered by date.
func EvaluateDays(records []attendance.Record, settings *attendance.Settings, cal clock.Calendar, period attendance.Period, rates Rates, holidays HolidaySet, now time.Time) ([]attendance.Record, []attendance.DayResult) {
	var used []attendance.Record
	for _, rec := range records {
		if period.Contains(cal.Date(rec.Date)) {
			used = append(used, rec)
		}
	}
	sort.SliceStable(used, func(i, j int) bool {
		return cal.Date(used[i].Date).Before(cal.Date(used[j].Date))
	})

	results := make([]attendance.DayResult, len(used))
	for i, rec := range used {
		day := cal.Date(rec.Date)
		status := EffectiveStatus(rec, settings, cal, now, holidays.Contains(cal, day))
		results[i] = ComputeDay(rec, status, settings, cal, rates, now)
	}
	return used, results
}

// openPunchLimit bounds a time-in that was never closed: the configured
// time-out end, else one shift after time-in, never past the end of the day.
func openPunchLimit(timeIn, day time.Time, settings *attendance.Settings, cal clock.Calendar) time.Time {
	limit := timeIn.Add(secondsPerShift * time.Second)
	if settings != nil && settings.TimeOutEnd != nil {
		if cutoff := cal.At(day, *settings.TimeOutEnd); cutoff.After(timeIn) {
			limit = cutoff
		}
	}
	if eod := cal.EndOfDay(day); limit.After(eod) {
		limit = eod
	}
	return limit
}

// beforeTimeOutCutoff is true for today until the enforced time-out cutoff has passed.
// Deductions for such a day are not charged yet.
func beforeTimeOutCutoff(day time.Time, settings *attendance.Settings, cal clock.Calendar, now time.Time) bool {
	if !cal.SameDay(day, now) || !settings.TimeOutCutoffEnforced() {
		return false
	}
	return !now.After(cal.At(day, *settings.TimeOutEnd))
}

func wholeSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64(d / time.Second)
}
