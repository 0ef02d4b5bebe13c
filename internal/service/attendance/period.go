package attendance

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/clock"
	"github.com/shopspring/decimal"
)

const (
	// DefaultWorkingDays is the divisor used when a period has no countable working day
	DefaultWorkingDays = 22

	// SemiMonthlyMaxDays is the longest period still paid at half the monthly salary
	SemiMonthlyMaxDays = 16
)

// ResolvePeriod returns the configured pay period, or the current semi-monthly
// window flagged as Defaulted when settings carry no period.
func ResolvePeriod(settings *attendance.Settings, cal clock.Calendar, now time.Time) (attendance.Period, error) {
	if settings == nil || settings.PeriodStart == nil || settings.PeriodEnd == nil {
		start, end := SemiMonthlyWindow(cal, now)
		p, err := ResolvePeriodFor(start, end, cal, now)
		if err != nil {
			return attendance.Period{}, err
		}
		p.Defaulted = true
		return p, nil
	}
	return ResolvePeriodFor(cal.Date(*settings.PeriodStart), cal.Date(*settings.PeriodEnd), cal, now)
}

// ResolvePeriodFor resolves the calendar days [start, end], capping the effective
// end at the end of today.
func ResolvePeriodFor(start, end time.Time, cal clock.Calendar, now time.Time) (attendance.Period, error) {
	startDay := cal.StartOfDay(start)
	endDay := cal.EndOfDay(end)
	if endDay.Before(startDay) {
		return attendance.Period{}, attendance.ErrInvalidPeriod
	}

	effective := endDay
	if today := cal.EndOfDay(now); today.Before(effective) {
		effective = today
	}

	workingDays := 0
	if !effective.Before(startDay) {
		workingDays = cal.CountWorkingDays(startDay, effective)
	}
	if workingDays <= 0 {
		workingDays = DefaultWorkingDays
	}

	return attendance.Period{
		Start:        startDay,
		End:          endDay,
		EffectiveEnd: effective,
		WorkingDays:  workingDays,
		LengthDays:   cal.DaysInclusive(startDay, endDay),
	}, nil
}

// SemiMonthlyWindow returns the 1st-15th or 16th-end-of-month window containing now.
func SemiMonthlyWindow(cal clock.Calendar, now time.Time) (time.Time, time.Time) {
	today := cal.StartOfDay(now)
	y, m, d := today.Date()
	if d <= 15 {
		return time.Date(y, m, 1, 0, 0, 0, 0, cal.Location()), time.Date(y, m, 15, 0, 0, 0, 0, cal.Location())
	}
	lastDay := time.Date(y, m+1, 0, 0, 0, 0, 0, cal.Location())
	return time.Date(y, m, 16, 0, 0, 0, 0, cal.Location()), lastDay
}

// PeriodFactor prorates monthly amounts to the configured period length.
func PeriodFactor(p attendance.Period) decimal.Decimal {
	if p.LengthDays <= SemiMonthlyMaxDays {
		return decimal.NewFromFloat(0.5)
	}
	return decimal.NewFromInt(1)
}
