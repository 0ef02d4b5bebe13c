package attendance

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/clock"
)

var testCal = clock.DefaultCalendar()

// at builds an instant in the organization timezone
func at(month time.Month, day, hour, min, sec int) time.Time {
	return time.Date(2025, month, day, hour, min, sec, 0, testCal.Location())
}

func date(month time.Month, day int) time.Time {
	return at(month, day, 0, 0, 0)
}

func tod(h, m int) *clock.TimeOfDay {
	t := clock.TimeOfDay{Hour: h, Minute: m}
	return &t
}

func timePtr(t time.Time) *time.Time {
	return &t
}

// standardSettings: 08:00-09:00 in, 17:00-18:00 out, both auto-marks on
func standardSettings() *attendance.Settings {
	start := date(time.September, 1)
	end := date(time.September, 25)
	return &attendance.Settings{
		TimeInStart:    tod(8, 0),
		TimeInEnd:      tod(9, 0),
		TimeOutStart:   tod(17, 0),
		TimeOutEnd:     tod(18, 0),
		PeriodStart:    &start,
		PeriodEnd:      &end,
		AutoMarkAbsent: true,
		AutoMarkLate:   true,
	}
}
