package attendance

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/clock"
)

// PartialDayThresholdHours is the worked-hours floor below which a completed day is PARTIAL
const PartialDayThresholdHours = 4

// HolidaySet indexes holidays by calendar day
type HolidaySet map[string]struct{}

func NewHolidaySet(cal clock.Calendar, holidays []attendance.Holiday) HolidaySet {
	set := make(HolidaySet, len(holidays))
	for _, h := range holidays {
		set[cal.DateKey(cal.Date(h.Date))] = struct{}{}
	}
	return set
}

func (h HolidaySet) Contains(cal clock.Calendar, day time.Time) bool {
	_, ok := h[cal.DateKey(day)]
	return ok
}

// ClassifyTimeIn returns LATE for a punch strictly after the time-in cutoff, else PRESENT.
func ClassifyTimeIn(settings *attendance.Settings, cal clock.Calendar, date, timeIn time.Time) attendance.Status {
	if settings.LateMarkingEnabled() && timeIn.After(cal.At(date, *settings.TimeInEnd)) {
		return attendance.StatusLate
	}
	return attendance.StatusPresent
}

// ClassifyTimeOut downgrades a completed day to PARTIAL when too few hours were worked.
func ClassifyTimeOut(current attendance.Status, timeIn, timeOut time.Time) attendance.Status {
	if timeOut.Sub(timeIn) < PartialDayThresholdHours*time.Hour {
		return attendance.StatusPartial
	}
	return current
}

// EffectiveStatus derives the status of a record at instant now.
// Every read of a status goes through here.
func EffectiveStatus(rec attendance.Record, settings *attendance.Settings, cal clock.Calendar, now time.Time, holiday bool) attendance.Status {
	day := cal.Date(rec.Date)

	switch rec.Status {
	case attendance.StatusOnLeave, attendance.StatusNonWorking:
		return rec.Status
	}
	if holiday || !cal.IsWorkingDay(day) {
		return attendance.StatusNonWorking
	}

	if rec.TimeIn != nil {
		status := ClassifyTimeIn(settings, cal, day, *rec.TimeIn)
		if rec.TimeOut != nil {
			status = ClassifyTimeOut(status, *rec.TimeIn, *rec.TimeOut)
		}
		if rec.Status == attendance.StatusPartial {
			status = attendance.StatusPartial
		}
		return status
	}

	today := cal.StartOfDay(now)
	switch {
	case day.After(today):
		return attendance.StatusPending
	case day.Equal(today):
		if settings.AbsentMarkingEnabled() && now.After(cal.At(day, *settings.TimeOutEnd)) {
			return attendance.StatusAbsent
		}
		return attendance.StatusPending
	}

	// Past day without a punch
	if settings.AbsentMarkingEnabled() {
		return attendance.StatusAbsent
	}
	if rec.Status == attendance.StatusAbsent && settings != nil && !settings.TimeOutCutoffDisabled {
		return attendance.StatusAbsent
	}
	return attendance.StatusPending
}
