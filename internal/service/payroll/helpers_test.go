package payroll

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/clock"
	"github.com/shopspring/decimal"
)

var testCal = clock.DefaultCalendar()

func at(month time.Month, day, hour, min, sec int) time.Time {
	return time.Date(2025, month, day, hour, min, sec, 0, testCal.Location())
}

func date(month time.Month, day int) time.Time {
	return at(month, day, 0, 0, 0)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func strPtr(s string) *string {
	return &s
}

func timeOfDay(h, m int) *clock.TimeOfDay {
	return &clock.TimeOfDay{Hour: h, Minute: m}
}

func testSettings() *attendance.Settings {
	start := date(time.September, 1)
	end := date(time.September, 25)
	return &attendance.Settings{
		TimeInStart:    timeOfDay(8, 0),
		TimeInEnd:      timeOfDay(9, 0),
		TimeOutStart:   timeOfDay(17, 0),
		TimeOutEnd:     timeOfDay(18, 0),
		PeriodStart:    &start,
		PeriodEnd:      &end,
		AutoMarkAbsent: true,
		AutoMarkLate:   true,
	}
}

// workedRecords returns an on-time 08:30-17:30 day for every working day in
// [from, to] except the listed absences, which stay PENDING without punches.
func workedRecords(employeeID string, from, to time.Time, absent ...int) []attendance.Record {
	skip := make(map[int]bool, len(absent))
	for _, d := range absent {
		skip[d] = true
	}

	var records []attendance.Record
	for _, day := range testCal.WorkingDays(from, to) {
		rec := attendance.Record{EmployeeID: employeeID, Date: day, Status: attendance.StatusPending}
		if !skip[day.Day()] {
			in := testCal.At(day, clock.TimeOfDay{Hour: 8, Minute: 30})
			out := testCal.At(day, clock.TimeOfDay{Hour: 17, Minute: 30})
			rec.TimeIn = &in
			rec.TimeOut = &out
			rec.Status = attendance.StatusPresent
		}
		records = append(records, rec)
	}
	return records
}
