package clock

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Clock is the instant source used by every live computation.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock always returns the same instant. Used by tests and replays.
type FixedClock struct {
	At time.Time
}

func (f FixedClock) Now() time.Time { return f.At }

// Calendar resolves day boundaries and working days in the organization's fixed timezone.
type Calendar struct {
	loc    *time.Location
	offDay time.Weekday
}

// NewCalendar builds a calendar for a fixed UTC offset, e.g. 8 for Philippines time.
func NewCalendar(offsetHours int, offDay time.Weekday) Calendar {
	name := fmt.Sprintf("UTC%+d", offsetHours)
	return Calendar{
		loc:    time.FixedZone(name, offsetHours*3600),
		offDay: offDay,
	}
}

// DefaultCalendar is UTC+8 with Sunday off.
func DefaultCalendar() Calendar {
	return NewCalendar(8, time.Sunday)
}

func (c Calendar) Location() *time.Location { return c.loc }

func (c Calendar) OffDay() time.Weekday { return c.offDay }

// Now returns the clock's instant expressed in the organization timezone.
func (c Calendar) Now(clk Clock) time.Time {
	return clk.Now().In(c.loc)
}

func (c Calendar) StartOfDay(t time.Time) time.Time {
	local := t.In(c.loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, c.loc)
}

// EndOfDay returns the last representable instant of t's day.
func (c Calendar) EndOfDay(t time.Time) time.Time {
	return c.StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

func (c Calendar) SameDay(a, b time.Time) bool {
	return c.StartOfDay(a).Equal(c.StartOfDay(b))
}

// IsWorkingDay is false only on the weekly off-day. Holidays are handled by callers.
func (c Calendar) IsWorkingDay(t time.Time) bool {
	return t.In(c.loc).Weekday() != c.offDay
}

// Days returns the start of every day in [from, to].
func (c Calendar) Days(from, to time.Time) []time.Time {
	var days []time.Time
	end := c.StartOfDay(to)
	for d := c.StartOfDay(from); !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// WorkingDays returns the start of every working day in [from, to].
func (c Calendar) WorkingDays(from, to time.Time) []time.Time {
	var days []time.Time
	for _, d := range c.Days(from, to) {
		if c.IsWorkingDay(d) {
			days = append(days, d)
		}
	}
	return days
}

func (c Calendar) CountWorkingDays(from, to time.Time) int {
	return len(c.WorkingDays(from, to))
}

// DaysInclusive counts calendar days in [from, to]; zero when to precedes from.
func (c Calendar) DaysInclusive(from, to time.Time) int {
	return len(c.Days(from, to))
}

// At places a time of day on the given calendar day.
func (c Calendar) At(day time.Time, tod TimeOfDay) time.Time {
	start := c.StartOfDay(day)
	return time.Date(start.Year(), start.Month(), start.Day(), tod.Hour, tod.Minute, tod.Second, 0, c.loc)
}

// Date reinterprets the calendar date of t (as stored in a DATE column) as a day in this calendar.
func (c Calendar) Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, c.loc)
}

// DateKey formats the calendar day of t, the day-granularity key of attendance records.
func (c Calendar) DateKey(t time.Time) string {
	return t.In(c.loc).Format("2006-01-02")
}

// ParseDate parses YYYY-MM-DD as a day in the calendar's timezone.
func (c Calendar) ParseDate(v string) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", v, c.loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD: %w", v, err)
	}
	return t, nil
}

// ParseWeekday accepts english weekday names, case-insensitive.
func ParseWeekday(v string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), strings.TrimSpace(v)) {
			return d, nil
		}
	}
	return time.Sunday, fmt.Errorf("invalid weekday %q", v)
}

// TimeOfDay is a wall-clock time without a date, e.g. a time-in window bound.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTimeOfDay parses HH:MM or HH:MM:SS.
func ParseTimeOfDay(v string) (TimeOfDay, error) {
	v = strings.TrimSpace(v)
	layouts := []string{"15:04:05", "15:04"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, v); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("invalid time of day %q, expected HH:MM or HH:MM:SS", v)
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
