package attendance

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClock struct {
	now time.Time
}

func (c *stubClock) Now() time.Time { return c.now }

type fixture struct {
	store *memory.Store
	clock *stubClock
	svc   attendance.AttendanceService
}

func newFixture(t *testing.T, now time.Time, settings *attendance.Settings) *fixture {
	t.Helper()

	store := memory.NewStore()
	clk := &stubClock{now: now}
	store.SetNow(clk.Now)

	salary := dec("22000")
	store.AddEmployee("emp-1", "Ana Reyes", &salary)
	store.AddEmployee("emp-2", "Ben Cruz", &salary)

	if settings != nil {
		_, err := store.Settings().Upsert(context.Background(), *settings)
		require.NoError(t, err)
	}

	svc := NewAttendanceService(Dependencies{
		Transactor: store,
		Attendance: store.Attendance(),
		Settings:   store.Settings(),
		Holidays:   store.Holidays(),
		Leaves:     store.Leaves(),
		Employees:  store.Employees(),
		Personnel:  store.Personnel(),
		Calendar:   testCal,
		Clock:      clk,
	})
	return &fixture{store: store, clock: clk, svc: svc}
}

func firstHalfSettings() *attendance.Settings {
	s := standardSettings()
	end := date(time.September, 15)
	s.PeriodEnd = &end
	return s
}

func TestAttendanceService_PunchFlow(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(time.September, 8, 9, 10, 0), standardSettings())

	resp, err := f.svc.TimeIn(ctx, attendance.PunchRequest{EmployeeID: "emp-1"})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusLate, resp.Status)
	assert.Equal(t, attendance.StatusLate, resp.StoredStatus)
	assert.Equal(t, "2025-09-08", resp.Date)
	// Nothing is charged for today before the time-out cutoff
	assert.True(t, resp.LateDeduction.IsZero())

	_, err = f.svc.TimeIn(ctx, attendance.PunchRequest{EmployeeID: "emp-1"})
	assert.ErrorIs(t, err, attendance.ErrAlreadyTimedIn)

	_, err = f.svc.TimeOut(ctx, attendance.PunchRequest{EmployeeID: "emp-2"})
	assert.ErrorIs(t, err, attendance.ErrNotTimedIn)

	f.clock.now = at(time.September, 8, 18, 0, 0)
	resp, err = f.svc.TimeOut(ctx, attendance.PunchRequest{EmployeeID: "emp-1"})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusLate, resp.Status)
	require.NotNil(t, resp.TimeOut)
	assert.Equal(t, "2025-09-08 18:00:00", *resp.TimeOut)

	_, err = f.svc.TimeOut(ctx, attendance.PunchRequest{EmployeeID: "emp-1"})
	assert.ErrorIs(t, err, attendance.ErrAlreadyTimedOut)

	// 22000 over the 7 working days elapsed so far, 600 seconds late
	f.clock.now = at(time.September, 8, 18, 0, 1)
	resp, err = f.svc.GetDay(ctx, "emp-1", date(time.September, 8))
	require.NoError(t, err)
	assert.Equal(t, "65.48", resp.LateDeduction.StringFixed(2))
	assert.Equal(t, "65.48", resp.TotalDeduction.StringFixed(2))
}

func TestAttendanceService_ShortDayBecomesPartial(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(time.September, 8, 8, 45, 0), standardSettings())

	_, err := f.svc.TimeIn(ctx, attendance.PunchRequest{EmployeeID: "emp-1"})
	require.NoError(t, err)

	f.clock.now = at(time.September, 8, 10, 45, 0)
	resp, err := f.svc.TimeOut(ctx, attendance.PunchRequest{EmployeeID: "emp-1"})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPartial, resp.Status)
	assert.True(t, resp.PartialDeduction.IsZero())

	f.clock.now = at(time.September, 8, 18, 0, 1)
	resp, err = f.svc.GetDay(ctx, "emp-1", date(time.September, 8))
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPartial, resp.Status)
	assert.True(t, resp.PartialDeduction.IsPositive())
}

func TestAttendanceService_TimeInRejectsValidation(t *testing.T) {
	f := newFixture(t, at(time.September, 8, 9, 0, 0), standardSettings())

	_, err := f.svc.TimeIn(context.Background(), attendance.PunchRequest{})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestAttendanceService_ProvisionPeriodIsIdempotent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(time.September, 1, 0, 5, 0), firstHalfSettings())
	f.store.AddApprovedLeave(attendance.LeaveSpan{
		EmployeeID: "emp-1",
		StartDate:  date(time.September, 3),
		EndDate:    date(time.September, 4),
	})

	res, err := f.svc.ProvisionPeriod(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Employees)
	assert.Equal(t, 13, res.WorkingDays)
	assert.Equal(t, int64(26), res.Created)

	again, err := f.svc.ProvisionPeriod(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), again.Created)

	records, err := f.store.Attendance().ListByDateRange(ctx, date(time.September, 1), date(time.September, 15))
	require.NoError(t, err)
	assert.Len(t, records, 26)

	rec, err := f.store.Attendance().GetByEmployeeAndDate(ctx, "emp-1", date(time.September, 3))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, attendance.StatusOnLeave, rec.Status)

	rec, err = f.store.Attendance().GetByEmployeeAndDate(ctx, "emp-2", date(time.September, 3))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, attendance.StatusPending, rec.Status)
}

func TestAttendanceService_ApplyLeave(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(time.September, 8, 8, 30, 0), standardSettings())

	_, err := f.svc.TimeIn(ctx, attendance.PunchRequest{EmployeeID: "emp-1"})
	require.NoError(t, err)

	req := attendance.ApplyLeaveRequest{EmployeeID: "emp-1", StartDate: "2025-09-08", EndDate: "2025-09-09"}
	for i := 0; i < 2; i++ {
		res, err := f.svc.ApplyLeave(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Days)
	}

	records, err := f.store.Attendance().ListByEmployee(ctx, "emp-1", date(time.September, 8), date(time.September, 9))
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, rec := range records {
		assert.Equal(t, attendance.StatusOnLeave, rec.Status)
		assert.Nil(t, rec.TimeIn)
	}

	_, err = f.svc.TimeOut(ctx, attendance.PunchRequest{EmployeeID: "emp-1"})
	assert.ErrorIs(t, err, attendance.ErrOnLeave)

	f.clock.now = at(time.September, 9, 8, 30, 0)
	_, err = f.svc.TimeIn(ctx, attendance.PunchRequest{EmployeeID: "emp-1"})
	assert.ErrorIs(t, err, attendance.ErrOnLeave)
}

func TestAttendanceService_MarkAbsent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(time.September, 1, 0, 5, 0), firstHalfSettings())
	f.store.AddHoliday(attendance.Holiday{Date: date(time.September, 2), Name: "Founders Day"})

	_, err := f.svc.ProvisionPeriod(ctx)
	require.NoError(t, err)

	// emp-2 works on the 3rd
	f.clock.now = at(time.September, 3, 8, 30, 0)
	_, err = f.svc.TimeIn(ctx, attendance.PunchRequest{EmployeeID: "emp-2"})
	require.NoError(t, err)

	// Past working days 1-6, 8 and 9 less the holiday leave 7 per employee,
	// less emp-2's punch on the 3rd. Today is still before the cutoff.
	f.clock.now = at(time.September, 10, 12, 0, 0)
	res, err := f.svc.MarkAbsent(ctx)
	require.NoError(t, err)
	assert.Equal(t, 13, res.Marked)

	again, err := f.svc.MarkAbsent(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, again.Marked)

	rec, err := f.store.Attendance().GetByEmployeeAndDate(ctx, "emp-1", date(time.September, 2))
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPending, rec.Status)

	rec, err = f.store.Attendance().GetByEmployeeAndDate(ctx, "emp-1", date(time.September, 10))
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPending, rec.Status)

	f.clock.now = at(time.September, 10, 18, 0, 1)
	res, err = f.svc.MarkAbsent(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Marked)
}

func TestAttendanceService_MarkAbsentDisabled(t *testing.T) {
	ctx := context.Background()
	settings := firstHalfSettings()
	settings.AutoMarkAbsent = false
	f := newFixture(t, at(time.September, 1, 0, 5, 0), settings)

	_, err := f.svc.ProvisionPeriod(ctx)
	require.NoError(t, err)

	f.clock.now = at(time.September, 10, 20, 0, 0)
	res, err := f.svc.MarkAbsent(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Marked)
}

func TestAttendanceService_ListPeriodWithoutSettings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(time.September, 1, 0, 5, 0), nil)

	// No settings: provisioning uses the 1st-15th window
	_, err := f.svc.ProvisionPeriod(ctx)
	require.NoError(t, err)

	f.clock.now = at(time.September, 10, 20, 0, 0)
	resp, err := f.svc.ListPeriod(ctx, "emp-1")
	require.NoError(t, err)

	assert.Equal(t, "2025-09-01", resp.PeriodStart)
	assert.Equal(t, "2025-09-15", resp.PeriodEnd)
	assert.Equal(t, "2025-09-10", resp.EffectiveEnd)
	assert.Len(t, resp.Days, 9)
	assert.Len(t, resp.Warnings, 2)
	assert.True(t, resp.TotalDeduction.IsZero())
	for _, d := range resp.Days {
		assert.Equal(t, attendance.StatusPending, d.Status, d.Date)
	}
}

func TestAttendanceService_ListPeriodTotals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(time.September, 1, 0, 5, 0), firstHalfSettings())

	_, err := f.svc.ProvisionPeriod(ctx)
	require.NoError(t, err)

	f.clock.now = at(time.September, 2, 8, 55, 0)
	_, err = f.svc.TimeIn(ctx, attendance.PunchRequest{EmployeeID: "emp-1"})
	require.NoError(t, err)
	f.clock.now = at(time.September, 2, 17, 30, 0)
	_, err = f.svc.TimeOut(ctx, attendance.PunchRequest{EmployeeID: "emp-1"})
	require.NoError(t, err)

	// Two working days elapsed: absent on the 1st, present on the 2nd
	f.clock.now = at(time.September, 2, 20, 0, 0)
	resp, err := f.svc.ListPeriod(ctx, "emp-1")
	require.NoError(t, err)

	require.Len(t, resp.Days, 2)
	assert.Equal(t, attendance.StatusAbsent, resp.Days[0].Status)
	assert.Equal(t, attendance.StatusPresent, resp.Days[1].Status)
	assert.Equal(t, 2, resp.WorkingDays)
	assert.Equal(t, "11000.00", resp.DailyRate.StringFixed(2))
	assert.Equal(t, "11000.00", resp.TotalDeduction.StringFixed(2))
}

func TestAttendanceService_GetDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(time.September, 8, 9, 0, 0), standardSettings())

	_, err := f.svc.GetDay(ctx, "emp-1", date(time.September, 8))
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)

	_, err = f.svc.TimeIn(ctx, attendance.PunchRequest{EmployeeID: "emp-1"})
	require.NoError(t, err)

	resp, err := f.svc.GetDay(ctx, "emp-1", date(time.September, 8))
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusPresent, resp.Status)
}

func TestAttendanceService_Settings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(time.September, 8, 9, 0, 0), nil)

	resp, err := f.svc.GetSettings(ctx)
	require.NoError(t, err)
	assert.False(t, resp.Configured)

	in, out := "08:30", "17:30"
	start, end := "2025-09-16", "2025-09-30"
	yes := true
	resp, err = f.svc.UpdateSettings(ctx, attendance.UpdateSettingsRequest{
		TimeInEnd:      &in,
		TimeOutEnd:     &out,
		PeriodStart:    &start,
		PeriodEnd:      &end,
		AutoMarkAbsent: &yes,
	})
	require.NoError(t, err)
	assert.True(t, resp.Configured)
	require.NotNil(t, resp.TimeInEnd)
	assert.Equal(t, "08:30:00", *resp.TimeInEnd)
	assert.True(t, resp.AutoMarkAbsent)
	assert.False(t, resp.AutoMarkLate)

	// Moving only the end before the stored start is rejected
	early := "2025-09-10"
	_, err = f.svc.UpdateSettings(ctx, attendance.UpdateSettingsRequest{PeriodEnd: &early})
	assert.ErrorIs(t, err, attendance.ErrInvalidPeriod)

	bad := "25:00"
	_, err = f.svc.UpdateSettings(ctx, attendance.UpdateSettingsRequest{TimeInStart: &bad})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)

	resp, err = f.svc.GetSettings(ctx)
	require.NoError(t, err)
	require.NotNil(t, resp.PeriodEnd)
	assert.Equal(t, "2025-09-30", *resp.PeriodEnd)
}

func TestAttendanceService_MissingSalaryComputesZero(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, at(time.September, 8, 9, 30, 0), standardSettings())
	f.store.AddEmployee("emp-3", "Cy Lim", nil)

	resp, err := f.svc.TimeIn(ctx, attendance.PunchRequest{EmployeeID: "emp-3"})
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusLate, resp.Status)
	assert.True(t, resp.LateDeduction.Equal(decimal.Zero))
}
