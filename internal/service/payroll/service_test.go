package payroll

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/memory"
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
	svc   payroll.PayrollService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := memory.NewStore()
	clk := &stubClock{now: at(time.October, 1, 9, 0, 0)}
	store.SetNow(clk.Now)

	store.AddEmployee("emp-1", "Ana Reyes", decPtr("22000"))
	_, err := store.Settings().Upsert(ctx, *testSettings())
	require.NoError(t, err)
	_, err = store.Attendance().BulkCreateIfAbsent(ctx, workedRecords("emp-1", date(time.September, 1), date(time.September, 25), 9, 10))
	require.NoError(t, err)

	svc := NewPayrollService(Dependencies{
		Transactor: store,
		Entries:    store.Entries(),
		Deductions: store.Deductions(),
		Loans:      store.Loans(),
		Personnel:  store.Personnel(),
		Attendance: store.Attendance(),
		Settings:   store.Settings(),
		Holidays:   store.Holidays(),
		Calendar:   testCal,
		Clock:      clk,
	})
	return &fixture{store: store, clock: clk, svc: svc}
}

func septemberRequest() payroll.ComputeRequest {
	return payroll.ComputeRequest{
		EmployeeID:  "emp-1",
		PeriodStart: strPtr("2025-09-01"),
		PeriodEnd:   strPtr("2025-09-25"),
	}
}

// punch turns the absence on the given September day into a worked day
func (f *fixture) punch(t *testing.T, day int) {
	t.Helper()
	ctx := context.Background()

	rec, err := f.store.Attendance().GetByEmployeeAndDate(ctx, "emp-1", date(time.September, day))
	require.NoError(t, err)
	require.NotNil(t, rec)
	in := testCal.At(rec.Date, clock.TimeOfDay{Hour: 8, Minute: 45})
	out := testCal.At(rec.Date, clock.TimeOfDay{Hour: 17, Minute: 45})
	rec.TimeIn, rec.TimeOut = &in, &out
	rec.Status = attendance.StatusPresent
	require.NoError(t, f.store.Attendance().UpdatePunches(ctx, *rec))
}

func TestPayrollService_Preview(t *testing.T) {
	f := newFixture(t)

	b, err := f.svc.Preview(context.Background(), septemberRequest())
	require.NoError(t, err)
	assert.Equal(t, "20000.00", b.NetPay.StringFixed(2))

	// Without explicit dates the configured period applies
	b, err = f.svc.Preview(context.Background(), payroll.ComputeRequest{EmployeeID: "emp-1"})
	require.NoError(t, err)
	assert.Equal(t, "2025-09-01", b.PeriodStart)
	assert.Equal(t, "2025-09-25", b.PeriodEnd)
	assert.Equal(t, "20000.00", b.NetPay.StringFixed(2))
}

func TestPayrollService_PreviewValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Preview(context.Background(), payroll.ComputeRequest{EmployeeID: "emp-1", PeriodStart: strPtr("2025-09-01")})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestPayrollService_ReleaseFreezesSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	draft, err := f.svc.CreateDraft(ctx, septemberRequest())
	require.NoError(t, err)
	assert.Equal(t, payroll.EntryStatusPending, draft.Status)
	assert.True(t, draft.Live)
	assert.Equal(t, "20000.00", draft.NetPay.StringFixed(2))

	// Drafts follow attendance edits
	f.punch(t, 9)
	live, err := f.svc.GetEntry(ctx, draft.ID)
	require.NoError(t, err)
	assert.True(t, live.Live)
	assert.Equal(t, "21000.00", live.NetPay.StringFixed(2))

	released, err := f.svc.Release(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.EntryStatusReleased, released.Status)
	assert.False(t, released.Live)
	assert.NotNil(t, released.ReleasedAt)
	assert.Equal(t, "21000.00", released.NetPay.StringFixed(2))
	assert.Equal(t, "21000.00", released.Breakdown.NetPay.StringFixed(2))

	// Released entries ignore later attendance edits
	f.punch(t, 10)
	f.clock.now = at(time.October, 5, 9, 0, 0)
	frozen, err := f.svc.GetEntry(ctx, draft.ID)
	require.NoError(t, err)
	assert.False(t, frozen.Live)
	assert.Equal(t, "21000.00", frozen.NetPay.StringFixed(2))
	assert.Equal(t, released.Breakdown.ComputedAt.Unix(), frozen.Breakdown.ComputedAt.Unix())

	preview, err := f.svc.Preview(ctx, septemberRequest())
	require.NoError(t, err)
	assert.Equal(t, "22000.00", preview.NetPay.StringFixed(2))
}

func TestPayrollService_DoubleReleaseRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	draft, err := f.svc.CreateDraft(ctx, septemberRequest())
	require.NoError(t, err)
	first, err := f.svc.Release(ctx, draft.ID)
	require.NoError(t, err)

	f.punch(t, 9)
	_, err = f.svc.Release(ctx, draft.ID)
	assert.ErrorIs(t, err, payroll.ErrEntryAlreadyReleased)

	again, err := f.svc.GetEntry(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, first.NetPay.String(), again.NetPay.String())
	assert.Equal(t, first.Breakdown.TotalDeductions.String(), again.Breakdown.TotalDeductions.String())
	assert.Equal(t, *first.ReleasedAt, *again.ReleasedAt)
}

func TestPayrollService_ReleaseUnknownEntry(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Release(context.Background(), "missing")
	assert.ErrorIs(t, err, payroll.ErrPayrollEntryNotFound)
}

func TestPayrollService_DuplicateDraft(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	draft, err := f.svc.CreateDraft(ctx, septemberRequest())
	require.NoError(t, err)

	_, err = f.svc.CreateDraft(ctx, septemberRequest())
	assert.ErrorIs(t, err, payroll.ErrPayrollEntryExists)

	overlapping := payroll.ComputeRequest{EmployeeID: "emp-1", PeriodStart: strPtr("2025-09-20"), PeriodEnd: strPtr("2025-09-30")}
	_, err = f.svc.CreateDraft(ctx, overlapping)
	assert.ErrorIs(t, err, payroll.ErrPayrollEntryExists)

	_, err = f.svc.Release(ctx, draft.ID)
	require.NoError(t, err)
	_, err = f.svc.CreateDraft(ctx, septemberRequest())
	assert.ErrorIs(t, err, payroll.ErrPayrollEntryExists)

	archived, err := f.svc.ArchivePeriod(ctx, payroll.ArchivePeriodRequest{PeriodStart: "2025-09-01", PeriodEnd: "2025-09-25"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), archived.Archived)

	redo, err := f.svc.CreateDraft(ctx, septemberRequest())
	require.NoError(t, err)
	assert.NotEqual(t, draft.ID, redo.ID)

	old, err := f.svc.GetEntry(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.EntryStatusArchived, old.Status)
	assert.False(t, old.Live)
	assert.Equal(t, "20000.00", old.NetPay.StringFixed(2))
}

func TestPayrollService_ArchivePeriodRequiresReleased(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.CreateDraft(ctx, septemberRequest())
	require.NoError(t, err)

	_, err = f.svc.ArchivePeriod(ctx, payroll.ArchivePeriodRequest{PeriodStart: "2025-09-01", PeriodEnd: "2025-09-25"})
	assert.ErrorIs(t, err, payroll.ErrNothingToArchive)

	_, err = f.svc.ArchivePeriod(ctx, payroll.ArchivePeriodRequest{PeriodStart: "2025-09-25", PeriodEnd: "2025-09-01"})
	var verrs validator.ValidationErrors
	assert.ErrorAs(t, err, &verrs)
}

func TestPayrollService_ReleaseArchivesDiscretionaryDeductions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	sss := f.store.AddDeductionType(payroll.DeductionType{Name: "SSS", Kind: payroll.DeductionKindFixed, Value: dec("500"), Category: payroll.CategoryMandatory})
	uniform := f.store.AddDeductionType(payroll.DeductionType{Name: "Uniform", Kind: payroll.DeductionKindFixed, Value: dec("300"), Category: payroll.CategoryDiscretionary})

	_, err := f.svc.ApplyDeduction(ctx, payroll.ApplyDeductionRequest{EmployeeID: "emp-1", DeductionTypeID: sss.ID, AppliedAt: strPtr("2025-08-01")})
	require.NoError(t, err)
	_, err = f.svc.ApplyDeduction(ctx, payroll.ApplyDeductionRequest{EmployeeID: "emp-1", DeductionTypeID: uniform.ID, AppliedAt: strPtr("2025-09-10")})
	require.NoError(t, err)

	draft, err := f.svc.CreateDraft(ctx, septemberRequest())
	require.NoError(t, err)
	assert.Equal(t, "19200.00", draft.NetPay.StringFixed(2))

	released, err := f.svc.Release(ctx, draft.ID)
	require.NoError(t, err)
	assert.Len(t, released.Breakdown.Deductions, 2)

	remaining, err := f.store.Deductions().ListUnarchived(ctx, "emp-1")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, sss.ID, remaining[0].DeductionTypeID)
}

func TestPayrollService_ReleaseRejectedWhilePeriodInProgress(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.clock.now = at(time.September, 10, 12, 0, 0)

	uniform := f.store.AddDeductionType(payroll.DeductionType{Name: "Uniform", Kind: payroll.DeductionKindFixed, Value: dec("300"), Category: payroll.CategoryDiscretionary})
	_, err := f.svc.ApplyDeduction(ctx, payroll.ApplyDeductionRequest{EmployeeID: "emp-1", DeductionTypeID: uniform.ID, AppliedAt: strPtr("2025-09-05")})
	require.NoError(t, err)

	draft, err := f.svc.CreateDraft(ctx, septemberRequest())
	require.NoError(t, err)

	_, err = f.svc.Release(ctx, draft.ID)
	assert.ErrorIs(t, err, payroll.ErrPeriodInProgress)

	entry, err := f.svc.GetEntry(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.EntryStatusPending, entry.Status)
	remaining, err := f.store.Deductions().ListUnarchived(ctx, "emp-1")
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	// A deduction dated on the last day is swept once the period has ended
	_, err = f.svc.ApplyDeduction(ctx, payroll.ApplyDeductionRequest{EmployeeID: "emp-1", DeductionTypeID: uniform.ID, AppliedAt: strPtr("2025-09-25")})
	require.NoError(t, err)
	f.clock.now = at(time.September, 26, 9, 0, 0)
	released, err := f.svc.Release(ctx, draft.ID)
	require.NoError(t, err)
	assert.Len(t, released.Breakdown.Deductions, 2)
	remaining, err = f.store.Deductions().ListUnarchived(ctx, "emp-1")
	require.NoError(t, err)
	assert.Empty(t, remaining)
}

func TestPayrollService_ApplyDeduction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	pct := f.store.AddDeductionType(payroll.DeductionType{Name: "PhilHealth", Kind: payroll.DeductionKindPercentage, Value: dec("2.5"), Category: payroll.CategoryMandatory})
	late := f.store.AddDeductionType(payroll.DeductionType{Name: "Tardiness", Kind: payroll.DeductionKindFixed, Value: dec("100"), Category: payroll.CategoryAttendanceCaused})

	resp, err := f.svc.ApplyDeduction(ctx, payroll.ApplyDeductionRequest{EmployeeID: "emp-1", DeductionTypeID: pct.ID})
	require.NoError(t, err)
	assert.Equal(t, "550.00", resp.Amount.StringFixed(2))
	assert.Equal(t, "2025-10-01", resp.AppliedAt)

	_, err = f.svc.ApplyDeduction(ctx, payroll.ApplyDeductionRequest{EmployeeID: "emp-1", DeductionTypeID: late.ID})
	assert.ErrorIs(t, err, payroll.ErrAttendanceDeduction)

	_, err = f.svc.ApplyDeduction(ctx, payroll.ApplyDeductionRequest{EmployeeID: "emp-1", DeductionTypeID: "missing"})
	assert.ErrorIs(t, err, payroll.ErrDeductionTypeNotFound)

	types, err := f.svc.ListDeductionTypes(ctx)
	require.NoError(t, err)
	assert.Len(t, types, 2)
}

func TestPayrollService_ListEntries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	first, err := f.svc.CreateDraft(ctx, septemberRequest())
	require.NoError(t, err)
	_, err = f.svc.Release(ctx, first.ID)
	require.NoError(t, err)

	f.clock.now = at(time.October, 20, 9, 0, 0)
	second, err := f.svc.CreateDraft(ctx, payroll.ComputeRequest{EmployeeID: "emp-1", PeriodStart: strPtr("2025-10-01"), PeriodEnd: strPtr("2025-10-15")})
	require.NoError(t, err)

	all, err := f.svc.ListEntries(ctx, payroll.EntryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.True(t, all[0].Live)
	assert.False(t, all[1].Live)

	released := payroll.EntryStatusReleased
	only, err := f.svc.ListEntries(ctx, payroll.EntryFilter{Status: &released})
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, first.ID, only[0].ID)
}
