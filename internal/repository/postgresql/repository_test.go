package postgresql_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/postgresql"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cal = clock.DefaultCalendar()

func day(m time.Month, d int) time.Time {
	return time.Date(2025, m, d, 0, 0, 0, 0, cal.Location())
}

func TestAttendanceRepository_CreateIfAbsent(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewAttendanceRepository(setup.DB)

	empID, err := setup.SeedEmployee(ctx, "Ana Reyes", "22000")
	require.NoError(t, err)

	first, created, err := repo.CreateIfAbsent(ctx, attendance.Record{EmployeeID: empID, Date: day(time.September, 8)})
	require.NoError(t, err)
	assert.True(t, created)

	second, created, err := repo.CreateIfAbsent(ctx, attendance.Record{EmployeeID: empID, Date: day(time.September, 8)})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, second.ID)

	n, err := repo.BulkCreateIfAbsent(ctx, []attendance.Record{
		{EmployeeID: empID, Date: day(time.September, 8)},
		{EmployeeID: empID, Date: day(time.September, 9)},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ok, err := repo.UpdateStatusIf(ctx, first.ID, attendance.StatusPending, attendance.StatusAbsent)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = repo.UpdateStatusIf(ctx, first.ID, attendance.StatusPending, attendance.StatusAbsent)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.ForceLeave(ctx, empID, day(time.September, 8)))
	rec, err := repo.GetByEmployeeAndDate(ctx, empID, day(time.September, 8))
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, attendance.StatusOnLeave, rec.Status)
	assert.Equal(t, "2025-09-08", cal.DateKey(cal.Date(rec.Date)))

	records, err := repo.ListByEmployee(ctx, empID, day(time.September, 1), cal.EndOfDay(day(time.September, 30)))
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestSettingsRepository_Upsert(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewSettingsRepository(setup.DB)

	_, err := repo.Get(ctx)
	assert.ErrorIs(t, err, attendance.ErrSettingsNotFound)

	start, end := day(time.September, 1), day(time.September, 15)
	saved, err := repo.Upsert(ctx, attendance.Settings{
		TimeInEnd:      &clock.TimeOfDay{Hour: 9},
		TimeOutEnd:     &clock.TimeOfDay{Hour: 18, Minute: 30},
		PeriodStart:    &start,
		PeriodEnd:      &end,
		AutoMarkAbsent: true,
	})
	require.NoError(t, err)

	again, err := repo.Upsert(ctx, saved)
	require.NoError(t, err)
	assert.Equal(t, saved.ID, again.ID)
	require.NotNil(t, again.TimeOutEnd)
	assert.Equal(t, "18:30:00", again.TimeOutEnd.String())
	assert.Nil(t, again.TimeInStart)
}

func TestPayrollRepository_ActiveEntryConstraint(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewPayrollRepository(setup.DB)
	tx := postgresql.NewTransactor(setup.DB)

	empID, err := setup.SeedEmployee(ctx, "Ana Reyes", "22000")
	require.NoError(t, err)

	entry := payroll.Entry{
		EmployeeID:  empID,
		PeriodStart: day(time.September, 1),
		PeriodEnd:   day(time.September, 15),
		BasicSalary: decimal.NewFromInt(11000),
		NetPay:      decimal.NewFromInt(11000),
		Status:      payroll.EntryStatusPending,
		ProcessedAt: time.Now(),
	}

	// Concurrent creates: exactly one wins
	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = repo.Create(ctx, entry)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
			continue
		}
		assert.ErrorIs(t, err, payroll.ErrPayrollEntryExists)
	}
	assert.Equal(t, 1, wins)

	active, err := repo.ListActiveOverlapping(ctx, empID, day(time.September, 10), day(time.September, 20))
	require.NoError(t, err)
	require.Len(t, active, 1)

	snapshot := payroll.Breakdown{Version: payroll.BreakdownVersion, EmployeeID: empID, NetPay: decimal.NewFromInt(11000)}
	released := active[0]
	released.Snapshot = &snapshot
	now := time.Now()
	released.ReleasedAt = &now

	err = tx.WithinTx(ctx, func(ctx context.Context) error {
		locked, err := repo.GetForUpdate(ctx, released.ID)
		require.NoError(t, err)
		assert.Equal(t, payroll.EntryStatusPending, locked.Status)

		ok, err := repo.MarkReleased(ctx, released)
		require.NoError(t, err)
		assert.True(t, ok)
		return nil
	})
	require.NoError(t, err)

	ok, err := repo.MarkReleased(ctx, released)
	require.NoError(t, err)
	assert.False(t, ok)

	got, err := repo.GetByID(ctx, released.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Snapshot)
	assert.Equal(t, "11000", got.Snapshot.NetPay.String())

	n, err := repo.ArchivePeriod(ctx, day(time.September, 1), day(time.September, 15), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = repo.Create(ctx, entry)
	assert.NoError(t, err)
}

func TestTransactor_RollsBack(t *testing.T) {
	setup := NewTestDatabase(t)
	ctx := context.Background()
	repo := postgresql.NewAttendanceRepository(setup.DB)
	tx := postgresql.NewTransactor(setup.DB)

	empID, err := setup.SeedEmployee(ctx, "Ben Cruz", "")
	require.NoError(t, err)

	err = tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, _, err := repo.CreateIfAbsent(ctx, attendance.Record{EmployeeID: empID, Date: day(time.September, 8)}); err != nil {
			return err
		}
		return attendance.ErrStatusConflict
	})
	assert.ErrorIs(t, err, attendance.ErrStatusConflict)

	rec, err := repo.GetByEmployeeAndDate(ctx, empID, day(time.September, 8))
	require.NoError(t, err)
	assert.Nil(t, rec)

	personnel, err := postgresql.NewPersonnelRepository(setup.DB).GetByEmployeeID(ctx, empID)
	require.NoError(t, err)
	_, ok := personnel.MonthlySalary()
	assert.False(t, ok)
}
