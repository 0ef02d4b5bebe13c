package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

type settingsRepository struct {
	db *database.DB
}

func NewSettingsRepository(db *database.DB) attendance.SettingsRepository {
	return &settingsRepository{db: db}
}

func toPgTime(t *clock.TimeOfDay) pgtype.Time {
	if t == nil {
		return pgtype.Time{}
	}
	secs := int64(t.Hour)*3600 + int64(t.Minute)*60 + int64(t.Second)
	return pgtype.Time{Microseconds: secs * int64(time.Second/time.Microsecond), Valid: true}
}

func fromPgTime(t pgtype.Time) *clock.TimeOfDay {
	if !t.Valid {
		return nil
	}
	secs := int(t.Microseconds / int64(time.Second/time.Microsecond))
	return &clock.TimeOfDay{Hour: secs / 3600, Minute: secs % 3600 / 60, Second: secs % 60}
}

const settingsColumns = `
	id, time_in_start, time_in_end, time_out_start, time_out_end,
	time_in_cutoff_disabled, time_out_cutoff_disabled,
	period_start, period_end, auto_mark_absent, auto_mark_late,
	created_at, updated_at
`

func scanSettings(row pgx.Row) (attendance.Settings, error) {
	var s attendance.Settings
	var inStart, inEnd, outStart, outEnd pgtype.Time
	err := row.Scan(
		&s.ID, &inStart, &inEnd, &outStart, &outEnd,
		&s.TimeInCutoffDisabled, &s.TimeOutCutoffDisabled,
		&s.PeriodStart, &s.PeriodEnd, &s.AutoMarkAbsent, &s.AutoMarkLate,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return attendance.Settings{}, err
	}
	s.TimeInStart = fromPgTime(inStart)
	s.TimeInEnd = fromPgTime(inEnd)
	s.TimeOutStart = fromPgTime(outStart)
	s.TimeOutEnd = fromPgTime(outEnd)
	return s, nil
}

// Get implements attendance.SettingsRepository.
func (r *settingsRepository) Get(ctx context.Context) (attendance.Settings, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + settingsColumns + ` FROM attendance_settings WHERE singleton`

	s, err := scanSettings(q.QueryRow(ctx, query))
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.Settings{}, attendance.ErrSettingsNotFound
		}
		return attendance.Settings{}, fmt.Errorf("failed to get attendance settings: %w", err)
	}

	return s, nil
}

// Upsert implements attendance.SettingsRepository.
func (r *settingsRepository) Upsert(ctx context.Context, settings attendance.Settings) (attendance.Settings, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO attendance_settings (
			singleton, time_in_start, time_in_end, time_out_start, time_out_end,
			time_in_cutoff_disabled, time_out_cutoff_disabled,
			period_start, period_end, auto_mark_absent, auto_mark_late
		) VALUES (TRUE, $1, $2, $3, $4, $5, $6, $7::date, $8::date, $9, $10)
		ON CONFLICT (singleton) DO UPDATE SET
			time_in_start = EXCLUDED.time_in_start,
			time_in_end = EXCLUDED.time_in_end,
			time_out_start = EXCLUDED.time_out_start,
			time_out_end = EXCLUDED.time_out_end,
			time_in_cutoff_disabled = EXCLUDED.time_in_cutoff_disabled,
			time_out_cutoff_disabled = EXCLUDED.time_out_cutoff_disabled,
			period_start = EXCLUDED.period_start,
			period_end = EXCLUDED.period_end,
			auto_mark_absent = EXCLUDED.auto_mark_absent,
			auto_mark_late = EXCLUDED.auto_mark_late,
			updated_at = NOW()
		RETURNING ` + settingsColumns

	s, err := scanSettings(q.QueryRow(ctx, query,
		toPgTime(settings.TimeInStart), toPgTime(settings.TimeInEnd),
		toPgTime(settings.TimeOutStart), toPgTime(settings.TimeOutEnd),
		settings.TimeInCutoffDisabled, settings.TimeOutCutoffDisabled,
		settings.PeriodStart, settings.PeriodEnd,
		settings.AutoMarkAbsent, settings.AutoMarkLate,
	))
	if err != nil {
		return attendance.Settings{}, fmt.Errorf("failed to upsert attendance settings: %w", err)
	}

	return s, nil
}

type holidayRepository struct {
	db *database.DB
}

func NewHolidayRepository(db *database.DB) attendance.HolidayRepository {
	return &holidayRepository{db: db}
}

// ListBetween implements attendance.HolidayRepository.
func (r *holidayRepository) ListBetween(ctx context.Context, from, to time.Time) ([]attendance.Holiday, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, date, name
		FROM holidays
		WHERE date BETWEEN $1::date AND $2::date
		ORDER BY date
	`

	rows, err := q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list holidays: %w", err)
	}
	defer rows.Close()

	var holidays []attendance.Holiday
	for rows.Next() {
		var h attendance.Holiday
		if err := rows.Scan(&h.ID, &h.Date, &h.Name); err != nil {
			return nil, fmt.Errorf("failed to scan holiday: %w", err)
		}
		holidays = append(holidays, h)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return holidays, nil
}
