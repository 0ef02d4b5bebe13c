package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

const attendanceColumns = `
	a.id, a.employee_id, a.date, a.status, a.time_in, a.time_out,
	a.created_at, a.updated_at, e.full_name
`

func scanRecord(row pgx.Row) (attendance.Record, error) {
	var rec attendance.Record
	err := row.Scan(
		&rec.ID, &rec.EmployeeID, &rec.Date, &rec.Status, &rec.TimeIn, &rec.TimeOut,
		&rec.CreatedAt, &rec.UpdatedAt, &rec.EmployeeName,
	)
	return rec, err
}

func collectRecords(rows pgx.Rows) ([]attendance.Record, error) {
	defer rows.Close()

	var records []attendance.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate attendance: %w", err)
	}
	return records, nil
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (a *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time) (*attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE a.employee_id = $1
		  AND a.date = $2::date
	`

	rec, err := scanRecord(q.QueryRow(ctx, query, employeeID, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil // No existing attendance found
		}
		return nil, fmt.Errorf("failed to get attendance by employee and date: %w", err)
	}

	return &rec, nil
}

// ListByEmployee implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByEmployee(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE a.employee_id = $1
		  AND a.date BETWEEN $2::date AND $3::date
		ORDER BY a.date
	`

	rows, err := q.Query(ctx, query, employeeID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance: %w", err)
	}
	return collectRecords(rows)
}

// ListByDateRange implements attendance.AttendanceRepository.
func (a *attendanceRepository) ListByDateRange(ctx context.Context, from, to time.Time) ([]attendance.Record, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances a
		LEFT JOIN employees e ON e.id = a.employee_id
		WHERE a.date BETWEEN $1::date AND $2::date
		ORDER BY a.date, a.employee_id
	`

	rows, err := q.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance by date range: %w", err)
	}
	return collectRecords(rows)
}

// CreateIfAbsent implements attendance.AttendanceRepository.
func (a *attendanceRepository) CreateIfAbsent(ctx context.Context, record attendance.Record) (attendance.Record, bool, error) {
	q := GetQuerier(ctx, a.db)

	if record.Status == "" {
		record.Status = attendance.StatusPending
	}

	query := `
		INSERT INTO attendances (employee_id, date, status, time_in, time_out)
		VALUES ($1, $2::date, $3, $4, $5)
		ON CONFLICT (employee_id, date) DO NOTHING
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		record.EmployeeID, record.Date, record.Status, record.TimeIn, record.TimeOut,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if err == nil {
		return record, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return attendance.Record{}, false, fmt.Errorf("failed to create attendance: %w", err)
	}

	// Row already existed
	existing, err := a.GetByEmployeeAndDate(ctx, record.EmployeeID, record.Date)
	if err != nil {
		return attendance.Record{}, false, err
	}
	if existing == nil {
		return attendance.Record{}, false, attendance.ErrAttendanceNotFound
	}
	return *existing, false, nil
}

// BulkCreateIfAbsent implements attendance.AttendanceRepository.
func (a *attendanceRepository) BulkCreateIfAbsent(ctx context.Context, records []attendance.Record) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	q := GetQuerier(ctx, a.db)

	employeeIDs := make([]string, len(records))
	dates := make([]time.Time, len(records))
	statuses := make([]string, len(records))
	for i, rec := range records {
		employeeIDs[i] = rec.EmployeeID
		dates[i] = rec.Date
		statuses[i] = string(rec.Status)
		if rec.Status == "" {
			statuses[i] = string(attendance.StatusPending)
		}
	}

	query := `
		INSERT INTO attendances (employee_id, date, status)
		SELECT * FROM unnest($1::uuid[], $2::date[], $3::text[])
		ON CONFLICT (employee_id, date) DO NOTHING
	`

	tag, err := q.Exec(ctx, query, employeeIDs, dates, statuses)
	if err != nil {
		return 0, fmt.Errorf("failed to bulk create attendance: %w", err)
	}
	return tag.RowsAffected(), nil
}

// UpdatePunches implements attendance.AttendanceRepository.
func (a *attendanceRepository) UpdatePunches(ctx context.Context, record attendance.Record) error {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendances
		SET time_in = $2, time_out = $3, status = $4, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := q.Exec(ctx, query, record.ID, record.TimeIn, record.TimeOut, record.Status)
	if err != nil {
		return fmt.Errorf("failed to update attendance punches: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}
	return nil
}

// UpdateStatusIf implements attendance.AttendanceRepository.
func (a *attendanceRepository) UpdateStatusIf(ctx context.Context, id string, from, to attendance.Status) (bool, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		UPDATE attendances
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2
	`

	tag, err := q.Exec(ctx, query, id, from, to)
	if err != nil {
		return false, fmt.Errorf("failed to update attendance status: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ForceLeave implements attendance.AttendanceRepository.
func (a *attendanceRepository) ForceLeave(ctx context.Context, employeeID string, date time.Time) error {
	q := GetQuerier(ctx, a.db)

	query := `
		INSERT INTO attendances (employee_id, date, status)
		VALUES ($1, $2::date, $3)
		ON CONFLICT (employee_id, date) DO UPDATE SET
			status = EXCLUDED.status,
			time_in = NULL,
			time_out = NULL,
			updated_at = NOW()
	`

	if _, err := q.Exec(ctx, query, employeeID, date, attendance.StatusOnLeave); err != nil {
		return fmt.Errorf("failed to force leave: %w", err)
	}
	return nil
}
