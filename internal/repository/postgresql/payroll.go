package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.EntryRepository {
	return &payrollRepository{db: db}
}

// ========== ENTRIES ==========

const entryColumns = `
	pe.id, pe.employee_id, pe.period_start, pe.period_end,
	pe.basic_salary, pe.overtime, pe.deductions, pe.net_pay, pe.status,
	pe.processed_at, pe.released_at, pe.archived_at, pe.snapshot,
	pe.created_at, pe.updated_at, e.full_name
`

func scanEntry(row pgx.Row) (payroll.Entry, error) {
	var e payroll.Entry
	var snapshot []byte
	err := row.Scan(
		&e.ID, &e.EmployeeID, &e.PeriodStart, &e.PeriodEnd,
		&e.BasicSalary, &e.Overtime, &e.Deductions, &e.NetPay, &e.Status,
		&e.ProcessedAt, &e.ReleasedAt, &e.ArchivedAt, &snapshot,
		&e.CreatedAt, &e.UpdatedAt, &e.EmployeeName,
	)
	if err != nil {
		return payroll.Entry{}, err
	}
	if snapshot != nil {
		b, err := payroll.DecodeBreakdown(snapshot)
		if err != nil {
			return payroll.Entry{}, fmt.Errorf("entry %s: %w", e.ID, err)
		}
		e.Snapshot = &b
	}
	return e, nil
}

func collectEntries(rows pgx.Rows) ([]payroll.Entry, error) {
	defer rows.Close()

	var entries []payroll.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

func encodeSnapshot(b *payroll.Breakdown) ([]byte, error) {
	if b == nil {
		return nil, nil
	}
	return b.Encode()
}

// Create implements payroll.EntryRepository.
// The exclusion constraint on active entries turns a concurrent duplicate into ErrPayrollEntryExists.
func (r *payrollRepository) Create(ctx context.Context, entry payroll.Entry) (payroll.Entry, error) {
	q := GetQuerier(ctx, r.db)

	snapshot, err := encodeSnapshot(entry.Snapshot)
	if err != nil {
		return payroll.Entry{}, err
	}

	query := `
		INSERT INTO payroll_entries (
			employee_id, period_start, period_end,
			basic_salary, overtime, deductions, net_pay, status,
			processed_at, snapshot
		) VALUES ($1, $2::date, $3::date, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at
	`

	err = q.QueryRow(ctx, query,
		entry.EmployeeID, entry.PeriodStart, entry.PeriodEnd,
		entry.BasicSalary, entry.Overtime, entry.Deductions, entry.NetPay, entry.Status,
		entry.ProcessedAt, snapshot,
	).Scan(&entry.ID, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		if isConflict(err) {
			return payroll.Entry{}, payroll.ErrPayrollEntryExists
		}
		return payroll.Entry{}, fmt.Errorf("failed to create payroll entry: %w", err)
	}

	return entry, nil
}

func (r *payrollRepository) getByID(ctx context.Context, id string, lock bool) (payroll.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + entryColumns + `
		FROM payroll_entries pe
		LEFT JOIN employees e ON e.id = pe.employee_id
		WHERE pe.id = $1
	`
	if lock {
		query += " FOR UPDATE OF pe"
	}

	e, err := scanEntry(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.Entry{}, payroll.ErrPayrollEntryNotFound
		}
		return payroll.Entry{}, fmt.Errorf("failed to get payroll entry: %w", err)
	}

	return e, nil
}

// GetByID implements payroll.EntryRepository.
func (r *payrollRepository) GetByID(ctx context.Context, id string) (payroll.Entry, error) {
	return r.getByID(ctx, id, false)
}

// GetForUpdate implements payroll.EntryRepository.
// The row stays locked until the surrounding transaction ends.
func (r *payrollRepository) GetForUpdate(ctx context.Context, id string) (payroll.Entry, error) {
	return r.getByID(ctx, id, true)
}

// ListActiveOverlapping implements payroll.EntryRepository.
func (r *payrollRepository) ListActiveOverlapping(ctx context.Context, employeeID string, start, end time.Time) ([]payroll.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + entryColumns + `
		FROM payroll_entries pe
		LEFT JOIN employees e ON e.id = pe.employee_id
		WHERE pe.employee_id = $1
		  AND pe.status <> $2
		  AND pe.period_start <= $4::date
		  AND pe.period_end >= $3::date
	`

	rows, err := q.Query(ctx, query, employeeID, payroll.EntryStatusArchived, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list overlapping payroll entries: %w", err)
	}
	return collectEntries(rows)
}

// List implements payroll.EntryRepository.
func (r *payrollRepository) List(ctx context.Context, filter payroll.EntryFilter) ([]payroll.Entry, error) {
	q := GetQuerier(ctx, r.db)

	whereParts := []string{"1=1"}
	args := []interface{}{}
	argIdx := 1

	if filter.EmployeeID != nil {
		whereParts = append(whereParts, fmt.Sprintf("pe.employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Status != nil {
		whereParts = append(whereParts, fmt.Sprintf("pe.status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.PeriodStart != nil {
		whereParts = append(whereParts, fmt.Sprintf("pe.period_start = $%d::date", argIdx))
		args = append(args, *filter.PeriodStart)
		argIdx++
	}
	if filter.PeriodEnd != nil {
		whereParts = append(whereParts, fmt.Sprintf("pe.period_end = $%d::date", argIdx))
		args = append(args, *filter.PeriodEnd)
	}

	query := `
		SELECT ` + entryColumns + `
		FROM payroll_entries pe
		LEFT JOIN employees e ON e.id = pe.employee_id
		WHERE ` + strings.Join(whereParts, " AND ") + `
		ORDER BY pe.period_start DESC, pe.created_at
	`

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll entries: %w", err)
	}
	return collectEntries(rows)
}

// MarkReleased implements payroll.EntryRepository.
// Only a PENDING row is updated; false means another release won.
func (r *payrollRepository) MarkReleased(ctx context.Context, entry payroll.Entry) (bool, error) {
	if entry.Snapshot == nil {
		return false, payroll.ErrEntryNotReleased
	}
	snapshot, err := encodeSnapshot(entry.Snapshot)
	if err != nil {
		return false, err
	}

	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_entries SET
			status = $2,
			basic_salary = $3,
			overtime = $4,
			deductions = $5,
			net_pay = $6,
			processed_at = $7,
			released_at = $8,
			snapshot = $9,
			updated_at = NOW()
		WHERE id = $1 AND status = $10
	`

	tag, err := q.Exec(ctx, query,
		entry.ID, payroll.EntryStatusReleased,
		entry.BasicSalary, entry.Overtime, entry.Deductions, entry.NetPay,
		entry.ProcessedAt, entry.ReleasedAt, snapshot,
		payroll.EntryStatusPending,
	)
	if err != nil {
		return false, fmt.Errorf("failed to release payroll entry: %w", err)
	}

	return tag.RowsAffected() == 1, nil
}

// ArchivePeriod implements payroll.EntryRepository.
func (r *payrollRepository) ArchivePeriod(ctx context.Context, start, end time.Time, at time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_entries
		SET status = $3, archived_at = $4, updated_at = NOW()
		WHERE period_start = $1::date
		  AND period_end = $2::date
		  AND status = $5
	`

	tag, err := q.Exec(ctx, query, start, end, payroll.EntryStatusArchived, at, payroll.EntryStatusReleased)
	if err != nil {
		return 0, fmt.Errorf("failed to archive payroll period: %w", err)
	}

	return tag.RowsAffected(), nil
}
