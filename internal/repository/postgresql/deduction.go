package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type deductionRepository struct {
	db *database.DB
}

func NewDeductionRepository(db *database.DB) payroll.DeductionRepository {
	return &deductionRepository{db: db}
}

// ========== CATALOG ==========

// GetTypeByID implements payroll.DeductionRepository.
func (r *deductionRepository) GetTypeByID(ctx context.Context, id string) (payroll.DeductionType, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, kind, value, category, created_at
		FROM deduction_types
		WHERE id = $1
	`

	var t payroll.DeductionType
	err := q.QueryRow(ctx, query, id).Scan(&t.ID, &t.Name, &t.Kind, &t.Value, &t.Category, &t.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.DeductionType{}, payroll.ErrDeductionTypeNotFound
		}
		return payroll.DeductionType{}, fmt.Errorf("failed to get deduction type: %w", err)
	}

	return t, nil
}

// ListTypes implements payroll.DeductionRepository.
func (r *deductionRepository) ListTypes(ctx context.Context) ([]payroll.DeductionType, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, kind, value, category, created_at
		FROM deduction_types
		ORDER BY name
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list deduction types: %w", err)
	}
	defer rows.Close()

	var types []payroll.DeductionType
	for rows.Next() {
		var t payroll.DeductionType
		if err := rows.Scan(&t.ID, &t.Name, &t.Kind, &t.Value, &t.Category, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan deduction type: %w", err)
		}
		types = append(types, t)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return types, nil
}

// ========== APPLIED DEDUCTIONS ==========

// Create implements payroll.DeductionRepository.
func (r *deductionRepository) Create(ctx context.Context, d payroll.Deduction) (payroll.Deduction, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		WITH inserted AS (
			INSERT INTO deductions (employee_id, deduction_type_id, amount, applied_at)
			VALUES ($1, $2, $3, $4::date)
			RETURNING id, deduction_type_id, created_at
		)
		SELECT i.id, i.created_at, dt.name, dt.category
		FROM inserted i
		JOIN deduction_types dt ON dt.id = i.deduction_type_id
	`

	err := q.QueryRow(ctx, query, d.EmployeeID, d.DeductionTypeID, d.Amount, d.AppliedAt).
		Scan(&d.ID, &d.CreatedAt, &d.TypeName, &d.Category)
	if err != nil {
		if pgErrorCode(err) == pgForeignKeyViolation {
			return payroll.Deduction{}, payroll.ErrDeductionTypeNotFound
		}
		return payroll.Deduction{}, fmt.Errorf("failed to create deduction: %w", err)
	}

	return d, nil
}

// ListUnarchived implements payroll.DeductionRepository.
func (r *deductionRepository) ListUnarchived(ctx context.Context, employeeID string) ([]payroll.Deduction, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT d.id, d.employee_id, d.deduction_type_id, d.amount, d.applied_at, d.archived_at, d.created_at,
			   dt.name, dt.category
		FROM deductions d
		JOIN deduction_types dt ON dt.id = d.deduction_type_id
		WHERE d.employee_id = $1 AND d.archived_at IS NULL
		ORDER BY d.applied_at, d.created_at
	`

	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list deductions: %w", err)
	}
	defer rows.Close()

	var deductions []payroll.Deduction
	for rows.Next() {
		var d payroll.Deduction
		err := rows.Scan(
			&d.ID, &d.EmployeeID, &d.DeductionTypeID, &d.Amount, &d.AppliedAt, &d.ArchivedAt, &d.CreatedAt,
			&d.TypeName, &d.Category,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deduction: %w", err)
		}
		deductions = append(deductions, d)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return deductions, nil
}

// ArchiveDiscretionary implements payroll.DeductionRepository.
// Mandatory deductions are never touched.
func (r *deductionRepository) ArchiveDiscretionary(ctx context.Context, employeeID string, from, to time.Time, at time.Time) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE deductions d
		SET archived_at = $4
		FROM deduction_types dt
		WHERE dt.id = d.deduction_type_id
		  AND dt.category = $5
		  AND d.employee_id = $1
		  AND d.archived_at IS NULL
		  AND d.applied_at BETWEEN $2::date AND $3::date
	`

	tag, err := q.Exec(ctx, query, employeeID, from, to, at, payroll.CategoryDiscretionary)
	if err != nil {
		return 0, fmt.Errorf("failed to archive deductions: %w", err)
	}

	return tag.RowsAffected(), nil
}

// ========== LOANS ==========

type loanRepository struct {
	db *database.DB
}

func NewLoanRepository(db *database.DB) payroll.LoanRepository {
	return &loanRepository{db: db}
}

// ListByEmployee implements payroll.LoanRepository.
func (r *loanRepository) ListByEmployee(ctx context.Context, employeeID string) ([]payroll.Loan, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, amount, balance, monthly_payment_percent, term_months, status, start_date, end_date
		FROM loans
		WHERE employee_id = $1
		ORDER BY start_date
	`

	rows, err := q.Query(ctx, query, employeeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list loans: %w", err)
	}
	defer rows.Close()

	var loans []payroll.Loan
	for rows.Next() {
		var l payroll.Loan
		err := rows.Scan(
			&l.ID, &l.EmployeeID, &l.Amount, &l.Balance, &l.MonthlyPaymentPercent,
			&l.TermMonths, &l.Status, &l.StartDate, &l.EndDate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, l)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return loans, nil
}
