package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const employmentStatusActive = "active"

type employeeRepositoryImpl struct {
	db *database.DB
}

// NewEmployeeRepository returns the employee directory used by period provisioning
func NewEmployeeRepository(db *database.DB) attendance.EmployeeDirectory {
	return &employeeRepositoryImpl{db: db}
}

// ListActiveEmployeeIDs implements attendance.EmployeeDirectory.
func (e *employeeRepositoryImpl) ListActiveEmployeeIDs(ctx context.Context) ([]string, error) {
	q := GetQuerier(ctx, e.db)

	query := `
		SELECT id
		FROM employees
		WHERE employment_status = $1 AND deleted_at IS NULL
		ORDER BY id
	`

	rows, err := q.Query(ctx, query, employmentStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list active employees: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return ids, nil
}

type personnelRepositoryImpl struct {
	db *database.DB
}

func NewPersonnelRepository(db *database.DB) payroll.PersonnelRepository {
	return &personnelRepositoryImpl{db: db}
}

// GetByEmployeeID implements payroll.PersonnelRepository.
// The salary comes from the employee's personnel type and may be absent.
func (p *personnelRepositoryImpl) GetByEmployeeID(ctx context.Context, employeeID string) (payroll.Personnel, error) {
	q := GetQuerier(ctx, p.db)

	query := `
		SELECT e.id, e.full_name, e.personnel_type_id, pt.name, pt.basic_salary
		FROM employees e
		LEFT JOIN personnel_types pt ON pt.id = e.personnel_type_id
		WHERE e.id = $1 AND e.deleted_at IS NULL
	`

	var out payroll.Personnel
	err := q.QueryRow(ctx, query, employeeID).Scan(
		&out.EmployeeID, &out.EmployeeName, &out.PersonnelTypeID, &out.PersonnelTypeName, &out.BasicSalary,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.Personnel{}, payroll.ErrPersonnelNotFound
		}
		return payroll.Personnel{}, fmt.Errorf("failed to get personnel: %w", err)
	}

	return out, nil
}
