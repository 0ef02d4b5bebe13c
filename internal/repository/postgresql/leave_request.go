package postgresql

import (
	"context"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
)

const leaveStatusApproved = "approved"

type leaveRequestRepositoryImpl struct {
	db *database.DB
}

func NewLeaveRequestRepository(db *database.DB) attendance.LeaveRepository {
	return &leaveRequestRepositoryImpl{db: db}
}

// ListApproved implements attendance.LeaveRepository.
// Returns approved spans overlapping [from, to].
func (r *leaveRequestRepositoryImpl) ListApproved(ctx context.Context, employeeID string, from, to time.Time) ([]attendance.LeaveSpan, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT lr.id, lr.employee_id, lr.start_date, lr.end_date, lr.reason
		FROM leave_requests lr
		WHERE lr.employee_id = $1
		  AND lr.status = $2
		  AND lr.start_date <= $4::date
		  AND lr.end_date >= $3::date
		ORDER BY lr.start_date
	`

	rows, err := q.Query(ctx, query, employeeID, leaveStatusApproved, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved leaves: %w", err)
	}
	defer rows.Close()

	var spans []attendance.LeaveSpan
	for rows.Next() {
		var l attendance.LeaveSpan
		if err := rows.Scan(&l.ID, &l.EmployeeID, &l.StartDate, &l.EndDate, &l.Reason); err != nil {
			return nil, err
		}
		spans = append(spans, l)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return spans, nil
}
