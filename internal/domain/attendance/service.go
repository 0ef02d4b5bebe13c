package attendance

import (
	"context"
	"time"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// TimeIn records the first punch of the day, creating the day record if needed
	TimeIn(ctx context.Context, req PunchRequest) (RecordResponse, error)

	// TimeOut closes the day's punches
	TimeOut(ctx context.Context, req PunchRequest) (RecordResponse, error)

	// GetDay returns the live status and figures for one employee on one day
	GetDay(ctx context.Context, employeeID string, date time.Time) (RecordResponse, error)

	// ListPeriod returns the live day-by-day view of the active pay period
	ListPeriod(ctx context.Context, employeeID string) (PeriodAttendanceResponse, error)

	// ProvisionPeriod batch-creates PENDING records for all active employees across
	// the period's working days; existing rows are skipped
	ProvisionPeriod(ctx context.Context) (ProvisionResult, error)

	// MarkAbsent persists ABSENT for every record whose live status has become ABSENT
	MarkAbsent(ctx context.Context) (MarkAbsentResult, error)

	// ApplyLeave forces ON_LEAVE for every day of an approved leave span
	ApplyLeave(ctx context.Context, req ApplyLeaveRequest) (ApplyLeaveResult, error)

	GetSettings(ctx context.Context) (SettingsResponse, error)
	UpdateSettings(ctx context.Context, req UpdateSettingsRequest) (SettingsResponse, error)
}
