package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
)

// AttendanceJobs keeps the active period's attendance rows provisioned and absences persisted
type AttendanceJobs struct {
	attendanceService attendance.AttendanceService
	interval          time.Duration
}

func NewAttendanceJobs(attendanceService attendance.AttendanceService, interval time.Duration) *AttendanceJobs {
	if interval <= 0 {
		interval = time.Hour
	}
	return &AttendanceJobs{
		attendanceService: attendanceService,
		interval:          interval,
	}
}

func (j *AttendanceJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("provision_attendance_period", j.interval, j.ProvisionPeriod)
	scheduler.AddJob("mark_absent_attendance", j.interval, j.MarkAbsent)
}

// ProvisionPeriod creates the missing PENDING rows of the active period
func (j *AttendanceJobs) ProvisionPeriod(ctx context.Context) error {
	result, err := j.attendanceService.ProvisionPeriod(ctx)
	if err != nil {
		return fmt.Errorf("provision attendance period: %w", err)
	}
	if result.Created > 0 {
		slog.Info("Cron: provisioned attendance rows",
			"period_start", result.PeriodStart,
			"period_end", result.PeriodEnd,
			"created", result.Created)
	}
	return nil
}

// MarkAbsent persists ABSENT for records whose time-out cutoff has passed without punches
func (j *AttendanceJobs) MarkAbsent(ctx context.Context) error {
	result, err := j.attendanceService.MarkAbsent(ctx)
	if err != nil {
		return fmt.Errorf("mark absent: %w", err)
	}
	if result.Marked > 0 {
		slog.Info("Cron: marked absent", "count", result.Marked)
	}
	return nil
}
