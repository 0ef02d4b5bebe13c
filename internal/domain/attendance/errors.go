package attendance

import "errors"

// Attendance domain errors
var (
	// Punch errors
	ErrAlreadyTimedIn  = errors.New("you have already timed in today")
	ErrNotTimedIn      = errors.New("you have not timed in yet")
	ErrAlreadyTimedOut = errors.New("you have already timed out today")
	ErrOnLeave         = errors.New("employee is on approved leave for this day")

	// General errors
	ErrAttendanceNotFound = errors.New("attendance record not found")
	ErrSettingsNotFound   = errors.New("attendance settings not configured")
	ErrInvalidPeriod      = errors.New("invalid attendance period")
	ErrStatusConflict     = errors.New("attendance status changed concurrently")
	ErrInvalidLeaveSpan   = errors.New("leave end date is before start date")
)
