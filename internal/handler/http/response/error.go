package response

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, jwt.ErrInvalidToken):
		Unauthorized(w, err.Error())
	case errors.Is(err, jwt.ErrAdminRequired):
		Forbidden(w, err.Error())

	// Attendance domain errors
	case errors.Is(err, attendance.ErrAttendanceNotFound):
		NotFound(w, "Attendance record not found")
	case errors.Is(err, attendance.ErrAlreadyTimedIn),
		errors.Is(err, attendance.ErrNotTimedIn),
		errors.Is(err, attendance.ErrAlreadyTimedOut),
		errors.Is(err, attendance.ErrOnLeave),
		errors.Is(err, attendance.ErrStatusConflict):
		Conflict(w, err.Error())
	case errors.Is(err, attendance.ErrInvalidPeriod),
		errors.Is(err, attendance.ErrInvalidLeaveSpan):
		UnprocessableEntity(w, err.Error())

	// Payroll domain errors
	case errors.Is(err, payroll.ErrPayrollEntryNotFound):
		NotFound(w, "Payroll entry not found")
	case errors.Is(err, payroll.ErrDeductionTypeNotFound):
		NotFound(w, "Deduction type not found")
	case errors.Is(err, payroll.ErrPersonnelNotFound):
		NotFound(w, "Employee not found")
	case errors.Is(err, payroll.ErrPayrollEntryExists),
		errors.Is(err, payroll.ErrEntryAlreadyReleased),
		errors.Is(err, payroll.ErrEntryArchived),
		errors.Is(err, payroll.ErrEntryNotReleased),
		errors.Is(err, payroll.ErrNothingToArchive),
		errors.Is(err, payroll.ErrPeriodInProgress):
		Conflict(w, err.Error())
	case errors.Is(err, payroll.ErrAttendanceDeduction):
		UnprocessableEntity(w, err.Error())

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
