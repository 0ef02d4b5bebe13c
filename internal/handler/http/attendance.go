package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/clock"
	"github.com/go-chi/chi/v5"
)

type AttendanceHandler interface {
	TimeIn(w http.ResponseWriter, r *http.Request)
	TimeOut(w http.ResponseWriter, r *http.Request)
	GetMyPeriod(w http.ResponseWriter, r *http.Request)
	GetMyDay(w http.ResponseWriter, r *http.Request)

	// Admin
	GetEmployeePeriod(w http.ResponseWriter, r *http.Request)
	GetEmployeeDay(w http.ResponseWriter, r *http.Request)
	GetSettings(w http.ResponseWriter, r *http.Request)
	UpdateSettings(w http.ResponseWriter, r *http.Request)
	ProvisionPeriod(w http.ResponseWriter, r *http.Request)
	MarkAbsent(w http.ResponseWriter, r *http.Request)
	ApplyLeave(w http.ResponseWriter, r *http.Request)
}

type attendanceHandlerImpl struct {
	attendanceService attendance.AttendanceService
	cal               clock.Calendar
}

func NewAttendanceHandler(attendanceService attendance.AttendanceService, cal clock.Calendar) AttendanceHandler {
	return &attendanceHandlerImpl{
		attendanceService: attendanceService,
		cal:               cal,
	}
}

// punchRequest resolves whose punch this is. Employees always punch for themselves;
// admins may punch on behalf of the employee named in the body.
func (h *attendanceHandlerImpl) punchRequest(w http.ResponseWriter, r *http.Request) (attendance.PunchRequest, bool) {
	var req attendance.PunchRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.BadRequest(w, "Invalid request body", nil)
			return req, false
		}
	}

	claims, _ := middleware.ClaimsFromContext(r.Context())
	if !claims.IsAdmin || req.EmployeeID == "" {
		req.EmployeeID = claims.EmployeeID
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return req, false
	}
	return req, true
}

// TimeIn implements AttendanceHandler.
func (h *attendanceHandlerImpl) TimeIn(w http.ResponseWriter, r *http.Request) {
	req, ok := h.punchRequest(w, r)
	if !ok {
		return
	}

	result, err := h.attendanceService.TimeIn(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Time in recorded", result)
}

// TimeOut implements AttendanceHandler.
func (h *attendanceHandlerImpl) TimeOut(w http.ResponseWriter, r *http.Request) {
	req, ok := h.punchRequest(w, r)
	if !ok {
		return
	}

	result, err := h.attendanceService.TimeOut(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Time out recorded", result)
}

func (h *attendanceHandlerImpl) GetMyPeriod(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := ownEmployeeID(w, r)
	if !ok {
		return
	}
	h.writePeriod(w, r, employeeID)
}

func (h *attendanceHandlerImpl) GetMyDay(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := ownEmployeeID(w, r)
	if !ok {
		return
	}
	h.writeDay(w, r, employeeID)
}

func (h *attendanceHandlerImpl) GetEmployeePeriod(w http.ResponseWriter, r *http.Request) {
	h.writePeriod(w, r, chi.URLParam(r, "employeeID"))
}

func (h *attendanceHandlerImpl) GetEmployeeDay(w http.ResponseWriter, r *http.Request) {
	h.writeDay(w, r, chi.URLParam(r, "employeeID"))
}

func (h *attendanceHandlerImpl) writePeriod(w http.ResponseWriter, r *http.Request, employeeID string) {
	result, err := h.attendanceService.ListPeriod(r.Context(), employeeID)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *attendanceHandlerImpl) writeDay(w http.ResponseWriter, r *http.Request, employeeID string) {
	date, err := h.cal.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		response.BadRequest(w, err.Error(), nil)
		return
	}

	result, err := h.attendanceService.GetDay(r.Context(), employeeID, date)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *attendanceHandlerImpl) GetSettings(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.GetSettings(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *attendanceHandlerImpl) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req attendance.UpdateSettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.UpdateSettings(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Attendance settings updated", result)
}

func (h *attendanceHandlerImpl) ProvisionPeriod(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.ProvisionPeriod(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *attendanceHandlerImpl) MarkAbsent(w http.ResponseWriter, r *http.Request) {
	result, err := h.attendanceService.MarkAbsent(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *attendanceHandlerImpl) ApplyLeave(w http.ResponseWriter, r *http.Request) {
	var req attendance.ApplyLeaveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	if err := req.Validate(); err != nil {
		response.HandleError(w, err)
		return
	}

	result, err := h.attendanceService.ApplyLeave(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Leave applied", result)
}

func ownEmployeeID(w http.ResponseWriter, r *http.Request) (string, bool) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	if claims.EmployeeID == "" {
		response.Forbidden(w, "No employee profile is linked to this account")
		return "", false
	}
	return claims.EmployeeID, true
}
