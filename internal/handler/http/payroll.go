package http

import (
	"encoding/json"
	"net/http"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/clock"
	"github.com/go-chi/chi/v5"
)

type PayrollHandler interface {
	// Entries
	Preview(w http.ResponseWriter, r *http.Request)
	CreateDraft(w http.ResponseWriter, r *http.Request)
	GetEntry(w http.ResponseWriter, r *http.Request)
	ListEntries(w http.ResponseWriter, r *http.Request)
	ListMyEntries(w http.ResponseWriter, r *http.Request)
	Release(w http.ResponseWriter, r *http.Request)
	ArchivePeriod(w http.ResponseWriter, r *http.Request)

	// Deductions
	ListDeductionTypes(w http.ResponseWriter, r *http.Request)
	ApplyDeduction(w http.ResponseWriter, r *http.Request)
}

type payrollHandlerImpl struct {
	payrollService payroll.PayrollService
	cal            clock.Calendar
}

func NewPayrollHandler(payrollService payroll.PayrollService, cal clock.Calendar) PayrollHandler {
	return &payrollHandlerImpl{
		payrollService: payrollService,
		cal:            cal,
	}
}

// ========== ENTRIES ==========

func (h *payrollHandlerImpl) Preview(w http.ResponseWriter, r *http.Request) {
	var req payroll.ComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.Preview(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) CreateDraft(w http.ResponseWriter, r *http.Request) {
	var req payroll.ComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.CreateDraft(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Payroll draft created", result)
}

func (h *payrollHandlerImpl) GetEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Entry ID is required", nil)
		return
	}

	result, err := h.payrollService.GetEntry(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

func (h *payrollHandlerImpl) ListEntries(w http.ResponseWriter, r *http.Request) {
	filter, ok := h.entryFilter(w, r)
	if !ok {
		return
	}
	if employeeID := r.URL.Query().Get("employee_id"); employeeID != "" {
		filter.EmployeeID = &employeeID
	}
	h.writeEntries(w, r, filter)
}

func (h *payrollHandlerImpl) ListMyEntries(w http.ResponseWriter, r *http.Request) {
	employeeID, ok := ownEmployeeID(w, r)
	if !ok {
		return
	}
	filter, ok := h.entryFilter(w, r)
	if !ok {
		return
	}
	filter.EmployeeID = &employeeID
	h.writeEntries(w, r, filter)
}

func (h *payrollHandlerImpl) entryFilter(w http.ResponseWriter, r *http.Request) (payroll.EntryFilter, bool) {
	var filter payroll.EntryFilter
	q := r.URL.Query()

	if status := q.Get("status"); status != "" {
		s := payroll.EntryStatus(status)
		if !s.IsValid() {
			response.BadRequest(w, "Invalid status", map[string]string{"status": "must be PENDING, RELEASED or ARCHIVED"})
			return filter, false
		}
		filter.Status = &s
	}
	if v := q.Get("period_start"); v != "" {
		t, err := h.cal.ParseDate(v)
		if err != nil {
			response.BadRequest(w, err.Error(), nil)
			return filter, false
		}
		filter.PeriodStart = &t
	}
	if v := q.Get("period_end"); v != "" {
		t, err := h.cal.ParseDate(v)
		if err != nil {
			response.BadRequest(w, err.Error(), nil)
			return filter, false
		}
		filter.PeriodEnd = &t
	}
	return filter, true
}

func (h *payrollHandlerImpl) writeEntries(w http.ResponseWriter, r *http.Request, filter payroll.EntryFilter) {
	result, err := h.payrollService.ListEntries(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.List(w, result)
}

func (h *payrollHandlerImpl) Release(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		response.BadRequest(w, "Entry ID is required", nil)
		return
	}

	result, err := h.payrollService.Release(r.Context(), id)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll released", result)
}

func (h *payrollHandlerImpl) ArchivePeriod(w http.ResponseWriter, r *http.Request) {
	var req payroll.ArchivePeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.ArchivePeriod(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Payroll period archived", result)
}

// ========== DEDUCTIONS ==========

func (h *payrollHandlerImpl) ListDeductionTypes(w http.ResponseWriter, r *http.Request) {
	result, err := h.payrollService.ListDeductionTypes(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.List(w, result)
}

func (h *payrollHandlerImpl) ApplyDeduction(w http.ResponseWriter, r *http.Request) {
	var req payroll.ApplyDeductionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.payrollService.ApplyDeduction(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Deduction applied", result)
}
