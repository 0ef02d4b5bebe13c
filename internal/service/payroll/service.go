package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/notification"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/payroll"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	attendancesvc "github.com/cmlabs-hris/payroll-engine/internal/service/attendance"
	"github.com/shopspring/decimal"
)

type PayrollServiceImpl struct {
	tx             database.Transactor
	entryRepo      payroll.EntryRepository
	deductionRepo  payroll.DeductionRepository
	loanRepo       payroll.LoanRepository
	personnelRepo  payroll.PersonnelRepository
	attendanceRepo attendance.AttendanceRepository
	settingsRepo   attendance.SettingsRepository
	holidayRepo    attendance.HolidayRepository
	publisher      notification.Publisher
	cal            clock.Calendar
	clock          clock.Clock
	logger         *slog.Logger
}

// Dependencies wires the payroll service
type Dependencies struct {
	Transactor database.Transactor
	Entries    payroll.EntryRepository
	Deductions payroll.DeductionRepository
	Loans      payroll.LoanRepository
	Personnel  payroll.PersonnelRepository
	Attendance attendance.AttendanceRepository
	Settings   attendance.SettingsRepository
	Holidays   attendance.HolidayRepository
	Publisher  notification.Publisher
	Calendar   clock.Calendar
	Clock      clock.Clock
	Logger     *slog.Logger
}

func NewPayrollService(deps Dependencies) payroll.PayrollService {
	if deps.Clock == nil {
		deps.Clock = clock.SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &PayrollServiceImpl{
		tx:             deps.Transactor,
		entryRepo:      deps.Entries,
		deductionRepo:  deps.Deductions,
		loanRepo:       deps.Loans,
		personnelRepo:  deps.Personnel,
		attendanceRepo: deps.Attendance,
		settingsRepo:   deps.Settings,
		holidayRepo:    deps.Holidays,
		publisher:      deps.Publisher,
		cal:            deps.Calendar,
		clock:          deps.Clock,
		logger:         deps.Logger.With("service", "payroll"),
	}
}

func (s *PayrollServiceImpl) loadSettings(ctx context.Context) (*attendance.Settings, []string, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		if errors.Is(err, attendance.ErrSettingsNotFound) {
			return nil, []string{"attendance settings are not configured; automatic late and absent penalties are disabled"}, nil
		}
		return nil, nil, fmt.Errorf("failed to get attendance settings: %w", err)
	}
	return &settings, nil, nil
}

// window turns the request into calendar days, defaulting to the configured period
func (s *PayrollServiceImpl) window(ctx context.Context, req payroll.ComputeRequest, now time.Time) (time.Time, time.Time, error) {
	if req.PeriodStart != nil && req.PeriodEnd != nil {
		start, err := s.cal.ParseDate(*req.PeriodStart)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		end, err := s.cal.ParseDate(*req.PeriodEnd)
		if err != nil {
			return time.Time{}, time.Time{}, err
		}
		return start, end, nil
	}

	settings, _, err := s.loadSettings(ctx)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	period, err := attendancesvc.ResolvePeriod(settings, s.cal, now)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return period.Start, s.cal.StartOfDay(period.End), nil
}

// compute gathers every input for one employee and period and aggregates it
func (s *PayrollServiceImpl) compute(ctx context.Context, employeeID string, start, end time.Time, overtime decimal.Decimal, now time.Time) (payroll.Breakdown, attendance.Period, error) {
	settings, warnings, err := s.loadSettings(ctx)
	if err != nil {
		return payroll.Breakdown{}, attendance.Period{}, err
	}

	period, err := attendancesvc.ResolvePeriodFor(s.cal.Date(start), s.cal.Date(end), s.cal, now)
	if err != nil {
		return payroll.Breakdown{}, attendance.Period{}, err
	}

	personnel, err := s.personnelRepo.GetByEmployeeID(ctx, employeeID)
	if err != nil {
		if !errors.Is(err, payroll.ErrPersonnelNotFound) {
			return payroll.Breakdown{}, attendance.Period{}, fmt.Errorf("failed to get personnel: %w", err)
		}
		s.logger.Warn("employee has no personnel record, computing as zero", "employee_id", employeeID)
		personnel = payroll.Personnel{EmployeeID: employeeID}
	}

	records, err := s.attendanceRepo.ListByEmployee(ctx, employeeID, period.Start, period.EffectiveEnd)
	if err != nil {
		return payroll.Breakdown{}, attendance.Period{}, fmt.Errorf("failed to list attendance: %w", err)
	}
	holidays, err := s.holidayRepo.ListBetween(ctx, period.Start, period.EffectiveEnd)
	if err != nil {
		return payroll.Breakdown{}, attendance.Period{}, fmt.Errorf("failed to list holidays: %w", err)
	}
	deductions, err := s.deductionRepo.ListUnarchived(ctx, employeeID)
	if err != nil {
		return payroll.Breakdown{}, attendance.Period{}, fmt.Errorf("failed to list deductions: %w", err)
	}
	loans, err := s.loanRepo.ListByEmployee(ctx, employeeID)
	if err != nil {
		return payroll.Breakdown{}, attendance.Period{}, fmt.Errorf("failed to list loans: %w", err)
	}

	b := Aggregate(AggregateInput{
		EmployeeID: employeeID,
		Personnel:  personnel,
		Period:     period,
		Settings:   settings,
		Calendar:   s.cal,
		Now:        now,
		Records:    records,
		Holidays:   holidays,
		Deductions: deductions,
		Loans:      loans,
		Overtime:   overtime,
		Warnings:   warnings,
	})
	return b, period, nil
}

func applyFigures(e *payroll.Entry, b payroll.Breakdown) {
	e.BasicSalary = b.PeriodSalary
	e.Overtime = b.Overtime
	e.Deductions = b.TotalDeductions
	e.NetPay = b.NetPay
}

// Preview implements payroll.PayrollService.
func (s *PayrollServiceImpl) Preview(ctx context.Context, req payroll.ComputeRequest) (payroll.Breakdown, error) {
	if err := req.Validate(); err != nil {
		return payroll.Breakdown{}, err
	}
	now := s.cal.Now(s.clock)

	start, end, err := s.window(ctx, req, now)
	if err != nil {
		return payroll.Breakdown{}, err
	}
	b, _, err := s.compute(ctx, req.EmployeeID, start, end, overtimeOf(req), now)
	return b, err
}

// CreateDraft implements payroll.PayrollService.
func (s *PayrollServiceImpl) CreateDraft(ctx context.Context, req payroll.ComputeRequest) (payroll.EntryResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.EntryResponse{}, err
	}
	now := s.cal.Now(s.clock)

	start, end, err := s.window(ctx, req, now)
	if err != nil {
		return payroll.EntryResponse{}, err
	}

	var created payroll.Entry
	var breakdown payroll.Breakdown
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		active, err := s.entryRepo.ListActiveOverlapping(ctx, req.EmployeeID, start, end)
		if err != nil {
			return fmt.Errorf("failed to check existing payroll entries: %w", err)
		}
		if len(active) > 0 {
			return payroll.ErrPayrollEntryExists
		}

		breakdown, _, err = s.compute(ctx, req.EmployeeID, start, end, overtimeOf(req), now)
		if err != nil {
			return err
		}

		entry := payroll.Entry{
			EmployeeID:  req.EmployeeID,
			PeriodStart: start,
			PeriodEnd:   end,
			Status:      payroll.EntryStatusPending,
			ProcessedAt: now,
		}
		applyFigures(&entry, breakdown)
		created, err = s.entryRepo.Create(ctx, entry)
		return err
	})
	if err != nil {
		return payroll.EntryResponse{}, err
	}

	s.logger.Info("payroll draft created",
		"entry_id", created.ID,
		"employee_id", created.EmployeeID,
		"period_start", s.cal.DateKey(start),
		"period_end", s.cal.DateKey(end),
		"net_pay", created.NetPay.String(),
	)
	s.publish(ctx, notification.Event{
		Type:       notification.TypeEntryReleasable,
		EmployeeID: created.EmployeeID,
		Data: map[string]interface{}{
			"entry_id":     created.ID,
			"period_start": s.cal.DateKey(start),
			"period_end":   s.cal.DateKey(end),
		},
	})

	return payroll.ToEntryResponse(created, breakdown, true), nil
}

// GetEntry implements payroll.PayrollService.
func (s *PayrollServiceImpl) GetEntry(ctx context.Context, id string) (payroll.EntryResponse, error) {
	entry, err := s.entryRepo.GetByID(ctx, id)
	if err != nil {
		return payroll.EntryResponse{}, err
	}
	return s.serve(ctx, entry)
}

// serve returns the frozen snapshot of released entries and a live recomputation otherwise
func (s *PayrollServiceImpl) serve(ctx context.Context, entry payroll.Entry) (payroll.EntryResponse, error) {
	if entry.Status.Frozen() {
		if entry.Snapshot == nil {
			return payroll.EntryResponse{}, fmt.Errorf("entry %s has no snapshot: %w", entry.ID, payroll.ErrUnsupportedSnapshot)
		}
		return payroll.ToEntryResponse(entry, *entry.Snapshot, false), nil
	}

	b, _, err := s.compute(ctx, entry.EmployeeID, entry.PeriodStart, entry.PeriodEnd, entry.Overtime, s.cal.Now(s.clock))
	if err != nil {
		return payroll.EntryResponse{}, err
	}
	applyFigures(&entry, b)
	return payroll.ToEntryResponse(entry, b, true), nil
}

// ListEntries implements payroll.PayrollService.
func (s *PayrollServiceImpl) ListEntries(ctx context.Context, filter payroll.EntryFilter) ([]payroll.EntryResponse, error) {
	entries, err := s.entryRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll entries: %w", err)
	}

	responses := make([]payroll.EntryResponse, 0, len(entries))
	for _, e := range entries {
		resp, err := s.serve(ctx, e)
		if err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}
	return responses, nil
}

// Release implements payroll.PayrollService.
func (s *PayrollServiceImpl) Release(ctx context.Context, id string) (payroll.EntryResponse, error) {
	now := s.cal.Now(s.clock)

	var released payroll.Entry
	var archived int64
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		entry, err := s.entryRepo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		switch entry.Status {
		case payroll.EntryStatusReleased:
			return payroll.ErrEntryAlreadyReleased
		case payroll.EntryStatusArchived:
			return payroll.ErrEntryArchived
		}

		b, period, err := s.compute(ctx, entry.EmployeeID, entry.PeriodStart, entry.PeriodEnd, entry.Overtime, now)
		if err != nil {
			return err
		}
		// Only ended periods are released
		if period.InProgress() {
			return payroll.ErrPeriodInProgress
		}

		applyFigures(&entry, b)
		entry.Snapshot = &b
		entry.ProcessedAt = now
		entry.ReleasedAt = &now

		ok, err := s.entryRepo.MarkReleased(ctx, entry)
		if err != nil {
			return fmt.Errorf("failed to release payroll entry: %w", err)
		}
		if !ok {
			return payroll.ErrEntryAlreadyReleased
		}

		archived, err = s.deductionRepo.ArchiveDiscretionary(ctx, entry.EmployeeID, period.Start, period.End, now)
		if err != nil {
			return fmt.Errorf("failed to archive period deductions: %w", err)
		}

		entry.Status = payroll.EntryStatusReleased
		released = entry
		return nil
	})
	if err != nil {
		return payroll.EntryResponse{}, err
	}

	s.logger.Info("payroll entry released",
		"entry_id", released.ID,
		"employee_id", released.EmployeeID,
		"net_pay", released.NetPay.String(),
		"deductions_archived", archived,
	)
	s.publish(ctx, notification.Event{
		Type:       notification.TypeEntryReleased,
		EmployeeID: released.EmployeeID,
		Data: map[string]interface{}{
			"entry_id": released.ID,
			"net_pay":  released.NetPay.String(),
		},
	})

	return payroll.ToEntryResponse(released, *released.Snapshot, false), nil
}

// ArchivePeriod implements payroll.PayrollService.
func (s *PayrollServiceImpl) ArchivePeriod(ctx context.Context, req payroll.ArchivePeriodRequest) (payroll.ArchivePeriodResult, error) {
	if err := req.Validate(); err != nil {
		return payroll.ArchivePeriodResult{}, err
	}
	start, err := s.cal.ParseDate(req.PeriodStart)
	if err != nil {
		return payroll.ArchivePeriodResult{}, err
	}
	end, err := s.cal.ParseDate(req.PeriodEnd)
	if err != nil {
		return payroll.ArchivePeriodResult{}, err
	}
	now := s.cal.Now(s.clock)

	var n int64
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		n, err = s.entryRepo.ArchivePeriod(ctx, start, end, now)
		if err != nil {
			return fmt.Errorf("failed to archive payroll period: %w", err)
		}
		if n == 0 {
			return payroll.ErrNothingToArchive
		}
		return nil
	})
	if err != nil {
		return payroll.ArchivePeriodResult{}, err
	}

	s.logger.Info("payroll period archived", "period_start", req.PeriodStart, "period_end", req.PeriodEnd, "entries", n)
	s.publish(ctx, notification.Event{
		Type: notification.TypePeriodArchived,
		Data: map[string]interface{}{
			"period_start": req.PeriodStart,
			"period_end":   req.PeriodEnd,
			"archived":     n,
		},
	})

	return payroll.ArchivePeriodResult{PeriodStart: req.PeriodStart, PeriodEnd: req.PeriodEnd, Archived: n}, nil
}

// ApplyDeduction implements payroll.PayrollService.
func (s *PayrollServiceImpl) ApplyDeduction(ctx context.Context, req payroll.ApplyDeductionRequest) (payroll.DeductionResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.DeductionResponse{}, err
	}

	t, err := s.deductionRepo.GetTypeByID(ctx, req.DeductionTypeID)
	if err != nil {
		return payroll.DeductionResponse{}, err
	}
	if t.Category == payroll.CategoryAttendanceCaused {
		return payroll.DeductionResponse{}, payroll.ErrAttendanceDeduction
	}

	appliedAt := s.cal.StartOfDay(s.cal.Now(s.clock))
	if req.AppliedAt != nil {
		appliedAt, err = s.cal.ParseDate(*req.AppliedAt)
		if err != nil {
			return payroll.DeductionResponse{}, err
		}
	}

	salary := decimal.Zero
	if t.Kind == payroll.DeductionKindPercentage {
		p, err := s.personnelRepo.GetByEmployeeID(ctx, req.EmployeeID)
		if err != nil && !errors.Is(err, payroll.ErrPersonnelNotFound) {
			return payroll.DeductionResponse{}, fmt.Errorf("failed to get personnel: %w", err)
		}
		var ok bool
		if salary, ok = p.MonthlySalary(); !ok {
			s.logger.Warn("percentage deduction on employee without salary", "employee_id", req.EmployeeID, "deduction_type_id", t.ID)
		}
	}

	created, err := s.deductionRepo.Create(ctx, payroll.Deduction{
		EmployeeID:      req.EmployeeID,
		DeductionTypeID: t.ID,
		Amount:          ComputeDeductionAmount(t, salary).Round(2),
		AppliedAt:       appliedAt,
	})
	if err != nil {
		return payroll.DeductionResponse{}, fmt.Errorf("failed to apply deduction: %w", err)
	}

	s.logger.Info("deduction applied", "employee_id", created.EmployeeID, "type", t.Name, "amount", created.Amount.String())
	return payroll.ToDeductionResponse(created), nil
}

// ListDeductionTypes implements payroll.PayrollService.
func (s *PayrollServiceImpl) ListDeductionTypes(ctx context.Context) ([]payroll.DeductionType, error) {
	types, err := s.deductionRepo.ListTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list deduction types: %w", err)
	}
	return types, nil
}

func (s *PayrollServiceImpl) publish(ctx context.Context, ev notification.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("failed to publish event", "type", string(ev.Type), "error", err)
	}
}

func overtimeOf(req payroll.ComputeRequest) decimal.Decimal {
	if req.Overtime == nil {
		return decimal.Zero
	}
	return *req.Overtime
}
