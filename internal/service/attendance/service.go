package attendance

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
	"github.com/shopspring/decimal"
)

const warnSettingsMissing = "attendance settings are not configured; automatic late and absent penalties are disabled"

type AttendanceServiceImpl struct {
	tx database.Transactor
	attendance.AttendanceRepository
	settingsRepo attendance.SettingsRepository
	holidayRepo  attendance.HolidayRepository
	leaveRepo    attendance.LeaveRepository
	employees    attendance.EmployeeDirectory
	personnel    payroll.PersonnelRepository
	publisher    notification.Publisher
	cal          clock.Calendar
	clock        clock.Clock
	logger       *slog.Logger
}

// Dependencies wires the attendance service
type Dependencies struct {
	Transactor database.Transactor
	Attendance attendance.AttendanceRepository
	Settings   attendance.SettingsRepository
	Holidays   attendance.HolidayRepository
	Leaves     attendance.LeaveRepository
	Employees  attendance.EmployeeDirectory
	Personnel  payroll.PersonnelRepository
	Publisher  notification.Publisher
	Calendar   clock.Calendar
	Clock      clock.Clock
	Logger     *slog.Logger
}

func NewAttendanceService(deps Dependencies) attendance.AttendanceService {
	if deps.Clock == nil {
		deps.Clock = clock.SystemClock{}
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &AttendanceServiceImpl{
		tx:                   deps.Transactor,
		AttendanceRepository: deps.Attendance,
		settingsRepo:         deps.Settings,
		holidayRepo:          deps.Holidays,
		leaveRepo:            deps.Leaves,
		employees:            deps.Employees,
		personnel:            deps.Personnel,
		publisher:            deps.Publisher,
		cal:                  deps.Calendar,
		clock:                deps.Clock,
		logger:               deps.Logger.With("service", "attendance"),
	}
}

// loadSettings returns nil settings plus a warning when none are configured
func (s *AttendanceServiceImpl) loadSettings(ctx context.Context) (*attendance.Settings, []string, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		if errors.Is(err, attendance.ErrSettingsNotFound) {
			s.logger.Warn("attendance settings missing, penalties disabled")
			return nil, []string{warnSettingsMissing}, nil
		}
		return nil, nil, fmt.Errorf("failed to get attendance settings: %w", err)
	}
	return &settings, nil, nil
}

// ratesFor resolves the employee's salary into period rates
func (s *AttendanceServiceImpl) ratesFor(ctx context.Context, employeeID string, period attendance.Period) (Rates, []string, error) {
	p, err := s.personnel.GetByEmployeeID(ctx, employeeID)
	if err != nil && !errors.Is(err, payroll.ErrPersonnelNotFound) {
		return Rates{}, nil, fmt.Errorf("failed to get personnel: %w", err)
	}
	salary, ok := p.MonthlySalary()
	if !ok {
		return NewRates(decimal.Zero, period), []string{"employee has no basic salary; figures computed as zero"}, nil
	}
	return NewRates(salary, period), nil, nil
}

func (s *AttendanceServiceImpl) isHoliday(ctx context.Context, day time.Time) (bool, error) {
	holidays, err := s.holidayRepo.ListBetween(ctx, day, day)
	if err != nil {
		return false, fmt.Errorf("failed to list holidays: %w", err)
	}
	return NewHolidaySet(s.cal, holidays).Contains(s.cal, day), nil
}

// TimeIn implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) TimeIn(ctx context.Context, req attendance.PunchRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	now := s.cal.Now(s.clock)
	today := s.cal.StartOfDay(now)

	settings, _, err := s.loadSettings(ctx)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	var rec attendance.Record
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		stored, _, err := s.AttendanceRepository.CreateIfAbsent(ctx, attendance.Record{
			EmployeeID: req.EmployeeID,
			Date:       today,
			Status:     attendance.StatusPending,
		})
		if err != nil {
			return fmt.Errorf("failed to get or create attendance: %w", err)
		}

		if stored.Status == attendance.StatusOnLeave {
			return attendance.ErrOnLeave
		}
		if stored.TimeIn != nil {
			return attendance.ErrAlreadyTimedIn
		}

		stored.TimeIn = &now
		stored.Status = ClassifyTimeIn(settings, s.cal, today, now)
		if err := s.AttendanceRepository.UpdatePunches(ctx, stored); err != nil {
			return fmt.Errorf("failed to record time in: %w", err)
		}
		rec = stored
		return nil
	})
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	s.logger.Info("time in", "employee_id", rec.EmployeeID, "date", s.cal.DateKey(today), "status", string(rec.Status))
	return s.dayResponse(ctx, rec, settings, now)
}

// TimeOut implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) TimeOut(ctx context.Context, req attendance.PunchRequest) (attendance.RecordResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.RecordResponse{}, err
	}

	now := s.cal.Now(s.clock)
	today := s.cal.StartOfDay(now)

	settings, _, err := s.loadSettings(ctx)
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	var rec attendance.Record
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		stored, err := s.AttendanceRepository.GetByEmployeeAndDate(ctx, req.EmployeeID, today)
		if err != nil {
			return fmt.Errorf("failed to get attendance: %w", err)
		}
		if stored == nil || stored.TimeIn == nil {
			if stored != nil && stored.Status == attendance.StatusOnLeave {
				return attendance.ErrOnLeave
			}
			return attendance.ErrNotTimedIn
		}
		if stored.TimeOut != nil {
			return attendance.ErrAlreadyTimedOut
		}

		stored.TimeOut = &now
		stored.Status = ClassifyTimeOut(stored.Status, *stored.TimeIn, now)
		if err := s.AttendanceRepository.UpdatePunches(ctx, *stored); err != nil {
			return fmt.Errorf("failed to record time out: %w", err)
		}
		rec = *stored
		return nil
	})
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	s.logger.Info("time out", "employee_id", rec.EmployeeID, "date", s.cal.DateKey(today), "status", string(rec.Status))
	return s.dayResponse(ctx, rec, settings, now)
}

// GetDay implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetDay(ctx context.Context, employeeID string, date time.Time) (attendance.RecordResponse, error) {
	day := s.cal.Date(date)
	rec, err := s.AttendanceRepository.GetByEmployeeAndDate(ctx, employeeID, day)
	if err != nil {
		return attendance.RecordResponse{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	if rec == nil {
		return attendance.RecordResponse{}, attendance.ErrAttendanceNotFound
	}

	settings, _, err := s.loadSettings(ctx)
	if err != nil {
		return attendance.RecordResponse{}, err
	}
	return s.dayResponse(ctx, *rec, settings, s.cal.Now(s.clock))
}

func (s *AttendanceServiceImpl) dayResponse(ctx context.Context, rec attendance.Record, settings *attendance.Settings, now time.Time) (attendance.RecordResponse, error) {
	period, err := ResolvePeriod(settings, s.cal, now)
	if err != nil {
		return attendance.RecordResponse{}, err
	}
	rates, _, err := s.ratesFor(ctx, rec.EmployeeID, period)
	if err != nil {
		return attendance.RecordResponse{}, err
	}
	holiday, err := s.isHoliday(ctx, s.cal.Date(rec.Date))
	if err != nil {
		return attendance.RecordResponse{}, err
	}

	status := EffectiveStatus(rec, settings, s.cal, now, holiday)
	return s.toRecordResponse(rec, ComputeDay(rec, status, settings, s.cal, rates, now)), nil
}

func (s *AttendanceServiceImpl) toRecordResponse(rec attendance.Record, res attendance.DayResult) attendance.RecordResponse {
	return attendance.RecordResponse{
		ID:                rec.ID,
		EmployeeID:        rec.EmployeeID,
		Date:              s.cal.DateKey(res.Date),
		StoredStatus:      rec.Status,
		Status:            res.Status,
		TimeIn:            s.timePtrToString(rec.TimeIn),
		TimeOut:           s.timePtrToString(rec.TimeOut),
		HoursWorked:       res.HoursWorked.Round(2),
		Earnings:          res.Earnings.Round(2),
		LateDeduction:     res.LateDeduction.Round(2),
		AbsenceDeduction:  res.AbsenceDeduction.Round(2),
		PartialDeduction:  res.PartialDeduction.Round(2),
		EarlyOutDeduction: res.EarlyOutDeduction.Round(2),
		TotalDeduction:    res.TotalDeduction().Round(2),
	}
}

// timePtrToString formats a punch in the organization timezone.
func (s *AttendanceServiceImpl) timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	format := t.In(s.cal.Location()).Format("2006-01-02 15:04:05")
	return &format
}

// ListPeriod implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ListPeriod(ctx context.Context, employeeID string) (attendance.PeriodAttendanceResponse, error) {
	now := s.cal.Now(s.clock)

	settings, warnings, err := s.loadSettings(ctx)
	if err != nil {
		return attendance.PeriodAttendanceResponse{}, err
	}
	period, err := ResolvePeriod(settings, s.cal, now)
	if err != nil {
		return attendance.PeriodAttendanceResponse{}, err
	}
	if period.Defaulted {
		warnings = append(warnings, "no pay period configured; using the current semi-monthly window")
	}

	rates, rateWarnings, err := s.ratesFor(ctx, employeeID, period)
	if err != nil {
		return attendance.PeriodAttendanceResponse{}, err
	}
	warnings = append(warnings, rateWarnings...)

	records, err := s.AttendanceRepository.ListByEmployee(ctx, employeeID, period.Start, period.EffectiveEnd)
	if err != nil {
		return attendance.PeriodAttendanceResponse{}, fmt.Errorf("failed to list attendance: %w", err)
	}
	holidays, err := s.holidayRepo.ListBetween(ctx, period.Start, period.EffectiveEnd)
	if err != nil {
		return attendance.PeriodAttendanceResponse{}, fmt.Errorf("failed to list holidays: %w", err)
	}

	used, results := EvaluateDays(records, settings, s.cal, period, rates, NewHolidaySet(s.cal, holidays), now)

	resp := attendance.PeriodAttendanceResponse{
		EmployeeID:     employeeID,
		PeriodStart:    s.cal.DateKey(period.Start),
		PeriodEnd:      s.cal.DateKey(period.End),
		EffectiveEnd:   s.cal.DateKey(period.EffectiveEnd),
		WorkingDays:    period.WorkingDays,
		DailyRate:      rates.Daily.Amount().Round(2),
		Days:           make([]attendance.RecordResponse, 0, len(used)),
		TotalEarnings:  decimal.Zero,
		TotalDeduction: decimal.Zero,
		Warnings:       warnings,
	}
	earnings := decimal.Zero
	deductions := decimal.Zero
	for i, rec := range used {
		resp.Days = append(resp.Days, s.toRecordResponse(rec, results[i]))
		earnings = earnings.Add(results[i].Earnings)
		deductions = deductions.Add(results[i].TotalDeduction())
	}
	resp.TotalEarnings = earnings.Round(2)
	resp.TotalDeduction = deductions.Round(2)

	return resp, nil
}

// ProvisionPeriod implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ProvisionPeriod(ctx context.Context) (attendance.ProvisionResult, error) {
	now := s.cal.Now(s.clock)

	settings, _, err := s.loadSettings(ctx)
	if err != nil {
		return attendance.ProvisionResult{}, err
	}
	period, err := ResolvePeriod(settings, s.cal, now)
	if err != nil {
		return attendance.ProvisionResult{}, err
	}

	employeeIDs, err := s.employees.ListActiveEmployeeIDs(ctx)
	if err != nil {
		return attendance.ProvisionResult{}, fmt.Errorf("failed to list active employees: %w", err)
	}

	days := s.cal.WorkingDays(period.Start, period.End)
	records := make([]attendance.Record, 0, len(days)*len(employeeIDs))
	for _, employeeID := range employeeIDs {
		for _, day := range days {
			records = append(records, attendance.Record{
				EmployeeID: employeeID,
				Date:       day,
				Status:     attendance.StatusPending,
			})
		}
	}

	var created int64
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		n, err := s.AttendanceRepository.BulkCreateIfAbsent(ctx, records)
		if err != nil {
			return fmt.Errorf("failed to provision attendance: %w", err)
		}
		created = n

		for _, employeeID := range employeeIDs {
			spans, err := s.leaveRepo.ListApproved(ctx, employeeID, period.Start, period.End)
			if err != nil {
				return fmt.Errorf("failed to list approved leaves: %w", err)
			}
			for _, span := range spans {
				if _, err := s.forceLeave(ctx, span.EmployeeID, span.StartDate, span.EndDate); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return attendance.ProvisionResult{}, err
	}

	s.logger.Info("attendance period provisioned",
		"period_start", s.cal.DateKey(period.Start),
		"period_end", s.cal.DateKey(period.End),
		"employees", len(employeeIDs),
		"created", created,
	)

	return attendance.ProvisionResult{
		PeriodStart: s.cal.DateKey(period.Start),
		PeriodEnd:   s.cal.DateKey(period.End),
		Employees:   len(employeeIDs),
		WorkingDays: len(days),
		Created:     created,
	}, nil
}

// MarkAbsent implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) MarkAbsent(ctx context.Context) (attendance.MarkAbsentResult, error) {
	now := s.cal.Now(s.clock)

	settings, _, err := s.loadSettings(ctx)
	if err != nil {
		return attendance.MarkAbsentResult{}, err
	}
	if !settings.AbsentMarkingEnabled() {
		s.logger.Info("absent marking disabled, skipping")
		return attendance.MarkAbsentResult{}, nil
	}

	period, err := ResolvePeriod(settings, s.cal, now)
	if err != nil {
		return attendance.MarkAbsentResult{}, err
	}
	records, err := s.AttendanceRepository.ListByDateRange(ctx, period.Start, period.EffectiveEnd)
	if err != nil {
		return attendance.MarkAbsentResult{}, fmt.Errorf("failed to list attendance: %w", err)
	}
	holidayList, err := s.holidayRepo.ListBetween(ctx, period.Start, period.EffectiveEnd)
	if err != nil {
		return attendance.MarkAbsentResult{}, fmt.Errorf("failed to list holidays: %w", err)
	}
	holidays := NewHolidaySet(s.cal, holidayList)

	marked := 0
	for _, rec := range records {
		if rec.Status != attendance.StatusPending {
			continue
		}
		day := s.cal.Date(rec.Date)
		if EffectiveStatus(rec, settings, s.cal, now, holidays.Contains(s.cal, day)) != attendance.StatusAbsent {
			continue
		}

		ok, err := s.AttendanceRepository.UpdateStatusIf(ctx, rec.ID, attendance.StatusPending, attendance.StatusAbsent)
		if err != nil {
			return attendance.MarkAbsentResult{Marked: marked}, fmt.Errorf("failed to mark absent: %w", err)
		}
		if !ok {
			// Punched or put on leave since the read
			continue
		}
		marked++
		s.publish(ctx, notification.Event{
			Type:       notification.TypeMarkedAbsent,
			EmployeeID: rec.EmployeeID,
			Data:       map[string]interface{}{"attendance_id": rec.ID, "date": s.cal.DateKey(day)},
		})
	}

	s.logger.Info("absent marking finished", "marked", marked)
	return attendance.MarkAbsentResult{Marked: marked}, nil
}

// ApplyLeave implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) ApplyLeave(ctx context.Context, req attendance.ApplyLeaveRequest) (attendance.ApplyLeaveResult, error) {
	if err := req.Validate(); err != nil {
		return attendance.ApplyLeaveResult{}, err
	}
	start, err := s.cal.ParseDate(req.StartDate)
	if err != nil {
		return attendance.ApplyLeaveResult{}, err
	}
	end, err := s.cal.ParseDate(req.EndDate)
	if err != nil {
		return attendance.ApplyLeaveResult{}, err
	}
	if end.Before(start) {
		return attendance.ApplyLeaveResult{}, attendance.ErrInvalidLeaveSpan
	}

	var days int
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		days, err = s.forceLeave(ctx, req.EmployeeID, start, end)
		return err
	})
	if err != nil {
		return attendance.ApplyLeaveResult{}, err
	}

	s.logger.Info("leave applied", "employee_id", req.EmployeeID, "start", req.StartDate, "end", req.EndDate, "days", days)
	return attendance.ApplyLeaveResult{EmployeeID: req.EmployeeID, Days: days}, nil
}

func (s *AttendanceServiceImpl) forceLeave(ctx context.Context, employeeID string, start, end time.Time) (int, error) {
	days := s.cal.Days(s.cal.Date(start), s.cal.Date(end))
	for _, day := range days {
		if err := s.AttendanceRepository.ForceLeave(ctx, employeeID, day); err != nil {
			return 0, fmt.Errorf("failed to apply leave on %s: %w", s.cal.DateKey(day), err)
		}
	}
	return len(days), nil
}

// GetSettings implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) GetSettings(ctx context.Context) (attendance.SettingsResponse, error) {
	settings, err := s.settingsRepo.Get(ctx)
	if err != nil {
		if errors.Is(err, attendance.ErrSettingsNotFound) {
			return attendance.ToSettingsResponse(attendance.Settings{}, false), nil
		}
		return attendance.SettingsResponse{}, fmt.Errorf("failed to get attendance settings: %w", err)
	}
	return attendance.ToSettingsResponse(settings, true), nil
}

// UpdateSettings implements attendance.AttendanceService.
func (s *AttendanceServiceImpl) UpdateSettings(ctx context.Context, req attendance.UpdateSettingsRequest) (attendance.SettingsResponse, error) {
	if err := req.Validate(); err != nil {
		return attendance.SettingsResponse{}, err
	}

	current, err := s.settingsRepo.Get(ctx)
	if err != nil && !errors.Is(err, attendance.ErrSettingsNotFound) {
		return attendance.SettingsResponse{}, fmt.Errorf("failed to get attendance settings: %w", err)
	}

	windows := []struct {
		in  *string
		out **clock.TimeOfDay
	}{
		{req.TimeInStart, &current.TimeInStart},
		{req.TimeInEnd, &current.TimeInEnd},
		{req.TimeOutStart, &current.TimeOutStart},
		{req.TimeOutEnd, &current.TimeOutEnd},
	}
	for _, w := range windows {
		if w.in == nil {
			continue
		}
		tod, err := clock.ParseTimeOfDay(*w.in)
		if err != nil {
			return attendance.SettingsResponse{}, err
		}
		*w.out = &tod
	}

	if req.PeriodStart != nil {
		d, err := s.cal.ParseDate(*req.PeriodStart)
		if err != nil {
			return attendance.SettingsResponse{}, err
		}
		current.PeriodStart = &d
	}
	if req.PeriodEnd != nil {
		d, err := s.cal.ParseDate(*req.PeriodEnd)
		if err != nil {
			return attendance.SettingsResponse{}, err
		}
		current.PeriodEnd = &d
	}
	if current.PeriodStart != nil && current.PeriodEnd != nil && s.cal.Date(*current.PeriodEnd).Before(s.cal.Date(*current.PeriodStart)) {
		return attendance.SettingsResponse{}, attendance.ErrInvalidPeriod
	}

	if req.TimeInCutoffDisabled != nil {
		current.TimeInCutoffDisabled = *req.TimeInCutoffDisabled
	}
	if req.TimeOutCutoffDisabled != nil {
		current.TimeOutCutoffDisabled = *req.TimeOutCutoffDisabled
	}
	if req.AutoMarkAbsent != nil {
		current.AutoMarkAbsent = *req.AutoMarkAbsent
	}
	if req.AutoMarkLate != nil {
		current.AutoMarkLate = *req.AutoMarkLate
	}

	saved, err := s.settingsRepo.Upsert(ctx, current)
	if err != nil {
		return attendance.SettingsResponse{}, fmt.Errorf("failed to save attendance settings: %w", err)
	}

	s.logger.Info("attendance settings updated")
	return attendance.ToSettingsResponse(saved, true), nil
}

func (s *AttendanceServiceImpl) publish(ctx context.Context, ev notification.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("failed to publish event", "type", string(ev.Type), "error", err)
	}
}
