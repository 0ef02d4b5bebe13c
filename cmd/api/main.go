package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/config"
	appHTTP "github.com/cmlabs-hris/payroll-engine/internal/handler/http"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/cron"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/jwt"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/sse"
	"github.com/cmlabs-hris/payroll-engine/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/payroll-engine/internal/service/attendance"
	notificationService "github.com/cmlabs-hris/payroll-engine/internal/service/notification"
	payrollService "github.com/cmlabs-hris/payroll-engine/internal/service/payroll"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	level := appHTTP.ParseLogLevel(cfg.App.LogLevel)
	logger := appHTTP.NewLogger(os.Stdout, level, cfg.App.Env)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDBWithConfig(ctx, cfg.DatabaseURL(), database.PoolConfig{})
	if err != nil {
		logger.Error("Error connecting to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	cal := cfg.Calendar()
	clk := clock.SystemClock{}

	// Repositories
	transactor := postgresql.NewTransactor(db)
	attendanceRepo := postgresql.NewAttendanceRepository(db)
	settingsRepo := postgresql.NewSettingsRepository(db)
	holidayRepo := postgresql.NewHolidayRepository(db)
	leaveRepo := postgresql.NewLeaveRequestRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	personnelRepo := postgresql.NewPersonnelRepository(db)
	payrollRepo := postgresql.NewPayrollRepository(db)
	deductionRepo := postgresql.NewDeductionRepository(db)
	loanRepo := postgresql.NewLoanRepository(db)

	// Services
	hub := sse.NewHub()
	publisher := notificationService.NewPublisher(hub, logger, notificationService.Config{})

	attendanceSvc := attendanceService.NewAttendanceService(attendanceService.Dependencies{
		Transactor: transactor,
		Attendance: attendanceRepo,
		Settings:   settingsRepo,
		Holidays:   holidayRepo,
		Leaves:     leaveRepo,
		Employees:  employeeRepo,
		Personnel:  personnelRepo,
		Publisher:  publisher,
		Calendar:   cal,
		Clock:      clk,
		Logger:     logger,
	})
	payrollSvc := payrollService.NewPayrollService(payrollService.Dependencies{
		Transactor: transactor,
		Entries:    payrollRepo,
		Deductions: deductionRepo,
		Loans:      loanRepo,
		Personnel:  personnelRepo,
		Attendance: attendanceRepo,
		Settings:   settingsRepo,
		Holidays:   holidayRepo,
		Publisher:  publisher,
		Calendar:   cal,
		Clock:      clk,
		Logger:     logger,
	})
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.AccessTTL())

	// Cron
	scheduler := cron.NewScheduler(logger)
	if cfg.Cron.Enabled {
		cron.NewAttendanceJobs(attendanceSvc, cfg.Cron.Interval).RegisterJobs(scheduler)
		scheduler.Start(ctx)
	}

	router := appHTTP.NewRouter(appHTTP.RouterConfig{
		Logger:         logger,
		AllowedOrigins: cfg.App.CORSAllowedOrigins,
		LogLevel:       level,
	}, JWTService, appHTTP.Handlers{
		Attendance: appHTTP.NewAttendanceHandler(attendanceSvc, cal),
		Payroll:    appHTTP.NewPayrollHandler(payrollSvc, cal),
		Events:     appHTTP.NewEventHandler(publisher, JWTService),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}
	scheduler.Stop()
	publisher.Stop()
}
