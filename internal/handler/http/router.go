package http

import (
	"io"
	"log/slog"

	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/middleware"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/jwt"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httplog/v3"
	"github.com/go-chi/jwtauth/v5"
)

// RouterConfig carries the transport-level settings of the router
type RouterConfig struct {
	Logger         *slog.Logger
	AllowedOrigins []string
	LogLevel       slog.Level
}

type Handlers struct {
	Attendance AttendanceHandler
	Payroll    PayrollHandler
	Events     EventHandler
}

func NewRouter(cfg RouterConfig, jwtService jwt.Service, h Handlers) *chi.Mux {
	r := chi.NewRouter()

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowCredentials: !containsWildcard(origins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		MaxAge:           300,
	}))

	r.Use(httplog.RequestLogger(logger, &httplog.Options{
		Level:  cfg.LogLevel,
		Schema: httplog.SchemaECS,
	}))

	r.Use(chiMiddleware.AllowContentType("application/json"))
	r.Use(chiMiddleware.CleanPath)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))

	r.Route("/api/v1", func(r chi.Router) {

		// Stream tokens are checked by the handler itself
		r.Get("/events/stream", h.Events.Stream)

		// Requires authentication
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(jwtService.JWTAuth()))
			r.Use(middleware.AuthRequired)

			r.Get("/events/token", h.Events.GetStreamToken)

			r.Route("/attendance", func(r chi.Router) {
				r.Post("/time-in", h.Attendance.TimeIn)
				r.Post("/time-out", h.Attendance.TimeOut)
				r.Get("/me/period", h.Attendance.GetMyPeriod)
				r.Get("/me/days/{date}", h.Attendance.GetMyDay)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Get("/settings", h.Attendance.GetSettings)
					r.Put("/settings", h.Attendance.UpdateSettings)
					r.Post("/provision", h.Attendance.ProvisionPeriod)
					r.Post("/mark-absent", h.Attendance.MarkAbsent)
					r.Post("/leaves", h.Attendance.ApplyLeave)
					r.Get("/employees/{employeeID}/period", h.Attendance.GetEmployeePeriod)
					r.Get("/employees/{employeeID}/days/{date}", h.Attendance.GetEmployeeDay)
				})
			})

			r.Route("/payroll", func(r chi.Router) {
				r.Get("/me/entries", h.Payroll.ListMyEntries)

				// Admin only
				r.Group(func(r chi.Router) {
					r.Use(middleware.AdminOnly)
					r.Post("/preview", h.Payroll.Preview)
					r.Post("/entries", h.Payroll.CreateDraft)
					r.Get("/entries", h.Payroll.ListEntries)
					r.Get("/entries/{id}", h.Payroll.GetEntry)
					r.Post("/entries/{id}/release", h.Payroll.Release)
					r.Post("/archive", h.Payroll.ArchivePeriod)
					r.Get("/deduction-types", h.Payroll.ListDeductionTypes)
					r.Post("/deductions", h.Payroll.ApplyDeduction)
				})
			})
		})
	})
	return r
}

// NewLogger builds the ECS-formatted JSON logger used for requests and services
func NewLogger(w io.Writer, level slog.Level, env string) *slog.Logger {
	logFormat := httplog.SchemaECS.Concise(env != "production")
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "payroll-engine"),
		slog.String("env", env),
	)
}

// ParseLogLevel maps debug|info|warn|error to a slog level, defaulting to info
func ParseLogLevel(v string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(v)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
