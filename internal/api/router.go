package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/hackgods/clinic-scheduling/internal/observability/metrics"
)

type RouterConfig struct {
	Scheduler    Scheduler
	Directory    Directory
	Availability Availability
	Patients     Patients

	Postgres Pinger
	Redis    Pinger

	Metrics *metrics.Metrics
	// MetricsHandler serves /metrics; nil disables the endpoint.
	MetricsHandler http.Handler
	Logger         *zap.Logger

	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(RecoverMiddleware(log))
	r.Use(TracingMiddleware("clinic-scheduling"))
	r.Use(MetricsMiddleware(cfg.Metrics))
	r.Use(LoggingMiddleware(log))

	health := NewHealthHandler(cfg.Postgres, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/appointments", func(r chi.Router) {
		r.Post("/book", bookAppointmentHandler(cfg.Scheduler, log))
		r.Post("/latest", latestAppointmentHandler(cfg.Scheduler, log))
		r.Post("/cancel", cancelAppointmentHandler(cfg.Scheduler, log))
	})

	r.Route("/doctors", func(r chi.Router) {
		r.Post("/by-department", doctorsByDepartmentHandler(cfg.Directory, log))
		r.Post("/time-slots", timeSlotsHandler(cfg.Directory, cfg.Availability, log))
		r.Post("/check-availability", checkAvailabilityHandler(cfg.Directory, cfg.Availability, log))
		r.Post("/available-dates", availableDatesHandler(cfg.Directory, cfg.Availability, log))
	})

	r.Post("/patients", createPatientHandler(cfg.Patients, log))
	r.Post("/patients/validate", validatePatientHandler(cfg.Patients, log))

	return r
}

// DefaultMetricsHandler exposes the default Prometheus registry.
func DefaultMetricsHandler() http.Handler {
	return promhttp.Handler()
}
