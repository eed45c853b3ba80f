package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/frontdesk/internal/scheduling"
)

type RouterConfig struct {
	Service *scheduling.Service
	Sweeper *scheduling.Sweeper
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Env     string
	Version string
	Logger  zerolog.Logger

	// Day-grid rendering settings.
	WorkdayStart string
	WorkdayEnd   string
	SlotMinutes  int
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Post("/appointments", bookAppointmentHandler(cfg.Service))
	r.Get("/appointments", dayViewHandler(cfg.Service))
	r.Get("/slots", slotGridHandler(cfg.Service, cfg.WorkdayStart, cfg.WorkdayEnd, cfg.SlotMinutes))
	r.Post("/appointments/{id}/move", moveAppointmentHandler(cfg.Service))
	r.Post("/appointments/{id}/cancel", transitionHandler(func(req *http.Request, id uuid.UUID) (*scheduling.Appointment, error) {
		return cfg.Service.Cancel(req.Context(), id)
	}))
	r.Post("/appointments/{id}/complete", transitionHandler(func(req *http.Request, id uuid.UUID) (*scheduling.Appointment, error) {
		return cfg.Service.Complete(req.Context(), id)
	}))

	r.Post("/admission-checks", checkAdmissionHandler(cfg.Service))

	r.Post("/exceptions", createExceptionHandler(cfg.Service))
	r.Get("/exceptions", listExceptionsHandler(cfg.Service))
	r.Delete("/exceptions/{id}", deleteExceptionHandler(cfg.Service))

	r.Post("/holidays/import", importHolidaysHandler(cfg.Service))
	r.Get("/holidays", listHolidaysHandler(cfg.Service))

	r.Post("/sweep", sweepHandler(cfg.Sweeper))

	return r
}
