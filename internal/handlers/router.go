package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ukydev/farm-maintenance/internal/middleware"
	"github.com/ukydev/farm-maintenance/internal/models"
)

// RateLimit bounds requests per client IP inside a window of seconds.
type RateLimit struct {
	Max           int
	WindowSeconds int
}

// NewRouter wires every endpoint behind authentication, permissions and
// rate limiting. /health and /metrics stay public.
func NewRouter(h *MachineHandler, authMW *middleware.AuthMiddleware, limiter *middleware.RateLimitMiddleware, limit RateLimit) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recover)
	r.Use(middleware.Logger)

	r.Get("/health", h.Health)
	r.Get("/metrics", h.Metrics)

	r.Route("/api", func(r chi.Router) {
		r.Use(limiter.RateLimit(limit.Max, limit.WindowSeconds))
		r.Use(authMW.Authenticate)

		can := authMW.RequirePermission

		r.With(can(models.ActionViewHealth)).Get("/machines", h.ListMachines)
		r.With(can(models.ActionManagePlans)).Post("/machines", h.CreateMachine)

		r.Route("/machines/{id}", func(r chi.Router) {
			r.With(can(models.ActionViewHealth)).Get("/health", h.GetHealth)
			r.With(can(models.ActionViewHealth)).Get("/predictions", h.GetPredictions)
			r.With(can(models.ActionManagePlans)).Post("/plans/defaults", h.InitDefaultPlans)
			r.With(can(models.ActionRecordLogs)).Post("/maintenance-logs", h.CreateMaintenanceLog)
			r.With(can(models.ActionRecordLogs)).Post("/work-logs", h.CreateWorkLog)
			r.With(can(models.ActionRecordLogs)).Put("/work-logs/{logID}/close", h.CloseWorkLog)
			r.With(can(models.ActionReportHours)).Put("/engine-hours", h.UpdateEngineHours)
			r.With(can(models.ActionReportHours)).Put("/status", h.UpdateStatus)
		})

		r.With(can(models.ActionViewHealth)).Get("/fleet/overview", h.GetFleetOverview)
		r.With(can(models.ActionViewCatalog)).Get("/catalog/plans", h.PreviewPlans)
	})

	return r
}
