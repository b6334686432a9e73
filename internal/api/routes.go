package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/hoylabs/hoy-analytics/internal/auth"
)

// SetupRoutes configures all API routes. The health check is open; every
// /api route requires a verified bearer token.
func SetupRoutes(h *Handlers, verifier *auth.Verifier) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://app.hoylabs.io", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (no auth required)
	r.Get("/health", h.HealthCheck)

	r.Route("/api", func(r chi.Router) {
		if verifier != nil {
			r.Use(verifier.Middleware)
		}

		r.Route("/metrics", func(r chi.Router) {
			r.Get("/summary", h.GetSummary)
			r.Get("/trend", h.GetTrend)
			r.Get("/channels", h.GetChannels)
		})

		r.Route("/ai", func(r chi.Router) {
			r.Get("/anomalies", h.GetAnomalies)
			r.Get("/insights", h.GetInsights)
			r.Get("/recommendations", h.GetRecommendations)
			r.Post("/query", h.AskAssistant)
		})

		r.Route("/alerts", func(r chi.Router) {
			r.Post("/", h.CreateAlert)
			r.Get("/", h.ListAlerts)
			r.Put("/{id}/status", h.UpdateAlertStatus)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Get("/detailed", h.GetDetailedReport)
			r.Get("/export", h.ExportReportCSV)
			r.Post("/archive", h.ArchiveReport)
		})

		r.Post("/sync", h.TriggerSync)
	})

	return r
}
