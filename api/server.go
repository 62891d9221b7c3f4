/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, picked up by the request logger
  2. Logger:     zap request logging (logging.RequestLogger)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the form frontend

ROUTE GROUPS:
  /api/health           Readiness
  /api/session/*        Cookie-bound form state
  /api/wochennachweis/* Week data, ZIP downloads, template
  /api/feiertage/*      Public holidays
  /api/holidays/*       Custom holidays

SECURITY NOTE:
  No authentication middleware. The session cookie only separates
  browsers, it does not authenticate anyone.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/warp/wochennachweis/logging"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(logging.RequestLogger(h.Logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/session", func(r chi.Router) {
			r.Get("/", h.GetSession)
			r.Delete("/", h.ClearSession)
			r.Put("/person", h.UpdatePerson)
			r.Post("/zeitraeume", h.AddZeitraum)
			r.Delete("/zeitraeume/{index}", h.DeleteZeitraum)
		})

		r.Route("/wochennachweis", func(r chi.Router) {
			r.Post("/generate-data", h.GenerateData)
			r.Get("/generate-from-session", h.GenerateFromSession)
			r.Post("/generate", h.Generate)
			r.Get("/download", h.Download)
			r.Get("/template", h.Template)
		})

		r.Route("/feiertage", func(r chi.Router) {
			r.Get("/{year}", h.GetFeiertage)
			r.Post("/cache/clear", h.ClearHolidayCache)
		})

		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Delete("/{id}", h.DeleteHoliday)
		})
	})

	return r
}
