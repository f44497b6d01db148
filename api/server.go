/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address from X-Forwarded-For / X-Real-IP
  3. Logger:     zap request logging (see middleware.go)
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for the portal frontend

ROUTE GROUPS:
  /api/time             Corrected server time
  /api/hours/*          Hours preview
  /api/holidays/*       Holiday calendar
  /api/requests/*       Leave and overtime requests
  /api/admin/*          Admin operations

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultAllowedOrigins is used when no origins are configured.
var DefaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	if len(allowedOrigins) == 0 {
		allowedOrigins = DefaultAllowedOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(h.logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Get("/time", h.GetTime)
		r.Post("/hours/preview", h.PreviewHours)

		// Holiday routes
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Post("/defaults", h.AddDefaultHolidays)
			r.Delete("/{id}", h.DeleteHoliday)
		})

		// Request routes
		r.Route("/requests", func(r chi.Router) {
			r.Get("/", h.ListRequests)
			r.Post("/", h.SubmitRequest)
			r.Get("/{id}", h.GetRequest)
			r.Put("/{id}/span", h.UpdateRequestSpan)
			r.Post("/{id}/approve", h.ApproveRequest)
			r.Post("/{id}/reject", h.RejectRequest)
			r.Post("/{id}/cancel", h.CancelRequest)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/recalculate", h.Recalculate)
		})
	})

	return r
}
