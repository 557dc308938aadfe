package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// RouterConfig holds the transport settings applied around the handlers.
type RouterConfig struct {
	// APIKey enables bearer authentication when non-empty.
	APIKey         string
	AllowedOrigins []string
	DeleteBurst    int
	DeleteInterval time.Duration
}

// NewRouter creates a new router with all routes configured
func NewRouter(h *Handler, cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(RecoveryMiddleware)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
			ExposedHeaders: []string{"Retry-After"},
			MaxAge:         300,
		}))
	}

	burst, interval := cfg.DeleteBurst, cfg.DeleteInterval
	if burst < 1 {
		burst = 100
	}
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	deleteRateLimiter := NewDeleteRateLimiter(burst, interval)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Get("/health", h.Health)

		r.Group(func(r chi.Router) {
			if cfg.APIKey != "" {
				r.Use(AuthMiddleware(cfg.APIKey))
			}

			r.Get("/scripts", h.ListScripts)
			r.Post("/scripts", h.CreateScript)
			r.Put("/scripts", h.UpdateScript)
			r.With(deleteRateLimiter.Middleware).Delete("/scripts", h.DeleteScript)
			r.Post("/scripts/convert", h.ConvertDocument)

			r.Get("/performance-goals", h.GetPerformanceGoals)
			r.Post("/performance-goals", h.SetPerformanceGoals)
			r.Get("/performance-goals/duration", h.CallDuration)
			r.Post("/performance-goals/duration", h.CallDuration)
			r.Get("/duration", h.CallDuration)
			r.Get("/call-extend-status", h.CallExtendStatus)

			r.Get("/templates", h.ListTemplates)
		})
	})

	return r
}
