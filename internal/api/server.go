// Package api serves the optional read-only status endpoints.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"

	"github.com/albapepper/halftime-watch/internal/api/handler"
)

// Options configures the router.
type Options struct {
	CORSAllowOrigins  []string
	RateLimitRequests int
	RateLimitWindow   time.Duration
}

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(h *handler.Handler, opts Options, logger *slog.Logger) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LogMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5))

	c := corslib.New(corslib.Options{
		AllowedOrigins: opts.CORSAllowOrigins,
		AllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Accept-Encoding", "If-None-Match"},
		ExposedHeaders: []string{"X-Process-Time", "X-Cache", "ETag"},
	})
	r.Use(c.Handler)

	if opts.RateLimitRequests > 0 {
		r.Use(RateLimitMiddleware(opts.RateLimitRequests, opts.RateLimitWindow))
	}

	// --- Routes ---
	r.Get("/", h.Root)

	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/cache", h.HealthCheckCache)
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/status", h.GetStatus)
		r.Get("/notified", h.GetNotified)
		r.Get("/cycles/last", h.GetLastCycle)
	})

	return r
}

// NewServer wraps the router in an http.Server with conservative timeouts.
func NewServer(addr string, router http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
