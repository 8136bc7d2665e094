// Package http assembles the REST API of the ClauseLens server: the chi
// route tree, the middleware chain and the http.Server lifecycle.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/turtacn/ClauseLens/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/ClauseLens/internal/interfaces/http/handlers"
	"github.com/turtacn/ClauseLens/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies of the
// route tree.  Nil handlers leave their routes unregistered and nil
// middleware entries are skipped, so tests can wire only what they exercise.
type RouterConfig struct {
	Documents   *handlers.DocumentHandler
	Comparisons *handlers.ComparisonHandler
	Search      *handlers.SearchHandler
	Health      *handlers.HealthHandler

	CORS      func(http.Handler) http.Handler
	Logging   func(http.Handler) http.Handler
	RateLimit func(http.Handler) http.Handler

	// Metrics instruments every request; MetricsHandler serves the
	// exposition endpoint.
	Metrics        *prometheus.Metrics
	MetricsHandler http.Handler
}

// NewRouter constructs the complete route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.CORS != nil {
		r.Use(cfg.CORS)
	}
	if cfg.Logging != nil {
		r.Use(cfg.Logging)
	}
	if cfg.RateLimit != nil {
		r.Use(cfg.RateLimit)
	}

	// Probes stay outside /api/v1 so infrastructure can reach them
	// without versioned paths.
	if cfg.Health != nil {
		r.Get("/healthz", cfg.Health.Liveness)
		r.Get("/readyz", cfg.Health.Readiness)
		r.Get("/healthz/detail", cfg.Health.Detailed)
	}
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(api chi.Router) {
		registerDocumentRoutes(api, cfg.Documents)
		registerComparisonRoutes(api, cfg.Comparisons)
		registerClauseRoutes(api, cfg.Search)
	})

	return r
}

// registerDocumentRoutes mounts document endpoints under /documents.
func registerDocumentRoutes(r chi.Router, h *handlers.DocumentHandler) {
	if h == nil {
		return
	}
	r.Route("/documents", func(dr chi.Router) {
		dr.Get("/", h.List)
		dr.Post("/", h.Upload)
		dr.Get("/stats", h.Stats)

		dr.Route("/{documentID}", func(item chi.Router) {
			item.Get("/", h.Get)
			item.Delete("/", h.Delete)
			item.Get("/download", h.Download)
		})
	})
}

// registerComparisonRoutes mounts comparison run endpoints under /comparisons.
func registerComparisonRoutes(r chi.Router, h *handlers.ComparisonHandler) {
	if h == nil {
		return
	}
	r.Route("/comparisons", func(cr chi.Router) {
		cr.Get("/", h.List)
		cr.Post("/", h.Create)

		cr.Route("/{runID}", func(item chi.Router) {
			item.Get("/", h.Get)
			item.Get("/results", h.Results)
			item.Get("/report", h.Report)
		})
	})
}

// registerClauseRoutes mounts clause search endpoints under /clauses.
func registerClauseRoutes(r chi.Router, h *handlers.SearchHandler) {
	if h == nil {
		return
	}
	r.Route("/clauses", func(sr chi.Router) {
		sr.Get("/search", h.Search)
	})
}
