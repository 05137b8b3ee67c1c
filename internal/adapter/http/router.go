package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/ledgersaga/internal/adapter/http/handler"
	"github.com/iho/ledgersaga/internal/adapter/http/middleware"
	"github.com/iho/ledgersaga/internal/infrastructure/metrics"
	"github.com/iho/ledgersaga/internal/usecase"
)

// RouterConfig holds dependencies for the router. Nil handlers leave their
// routes unmounted, so each service only exposes what it owns.
type RouterConfig struct {
	AccountHandler     *handler.AccountHandler
	TransactionHandler *handler.TransactionHandler
	ReplicaHandler     *handler.ReplicaHandler
	OutboxHandler      *handler.OutboxHandler
	HealthHandler      *handler.HealthHandler

	Logger           zerolog.Logger
	Metrics          *metrics.Metrics
	MetricsHandler   http.Handler
	RateLimiter      *middleware.RateLimiter
	IdempotencyStore usecase.IdempotencyStore
	IdempotencyTTL   time.Duration
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	health := cfg.HealthHandler
	if health == nil {
		health = handler.NewHealthHandler()
	}
	r.Get("/health", health.Liveness)
	r.Get("/ready", health.Readiness)

	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(r chi.Router) {
		if cfg.IdempotencyStore != nil {
			idempotency := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger)
			r.Use(idempotency.Wrap)
		}

		if h := cfg.AccountHandler; h != nil {
			r.Route("/accounts", func(r chi.Router) {
				r.Post("/", h.Create)
				r.Get("/", h.List)
				r.Get("/by-number/{number}", h.GetByNumber)
				r.Get("/{id}", h.Get)
				r.Patch("/{id}/status", h.UpdateStatus)
			})
		}

		if h := cfg.TransactionHandler; h != nil {
			r.Route("/transactions", func(r chi.Router) {
				r.Post("/", h.Create)
				r.Get("/", h.List)
				r.Get("/{id}", h.Get)
			})
		}

		if h := cfg.ReplicaHandler; h != nil {
			r.Route("/replicas", func(r chi.Router) {
				r.Get("/", h.List)
				r.Get("/{id}", h.Get)
			})
		}

		if h := cfg.OutboxHandler; h != nil {
			r.Route("/outbox", func(r chi.Router) {
				r.Get("/", h.List)
				r.Post("/{id}/requeue", h.Requeue)
			})
		}
	})

	return r
}
