package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-freight/internal/common"
	"github.com/noah-isme/backend-freight/internal/health"
	"github.com/noah-isme/backend-freight/internal/obs"
	"github.com/noah-isme/backend-freight/internal/order"
	"github.com/noah-isme/backend-freight/internal/quote"
	"github.com/noah-isme/backend-freight/internal/ratelimit"
	"github.com/noah-isme/backend-freight/internal/security"
)

type routerConfig struct {
	Logger         zerolog.Logger
	AllowedOrigins []string
	HTTPMetrics    *obs.HTTPMetrics
	ServeMetrics   bool
	Pprof          http.Handler
	RateLimit      ratelimit.Handler
	Idempotency    common.Idem
	Security       security.Headers
	Health         health.Handler
	Quotes         *quote.Handler
	Orders         *order.Handler
}

func newRouter(cfg routerConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if cfg.HTTPMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: cfg.HTTPMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: cfg.Logger}.Middleware)
	r.Use(cfg.Security.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", common.IdempotencyHeader},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))

	if cfg.ServeMetrics {
		r.Handle("/metrics", promhttp.Handler())
	}
	if cfg.Pprof != nil {
		r.Mount("/debug/pprof", cfg.Pprof)
	}
	r.Get("/health/live", cfg.Health.Live)
	r.Get("/health/ready", cfg.Health.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(cfg.RateLimit.Middleware)

		v.Post("/quotes", cfg.Quotes.Quote)
		v.Post("/orders/{orderId}/quote", cfg.Quotes.QuoteOrder)
		v.Post("/orders/{orderId}/validate", cfg.Orders.Validate)
		v.Post("/expressions/evaluate", cfg.Quotes.Evaluate)
		v.Post("/rules/lint", cfg.Quotes.Lint)

		v.With(cfg.Idempotency.Middleware).Post("/bill-runs", cfg.Quotes.CreateBillRun)
		v.Get("/bill-runs/{billRunId}", cfg.Quotes.GetBillRun)
	})
	return r
}
