package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/backend-freight/internal/app"
	"github.com/noah-isme/backend-freight/internal/common"
	"github.com/noah-isme/backend-freight/internal/config"
	"github.com/noah-isme/backend-freight/internal/health"
	"github.com/noah-isme/backend-freight/internal/obs"
	"github.com/noah-isme/backend-freight/internal/order"
	"github.com/noah-isme/backend-freight/internal/quote"
	"github.com/noah-isme/backend-freight/internal/ratelimit"
	"github.com/noah-isme/backend-freight/internal/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Logger()
	obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)

	tracingEnabled := cfg.Obs.EnableTracing
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "freight-api",
			Endpoint:      cfg.Obs.OTLPEndpoint,
			Exporter:      cfg.Obs.TracingExporter,
			SamplingRatio: cfg.Obs.SamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	deps, err := app.New(startCtx, cfg, &logger, app.Options{
		ApplicationName: "freight-api",
		RedisMetrics:    cfg.Obs.EnablePrometheus,
	})
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer deps.Close()

	tasks := deps.TaskClient()
	defer func() {
		if err := tasks.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()

	limiter, err := ratelimit.New(deps.Redis, cfg.RateLimit)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise rate limiter")
	}

	var httpMetrics *obs.HTTPMetrics
	if cfg.Obs.EnablePrometheus {
		httpMetrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.MetricsBuckets), nil)
	}
	var pprofHandler http.Handler
	if cfg.Obs.EnablePprof {
		pprofHandler = protectPprof(newPprofMux(), cfg.Obs.PprofUser, cfg.Obs.PprofPass)
	}

	handler := newRouter(routerConfig{
		Logger:         logger,
		AllowedOrigins: allowedOrigins(cfg),
		HTTPMetrics:    httpMetrics,
		ServeMetrics:   cfg.Obs.EnablePrometheus,
		Pprof:          pprofHandler,
		RateLimit: ratelimit.Handler{
			Limiter: limiter,
			Key:     ratelimit.ByClientIP,
			OnError: func(err error) { logger.Warn().Err(err).Msg("rate limit store") },
		},
		Idempotency: common.Idem{R: deps.Redis, TTL: 24 * time.Hour},
		Security: security.Headers{
			Enable:                cfg.Obs.SecureHeaders,
			EnableHSTS:            cfg.Obs.EnableHSTS,
			HSTSIncludeSubdomains: true,
		},
		Health: health.Handler{
			Probes: map[string]health.Probe{
				"db":    health.PostgresProbe(deps.DB),
				"redis": health.RedisProbe(deps.Redis),
			},
			Timeout: cfg.Obs.ProbeTimeout,
		},
		Quotes: &quote.Handler{Svc: deps.Quotes, Validate: deps.Validator, BodyLimit: cfg.RequestBodyLimitBytes},
		Orders: &order.Handler{Svc: deps.OrderService()},
	})
	if tracingEnabled {
		handler = otelhttp.NewHandler(handler, "freight-api")
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("server shutdown")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

// newPprofMux serves the profiler under /debug/pprof. chi's Mount keeps the
// full URL path, so the patterns carry the prefix; named profiles such as heap
// are resolved by pprof.Index.
func newPprofMux() http.Handler {
	const prefix = "/debug/pprof/"
	mux := http.NewServeMux()
	mux.HandleFunc(prefix, pprof.Index)
	mux.HandleFunc(prefix+"cmdline", pprof.Cmdline)
	mux.HandleFunc(prefix+"profile", pprof.Profile)
	mux.HandleFunc(prefix+"symbol", pprof.Symbol)
	mux.HandleFunc(prefix+"trace", pprof.Trace)
	return mux
}

// protectPprof guards the profiler with basic auth when a user is configured.
func protectPprof(handler http.Handler, user, pass string) http.Handler {
	user = strings.TrimSpace(user)
	if user == "" {
		return handler
	}
	pass = strings.TrimSpace(pass)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="freight"`)
			common.JSONError(w, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorised", nil)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
