package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv                string
	Port                  string
	DatabaseURL           string
	RedisURL              string
	CORSAllowedOrigins    []string
	ChannelCacheTTL       time.Duration
	RateLimit             string
	BillRunConcurrency    int
	WorkerConcurrency     int
	BillRunQueue          string
	BillRunLockTTL        time.Duration
	RunMigrations         bool
	RequestBodyLimitBytes int64
	Obs                   Obs
}

// Obs configures logging, metrics, tracing and response hardening.
type Obs struct {
	LogFormat        string
	LogLevel         string
	MetricsNamespace string
	MetricsBuckets   string
	EnablePrometheus bool
	EnableTracing    bool
	TracingExporter  string
	OTLPEndpoint     string
	SamplingRatio    float64
	EnablePprof      bool
	PprofUser        string
	PprofPass        string
	SecureHeaders    bool
	EnableHSTS       bool
	ProbeTimeout     time.Duration
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}
	r := reader{k: k}

	cfg := &Config{
		AppEnv:                r.str("APP_ENV", "development"),
		Port:                  r.str("PORT", "8080"),
		DatabaseURL:           r.str("DATABASE_URL", ""),
		RedisURL:              r.str("REDIS_URL", ""),
		CORSAllowedOrigins:    r.list("CORS_ALLOWED_ORIGINS"),
		ChannelCacheTTL:       r.duration("CHANNEL_CACHE_TTL", 5*time.Minute),
		RateLimit:             r.str("RATE_LIMIT", "600-M"),
		BillRunConcurrency:    r.int("BILL_RUN_CONCURRENCY", 8),
		WorkerConcurrency:     r.int("WORKER_CONCURRENCY", 10),
		BillRunQueue:          r.str("BILL_RUN_QUEUE", "billing"),
		BillRunLockTTL:        r.duration("BILL_RUN_LOCK_TTL", 10*time.Minute),
		RunMigrations:         r.bool("RUN_MIGRATIONS", false),
		RequestBodyLimitBytes: int64(r.int("REQUEST_BODY_LIMIT_BYTES", 1<<20)),
	}
	cfg.Obs = Obs{
		LogFormat:        r.str("OBS_LOG_FORMAT", "json"),
		LogLevel:         r.str("OBS_LOG_LEVEL", "info"),
		MetricsNamespace: r.str("OBS_METRICS_NAMESPACE", "freight"),
		MetricsBuckets:   r.str("OBS_METRICS_BUCKETS_MS", ""),
		EnablePrometheus: r.bool("OBS_ENABLE_PROMETHEUS", true),
		EnableTracing:    r.bool("OBS_ENABLE_TRACING", true),
		TracingExporter:  r.str("OBS_TRACING_EXPORTER", "otlp"),
		OTLPEndpoint:     r.str("OBS_OTLP_ENDPOINT", ""),
		SamplingRatio:    r.float("OBS_TRACING_SAMPLING_RATIO", 1),
		EnablePprof:      r.bool("OBS_ENABLE_PPROF", false),
		PprofUser:        r.str("SECURE_PPROF_BASIC_AUTH_USER", ""),
		PprofPass:        r.str("SECURE_PPROF_BASIC_AUTH_PASS", ""),
		SecureHeaders:    r.bool("SECURE_HEADERS_ENABLE", true),
		EnableHSTS:       r.bool("SECURE_HSTS_ENABLE", cfg.AppEnv == "production"),
		ProbeTimeout:     r.duration("HEALTH_PROBE_TIMEOUT", 500*time.Millisecond),
	}

	switch {
	case cfg.DatabaseURL == "":
		return nil, errors.New("DATABASE_URL is required")
	case cfg.RedisURL == "":
		return nil, errors.New("REDIS_URL is required")
	case cfg.BillRunConcurrency <= 0:
		return nil, errors.New("BILL_RUN_CONCURRENCY must be positive")
	case cfg.WorkerConcurrency <= 0:
		return nil, errors.New("WORKER_CONCURRENCY must be positive")
	}
	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

// reader applies defaults to raw koanf string values. Unparsable values fall
// back to the default.
type reader struct {
	k *koanf.Koanf
}

func (r reader) raw(key string) string { return strings.TrimSpace(r.k.String(key)) }

func (r reader) str(key, def string) string {
	if v := r.raw(key); v != "" {
		return v
	}
	return def
}

func (r reader) list(key string) []string {
	var out []string
	for _, part := range strings.Split(r.raw(key), ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (r reader) duration(key string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(r.raw(key))
	if err != nil {
		return def
	}
	return d
}

func (r reader) int(key string, def int) int {
	v, err := strconv.Atoi(r.raw(key))
	if err != nil {
		return def
	}
	return v
}

func (r reader) float(key string, def float64) float64 {
	v, err := strconv.ParseFloat(r.raw(key), 64)
	if err != nil {
		return def
	}
	return v
}

func (r reader) bool(key string, def bool) bool {
	switch strings.ToLower(r.raw(key)) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	}
	return def
}

// LoadForTests sets the given variables (empty means unset), loads the
// configuration and restores the previous environment.
func LoadForTests(vars map[string]string) (*Config, error) {
	previous := make(map[string]*string, len(vars))
	for key, value := range vars {
		if old, ok := os.LookupEnv(key); ok {
			previous[key] = &old
		} else {
			previous[key] = nil
		}
		if err := setEnv(key, value); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()

	var restoreErrs []error
	for key, old := range previous {
		value := ""
		if old != nil {
			value = *old
		}
		if rerr := setEnv(key, value); rerr != nil {
			restoreErrs = append(restoreErrs, fmt.Errorf("%s: %w", key, rerr))
		}
	}
	if err != nil {
		return nil, err
	}
	if len(restoreErrs) > 0 {
		return cfg, fmt.Errorf("restore env: %w", errors.Join(restoreErrs...))
	}
	return cfg, nil
}

func setEnv(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}
