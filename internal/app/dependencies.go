package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	validator "github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-freight/internal/channel"
	"github.com/noah-isme/backend-freight/internal/config"
	"github.com/noah-isme/backend-freight/internal/db"
	"github.com/noah-isme/backend-freight/internal/lock"
	"github.com/noah-isme/backend-freight/internal/obs"
	"github.com/noah-isme/backend-freight/internal/order"
	"github.com/noah-isme/backend-freight/internal/quote"
)

const migrationLockKey = "freight:lock:migrations"

// Dependencies enumerates the connections and services shared by the API and the worker.
type Dependencies struct {
	DB        *pgxpool.Pool
	Redis     *redis.Client
	TaskRedis asynq.RedisConnOpt
	Validator *validator.Validate
	Locker    lock.Locker
	Channels  *channel.Cache
	Orders    *order.Store
	Quotes    *quote.Service
	Logger    *zerolog.Logger
}

// Options tunes connection setup for a process.
type Options struct {
	// ApplicationName is reported to Postgres.
	ApplicationName string
	RedisMetrics    bool
}

// New connects to Postgres and Redis, optionally applies migrations and builds
// the domain services.
func New(ctx context.Context, cfg *config.Config, logger *zerolog.Logger, opts Options) (*Dependencies, error) {
	pool, err := OpenPostgres(ctx, cfg.DatabaseURL, opts.ApplicationName)
	if err != nil {
		return nil, err
	}
	rdb, err := OpenRedis(ctx, cfg.RedisURL, opts.RedisMetrics, logger)
	if err != nil {
		pool.Close()
		return nil, err
	}
	taskRedis, err := asynq.ParseRedisURI(cfg.RedisURL)
	if err != nil {
		pool.Close()
		_ = rdb.Close()
		return nil, fmt.Errorf("parse task redis url: %w", err)
	}

	d := &Dependencies{
		DB:        pool,
		Redis:     rdb,
		TaskRedis: taskRedis,
		Validator: validator.New(validator.WithRequiredStructEnabled()),
		Locker:    lock.Locker{R: rdb, RetryBackoff: 250 * time.Millisecond},
		Logger:    logger,
	}
	if cfg.RunMigrations {
		if err := d.RunMigrations(ctx, cfg.DatabaseURL); err != nil {
			d.Close()
			return nil, err
		}
	}

	d.Channels = channel.NewCache(rdb, channel.NewStore(pool, logger), cfg.ChannelCacheTTL, logger)
	d.Orders = order.NewStore(pool)
	d.Quotes = &quote.Service{
		Orders:      d.Orders,
		Channels:    d.Channels,
		BillRuns:    quote.NewBillRunStore(pool),
		Queue:       cfg.BillRunQueue,
		Concurrency: cfg.BillRunConcurrency,
		Logger:      logger,
	}
	return d, nil
}

// TaskClient returns an asynq client and wires it as the bill-run enqueuer.
func (d *Dependencies) TaskClient() *asynq.Client {
	client := asynq.NewClient(d.TaskRedis)
	d.Quotes.Tasks = client
	return client
}

// OrderService builds the order validation service over the shared stores.
func (d *Dependencies) OrderService() *order.Service {
	return &order.Service{Orders: d.Orders, Channels: d.Channels, Logger: d.Logger}
}

// RunMigrations applies the embedded migrations while holding a Redis lock so
// concurrently starting replicas do not race.
func (d *Dependencies) RunMigrations(ctx context.Context, databaseURL string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()
	err := d.Locker.WithLock(ctx, migrationLockKey, time.Minute, func(context.Context) error {
		return db.Up(databaseURL)
	})
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	if d.Logger != nil {
		d.Logger.Info().Msg("migrations applied")
	}
	return nil
}

// Close releases pooled connections.
func (d *Dependencies) Close() {
	if d == nil {
		return
	}
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil && d.Logger != nil {
			d.Logger.Error().Err(err).Msg("close redis")
		}
	}
	if d.DB != nil {
		d.DB.Close()
	}
}

// OpenPostgres connects a pgx pool with query tracing enabled.
func OpenPostgres(ctx context.Context, databaseURL, applicationName string) (*pgxpool.Pool, error) {
	if databaseURL == "" {
		return nil, errors.New("database url is empty")
	}
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database config: %w", err)
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if applicationName != "" {
		if poolConfig.ConnConfig.RuntimeParams == nil {
			poolConfig.ConnConfig.RuntimeParams = map[string]string{}
		}
		poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

// OpenRedis connects a go-redis client instrumented with OpenTelemetry.
func OpenRedis(ctx context.Context, redisURL string, metrics bool, logger *zerolog.Logger) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := redisotel.InstrumentTracing(client); err != nil && logger != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if metrics {
		if err := redisotel.InstrumentMetrics(client); err != nil && logger != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}
