package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-freight/internal/app"
	"github.com/noah-isme/backend-freight/internal/config"
	"github.com/noah-isme/backend-freight/internal/obs"
	"github.com/noah-isme/backend-freight/internal/quote"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("component", "worker").Logger()
	obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	deps, err := app.New(startCtx, cfg, &logger, app.Options{ApplicationName: "freight-worker"})
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer deps.Close()

	srv := asynq.NewServer(deps.TaskRedis, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Queues:      map[string]int{cfg.BillRunQueue: 1},
		Logger:      taskLogger{logger: logger},
		ErrorHandler: asynq.ErrorHandlerFunc(func(_ context.Context, task *asynq.Task, err error) {
			logger.Error().Err(err).Str("task", task.Type()).Msg("task failed")
		}),
	})

	mux := asynq.NewServeMux()
	mux.Handle(quote.TypeBillRun, &quote.BillRunHandler{
		Svc:     deps.Quotes,
		Lock:    deps.Locker,
		LockTTL: cfg.BillRunLockTTL,
		Logger:  &logger,
	})

	if err := srv.Start(mux); err != nil {
		logger.Fatal().Err(err).Msg("start worker")
	}
	logger.Info().Str("queue", cfg.BillRunQueue).Int("concurrency", cfg.WorkerConcurrency).Msg("worker started")

	<-ctx.Done()
	srv.Shutdown()
	logger.Info().Msg("worker shutdown complete")
}

// taskLogger adapts zerolog to asynq.Logger.
type taskLogger struct {
	logger zerolog.Logger
}

func (l taskLogger) Debug(args ...interface{}) { l.logger.Debug().Msg(join(args)) }
func (l taskLogger) Info(args ...interface{})  { l.logger.Info().Msg(join(args)) }
func (l taskLogger) Warn(args ...interface{})  { l.logger.Warn().Msg(join(args)) }
func (l taskLogger) Error(args ...interface{}) { l.logger.Error().Msg(join(args)) }
func (l taskLogger) Fatal(args ...interface{}) { l.logger.Fatal().Msg(join(args)) }

func join(args []interface{}) string {
	return strings.TrimSpace(fmt.Sprint(args...))
}
