package quote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
)

// TypeBillRun is the asynq task type of a bill run.
const TypeBillRun = "freight:bill_run"

// ErrEmptyBillRun is returned when a bill run names no orders.
var ErrEmptyBillRun = errors.New("bill run requires at least one order")

// BillRunPayload is the task payload of a bill run.
type BillRunPayload struct {
	BillRunID uuid.UUID   `json:"billRunId"`
	OrderIDs  []uuid.UUID `json:"orderIds"`
}

// Enqueuer submits tasks; *asynq.Client implements it.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Locker runs fn while holding an exclusive lock on key.
type Locker interface {
	TryWithLock(ctx context.Context, key string, ttl time.Duration, fn func(context.Context) error) error
}

// NewBillRunTask builds the asynq task for a bill run.
func NewBillRunTask(p BillRunPayload, queue string) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	opts := []asynq.Option{asynq.MaxRetry(3), asynq.TaskID(p.BillRunID.String())}
	if queue != "" {
		opts = append(opts, asynq.Queue(queue))
	}
	return asynq.NewTask(TypeBillRun, payload, opts...), nil
}

// StartBillRun records a queued bill run and enqueues it for the worker.
func (s *Service) StartBillRun(ctx context.Context, orderIDs []uuid.UUID) (uuid.UUID, error) {
	if s == nil || s.BillRuns == nil || s.Tasks == nil {
		return uuid.Nil, errors.New("bill runs not configured")
	}
	if len(orderIDs) == 0 {
		return uuid.Nil, ErrEmptyBillRun
	}
	id := uuid.New()
	if err := s.BillRuns.Create(ctx, id, len(orderIDs)); err != nil {
		return uuid.Nil, fmt.Errorf("create bill run: %w", err)
	}
	task, err := NewBillRunTask(BillRunPayload{BillRunID: id, OrderIDs: orderIDs}, s.Queue)
	if err != nil {
		return uuid.Nil, err
	}
	if _, err := s.Tasks.EnqueueContext(ctx, task); err != nil {
		_ = s.BillRuns.Finish(ctx, id, BillRunFailed, BatchResult{Orders: len(orderIDs)})
		return uuid.Nil, fmt.Errorf("enqueue bill run: %w", err)
	}
	return id, nil
}

// BillRunHandler processes bill run tasks on the worker.
type BillRunHandler struct {
	Svc     *Service
	Lock    Locker
	LockTTL time.Duration
	Logger  *zerolog.Logger
}

// ProcessTask implements asynq.Handler.
func (h *BillRunHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p BillRunPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode bill run payload: %v: %w", err, asynq.SkipRetry)
	}
	if h.Svc == nil || h.Svc.BillRuns == nil {
		return errors.New("bill run handler not configured")
	}
	run := func(ctx context.Context) error { return h.run(ctx, p) }
	if h.Lock == nil {
		return run(ctx)
	}
	ttl := h.LockTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return h.Lock.TryWithLock(ctx, "freight:lock:bill_run:"+p.BillRunID.String(), ttl, run)
}

func (h *BillRunHandler) run(ctx context.Context, p BillRunPayload) error {
	logger := h.log().With().Str("bill_run_id", p.BillRunID.String()).Logger()
	if err := h.Svc.BillRuns.MarkRunning(ctx, p.BillRunID); err != nil {
		if errors.Is(err, ErrBillRunNotFound) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	start := time.Now()
	res, err := h.Svc.RunBatch(ctx, p.OrderIDs)
	if err != nil {
		logger.Error().Err(err).Msg("bill run aborted")
		_ = h.Svc.BillRuns.Finish(context.WithoutCancel(ctx), p.BillRunID, BillRunFailed, BatchResult{Orders: len(p.OrderIDs)})
		return err
	}
	if err := h.Svc.BillRuns.Finish(ctx, p.BillRunID, BillRunFinished, res); err != nil {
		return err
	}
	logger.Info().
		Int("orders", res.Orders).
		Int("failed", res.Failed).
		Float64("total_fee", res.TotalFee).
		Dur("duration", time.Since(start)).
		Msg("bill run finished")
	return nil
}

func (h *BillRunHandler) log() *zerolog.Logger {
	if h.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return h.Logger
}
