package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Bill run statuses.
const (
	BillRunQueued   = "queued"
	BillRunRunning  = "running"
	BillRunFinished = "finished"
	BillRunFailed   = "failed"
)

var (
	// ErrBillRunNotFound is returned when the bill run does not exist.
	ErrBillRunNotFound = errors.New("bill run not found")
	// ErrStoreUnavailable indicates the database pool is not configured.
	ErrStoreUnavailable = errors.New("quote: store unavailable")
)

// BillRun is the persisted summary of a batch quoting run.
type BillRun struct {
	ID          uuid.UUID  `json:"id"`
	Status      string     `json:"status"`
	TotalOrders int        `json:"totalOrders"`
	Failed      int        `json:"failed"`
	TotalFee    float64    `json:"totalFee"`
	CreatedAt   time.Time  `json:"createdAt"`
	FinishedAt  *time.Time `json:"finishedAt,omitempty"`
}

// BillRunStore persists bill runs.
type BillRunStore interface {
	Create(ctx context.Context, id uuid.UUID, orders int) error
	MarkRunning(ctx context.Context, id uuid.UUID) error
	Finish(ctx context.Context, id uuid.UUID, status string, res BatchResult) error
	Get(ctx context.Context, id uuid.UUID) (BillRun, error)
}

// PGBillRunStore is the Postgres implementation of BillRunStore.
type PGBillRunStore struct {
	pool *pgxpool.Pool
}

// NewBillRunStore constructs a PGBillRunStore backed by a pgx connection pool.
func NewBillRunStore(pool *pgxpool.Pool) *PGBillRunStore {
	return &PGBillRunStore{pool: pool}
}

// Create inserts a queued bill run.
func (s *PGBillRunStore) Create(ctx context.Context, id uuid.UUID, orders int) error {
	if s == nil || s.pool == nil {
		return ErrStoreUnavailable
	}
	_, err := s.pool.Exec(ctx, `INSERT INTO bill_runs (id, status, total_orders) VALUES ($1, $2, $3)`, id, BillRunQueued, orders)
	return err
}

// MarkRunning flags a bill run as picked up by a worker.
func (s *PGBillRunStore) MarkRunning(ctx context.Context, id uuid.UUID) error {
	if s == nil || s.pool == nil {
		return ErrStoreUnavailable
	}
	tag, err := s.pool.Exec(ctx, `UPDATE bill_runs SET status = $2 WHERE id = $1`, id, BillRunRunning)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrBillRunNotFound
	}
	return nil
}

// Finish records the outcome of a bill run.
func (s *PGBillRunStore) Finish(ctx context.Context, id uuid.UUID, status string, res BatchResult) error {
	if s == nil || s.pool == nil {
		return ErrStoreUnavailable
	}
	tag, err := s.pool.Exec(ctx, `UPDATE bill_runs SET status = $2, total_orders = $3, failed = $4, total_fee = $5, finished_at = now()
WHERE id = $1`, id, status, res.Orders, res.Failed, res.TotalFee)
	if err != nil {
		return fmt.Errorf("finish bill run %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrBillRunNotFound
	}
	return nil
}

// Get loads a bill run.
func (s *PGBillRunStore) Get(ctx context.Context, id uuid.UUID) (BillRun, error) {
	if s == nil || s.pool == nil {
		return BillRun{}, ErrStoreUnavailable
	}
	var run BillRun
	err := s.pool.QueryRow(ctx, `SELECT id, status, total_orders, failed, total_fee, created_at, finished_at
FROM bill_runs WHERE id = $1`, id).Scan(&run.ID, &run.Status, &run.TotalOrders, &run.Failed, &run.TotalFee, &run.CreatedAt, &run.FinishedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return BillRun{}, ErrBillRunNotFound
		}
		return BillRun{}, err
	}
	return run, nil
}
