package order

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound is returned when the order does not exist.
	ErrNotFound = errors.New("order not found")
	// ErrStoreUnavailable indicates the database pool is not configured.
	ErrStoreUnavailable = errors.New("order: store unavailable")
)

// Store reads orders with their boxes and records calculation results on them.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore constructs a Store backed by a pgx connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Get loads an order and its boxes in sequence order.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (Order, error) {
	if s == nil || s.pool == nil {
		return Order{}, ErrStoreUnavailable
	}
	var o Order
	err := s.pool.QueryRow(ctx, `SELECT id, channel_id, reference, weight, length, width, height,
quantity, charge_weight, declared_value FROM orders WHERE id = $1`, id).Scan(
		&o.ID, &o.ChannelID, &o.Reference, &o.Weight, &o.Length, &o.Width, &o.Height,
		&o.Quantity, &o.ChargeWeight, &o.DeclaredValue)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Order{}, ErrNotFound
		}
		return Order{}, err
	}
	rows, err := s.pool.Query(ctx, `SELECT id, seq, weight, length, width, height, declared_value
FROM order_boxes WHERE order_id = $1 ORDER BY seq`, id)
	if err != nil {
		return Order{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var b Box
		if err := rows.Scan(&b.ID, &b.Seq, &b.Weight, &b.Length, &b.Width, &b.Height, &b.DeclaredValue); err != nil {
			return Order{}, err
		}
		o.Boxes = append(o.Boxes, b)
	}
	return o, rows.Err()
}

// SaveViolations records the messages of a failed validation.
func (s *Store) SaveViolations(ctx context.Context, id uuid.UUID, messages []string) error {
	if s == nil || s.pool == nil {
		return ErrStoreUnavailable
	}
	payload, err := json.Marshal(messages)
	if err != nil {
		return err
	}
	return s.exec(ctx, `UPDATE orders SET validation_errors = $2, validated_at = now(), updated_at = now() WHERE id = $1`, id, payload)
}

// ClearViolations removes previously recorded violations after a successful validation.
func (s *Store) ClearViolations(ctx context.Context, id uuid.UUID) error {
	if s == nil || s.pool == nil {
		return ErrStoreUnavailable
	}
	return s.exec(ctx, `UPDATE orders SET validation_errors = NULL, validated_at = now(), updated_at = now() WHERE id = $1`, id)
}

// SaveChargeWeight stores the computed charge weight on the order.
func (s *Store) SaveChargeWeight(ctx context.Context, id uuid.UUID, chargeWeight float64) error {
	if s == nil || s.pool == nil {
		return ErrStoreUnavailable
	}
	return s.exec(ctx, `UPDATE orders SET charge_weight = $2, updated_at = now() WHERE id = $1`, id, chargeWeight)
}

func (s *Store) exec(ctx context.Context, sql string, args ...any) error {
	tag, err := s.pool.Exec(ctx, sql, args...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
