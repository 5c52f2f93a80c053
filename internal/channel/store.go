package channel

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-freight/internal/surcharge"
)

// ErrStoreUnavailable indicates the database pool is not configured.
var ErrStoreUnavailable = errors.New("channel: store unavailable")

// Source resolves channel snapshots, including their surcharge rules.
type Source interface {
	GetByCode(ctx context.Context, code string) (Channel, error)
	GetByID(ctx context.Context, id uuid.UUID) (Channel, error)
}

// Store loads channels and their surcharge rules from Postgres.
type Store struct {
	pool   *pgxpool.Pool
	logger *zerolog.Logger
}

// NewStore constructs a Store backed by a pgx connection pool.
func NewStore(pool *pgxpool.Pool, logger *zerolog.Logger) *Store {
	return &Store{pool: pool, logger: logger}
}

const selectChannel = `SELECT id, code, name, rounding_method, precision, min_charge, compare_mode,
vol_ratio, min_box_charge_weight, max_box_charge_weight, limits, rates
FROM channels WHERE active`

// GetByCode loads the active channel with the given code.
func (s *Store) GetByCode(ctx context.Context, code string) (Channel, error) {
	if s == nil || s.pool == nil {
		return Channel{}, ErrStoreUnavailable
	}
	return s.load(ctx, s.pool.QueryRow(ctx, selectChannel+` AND code = $1`, code))
}

// GetByID loads the active channel with the given identifier.
func (s *Store) GetByID(ctx context.Context, id uuid.UUID) (Channel, error) {
	if s == nil || s.pool == nil {
		return Channel{}, ErrStoreUnavailable
	}
	return s.load(ctx, s.pool.QueryRow(ctx, selectChannel+` AND id = $1`, id))
}

func (s *Store) load(ctx context.Context, row pgx.Row) (Channel, error) {
	var (
		rec    channelRow
		method string
		mode   string
	)
	err := row.Scan(&rec.ID, &rec.Code, &rec.Name, &method, &rec.Precision, &rec.MinCharge, &mode,
		&rec.VolRatio, &rec.MinBoxChargeWeight, &rec.MaxBoxChargeWeight, &rec.LimitsJSON, &rec.RatesJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Channel{}, ErrNotFound
		}
		return Channel{}, err
	}
	rec.RoundingMethod = RoundingMethod(method)
	rec.CompareMode = CompareMode(mode)
	ch, err := rec.decode()
	if err != nil {
		return Channel{}, err
	}
	rules, err := s.rules(ctx, ch.ID)
	if err != nil {
		return Channel{}, err
	}
	ch.Rules = rules
	return ch, nil
}

// rules loads active surcharge rules in position order. Records that fail to
// decode are skipped so one bad rule cannot block the whole channel.
func (s *Store) rules(ctx context.Context, channelID uuid.UUID) ([]surcharge.Rule, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, name, kind, scope, params FROM surcharge_rules
WHERE channel_id = $1 AND active ORDER BY position, id`, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var rules []surcharge.Rule
	for rows.Next() {
		var (
			id    uuid.UUID
			rec   surcharge.Record
			kind  string
			scope string
		)
		if err := rows.Scan(&id, &rec.Name, &kind, &scope, &rec.Params); err != nil {
			return nil, err
		}
		rec.ID = id.String()
		rec.Kind = surcharge.Kind(kind)
		rec.Scope = surcharge.Scope(scope)
		rule, err := surcharge.Decode(rec)
		if err != nil {
			s.log().Warn().Err(err).Str("rule_id", rec.ID).Str("channel_id", channelID.String()).Msg("skipping malformed surcharge rule")
			continue
		}
		rules = append(rules, rule)
	}
	return rules, rows.Err()
}

func (s *Store) log() *zerolog.Logger {
	if s.logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return s.logger
}

// channelRow mirrors the channels table; rates and limits are JSONB documents.
type channelRow struct {
	Channel
	LimitsJSON []byte
	RatesJSON  []byte
}

func (r channelRow) decode() (Channel, error) {
	ch := r.Channel
	if len(r.LimitsJSON) > 0 {
		if err := json.Unmarshal(r.LimitsJSON, &ch.Limits); err != nil {
			return Channel{}, fmt.Errorf("%w: %s: limits: %v", ErrInvalidConfig, ch.Code, err)
		}
	}
	if len(r.RatesJSON) > 0 {
		if err := json.Unmarshal(r.RatesJSON, &ch.Tiers); err != nil {
			return Channel{}, fmt.Errorf("%w: %s: rates: %v", ErrInvalidConfig, ch.Code, err)
		}
	}
	if err := ch.Validate(); err != nil {
		return Channel{}, err
	}
	return ch, nil
}
