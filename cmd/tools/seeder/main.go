package main

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-freight/internal/app"
	"github.com/noah-isme/backend-freight/internal/channel"
	"github.com/noah-isme/backend-freight/internal/expr"
	"github.com/noah-isme/backend-freight/internal/obs"
	"github.com/noah-isme/backend-freight/internal/surcharge"
)

func main() {
	logger := obs.NewLogger("console", "info")
	if err := godotenv.Load(); err != nil {
		logger.Info().Msg("no .env file found, relying on environment variables")
	}
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := app.OpenPostgres(ctx, dbURL, "freight-seeder")
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	err = pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		channelID, err := seedChannel(ctx, tx)
		if err != nil {
			return err
		}
		if err := seedRules(ctx, tx, channelID); err != nil {
			return err
		}
		return seedOrder(ctx, tx, channelID, logger)
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("seed")
	}
	logger.Info().Msg("seeding completed")
}

func seedChannel(ctx context.Context, tx pgx.Tx) (uuid.UUID, error) {
	limits, err := json.Marshal(channel.Limits{MinPieces: 1, MaxPieces: 20, MaxBoxRealWeight: 70, MaxDeclareValue: 50000})
	if err != nil {
		return uuid.Nil, err
	}
	rates, err := json.Marshal([]channel.RateTier{
		{MinWeight: 0, MaxWeight: 50, BaseRate: 10, Priority: 1},
		{MinWeight: 50, MaxWeight: 200, BaseRate: 8, Priority: 1},
	})
	if err != nil {
		return uuid.Nil, err
	}
	var id uuid.UUID
	err = tx.QueryRow(ctx, `INSERT INTO channels (code, name, rounding_method, precision, min_charge, compare_mode, vol_ratio, limits, rates)
VALUES ('express', 'Express Air', 'ceil', 0.5, 1, 'round_then_compare', 6000, $1, $2)
ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, limits = EXCLUDED.limits, rates = EXCLUDED.rates, updated_at = now()
RETURNING id`, limits, rates).Scan(&id)
	return id, err
}

func seedRules(ctx context.Context, tx pgx.Tx, channelID uuid.UUID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM surcharge_rules WHERE channel_id = $1`, channelID); err != nil {
		return err
	}
	rules := []struct {
		name   string
		params surcharge.Params
	}{
		{"Fuel surcharge", surcharge.Percentage{Rate: ptr(0.5)}},
		{"Handling", surcharge.Fixed{Amount: ptr(2.5)}},
		{"Oversize", surcharge.LongestSideBracket{Bracket: surcharge.Bracket{Min: ptr(120), Price: ptr(15)}}},
		{"High value insurance", surcharge.Custom{
			Condition: expr.MustParse("declaredValue 1000 >"),
			Formula:   expr.MustParse("declaredValue 0.01 *"),
		}},
	}
	for i, rule := range rules {
		params, err := json.Marshal(rule.params)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `INSERT INTO surcharge_rules (channel_id, name, kind, params, position)
VALUES ($1, $2, $3, $4, $5)`, channelID, rule.name, string(rule.params.Kind()), params, i); err != nil {
			return err
		}
	}
	return nil
}

func ptr(v float64) *float64 { return &v }

func seedOrder(ctx context.Context, tx pgx.Tx, channelID uuid.UUID, logger zerolog.Logger) error {
	var orderID uuid.UUID
	err := tx.QueryRow(ctx, `INSERT INTO orders (channel_id, reference, weight, length, width, height, quantity, declared_value)
VALUES ($1, 'DEMO-0001', 31.4, 120, 60, 50, 2, 1500) RETURNING id`, channelID).Scan(&orderID)
	if err != nil {
		return err
	}
	boxes := [][5]float64{
		{18.2, 120, 60, 30, 1000},
		{13.2, 80, 60, 20, 500},
	}
	for i, b := range boxes {
		if _, err := tx.Exec(ctx, `INSERT INTO order_boxes (order_id, seq, weight, length, width, height, declared_value)
VALUES ($1, $2, $3, $4, $5, $6, $7)`, orderID, i+1, b[0], b[1], b[2], b[3], b[4]); err != nil {
			return err
		}
	}
	logger.Info().Str("channel_id", channelID.String()).Str("order_id", orderID.String()).Msg("seeded demo order")
	return nil
}
