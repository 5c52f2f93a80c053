package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/backend-freight/internal/channel"
	"github.com/noah-isme/backend-freight/internal/obs"
)

// Repository is the persistence used by Service.
type Repository interface {
	Get(ctx context.Context, id uuid.UUID) (Order, error)
	SaveViolations(ctx context.Context, id uuid.UUID, messages []string) error
	ClearViolations(ctx context.Context, id uuid.UUID) error
}

// ChannelSource resolves the channel an order ships with.
type ChannelSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (channel.Channel, error)
}

// Service validates stored orders against their channel and records the outcome.
type Service struct {
	Orders   Repository
	Channels ChannelSource
	Logger   *zerolog.Logger
}

// Validate loads the order and its channel, runs the constraint checks and
// persists the violations, or clears earlier ones when the order passes.
func (s *Service) Validate(ctx context.Context, id uuid.UUID) (ValidationResult, error) {
	if s == nil || s.Orders == nil || s.Channels == nil {
		return ValidationResult{}, errors.New("order service not configured")
	}
	ctx, span := otel.Tracer("order.Service").Start(ctx, "OrderService.Validate")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", id.String()))

	result := "error"
	violations := 0
	defer func() {
		span.SetAttributes(attribute.String("order.validation.result", result))
		if obs.OrderValidationsTotal != nil {
			obs.OrderValidationsTotal.WithLabelValues(result).Inc()
		}
		if obs.OrderViolationsTotal != nil && violations > 0 {
			obs.OrderViolationsTotal.Add(float64(violations))
		}
	}()

	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return ValidationResult{}, err
	}
	ch, err := s.Channels.GetByID(ctx, o.ChannelID)
	if err != nil {
		return ValidationResult{}, fmt.Errorf("load channel %s: %w", o.ChannelID, err)
	}
	res := Validate(o, o.Boxes, ch)
	if res.Valid {
		if err := s.Orders.ClearViolations(ctx, id); err != nil {
			return ValidationResult{}, err
		}
		result = "valid"
		return res, nil
	}
	if err := s.Orders.SaveViolations(ctx, id, res.Errors); err != nil {
		return ValidationResult{}, err
	}
	result = "invalid"
	violations = len(res.Errors)
	s.log().Info().Str("order_id", id.String()).Str("channel", ch.Code).Int("violations", violations).Msg("order failed channel constraints")
	return res, nil
}

func (s *Service) log() *zerolog.Logger {
	if s.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return s.Logger
}
