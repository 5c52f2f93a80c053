package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/noah-isme/backend-freight/internal/channel"
	"github.com/noah-isme/backend-freight/internal/obs"
	"github.com/noah-isme/backend-freight/internal/order"
	"github.com/noah-isme/backend-freight/internal/surcharge"
)

// OrderStore loads orders and records their charge weight.
type OrderStore interface {
	Get(ctx context.Context, id uuid.UUID) (order.Order, error)
	SaveChargeWeight(ctx context.Context, id uuid.UUID, chargeWeight float64) error
}

// ChannelSource resolves channel snapshots.
type ChannelSource interface {
	GetByCode(ctx context.Context, code string) (channel.Channel, error)
	GetByID(ctx context.Context, id uuid.UUID) (channel.Channel, error)
}

// Service loads records, prices them with the Engine and persists results.
type Service struct {
	Engine      Engine
	Orders      OrderStore
	Channels    ChannelSource
	BillRuns    BillRunStore
	Tasks       Enqueuer
	Queue       string
	Concurrency int
	Logger      *zerolog.Logger
}

// AdHocRequest prices an order that is not stored. Rules overrides the
// channel's rules when non-nil.
type AdHocRequest struct {
	ChannelCode string           `json:"channelCode" validate:"required"`
	Order       order.Order      `json:"order"`
	Boxes       []order.Box      `json:"boxes" validate:"dive"`
	Rules       []surcharge.Rule `json:"rules,omitempty" validate:"-"`
}

// QuoteAdHoc prices an unsaved order against a channel looked up by code.
func (s *Service) QuoteAdHoc(ctx context.Context, req AdHocRequest) (Quote, error) {
	if s == nil || s.Channels == nil {
		return Quote{}, errors.New("quote service not configured")
	}
	ctx, span := otel.Tracer("quote.Service").Start(ctx, "QuoteService.QuoteAdHoc")
	defer span.End()
	span.SetAttributes(attribute.String("channel.code", req.ChannelCode))

	ch, err := s.Channels.GetByCode(ctx, req.ChannelCode)
	if err != nil {
		return Quote{}, err
	}
	boxes := req.Boxes
	if boxes == nil {
		boxes = req.Order.Boxes
	}
	// ad-hoc orders are never bound to a stored channel
	o := req.Order
	o.ChannelID = uuid.Nil
	return s.compute(Input{Order: o, Boxes: boxes, Channel: &ch, Rules: req.Rules})
}

// QuoteOrder prices a stored order with its channel and saves the charge weight.
func (s *Service) QuoteOrder(ctx context.Context, id uuid.UUID) (Quote, error) {
	if s == nil || s.Orders == nil || s.Channels == nil {
		return Quote{}, errors.New("quote service not configured")
	}
	ctx, span := otel.Tracer("quote.Service").Start(ctx, "QuoteService.QuoteOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", id.String()))

	o, err := s.Orders.Get(ctx, id)
	if err != nil {
		return Quote{}, err
	}
	ch, err := s.Channels.GetByID(ctx, o.ChannelID)
	if err != nil {
		return Quote{}, fmt.Errorf("load channel %s: %w", o.ChannelID, err)
	}
	q, err := s.compute(Input{Order: o, Channel: &ch})
	if err != nil {
		return Quote{}, err
	}
	if err := s.Orders.SaveChargeWeight(ctx, id, q.ChargeWeight); err != nil {
		return Quote{}, fmt.Errorf("save charge weight: %w", err)
	}
	span.SetAttributes(attribute.Float64("quote.total", q.Total))
	return q, nil
}

func (s *Service) compute(in Input) (Quote, error) {
	start := time.Now()
	engine := s.Engine
	if engine.Dispatcher.Logger == nil {
		engine.Dispatcher.Logger = s.Logger
	}
	if engine.Dispatcher.OnSkip == nil {
		engine.Dispatcher.OnSkip = func(r surcharge.Rule) { obs.CountSkippedRule(string(r.Kind())) }
	}
	q, err := engine.Compute(in)

	result := "ok"
	label := "unknown"
	if in.Channel != nil {
		label = in.Channel.Code
	}
	if err != nil {
		result = "error"
	}
	if obs.QuotesTotal != nil {
		obs.QuotesTotal.WithLabelValues(label, result).Inc()
	}
	if obs.QuoteLatency != nil {
		obs.QuoteLatency.WithLabelValues(result).Observe(obs.DurationMillis(time.Since(start)))
	}
	return q, err
}

func (s *Service) log() *zerolog.Logger {
	if s.Logger == nil {
		nop := zerolog.Nop()
		return &nop
	}
	return s.Logger
}
