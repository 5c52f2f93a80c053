package quote

import (
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-freight/internal/channel"
	"github.com/noah-isme/backend-freight/internal/expr"
	"github.com/noah-isme/backend-freight/internal/order"
	"github.com/noah-isme/backend-freight/internal/pricing"
	"github.com/noah-isme/backend-freight/internal/surcharge"
)

var (
	// ErrNoChannel is returned when a quote is requested without a channel.
	ErrNoChannel = errors.New("quote: channel is required")
	// ErrChannelMismatch is returned when the order is bound to a different channel.
	ErrChannelMismatch = errors.New("quote: order belongs to a different channel")
)

// Input is one quote calculation. Boxes defaults to Order.Boxes and Rules to
// the channel's rules when nil.
type Input struct {
	Order   order.Order
	Boxes   []order.Box
	Channel *channel.Channel
	Rules   []surcharge.Rule
}

// Quote is the priced breakdown of an order.
type Quote struct {
	OrderID          string            `json:"orderId,omitempty"`
	Channel          string            `json:"channel"`
	ChargeWeight     float64           `json:"chargeWeight"`
	VolumetricWeight float64           `json:"volumetricWeight"`
	FreightCost      *float64          `json:"freightCost,omitempty"`
	Tier             *channel.RateTier `json:"tier,omitempty"`
	Surcharges       surcharge.Summary `json:"surcharges"`
	Total            float64           `json:"total"`
}

// Engine combines the charge weight calculation with the surcharge rules.
type Engine struct {
	Dispatcher surcharge.Dispatcher
}

// Compute prices an order. The total is the freight cost, when a tier
// matched, plus all surcharges, rounded to cents.
func (e Engine) Compute(in Input) (Quote, error) {
	ch := in.Channel
	if ch == nil {
		return Quote{}, ErrNoChannel
	}
	o := in.Order
	if o.ChannelID != uuid.Nil && ch.ID != uuid.Nil && o.ChannelID != ch.ID {
		return Quote{}, ErrChannelMismatch
	}
	boxes := in.Boxes
	if boxes == nil {
		boxes = o.Boxes
	}
	rules := in.Rules
	if rules == nil {
		rules = ch.Rules
	}

	priced := pricing.ComputeChargeWeight(o.Weight, o.Length, o.Width, o.Height, *ch)
	subject := pricedSubject{
		Subject: o,
		extra: expr.Context{
			"chargeWeight":     priced.ChargeWeight,
			"volumetricWeight": priced.VolumetricWeight,
			"boxCount":         float64(len(boxes)),
		},
	}
	subjects := make([]surcharge.Subject, 0, len(boxes))
	for _, b := range boxes {
		bp := pricing.ComputeChargeWeight(b.Weight, b.Length, b.Width, b.Height, *ch)
		subjects = append(subjects, pricedSubject{
			Subject: b,
			extra: expr.Context{
				"chargeWeight":     bp.ChargeWeight,
				"volumetricWeight": bp.VolumetricWeight,
			},
		})
	}

	summary := e.Dispatcher.Total(subject, subjects, rules)
	total := decimal.NewFromFloat(summary.TotalFee)
	if priced.FreightCost != nil {
		total = total.Add(decimal.NewFromFloat(*priced.FreightCost))
	}
	return Quote{
		OrderID:          orderID(o),
		Channel:          ch.Code,
		ChargeWeight:     priced.ChargeWeight,
		VolumetricWeight: priced.VolumetricWeight,
		FreightCost:      priced.FreightCost,
		Tier:             priced.Tier,
		Surcharges:       summary,
		Total:            total.Round(2).InexactFloat64(),
	}, nil
}

// pricedSubject overlays calculated weights on an order or box.
type pricedSubject struct {
	surcharge.Subject
	extra expr.Context
}

func (p pricedSubject) Fields() expr.Context {
	fields := p.Subject.Fields()
	for k, v := range p.extra {
		fields[k] = v
	}
	return fields
}

func orderID(o order.Order) string {
	if o.ID == uuid.Nil {
		return o.Reference
	}
	return o.ID.String()
}
