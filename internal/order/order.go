package order

import (
	"strconv"

	"github.com/google/uuid"

	"github.com/noah-isme/backend-freight/internal/expr"
)

// Box is one physical package of an order.
type Box struct {
	ID            uuid.UUID `json:"id"`
	Seq           int       `json:"seq"`
	Weight        float64   `json:"weight" validate:"gte=0"`
	Length        float64   `json:"length" validate:"gte=0"`
	Width         float64   `json:"width" validate:"gte=0"`
	Height        float64   `json:"height" validate:"gte=0"`
	DeclaredValue float64   `json:"declaredValue" validate:"gte=0"`
}

// Order is the shippable unit. ChargeWeight is nil until a quote has been computed.
type Order struct {
	ID            uuid.UUID `json:"id"`
	ChannelID     uuid.UUID `json:"channelId"`
	Reference     string    `json:"reference"`
	Weight        float64   `json:"weight" validate:"gte=0"`
	Length        float64   `json:"length" validate:"gte=0"`
	Width         float64   `json:"width" validate:"gte=0"`
	Height        float64   `json:"height" validate:"gte=0"`
	Quantity      int       `json:"quantity" validate:"gte=0"`
	ChargeWeight  *float64  `json:"chargeWeight,omitempty"`
	DeclaredValue float64   `json:"declaredValue" validate:"gte=0"`
	Boxes         []Box     `json:"boxes" validate:"dive"`
}

// SubjectID identifies the box in surcharge breakdowns.
func (b Box) SubjectID() string {
	if b.ID != uuid.Nil {
		return b.ID.String()
	}
	return "box-" + strconv.Itoa(b.Seq)
}

// Fields exposes the box to rule evaluation.
func (b Box) Fields() expr.Context {
	return dimensions(expr.Context{
		"weight":        b.Weight,
		"length":        b.Length,
		"width":         b.Width,
		"height":        b.Height,
		"declaredValue": b.DeclaredValue,
	})
}

// SubjectID identifies the order in surcharge breakdowns.
func (o Order) SubjectID() string {
	if o.ID != uuid.Nil {
		return o.ID.String()
	}
	if o.Reference != "" {
		return o.Reference
	}
	return "order"
}

// Fields exposes the order to rule evaluation. chargeWeight is present only
// once it has been computed.
func (o Order) Fields() expr.Context {
	ctx := dimensions(expr.Context{
		"weight":        o.Weight,
		"length":        o.Length,
		"width":         o.Width,
		"height":        o.Height,
		"declaredValue": o.DeclaredValue,
		"quantity":      float64(o.Quantity),
		"boxCount":      float64(len(o.Boxes)),
	})
	if o.ChargeWeight != nil {
		ctx["chargeWeight"] = *o.ChargeWeight
	}
	return ctx
}

func dimensions(ctx expr.Context) expr.Context {
	l, w, h := ctx["length"], ctx["width"], ctx["height"]
	ctx["longestSide"] = max(l, w, h)
	ctx["dimensionSum"] = l + w + h
	return ctx
}
