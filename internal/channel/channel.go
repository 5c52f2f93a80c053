package channel

import (
	"github.com/google/uuid"

	"github.com/noah-isme/backend-freight/internal/surcharge"
)

// RoundingMethod selects how weights are snapped to the channel precision.
type RoundingMethod string

const (
	RoundCeil    RoundingMethod = "ceil"
	RoundFloor   RoundingMethod = "floor"
	RoundNearest RoundingMethod = "round"
)

// CompareMode controls whether real and volumetric weight are rounded before or after taking the larger one.
type CompareMode string

const (
	RoundThenCompare CompareMode = "round_then_compare"
	CompareThenRound CompareMode = "compare_then_round"
)

// RateTier is one priced weight bracket. Tiers may overlap; the lowest
// Priority wins and ties go to the earlier tier.
type RateTier struct {
	MinWeight float64 `json:"minWeight" validate:"gte=0"`
	MaxWeight float64 `json:"maxWeight" validate:"gtefield=MinWeight"`
	Priority  int     `json:"priority"`
	BaseRate  float64 `json:"baseRate" validate:"gte=0"`
}

// Contains reports whether w lies within [MinWeight, MaxWeight].
func (t RateTier) Contains(w float64) bool {
	return w >= t.MinWeight && w <= t.MaxWeight
}

// Limits are the acceptance constraints of a channel. A zero value disables the check.
type Limits struct {
	MinPieces             int     `json:"minPieces" validate:"gte=0"`
	MaxPieces             int     `json:"maxPieces" validate:"gte=0"`
	MinTicketRealWeight   float64 `json:"minTicketRealWeight" validate:"gte=0"`
	MaxTicketRealWeight   float64 `json:"maxTicketRealWeight" validate:"gte=0"`
	MinTicketChargeWeight float64 `json:"minTicketChargeWeight" validate:"gte=0"`
	MaxTicketChargeWeight float64 `json:"maxTicketChargeWeight" validate:"gte=0"`
	MinBoxAvgWeight       float64 `json:"minBoxAvgWeight" validate:"gte=0"`
	MinBoxRealWeight      float64 `json:"minBoxRealWeight" validate:"gte=0"`
	MaxBoxRealWeight      float64 `json:"maxBoxRealWeight" validate:"gte=0"`
	MinDeclareValue       float64 `json:"minDeclareValue" validate:"gte=0"`
	MaxDeclareValue       float64 `json:"maxDeclareValue" validate:"gte=0"`
}

// Channel is a carrier service configuration. It is treated as an immutable
// snapshot for the duration of a calculation.
type Channel struct {
	ID                 uuid.UUID        `json:"id"`
	Code               string           `json:"code" validate:"required"`
	Name               string           `json:"name"`
	RoundingMethod     RoundingMethod   `json:"roundingMethod" validate:"omitempty,oneof=ceil floor round"`
	Precision          float64          `json:"precision" validate:"gt=0"`
	MinCharge          float64          `json:"minCharge" validate:"gte=0"`
	CompareMode        CompareMode      `json:"compareMode" validate:"omitempty,oneof=round_then_compare compare_then_round"`
	Tiers              []RateTier       `json:"tiers" validate:"dive"`
	MinBoxChargeWeight float64          `json:"minBoxChargeWeight" validate:"gte=0"`
	MaxBoxChargeWeight float64          `json:"maxBoxChargeWeight" validate:"gte=0"`
	VolRatio           float64          `json:"volRatio" validate:"gte=0"`
	Limits             Limits           `json:"limits"`
	Rules              []surcharge.Rule `json:"rules" validate:"-"`
}

// Method returns the configured rounding method, defaulting to ceil.
func (c Channel) Method() RoundingMethod {
	if c.RoundingMethod == "" {
		return RoundCeil
	}
	return c.RoundingMethod
}

// Mode returns the configured compare mode, defaulting to round-then-compare.
func (c Channel) Mode() CompareMode {
	if c.CompareMode == "" {
		return RoundThenCompare
	}
	return c.CompareMode
}
