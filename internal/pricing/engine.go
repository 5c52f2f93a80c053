package pricing

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-freight/internal/channel"
)

// Result is the outcome of a charge weight calculation. FreightCost and Tier
// are set only when a rate tier matched the real weight.
type Result struct {
	ChargeWeight     float64           `json:"chargeWeight"`
	VolumetricWeight float64           `json:"volumetricWeight"`
	FreightCost      *float64          `json:"freightCost,omitempty"`
	Tier             *channel.RateTier `json:"tier,omitempty"`
	TierIndex        int               `json:"-"`
}

// VolumetricWeight returns length*width*height/volRatio. When any dimension or
// the divisor is missing it returns the real weight, so there is no uplift.
func VolumetricWeight(realWeight, length, width, height, volRatio float64) float64 {
	for _, v := range []float64{length, width, height, volRatio} {
		if !finite(v) || v <= 0 {
			return realWeight
		}
	}
	return length * width * height / volRatio
}

// ComputeChargeWeight derives the volumetric weight from the dimensions and the
// channel divisor, then prices it with ComputeWithVolumetric.
func ComputeChargeWeight(realWeight, length, width, height float64, ch channel.Channel) Result {
	return ComputeWithVolumetric(realWeight, VolumetricWeight(realWeight, length, width, height, ch.VolRatio), ch)
}

// ComputeWithVolumetric selects a tier by real weight and produces the charge
// weight. With a tier the weight is clamped into the tier range and priced at
// its base rate; without one the channel box bounds and minimum charge apply.
func ComputeWithVolumetric(realWeight, volumetric float64, ch channel.Channel) Result {
	if !finite(realWeight) {
		realWeight = 0
	}
	if !finite(volumetric) {
		volumetric = realWeight
	}
	cw := chargeable(realWeight, volumetric, ch)
	res := Result{VolumetricWeight: volumetric, TierIndex: -1}

	if idx := SelectTier(ch.Tiers, realWeight); idx >= 0 {
		tier := ch.Tiers[idx]
		cw = clamp(cw, tier.MinWeight, tier.MaxWeight)
		cost := decimal.NewFromFloat(cw).Mul(decimal.NewFromFloat(tier.BaseRate)).Round(2).InexactFloat64()
		res.ChargeWeight = cw
		res.FreightCost = &cost
		res.Tier = &tier
		res.TierIndex = idx
		return res
	}

	if ch.MinBoxChargeWeight > 0 && cw < ch.MinBoxChargeWeight {
		cw = ch.MinBoxChargeWeight
	}
	if ch.MaxBoxChargeWeight > 0 && cw > ch.MaxBoxChargeWeight {
		cw = ch.MaxBoxChargeWeight
	}
	res.ChargeWeight = math.Max(cw, ch.MinCharge)
	return res
}

// SelectTier returns the index of the tier containing realWeight with the
// lowest priority, the first declared winning ties, or -1.
func SelectTier(tiers []channel.RateTier, realWeight float64) int {
	best := -1
	for i, t := range tiers {
		if !t.Contains(realWeight) {
			continue
		}
		if best < 0 || t.Priority < tiers[best].Priority {
			best = i
		}
	}
	return best
}

func chargeable(realWeight, volumetric float64, ch channel.Channel) float64 {
	round := func(w float64) float64 {
		return ApplyRounding(w, ch.Precision, ch.Method())
	}
	if ch.Mode() == channel.CompareThenRound {
		return round(math.Max(realWeight, volumetric))
	}
	return math.Max(round(realWeight), round(volumetric))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
