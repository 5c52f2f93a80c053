package pricing

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/backend-freight/internal/channel"
)

// ApplyRounding snaps weight to a multiple of precision using method. The
// step arithmetic is decimal so that 0.9 at precision 0.3 stays 0.9.
// A non-positive precision, a non-finite weight or an unknown method leaves
// the weight untouched. An empty method rounds up.
func ApplyRounding(weight, precision float64, method channel.RoundingMethod) float64 {
	if !finite(weight) || !finite(precision) || precision <= 0 {
		return weight
	}
	step := decimal.NewFromFloat(precision)
	units := decimal.NewFromFloat(weight).Div(step)
	switch method {
	case channel.RoundCeil, "":
		units = units.Ceil()
	case channel.RoundFloor:
		units = units.Floor()
	case channel.RoundNearest:
		units = units.Round(0)
	default:
		return weight
	}
	return units.Mul(step).InexactFloat64()
}

// RoundMoney rounds an amount to cents, half away from zero.
func RoundMoney(v float64) float64 {
	if !finite(v) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
