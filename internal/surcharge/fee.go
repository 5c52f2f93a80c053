package surcharge

import (
	"math"
	"sort"

	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-freight/internal/expr"
)

// Subject is an order or a box seen through its numeric fields.
type Subject interface {
	SubjectID() string
	Fields() expr.Context
}

var defaultDimensionFields = []string{"length", "width", "height"}

// Dispatcher routes rules to their fee computation. The zero value is ready to use.
type Dispatcher struct {
	Logger *zerolog.Logger
	// OnSkip is called for every rule that could not be dispatched.
	OnSkip func(Rule)
}

// ComputeFee is Dispatcher{}.Fee.
func ComputeFee(subject Subject, rule Rule) float64 {
	return Dispatcher{}.Fee(subject, rule)
}

// Fee returns the fee rule charges for subject. It never fails: missing
// parameters, malformed expressions and non-finite inputs all yield 0.
func (d Dispatcher) Fee(subject Subject, rule Rule) float64 {
	if subject == nil {
		return 0
	}
	fields := subject.Fields()
	var fee float64
	switch p := rule.Params.(type) {
	case Fixed:
		fee = deref(p.Amount)
	case Percentage:
		if p.Rate != nil {
			fee = num(fields, "chargeWeight") * *p.Rate
		}
	case WeightBracket:
		fee = p.inclusive(num(fields, "weight"))
	case LongestSideBracket:
		fee = p.upperExclusive(sortedDims(fields, defaultDimensionFields)[0])
	case SecondLongestSideBracket:
		names := p.Fields
		if len(names) == 0 {
			names = defaultDimensionFields
		}
		dims := positive(sortedDims(fields, names))
		if len(dims) < 2 {
			return 0
		}
		fee = p.inclusive(dims[1])
	case DimensionSumBracket:
		var sum float64
		for _, name := range defaultDimensionFields {
			sum += num(fields, name)
		}
		fee = p.inclusive(sum)
	case Custom:
		fee = evalCustom(p, fields)
	default:
		d.skip(rule)
		return 0
	}
	if math.IsNaN(fee) || math.IsInf(fee, 0) {
		return 0
	}
	return fee
}

func (d Dispatcher) skip(rule Rule) {
	logger := d.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	logger.Warn().Str("rule_id", rule.ID).Str("rule_name", rule.Name).Str("kind", string(rule.Kind())).Msg("skipping surcharge rule of unknown kind")
	if d.OnSkip != nil {
		d.OnSkip(rule)
	}
}

func (b Bracket) inclusive(v float64) float64 {
	if b.Min == nil || b.Price == nil || v < *b.Min {
		return 0
	}
	if b.Max != nil && v > *b.Max {
		return 0
	}
	return *b.Price
}

func (b Bracket) upperExclusive(v float64) float64 {
	if b.Min == nil || b.Price == nil || v < *b.Min {
		return 0
	}
	if b.Max != nil && v >= *b.Max {
		return 0
	}
	return *b.Price
}

func evalCustom(p Custom, fields expr.Context) float64 {
	if len(p.Formula) == 0 {
		return 0
	}
	if len(p.Condition) > 0 {
		met, ok := expr.Evaluate(p.Condition, fields).Truth()
		if !ok || !met {
			return 0
		}
	}
	v, ok := expr.Evaluate(p.Formula, fields).Float()
	if !ok {
		return 0
	}
	return v
}

// num reads a field, treating absent and non-finite values as 0.
func num(fields expr.Context, name string) float64 {
	v := fields[name]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// sortedDims returns the named fields in descending order.
func sortedDims(fields expr.Context, names []string) []float64 {
	dims := make([]float64, 0, len(names))
	for _, name := range names {
		dims = append(dims, num(fields, name))
	}
	if len(dims) == 0 {
		dims = append(dims, 0)
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(dims)))
	return dims
}

func positive(sorted []float64) []float64 {
	for i, v := range sorted {
		if v <= 0 {
			return sorted[:i]
		}
	}
	return sorted
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
