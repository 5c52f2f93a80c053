package surcharge

import "github.com/noah-isme/backend-freight/internal/expr"

// Kind names a built-in surcharge computation.
type Kind string

const (
	KindFixed                    Kind = "fixed"
	KindPercentage               Kind = "percentage"
	KindWeightBracket            Kind = "weight_bracket"
	KindLongestSideBracket       Kind = "longest_side_bracket"
	KindSecondLongestSideBracket Kind = "second_longest_side_bracket"
	KindDimensionSumBracket      Kind = "dimension_sum_bracket"
	KindCustom                   Kind = "custom"
)

// Scope decides whether a rule is charged once per order or once per box.
type Scope string

const (
	ScopeOrder Scope = "order"
	ScopeBox   Scope = "box"
)

// Params is the kind-specific parameter set of a rule. It is implemented only
// by the parameter types in this package.
type Params interface {
	Kind() Kind
	defaultScope() Scope
}

// Rule is a named fee definition.
type Rule struct {
	ID     string
	Name   string
	Scope  Scope
	Params Params
}

// Kind returns the kind of the rule's parameters, or "" when none are set.
func (r Rule) Kind() Kind {
	if r.Params == nil {
		return ""
	}
	return r.Params.Kind()
}

// EffectiveScope returns the configured scope or the kind's default.
func (r Rule) EffectiveScope() Scope {
	if r.Scope == ScopeOrder || r.Scope == ScopeBox {
		return r.Scope
	}
	if r.Params == nil {
		return ScopeOrder
	}
	return r.Params.defaultScope()
}

// Fixed charges Amount unconditionally.
type Fixed struct {
	Amount *float64 `json:"amount" validate:"required"`
}

// Percentage charges Rate times the subject's charge weight.
type Percentage struct {
	Rate *float64 `json:"rate" validate:"required"`
}

// Bracket is the shared range and price of the bracket kinds. Max is optional
// and means unbounded above.
type Bracket struct {
	Min   *float64 `json:"min" validate:"required"`
	Max   *float64 `json:"max,omitempty"`
	Price *float64 `json:"price" validate:"required"`
}

// WeightBracket charges Price when min <= weight <= max.
type WeightBracket struct {
	Bracket
}

// LongestSideBracket charges Price when min <= longest side < max.
type LongestSideBracket struct {
	Bracket
}

// SecondLongestSideBracket charges Price when the second longest of Fields
// lies within [min, max]. Fields defaults to length, width and height.
type SecondLongestSideBracket struct {
	Bracket
	Fields []string `json:"fields,omitempty"`
}

// DimensionSumBracket charges Price when min <= length+width+height <= max.
type DimensionSumBracket struct {
	Bracket
}

// Custom evaluates Formula when Condition holds. An empty Condition always holds.
type Custom struct {
	Condition expr.Formula `json:"condition,omitempty"`
	Formula   expr.Formula `json:"formula" validate:"required,min=1"`
}

func (Fixed) Kind() Kind                    { return KindFixed }
func (Percentage) Kind() Kind               { return KindPercentage }
func (WeightBracket) Kind() Kind            { return KindWeightBracket }
func (LongestSideBracket) Kind() Kind       { return KindLongestSideBracket }
func (SecondLongestSideBracket) Kind() Kind { return KindSecondLongestSideBracket }
func (DimensionSumBracket) Kind() Kind      { return KindDimensionSumBracket }
func (Custom) Kind() Kind                   { return KindCustom }

func (Fixed) defaultScope() Scope                    { return ScopeOrder }
func (Percentage) defaultScope() Scope               { return ScopeOrder }
func (WeightBracket) defaultScope() Scope            { return ScopeBox }
func (LongestSideBracket) defaultScope() Scope       { return ScopeBox }
func (SecondLongestSideBracket) defaultScope() Scope { return ScopeBox }
func (DimensionSumBracket) defaultScope() Scope      { return ScopeBox }
func (Custom) defaultScope() Scope                   { return ScopeOrder }

// Float returns a pointer to v, for building parameter sets in code.
func Float(v float64) *float64 { return &v }
