package surcharge

import (
	"fmt"

	"github.com/noah-isme/backend-freight/internal/expr"
)

// Lint reports configuration problems of a rule record. An empty result means
// the record will decode and evaluate without degrading to a zero fee for
// structural reasons.
func Lint(rec Record) []string {
	rule, err := Decode(rec)
	if err != nil {
		return []string{err.Error()}
	}
	var problems []string
	switch p := rule.Params.(type) {
	case WeightBracket:
		problems = append(problems, p.lint()...)
	case LongestSideBracket:
		problems = append(problems, p.lint()...)
	case SecondLongestSideBracket:
		problems = append(problems, p.lint()...)
		if len(p.Fields) == 1 {
			problems = append(problems, "fields must name at least two dimensions")
		}
	case DimensionSumBracket:
		problems = append(problems, p.lint()...)
	case Percentage:
		if *p.Rate < 0 {
			problems = append(problems, "rate is negative")
		}
	case Custom:
		if len(p.Condition) > 0 {
			res, err := expr.EvaluateStrict(p.Condition, nil)
			if err != nil {
				problems = append(problems, fmt.Sprintf("condition: %v", err))
			} else if !res.IsBool() {
				problems = append(problems, "condition does not produce a boolean")
			}
		}
		res, err := expr.EvaluateStrict(p.Formula, nil)
		if err != nil {
			problems = append(problems, fmt.Sprintf("formula: %v", err))
		} else if res.IsBool() {
			problems = append(problems, "formula produces a boolean instead of a number")
		}
	}
	return problems
}

func (b Bracket) lint() []string {
	var problems []string
	if b.Max != nil && *b.Max < *b.Min {
		problems = append(problems, "max is below min")
	}
	if *b.Price < 0 {
		problems = append(problems, "price is negative")
	}
	return problems
}
