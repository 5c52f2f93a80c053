package surcharge

import "github.com/shopspring/decimal"

// Line is one non-zero fee in a surcharge breakdown.
type Line struct {
	RuleID    string  `json:"ruleId"`
	RuleName  string  `json:"ruleName,omitempty"`
	Kind      Kind    `json:"kind"`
	SubjectID string  `json:"subjectId"`
	Amount    float64 `json:"amount"`
}

// Summary is the total surcharge of an order with its breakdown.
type Summary struct {
	TotalFee  float64 `json:"totalFee"`
	Breakdown []Line  `json:"breakdown"`
}

// ComputeSurchargeTotal is Dispatcher{}.Total.
func ComputeSurchargeTotal(order Subject, boxes []Subject, rules []Rule) Summary {
	return Dispatcher{}.Total(order, boxes, rules)
}

// Total applies every rule independently and sums the fees. Order-scoped
// rules are charged once against order; box-scoped rules once per box, or
// once against order when there are no boxes.
func (d Dispatcher) Total(order Subject, boxes []Subject, rules []Rule) Summary {
	sum := decimal.Zero
	lines := make([]Line, 0, len(rules))
	for _, rule := range rules {
		subjects := []Subject{order}
		if rule.EffectiveScope() == ScopeBox && len(boxes) > 0 {
			subjects = boxes
		}
		for _, s := range subjects {
			amount := d.Fee(s, rule)
			if amount == 0 {
				continue
			}
			sum = sum.Add(decimal.NewFromFloat(amount))
			lines = append(lines, Line{
				RuleID:    rule.ID,
				RuleName:  rule.Name,
				Kind:      rule.Kind(),
				SubjectID: s.SubjectID(),
				Amount:    amount,
			})
		}
	}
	return Summary{TotalFee: sum.InexactFloat64(), Breakdown: lines}
}
