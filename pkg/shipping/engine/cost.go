package engine

import (
	"math"

	"parcelhq/meridian/pkg/shipping"
	"parcelhq/meridian/pkg/shipping/expr"
)

// EvaluateCostRule computes the monetary amount a cost rule yields for
// the given context. The switch over the rule kind is exhaustive for
// all known kinds; anything else contributes zero, so a rule that
// slipped past deserialization still cannot abort a calculation.
func EvaluateCostRule(rule shipping.CostRule, cctx CostContext) float64 {
	switch rule.Kind {
	case shipping.CostFixed:
		return rule.BaseCost

	case shipping.CostPerItem:
		quantity, ok := cctx[VarQuantity]
		if !ok {
			quantity = 1
		}
		return rule.PerItemCost * quantity

	case shipping.CostPercentage:
		return cctx[VarOrderSubtotal] * rule.Percentage / 100

	case shipping.CostShippingCharged:
		return math.Max(0, cctx[VarShippingCharged]+rule.Adjustment)

	case shipping.CostConditional:
		for _, cond := range rule.Conditions {
			if expr.Evaluate(cond.If, cctx) {
				return cond.Then
			}
		}
		// No guard held: the last entry's else is the fallback for the
		// whole rule, then the rule's base cost.
		if n := len(rule.Conditions); n > 0 {
			if last := rule.Conditions[n-1]; last.Else != nil {
				return *last.Else
			}
		}
		return rule.BaseCost

	default:
		return 0
	}
}
