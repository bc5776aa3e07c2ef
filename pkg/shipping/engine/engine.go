package engine

import (
	"log/slog"

	"parcelhq/meridian/pkg/shipping"
)

// NoRuleMatch is the audit profile name recorded for items that
// resolved to no profile.
const NoRuleMatch = "No Rule Match"

// Engine evaluates shipping profiles against orders. It carries only a
// logger; all calculation state lives on the stack of each call, so one
// Engine may serve any number of concurrent calculations.
type Engine struct {
	logger *slog.Logger
}

// New creates a new engine. A nil logger falls back to slog.Default().
func New(logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{logger: logger}
}

// itemGroup collects the items that resolved to a single profile.
type itemGroup struct {
	profile  *shipping.Profile
	items    []shipping.LineItem
	subtotal float64
}

// Calculate resolves a profile for every item, groups items by resolved
// profile, evaluates each group's cost rule, and assembles the total
// with a per-group breakdown and per-item audit trail.
//
// Items that resolve to no profile contribute zero to the total and
// appear only in the audit trail. Calculate is deterministic: identical
// inputs produce identical results, and none of the inputs are mutated.
func (e *Engine) Calculate(order shipping.Order, items []shipping.LineItem, profiles []shipping.Profile) shipping.CalculationResult {
	matchedItems := make([]shipping.MatchedItem, 0, len(items))

	// Group keys in first-seen order keep the breakdown deterministic.
	groups := make(map[string]*itemGroup)
	var groupKeys []string

	for _, item := range items {
		profile := ResolveProfile(item, order, profiles)

		entry := shipping.MatchedItem{Item: item, ProfileName: NoRuleMatch}
		key := "no_match"
		if profile != nil {
			id := profile.ID
			entry.ProfileID = &id
			entry.ProfileName = profile.Name
			key = profile.ID
		}
		matchedItems = append(matchedItems, entry)

		group, ok := groups[key]
		if !ok {
			group = &itemGroup{profile: profile}
			groups[key] = group
			groupKeys = append(groupKeys, key)
		}
		group.items = append(group.items, item)
		group.subtotal += item.Total
	}

	var totalCost float64
	breakdown := make([]shipping.Breakdown, 0, len(groupKeys))

	for _, key := range groupKeys {
		group := groups[key]
		if group.profile == nil {
			e.logger.Debug("items with no rule match excluded from cost",
				"order_id", order.ID,
				"item_count", len(group.items),
			)
			continue
		}

		quantity := 0
		titles := make([]string, 0, len(group.items))
		for _, item := range group.items {
			quantity += item.Quantity
			titles = append(titles, item.ProductTitle)
		}

		cctx := CostContext{
			VarOrderSubtotal:   order.Subtotal,
			VarGroupSubtotal:   group.subtotal,
			VarItemCount:       float64(len(group.items)),
			VarQuantity:        float64(quantity),
			VarShippingCharged: order.ShippingCharged,
		}

		cost := EvaluateCostRule(group.profile.CostRules, cctx)
		totalCost += cost

		breakdown = append(breakdown, shipping.Breakdown{
			ProfileID:   group.profile.ID,
			ProfileName: group.profile.Name,
			Items:       titles,
			Subtotal:    group.subtotal,
			Cost:        cost,
		})
	}

	return shipping.CalculationResult{
		OrderID:      order.ID,
		TotalCost:    totalCost,
		Breakdown:    breakdown,
		MatchedItems: matchedItems,
	}
}

// DryRun evaluates a candidate profile against synthetic test data,
// for previewing a rule before saving it. It reports whether the match
// condition holds and, when it does, the cost the rule would produce
// using the numeric fields of the test data as the cost context.
func (e *Engine) DryRun(profile shipping.Profile, testData map[string]interface{}) (matched bool, cost float64) {
	record := RecordFromMap(testData)
	if !MatchesCondition(profile.MatchConditions, record) {
		return false, 0
	}
	return true, EvaluateCostRule(profile.CostRules, ContextFromMap(testData))
}
