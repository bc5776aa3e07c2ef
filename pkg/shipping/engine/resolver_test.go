package engine

import (
	"testing"

	"parcelhq/meridian/pkg/shipping"
)

func containsTitle(value string) shipping.MatchCondition {
	return shipping.MatchCondition{
		Field:    "product_title",
		Operator: shipping.OperatorContains,
		Value:    value,
	}
}

// TestResolveProfile_Priority tests that the lowest priority number
// wins among matching profiles.
func TestResolveProfile_Priority(t *testing.T) {
	item := shipping.LineItem{ProductTitle: "Tree Decoration", Quantity: 1, Total: 10}
	order := shipping.Order{ID: "o-1", Subtotal: 10}

	profiles := []shipping.Profile{
		{ID: "broad", Name: "Broad", Priority: 50, Active: true, MatchConditions: containsTitle("")},
		{ID: "tree", Name: "Tree", Priority: 10, Active: true, MatchConditions: containsTitle("tree")},
	}

	got := ResolveProfile(item, order, profiles)
	if got == nil || got.ID != "tree" {
		t.Fatalf("ResolveProfile = %v, want profile tree", got)
	}
}

// TestResolveProfile_StableTieBreak tests that equal priorities keep
// the input list order.
func TestResolveProfile_StableTieBreak(t *testing.T) {
	item := shipping.LineItem{ProductTitle: "Tree Decoration"}
	order := shipping.Order{ID: "o-1"}

	profiles := []shipping.Profile{
		{ID: "first", Name: "First", Priority: 10, Active: true, MatchConditions: containsTitle("tree")},
		{ID: "second", Name: "Second", Priority: 10, Active: true, MatchConditions: containsTitle("tree")},
	}

	got := ResolveProfile(item, order, profiles)
	if got == nil || got.ID != "first" {
		t.Fatalf("ResolveProfile = %v, want profile first (stable order)", got)
	}
}

// TestResolveProfile_SkipsInactive tests that inactive profiles never
// resolve, even as default.
func TestResolveProfile_SkipsInactive(t *testing.T) {
	item := shipping.LineItem{ProductTitle: "Tree Decoration"}
	order := shipping.Order{ID: "o-1"}

	profiles := []shipping.Profile{
		{ID: "inactive", Name: "Inactive", Priority: 1, Active: false, MatchConditions: containsTitle("tree")},
		{ID: "fallback", Name: "Fallback", Priority: 99, Active: true, Default: true, MatchConditions: containsTitle("nomatch")},
	}

	got := ResolveProfile(item, order, profiles)
	if got == nil || got.ID != "fallback" {
		t.Fatalf("ResolveProfile = %v, want default profile fallback", got)
	}

	profiles[1].Active = false
	if got := ResolveProfile(item, order, profiles); got != nil {
		t.Fatalf("ResolveProfile with all profiles inactive = %v, want nil", got)
	}
}

// TestResolveProfile_DefaultFallback tests the default profile applies
// only when nothing matches.
func TestResolveProfile_DefaultFallback(t *testing.T) {
	order := shipping.Order{ID: "o-1"}
	profiles := []shipping.Profile{
		{ID: "tree", Name: "Tree", Priority: 10, Active: true, MatchConditions: containsTitle("tree")},
		{ID: "dflt", Name: "Default", Priority: 100, Active: true, Default: true, MatchConditions: containsTitle("never-matches-anything")},
	}

	matched := ResolveProfile(shipping.LineItem{ProductTitle: "Tree Decoration"}, order, profiles)
	if matched == nil || matched.ID != "tree" {
		t.Fatalf("matching item resolved to %v, want tree", matched)
	}

	fell := ResolveProfile(shipping.LineItem{ProductTitle: "Plain Mug"}, order, profiles)
	if fell == nil || fell.ID != "dflt" {
		t.Fatalf("non-matching item resolved to %v, want default", fell)
	}
}

// TestResolveProfile_NoMatchNoDefault tests resolution to nil.
func TestResolveProfile_NoMatchNoDefault(t *testing.T) {
	profiles := []shipping.Profile{
		{ID: "tree", Name: "Tree", Priority: 10, Active: true, MatchConditions: containsTitle("tree")},
	}
	got := ResolveProfile(shipping.LineItem{ProductTitle: "Plain Mug"}, shipping.Order{}, profiles)
	if got != nil {
		t.Fatalf("ResolveProfile = %v, want nil", got)
	}
}

// TestResolveProfile_MultipleDefaults pins the implementation-defined
// tie-break: the first default after the priority sort wins.
func TestResolveProfile_MultipleDefaults(t *testing.T) {
	profiles := []shipping.Profile{
		{ID: "d2", Name: "Second Default", Priority: 20, Active: true, Default: true, MatchConditions: containsTitle("x")},
		{ID: "d1", Name: "First Default", Priority: 10, Active: true, Default: true, MatchConditions: containsTitle("x")},
	}
	got := ResolveProfile(shipping.LineItem{ProductTitle: "Plain Mug"}, shipping.Order{}, profiles)
	if got == nil || got.ID != "d1" {
		t.Fatalf("ResolveProfile = %v, want d1 (lowest priority default)", got)
	}
}

// TestResolveProfile_ItemOverlaysOrder tests that an item field wins a
// key collision with an order field in the merged record.
func TestResolveProfile_ItemOverlaysOrder(t *testing.T) {
	// "total" exists on both: the order carries no such key directly,
	// but "subtotal" vs item "total" are distinct; use "price" which is
	// item-only and "currency" which is order-only to confirm both
	// sides are visible.
	order := shipping.Order{ID: "o-1", Currency: "USD"}
	item := shipping.LineItem{ProductTitle: "Mug", Price: 9.5}

	record := MergedRecord(order, item)
	if record["currency"] != "USD" {
		t.Errorf("order field missing from merged record: %v", record["currency"])
	}
	if record["price"] != "9.5" {
		t.Errorf("item field missing from merged record: %v", record["price"])
	}
	if record["product_title"] != "Mug" {
		t.Errorf("item title = %q, want Mug", record["product_title"])
	}
}
