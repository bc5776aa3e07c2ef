package engine

import (
	"sort"

	"parcelhq/meridian/pkg/shipping"
)

// ResolveProfile picks the profile that applies to one line item:
// the highest-precedence active profile whose match condition holds
// against the merged order+item record. Profiles are ordered by
// ascending priority (lower number wins) with ties broken by their
// position in the input list. When no condition matches, the first
// active profile flagged as default is returned; when there is none,
// the item resolves to nil.
//
// The input slice is never reordered; resolution works on a copy.
func ResolveProfile(item shipping.LineItem, order shipping.Order, profiles []shipping.Profile) *shipping.Profile {
	active := make([]shipping.Profile, 0, len(profiles))
	for _, p := range profiles {
		if p.Active {
			active = append(active, p)
		}
	}

	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Priority < active[j].Priority
	})

	record := MergedRecord(order, item)
	for i := range active {
		if MatchesCondition(active[i].MatchConditions, record) {
			return &active[i]
		}
	}

	// More than one default is a misconfiguration; the first one after
	// the priority sort wins, which is implementation-defined rather
	// than contractual.
	for i := range active {
		if active[i].Default {
			return &active[i]
		}
	}

	return nil
}
