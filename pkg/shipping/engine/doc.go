// Package engine implements the shipping rule matching and cost
// evaluation engine: given an order, its line items, and a set of
// shipping profiles, it decides which profile applies to each item and
// computes the total estimated shipping cost with a per-profile
// breakdown and a per-item audit trail.
//
// The engine is a pure function over its inputs. It performs no I/O,
// holds no state, and mutates nothing it is given, so a single Engine
// is safe for concurrent use from any number of goroutines.
//
// Every evaluation path fails closed rather than returning an error:
// a malformed condition never matches, a malformed guard expression is
// false, an unrecognized cost rule contributes zero, and an item with
// no matching profile is carried in the audit trail at zero cost. A
// single malformed user-authored profile can therefore never abort a
// bulk calculation.
package engine
