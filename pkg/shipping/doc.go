// Package shipping defines the core domain types for shipping cost
// estimation: user-authored shipping profiles (a match condition paired
// with a cost rule), storefront orders and their line items, and the
// calculation results produced by the engine.
//
// All types in this package are plain values with no behavior beyond
// (de)serialization. Profiles are authored as JSON over the HTTP API or
// as YAML seed files; both representations share the same field names.
//
// CostRule is a tagged union resolved once at deserialization time so
// that an unrecognized rule type is rejected at the boundary instead of
// being silently ignored deep inside a calculation.
package shipping
