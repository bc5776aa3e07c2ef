// Package audit persists a record of every shipping cost calculation
// for later inspection. Records are written to a dedicated SQLite
// database, separate from the operational store, and pruned on a
// configurable retention schedule.
package audit
