// Package storage persists shipping profiles, orders, and calculation
// results. The Store interface has two implementations: a SQLite
// backend for durable single-instance deployments and an in-memory
// backend for tests and ephemeral use.
//
// The engine itself never touches storage; collaborators load profile
// and order snapshots from a Store, run the engine, and write the
// resulting estimate back with SaveCalculation.
package storage
