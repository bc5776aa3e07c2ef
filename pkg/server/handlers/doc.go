// Package handlers implements the HTTP API: shipping profile CRUD,
// profile dry-run testing, order cost calculation, health and metrics.
package handlers
