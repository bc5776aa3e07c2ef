// Package metrics exposes Prometheus metrics for calculations and
// background sweeps.
package metrics
