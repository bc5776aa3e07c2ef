// Package sweep periodically calculates shipping costs for orders
// that have no stored calculation yet. Passes run on a cron schedule
// and never overlap; a pass still in flight causes the next tick to be
// skipped.
package sweep
