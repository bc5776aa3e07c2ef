package audit

import (
	"fmt"
	"time"

	"parcelhq/meridian/pkg/shipping"
)

// Record is one audited calculation. Breakdown is kept verbatim so
// the exact grouping can be reconstructed later.
type Record struct {
	ID             string               `json:"id"`
	OrderID        string               `json:"order_id"`
	TotalCost      float64              `json:"total_cost"`
	Breakdown      []shipping.Breakdown `json:"breakdown"`
	MatchedCount   int                  `json:"matched_count"`
	UnmatchedCount int                  `json:"unmatched_count"`
	CreatedAt      time.Time            `json:"created_at"`
}

// Query filters audit records. Zero-valued fields are ignored.
type Query struct {
	OrderID   string
	StartTime *time.Time
	EndTime   *time.Time
	Limit     int
}

// StorageError wraps a failure in the audit database.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("audit storage %s failed: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError creates a StorageError for the given operation.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}
