package storage

import (
	"context"
	"errors"

	"parcelhq/meridian/pkg/shipping"
)

// ErrNotFound indicates the requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the persistence interface for shipping profiles, orders,
// and calculation results. Implementations must be safe for concurrent
// use.
type Store interface {
	// UpsertProfile inserts or updates a profile and returns its ID.
	// An empty ID is assigned a new UUID; CreatedAt is set on first
	// insert and UpdatedAt on every write.
	UpsertProfile(ctx context.Context, profile *shipping.Profile) (string, error)

	// GetProfile retrieves one profile by ID. Returns ErrNotFound when
	// it does not exist.
	GetProfile(ctx context.Context, id string) (*shipping.Profile, error)

	// ListProfiles returns profiles ordered by ascending priority.
	// When activeOnly is set, inactive profiles are omitted.
	ListProfiles(ctx context.Context, activeOnly bool) ([]shipping.Profile, error)

	// DeleteProfile removes a profile. Returns ErrNotFound when it
	// does not exist.
	DeleteProfile(ctx context.Context, id string) error

	// UpsertOrder inserts or replaces an order together with its line
	// items.
	UpsertOrder(ctx context.Context, order *shipping.Order) error

	// GetOrder retrieves one order with its line items. Returns
	// ErrNotFound when it does not exist.
	GetOrder(ctx context.Context, id string) (*shipping.Order, error)

	// ListOrdersWithoutCalculation returns up to limit orders that
	// have no stored calculation yet, in stable order. A limit of zero
	// or less means no limit.
	ListOrdersWithoutCalculation(ctx context.Context, limit int) ([]shipping.Order, error)

	// SaveCalculation writes the estimated cost and the full
	// calculation details onto the order record. Returns ErrNotFound
	// when the order does not exist.
	SaveCalculation(ctx context.Context, orderID string, result *shipping.CalculationResult) error

	// Close releases any resources held by the store.
	Close() error
}
