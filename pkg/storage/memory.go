package storage

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"parcelhq/meridian/pkg/shipping"
)

// MemoryStore implements Store with in-process maps. It is intended
// for tests and ephemeral deployments; nothing survives a restart.
type MemoryStore struct {
	mu           sync.RWMutex
	profiles     map[string]shipping.Profile
	profileSeq   map[string]int // insertion order for stable listing
	nextSeq      int
	orders       map[string]shipping.Order
	calculations map[string]shipping.CalculationResult
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		profiles:     make(map[string]shipping.Profile),
		profileSeq:   make(map[string]int),
		orders:       make(map[string]shipping.Order),
		calculations: make(map[string]shipping.CalculationResult),
	}
}

// UpsertProfile inserts or updates a profile and returns its ID.
func (s *MemoryStore) UpsertProfile(ctx context.Context, profile *shipping.Profile) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p := *profile
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	if existing, ok := s.profiles[p.ID]; ok {
		p.CreatedAt = existing.CreatedAt
	} else {
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		s.profileSeq[p.ID] = s.nextSeq
		s.nextSeq++
	}
	p.UpdatedAt = now

	s.profiles[p.ID] = p
	return p.ID, nil
}

// GetProfile retrieves one profile by ID.
func (s *MemoryStore) GetProfile(ctx context.Context, id string) (*shipping.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

// ListProfiles returns profiles ordered by ascending priority, with
// ties broken by insertion order.
func (s *MemoryStore) ListProfiles(ctx context.Context, activeOnly bool) ([]shipping.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profiles := make([]shipping.Profile, 0, len(s.profiles))
	for _, p := range s.profiles {
		if activeOnly && !p.Active {
			continue
		}
		profiles = append(profiles, p)
	}

	sort.SliceStable(profiles, func(i, j int) bool {
		if profiles[i].Priority != profiles[j].Priority {
			return profiles[i].Priority < profiles[j].Priority
		}
		return s.profileSeq[profiles[i].ID] < s.profileSeq[profiles[j].ID]
	})

	return profiles, nil
}

// DeleteProfile removes a profile.
func (s *MemoryStore) DeleteProfile(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.profiles[id]; !ok {
		return ErrNotFound
	}
	delete(s.profiles, id)
	delete(s.profileSeq, id)
	return nil
}

// UpsertOrder inserts or replaces an order with its line items.
func (s *MemoryStore) UpsertOrder(ctx context.Context, order *shipping.Order) error {
	if order.ID == "" {
		return ErrNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o := *order
	o.Items = append([]shipping.LineItem(nil), order.Items...)
	s.orders[o.ID] = o
	return nil
}

// GetOrder retrieves one order with its line items.
func (s *MemoryStore) GetOrder(ctx context.Context, id string) (*shipping.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	o.Items = append([]shipping.LineItem(nil), o.Items...)
	return &o, nil
}

// ListOrdersWithoutCalculation returns orders with no stored
// calculation, sorted by ID for determinism.
func (s *MemoryStore) ListOrdersWithoutCalculation(ctx context.Context, limit int) ([]shipping.Order, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var orders []shipping.Order
	for id, o := range s.orders {
		if _, calculated := s.calculations[id]; calculated {
			continue
		}
		o.Items = append([]shipping.LineItem(nil), o.Items...)
		orders = append(orders, o)
	}

	sort.Slice(orders, func(i, j int) bool { return orders[i].ID < orders[j].ID })

	if limit > 0 && len(orders) > limit {
		orders = orders[:limit]
	}
	return orders, nil
}

// SaveCalculation records the calculation result against the order.
func (s *MemoryStore) SaveCalculation(ctx context.Context, orderID string, result *shipping.CalculationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return ErrNotFound
	}

	cost := result.TotalCost
	o.ShippingCostEstimated = &cost
	s.orders[orderID] = o
	s.calculations[orderID] = *result
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
