package cache

import (
	"context"
	"sync"

	"github.com/orderdesk/backend/internal/domain/orders"
)

// MemoryStore is an in-process Store used in tests and as a degraded
// fallback when no durable backend is available. Contents do not survive a
// restart.
type MemoryStore struct {
	mu         sync.RWMutex
	items      []orders.EnrichedItem
	metrics    orders.MetricsSnapshot
	hasMetrics bool
	filters    orders.FilterSpec
	hasFilters bool
	closed     bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Items returns the cached item set, or nil when none exists.
func (s *MemoryStore) Items(ctx context.Context) ([]orders.EnrichedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil, ErrStoreClosed
	}
	if s.items == nil {
		return nil, nil
	}
	out := make([]orders.EnrichedItem, len(s.items))
	copy(out, s.items)
	return out, nil
}

// Metrics returns the cached metrics snapshot.
func (s *MemoryStore) Metrics(ctx context.Context) (orders.MetricsSnapshot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return orders.MetricsSnapshot{}, false, ErrStoreClosed
	}
	return s.metrics, s.hasMetrics, nil
}

// Filters returns the persisted filter spec.
func (s *MemoryStore) Filters(ctx context.Context) (orders.FilterSpec, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return orders.FilterSpec{}, false, ErrStoreClosed
	}
	return s.filters, s.hasFilters, nil
}

// SetSnapshot atomically replaces the item set and metrics snapshot.
func (s *MemoryStore) SetSnapshot(ctx context.Context, items []orders.EnrichedItem, metrics orders.MetricsSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.items = make([]orders.EnrichedItem, len(items))
	copy(s.items, items)
	s.metrics = metrics
	s.hasMetrics = true
	return nil
}

// SetFilters persists the active filter spec.
func (s *MemoryStore) SetFilters(ctx context.Context, spec orders.FilterSpec) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrStoreClosed
	}
	s.filters = spec
	s.hasFilters = true
	return nil
}

// Close marks the store closed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

var _ Store = (*MemoryStore)(nil)
