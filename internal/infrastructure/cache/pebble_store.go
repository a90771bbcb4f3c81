package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/cockroachdb/pebble"

	"github.com/orderdesk/backend/internal/domain/orders"
)

// PebbleStore implements Store on an embedded PebbleDB, giving the dashboard
// a durable local cache that survives process restarts without any external
// service.
type PebbleStore struct {
	db *pebble.DB
}

// NewPebbleStore opens (or creates) the store under dir.
func NewPebbleStore(dir string) (*PebbleStore, error) {
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("cache: pebble open: %w", err)
	}
	return &PebbleStore{db: db}, nil
}

func (s *PebbleStore) get(key string, out any) (bool, error) {
	value, closer, err := s.db.Get([]byte(key))
	if err == pebble.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache: pebble get %s: %w", key, err)
	}
	defer closer.Close()
	if err := json.Unmarshal(value, out); err != nil {
		return false, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return true, nil
}

// Items returns the cached item set, or nil when none exists.
func (s *PebbleStore) Items(ctx context.Context) ([]orders.EnrichedItem, error) {
	var items []orders.EnrichedItem
	ok, err := s.get(keyItems, &items)
	if err != nil || !ok {
		return nil, err
	}
	return items, nil
}

// Metrics returns the cached metrics snapshot.
func (s *PebbleStore) Metrics(ctx context.Context) (orders.MetricsSnapshot, bool, error) {
	var m orders.MetricsSnapshot
	ok, err := s.get(keyMetrics, &m)
	return m, ok, err
}

// Filters returns the persisted filter spec.
func (s *PebbleStore) Filters(ctx context.Context) (orders.FilterSpec, bool, error) {
	var spec orders.FilterSpec
	ok, err := s.get(keyFilters, &spec)
	return spec, ok, err
}

// SetSnapshot writes items and metrics in a single synced batch, so a crash
// between the two writes cannot leave them disagreeing.
func (s *PebbleStore) SetSnapshot(ctx context.Context, items []orders.EnrichedItem, metrics orders.MetricsSnapshot) error {
	itemsData, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("cache: encode items: %w", err)
	}
	metricsData, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("cache: encode metrics: %w", err)
	}

	batch := s.db.NewBatch()
	defer batch.Close()
	if err := batch.Set([]byte(keyItems), itemsData, nil); err != nil {
		return fmt.Errorf("cache: batch set items: %w", err)
	}
	if err := batch.Set([]byte(keyMetrics), metricsData, nil); err != nil {
		return fmt.Errorf("cache: batch set metrics: %w", err)
	}
	if err := batch.Commit(pebble.Sync); err != nil {
		return fmt.Errorf("cache: commit snapshot: %w", err)
	}
	return nil
}

// SetFilters persists the active filter spec.
func (s *PebbleStore) SetFilters(ctx context.Context, spec orders.FilterSpec) error {
	data, err := json.Marshal(spec)
	if err != nil {
		return fmt.Errorf("cache: encode filters: %w", err)
	}
	if err := s.db.Set([]byte(keyFilters), data, pebble.Sync); err != nil {
		return fmt.Errorf("cache: set filters: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *PebbleStore) Close() error {
	return s.db.Close()
}

var _ Store = (*PebbleStore)(nil)
