// Package cache provides the durable local view store: the last-known
// enriched item set, its metrics snapshot and the active filter spec.
// The store is the only shared mutable resource of the sync engine; all
// mutation goes through SetSnapshot/SetFilters and readers never mutate it.
package cache

import (
	"context"
	"errors"

	"github.com/orderdesk/backend/internal/domain/orders"
)

// Store keys; each entry is independently loadable at process start.
const (
	keyItems   = "view:items"
	keyMetrics = "view:metrics"
	keyFilters = "view:filters"
)

// ErrStoreClosed is returned by operations on a closed store.
var ErrStoreClosed = errors.New("cache: store closed")

// Store persists the local view across restarts. SetSnapshot writes the item
// set and its metrics atomically from the caller's perspective; there is no
// observable state where the two disagree.
type Store interface {
	// Items returns the cached enriched item set, or nil when none exists.
	Items(ctx context.Context) ([]orders.EnrichedItem, error)

	// Metrics returns the cached metrics snapshot; ok is false when absent.
	Metrics(ctx context.Context) (orders.MetricsSnapshot, bool, error)

	// Filters returns the persisted filter spec; ok is false when absent.
	Filters(ctx context.Context) (orders.FilterSpec, bool, error)

	// SetSnapshot atomically replaces the item set and metrics snapshot.
	// A sync either replaces the whole set or is discarded, never merged.
	SetSnapshot(ctx context.Context, items []orders.EnrichedItem, metrics orders.MetricsSnapshot) error

	// SetFilters persists the active filter spec.
	SetFilters(ctx context.Context, spec orders.FilterSpec) error

	// Close releases any resources held by the store.
	Close() error
}
