package cache

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orderdesk/backend/internal/domain/orders"
)

func sampleItems(n int) []orders.EnrichedItem {
	items := make([]orders.EnrichedItem, n)
	for i := range items {
		items[i] = orders.EnrichedItem{
			LineItem: orders.LineItem{
				OrderNumber: "P-1",
				SKU:         "SKU-A",
				Quantity:    int64(i + 1),
				LineTotal:   decimal.NewFromInt(10),
				OrderDate:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
				Status:      orders.StatusOpen,
			},
			KitSKU:     "KIT-X",
			Multiplier: 2,
			HasMapping: true,
		}
	}
	return items
}

// storeUnderTest runs the same contract suite against every backend.
func storeUnderTest(t *testing.T, name string, open func(t *testing.T) Store) {
	t.Run(name+"/empty reads", func(t *testing.T) {
		store := open(t)
		defer store.Close()
		ctx := context.Background()

		items, err := store.Items(ctx)
		require.NoError(t, err)
		assert.Nil(t, items)

		_, ok, err := store.Metrics(ctx)
		require.NoError(t, err)
		assert.False(t, ok)

		_, ok, err = store.Filters(ctx)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run(name+"/snapshot round trip", func(t *testing.T) {
		store := open(t)
		defer store.Close()
		ctx := context.Background()

		items := sampleItems(3)
		metrics := orders.Aggregate(items)
		require.NoError(t, store.SetSnapshot(ctx, items, metrics))

		gotItems, err := store.Items(ctx)
		require.NoError(t, err)
		require.Len(t, gotItems, 3)
		assert.Equal(t, "KIT-X", gotItems[0].KitSKU)
		assert.True(t, gotItems[0].LineTotal.Equal(decimal.NewFromInt(10)))

		gotMetrics, ok, err := store.Metrics(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, 1, gotMetrics.TotalOrders)
		assert.Equal(t, 3, gotMetrics.TotalItems)
	})

	t.Run(name+"/snapshot replaces wholesale", func(t *testing.T) {
		store := open(t)
		defer store.Close()
		ctx := context.Background()

		first := sampleItems(5)
		require.NoError(t, store.SetSnapshot(ctx, first, orders.Aggregate(first)))
		second := sampleItems(2)
		require.NoError(t, store.SetSnapshot(ctx, second, orders.Aggregate(second)))

		got, err := store.Items(ctx)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run(name+"/filters round trip", func(t *testing.T) {
		store := open(t)
		defer store.Close()
		ctx := context.Background()

		spec := orders.FilterSpec{
			Search:   "maria",
			DateFrom: "2026-03-01",
			DateTo:   "2026-03-31",
			Statuses: []string{"aberto", "enviado"},
		}
		require.NoError(t, store.SetFilters(ctx, spec))

		got, ok, err := store.Filters(ctx)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, spec, got)
	})
}

func TestMemoryStore(t *testing.T) {
	storeUnderTest(t, "memory", func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestPebbleStore(t *testing.T) {
	storeUnderTest(t, "pebble", func(t *testing.T) Store {
		store, err := NewPebbleStore(t.TempDir())
		require.NoError(t, err)
		return store
	})
}

func TestPebbleStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewPebbleStore(dir)
	require.NoError(t, err)
	items := sampleItems(4)
	require.NoError(t, store.SetSnapshot(ctx, items, orders.Aggregate(items)))
	require.NoError(t, store.SetFilters(ctx, orders.FilterSpec{Search: "jose"}))
	require.NoError(t, store.Close())

	reopened, err := NewPebbleStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.Items(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 4)

	spec, ok, err := reopened.Filters(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "jose", spec.Search)
}

func TestMemoryStore_ClosedStoreErrors(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.Close())

	_, err := store.Items(context.Background())
	assert.ErrorIs(t, err, ErrStoreClosed)
	err = store.SetFilters(context.Background(), orders.FilterSpec{})
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestMemoryStore_DefensiveCopies(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	items := sampleItems(2)
	require.NoError(t, store.SetSnapshot(ctx, items, orders.Aggregate(items)))

	got, err := store.Items(ctx)
	require.NoError(t, err)
	got[0].KitSKU = "MUTATED"

	again, err := store.Items(ctx)
	require.NoError(t, err)
	assert.Equal(t, "KIT-X", again[0].KitSKU)
}
