package orders

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orderdesk/backend/internal/domain/catalog"
	"github.com/orderdesk/backend/internal/domain/orders"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeCatalog struct {
	mu       sync.Mutex
	mappings []catalog.SkuMapping
	products []catalog.Product
	history  []catalog.ProcessingRecord

	mappingErr error
	productErr error
	historyErr error

	mappingCalls int
}

func (f *fakeCatalog) FindActive(ctx context.Context) ([]catalog.SkuMapping, error) {
	f.mu.Lock()
	f.mappingCalls++
	f.mu.Unlock()
	if f.mappingErr != nil {
		return nil, f.mappingErr
	}
	return f.mappings, nil
}

func (f *fakeCatalog) FindAll(ctx context.Context) ([]catalog.Product, error) {
	if f.productErr != nil {
		return nil, f.productErr
	}
	return f.products, nil
}

type fakeHistory struct {
	records []catalog.ProcessingRecord
	err     error
}

func (f *fakeHistory) FindAll(ctx context.Context) ([]catalog.ProcessingRecord, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

func newTestEnricher(c *fakeCatalog, h *fakeHistory) *Enricher {
	return NewEnricher(c, c, h, zap.NewNop())
}

func rawItem(orderNumber, sku string, quantity int64) orders.LineItem {
	return orders.LineItem{OrderNumber: orderNumber, SKU: sku, Quantity: quantity}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestEnricher_DefaultPassThrough(t *testing.T) {
	enricher := newTestEnricher(&fakeCatalog{}, &fakeHistory{})

	got := enricher.Enrich(context.Background(), []orders.LineItem{rawItem("P-1", "SKU-A", 3)})
	require.Len(t, got, 1)
	assert.Equal(t, "SKU-A", got[0].KitSKU)
	assert.Equal(t, int64(1), got[0].Multiplier)
	assert.False(t, got[0].HasMapping)
	assert.False(t, got[0].ProductFound)
	assert.False(t, got[0].Processed)
}

func TestEnricher_ActiveMappingResolvesKit(t *testing.T) {
	c := &fakeCatalog{
		mappings: []catalog.SkuMapping{
			{OrderSKU: "SKU-A", KitSKU: "KIT-X", Multiplier: 2, IsActive: true},
		},
		products: []catalog.Product{
			{SKU: "KIT-X", Name: "Kit X", Category: "kits", QuantityOnHand: 10},
		},
	}
	enricher := newTestEnricher(c, &fakeHistory{})

	got := enricher.Enrich(context.Background(), []orders.LineItem{rawItem("P-1", "SKU-A", 5)})
	require.Len(t, got, 1)
	assert.Equal(t, "KIT-X", got[0].KitSKU)
	assert.Equal(t, int64(2), got[0].Multiplier)
	assert.True(t, got[0].HasMapping)
	assert.True(t, got[0].ProductFound)
	assert.Equal(t, "Kit X", got[0].ProductName)
	assert.Equal(t, int64(10), got[0].RequiredQuantity())
	assert.Equal(t, orders.AvailabilityAvailable, got[0].Availability())
}

func TestEnricher_ProcessingRecordBeatsNewerMapping(t *testing.T) {
	// The line was debited against kit X with multiplier 2; the mapping was
	// later changed to kit Y with multiplier 1. History wins.
	c := &fakeCatalog{
		mappings: []catalog.SkuMapping{
			{OrderSKU: "SKU-A", KitSKU: "KIT-Y", Multiplier: 1, IsActive: true},
		},
		products: []catalog.Product{
			{SKU: "KIT-X", QuantityOnHand: 4},
			{SKU: "KIT-Y", QuantityOnHand: 100},
		},
	}
	h := &fakeHistory{records: []catalog.ProcessingRecord{
		{OrderNumber: "P-1", SKU: "SKU-A", Status: catalog.ProcessingStatusDebited, KitSKU: "KIT-X", Multiplier: 2},
	}}
	enricher := newTestEnricher(c, h)

	got := enricher.Enrich(context.Background(), []orders.LineItem{rawItem("P-1", "SKU-A", 2)})
	require.Len(t, got, 1)
	assert.Equal(t, "KIT-X", got[0].KitSKU)
	assert.Equal(t, int64(2), got[0].Multiplier)
	assert.True(t, got[0].Processed)
	assert.Equal(t, orders.AvailabilityProcessed, got[0].Availability())
	// Product data joins on the frozen kit SKU, not the current mapping.
	assert.Equal(t, int64(4), got[0].QuantityOnHand)
}

func TestEnricher_NonDebitedRecordIsNotProcessed(t *testing.T) {
	h := &fakeHistory{records: []catalog.ProcessingRecord{
		{OrderNumber: "P-1", SKU: "SKU-A", Status: "pendente", KitSKU: "KIT-X", Multiplier: 1},
	}}
	enricher := newTestEnricher(&fakeCatalog{}, h)

	got := enricher.Enrich(context.Background(), []orders.LineItem{rawItem("P-1", "SKU-A", 1)})
	require.Len(t, got, 1)
	assert.False(t, got[0].Processed)
	// The record still freezes kit resolution.
	assert.Equal(t, "KIT-X", got[0].KitSKU)
}

func TestEnricher_InactiveMappingIgnored(t *testing.T) {
	c := &fakeCatalog{
		mappings: []catalog.SkuMapping{
			{OrderSKU: "SKU-A", KitSKU: "KIT-X", Multiplier: 2, IsActive: false},
		},
	}
	enricher := newTestEnricher(c, &fakeHistory{})

	got := enricher.Enrich(context.Background(), []orders.LineItem{rawItem("P-1", "SKU-A", 1)})
	require.Len(t, got, 1)
	assert.Equal(t, "SKU-A", got[0].KitSKU)
	assert.False(t, got[0].HasMapping)
}

func TestEnricher_DegradesOnAuxiliaryFailure(t *testing.T) {
	tests := []struct {
		name string
		c    *fakeCatalog
		h    *fakeHistory
	}{
		{"mapping read fails", &fakeCatalog{mappingErr: errors.New("db down")}, &fakeHistory{}},
		{"product read fails", &fakeCatalog{productErr: errors.New("db down")}, &fakeHistory{}},
		{"history read fails", &fakeCatalog{}, &fakeHistory{err: errors.New("db down")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enricher := newTestEnricher(tt.c, tt.h)
			got := enricher.Enrich(context.Background(), []orders.LineItem{rawItem("P-1", "SKU-A", 2)})
			require.Len(t, got, 1)
			assert.Equal(t, "SKU-A", got[0].KitSKU)
			assert.Equal(t, int64(1), got[0].Multiplier)
			assert.False(t, got[0].Processed)
		})
	}
}

func TestEnricher_AuxiliaryLoadedOncePerPass(t *testing.T) {
	c := &fakeCatalog{}
	enricher := newTestEnricher(c, &fakeHistory{})

	items := make([]orders.LineItem, 50)
	for i := range items {
		items[i] = rawItem("P-1", "SKU-A", 1)
	}
	enricher.Enrich(context.Background(), items)
	assert.Equal(t, 1, c.mappingCalls)
}
