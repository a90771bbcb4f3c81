package orders

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/orderdesk/backend/internal/domain/orders"
	"github.com/orderdesk/backend/internal/infrastructure/cache"
)

// ---------------------------------------------------------------------------
// Fakes
// ---------------------------------------------------------------------------

type fakeSyncer struct {
	mu      sync.Mutex
	results []syncOutcome
	calls   int
}

type syncOutcome struct {
	result orders.SyncResult
	err    error
}

func (f *fakeSyncer) Reconcile(ctx context.Context, spec orders.FilterSpec) (orders.SyncResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.calls
	f.calls++
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	return f.results[i].result, f.results[i].err
}

func (f *fakeSyncer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// blockingSyncer holds the reconcile call until released, so tests can
// interleave other operations with an in-flight background sync.
type blockingSyncer struct {
	release chan struct{}
	result  orders.SyncResult
}

func (b *blockingSyncer) Reconcile(ctx context.Context, _ orders.FilterSpec) (orders.SyncResult, error) {
	select {
	case <-b.release:
	case <-ctx.Done():
		return orders.SyncResult{}, ctx.Err()
	}
	return b.result, nil
}

type fakeWriter struct {
	mu        sync.Mutex
	editErr   error
	procErr   error
	edits     []orders.ItemPatch
	processed []orders.EnrichedItem
}

func (f *fakeWriter) EditItem(ctx context.Context, patch orders.ItemPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.editErr != nil {
		return f.editErr
	}
	f.edits = append(f.edits, patch)
	return nil
}

func (f *fakeWriter) ProcessItem(ctx context.Context, item orders.EnrichedItem) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.procErr != nil {
		return f.procErr
	}
	f.processed = append(f.processed, item)
	return nil
}

type staticReader struct {
	mu    sync.Mutex
	items []orders.LineItem
	err   error
}

func (r *staticReader) FindCurrent(ctx context.Context) ([]orders.LineItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	return r.items, nil
}

func (r *staticReader) set(items []orders.LineItem) {
	r.mu.Lock()
	r.items = items
	r.mu.Unlock()
}

// ---------------------------------------------------------------------------
// Harness
// ---------------------------------------------------------------------------

type harness struct {
	store  cache.Store
	local  *staticReader
	syncer *fakeSyncer
	writer *fakeWriter
	engine *Orchestrator
}

func newHarness(t *testing.T, syncer *fakeSyncer) *harness {
	t.Helper()
	store := cache.NewMemoryStore()
	local := &staticReader{}
	writer := &fakeWriter{}
	enricher := newTestEnricher(&fakeCatalog{}, &fakeHistory{})
	poller := NewPoller(local, zap.NewNop(),
		WithPollInterval(time.Millisecond),
		WithPollTimeout(250*time.Millisecond),
	)
	engine := NewOrchestrator(store, local, syncer, writer, writer, enricher, poller, zap.NewNop())
	return &harness{store: store, local: local, syncer: syncer, writer: writer, engine: engine}
}

func wireItems(prefix string, n int) []orders.LineItem {
	items := make([]orders.LineItem, n)
	for i := range items {
		items[i] = orders.LineItem{
			OrderNumber: fmt.Sprintf("%s-%d", prefix, i),
			SKU:         fmt.Sprintf("SKU-%d", i),
			Quantity:    1,
			OrderDate:   time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC),
			Status:      orders.StatusOpen,
		}
	}
	return items
}

func immediate(n int) syncOutcome {
	return syncOutcome{result: orders.SyncResult{Items: wireItems("P", n)}}
}

func started() syncOutcome {
	return syncOutcome{result: orders.SyncResult{Started: true}}
}

func failed() syncOutcome {
	return syncOutcome{err: fmt.Errorf("%w: gateway timeout", orders.ErrRemoteUnavailable)}
}

// wideOpenFilters keeps every test item inside the active window.
func wideOpenFilters(t *testing.T, h *harness) {
	t.Helper()
	err := h.store.SetFilters(context.Background(), orders.FilterSpec{
		DateFrom: "2026-01-01", DateTo: "2026-12-31",
	})
	require.NoError(t, err)
}

// ---------------------------------------------------------------------------
// Refresh
// ---------------------------------------------------------------------------

func TestRefresh_ColdCacheImmediateResult(t *testing.T) {
	h := newHarness(t, &fakeSyncer{results: []syncOutcome{immediate(8)}})
	wideOpenFilters(t, h)

	view, err := h.engine.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceRemote, view.Source)
	assert.Len(t, view.Items, 8)
	assert.Equal(t, 8, view.Metrics.TotalOrders)
	assert.Empty(t, view.SyncError)

	// The full set landed in the durable store.
	cached, err := h.store.Items(context.Background())
	require.NoError(t, err)
	assert.Len(t, cached, 8)
}

func TestRefresh_ColdCacheBackgroundJob(t *testing.T) {
	// Scenario: the remote accepts the job; rows land in the local store a
	// few polls later and the poller publishes once the count settles.
	h := newHarness(t, &fakeSyncer{results: []syncOutcome{started()}})
	wideOpenFilters(t, h)

	go func() {
		time.Sleep(5 * time.Millisecond)
		h.local.set(wireItems("P", 12))
	}()

	view, err := h.engine.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, view.Source)
	assert.Len(t, view.Items, 12)
}

func TestRefresh_ColdCacheRemoteFailureFallsBackToLocal(t *testing.T) {
	h := newHarness(t, &fakeSyncer{results: []syncOutcome{failed()}})
	wideOpenFilters(t, h)
	h.local.set(wireItems("P", 4))

	view, err := h.engine.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceLocal, view.Source)
	assert.Len(t, view.Items, 4)
	assert.NotEmpty(t, view.SyncError)
}

func TestRefresh_AllTiersFailServesEmpty(t *testing.T) {
	h := newHarness(t, &fakeSyncer{results: []syncOutcome{failed()}})
	wideOpenFilters(t, h)
	h.local.err = errors.New("database unreachable")

	view, err := h.engine.Refresh(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceEmpty, view.Source)
	assert.Empty(t, view.Items)
	assert.NotEmpty(t, view.SyncError)
}

func TestRefresh_WarmCachePublishesImmediatelyThenSyncs(t *testing.T) {
	h := newHarness(t, &fakeSyncer{results: []syncOutcome{immediate(50)}})
	wideOpenFilters(t, h)

	// Seed the cache with a previous full set.
	enricher := newTestEnricher(&fakeCatalog{}, &fakeHistory{})
	seeded := enricher.Enrich(context.Background(), wireItems("P", 50))
	require.NoError(t, h.store.SetSnapshot(context.Background(), seeded, orders.Aggregate(seeded)))

	view, err := h.engine.Refresh(context.Background())
	require.NoError(t, err)
	// The warm path serves cached data without waiting for the sync.
	assert.Equal(t, SourceCache, view.Source)
	assert.Len(t, view.Items, 50)

	h.engine.Wait()
	assert.Equal(t, 1, h.syncer.callCount())
	assert.Equal(t, SourceRemote, h.engine.View().Source)
}

func TestRefresh_PollTimeoutServesLocalRows(t *testing.T) {
	// The background job never settles; after the ceiling the engine serves
	// the authoritative local read instead of erroring.
	h := newHarness(t, &fakeSyncer{results: []syncOutcome{started()}})
	wideOpenFilters(t, h)

	view, err := h.engine.Refresh(context.Background())
	require.NoError(t, err)
	assert.Empty(t, view.Items)
	assert.NotEmpty(t, view.SyncError)
}

// ---------------------------------------------------------------------------
// Monotonic-progress guard
// ---------------------------------------------------------------------------

func TestSync_SmallerResultDiscarded(t *testing.T) {
	// Scenario: 50 items cached, the next sync returns 0 items. The cached
	// set must survive and the view must record the problem.
	h := newHarness(t, &fakeSyncer{results: []syncOutcome{immediate(0)}})
	wideOpenFilters(t, h)

	enricher := newTestEnricher(&fakeCatalog{}, &fakeHistory{})
	seeded := enricher.Enrich(context.Background(), wireItems("P", 50))
	require.NoError(t, h.store.SetSnapshot(context.Background(), seeded, orders.Aggregate(seeded)))

	_, err := h.engine.Refresh(context.Background())
	require.NoError(t, err)
	h.engine.Wait()

	cached, err := h.store.Items(context.Background())
	require.NoError(t, err)
	assert.Len(t, cached, 50, "cached set must not shrink")

	view := h.engine.View()
	assert.Len(t, view.Items, 50)
	assert.NotEmpty(t, view.SyncError)
}

func TestSync_EqualOrLargerResultAccepted(t *testing.T) {
	h := newHarness(t, &fakeSyncer{results: []syncOutcome{immediate(60)}})
	wideOpenFilters(t, h)

	enricher := newTestEnricher(&fakeCatalog{}, &fakeHistory{})
	seeded := enricher.Enrich(context.Background(), wireItems("OLD", 50))
	require.NoError(t, h.store.SetSnapshot(context.Background(), seeded, orders.Aggregate(seeded)))

	_, err := h.engine.Refresh(context.Background())
	require.NoError(t, err)
	h.engine.Wait()

	cached, err := h.store.Items(context.Background())
	require.NoError(t, err)
	assert.Len(t, cached, 60)
}

func TestSync_LandsUnderNewerFilters(t *testing.T) {
	// A filter change while a background sync is in flight must not be
	// reverted when the sync publishes: the view assembles under the
	// filters active at publish time, not at refresh time.
	store := cache.NewMemoryStore()
	local := &staticReader{}
	writer := &fakeWriter{}
	enricher := newTestEnricher(&fakeCatalog{}, &fakeHistory{})
	poller := NewPoller(local, zap.NewNop(),
		WithPollInterval(time.Millisecond),
		WithPollTimeout(250*time.Millisecond),
	)
	syncer := &blockingSyncer{
		release: make(chan struct{}),
		result:  orders.SyncResult{Items: wireItems("P", 50)},
	}
	engine := NewOrchestrator(store, local, syncer, writer, writer, enricher, poller, zap.NewNop())

	ctx := context.Background()
	require.NoError(t, store.SetFilters(ctx, orders.FilterSpec{
		DateFrom: "2026-01-01", DateTo: "2026-12-31",
	}))
	seeded := enricher.Enrich(ctx, wireItems("P", 50))
	require.NoError(t, store.SetSnapshot(ctx, seeded, orders.Aggregate(seeded)))

	// Warm refresh: cached view served, sync parked on the channel.
	view, err := engine.Refresh(ctx)
	require.NoError(t, err)
	assert.Len(t, view.Items, 50)

	search := "sku-42"
	view, err = engine.UpdateFilters(ctx, orders.FilterPatch{Search: &search})
	require.NoError(t, err)
	require.Len(t, view.Items, 1)

	close(syncer.release)
	engine.Wait()

	final := engine.View()
	assert.Equal(t, "sku-42", final.Filters.Search, "published view must keep the newer filters")
	assert.Len(t, final.Items, 1)

	persisted, ok, err := store.Filters(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sku-42", persisted.Search)
}

// ---------------------------------------------------------------------------
// Filters
// ---------------------------------------------------------------------------

func TestUpdateFilters_LocalOnly(t *testing.T) {
	h := newHarness(t, &fakeSyncer{results: []syncOutcome{immediate(10)}})
	wideOpenFilters(t, h)

	_, err := h.engine.Refresh(context.Background())
	require.NoError(t, err)
	h.engine.Wait()
	callsAfterRefresh := h.syncer.callCount()

	search := "sku-3"
	view, err := h.engine.UpdateFilters(context.Background(), orders.FilterPatch{Search: &search})
	require.NoError(t, err)
	assert.Len(t, view.Items, 1)
	assert.Equal(t, "sku-3", view.Filters.Search)
	// Filtering must never reach out to the remote.
	assert.Equal(t, callsAfterRefresh, h.syncer.callCount())

	// The spec survives in the store for the next start.
	persisted, ok, err := h.store.Filters(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "sku-3", persisted.Search)
}

func TestUpdateFilters_MetricsFollowFilteredSet(t *testing.T) {
	h := newHarness(t, &fakeSyncer{results: []syncOutcome{immediate(10)}})
	wideOpenFilters(t, h)

	_, err := h.engine.Refresh(context.Background())
	require.NoError(t, err)
	h.engine.Wait()

	search := "SKU-5"
	view, err := h.engine.UpdateFilters(context.Background(), orders.FilterPatch{Search: &search})
	require.NoError(t, err)
	assert.Equal(t, 1, view.Metrics.TotalOrders)
	assert.Equal(t, 1, view.Metrics.TotalItems)
}

func TestClearFilters_ResetsToCurrentMonth(t *testing.T) {
	h := newHarness(t, &fakeSyncer{results: []syncOutcome{immediate(3)}})
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	h.engine.now = func() time.Time { return now }
	wideOpenFilters(t, h)

	view, err := h.engine.ClearFilters(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01", view.Filters.DateFrom)
	assert.Equal(t, "2026-03-31", view.Filters.DateTo)
	assert.Empty(t, view.Filters.Search)
	assert.Empty(t, view.Filters.Statuses)
}

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

func TestEditItem_DelegatesThenRefreshes(t *testing.T) {
	h := newHarness(t, &fakeSyncer{results: []syncOutcome{immediate(5)}})
	wideOpenFilters(t, h)

	notes := "leave at reception"
	view, err := h.engine.EditItem(context.Background(), orders.ItemPatch{
		OrderNumber: "P-1", SKU: "SKU-1", Notes: &notes,
	})
	require.NoError(t, err)
	require.Len(t, h.writer.edits, 1)
	assert.Equal(t, "P-1", h.writer.edits[0].OrderNumber)
	assert.Len(t, view.Items, 5)
}

func TestEditItem_InvalidPatchNeverReachesRemote(t *testing.T) {
	h := newHarness(t, &fakeSyncer{results: []syncOutcome{immediate(5)}})

	_, err := h.engine.EditItem(context.Background(), orders.ItemPatch{OrderNumber: "P-1", SKU: "SKU-1"})
	assert.ErrorIs(t, err, orders.ErrValidation)
	assert.Empty(t, h.writer.edits)
	assert.Zero(t, h.syncer.callCount())
}

func TestEditItem_RemoteRejectionLeavesCacheUntouched(t *testing.T) {
	h := newHarness(t, &fakeSyncer{results: []syncOutcome{immediate(5)}})
	wideOpenFilters(t, h)
	h.writer.editErr = fmt.Errorf("%w: status transition not allowed", orders.ErrValidation)

	enricher := newTestEnricher(&fakeCatalog{}, &fakeHistory{})
	seeded := enricher.Enrich(context.Background(), wireItems("P", 5))
	require.NoError(t, h.store.SetSnapshot(context.Background(), seeded, orders.Aggregate(seeded)))

	notes := "x"
	_, err := h.engine.EditItem(context.Background(), orders.ItemPatch{
		OrderNumber: "P-1", SKU: "SKU-1", Notes: &notes,
	})
	assert.ErrorIs(t, err, orders.ErrValidation)

	cached, cerr := h.store.Items(context.Background())
	require.NoError(t, cerr)
	assert.Len(t, cached, 5)
}

func TestProcessItem_RejectsUnavailableLine(t *testing.T) {
	h := newHarness(t, &fakeSyncer{results: []syncOutcome{immediate(5)}})

	item := orders.EnrichedItem{
		LineItem:   orders.LineItem{OrderNumber: "P-1", SKU: "SKU-1", Quantity: 1},
		Multiplier: 1,
		Processed:  true,
	}
	_, err := h.engine.ProcessItem(context.Background(), item)
	assert.ErrorIs(t, err, orders.ErrValidation)
	assert.Empty(t, h.writer.processed)
}

func TestProcessItem_DebitsThenRefreshes(t *testing.T) {
	h := newHarness(t, &fakeSyncer{results: []syncOutcome{immediate(5)}})
	wideOpenFilters(t, h)

	item := orders.EnrichedItem{
		LineItem:       orders.LineItem{OrderNumber: "P-1", SKU: "SKU-1", Quantity: 2},
		KitSKU:         "KIT-X",
		Multiplier:     2,
		HasMapping:     true,
		ProductFound:   true,
		QuantityOnHand: 10,
	}
	view, err := h.engine.ProcessItem(context.Background(), item)
	require.NoError(t, err)
	require.Len(t, h.writer.processed, 1)
	assert.Equal(t, "KIT-X", h.writer.processed[0].KitSKU)
	assert.Len(t, view.Items, 5)
}
