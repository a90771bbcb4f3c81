// Package orders contains the synchronization engine: enrichment, background
// reconciliation polling and the fetch orchestrator that owns the local view.
package orders

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/orderdesk/backend/internal/domain/orders"
	"github.com/orderdesk/backend/internal/infrastructure/cache"
)

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

// ViewSource names which tier produced the current view.
type ViewSource string

const (
	// SourceCache means the view was served from the durable local cache
	SourceCache ViewSource = "cache"
	// SourceRemote means the view came from an immediate remote payload
	SourceRemote ViewSource = "remote"
	// SourceLocal means the view came from the authoritative local read
	SourceLocal ViewSource = "local"
	// SourceEmpty means every tier failed and the view is empty
	SourceEmpty ViewSource = "empty"
)

// View is the read model served to the interface layer: the cached set after
// filtering, plus metrics aggregated over that filtered set. SyncError is
// informational; published data is never cleared by a failed sync.
type View struct {
	Items     []orders.EnrichedItem  `json:"items"`
	Metrics   orders.MetricsSnapshot `json:"metrics"`
	Filters   orders.FilterSpec      `json:"filters"`
	Source    ViewSource             `json:"source"`
	Loading   bool                   `json:"loading"`
	SyncedAt  time.Time              `json:"synced_at"`
	SyncError string                 `json:"sync_error,omitempty"`
}

// SyncObserver receives engine-level measurements. Implemented by the
// telemetry package; a nil observer disables recording.
type SyncObserver interface {
	ObserveSync(ctx context.Context, outcome string, duration time.Duration)
	ObservePublish(ctx context.Context, items int)
}

// ---------------------------------------------------------------------------
// Orchestrator
// ---------------------------------------------------------------------------

// Orchestrator coordinates refreshes between the remote reconciliation
// procedure, the authoritative local read and the durable cache. It is the
// single writer of the cache store; concurrent refreshes are serialized by
// generation: every sync may still publish, but only results at least as
// large as the cached set survive the monotonic-progress guard.
type Orchestrator struct {
	store     cache.Store
	local     orders.LineItemReader
	syncer    orders.RemoteSyncer
	editor    orders.OrderEditor
	processor orders.ItemProcessor
	enricher  *Enricher
	poller    *Poller
	logger    *zap.Logger
	observer  SyncObserver
	now       func() time.Time

	generation atomic.Int64
	wg         sync.WaitGroup
	publishMu  sync.Mutex

	mu      sync.RWMutex
	current View
}

// OrchestratorOption customizes an Orchestrator.
type OrchestratorOption func(*Orchestrator)

// WithObserver attaches a telemetry observer.
func WithObserver(o SyncObserver) OrchestratorOption {
	return func(orc *Orchestrator) { orc.observer = o }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(orc *Orchestrator) { orc.now = now }
}

// NewOrchestrator wires the engine together.
func NewOrchestrator(
	store cache.Store,
	local orders.LineItemReader,
	syncer orders.RemoteSyncer,
	editor orders.OrderEditor,
	processor orders.ItemProcessor,
	enricher *Enricher,
	poller *Poller,
	logger *zap.Logger,
	opts ...OrchestratorOption,
) *Orchestrator {
	orc := &Orchestrator{
		store:     store,
		local:     local,
		syncer:    syncer,
		editor:    editor,
		processor: processor,
		enricher:  enricher,
		poller:    poller,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(orc)
	}
	return orc
}

// View returns the current read model.
func (o *Orchestrator) View() View {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.current
}

// Wait blocks until all background syncs launched so far finish. Used by
// shutdown and tests; new refreshes may still start afterwards.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// ---------------------------------------------------------------------------
// Refresh
// ---------------------------------------------------------------------------

// Refresh is the entry-point load. Warm cache: the cached view is published
// immediately and a sync runs in the background. Cold cache: the caller
// blocks on the tiered load (remote, then local, then empty).
func (o *Orchestrator) Refresh(ctx context.Context) (View, error) {
	spec, err := o.activeFilters(ctx)
	if err != nil {
		return View{}, err
	}

	cached, err := o.store.Items(ctx)
	if err != nil {
		o.logger.Warn("Cache read failed on refresh", zap.Error(err))
	}

	gen := o.generation.Add(1)

	if len(cached) > 0 {
		view := o.assemble(cached, spec, SourceCache, false, "")
		o.setView(view)
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			// Detached from the request context: the background sync
			// outlives the HTTP request that triggered it.
			o.sync(context.WithoutCancel(ctx), gen, spec)
		}()
		return view, nil
	}

	o.setView(o.assemble(nil, spec, SourceEmpty, true, ""))
	o.sync(ctx, gen, spec)
	return o.View(), nil
}

// sync runs one full reconciliation pass and publishes through the guard.
func (o *Orchestrator) sync(ctx context.Context, gen int64, spec orders.FilterSpec) {
	start := o.now()
	result, err := o.syncer.Reconcile(ctx, spec)
	switch {
	case err != nil:
		o.observe(ctx, "remote_failed", o.now().Sub(start))
		o.logger.Warn("Remote reconciliation failed, falling back to local read", zap.Error(err))
		o.fallbackLocal(ctx, gen, err.Error())

	case result.Started:
		o.logger.Info("Remote reconciliation started in background, awaiting settle")
		items, perr := o.poller.Await(ctx)
		if perr != nil {
			o.observe(ctx, "poll_cancelled", o.now().Sub(start))
			return
		}
		if items == nil {
			// Poll ceiling reached. Serve whatever the local store has;
			// the next refresh will pick up late-landing rows.
			o.observe(ctx, "poll_timeout", o.now().Sub(start))
			o.fallbackLocal(ctx, gen, "background job did not finish in time")
			return
		}
		o.observe(ctx, "poll_settled", o.now().Sub(start))
		o.publish(ctx, gen, o.enricher.Enrich(ctx, items), SourceLocal, "")

	default:
		o.observe(ctx, "immediate", o.now().Sub(start))
		o.publish(ctx, gen, o.enricher.Enrich(ctx, result.Items), SourceRemote, "")
	}
}

// fallbackLocal serves the authoritative local read, keeping the cached view
// on failure. syncErr is recorded on the view either way.
func (o *Orchestrator) fallbackLocal(ctx context.Context, gen int64, syncErr string) {
	items, err := o.local.FindCurrent(ctx)
	if err != nil {
		o.logger.Error("Authoritative local read failed", zap.Error(err))
		o.markError(ctx, syncErr)
		return
	}
	o.publish(ctx, gen, o.enricher.Enrich(ctx, items), SourceLocal, syncErr)
}

// ---------------------------------------------------------------------------
// Publish
// ---------------------------------------------------------------------------

// publish writes the full enriched set through the monotonic-progress guard:
// a result strictly smaller than the cached set is treated as a suspected
// partial snapshot and discarded. Serialized so read-compare-write is atomic
// across concurrent generations. The active filter spec is re-loaded here
// rather than threaded from the triggering refresh, so a sync that lands
// after a filter change assembles the view under the newer filters.
func (o *Orchestrator) publish(
	ctx context.Context,
	gen int64,
	items []orders.EnrichedItem,
	source ViewSource,
	syncErr string,
) {
	o.publishMu.Lock()
	defer o.publishMu.Unlock()

	spec := o.currentFilters(ctx)

	cached, err := o.store.Items(ctx)
	if err != nil {
		o.logger.Warn("Cache read failed during publish", zap.Error(err))
	}
	if len(items) < len(cached) {
		o.logger.Warn("Discarding suspected partial sync result",
			zap.Int("incoming", len(items)),
			zap.Int("cached", len(cached)),
			zap.Int64("generation", gen),
		)
		if syncErr == "" {
			syncErr = "sync returned fewer rows than cached; kept previous data"
		}
		o.markError(ctx, syncErr)
		return
	}

	// Metrics are stored over the full set; the view recomputes both over
	// the filtered subset so the numbers always describe what is on screen.
	if err := o.store.SetSnapshot(ctx, items, orders.Aggregate(items)); err != nil {
		o.logger.Error("Cache write failed", zap.Error(err))
	}
	if o.observer != nil {
		o.observer.ObservePublish(ctx, len(items))
	}
	o.setView(o.assemble(items, spec, source, false, syncErr))
	o.logger.Info("Published view",
		zap.Int("items", len(items)),
		zap.String("source", string(source)),
		zap.Int64("generation", gen),
	)
}

// markError re-publishes the cached data under the active filters with the
// sync error recorded, never clearing items.
func (o *Orchestrator) markError(ctx context.Context, syncErr string) {
	spec := o.currentFilters(ctx)
	cached, err := o.store.Items(ctx)
	if err != nil {
		o.logger.Warn("Cache read failed while recording sync error", zap.Error(err))
	}
	source := SourceCache
	if len(cached) == 0 {
		source = SourceEmpty
	}
	o.setView(o.assemble(cached, spec, source, false, syncErr))
}

// currentFilters is activeFilters with the read error degraded to the
// default window, for paths that must still publish something.
func (o *Orchestrator) currentFilters(ctx context.Context) orders.FilterSpec {
	spec, err := o.activeFilters(ctx)
	if err != nil {
		o.logger.Warn("Filter read failed, using default window", zap.Error(err))
		return orders.DefaultFilterSpec(o.now())
	}
	return spec
}

// assemble derives the read model from a full enriched set: filter, then
// aggregate over the filtered subset.
func (o *Orchestrator) assemble(items []orders.EnrichedItem, spec orders.FilterSpec, source ViewSource, loading bool, syncErr string) View {
	filtered := orders.ApplyFilter(items, spec)
	return View{
		Items:     filtered,
		Metrics:   orders.Aggregate(filtered),
		Filters:   spec,
		Source:    source,
		Loading:   loading,
		SyncedAt:  o.now(),
		SyncError: syncErr,
	}
}

func (o *Orchestrator) setView(v View) {
	o.mu.Lock()
	o.current = v
	o.mu.Unlock()
}

func (o *Orchestrator) observe(ctx context.Context, outcome string, d time.Duration) {
	if o.observer != nil {
		o.observer.ObserveSync(ctx, outcome, d)
	}
}

// ---------------------------------------------------------------------------
// Filters
// ---------------------------------------------------------------------------

// activeFilters loads the persisted filter spec, falling back to the default
// current-month window.
func (o *Orchestrator) activeFilters(ctx context.Context) (orders.FilterSpec, error) {
	spec, ok, err := o.store.Filters(ctx)
	if err != nil {
		return orders.FilterSpec{}, err
	}
	if !ok {
		spec = orders.DefaultFilterSpec(o.now())
	}
	return spec, nil
}

// UpdateFilters merges a partial filter change, persists it and re-derives
// the view from the cached set. Purely local; no remote call is made.
func (o *Orchestrator) UpdateFilters(ctx context.Context, patch orders.FilterPatch) (View, error) {
	spec, err := o.activeFilters(ctx)
	if err != nil {
		return View{}, err
	}
	return o.applyFilters(ctx, spec.Merge(patch))
}

// ClearFilters resets to the default current-month window.
func (o *Orchestrator) ClearFilters(ctx context.Context) (View, error) {
	return o.applyFilters(ctx, orders.DefaultFilterSpec(o.now()))
}

func (o *Orchestrator) applyFilters(ctx context.Context, spec orders.FilterSpec) (View, error) {
	if err := o.store.SetFilters(ctx, spec); err != nil {
		return View{}, err
	}
	cached, err := o.store.Items(ctx)
	if err != nil {
		return View{}, err
	}
	source := SourceCache
	if len(cached) == 0 {
		source = SourceEmpty
	}
	view := o.assemble(cached, spec, source, false, "")
	o.setView(view)
	return view, nil
}

// ---------------------------------------------------------------------------
// Writes
// ---------------------------------------------------------------------------

// EditItem forwards an order-line edit to the collaborator API and, on
// success, refreshes so the change becomes visible. A failed edit leaves the
// cache untouched.
func (o *Orchestrator) EditItem(ctx context.Context, patch orders.ItemPatch) (View, error) {
	if err := patch.Validate(); err != nil {
		return o.View(), err
	}
	if err := o.editor.EditItem(ctx, patch); err != nil {
		return o.View(), err
	}
	return o.Refresh(ctx)
}

// ProcessItem debits inventory for a line via the collaborator API, then
// refreshes. Lines already processed are rejected before the remote call.
func (o *Orchestrator) ProcessItem(ctx context.Context, item orders.EnrichedItem) (View, error) {
	if item.Availability() != orders.AvailabilityAvailable {
		return o.View(), orders.ErrValidation
	}
	if err := o.processor.ProcessItem(ctx, item); err != nil {
		return o.View(), err
	}
	return o.Refresh(ctx)
}
