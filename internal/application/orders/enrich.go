package orders

import (
	"context"

	"go.uber.org/zap"

	"github.com/orderdesk/backend/internal/domain/catalog"
	"github.com/orderdesk/backend/internal/domain/orders"
)

// ---------------------------------------------------------------------------
// Enricher
// ---------------------------------------------------------------------------

// Enricher joins raw line items with SKU mappings, inventory products and
// processing history. Each auxiliary set is loaded exactly once per pass,
// regardless of item count.
type Enricher struct {
	mappings catalog.SkuMappingReader
	products catalog.ProductReader
	history  catalog.ProcessingRecordReader
	logger   *zap.Logger
}

// NewEnricher creates an enricher over the three auxiliary readers.
func NewEnricher(
	mappings catalog.SkuMappingReader,
	products catalog.ProductReader,
	history catalog.ProcessingRecordReader,
	logger *zap.Logger,
) *Enricher {
	return &Enricher{
		mappings: mappings,
		products: products,
		history:  history,
		logger:   logger,
	}
}

type processingKey struct {
	orderNumber string
	sku         string
}

// Enrich joins items against the auxiliary sets. If any auxiliary read fails
// the pass degrades to pass-through enrichment (raw SKU, multiplier 1, no
// inventory data) rather than failing: stale-but-visible beats an error page.
func (e *Enricher) Enrich(ctx context.Context, items []orders.LineItem) []orders.EnrichedItem {
	mappings, products, history, ok := e.loadAuxiliary(ctx)

	enriched := make([]orders.EnrichedItem, 0, len(items))
	for _, item := range items {
		out := orders.EnrichedItem{
			LineItem:   item,
			KitSKU:     item.SKU,
			Multiplier: 1,
		}
		if ok {
			e.apply(&out, mappings, products, history)
		}
		enriched = append(enriched, out)
	}
	return enriched
}

// apply resolves kit SKU and multiplier with processing-record precedence
// over active mappings, then joins inventory on the resolved kit SKU.
func (e *Enricher) apply(
	out *orders.EnrichedItem,
	mappings map[string]catalog.SkuMapping,
	products map[string]catalog.Product,
	history map[processingKey]catalog.ProcessingRecord,
) {
	// A processing record freezes the kit SKU and multiplier that were
	// actually used at debit time; mapping edits made afterwards do not
	// rewrite history.
	if record, found := history[processingKey{out.OrderNumber, out.SKU}]; found {
		out.Processed = record.Debited()
		if record.KitSKU != "" {
			out.KitSKU = record.KitSKU
			out.HasMapping = true
		}
		if record.Multiplier > 0 {
			out.Multiplier = record.Multiplier
		}
	} else if mapping, found := mappings[out.SKU]; found {
		out.KitSKU = mapping.KitSKU
		out.Multiplier = mapping.Multiplier
		out.HasMapping = true
	}

	if product, found := products[out.KitSKU]; found {
		out.ProductName = product.Name
		out.ProductCategory = product.Category
		out.QuantityOnHand = product.QuantityOnHand
		out.ProductFound = true
	}
}

func (e *Enricher) loadAuxiliary(ctx context.Context) (
	map[string]catalog.SkuMapping,
	map[string]catalog.Product,
	map[processingKey]catalog.ProcessingRecord,
	bool,
) {
	mappingRows, err := e.mappings.FindActive(ctx)
	if err != nil {
		e.logger.Warn("Enrichment degraded: mapping read failed", zap.Error(err))
		return nil, nil, nil, false
	}
	productRows, err := e.products.FindAll(ctx)
	if err != nil {
		e.logger.Warn("Enrichment degraded: inventory read failed", zap.Error(err))
		return nil, nil, nil, false
	}
	historyRows, err := e.history.FindAll(ctx)
	if err != nil {
		e.logger.Warn("Enrichment degraded: processing-history read failed", zap.Error(err))
		return nil, nil, nil, false
	}

	mappings := make(map[string]catalog.SkuMapping, len(mappingRows))
	for _, m := range mappingRows {
		if m.IsActive {
			mappings[m.OrderSKU] = m
		}
	}
	products := make(map[string]catalog.Product, len(productRows))
	for _, p := range productRows {
		products[p.SKU] = p
	}
	history := make(map[processingKey]catalog.ProcessingRecord, len(historyRows))
	for _, r := range historyRows {
		history[processingKey{r.OrderNumber, r.SKU}] = r
	}
	return mappings, products, history, true
}
