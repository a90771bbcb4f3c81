// Package catalog holds the auxiliary data sets the enrichment pipeline
// joins against: SKU mappings, inventory products and processing history.
// All three are read-only from this core's perspective.
package catalog

import "context"

// ---------------------------------------------------------------------------
// SkuMapping
// ---------------------------------------------------------------------------

// SkuMapping maps an order-line SKU to the canonical inventory ("kit") SKU
// actually debited when the line is processed. Many-to-one: one order-line
// SKU has at most one active mapping at a time.
type SkuMapping struct {
	// OrderSKU is the SKU as sold on the marketplace
	OrderSKU string `json:"order_sku"`
	// KitSKU is the canonical inventory SKU
	KitSKU string `json:"kit_sku"`
	// Multiplier is how many inventory units one sold unit consumes
	Multiplier int64 `json:"multiplier"`
	// IsActive indicates whether this mapping is currently in effect
	IsActive bool `json:"is_active"`
}

// SkuMappingReader returns all active mappings in one round trip.
type SkuMappingReader interface {
	FindActive(ctx context.Context) ([]SkuMapping, error)
}

// ---------------------------------------------------------------------------
// Product
// ---------------------------------------------------------------------------

// Product is an inventory record owned by an external collaborator.
type Product struct {
	SKU            string `json:"sku"`
	Name           string `json:"name"`
	Category       string `json:"category"`
	QuantityOnHand int64  `json:"quantity_on_hand"`
}

// ProductReader returns all inventory records in one round trip.
type ProductReader interface {
	FindAll(ctx context.Context) ([]Product, error)
}

// ---------------------------------------------------------------------------
// ProcessingRecord
// ---------------------------------------------------------------------------

// ProcessingStatusDebited is the canonical status literal written when a
// line's inventory has been debited.
const ProcessingStatusDebited = "baixado"

// ProcessingRecord records whether a line already had inventory debited and
// the kit SKU/multiplier used at processing time. Once present it is
// authoritative: later mapping edits must not retroactively change what was
// actually debited.
type ProcessingRecord struct {
	OrderNumber string `json:"order_number"`
	SKU         string `json:"sku"`
	Status      string `json:"status"`
	KitSKU      string `json:"kit_sku"`
	Multiplier  int64  `json:"multiplier"`
}

// Debited reports whether inventory was actually debited for this record.
func (r ProcessingRecord) Debited() bool {
	return r.Status == ProcessingStatusDebited
}

// ProcessingRecordReader returns the full processing history in one round trip.
type ProcessingRecordReader interface {
	FindAll(ctx context.Context) ([]ProcessingRecord, error)
}
