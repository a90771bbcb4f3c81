package orders

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Errors
// ---------------------------------------------------------------------------

var (
	// ErrRemoteUnavailable indicates the remote reconciliation procedure could
	// not be reached or returned an error payload. Callers recover by falling
	// back to the authoritative local read; this is never fatal.
	ErrRemoteUnavailable = errors.New("orders: remote reconciliation unavailable")
	// ErrValidation indicates an edit/process request was rejected by a
	// collaborator. Cache state is unaffected.
	ErrValidation = errors.New("orders: validation failed")
	// ErrItemNotFound indicates the referenced line item does not exist
	ErrItemNotFound = errors.New("orders: line item not found")
)

// ---------------------------------------------------------------------------
// LineItem
// ---------------------------------------------------------------------------

// LineItem is one raw product line within one order, exactly as the remote
// backend reports it. Immutable from this side except through EditItem.
type LineItem struct {
	// OrderNumber identifies the parent order
	OrderNumber string `json:"order_number"`
	// SKU is the order-line SKU as sold on the marketplace
	SKU string `json:"sku"`
	// Description is the line item description
	Description string `json:"description"`
	// Quantity is the number of units sold
	Quantity int64 `json:"quantity"`
	// UnitPrice is the price per unit
	UnitPrice decimal.Decimal `json:"unit_price"`
	// LineTotal is the total value of this line
	LineTotal decimal.Decimal `json:"line_total"`

	// Order-level fields, denormalized onto every line of the order.
	Customer     string    `json:"customer"`
	ShipCity     string    `json:"ship_city"`
	ShipState    string    `json:"ship_state"`
	OrderDate    time.Time `json:"order_date"`
	ExpectedDate time.Time `json:"expected_date"`
	Status       Status    `json:"status"`
	TrackingCode string    `json:"tracking_code"`
	TrackingURL  string    `json:"tracking_url"`
	Notes        string    `json:"notes"`

	// SourceAccount is an opaque reference to the marketplace/ERP account the
	// order came from
	SourceAccount string `json:"source_account"`
}

// Order is the order-level companion row carried alongside line items in
// remote reconciliation payloads.
type Order struct {
	Number       string          `json:"number"`
	Customer     string          `json:"customer"`
	ShipCity     string          `json:"ship_city"`
	ShipState    string          `json:"ship_state"`
	OrderDate    time.Time       `json:"order_date"`
	ExpectedDate time.Time       `json:"expected_date"`
	Status       Status          `json:"status"`
	TrackingCode string          `json:"tracking_code"`
	TrackingURL  string          `json:"tracking_url"`
	Notes        string          `json:"notes"`
	TotalValue   decimal.Decimal `json:"total_value"`
}

// ---------------------------------------------------------------------------
// EnrichedItem
// ---------------------------------------------------------------------------

// Availability classifies whether a line item can be processed against
// current inventory. Derived on demand, never persisted as authoritative.
type Availability string

const (
	// AvailabilityProcessed indicates inventory was already debited for this line
	AvailabilityProcessed Availability = "processed"
	// AvailabilityNoMapping indicates no kit SKU could be resolved
	AvailabilityNoMapping Availability = "no-mapping"
	// AvailabilityInsufficientStock indicates on-hand stock is below the required quantity
	AvailabilityInsufficientStock Availability = "insufficient-stock"
	// AvailabilityAvailable indicates the line can be processed now
	AvailabilityAvailable Availability = "available"
)

// EnrichedItem is a LineItem joined with mapping, inventory and
// processing-history data. Recomputed on every enrichment pass; the cached
// copy exists only for display.
type EnrichedItem struct {
	LineItem

	// KitSKU is the canonical inventory SKU debited for this line. Resolution
	// precedence: processing record > active mapping > the raw SKU itself.
	KitSKU string `json:"kit_sku"`
	// Multiplier is how many inventory units one sold unit consumes
	Multiplier int64 `json:"multiplier"`
	// HasMapping is false when the kit SKU fell back to the raw SKU
	HasMapping bool `json:"has_mapping"`

	ProductName     string `json:"product_name"`
	ProductCategory string `json:"product_category"`
	QuantityOnHand  int64  `json:"quantity_on_hand"`
	// ProductFound is false when no inventory record matched the kit SKU
	ProductFound bool `json:"product_found"`

	// Processed is true iff a processing record with the debited status exists
	// for this (order number, SKU) pair. Never inferred from quantities.
	Processed bool `json:"processed"`
}

// RequiredQuantity returns how many inventory units this line consumes.
func (e EnrichedItem) RequiredQuantity() int64 {
	return e.Multiplier * e.Quantity
}

// Availability classifies the line against current inventory.
func (e EnrichedItem) Availability() Availability {
	if e.Processed {
		return AvailabilityProcessed
	}
	if !e.HasMapping && !e.ProductFound {
		return AvailabilityNoMapping
	}
	if e.QuantityOnHand < e.RequiredQuantity() {
		return AvailabilityInsufficientStock
	}
	return AvailabilityAvailable
}

// ---------------------------------------------------------------------------
// ItemPatch
// ---------------------------------------------------------------------------

// ItemPatch carries the editable order-level fields for EditItem. Nil fields
// are left untouched.
type ItemPatch struct {
	OrderNumber  string  `json:"order_number"`
	SKU          string  `json:"sku"`
	Notes        *string `json:"notes,omitempty"`
	TrackingCode *string `json:"tracking_code,omitempty"`
	TrackingURL  *string `json:"tracking_url,omitempty"`
	ExpectedDate *string `json:"expected_date,omitempty"`
	Status       *string `json:"status,omitempty"`
}

// Validate checks the patch identifies a line and carries at least one change.
func (p ItemPatch) Validate() error {
	if p.OrderNumber == "" || p.SKU == "" {
		return ErrValidation
	}
	if p.Notes == nil && p.TrackingCode == nil && p.TrackingURL == nil && p.ExpectedDate == nil && p.Status == nil {
		return ErrValidation
	}
	if p.Status != nil {
		if _, ok := CanonicalStatus(*p.Status); !ok {
			return ErrValidation
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Ports
// ---------------------------------------------------------------------------

// MaxLocalReadRows caps the authoritative local read.
const MaxLocalReadRows = 5000

// LineItemReader reads the authoritative local joined item+order rows.
// Implementations cap the result at MaxLocalReadRows.
type LineItemReader interface {
	FindCurrent(ctx context.Context) ([]LineItem, error)
}

// SyncResult is the classified response of the remote reconciliation
// procedure: either an immediate payload (Items non-nil) or an acceptance
// without data (Started true).
type SyncResult struct {
	Started bool
	Items   []LineItem
	Orders  []Order
}

// RemoteSyncer invokes the remote reconciliation procedure once. Transport
// failures and explicit error payloads are reported as ErrRemoteUnavailable.
type RemoteSyncer interface {
	Reconcile(ctx context.Context, spec FilterSpec) (SyncResult, error)
}

// OrderEditor is the collaborator write API behind EditItem. Not retried
// here; the engine only re-synchronizes after the call resolves.
type OrderEditor interface {
	EditItem(ctx context.Context, patch ItemPatch) error
}

// ItemProcessor is the collaborator inventory-debit API behind ProcessItem.
type ItemProcessor interface {
	ProcessItem(ctx context.Context, item EnrichedItem) error
}
