package orders

import "github.com/shopspring/decimal"

// ---------------------------------------------------------------------------
// MetricsSnapshot
// ---------------------------------------------------------------------------

// MetricsSnapshot summarizes the filtered, enriched item set. Always
// derivable from cached data without remote access; recomputed after every
// cache update and written together with the item set.
type MetricsSnapshot struct {
	// TotalOrders counts distinct order numbers
	TotalOrders int `json:"total_orders"`
	// TotalItems counts line items
	TotalItems int `json:"total_items"`
	// TotalValue sums line totals. Order-level freight/discount is therefore
	// counted once per line on multi-line orders; kept as the source systems
	// report it.
	TotalValue decimal.Decimal `json:"total_value"`

	// Distinct-order counts per status bucket.
	PendingOrders   int `json:"pending_orders"`
	ApprovedOrders  int `json:"approved_orders"`
	ShippedOrders   int `json:"shipped_orders"`
	DeliveredOrders int `json:"delivered_orders"`
}

// statusBuckets groups canonical statuses into the dashboard buckets. Uses
// the same canonical vocabulary as filtering.
var statusBuckets = map[Status]string{
	StatusOpen:        "pending",
	StatusApproved:    "approved",
	StatusPreparing:   "approved",
	StatusInvoiced:    "approved",
	StatusReadyToShip: "approved",
	StatusShipped:     "shipped",
	StatusDelivered:   "delivered",
}

// Aggregate reduces the filtered+enriched set to a snapshot. Pure function.
func Aggregate(items []EnrichedItem) MetricsSnapshot {
	snapshot := MetricsSnapshot{
		TotalItems: len(items),
		TotalValue: decimal.Zero,
	}

	seen := make(map[string]bool, len(items))
	bucketSeen := make(map[string]map[string]bool, 4)

	for _, item := range items {
		snapshot.TotalValue = snapshot.TotalValue.Add(item.LineTotal)

		if seen[item.OrderNumber] {
			continue
		}
		seen[item.OrderNumber] = true
		snapshot.TotalOrders++

		bucket, ok := statusBuckets[item.Status]
		if !ok {
			continue
		}
		if bucketSeen[bucket] == nil {
			bucketSeen[bucket] = make(map[string]bool)
		}
		bucketSeen[bucket][item.OrderNumber] = true
	}

	snapshot.PendingOrders = len(bucketSeen["pending"])
	snapshot.ApprovedOrders = len(bucketSeen["approved"])
	snapshot.ShippedOrders = len(bucketSeen["shipped"])
	snapshot.DeliveredOrders = len(bucketSeen["delivered"])
	return snapshot
}
