package dto

import (
	"time"

	"github.com/orderdesk/backend/internal/application/orders"
	domain "github.com/orderdesk/backend/internal/domain/orders"
)

// ---------------------------------------------------------------------------
// Requests
// ---------------------------------------------------------------------------

// UpdateFiltersRequest is a partial filter update. Absent fields keep their
// current value; present-but-empty fields clear.
type UpdateFiltersRequest struct {
	Search   *string   `json:"search"`
	DateFrom *string   `json:"date_from"`
	DateTo   *string   `json:"date_to"`
	Statuses *[]string `json:"statuses"`
}

// ToPatch converts the request to a domain filter patch.
func (r UpdateFiltersRequest) ToPatch() domain.FilterPatch {
	return domain.FilterPatch{
		Search:   r.Search,
		DateFrom: r.DateFrom,
		DateTo:   r.DateTo,
		Statuses: r.Statuses,
	}
}

// EditItemRequest carries an order-line edit.
type EditItemRequest struct {
	OrderNumber  string  `json:"order_number" binding:"required"`
	SKU          string  `json:"sku" binding:"required"`
	Notes        *string `json:"notes"`
	TrackingCode *string `json:"tracking_code"`
	TrackingURL  *string `json:"tracking_url"`
	ExpectedDate *string `json:"expected_date"`
	Status       *string `json:"status" binding:"omitempty,orderstatus"`
}

// ToPatch converts the request to a domain item patch.
func (r EditItemRequest) ToPatch() domain.ItemPatch {
	return domain.ItemPatch{
		OrderNumber:  r.OrderNumber,
		SKU:          r.SKU,
		Notes:        r.Notes,
		TrackingCode: r.TrackingCode,
		TrackingURL:  r.TrackingURL,
		ExpectedDate: r.ExpectedDate,
		Status:       r.Status,
	}
}

// ProcessItemRequest identifies the line to debit inventory for.
type ProcessItemRequest struct {
	OrderNumber string `json:"order_number" binding:"required"`
	SKU         string `json:"sku" binding:"required"`
}

// ---------------------------------------------------------------------------
// Responses
// ---------------------------------------------------------------------------

// ItemResponse is one enriched line item as served to the dashboard.
// Monetary values are decimal strings.
type ItemResponse struct {
	OrderNumber   string `json:"order_number"`
	SKU           string `json:"sku"`
	Description   string `json:"description"`
	Quantity      int64  `json:"quantity"`
	UnitPrice     string `json:"unit_price"`
	LineTotal     string `json:"line_total"`
	Customer      string `json:"customer"`
	ShipCity      string `json:"ship_city"`
	ShipState     string `json:"ship_state"`
	OrderDate     string `json:"order_date"`
	ExpectedDate  string `json:"expected_date,omitempty"`
	Status        string `json:"status"`
	StatusLabel   string `json:"status_label"`
	TrackingCode  string `json:"tracking_code,omitempty"`
	TrackingURL   string `json:"tracking_url,omitempty"`
	Notes         string `json:"notes,omitempty"`
	SourceAccount string `json:"source_account,omitempty"`

	KitSKU           string `json:"kit_sku"`
	Multiplier       int64  `json:"multiplier"`
	RequiredQuantity int64  `json:"required_quantity"`
	ProductName      string `json:"product_name,omitempty"`
	ProductCategory  string `json:"product_category,omitempty"`
	QuantityOnHand   int64  `json:"quantity_on_hand"`
	Processed        bool   `json:"processed"`
	Availability     string `json:"availability"`
}

// MetricsResponse mirrors the aggregated snapshot over the filtered set.
type MetricsResponse struct {
	TotalOrders     int    `json:"total_orders"`
	TotalItems      int    `json:"total_items"`
	TotalValue      string `json:"total_value"`
	PendingOrders   int    `json:"pending_orders"`
	ApprovedOrders  int    `json:"approved_orders"`
	ShippedOrders   int    `json:"shipped_orders"`
	DeliveredOrders int    `json:"delivered_orders"`
}

// ViewResponse is the full dashboard read model.
type ViewResponse struct {
	Items     []ItemResponse    `json:"items"`
	Metrics   MetricsResponse   `json:"metrics"`
	Filters   domain.FilterSpec `json:"filters"`
	Source    string            `json:"source"`
	Loading   bool              `json:"loading"`
	SyncedAt  time.Time         `json:"synced_at"`
	SyncError string            `json:"sync_error,omitempty"`
}

// NewViewResponse converts the application view.
func NewViewResponse(v orders.View) ViewResponse {
	items := make([]ItemResponse, 0, len(v.Items))
	for _, item := range v.Items {
		items = append(items, newItemResponse(item))
	}
	return ViewResponse{
		Items: items,
		Metrics: MetricsResponse{
			TotalOrders:     v.Metrics.TotalOrders,
			TotalItems:      v.Metrics.TotalItems,
			TotalValue:      v.Metrics.TotalValue.StringFixed(2),
			PendingOrders:   v.Metrics.PendingOrders,
			ApprovedOrders:  v.Metrics.ApprovedOrders,
			ShippedOrders:   v.Metrics.ShippedOrders,
			DeliveredOrders: v.Metrics.DeliveredOrders,
		},
		Filters:   v.Filters,
		Source:    string(v.Source),
		Loading:   v.Loading,
		SyncedAt:  v.SyncedAt,
		SyncError: v.SyncError,
	}
}

func newItemResponse(item domain.EnrichedItem) ItemResponse {
	resp := ItemResponse{
		OrderNumber:      item.OrderNumber,
		SKU:              item.SKU,
		Description:      item.Description,
		Quantity:         item.Quantity,
		UnitPrice:        item.UnitPrice.StringFixed(2),
		LineTotal:        item.LineTotal.StringFixed(2),
		Customer:         item.Customer,
		ShipCity:         item.ShipCity,
		ShipState:        item.ShipState,
		OrderDate:        formatDate(item.OrderDate),
		ExpectedDate:     formatDate(item.ExpectedDate),
		Status:           item.Status.String(),
		StatusLabel:      item.Status.Label(),
		TrackingCode:     item.TrackingCode,
		TrackingURL:      item.TrackingURL,
		Notes:            item.Notes,
		SourceAccount:    item.SourceAccount,
		KitSKU:           item.KitSKU,
		Multiplier:       item.Multiplier,
		RequiredQuantity: item.RequiredQuantity(),
		ProductName:      item.ProductName,
		ProductCategory:  item.ProductCategory,
		QuantityOnHand:   item.QuantityOnHand,
		Processed:        item.Processed,
		Availability:     string(item.Availability()),
	}
	return resp
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}
