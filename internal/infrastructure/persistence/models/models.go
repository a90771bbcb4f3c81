// Package models holds the GORM row types for the sync engine's local
// tables, mirrored from the remote order-management backend.
package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/orderdesk/backend/internal/domain/catalog"
	"github.com/orderdesk/backend/internal/domain/orders"
)

// OrderModel is one order header row.
type OrderModel struct {
	Number        string          `gorm:"column:number;primaryKey"`
	Customer      string          `gorm:"column:customer"`
	ShipCity      string          `gorm:"column:ship_city"`
	ShipState     string          `gorm:"column:ship_state"`
	OrderDate     time.Time       `gorm:"column:order_date"`
	ExpectedDate  time.Time       `gorm:"column:expected_date"`
	Status        string          `gorm:"column:status"`
	TrackingCode  string          `gorm:"column:tracking_code"`
	TrackingURL   string          `gorm:"column:tracking_url"`
	Notes         string          `gorm:"column:notes"`
	TotalValue    decimal.Decimal `gorm:"column:total_value;type:numeric(14,2)"`
	SourceAccount string          `gorm:"column:source_account"`
	UpdatedAt     time.Time       `gorm:"column:updated_at"`
}

// TableName returns the table name for OrderModel
func (OrderModel) TableName() string {
	return "orders"
}

// OrderItemModel is one raw line item row.
type OrderItemModel struct {
	ID          int64           `gorm:"column:id;primaryKey;autoIncrement"`
	OrderNumber string          `gorm:"column:order_number;index:idx_order_items_order_sku,unique"`
	SKU         string          `gorm:"column:sku;index:idx_order_items_order_sku,unique"`
	Description string          `gorm:"column:description"`
	Quantity    int64           `gorm:"column:quantity"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(14,2)"`
	LineTotal   decimal.Decimal `gorm:"column:line_total;type:numeric(14,2)"`
	UpdatedAt   time.Time       `gorm:"column:updated_at"`
}

// TableName returns the table name for OrderItemModel
func (OrderItemModel) TableName() string {
	return "order_items"
}

// LineItemRow is the flattened item+order row produced by the authoritative
// local read. Scanned from a join, never written.
type LineItemRow struct {
	OrderNumber   string
	SKU           string
	Description   string
	Quantity      int64
	UnitPrice     decimal.Decimal
	LineTotal     decimal.Decimal
	Customer      string
	ShipCity      string
	ShipState     string
	OrderDate     time.Time
	ExpectedDate  time.Time
	Status        string
	TrackingCode  string
	TrackingURL   string
	Notes         string
	SourceAccount string
}

// ToDomain converts the row to a domain line item.
func (r LineItemRow) ToDomain() orders.LineItem {
	return orders.LineItem{
		OrderNumber:   r.OrderNumber,
		SKU:           r.SKU,
		Description:   r.Description,
		Quantity:      r.Quantity,
		UnitPrice:     r.UnitPrice,
		LineTotal:     r.LineTotal,
		Customer:      r.Customer,
		ShipCity:      r.ShipCity,
		ShipState:     r.ShipState,
		OrderDate:     r.OrderDate,
		ExpectedDate:  r.ExpectedDate,
		Status:        orders.Status(r.Status),
		TrackingCode:  r.TrackingCode,
		TrackingURL:   r.TrackingURL,
		Notes:         r.Notes,
		SourceAccount: r.SourceAccount,
	}
}

// SkuMappingModel is one SKU mapping row.
type SkuMappingModel struct {
	ID         int64  `gorm:"column:id;primaryKey;autoIncrement"`
	OrderSKU   string `gorm:"column:order_sku;index"`
	KitSKU     string `gorm:"column:kit_sku"`
	Multiplier int64  `gorm:"column:multiplier"`
	IsActive   bool   `gorm:"column:is_active"`
}

// TableName returns the table name for SkuMappingModel
func (SkuMappingModel) TableName() string {
	return "sku_mappings"
}

// ToDomain converts the model to a domain mapping.
func (m SkuMappingModel) ToDomain() catalog.SkuMapping {
	return catalog.SkuMapping{
		OrderSKU:   m.OrderSKU,
		KitSKU:     m.KitSKU,
		Multiplier: m.Multiplier,
		IsActive:   m.IsActive,
	}
}

// ProductModel is one inventory record row.
type ProductModel struct {
	SKU            string `gorm:"column:sku;primaryKey"`
	Name           string `gorm:"column:name"`
	Category       string `gorm:"column:category"`
	QuantityOnHand int64  `gorm:"column:quantity_on_hand"`
}

// TableName returns the table name for ProductModel
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the model to a domain product.
func (m ProductModel) ToDomain() catalog.Product {
	return catalog.Product{
		SKU:            m.SKU,
		Name:           m.Name,
		Category:       m.Category,
		QuantityOnHand: m.QuantityOnHand,
	}
}

// ProcessingRecordModel is one processing-history row.
type ProcessingRecordModel struct {
	ID          int64  `gorm:"column:id;primaryKey;autoIncrement"`
	OrderNumber string `gorm:"column:order_number;index:idx_processing_order_sku,unique"`
	SKU         string `gorm:"column:sku;index:idx_processing_order_sku,unique"`
	Status      string `gorm:"column:status"`
	KitSKU      string `gorm:"column:kit_sku"`
	Multiplier  int64  `gorm:"column:multiplier"`
}

// TableName returns the table name for ProcessingRecordModel
func (ProcessingRecordModel) TableName() string {
	return "processing_records"
}

// ToDomain converts the model to a domain processing record.
func (m ProcessingRecordModel) ToDomain() catalog.ProcessingRecord {
	return catalog.ProcessingRecord{
		OrderNumber: m.OrderNumber,
		SKU:         m.SKU,
		Status:      m.Status,
		KitSKU:      m.KitSKU,
		Multiplier:  m.Multiplier,
	}
}
