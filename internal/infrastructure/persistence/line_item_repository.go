package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/orderdesk/backend/internal/domain/orders"
	"github.com/orderdesk/backend/internal/infrastructure/persistence/models"
)

// GormLineItemRepository implements orders.LineItemReader using GORM.
// This is the authoritative local data source the polling reconciler
// re-reads while a remote sync job runs.
type GormLineItemRepository struct {
	db *gorm.DB
}

// NewGormLineItemRepository creates a new GormLineItemRepository
func NewGormLineItemRepository(db *gorm.DB) *GormLineItemRepository {
	return &GormLineItemRepository{db: db}
}

// FindCurrent returns the joined item+order rows, newest orders first,
// capped at orders.MaxLocalReadRows.
func (r *GormLineItemRepository) FindCurrent(ctx context.Context) ([]orders.LineItem, error) {
	var rows []models.LineItemRow
	err := r.db.WithContext(ctx).
		Table("order_items").
		Select(`order_items.order_number, order_items.sku, order_items.description,
			order_items.quantity, order_items.unit_price, order_items.line_total,
			orders.customer, orders.ship_city, orders.ship_state,
			orders.order_date, orders.expected_date, orders.status,
			orders.tracking_code, orders.tracking_url, orders.notes,
			orders.source_account`).
		Joins("JOIN orders ON orders.number = order_items.order_number").
		Order("orders.order_date DESC, order_items.line_total DESC").
		Limit(orders.MaxLocalReadRows).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	items := make([]orders.LineItem, len(rows))
	for i, row := range rows {
		items[i] = row.ToDomain()
	}
	return items, nil
}

var _ orders.LineItemReader = (*GormLineItemRepository)(nil)
