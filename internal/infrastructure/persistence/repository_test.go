package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/orderdesk/backend/internal/domain/orders"
	"github.com/orderdesk/backend/internal/infrastructure/persistence/models"
)

// ---------------------------------------------------------------------------
// SQLite fixtures
// ---------------------------------------------------------------------------

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewSQLiteDatabase(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.DB.AutoMigrate(
		&models.OrderModel{},
		&models.OrderItemModel{},
		&models.SkuMappingModel{},
		&models.ProductModel{},
		&models.ProcessingRecordModel{},
	))
	t.Cleanup(func() { _ = db.Close() })
	return db.DB
}

func seedOrder(t *testing.T, db *gorm.DB, number string, date time.Time, status string, lines ...models.OrderItemModel) {
	t.Helper()
	require.NoError(t, db.Create(&models.OrderModel{
		Number:    number,
		Customer:  "Customer " + number,
		OrderDate: date,
		Status:    status,
	}).Error)
	for i := range lines {
		lines[i].OrderNumber = number
		require.NoError(t, db.Create(&lines[i]).Error)
	}
}

// ---------------------------------------------------------------------------
// LineItemRepository
// ---------------------------------------------------------------------------

func TestGormLineItemRepository_FindCurrent(t *testing.T) {
	db := newTestDB(t)
	older := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	seedOrder(t, db, "P-1", older, "aberto",
		models.OrderItemModel{SKU: "SKU-A", Quantity: 2, UnitPrice: decimal.NewFromInt(5), LineTotal: decimal.NewFromInt(10)},
	)
	seedOrder(t, db, "P-2", newer, "enviado",
		models.OrderItemModel{SKU: "SKU-B", Quantity: 1, UnitPrice: decimal.NewFromInt(7), LineTotal: decimal.NewFromInt(7)},
		models.OrderItemModel{SKU: "SKU-C", Quantity: 3, UnitPrice: decimal.NewFromInt(20), LineTotal: decimal.NewFromInt(60)},
	)

	repo := NewGormLineItemRepository(db)
	items, err := repo.FindCurrent(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 3)

	// Newest order first; within an order, larger line totals first.
	assert.Equal(t, "P-2", items[0].OrderNumber)
	assert.Equal(t, "SKU-C", items[0].SKU)
	assert.Equal(t, "SKU-B", items[1].SKU)
	assert.Equal(t, "P-1", items[2].OrderNumber)

	// Order-level fields are denormalized onto each line.
	assert.Equal(t, "Customer P-2", items[0].Customer)
	assert.Equal(t, orders.StatusShipped, items[0].Status)
	assert.True(t, items[0].LineTotal.Equal(decimal.NewFromInt(60)))
}

func TestGormLineItemRepository_EmptyDatabase(t *testing.T) {
	repo := NewGormLineItemRepository(newTestDB(t))
	items, err := repo.FindCurrent(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestGormLineItemRepository_AppliesRowCap(t *testing.T) {
	// The cap is part of the query, not post-filtering; assert on the SQL.
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)

	mock.ExpectQuery(`(?s)SELECT .+ FROM "order_items" JOIN orders ON orders\.number = order_items\.order_number.+ORDER BY orders\.order_date DESC, order_items\.line_total DESC.+LIMIT \$1`).
		WithArgs(orders.MaxLocalReadRows).
		WillReturnRows(sqlmock.NewRows([]string{"order_number", "sku"}))

	_, err = NewGormLineItemRepository(db).FindCurrent(context.Background())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ---------------------------------------------------------------------------
// Catalog repositories
// ---------------------------------------------------------------------------

func TestGormSkuMappingRepository_FindActive(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&models.SkuMappingModel{OrderSKU: "SKU-A", KitSKU: "KIT-X", Multiplier: 2, IsActive: true}).Error)
	require.NoError(t, db.Create(&models.SkuMappingModel{OrderSKU: "SKU-B", KitSKU: "KIT-Y", Multiplier: 1, IsActive: false}).Error)

	mappings, err := NewGormSkuMappingRepository(db).FindActive(context.Background())
	require.NoError(t, err)
	require.Len(t, mappings, 1)
	assert.Equal(t, "SKU-A", mappings[0].OrderSKU)
	assert.Equal(t, "KIT-X", mappings[0].KitSKU)
	assert.Equal(t, int64(2), mappings[0].Multiplier)
}

func TestGormProductRepository_FindAll(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&models.ProductModel{SKU: "KIT-X", Name: "Kit X", Category: "kits", QuantityOnHand: 42}).Error)

	products, err := NewGormProductRepository(db).FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, int64(42), products[0].QuantityOnHand)
}

func TestGormProcessingRecordRepository_FindAll(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Create(&models.ProcessingRecordModel{
		OrderNumber: "P-1", SKU: "SKU-A", Status: "baixado", KitSKU: "KIT-X", Multiplier: 2,
	}).Error)

	records, err := NewGormProcessingRecordRepository(db).FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.True(t, records[0].Debited())
	assert.Equal(t, "KIT-X", records[0].KitSKU)
}
