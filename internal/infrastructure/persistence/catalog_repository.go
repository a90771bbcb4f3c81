package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/orderdesk/backend/internal/domain/catalog"
	"github.com/orderdesk/backend/internal/infrastructure/persistence/models"
)

// GormSkuMappingRepository implements catalog.SkuMappingReader using GORM
type GormSkuMappingRepository struct {
	db *gorm.DB
}

// NewGormSkuMappingRepository creates a new GormSkuMappingRepository
func NewGormSkuMappingRepository(db *gorm.DB) *GormSkuMappingRepository {
	return &GormSkuMappingRepository{db: db}
}

// FindActive returns all active mappings in one query.
func (r *GormSkuMappingRepository) FindActive(ctx context.Context) ([]catalog.SkuMapping, error) {
	var rows []models.SkuMappingModel
	if err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("order_sku ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	mappings := make([]catalog.SkuMapping, len(rows))
	for i, row := range rows {
		mappings[i] = row.ToDomain()
	}
	return mappings, nil
}

// GormProductRepository implements catalog.ProductReader using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindAll returns all inventory records in one query.
func (r *GormProductRepository) FindAll(ctx context.Context) ([]catalog.Product, error) {
	var rows []models.ProductModel
	if err := r.db.WithContext(ctx).
		Order("sku ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	products := make([]catalog.Product, len(rows))
	for i, row := range rows {
		products[i] = row.ToDomain()
	}
	return products, nil
}

// GormProcessingRecordRepository implements catalog.ProcessingRecordReader using GORM
type GormProcessingRecordRepository struct {
	db *gorm.DB
}

// NewGormProcessingRecordRepository creates a new GormProcessingRecordRepository
func NewGormProcessingRecordRepository(db *gorm.DB) *GormProcessingRecordRepository {
	return &GormProcessingRecordRepository{db: db}
}

// FindAll returns the full processing history in one query.
func (r *GormProcessingRecordRepository) FindAll(ctx context.Context) ([]catalog.ProcessingRecord, error) {
	var rows []models.ProcessingRecordModel
	if err := r.db.WithContext(ctx).
		Order("order_number ASC, sku ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	records := make([]catalog.ProcessingRecord, len(rows))
	for i, row := range rows {
		records[i] = row.ToDomain()
	}
	return records, nil
}

var (
	_ catalog.SkuMappingReader       = (*GormSkuMappingRepository)(nil)
	_ catalog.ProductReader          = (*GormProductRepository)(nil)
	_ catalog.ProcessingRecordReader = (*GormProcessingRecordRepository)(nil)
)
