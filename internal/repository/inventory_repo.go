package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketplace_engine_v1/internal/model"
)

// InventoryRepository 库存预测仓储
type InventoryRepository interface {
	Get(ctx context.Context, productID, countryID string) (*model.InventoryMetric, error)
	// Upsert 按 (product_id, country_id) 写入或覆盖
	Upsert(ctx context.Context, metric *model.InventoryMetric) error
}

type inventoryRepo struct {
	db *gorm.DB
}

// NewInventoryRepository 创建库存预测仓储
func NewInventoryRepository(db *gorm.DB) InventoryRepository {
	return &inventoryRepo{db: db}
}

func (r *inventoryRepo) Get(ctx context.Context, productID, countryID string) (*model.InventoryMetric, error) {
	var metric model.InventoryMetric
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND country_id = ?", productID, countryID).
		First(&metric).Error; err != nil {
		return nil, err
	}
	return &metric, nil
}

func (r *inventoryRepo) Upsert(ctx context.Context, metric *model.InventoryMetric) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "product_id"}, {Name: "country_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"sales7d", "sales30d",
			"avg_daily_sales", "growth_rate", "forecast30d",
			"days_until_stockout", "recommended_stock",
			"current_stock", "stock_status", "is_high_demand",
			"last_calculated_at", "updated_at",
		}),
	}).Create(metric).Error
}
