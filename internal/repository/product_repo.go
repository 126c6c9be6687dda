package repository

import (
	"context"

	"gorm.io/gorm"

	"marketplace_engine_v1/internal/model"
)

// ==================== 接口定义 ====================

// ProductRepository 商品仓储接口（只读）
type ProductRepository interface {
	List(ctx context.Context, filter ProductFilter) ([]model.Product, error)
}

// ProductFilter 商品过滤条件
// 指定 IDs 时只按 ID 取数，其余条件不生效
type ProductFilter struct {
	IDs           []string
	PublishedOnly bool
	InStockOnly   bool
}

// ==================== 仓储实现 ====================

type productRepo struct {
	db *gorm.DB
}

// NewProductRepository 创建商品仓储
func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepo{db: db}
}

func (r *productRepo) List(ctx context.Context, filter ProductFilter) ([]model.Product, error) {
	var products []model.Product

	query := r.db.WithContext(ctx).Model(&model.Product{})

	if len(filter.IDs) > 0 {
		query = query.Where("id IN ?", filter.IDs)
	} else {
		if filter.PublishedOnly {
			query = query.Where("is_published = ?", true)
		}
		if filter.InStockOnly {
			query = query.Where("stock_quantity > ?", 0)
		}
	}

	err := query.Order("id ASC").Find(&products).Error
	return products, err
}
