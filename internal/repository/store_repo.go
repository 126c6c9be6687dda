package repository

import (
	"context"

	"gorm.io/gorm"

	"marketplace_engine_v1/internal/model"
)

// ==================== 接口定义 ====================

// StoreRepository 店铺仓储接口（引擎只读）
type StoreRepository interface {
	List(ctx context.Context, filter StoreFilter) ([]model.Store, error)
}

// StoreFilter 店铺过滤条件
type StoreFilter struct {
	IDs           []string
	Status        string
	ExcludeBanned bool
}

// ==================== 仓储实现 ====================

type storeRepo struct {
	db *gorm.DB
}

// NewStoreRepository 创建店铺仓储
func NewStoreRepository(db *gorm.DB) StoreRepository {
	return &storeRepo{db: db}
}

func (r *storeRepo) List(ctx context.Context, filter StoreFilter) ([]model.Store, error) {
	var stores []model.Store

	query := r.db.WithContext(ctx).Model(&model.Store{})
	if len(filter.IDs) > 0 {
		query = query.Where("id IN ?", filter.IDs)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ExcludeBanned {
		query = query.Where("is_banned = ?", false)
	}

	err := query.Order("id ASC").Find(&stores).Error
	return stores, err
}
