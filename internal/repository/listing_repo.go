package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"marketplace_engine_v1/internal/model"
)

// ListingRepository 市场上架记录仓储
type ListingRepository interface {
	// HideByProductIDs 将已发布的上架记录隐藏，返回实际变更的行数
	HideByProductIDs(ctx context.Context, productIDs []string, reason string, at time.Time) (int64, error)
}

type listingRepo struct {
	db *gorm.DB
}

// NewListingRepository 创建上架记录仓储
func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepo{db: db}
}

func (r *listingRepo) HideByProductIDs(ctx context.Context, productIDs []string, reason string, at time.Time) (int64, error) {
	if len(productIDs) == 0 {
		return 0, nil
	}

	result := r.db.WithContext(ctx).
		Model(&model.MarketplaceListing{}).
		Where("product_id IN ?", productIDs).
		Where("status = ?", model.ListingStatusPublished).
		Updates(map[string]interface{}{
			"status":        model.ListingStatusHidden,
			"hidden_reason": reason,
			"hidden_at":     at,
			"updated_at":    at,
		})
	return result.RowsAffected, result.Error
}
