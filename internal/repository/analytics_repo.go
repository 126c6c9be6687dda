package repository

import (
	"context"

	"gorm.io/gorm"
)

// AnalyticsRepository 商品行为埋点查询
type AnalyticsRepository interface {
	CountByProduct(ctx context.Context, productIDs []string, eventType string, w TimeWindow) (map[string]int64, error)
}

type analyticsRepo struct {
	db *gorm.DB
}

// NewAnalyticsRepository 创建埋点仓储
func NewAnalyticsRepository(db *gorm.DB) AnalyticsRepository {
	return &analyticsRepo{db: db}
}

func (r *analyticsRepo) CountByProduct(ctx context.Context, productIDs []string, eventType string, w TimeWindow) (map[string]int64, error) {
	out := make(map[string]int64, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	type row struct {
		ProductID string
		Total     int64
	}
	var rows []row

	query := r.db.WithContext(ctx).
		Table("product_events").
		Select("product_id, COUNT(*) AS total").
		Where("product_id IN ?", productIDs).
		Where("event_type = ?", eventType)
	query = w.apply(query, "occurred_at")

	if err := query.Group("product_id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, rw := range rows {
		out[rw.ProductID] = rw.Total
	}
	return out, nil
}
