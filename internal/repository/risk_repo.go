package repository

import (
	"context"

	"gorm.io/gorm"

	"marketplace_engine_v1/internal/model"
)

// RiskRepository 外部风控信号（只读）
type RiskRepository interface {
	// ListStoreRisks 批量读取店铺风险记录，缺失的店铺不在结果中
	ListStoreRisks(ctx context.Context, storeIDs []string) (map[string]model.RiskScore, error)
	// GetSellerRisk 读取卖家融资风险分，不存在返回 gorm.ErrRecordNotFound
	GetSellerRisk(ctx context.Context, storeID string) (*model.SellerRiskScore, error)
}

type riskRepo struct {
	db *gorm.DB
}

// NewRiskRepository 创建风控仓储
func NewRiskRepository(db *gorm.DB) RiskRepository {
	return &riskRepo{db: db}
}

func (r *riskRepo) ListStoreRisks(ctx context.Context, storeIDs []string) (map[string]model.RiskScore, error) {
	out := make(map[string]model.RiskScore, len(storeIDs))
	if len(storeIDs) == 0 {
		return out, nil
	}

	var rows []model.RiskScore
	if err := r.db.WithContext(ctx).Where("store_id IN ?", storeIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	for _, rs := range rows {
		out[rs.StoreID] = rs
	}
	return out, nil
}

func (r *riskRepo) GetSellerRisk(ctx context.Context, storeID string) (*model.SellerRiskScore, error) {
	var risk model.SellerRiskScore
	if err := r.db.WithContext(ctx).First(&risk, "store_id = ?", storeID).Error; err != nil {
		return nil, err
	}
	return &risk, nil
}
