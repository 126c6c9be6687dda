package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketplace_engine_v1/internal/model"
)

// ==================== 接口定义 ====================

// RankingRepository 商品排名仓储接口
type RankingRepository interface {
	GetByProductID(ctx context.Context, productID string) (*model.RankingScore, error)
	// GetSnapshots 批量读取上一轮排名快照，没有记录的商品不在结果中
	GetSnapshots(ctx context.Context, productIDs []string) (map[string]model.RankingSnapshot, error)
	// Upsert 按 product_id 写入或覆盖排名
	Upsert(ctx context.Context, score *model.RankingScore) error
	// SavePenalty 写入库存惩罚结果，version 不一致（期间被重算）时不写入
	SavePenalty(ctx context.Context, productID string, expectVersion int64, score int, riskPenalty float64, at time.Time) (bool, error)
}

// ==================== 仓储实现 ====================

type rankingRepo struct {
	db *gorm.DB
}

// NewRankingRepository 创建排名仓储
func NewRankingRepository(db *gorm.DB) RankingRepository {
	return &rankingRepo{db: db}
}

func (r *rankingRepo) GetByProductID(ctx context.Context, productID string) (*model.RankingScore, error) {
	var score model.RankingScore
	if err := r.db.WithContext(ctx).First(&score, "product_id = ?", productID).Error; err != nil {
		return nil, err
	}
	return &score, nil
}

func (r *rankingRepo) GetSnapshots(ctx context.Context, productIDs []string) (map[string]model.RankingSnapshot, error) {
	out := make(map[string]model.RankingSnapshot, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	var rows []model.RankingScore
	if err := r.db.WithContext(ctx).
		Select("product_id", "score", "is_trending", "version", "last_calculated_at").
		Where("product_id IN ?", productIDs).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for i := range rows {
		out[rows[i].ProductID] = rows[i].Snapshot()
	}
	return out, nil
}

func (r *rankingRepo) Upsert(ctx context.Context, score *model.RankingScore) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "product_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"store_id", "score",
			"sales_weight", "conversion_score", "rating_score",
			"seller_sla_score", "return_rate_score", "risk_penalty",
			"previous_score", "is_trending", "version",
			"last_calculated_at", "updated_at",
		}),
	}).Create(score).Error
}

func (r *rankingRepo) SavePenalty(ctx context.Context, productID string, expectVersion int64, score int, riskPenalty float64, at time.Time) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&model.RankingScore{}).
		Where("product_id = ? AND version = ?", productID, expectVersion).
		Updates(map[string]interface{}{
			"score":             score,
			"risk_penalty":      riskPenalty,
			"penalized_at":      at,
			"penalized_version": expectVersion,
			"updated_at":        at,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
