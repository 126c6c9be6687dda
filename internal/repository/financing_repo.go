package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"marketplace_engine_v1/internal/model"
)

// ==================== 接口定义 ====================

// FinancingRepository 卖家融资仓储接口
type FinancingRepository interface {
	// 评分
	GetScore(ctx context.Context, storeID string) (*model.FinancingScore, error)
	UpsertScore(ctx context.Context, score *model.FinancingScore) error

	// 邀约
	GetOffer(ctx context.Context, id string) (*model.FinancingOffer, error)
	CreateOffer(ctx context.Context, offer *model.FinancingOffer) error
	// SaveOffer 按 revision 写回，读取后已被修改时不写入并返回 false
	SaveOffer(ctx context.Context, offer *model.FinancingOffer) (bool, error)
	HasOpenOffer(ctx context.Context, storeID string) (bool, error)
	ListOffers(ctx context.Context, filter OfferFilter) ([]model.FinancingOffer, error)

	// 还款
	// SaveRepayment 同一事务内写入还款流水并按 revision 写回邀约，规则同 SaveOffer
	SaveRepayment(ctx context.Context, offer *model.FinancingOffer, repayment *model.FinancingRepayment) (bool, error)
	SumRepayments(ctx context.Context, offerID string, w TimeWindow) (float64, int64, error)
}

// OfferFilter 邀约过滤条件
type OfferFilter struct {
	StoreID  string
	Statuses []model.OfferStatus
}

// ==================== 仓储实现 ====================

// errStaleOffer 事务内用于回滚，不对外暴露
var errStaleOffer = errors.New("stale financing offer")

type financingRepo struct {
	db *gorm.DB
}

// NewFinancingRepository 创建融资仓储
func NewFinancingRepository(db *gorm.DB) FinancingRepository {
	return &financingRepo{db: db}
}

func (r *financingRepo) GetScore(ctx context.Context, storeID string) (*model.FinancingScore, error) {
	var score model.FinancingScore
	if err := r.db.WithContext(ctx).First(&score, "store_id = ?", storeID).Error; err != nil {
		return nil, err
	}
	return &score, nil
}

func (r *financingRepo) UpsertScore(ctx context.Context, score *model.FinancingScore) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "store_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"sales90d", "return_rate", "risk_score", "reputation_score", "completed_orders",
			"eligibility_score", "trust_multiplier", "max_eligible_amount", "is_eligible",
			"is_frozen", "frozen_reason",
			"last_calculated_at", "updated_at",
		}),
	}).Create(score).Error
}

func (r *financingRepo) GetOffer(ctx context.Context, id string) (*model.FinancingOffer, error) {
	var offer model.FinancingOffer
	if err := r.db.WithContext(ctx).First(&offer, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *financingRepo) CreateOffer(ctx context.Context, offer *model.FinancingOffer) error {
	return r.db.WithContext(ctx).Create(offer).Error
}

func (r *financingRepo) SaveOffer(ctx context.Context, offer *model.FinancingOffer) (bool, error) {
	return saveOffer(r.db.WithContext(ctx), offer)
}

func (r *financingRepo) HasOpenOffer(ctx context.Context, storeID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.FinancingOffer{}).
		Where("store_id = ? AND status IN ?", storeID, model.OpenOfferStatuses()).
		Count(&count).Error
	return count > 0, err
}

func (r *financingRepo) ListOffers(ctx context.Context, filter OfferFilter) ([]model.FinancingOffer, error) {
	var offers []model.FinancingOffer

	query := r.db.WithContext(ctx).Model(&model.FinancingOffer{})
	if filter.StoreID != "" {
		query = query.Where("store_id = ?", filter.StoreID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}

	err := query.Order("offered_at ASC").Find(&offers).Error
	return offers, err
}

func (r *financingRepo) SaveRepayment(ctx context.Context, offer *model.FinancingOffer, repayment *model.FinancingRepayment) (bool, error) {
	expect := offer.Revision

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		applied, err := saveOffer(tx, offer)
		if err != nil {
			return err
		}
		if !applied {
			return errStaleOffer
		}
		return tx.Create(repayment).Error
	})
	if errors.Is(err, errStaleOffer) {
		return false, nil
	}
	if err != nil {
		offer.Revision = expect
		return false, err
	}
	return true, nil
}

// SumRepayments 返回窗口内还款总额与笔数
func (r *financingRepo) SumRepayments(ctx context.Context, offerID string, w TimeWindow) (float64, int64, error) {
	var result struct {
		Total float64
		Cnt   int64
	}

	query := r.db.WithContext(ctx).
		Model(&model.FinancingRepayment{}).
		Select("COALESCE(SUM(amount), 0) AS total, COUNT(*) AS cnt").
		Where("offer_id = ?", offerID)
	query = w.apply(query, "paid_at")

	if err := query.Scan(&result).Error; err != nil {
		return 0, 0, err
	}
	return result.Total, result.Cnt, nil
}

// saveOffer 全字段写回，条件为 id 与读取时的 revision
func saveOffer(tx *gorm.DB, offer *model.FinancingOffer) (bool, error) {
	expect := offer.Revision
	offer.Revision = expect + 1

	result := tx.Model(offer).
		Where("revision = ?", expect).
		Select("*").
		Omit("id", "created_at").
		Updates(offer)
	if result.Error != nil || result.RowsAffected == 0 {
		offer.Revision = expect
		return false, result.Error
	}
	return true, nil
}
