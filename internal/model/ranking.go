package model

import "time"

// RankingScore 商品综合排名（每个商品一行）
// 只由排名服务写入；库存服务通过 RankingPenaltyRequested 命令间接影响
type RankingScore struct {
	ProductID string `gorm:"type:uuid;primaryKey" json:"product_id"`
	StoreID   string `gorm:"type:uuid;index" json:"store_id"`

	// 综合分 0-100
	Score int `gorm:"default:0;index" json:"score"`

	// 分项得分，均已归一化到 [0,100]
	SalesWeight     float64 `gorm:"default:0" json:"sales_weight"`
	ConversionScore float64 `gorm:"default:0" json:"conversion_score"`
	RatingScore     float64 `gorm:"default:0" json:"rating_score"`
	SellerSLAScore  float64 `gorm:"default:0" json:"seller_sla_score"`
	ReturnRateScore float64 `gorm:"default:0" json:"return_rate_score"`
	RiskPenalty     float64 `gorm:"default:0" json:"risk_penalty"`

	PreviousScore int  `gorm:"default:0" json:"previous_score"`
	IsTrending    bool `gorm:"default:false" json:"is_trending"`

	// 快照版本，每次重算 +1
	Version int64 `gorm:"default:0" json:"version"`

	// 库存惩罚：PenalizedVersion 记录被扣分时的 Version，同一版本只扣一次
	PenalizedAt      *time.Time `json:"penalized_at"`
	PenalizedVersion int64      `gorm:"default:0" json:"penalized_version"`

	LastCalculatedAt time.Time `gorm:"index" json:"last_calculated_at"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (RankingScore) TableName() string {
	return "ranking_scores"
}

// RankingSnapshot 上一轮排名结果的只读快照
type RankingSnapshot struct {
	ProductID    string
	Score        int
	IsTrending   bool
	Version      int64
	CalculatedAt time.Time
}

// Snapshot 导出当前行的快照
func (r *RankingScore) Snapshot() RankingSnapshot {
	return RankingSnapshot{
		ProductID:    r.ProductID,
		Score:        r.Score,
		IsTrending:   r.IsTrending,
		Version:      r.Version,
		CalculatedAt: r.LastCalculatedAt,
	}
}

// PenaltyPending 当前版本是否还未被惩罚
func (r *RankingScore) PenaltyPending() bool {
	return r.PenalizedVersion < r.Version
}
