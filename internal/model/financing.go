package model

import "time"

// FinancingScore 卖家融资资格评分（每店铺一行）
type FinancingScore struct {
	StoreID string `gorm:"type:uuid;primaryKey" json:"store_id"`

	// 输入信号
	Sales90d        float64 `gorm:"type:decimal(16,2);default:0" json:"sales_90d"`
	ReturnRate      float64 `gorm:"default:0" json:"return_rate"`
	RiskScore       float64 `json:"risk_score"`
	ReputationScore float64 `json:"reputation_score"`
	CompletedOrders int64   `gorm:"default:0" json:"completed_orders"`

	// 评分结果
	EligibilityScore  int     `gorm:"default:0" json:"eligibility_score"`
	TrustMultiplier   float64 `json:"trust_multiplier"`
	MaxEligibleAmount float64 `gorm:"type:decimal(16,2);default:0" json:"max_eligible_amount"`
	IsEligible        bool    `gorm:"default:false;index" json:"is_eligible"`

	// 冻结
	IsFrozen     bool   `gorm:"default:false" json:"is_frozen"`
	FrozenReason string `gorm:"size:255" json:"frozen_reason"`

	LastCalculatedAt time.Time `json:"last_calculated_at"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (FinancingScore) TableName() string {
	return "financing_scores"
}

// FinancingOffer 融资邀约，不会被删除
// 状态流转见 offer_state.go
type FinancingOffer struct {
	BaseModel
	StoreID string `gorm:"type:uuid;index;not null" json:"store_id"`

	// 额度与还款条款
	OfferedAmount       float64 `gorm:"type:decimal(16,2)" json:"offered_amount"`
	RepaymentPercentage float64 `json:"repayment_percentage"` // 按销售额抽成比例
	TotalRepayable      float64 `gorm:"type:decimal(16,2)" json:"total_repayable"`
	RemainingBalance    float64 `gorm:"type:decimal(16,2)" json:"remaining_balance"`

	// 还款周期
	MissedCycles    int `gorm:"default:0" json:"missed_cycles"`
	CyclesEvaluated int `gorm:"default:0" json:"cycles_evaluated"`

	// Revision 乐观锁版本，每次写回 +1
	Revision int64 `gorm:"not null;default:0" json:"revision"`

	Status      OfferStatus `gorm:"size:20;index;default:offered" json:"status"`
	OfferedAt   time.Time   `json:"offered_at"`
	ActivatedAt *time.Time  `json:"activated_at"`
	RepaidAt    *time.Time  `json:"repaid_at"`
	DefaultedAt *time.Time  `json:"defaulted_at"`
}

func (FinancingOffer) TableName() string {
	return "financing_offers"
}

// FinancingRepayment 还款流水
type FinancingRepayment struct {
	BaseModel
	OfferID string    `gorm:"type:uuid;index;not null"`
	StoreID string    `gorm:"type:uuid;index"`
	Amount  float64   `gorm:"type:decimal(16,2)"`
	PaidAt  time.Time `gorm:"index"`
}

func (FinancingRepayment) TableName() string {
	return "financing_repayments"
}
