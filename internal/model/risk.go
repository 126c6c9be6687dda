package model

import "time"

// DefaultRiskScore 风控记录缺失时的默认风险分
const DefaultRiskScore = 50.0

// RiskScore 店铺风险信号（排名使用）
// 由外部风控系统维护，0-100，越高越危险
type RiskScore struct {
	StoreID       string    `gorm:"type:uuid;primaryKey" json:"store_id"`
	Score         float64   `json:"score"`
	SLACompliance *float64  `json:"sla_compliance"` // 履约达标率，空则按 100-score 推算
	UpdatedAt     time.Time `json:"updated_at"`
}

func (RiskScore) TableName() string {
	return "risk_scores"
}

// SLAScore 卖家履约分
func (r *RiskScore) SLAScore() float64 {
	if r.SLACompliance != nil {
		return *r.SLACompliance
	}
	return 100 - r.Score
}

// SellerRiskScore 卖家风险分（融资使用）
type SellerRiskScore struct {
	StoreID   string    `gorm:"type:uuid;primaryKey" json:"store_id"`
	RiskScore float64   `json:"risk_score"`
	RiskLevel string    `gorm:"size:20" json:"risk_level"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (SellerRiskScore) TableName() string {
	return "seller_risk_scores"
}
