package service

import "fmt"

const (
	// SalesNormCeiling 90 天销售额归一化上限
	SalesNormCeiling = 5_000_000

	// 资格门槛
	MinEligibilityScore = 40
	MinSales90d         = 100_000
	MaxReturnRate       = 15

	// FreezeRiskScore 风险分达到该值即冻结
	FreezeRiskScore = 70

	// 邀约条款
	MinOfferAmount      = 50_000
	RepaymentPercentage = 15
	OfferFeeRate        = 0.08

	// 可贷额度 = 90 天销售额 * 30% * 信任系数
	advanceRate = 0.3

	// FinancingWindowDays 评估窗口
	FinancingWindowDays = 90
)

// FinancingSignals 店铺融资评估输入
type FinancingSignals struct {
	Sales90d        float64
	Orders90d       int64
	ReturnedOrders  int64 // 90 天内发生退货申请的订单数
	RiskScore       float64
	CompletedOrders int64 // 历史已完成订单数
}

// FinancingAssessment 融资评估结果
type FinancingAssessment struct {
	ReturnRate        float64
	ReputationScore   float64
	SalesNorm         float64
	EligibilityScore  int
	TrustMultiplier   float64
	MaxEligibleAmount float64
	PassesGate        bool
	IsFrozen          bool
	FrozenReason      string
	IsEligible        bool
}

// TrustMultiplier 按历史完成订单数给出信任系数
func TrustMultiplier(completedOrders int64) float64 {
	switch {
	case completedOrders > 100:
		return 1.2
	case completedOrders > 50:
		return 1.0
	case completedOrders > 20:
		return 0.9
	default:
		return 0.8
	}
}

// ComputeFinancing 计算融资资格
func ComputeFinancing(s FinancingSignals) FinancingAssessment {
	a := FinancingAssessment{
		ReturnRate:      roundTo(percent(float64(s.ReturnedOrders), float64(s.Orders90d)), 2),
		ReputationScore: 100 - s.RiskScore,
		SalesNorm:       clamp(s.Sales90d/SalesNormCeiling*100, 0, 100),
		TrustMultiplier: TrustMultiplier(s.CompletedOrders),
	}

	a.EligibilityScore = int(roundHalfUp(
		0.4*a.SalesNorm + 0.3*a.ReputationScore - 0.2*s.RiskScore - 0.1*a.ReturnRate,
	))
	a.MaxEligibleAmount = roundHalfUp(s.Sales90d * advanceRate * a.TrustMultiplier)

	a.PassesGate = a.EligibilityScore >= MinEligibilityScore &&
		s.Sales90d >= MinSales90d &&
		a.ReturnRate < MaxReturnRate

	if s.RiskScore >= FreezeRiskScore {
		a.IsFrozen = true
		a.FrozenReason = fmt.Sprintf("风险分 %.0f 达到冻结阈值 %d", s.RiskScore, FreezeRiskScore)
	}

	a.IsEligible = a.PassesGate && !a.IsFrozen
	return a
}

// QualifiesForOffer 是否满足自动发放邀约的条件（不含“已有未结束邀约”的检查）
func (a FinancingAssessment) QualifiesForOffer() bool {
	return a.IsEligible && !a.IsFrozen && a.MaxEligibleAmount >= MinOfferAmount
}

// OfferTerms 由可贷额度计算邀约条款
func OfferTerms(maxEligible float64) (amount, totalRepayable float64) {
	return maxEligible, roundHalfUp(maxEligible * (1 + OfferFeeRate))
}
