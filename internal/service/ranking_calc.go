package service

import "marketplace_engine_v1/internal/model"

// ==================== 排名权重 ====================

// RankingWeights 综合分权重
type RankingWeights struct {
	Sales      float64
	Conversion float64
	Rating     float64
	SellerSLA  float64
	ReturnRate float64 // 扣分项
	Risk       float64 // 扣分项
}

// DefaultRankingWeights 默认权重
var DefaultRankingWeights = RankingWeights{
	Sales:      0.40,
	Conversion: 0.20,
	Rating:     0.15,
	SellerSLA:  0.15,
	ReturnRate: 0.05,
	Risk:       0.05,
}

const (
	// TrendingDelta 分数上涨达到该值即上榜
	TrendingDelta = 15
	// RankingDropDelta 分数下跌达到该值即通知卖家
	RankingDropDelta = -20
	// RankingWindowDays 排名统计窗口
	RankingWindowDays = 30
)

// ==================== 输入与结果 ====================

// RankingSignals 单个商品的原始信号
type RankingSignals struct {
	SoldUnits     int64
	ReturnedUnits int64
	PageViews     int64
	AddToCarts    int64
	AvgRating     float64
	SellerSLA     float64
	RiskScore     float64
}

// RankingBreakdown 归一化后的分项与综合分
type RankingBreakdown struct {
	SalesNorm      float64
	ConversionNorm float64
	RatingNorm     float64
	SLANorm        float64
	ReturnNorm     float64
	RiskNorm       float64
	Score          int
}

// ComputeRanking 计算综合分
// maxSales 为本批次商品的最大销量，销量分按批次相对值归一化
func ComputeRanking(w RankingWeights, s RankingSignals, maxSales int64) RankingBreakdown {
	b := RankingBreakdown{
		SalesNorm:      clamp(percent(float64(s.SoldUnits), float64(maxSales)), 0, 100),
		ConversionNorm: clamp(percent(float64(s.AddToCarts), float64(s.PageViews)), 0, 100),
		RatingNorm:     clamp(s.AvgRating/5*100, 0, 100),
		SLANorm:        clamp(s.SellerSLA, 0, 100),
		ReturnNorm:     clamp(percent(float64(s.ReturnedUnits), float64(s.SoldUnits+s.ReturnedUnits)), 0, 100),
		RiskNorm:       clamp(s.RiskScore, 0, 100),
	}

	raw := w.Sales*b.SalesNorm +
		w.Conversion*b.ConversionNorm +
		w.Rating*b.RatingNorm +
		w.SellerSLA*b.SLANorm -
		w.ReturnRate*b.ReturnNorm -
		w.Risk*b.RiskNorm

	b.Score = int(clamp(roundHalfUp(raw), 0, 100))
	return b
}

// NextTrending 上榜判定：大涨上榜，已上榜且未下跌则保持
func NextTrending(prev model.RankingSnapshot, delta int) bool {
	if delta >= TrendingDelta {
		return true
	}
	return prev.IsTrending && delta >= 0
}
