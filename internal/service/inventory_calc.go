package service

import (
	"math"

	"marketplace_engine_v1/internal/model"
)

const (
	// 日均销量：近 7 天权重更高
	recentWeight = 0.6
	monthWeight  = 0.4

	// ForecastDays 预测天数
	ForecastDays = 30
	// BufferDays 建议备货覆盖天数
	BufferDays = 45

	// HighDemandGrowth 高需求增长率阈值（%）
	HighDemandGrowth = 50
	// HighDemandMinSales 高需求最低 30 天销量
	HighDemandMinSales = 5

	// LowStockAlertDays 断货天数低于该值发低库存提醒
	LowStockAlertDays = 7

	// PenaltyPoints 严重缺货且高需求时的排名扣分
	PenaltyPoints = 10
	// PenaltyRiskScore 惩罚时记录的 risk_penalty
	PenaltyRiskScore = 10
)

// InventorySignals 单个商品的销量信号
type InventorySignals struct {
	Stock        int
	Sales7d      int64
	Sales30d     int64
	SalesPrev30d int64 // 第 31-60 天
}

// InventoryForecast 库存预测结果
type InventoryForecast struct {
	AvgDailySales     float64
	GrowthRate        float64
	Forecast30d       float64
	DaysUntilStockout float64
	RecommendedStock  int
	StockStatus       string
	IsHighDemand      bool
}

// ComputeInventory 计算库存预测
func ComputeInventory(s InventorySignals) InventoryForecast {
	avg := recentWeight*(float64(s.Sales7d)/7) + monthWeight*(float64(s.Sales30d)/30)

	f := InventoryForecast{
		AvgDailySales:     roundTo(avg, 2),
		Forecast30d:       roundTo(avg*ForecastDays, 2),
		DaysUntilStockout: model.NoStockoutRisk,
		// 截掉浮点尾差，避免 9.0000001 被向上取成 10
		RecommendedStock: int(math.Ceil(roundTo(avg*BufferDays, 6))),
	}

	if avg > 0 {
		f.DaysUntilStockout = roundTo(float64(s.Stock)/avg, 2)
	}

	switch {
	case s.SalesPrev30d > 0:
		f.GrowthRate = roundTo(float64(s.Sales30d-s.SalesPrev30d)/float64(s.SalesPrev30d)*100, 2)
	case s.Sales30d > 0:
		f.GrowthRate = 100
	}

	f.StockStatus = ClassifyStock(s.Stock, f.DaysUntilStockout)
	f.IsHighDemand = f.GrowthRate >= HighDemandGrowth && s.Sales30d >= HighDemandMinSales
	return f
}

// ClassifyStock 库存状态分级，按顺序取第一个命中，各档上界不含
func ClassifyStock(stock int, days float64) string {
	switch {
	case stock <= 0:
		return model.StockStatusOutOfStock
	case days < 3:
		return model.StockStatusCritical
	case days < 7:
		return model.StockStatusLow
	case days < 14:
		return model.StockStatusWarning
	default:
		return model.StockStatusHealthy
	}
}

// NeedsLowStockAlert 是否需要低库存提醒
func (f InventoryForecast) NeedsLowStockAlert() bool {
	return f.DaysUntilStockout > 0 && f.DaysUntilStockout < LowStockAlertDays
}

// NeedsRankingPenalty 严重缺货且高需求
func (f InventoryForecast) NeedsRankingPenalty() bool {
	return f.StockStatus == model.StockStatusCritical && f.IsHighDemand
}
