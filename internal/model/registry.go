package model

// EngineModels 需要自动迁移的全部模型
func EngineModels() []interface{} {
	return []interface{}{
		// 平台数据（引擎只读，本地/测试环境建表用）
		&Store{}, &Product{}, &ProductEvent{}, &MarketplaceListing{}, &StockReservation{},
		&Order{}, &OrderItem{}, &ReturnRequest{},
		&RiskScore{}, &SellerRiskScore{},
		// 引擎产出
		&RankingScore{}, &InventoryMetric{},
		&FinancingScore{}, &FinancingOffer{}, &FinancingRepayment{},
		&Notification{}, &JobRun{},
	}
}
