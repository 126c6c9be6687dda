package model

import "time"

// StockStatus 库存健康状态
const (
	StockStatusHealthy    = "healthy"
	StockStatusWarning    = "warning"
	StockStatusLow        = "low"
	StockStatusCritical   = "critical"
	StockStatusOutOfStock = "out_of_stock"
)

// NoStockoutRisk 销量信号不足时的断货天数哨兵值
const NoStockoutRisk = 999.0

// InventoryMetric 商品库存预测（每商品每国家一行，CountryID 为空表示全局）
type InventoryMetric struct {
	BaseModel
	ProductID string `gorm:"type:uuid;not null;uniqueIndex:idx_inventory_product_country" json:"product_id"`
	CountryID string `gorm:"size:36;not null;default:'';uniqueIndex:idx_inventory_product_country" json:"country_id"`

	// 销量窗口
	Sales7d  int `gorm:"default:0" json:"sales_7d"`
	Sales30d int `gorm:"default:0" json:"sales_30d"`

	// 预测
	AvgDailySales     float64 `gorm:"default:0" json:"avg_daily_sales"`
	GrowthRate        float64 `gorm:"default:0" json:"growth_rate"`
	Forecast30d       float64 `gorm:"default:0" json:"forecast_30d"`
	DaysUntilStockout float64 `json:"days_until_stockout"`
	RecommendedStock  int     `gorm:"default:0" json:"recommended_stock"`

	CurrentStock int    `gorm:"default:0" json:"current_stock"`
	StockStatus  string `gorm:"size:20;index" json:"stock_status"`
	IsHighDemand bool   `gorm:"default:false" json:"is_high_demand"`

	LastCalculatedAt time.Time `json:"last_calculated_at"`
}

func (InventoryMetric) TableName() string {
	return "inventory_metrics"
}
