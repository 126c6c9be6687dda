package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"marketplace_engine_v1/internal/model"
)

func TestComputeInventory(t *testing.T) {
	tests := []struct {
		name       string
		signals    InventorySignals
		wantDays   float64
		wantStatus string
		wantGrowth float64
	}{
		{
			name:       "无销量返回哨兵值",
			signals:    InventorySignals{Stock: 20},
			wantDays:   model.NoStockoutRisk,
			wantStatus: model.StockStatusHealthy,
			wantGrowth: 0,
		},
		{
			name:       "恰好 7 天为 warning",
			signals:    InventorySignals{Stock: 7, Sales7d: 7, Sales30d: 30, SalesPrev30d: 30},
			wantDays:   7,
			wantStatus: model.StockStatusWarning,
			wantGrowth: 0,
		},
		{
			name:       "恰好 3 天为 low",
			signals:    InventorySignals{Stock: 3, Sales7d: 7, Sales30d: 30, SalesPrev30d: 30},
			wantDays:   3,
			wantStatus: model.StockStatusLow,
			wantGrowth: 0,
		},
		{
			name:       "不足 3 天为 critical",
			signals:    InventorySignals{Stock: 2, Sales7d: 7, Sales30d: 30, SalesPrev30d: 15},
			wantDays:   2,
			wantStatus: model.StockStatusCritical,
			wantGrowth: 100,
		},
		{
			name:       "零库存为 out_of_stock",
			signals:    InventorySignals{Stock: 0, Sales7d: 7, Sales30d: 30},
			wantDays:   0,
			wantStatus: model.StockStatusOutOfStock,
			wantGrowth: 100,
		},
		{
			name:       "充足库存",
			signals:    InventorySignals{Stock: 100, Sales7d: 7, Sales30d: 30, SalesPrev30d: 60},
			wantDays:   100,
			wantStatus: model.StockStatusHealthy,
			wantGrowth: -50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ComputeInventory(tt.signals)
			assert.InDelta(t, tt.wantDays, f.DaysUntilStockout, 0.0001)
			assert.Equal(t, tt.wantStatus, f.StockStatus)
			assert.InDelta(t, tt.wantGrowth, f.GrowthRate, 0.0001)
		})
	}
}

func TestComputeInventory_Forecast(t *testing.T) {
	// avg = 0.6*(14/7) + 0.4*(30/30) = 1.6
	f := ComputeInventory(InventorySignals{Stock: 8, Sales7d: 14, Sales30d: 30, SalesPrev30d: 10})

	assert.InDelta(t, 1.6, f.AvgDailySales, 0.0001)
	assert.InDelta(t, 48, f.Forecast30d, 0.0001)
	assert.InDelta(t, 5, f.DaysUntilStockout, 0.0001)
	assert.Equal(t, 72, f.RecommendedStock)
	assert.InDelta(t, 200, f.GrowthRate, 0.0001)
	assert.True(t, f.IsHighDemand)
	assert.Equal(t, model.StockStatusLow, f.StockStatus)
	assert.True(t, f.NeedsLowStockAlert())
	assert.False(t, f.NeedsRankingPenalty())
}

func TestInventoryForecast_Flags(t *testing.T) {
	tests := []struct {
		name        string
		signals     InventorySignals
		wantAlert   bool
		wantPenalty bool
		wantHigh    bool
	}{
		{"高需求且严重缺货", InventorySignals{Stock: 1, Sales7d: 7, Sales30d: 10}, true, true, true},
		{"严重缺货但销量不足 5", InventorySignals{Stock: 1, Sales7d: 4, Sales30d: 4}, true, false, false},
		{"零库存不发低库存提醒", InventorySignals{Stock: 0, Sales7d: 7, Sales30d: 10}, false, false, true},
		{"哨兵值不发提醒", InventorySignals{Stock: 5}, false, false, false},
		{"增长不足 50%", InventorySignals{Stock: 1, Sales7d: 7, Sales30d: 14, SalesPrev30d: 10}, true, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := ComputeInventory(tt.signals)
			assert.Equal(t, tt.wantAlert, f.NeedsLowStockAlert())
			assert.Equal(t, tt.wantPenalty, f.NeedsRankingPenalty())
			assert.Equal(t, tt.wantHigh, f.IsHighDemand)
		})
	}
}
