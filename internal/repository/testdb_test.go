package repository

import (
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"marketplace_engine_v1/internal/model"
	"marketplace_engine_v1/pkg/database"
)

// 固定基准时间，所有测试数据都用 UTC
var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func setupRepoTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.OpenSQLiteMemory(name, model.EngineModels()...)
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func seedOrder(t *testing.T, db *gorm.DB, storeID, status string, createdAt time.Time, total float64, items ...model.OrderItem) *model.Order {
	t.Helper()

	order := &model.Order{
		StoreID:     storeID,
		Status:      status,
		TotalAmount: total,
		Currency:    "USD",
	}
	order.CreatedAt = createdAt
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("创建订单失败: %v", err)
	}
	for i := range items {
		items[i].OrderID = order.ID
		if err := db.Create(&items[i]).Error; err != nil {
			t.Fatalf("创建订单明细失败: %v", err)
		}
	}
	return order
}
