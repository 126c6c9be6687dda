package service

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"marketplace_engine_v1/internal/model"
	"marketplace_engine_v1/internal/repository"
	"marketplace_engine_v1/pkg/database"
)

// ==================== 测试辅助 ====================

var testStart = time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)

// testEngine 基于内存 sqlite 组装的完整引擎，时钟可推进
type testEngine struct {
	db  *gorm.DB
	now time.Time

	notificationRepo repository.NotificationRepository
	rankingRepo      repository.RankingRepository
	inventoryRepo    repository.InventoryRepository
	financingRepo    repository.FinancingRepository
	listingRepo      repository.ListingRepository

	gate      *NotificationGate
	ranking   *RankingService
	inventory *InventoryService
	financing *FinancingService
	runs      *JobRunService
	engine    *EngineService
}

func setupServiceTestDB(t *testing.T) *gorm.DB {
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

func newTestEngine(t *testing.T) *testEngine {
	t.Helper()

	db := setupServiceTestDB(t)
	e := &testEngine{db: db, now: testStart}
	clock := func() time.Time { return e.now }
	logger := zerolog.Nop()

	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	riskRepo := repository.NewRiskRepository(db)
	e.notificationRepo = repository.NewNotificationRepository(db)
	e.rankingRepo = repository.NewRankingRepository(db)
	e.inventoryRepo = repository.NewInventoryRepository(db)
	e.financingRepo = repository.NewFinancingRepository(db)
	e.listingRepo = repository.NewListingRepository(db)

	e.gate = NewNotificationGate(e.notificationRepo, DefaultDedupWindow, logger).WithClock(clock)
	e.ranking = NewRankingService(
		productRepo, orderRepo, repository.NewAnalyticsRepository(db), riskRepo, e.rankingRepo,
		e.gate, 2, logger,
	).WithClock(clock)
	e.inventory = NewInventoryService(
		productRepo, orderRepo, e.inventoryRepo, e.listingRepo,
		repository.NewReservationRepository(db), e.ranking, e.gate, 2, logger,
	).WithClock(clock)
	e.financing = NewFinancingService(
		repository.NewStoreRepository(db), orderRepo, riskRepo, e.financingRepo,
		e.gate, 2, logger,
	).WithClock(clock)
	e.runs = NewJobRunService(repository.NewJobRunRepository(db), logger).WithClock(clock)
	e.engine = NewEngineService(e.ranking, e.inventory, e.financing, e.runs)
	return e
}

func (e *testEngine) advance(d time.Duration) {
	e.now = e.now.Add(d)
}

func (e *testEngine) seedProduct(t *testing.T, storeID string, stock int, published bool, rating float64) *model.Product {
	t.Helper()

	p := &model.Product{
		StoreID:       storeID,
		Name:          "product-" + storeID[:4],
		IsPublished:   published,
		StockQuantity: stock,
		AvgRating:     rating,
	}
	if err := e.db.Create(p).Error; err != nil {
		t.Fatalf("创建商品失败: %v", err)
	}
	if published {
		listing := &model.MarketplaceListing{ProductID: p.ID, StoreID: storeID, Status: model.ListingStatusPublished}
		if err := e.db.Create(listing).Error; err != nil {
			t.Fatalf("创建上架记录失败: %v", err)
		}
	}
	return p
}

func (e *testEngine) seedOrder(t *testing.T, storeID, status string, daysAgo int, total float64, items ...model.OrderItem) *model.Order {
	t.Helper()

	order := &model.Order{StoreID: storeID, Status: status, TotalAmount: total, Currency: "XOF"}
	order.CreatedAt = e.now.AddDate(0, 0, -daysAgo)
	if err := e.db.Create(order).Error; err != nil {
		t.Fatalf("创建订单失败: %v", err)
	}
	for i := range items {
		items[i].OrderID = order.ID
		if err := e.db.Create(&items[i]).Error; err != nil {
			t.Fatalf("创建订单明细失败: %v", err)
		}
	}
	return order
}

func (e *testEngine) seedEvents(t *testing.T, productID, eventType string, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		ev := &model.ProductEvent{ProductID: productID, EventType: eventType, OccurredAt: e.now.Add(-time.Hour)}
		if err := e.db.Create(ev).Error; err != nil {
			t.Fatalf("创建埋点失败: %v", err)
		}
	}
}

func (e *testEngine) countNotifications(t *testing.T, notificationType string) int64 {
	t.Helper()

	var n int64
	if err := e.db.Model(&model.Notification{}).Where("type = ?", notificationType).Count(&n).Error; err != nil {
		t.Fatalf("统计通知失败: %v", err)
	}
	return n
}
