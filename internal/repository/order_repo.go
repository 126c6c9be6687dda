package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// TimeWindow 时间窗口 [From, To)，零值表示不限
type TimeWindow struct {
	From time.Time
	To   time.Time
}

// Trailing 截至 now 的最近 days 天
func Trailing(now time.Time, days int) TimeWindow {
	return TimeWindow{From: now.AddDate(0, 0, -days), To: now}
}

// Between 距今 [fromDays, toDays) 天前的窗口，如 Between(now, 60, 30) 为第 31-60 天
func Between(now time.Time, fromDaysAgo, toDaysAgo int) TimeWindow {
	return TimeWindow{From: now.AddDate(0, 0, -fromDaysAgo), To: now.AddDate(0, 0, -toDaysAgo)}
}

func (w TimeWindow) apply(db *gorm.DB, column string) *gorm.DB {
	if !w.From.IsZero() {
		db = db.Where(column+" >= ?", w.From)
	}
	if !w.To.IsZero() {
		db = db.Where(column+" < ?", w.To)
	}
	return db
}

// ==================== OrderRepository 订单聚合 ====================

// OrderRepository 订单聚合查询（引擎不修改订单）
type OrderRepository interface {
	// SumUnitsByProduct 按商品汇总销量，statuses 为空表示不限状态
	SumUnitsByProduct(ctx context.Context, productIDs []string, statuses []string, w TimeWindow) (map[string]int64, error)
	// SumTotalByStore 店铺订单总额
	SumTotalByStore(ctx context.Context, storeID string, statuses []string, w TimeWindow) (float64, error)
	// CountByStore 店铺订单数
	CountByStore(ctx context.Context, storeID string, statuses []string, w TimeWindow) (int64, error)
	// CountReturnedOrders 窗口内下单且发起过退货申请的订单数
	CountReturnedOrders(ctx context.Context, storeID string, w TimeWindow) (int64, error)
}

type orderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) SumUnitsByProduct(ctx context.Context, productIDs []string, statuses []string, w TimeWindow) (map[string]int64, error) {
	out := make(map[string]int64, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}

	type row struct {
		ProductID string
		Units     int64
	}
	var rows []row

	query := r.db.WithContext(ctx).
		Table("order_items AS oi").
		Select("oi.product_id AS product_id, COALESCE(SUM(oi.quantity), 0) AS units").
		Joins("JOIN orders o ON o.id = oi.order_id").
		Where("oi.product_id IN ?", productIDs)
	if len(statuses) > 0 {
		query = query.Where("o.status IN ?", statuses)
	}
	query = w.apply(query, "o.created_at")

	if err := query.Group("oi.product_id").Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, rw := range rows {
		out[rw.ProductID] = rw.Units
	}
	return out, nil
}

func (r *orderRepository) SumTotalByStore(ctx context.Context, storeID string, statuses []string, w TimeWindow) (float64, error) {
	var total float64

	query := r.db.WithContext(ctx).
		Table("orders").
		Select("COALESCE(SUM(total_amount), 0)").
		Where("store_id = ?", storeID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	query = w.apply(query, "created_at")

	err := query.Scan(&total).Error
	return total, err
}

func (r *orderRepository) CountByStore(ctx context.Context, storeID string, statuses []string, w TimeWindow) (int64, error) {
	var count int64

	query := r.db.WithContext(ctx).
		Table("orders").
		Where("store_id = ?", storeID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	query = w.apply(query, "created_at")

	err := query.Count(&count).Error
	return count, err
}

func (r *orderRepository) CountReturnedOrders(ctx context.Context, storeID string, w TimeWindow) (int64, error) {
	var count int64

	query := r.db.WithContext(ctx).
		Table("return_requests AS rr").
		Select("COUNT(DISTINCT rr.order_id)").
		Joins("JOIN orders o ON o.id = rr.order_id").
		Where("o.store_id = ?", storeID)
	query = w.apply(query, "o.created_at")

	err := query.Scan(&count).Error
	return count, err
}
