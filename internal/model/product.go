package model

import "time"

// Product 商品
// 目录子系统维护，引擎只读（库存释放除外，见 StockReservation）
type Product struct {
	BaseModel
	StoreID       string  `gorm:"type:uuid;index;not null" json:"store_id"`
	Name          string  `gorm:"size:255" json:"name"`
	IsPublished   bool    `gorm:"default:false;index" json:"is_published"`
	StockQuantity int     `gorm:"default:0" json:"stock_quantity"`
	AvgRating     float64 `gorm:"default:0" json:"avg_rating"`
	ReviewCount   int     `gorm:"default:0" json:"review_count"`
}

func (Product) TableName() string {
	return "products"
}

// ==================== 商品行为事件 ====================

// ProductEventType 行为事件类型
const (
	ProductEventPageView  = "page_view"   // 浏览
	ProductEventAddToCart = "add_to_cart" // 加购
)

// ProductEvent 商品浏览/加购埋点
type ProductEvent struct {
	BaseModel
	ProductID  string    `gorm:"type:uuid;index:idx_product_event;not null"`
	StoreID    string    `gorm:"type:uuid;index"`
	EventType  string    `gorm:"size:32;index:idx_product_event"`
	SessionID  string    `gorm:"size:64"`
	OccurredAt time.Time `gorm:"index"`
}

func (ProductEvent) TableName() string {
	return "product_events"
}

// ==================== 市场展示 ====================

// ListingStatus 市场展示状态
const (
	ListingStatusPublished = "published" // 展示中
	ListingStatusHidden    = "hidden"    // 已隐藏
	ListingStatusDraft     = "draft"     // 草稿
)

// MarketplaceListing 商品在市场的展示记录
// 自动下架只改这里，不动 products 表
type MarketplaceListing struct {
	BaseModel
	ProductID    string     `gorm:"type:uuid;uniqueIndex;not null" json:"product_id"`
	StoreID      string     `gorm:"type:uuid;index" json:"store_id"`
	Status       string     `gorm:"size:20;index;default:draft" json:"status"`
	HiddenReason string     `gorm:"size:64" json:"hidden_reason"`
	HiddenAt     *time.Time `json:"hidden_at"`
}

func (MarketplaceListing) TableName() string {
	return "marketplace_listings"
}

// ==================== 库存锁定 ====================

// ReservationStatus 库存预留状态
const (
	ReservationStatusHeld      = "held"      // 锁定中
	ReservationStatusConverted = "converted" // 已转为订单
	ReservationStatusExpired   = "expired"   // 超时释放
)

// StockReservation 结账流程的库存预留
// 锁定时已从 products.stock_quantity 扣减
type StockReservation struct {
	BaseModel
	ProductID string    `gorm:"type:uuid;index;not null"`
	SessionID string    `gorm:"size:64"`
	Quantity  int       `gorm:"default:0"`
	Status    string    `gorm:"size:20;index;default:held"`
	ExpiresAt time.Time `gorm:"index"`
}

func (StockReservation) TableName() string {
	return "stock_reservations"
}
