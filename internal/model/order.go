package model

import "time"

// ==================== 订单状态常量 ====================

const (
	OrderStatusNew       = "new"       // 新订单
	OrderStatusConfirmed = "confirmed" // 已确认
	OrderStatusPacked    = "packed"    // 已打包
	OrderStatusShipped   = "shipped"   // 已发货
	OrderStatusDelivered = "delivered" // 已签收
	OrderStatusCancelled = "cancelled" // 已取消
	OrderStatusReturned  = "returned"  // 已退货
	OrderStatusRefunded  = "refunded"  // 已退款
)

// SoldOrderStatuses 计入销量的订单状态（有效生命周期）
func SoldOrderStatuses() []string {
	return []string{
		OrderStatusNew,
		OrderStatusConfirmed,
		OrderStatusPacked,
		OrderStatusShipped,
		OrderStatusDelivered,
	}
}

// ReturnedOrderStatuses 计入退货量的订单状态
func ReturnedOrderStatuses() []string {
	return []string{OrderStatusReturned, OrderStatusRefunded}
}

// CompletedOrderStatuses 已完成（签收）的订单状态
func CompletedOrderStatuses() []string {
	return []string{OrderStatusDelivered}
}

// ==================== Order 订单主表 ====================

// Order 订单，引擎只读
type Order struct {
	BaseModel
	StoreID     string  `gorm:"type:uuid;index;not null"`
	BuyerID     string  `gorm:"type:uuid;index"`
	Status      string  `gorm:"size:32;index;default:new"`
	TotalAmount float64 `gorm:"type:decimal(14,2);default:0"`
	Currency    string  `gorm:"size:10;default:XOF"`
	CountryID   string  `gorm:"size:36;index"`

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

func (Order) TableName() string {
	return "orders"
}

// OrderItem 订单明细
type OrderItem struct {
	BaseModel
	OrderID   string  `gorm:"type:uuid;index;not null"`
	ProductID string  `gorm:"type:uuid;index;not null"`
	Quantity  int     `gorm:"default:1"`
	UnitPrice float64 `gorm:"type:decimal(14,2);default:0"`
}

func (OrderItem) TableName() string {
	return "order_items"
}

// ==================== 退货申请 ====================

const (
	ReturnStatusRequested = "requested"
	ReturnStatusApproved  = "approved"
	ReturnStatusRejected  = "rejected"
)

// ReturnRequest 退货申请
type ReturnRequest struct {
	BaseModel
	OrderID     string    `gorm:"type:uuid;index;not null"`
	StoreID     string    `gorm:"type:uuid;index;not null"`
	ProductID   string    `gorm:"type:uuid;index"`
	Quantity    int       `gorm:"default:1"`
	Status      string    `gorm:"size:20;default:requested"`
	Reason      string    `gorm:"size:255"`
	RequestedAt time.Time `gorm:"index"`
}

func (ReturnRequest) TableName() string {
	return "return_requests"
}
