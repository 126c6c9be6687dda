package model

// ==================== 店铺状态常量 ====================

const (
	StoreStatusActive    = "active"    // 正常营业
	StoreStatusSuspended = "suspended" // 暂停
	StoreStatusClosed    = "closed"    // 已关闭
)

// Store 店铺（卖家租户）
// 由店铺管理子系统维护，引擎只读
type Store struct {
	BaseModel
	OwnerID  string `gorm:"type:uuid;index" json:"owner_id"`
	Name     string `gorm:"size:255" json:"name"`
	Slug     string `gorm:"size:255;index" json:"slug"`
	Status   string `gorm:"size:20;index;default:active" json:"status"`
	IsBanned bool   `gorm:"default:false;index" json:"is_banned"`
}

func (Store) TableName() string {
	return "stores"
}
