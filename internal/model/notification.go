package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ==================== 通知类型 ====================

const (
	NotificationRankingDrop      = "ranking_drop"      // 排名骤降
	NotificationLowStock         = "low_stock"         // 低库存预警
	NotificationFinancingOffer   = "financing_offer"   // 融资额度邀约
	NotificationFinancingDefault = "financing_default" // 融资违约升级
)

// MetaSubjectID 元数据中用于去重的主体 ID 键
const MetaSubjectID = "subject_id"

// Notification 店铺通知（只追加）
type Notification struct {
	ID        string            `gorm:"type:uuid;primaryKey" json:"id"`
	Type      string            `gorm:"size:64;index:idx_notification_dedup" json:"type"`
	StoreID   string            `gorm:"type:uuid;index:idx_notification_dedup" json:"store_id"`
	Title     string            `gorm:"size:255" json:"title"`
	Body      string            `gorm:"type:text" json:"body"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata"`
	IsRead    bool              `gorm:"default:false" json:"is_read"`
	CreatedAt time.Time         `gorm:"index:idx_notification_dedup" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

// SubjectID 读取元数据里的主体 ID
func (n *Notification) SubjectID() string {
	if n.Metadata == nil {
		return ""
	}
	if v, ok := n.Metadata[MetaSubjectID].(string); ok {
		return v
	}
	return ""
}

// BeforeCreate 未指定 ID 时自动生成 UUID
func (n *Notification) BeforeCreate(tx *gorm.DB) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	return nil
}
