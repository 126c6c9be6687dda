package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"marketplace_engine_v1/internal/model"
)

// NotificationRepository 通知仓储（只追加）
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	// FindRecent 查找 since 之后同类型、同主体的通知，不存在返回 nil
	FindRecent(ctx context.Context, notificationType, subjectID string, since time.Time) (*model.Notification, error)
}

type notificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepository 创建通知仓储
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepo) FindRecent(ctx context.Context, notificationType, subjectID string, since time.Time) (*model.Notification, error) {
	var n model.Notification
	err := r.db.WithContext(ctx).
		Where("type = ? AND created_at >= ?", notificationType, since).
		Where(datatypes.JSONQuery("metadata").Equals(subjectID, model.MetaSubjectID)).
		Order("created_at DESC").
		First(&n).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}
