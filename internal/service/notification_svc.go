package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"marketplace_engine_v1/internal/model"
	"marketplace_engine_v1/internal/repository"
	"marketplace_engine_v1/pkg/utils"
)

// DefaultDedupWindow 同类通知去重窗口
const DefaultDedupWindow = 24 * time.Hour

// NotificationCandidate 待发送通知
type NotificationCandidate struct {
	Type      string
	StoreID   string
	SubjectID string // 去重主体，写入 metadata.subject_id
	Title     string
	Body      string
	Metadata  map[string]interface{}
}

// NotificationGate 通知去重闸门
// 窗口内同类型、同主体的通知只落库一次；并发运行之间不加锁，极端情况下允许一条重复
type NotificationGate struct {
	repo   repository.NotificationRepository
	window time.Duration
	now    Clock
	recent *utils.TTLCache
	logger zerolog.Logger
}

// NewNotificationGate 创建通知闸门
func NewNotificationGate(repo repository.NotificationRepository, window time.Duration, logger zerolog.Logger) *NotificationGate {
	if window <= 0 {
		window = DefaultDedupWindow
	}
	return &NotificationGate{
		repo:   repo,
		window: window,
		now:    SystemClock,
		recent: utils.NewTTLCache(window),
		logger: logger.With().Str("component", "NotificationGate").Logger(),
	}
}

// WithClock 替换时钟
func (g *NotificationGate) WithClock(clock Clock) *NotificationGate {
	g.now = clock
	return g
}

// Notify 发送通知，返回是否实际落库
func (g *NotificationGate) Notify(ctx context.Context, c NotificationCandidate) (bool, error) {
	if c.Type == "" || c.SubjectID == "" {
		return false, fmt.Errorf("通知缺少 type 或 subject_id")
	}

	now := g.now()
	key := c.Type + ":" + c.SubjectID

	// 本进程内刚发过的直接拦截
	if _, ok := g.recent.Get(key, now); ok {
		return false, nil
	}

	existing, err := g.repo.FindRecent(ctx, c.Type, c.SubjectID, now.Add(-g.window))
	if err != nil {
		return false, fmt.Errorf("查询历史通知失败: %w", err)
	}
	if existing != nil {
		// 按已有通知的时间计算剩余窗口
		g.recent.Set(key, existing.ID, existing.CreatedAt)
		g.logger.Debug().
			Str("type", c.Type).
			Str("subject_id", c.SubjectID).
			Msg("窗口内已通知，跳过")
		return false, nil
	}

	meta := datatypes.JSONMap{}
	for k, v := range c.Metadata {
		meta[k] = v
	}
	meta[model.MetaSubjectID] = c.SubjectID

	n := &model.Notification{
		Type:      c.Type,
		StoreID:   c.StoreID,
		Title:     c.Title,
		Body:      c.Body,
		Metadata:  meta,
		CreatedAt: now,
	}
	if err := g.repo.Create(ctx, n); err != nil {
		return false, fmt.Errorf("写入通知失败: %w", err)
	}

	g.recent.Set(key, n.ID, now)
	g.logger.Info().
		Str("type", c.Type).
		Str("store_id", c.StoreID).
		Str("subject_id", c.SubjectID).
		Msg("通知已发送")
	return true, nil
}
