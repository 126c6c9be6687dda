package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace_engine_v1/internal/model"
	"marketplace_engine_v1/internal/repository"
)

func TestNotificationGate_Dedup(t *testing.T) {
	db := setupServiceTestDB(t)
	repo := repository.NewNotificationRepository(db)
	ctx := context.Background()

	now := testStart
	gate := NewNotificationGate(repo, DefaultDedupWindow, zerolog.Nop()).WithClock(func() time.Time { return now })

	storeID := uuid.NewString()
	productID := uuid.NewString()
	lowStock := NotificationCandidate{
		Type:      model.NotificationLowStock,
		StoreID:   storeID,
		SubjectID: productID,
		Title:     "库存不足提醒",
		Metadata:  map[string]interface{}{"current_stock": 2},
	}

	sent, err := gate.Notify(ctx, lowStock)
	require.NoError(t, err)
	assert.True(t, sent)

	now = now.Add(3 * time.Hour)
	sent, err = gate.Notify(ctx, lowStock)
	require.NoError(t, err)
	assert.False(t, sent, "24 小时内同一商品只提醒一次")

	// 新的闸门实例没有本地缓存，只能依赖已落库的 metadata
	fresh := NewNotificationGate(repo, DefaultDedupWindow, zerolog.Nop()).WithClock(func() time.Time { return now })
	sent, err = fresh.Notify(ctx, lowStock)
	require.NoError(t, err)
	assert.False(t, sent)

	// 不同主体、不同类型互不影响
	other := lowStock
	other.SubjectID = uuid.NewString()
	sent, err = gate.Notify(ctx, other)
	require.NoError(t, err)
	assert.True(t, sent)

	drop := lowStock
	drop.Type = model.NotificationRankingDrop
	sent, err = gate.Notify(ctx, drop)
	require.NoError(t, err)
	assert.True(t, sent)

	// 窗口过后可再次提醒
	now = testStart.Add(25 * time.Hour)
	sent, err = fresh.Notify(ctx, lowStock)
	require.NoError(t, err)
	assert.True(t, sent)

	var stored []model.Notification
	require.NoError(t, db.Where("type = ?", model.NotificationLowStock).Order("created_at").Find(&stored).Error)
	require.Len(t, stored, 3)
	assert.Equal(t, productID, stored[0].SubjectID())
	// JSONMap 以 json.Number 还原数字
	assert.Equal(t, json.Number("2"), stored[0].Metadata["current_stock"])
}

func TestNotificationGate_RequiresSubject(t *testing.T) {
	db := setupServiceTestDB(t)
	gate := NewNotificationGate(repository.NewNotificationRepository(db), 0, zerolog.Nop())

	_, err := gate.Notify(context.Background(), NotificationCandidate{Type: model.NotificationLowStock})
	assert.Error(t, err)
}
