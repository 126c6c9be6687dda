package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"marketplace_engine_v1/internal/model"
)

func TestNotificationRepo_FindRecent(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewNotificationRepository(db)
	ctx := context.Background()

	storeID := uuid.NewString()
	productID := uuid.NewString()

	n := &model.Notification{
		Type:      model.NotificationLowStock,
		StoreID:   storeID,
		Title:     "Low stock",
		Metadata:  datatypes.JSONMap{model.MetaSubjectID: productID, "stock": 3},
		CreatedAt: testNow.Add(-2 * time.Hour),
	}
	require.NoError(t, repo.Create(ctx, n))

	since := testNow.Add(-24 * time.Hour)

	tests := []struct {
		name      string
		typ       string
		subjectID string
		since     time.Time
		wantFound bool
	}{
		{"同类型同主体", model.NotificationLowStock, productID, since, true},
		{"不同主体", model.NotificationLowStock, uuid.NewString(), since, false},
		{"不同类型", model.NotificationRankingDrop, productID, since, false},
		{"超出时间窗口", model.NotificationLowStock, productID, testNow.Add(-time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := repo.FindRecent(ctx, tt.typ, tt.subjectID, tt.since)
			require.NoError(t, err)
			if tt.wantFound {
				require.NotNil(t, got)
				assert.Equal(t, productID, got.SubjectID())
			} else {
				assert.Nil(t, got)
			}
		})
	}

	var count int64
	require.NoError(t, db.Model(&model.Notification{}).Where("store_id = ?", storeID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
