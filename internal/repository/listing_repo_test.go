package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace_engine_v1/internal/model"
)

func TestListingRepo_HideByProductIDs(t *testing.T) {
	db := setupRepoTestDB(t)
	repo := NewListingRepository(db)
	ctx := context.Background()

	published := &model.MarketplaceListing{ProductID: uuid.NewString(), Status: model.ListingStatusPublished}
	draft := &model.MarketplaceListing{ProductID: uuid.NewString(), Status: model.ListingStatusDraft}
	require.NoError(t, db.Create(published).Error)
	require.NoError(t, db.Create(draft).Error)

	n, err := repo.HideByProductIDs(ctx, []string{published.ProductID, draft.ProductID, uuid.NewString()}, "out_of_stock", testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var got model.MarketplaceListing
	require.NoError(t, db.First(&got, "product_id = ?", published.ProductID).Error)
	assert.Equal(t, model.ListingStatusHidden, got.Status)
	assert.Equal(t, "out_of_stock", got.HiddenReason)
	require.NotNil(t, got.HiddenAt)

	got = model.MarketplaceListing{}
	require.NoError(t, db.First(&got, "product_id = ?", draft.ProductID).Error)
	assert.Equal(t, model.ListingStatusDraft, got.Status)

	// 已隐藏的不重复计数
	n, err = repo.HideByProductIDs(ctx, []string{published.ProductID}, "out_of_stock", testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	n, err = repo.HideByProductIDs(ctx, nil, "out_of_stock", testNow)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}
