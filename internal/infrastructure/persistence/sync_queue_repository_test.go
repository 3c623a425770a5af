package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadleybricks/backend/internal/domain/marketplace"
	"github.com/hadleybricks/backend/internal/infrastructure/persistence/models"
)

func TestGormSyncQueueRepository_PendingLifecycle(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSyncQueueRepository(db)
	ctx := context.Background()
	credentialID := uuid.New()

	inventoryID := uuid.New()
	require.NoError(t, db.Create(&models.InventoryItemModel{
		ID:           inventoryID,
		CredentialID: credentialID,
		SKU:          "LEGO-75192",
		Quantity:     3,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}).Error)

	item := &marketplace.SyncQueueItem{
		ID:              uuid.New(),
		InventoryItemID: inventoryID,
		SKU:             "LEGO-75192",
		QuantityDelta:   1,
		Price:           decimal.RequireFromString("649.99"),
		Condition:       marketplace.ConditionNew,
		CreatedAt:       time.Now(),
	}
	require.NoError(t, repo.Save(ctx, item))

	pending, err := repo.FindPending(ctx, credentialID)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "LEGO-75192", pending[0].SKU)
	assert.True(t, pending[0].Pending())

	// Items from other credentials are invisible.
	other, err := repo.FindPending(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, other)

	feedID := uuid.New()
	require.NoError(t, repo.MarkSubmitted(ctx, []uuid.UUID{item.ID}, feedID))

	pending, err = repo.FindPending(ctx, credentialID)
	require.NoError(t, err)
	assert.Empty(t, pending, "submitted items leave the pending set")

	loaded, err := repo.FindByID(ctx, item.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.SubmittedFeedID)
	assert.Equal(t, feedID, *loaded.SubmittedFeedID)
}

func TestGormSyncQueueRepository_FindByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormSyncQueueRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, marketplace.ErrQueueItemNotFound)
}

func TestGormTokenStore_Lifecycle(t *testing.T) {
	db := setupTestDB(t)
	store := NewGormTokenStore(db)
	ctx := context.Background()
	credentialID := uuid.New()

	_, err := store.Load(ctx, credentialID)
	assert.ErrorIs(t, err, marketplace.ErrTokenNotFound)

	token := marketplace.AccessToken{Token: "tok-1", ExpiresAt: time.Now().Add(time.Hour).UTC()}
	require.NoError(t, store.Store(ctx, credentialID, token))

	loaded, err := store.Load(ctx, credentialID)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", loaded.Token)

	// Upsert replaces the previous token.
	require.NoError(t, store.Store(ctx, credentialID, marketplace.AccessToken{Token: "tok-2", ExpiresAt: token.ExpiresAt}))
	loaded, err = store.Load(ctx, credentialID)
	require.NoError(t, err)
	assert.Equal(t, "tok-2", loaded.Token)

	require.NoError(t, store.Delete(ctx, credentialID))
	_, err = store.Load(ctx, credentialID)
	assert.ErrorIs(t, err, marketplace.ErrTokenNotFound)
}
