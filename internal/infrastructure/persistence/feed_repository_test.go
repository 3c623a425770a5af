package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/hadleybricks/backend/internal/domain/marketplace"
	"github.com/hadleybricks/backend/internal/infrastructure/persistence/models"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.SyncFeedModel{},
		&models.FeedItemModel{},
		&models.SyncQueueItemModel{},
		&models.AccessTokenModel{},
		&models.InventoryItemModel{},
	))
	return db
}

func sampleFeed(credentialID uuid.UUID, phase marketplace.FeedPhase) *marketplace.SyncFeed {
	return marketplace.NewSyncFeed(credentialID, phase, []marketplace.AggregatedFeedItem{
		{
			SKU:      "LEGO-75192",
			ASIN:     "B075SDMMMV",
			Price:    decimal.RequireFromString("649.99"),
			Quantity: 3,
		},
	})
}

func TestGormFeedRepository_SaveAndFindByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormFeedRepository(db)
	ctx := context.Background()

	feed := sampleFeed(uuid.New(), marketplace.FeedPhasePrice)
	require.NoError(t, repo.Save(ctx, feed))

	loaded, err := repo.FindByID(ctx, feed.ID)
	require.NoError(t, err)
	assert.Equal(t, feed.ID, loaded.ID)
	assert.Equal(t, marketplace.FeedStatusPending, loaded.Status)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "LEGO-75192", loaded.Items[0].SKU)
	assert.True(t, loaded.Items[0].Price.Equal(decimal.RequireFromString("649.99")))
}

func TestGormFeedRepository_FindByID_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormFeedRepository(db)

	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, marketplace.ErrFeedNotFound)
}

func TestGormFeedRepository_SaveUpdatesExistingFeed(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormFeedRepository(db)
	ctx := context.Background()

	feed := sampleFeed(uuid.New(), marketplace.FeedPhasePrice)
	require.NoError(t, repo.Save(ctx, feed))

	require.NoError(t, feed.MarkSubmitted("remote-1", "doc-1"))
	require.NoError(t, repo.Save(ctx, feed))

	loaded, err := repo.FindByID(ctx, feed.ID)
	require.NoError(t, err)
	assert.Equal(t, marketplace.FeedStatusSubmitted, loaded.Status)
	assert.Equal(t, "remote-1", loaded.RemoteFeedID)
	assert.NotNil(t, loaded.SubmittedAt)
}

func TestGormFeedRepository_FindActive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormFeedRepository(db)
	ctx := context.Background()
	credentialID := uuid.New()

	t.Run("no feeds", func(t *testing.T) {
		_, err := repo.FindActive(ctx, credentialID, marketplace.FeedPhasePrice)
		assert.ErrorIs(t, err, marketplace.ErrFeedNotFound)
	})

	feed := sampleFeed(credentialID, marketplace.FeedPhasePrice)
	require.NoError(t, repo.Save(ctx, feed))

	t.Run("pending feed is active", func(t *testing.T) {
		active, err := repo.FindActive(ctx, credentialID, marketplace.FeedPhasePrice)
		require.NoError(t, err)
		assert.Equal(t, feed.ID, active.ID)
	})

	t.Run("phase is scoped", func(t *testing.T) {
		_, err := repo.FindActive(ctx, credentialID, marketplace.FeedPhaseQuantity)
		assert.ErrorIs(t, err, marketplace.ErrFeedNotFound)
	})

	t.Run("done without verification is not active", func(t *testing.T) {
		require.NoError(t, feed.MarkSubmitted("remote-1", "doc-1"))
		require.NoError(t, feed.TransitionTo(marketplace.FeedStatusDone))
		require.NoError(t, repo.Save(ctx, feed))

		_, err := repo.FindActive(ctx, credentialID, marketplace.FeedPhasePrice)
		assert.ErrorIs(t, err, marketplace.ErrFeedNotFound)
	})
}

func TestGormFeedRepository_FindActive_DoneVerifyingStillActive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormFeedRepository(db)
	ctx := context.Background()
	credentialID := uuid.New()

	feed := marketplace.NewSyncFeed(credentialID, marketplace.FeedPhasePrice, []marketplace.AggregatedFeedItem{
		{SKU: "LEGO-21337", Price: decimal.RequireFromString("89.99"), Quantity: 3, IsNewSKU: true},
	})
	require.True(t, feed.RequiresVerification)
	require.NoError(t, feed.MarkSubmitted("remote-1", "doc-1"))
	require.NoError(t, feed.TransitionTo(marketplace.FeedStatusDone))
	require.NoError(t, feed.TransitionTo(marketplace.FeedStatusDoneVerifying))
	require.NoError(t, repo.Save(ctx, feed))

	active, err := repo.FindActive(ctx, credentialID, marketplace.FeedPhasePrice)
	require.NoError(t, err)
	assert.Equal(t, feed.ID, active.ID)
}

func TestGormFeedRepository_ActiveIndexAllowsNextCycle(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Exec(activeFeedIndexSQL).Error)
	repo := NewGormFeedRepository(db)
	ctx := context.Background()
	credentialID := uuid.New()

	// First cycle: a quantity feed runs to done and stays there.
	first := sampleFeed(credentialID, marketplace.FeedPhaseQuantity)
	require.False(t, first.RequiresVerification)
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, first.MarkSubmitted("remote-1", "doc-1"))
	require.NoError(t, first.TransitionTo(marketplace.FeedStatusDone))
	require.NoError(t, repo.Save(ctx, first))

	_, err := repo.FindActive(ctx, credentialID, marketplace.FeedPhaseQuantity)
	require.ErrorIs(t, err, marketplace.ErrFeedNotFound)

	// The next cycle's pending feed must not trip the unique index.
	second := sampleFeed(credentialID, marketplace.FeedPhaseQuantity)
	require.NoError(t, repo.Save(ctx, second))

	active, err := repo.FindActive(ctx, credentialID, marketplace.FeedPhaseQuantity)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)
}

func TestGormFeedRepository_ActiveIndexRejectsConcurrentFeed(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.Exec(activeFeedIndexSQL).Error)
	repo := NewGormFeedRepository(db)
	ctx := context.Background()
	credentialID := uuid.New()

	require.NoError(t, repo.Save(ctx, sampleFeed(credentialID, marketplace.FeedPhasePrice)))

	err := repo.Save(ctx, sampleFeed(credentialID, marketplace.FeedPhasePrice))
	require.Error(t, err, "second pending feed for the same credential and phase must be rejected")
}

func TestGormFeedRepository_Items(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormFeedRepository(db)
	ctx := context.Background()

	feed := sampleFeed(uuid.New(), marketplace.FeedPhasePrice)
	require.NoError(t, repo.Save(ctx, feed))

	items := []marketplace.FeedItem{
		{ID: uuid.New(), FeedID: feed.ID, SKU: "LEGO-75192", Status: marketplace.FeedItemStatusAccepted},
		{ID: uuid.New(), FeedID: feed.ID, SKU: "LEGO-10294", Status: marketplace.FeedItemStatusError, ErrorCode: "90220", Severity: "ERROR", Message: "invalid attribute"},
	}
	require.NoError(t, repo.SaveItems(ctx, items))

	loaded, err := repo.ListItems(ctx, feed.ID)
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "LEGO-10294", loaded[0].SKU, "items ordered by SKU")
	assert.Equal(t, marketplace.FeedItemStatusError, loaded[0].Status)
}
