package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadleybricks/backend/internal/domain/marketplace"
)

func TestGormTokenStore_StoreAndLoad(t *testing.T) {
	db := setupTestDB(t)
	store := NewGormTokenStore(db)
	ctx := context.Background()
	credentialID := uuid.New()

	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	require.NoError(t, store.Store(ctx, credentialID, marketplace.AccessToken{
		Token:     "Atza|initial",
		ExpiresAt: expires,
	}))

	loaded, err := store.Load(ctx, credentialID)
	require.NoError(t, err)
	assert.Equal(t, "Atza|initial", loaded.Token)
	assert.WithinDuration(t, expires, loaded.ExpiresAt, time.Second)
}

func TestGormTokenStore_StoreUpserts(t *testing.T) {
	db := setupTestDB(t)
	store := NewGormTokenStore(db)
	ctx := context.Background()
	credentialID := uuid.New()

	require.NoError(t, store.Store(ctx, credentialID, marketplace.AccessToken{
		Token:     "Atza|initial",
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	require.NoError(t, store.Store(ctx, credentialID, marketplace.AccessToken{
		Token:     "Atza|refreshed",
		ExpiresAt: time.Now().Add(2 * time.Hour),
	}))

	loaded, err := store.Load(ctx, credentialID)
	require.NoError(t, err)
	assert.Equal(t, "Atza|refreshed", loaded.Token)
}

func TestGormTokenStore_LoadMissing(t *testing.T) {
	db := setupTestDB(t)
	store := NewGormTokenStore(db)

	_, err := store.Load(context.Background(), uuid.New())
	assert.ErrorIs(t, err, marketplace.ErrTokenNotFound)
}

func TestGormTokenStore_Delete(t *testing.T) {
	db := setupTestDB(t)
	store := NewGormTokenStore(db)
	ctx := context.Background()
	credentialID := uuid.New()

	require.NoError(t, store.Store(ctx, credentialID, marketplace.AccessToken{
		Token:     "Atza|initial",
		ExpiresAt: time.Now().Add(time.Hour),
	}))
	require.NoError(t, store.Delete(ctx, credentialID))

	_, err := store.Load(ctx, credentialID)
	assert.ErrorIs(t, err, marketplace.ErrTokenNotFound)

	// Deleting an absent token is not an error.
	assert.NoError(t, store.Delete(ctx, uuid.New()))
}
