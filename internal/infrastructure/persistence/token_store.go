package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hadleybricks/backend/internal/domain/marketplace"
	"github.com/hadleybricks/backend/internal/infrastructure/persistence/models"
)

// GormTokenStore implements TokenStore using GORM. The in-memory token
// cache is authoritative; this store only survives process restarts.
type GormTokenStore struct {
	db *gorm.DB
}

// NewGormTokenStore creates a new GormTokenStore
func NewGormTokenStore(db *gorm.DB) *GormTokenStore {
	return &GormTokenStore{db: db}
}

// Load returns the persisted token for a credential
func (s *GormTokenStore) Load(ctx context.Context, credentialID uuid.UUID) (*marketplace.AccessToken, error) {
	var model models.AccessTokenModel
	if err := s.db.WithContext(ctx).First(&model, "credential_id = ?", credentialID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, marketplace.ErrTokenNotFound
		}
		return nil, err
	}
	token := model.ToDomain()
	return &token, nil
}

// Store upserts the token for a credential
func (s *GormTokenStore) Store(ctx context.Context, credentialID uuid.UUID, token marketplace.AccessToken) error {
	model := models.AccessTokenModel{
		CredentialID: credentialID,
		Token:        token.Token,
		ExpiresAt:    token.ExpiresAt,
		UpdatedAt:    time.Now(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "credential_id"}},
			UpdateAll: true,
		}).
		Create(&model).Error
}

// Delete removes the persisted token for a credential
func (s *GormTokenStore) Delete(ctx context.Context, credentialID uuid.UUID) error {
	return s.db.WithContext(ctx).
		Delete(&models.AccessTokenModel{}, "credential_id = ?", credentialID).Error
}

// Ensure GormTokenStore implements TokenStore
var _ marketplace.TokenStore = (*GormTokenStore)(nil)
