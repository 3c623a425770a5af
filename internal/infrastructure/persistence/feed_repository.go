package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/hadleybricks/backend/internal/domain/marketplace"
	"github.com/hadleybricks/backend/internal/infrastructure/persistence/models"
)

// terminalFeedStatuses are excluded from the single-active-feed guard.
var terminalFeedStatuses = []marketplace.FeedStatus{
	marketplace.FeedStatusVerified,
	marketplace.FeedStatusVerificationFailed,
	marketplace.FeedStatusCancelled,
	marketplace.FeedStatusFatal,
	marketplace.FeedStatusError,
	marketplace.FeedStatusProcessingTimeout,
}

// GormFeedRepository implements FeedRepository using GORM
type GormFeedRepository struct {
	db *gorm.DB
}

// NewGormFeedRepository creates a new GormFeedRepository
func NewGormFeedRepository(db *gorm.DB) *GormFeedRepository {
	return &GormFeedRepository{db: db}
}

// Save inserts or updates a feed
func (r *GormFeedRepository) Save(ctx context.Context, feed *marketplace.SyncFeed) error {
	var model models.SyncFeedModel
	model.FromDomain(feed)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&model).Error
}

// FindByID finds a feed by its ID
func (r *GormFeedRepository) FindByID(ctx context.Context, id uuid.UUID) (*marketplace.SyncFeed, error) {
	var model models.SyncFeedModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, marketplace.ErrFeedNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindActive returns the single non-terminal feed for a credential and
// phase. A partial unique index on (credential_id, phase) over non-terminal
// statuses backs this guard at the storage level.
func (r *GormFeedRepository) FindActive(ctx context.Context, credentialID uuid.UUID, phase marketplace.FeedPhase) (*marketplace.SyncFeed, error) {
	var model models.SyncFeedModel
	if err := r.db.WithContext(ctx).
		Where("credential_id = ? AND phase = ? AND status NOT IN ?", credentialID, phase, terminalFeedStatuses).
		// done is terminal for feeds that need no verification
		Where("NOT (status = ? AND requires_verification = ?)", marketplace.FeedStatusDone, false).
		Order("created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, marketplace.ErrFeedNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SaveItems records per-SKU feed outcomes
func (r *GormFeedRepository) SaveItems(ctx context.Context, items []marketplace.FeedItem) error {
	if len(items) == 0 {
		return nil
	}
	rows := make([]models.FeedItemModel, len(items))
	for i, item := range items {
		rows[i].FromDomain(item)
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&rows).Error
}

// ListItems returns the per-SKU outcomes for a feed
func (r *GormFeedRepository) ListItems(ctx context.Context, feedID uuid.UUID) ([]marketplace.FeedItem, error) {
	var rows []models.FeedItemModel
	if err := r.db.WithContext(ctx).
		Where("feed_id = ?", feedID).
		Order("sku ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]marketplace.FeedItem, len(rows))
	for i := range rows {
		items[i] = rows[i].ToDomain()
	}
	return items, nil
}

// Ensure GormFeedRepository implements FeedRepository
var _ marketplace.FeedRepository = (*GormFeedRepository)(nil)
