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

// GormSyncQueueRepository implements SyncQueueRepository using GORM
type GormSyncQueueRepository struct {
	db *gorm.DB
}

// NewGormSyncQueueRepository creates a new GormSyncQueueRepository
func NewGormSyncQueueRepository(db *gorm.DB) *GormSyncQueueRepository {
	return &GormSyncQueueRepository{db: db}
}

// Save inserts or updates a queue item
func (r *GormSyncQueueRepository) Save(ctx context.Context, item *marketplace.SyncQueueItem) error {
	var model models.SyncQueueItemModel
	model.FromDomain(item)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&model).Error
}

// FindByID finds a queue item by its ID
func (r *GormSyncQueueRepository) FindByID(ctx context.Context, id uuid.UUID) (*marketplace.SyncQueueItem, error) {
	var model models.SyncQueueItemModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, marketplace.ErrQueueItemNotFound
		}
		return nil, err
	}
	item := model.ToDomain()
	return &item, nil
}

// FindPending returns queue items not yet folded into a feed, oldest first
func (r *GormSyncQueueRepository) FindPending(ctx context.Context, credentialID uuid.UUID) ([]marketplace.SyncQueueItem, error) {
	var rows []models.SyncQueueItemModel
	if err := r.db.WithContext(ctx).
		Joins("JOIN inventory_items ON inventory_items.id = sync_queue_items.inventory_item_id").
		Where("inventory_items.credential_id = ? AND sync_queue_items.submitted_feed_id IS NULL", credentialID).
		Order("sync_queue_items.created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]marketplace.SyncQueueItem, len(rows))
	for i := range rows {
		items[i] = rows[i].ToDomain()
	}
	return items, nil
}

// MarkSubmitted links the given queue items to the feed they were folded into
func (r *GormSyncQueueRepository) MarkSubmitted(ctx context.Context, ids []uuid.UUID, feedID uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.SyncQueueItemModel{}).
		Where("id IN ?", ids).
		Update("submitted_feed_id", feedID).Error
}

// Ensure GormSyncQueueRepository implements SyncQueueRepository
var _ marketplace.SyncQueueRepository = (*GormSyncQueueRepository)(nil)
