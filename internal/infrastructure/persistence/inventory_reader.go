package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/hadleybricks/backend/internal/domain/marketplace"
	"github.com/hadleybricks/backend/internal/infrastructure/persistence/models"
)

// GormInventoryReader implements the narrow inventory read contract used by
// reconciliation and aggregation. Inventory rows are owned by the inventory
// subsystem; this reader never writes them.
type GormInventoryReader struct {
	db *gorm.DB
}

// NewGormInventoryReader creates a new GormInventoryReader
func NewGormInventoryReader(db *gorm.DB) *GormInventoryReader {
	return &GormInventoryReader{db: db}
}

// ListForSync returns the inventory items linked to a credential
func (r *GormInventoryReader) ListForSync(ctx context.Context, credentialID uuid.UUID) ([]marketplace.InventoryItem, error) {
	var rows []models.InventoryItemModel
	if err := r.db.WithContext(ctx).
		Where("credential_id = ?", credentialID).
		Order("sku ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]marketplace.InventoryItem, len(rows))
	for i := range rows {
		items[i] = rows[i].ToDomain()
	}
	return items, nil
}

// Ensure GormInventoryReader implements InventoryReader
var _ marketplace.InventoryReader = (*GormInventoryReader)(nil)
