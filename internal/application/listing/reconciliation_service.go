package listing

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hadleybricks/backend/internal/domain/marketplace"
)

// ReconciliationService produces on-demand stock comparisons between the
// remote listing snapshot and local inventory. Results are derived and
// ephemeral; nothing is persisted.
type ReconciliationService struct {
	api       marketplace.API
	inventory marketplace.InventoryReader
	logger    *zap.Logger
}

// NewReconciliationService creates a new ReconciliationService.
func NewReconciliationService(
	api marketplace.API,
	inventory marketplace.InventoryReader,
	logger *zap.Logger,
) *ReconciliationService {
	return &ReconciliationService{
		api:       api,
		inventory: inventory,
		logger:    logger,
	}
}

// CompareStock fetches both snapshots and diffs them. The filter narrows
// the returned rows only; summary totals always cover the full universe.
func (s *ReconciliationService) CompareStock(ctx context.Context, credentialID uuid.UUID, filter marketplace.ComparisonFilter) (*marketplace.StockComparisonResult, error) {
	remote, err := s.api.GetListings(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing: failed to fetch remote snapshot: %w", err)
	}

	local, err := s.inventory.ListForSync(ctx, credentialID)
	if err != nil {
		return nil, fmt.Errorf("listing: failed to load local inventory: %w", err)
	}

	result := marketplace.CompareStock(remote, local, filter)
	s.logger.Info("compared stock",
		zap.String("credential_id", credentialID.String()),
		zap.Int("remote_listings", result.Summary.TotalRemoteListings),
		zap.Int("local_items", result.Summary.TotalLocalItems),
		zap.Int("quantity_mismatches", result.Summary.QuantityMismatch),
		zap.Int("sku_issues", len(result.Issues)),
	)
	return &result, nil
}
