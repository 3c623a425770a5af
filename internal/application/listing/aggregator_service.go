package listing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hadleybricks/backend/internal/domain/marketplace"
)

// ItemFailure is a per-SKU precondition failure during aggregation. Failed
// items are excluded from the feed; the rest of the batch proceeds.
type ItemFailure struct {
	SKU    string
	Reason string
}

// AggregationOutcome is the full result of one aggregation pass: items
// ready to submit, price conflicts awaiting resolution, and per-item
// precondition failures.
type AggregationOutcome struct {
	Items     []marketplace.AggregatedFeedItem
	Conflicts []marketplace.PriceConflict
	Failures  []ItemFailure
}

// AggregatorService folds pending sync queue items into per-SKU feed items
// against a live remote listing snapshot.
type AggregatorService struct {
	api       marketplace.API
	queueRepo marketplace.SyncQueueRepository
	logger    *zap.Logger
}

// NewAggregatorService creates a new AggregatorService.
func NewAggregatorService(
	api marketplace.API,
	queueRepo marketplace.SyncQueueRepository,
	logger *zap.Logger,
) *AggregatorService {
	return &AggregatorService{
		api:       api,
		queueRepo: queueRepo,
		logger:    logger,
	}
}

// Enqueue marks one inventory item for synchronization.
func (s *AggregatorService) Enqueue(ctx context.Context, req EnqueueRequest) (*QueueItemResponse, error) {
	if marketplace.NormalizeSKU(req.SKU) == "" {
		return nil, fmt.Errorf("listing: sku must not be empty")
	}

	item := &marketplace.SyncQueueItem{
		ID:              uuid.New(),
		InventoryItemID: req.InventoryItemID,
		SKU:             marketplace.NormalizeSKU(req.SKU),
		QuantityDelta:   req.QuantityDelta,
		Price:           req.Price,
		Condition:       marketplace.NormalizeCondition(req.Condition),
		Title:           req.Title,
		CreatedAt:       time.Now(),
	}
	if err := s.queueRepo.Save(ctx, item); err != nil {
		return nil, fmt.Errorf("listing: failed to enqueue item: %w", err)
	}

	s.logger.Info("queued item for sync",
		zap.String("sku", item.SKU),
		zap.Int64("quantity_delta", item.QuantityDelta),
	)
	return &QueueItemResponse{
		ID:              item.ID,
		InventoryItemID: item.InventoryItemID,
		SKU:             item.SKU,
		QuantityDelta:   item.QuantityDelta,
		Price:           item.Price,
		Condition:       item.Condition.String(),
		Pending:         true,
		CreatedAt:       item.CreatedAt,
	}, nil
}

// Aggregate loads the pending queue for a credential, fetches the remote
// listing snapshot, folds the queue into per-SKU updates and resolves
// product types for new SKUs. A new SKU whose classification cannot be
// resolved fails that item alone; the rest of the batch is unaffected.
func (s *AggregatorService) Aggregate(ctx context.Context, credentialID uuid.UUID) (*AggregationOutcome, error) {
	pending, err := s.queueRepo.FindPending(ctx, credentialID)
	if err != nil {
		return nil, fmt.Errorf("listing: failed to load pending queue: %w", err)
	}
	if len(pending) == 0 {
		return nil, marketplace.ErrQueueEmpty
	}

	listings, err := s.api.GetListings(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing: failed to fetch remote snapshot: %w", err)
	}
	remote := make(map[string]marketplace.RemoteListing, len(listings))
	for _, l := range listings {
		remote[marketplace.NormalizeSKU(l.SKU)] = l
	}

	result := marketplace.AggregateQueue(pending, remote)
	outcome := &AggregationOutcome{
		Conflicts: result.Conflicts,
	}
	for _, conflict := range result.Conflicts {
		s.logger.Warn("price conflict, SKU excluded from feed",
			zap.String("sku", conflict.SKU),
			zap.String("reason", conflict.Reason),
		)
	}

	for _, item := range result.Items {
		if item.IsNewSKU {
			productType, err := s.api.GetProductType(ctx, item.SKU)
			if err != nil {
				if errors.Is(err, marketplace.ErrProductTypeMissing) {
					s.logger.Warn("product type unresolved, new SKU excluded from feed",
						zap.String("sku", item.SKU),
					)
					outcome.Failures = append(outcome.Failures, ItemFailure{
						SKU:    item.SKU,
						Reason: "product type could not be resolved",
					})
					continue
				}
				return nil, fmt.Errorf("listing: failed to resolve product type for %s: %w", item.SKU, err)
			}
			item.ProductType = productType
		} else if item.ProductType == "" {
			// Patches reuse the classification already on the remote listing.
			if existing, ok := remote[item.SKU]; ok {
				item.ProductType = existing.ProductType
			}
		}
		outcome.Items = append(outcome.Items, item)
	}

	s.logger.Info("aggregated sync queue",
		zap.String("credential_id", credentialID.String()),
		zap.Int("queued", len(pending)),
		zap.Int("items", len(outcome.Items)),
		zap.Int("conflicts", len(outcome.Conflicts)),
		zap.Int("failures", len(outcome.Failures)),
	)
	return outcome, nil
}
