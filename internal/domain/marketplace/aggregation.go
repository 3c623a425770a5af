package marketplace

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// SyncQueueItem
// ---------------------------------------------------------------------------

// SyncQueueItem is one pending local intent to update a remote listing.
// Created when a user marks an inventory item for sync; consumed when
// folded into a feed.
type SyncQueueItem struct {
	ID              uuid.UUID
	InventoryItemID uuid.UUID
	SKU             string
	// QuantityDelta is the signed change to apply to the remote quantity
	QuantityDelta int64
	// Price is the desired listing price
	Price decimal.Decimal
	// Condition is the declared condition of the inventory item
	Condition ItemCondition
	// Title is carried for listing creation payloads
	Title string
	// SubmittedFeedID is set once the item has been folded into a feed
	SubmittedFeedID *uuid.UUID
	CreatedAt       time.Time
}

// Pending reports whether the item is still waiting to be aggregated.
func (i *SyncQueueItem) Pending() bool {
	return i.SubmittedFeedID == nil
}

// ---------------------------------------------------------------------------
// AggregatedFeedItem
// ---------------------------------------------------------------------------

// AggregatedFeedItem is one SKU's net required state: N queue items folded
// into a single total quantity and a single price, with traceability back
// to the contributing rows.
type AggregatedFeedItem struct {
	SKU  string
	ASIN string
	// Price is the single agreed price for this SKU
	Price decimal.Decimal
	// Quantity is the total target quantity: existing remote quantity plus
	// the summed queued deltas
	Quantity int64
	// IsNewSKU is true when the SKU does not yet exist remotely; the feed
	// operation is then a creation rather than a patch
	IsNewSKU bool
	// ProductType is the catalog classification, required for new SKUs
	ProductType string
	// Condition and Title feed the creation payload for new SKUs
	Condition ItemCondition
	Title     string
	// InventoryItemIDs and QueueItemIDs trace the contributing records
	InventoryItemIDs []uuid.UUID
	QueueItemIDs     []uuid.UUID
}

// PriceConflict reports a SKU whose queued prices disagree, either among
// themselves or with the existing remote price. Conflicts block submission
// until resolved by the caller; they are never auto-resolved.
type PriceConflict struct {
	SKU string
	// QueuedPrices are the distinct prices requested by queue items
	QueuedPrices []decimal.Decimal
	// RemotePrice is the current remote price, when the SKU exists remotely
	RemotePrice *decimal.Decimal
	Reason      string
}

// AggregationResult is the typed outcome of aggregation: items ready to
// submit and conflicts needing resolution.
type AggregationResult struct {
	Items     []AggregatedFeedItem
	Conflicts []PriceConflict
}

// HasConflicts reports whether any SKU needs resolution before submission.
func (r *AggregationResult) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// ---------------------------------------------------------------------------
// Aggregation
// ---------------------------------------------------------------------------

// AggregateQueue merges pending queue items into per-SKU net updates
// against a snapshot of remote listings keyed by normalized SKU.
//
// Queue items for one SKU must agree on a single price, and when the SKU
// already exists remotely that price must match the remote price; otherwise
// the SKU is excluded and reported as a PriceConflict. The target quantity
// for a non-conflicting SKU is the existing remote quantity (zero for a new
// SKU) plus the summed deltas. Output ordering is deterministic by SKU.
func AggregateQueue(queueItems []SyncQueueItem, remote map[string]RemoteListing) AggregationResult {
	groups := make(map[string][]SyncQueueItem)
	for _, item := range queueItems {
		sku := NormalizeSKU(item.SKU)
		if sku == "" {
			continue
		}
		groups[sku] = append(groups[sku], item)
	}

	skus := make([]string, 0, len(groups))
	for sku := range groups {
		skus = append(skus, sku)
	}
	sort.Strings(skus)

	result := AggregationResult{
		Items:     make([]AggregatedFeedItem, 0, len(skus)),
		Conflicts: make([]PriceConflict, 0),
	}

	for _, sku := range skus {
		group := groups[sku]
		listing, exists := remote[sku]

		if conflict, ok := detectPriceConflict(sku, group, listing, exists); ok {
			result.Conflicts = append(result.Conflicts, conflict)
			continue
		}

		aggregated := AggregatedFeedItem{
			SKU:              sku,
			Price:            group[0].Price,
			IsNewSKU:         !exists,
			Condition:        group[0].Condition,
			Title:            group[0].Title,
			InventoryItemIDs: make([]uuid.UUID, 0, len(group)),
			QueueItemIDs:     make([]uuid.UUID, 0, len(group)),
		}
		if exists {
			aggregated.ASIN = listing.ASIN
			aggregated.Quantity = listing.Quantity
		}
		for _, item := range group {
			aggregated.Quantity += item.QuantityDelta
			aggregated.InventoryItemIDs = append(aggregated.InventoryItemIDs, item.InventoryItemID)
			aggregated.QueueItemIDs = append(aggregated.QueueItemIDs, item.ID)
		}
		if aggregated.Quantity < 0 {
			aggregated.Quantity = 0
		}
		result.Items = append(result.Items, aggregated)
	}

	return result
}

// detectPriceConflict checks one SKU group for intra-group price
// disagreement and, for existing listings, disagreement with the remote
// price.
func detectPriceConflict(sku string, group []SyncQueueItem, listing RemoteListing, exists bool) (PriceConflict, bool) {
	distinct := []decimal.Decimal{group[0].Price}
	for _, item := range group[1:] {
		found := false
		for _, price := range distinct {
			if price.Equal(item.Price) {
				found = true
				break
			}
		}
		if !found {
			distinct = append(distinct, item.Price)
		}
	}

	if len(distinct) > 1 {
		return PriceConflict{
			SKU:          sku,
			QueuedPrices: distinct,
			Reason:       "queued items disagree on price",
		}, true
	}

	if exists && !listing.Price.IsZero() && !listing.Price.Equal(distinct[0]) {
		remotePrice := listing.Price
		return PriceConflict{
			SKU:          sku,
			QueuedPrices: distinct,
			RemotePrice:  &remotePrice,
			Reason:       "queued price differs from current remote price",
		}, true
	}

	return PriceConflict{}, false
}
