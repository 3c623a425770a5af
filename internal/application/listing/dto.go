package listing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hadleybricks/backend/internal/domain/marketplace"
)

// EnqueueRequest marks one inventory item for synchronization.
type EnqueueRequest struct {
	InventoryItemID uuid.UUID       `json:"inventory_item_id" binding:"required"`
	SKU             string          `json:"sku" binding:"required"`
	QuantityDelta   int64           `json:"quantity_delta"`
	Price           decimal.Decimal `json:"price" binding:"required"`
	Condition       string          `json:"condition"`
	Title           string          `json:"title"`
}

// QueueItemResponse is the API view of a sync queue item.
type QueueItemResponse struct {
	ID              uuid.UUID       `json:"id"`
	InventoryItemID uuid.UUID       `json:"inventory_item_id"`
	SKU             string          `json:"sku"`
	QuantityDelta   int64           `json:"quantity_delta"`
	Price           decimal.Decimal `json:"price"`
	Condition       string          `json:"condition"`
	Pending         bool            `json:"pending"`
	CreatedAt       time.Time       `json:"created_at"`
}

// AggregatedItemResponse is the API view of one aggregated SKU.
type AggregatedItemResponse struct {
	SKU         string          `json:"sku"`
	ASIN        string          `json:"asin,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int64           `json:"quantity"`
	IsNewSKU    bool            `json:"is_new_sku"`
	ProductType string          `json:"product_type,omitempty"`
}

// PriceConflictResponse is the API view of one unresolved price conflict.
type PriceConflictResponse struct {
	SKU          string            `json:"sku"`
	QueuedPrices []decimal.Decimal `json:"queued_prices"`
	RemotePrice  *decimal.Decimal  `json:"remote_price,omitempty"`
	Reason       string            `json:"reason"`
}

// ItemFailureResponse is a per-SKU precondition failure during aggregation.
type ItemFailureResponse struct {
	SKU    string `json:"sku"`
	Reason string `json:"reason"`
}

// AggregateResponse is the outcome of an aggregation pass.
type AggregateResponse struct {
	Items     []AggregatedItemResponse `json:"items"`
	Conflicts []PriceConflictResponse  `json:"conflicts"`
	Failures  []ItemFailureResponse    `json:"failures"`
}

// FeedResponse is the API view of a sync feed.
type FeedResponse struct {
	ID                   uuid.UUID          `json:"id"`
	CredentialID         uuid.UUID          `json:"credential_id"`
	Phase                string             `json:"phase"`
	Status               string             `json:"status"`
	RemoteFeedID         string             `json:"remote_feed_id,omitempty"`
	RequiresVerification bool               `json:"requires_verification"`
	PriceFeedID          *uuid.UUID         `json:"price_feed_id,omitempty"`
	ErrorMessage         string             `json:"error_message,omitempty"`
	ItemCount            int                `json:"item_count"`
	SubmittedAt          *time.Time         `json:"submitted_at,omitempty"`
	CompletedAt          *time.Time         `json:"completed_at,omitempty"`
	CreatedAt            time.Time          `json:"created_at"`
	Items                []FeedItemResponse `json:"items,omitempty"`
}

// FeedItemResponse is the per-SKU outcome of a processed feed.
type FeedItemResponse struct {
	SKU       string `json:"sku"`
	Status    string `json:"status"`
	ErrorCode string `json:"error_code,omitempty"`
	Severity  string `json:"severity,omitempty"`
	Message   string `json:"message,omitempty"`
}

// NewFeedResponse maps a domain feed (and optional item outcomes) to the API view.
func NewFeedResponse(feed *marketplace.SyncFeed, items []marketplace.FeedItem) *FeedResponse {
	resp := &FeedResponse{
		ID:                   feed.ID,
		CredentialID:         feed.CredentialID,
		Phase:                feed.Phase.String(),
		Status:               feed.Status.String(),
		RemoteFeedID:         feed.RemoteFeedID,
		RequiresVerification: feed.RequiresVerification,
		PriceFeedID:          feed.PriceFeedID,
		ErrorMessage:         feed.ErrorMessage,
		ItemCount:            len(feed.Items),
		SubmittedAt:          feed.SubmittedAt,
		CompletedAt:          feed.CompletedAt,
		CreatedAt:            feed.CreatedAt,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, FeedItemResponse{
			SKU:       item.SKU,
			Status:    string(item.Status),
			ErrorCode: item.ErrorCode,
			Severity:  item.Severity,
			Message:   item.Message,
		})
	}
	return resp
}

// NewAggregateResponse maps an aggregation outcome to the API view.
func NewAggregateResponse(result *AggregationOutcome) *AggregateResponse {
	resp := &AggregateResponse{
		Items:     make([]AggregatedItemResponse, 0, len(result.Items)),
		Conflicts: make([]PriceConflictResponse, 0, len(result.Conflicts)),
		Failures:  make([]ItemFailureResponse, 0, len(result.Failures)),
	}
	for _, item := range result.Items {
		resp.Items = append(resp.Items, AggregatedItemResponse{
			SKU:         item.SKU,
			ASIN:        item.ASIN,
			Price:       item.Price,
			Quantity:    item.Quantity,
			IsNewSKU:    item.IsNewSKU,
			ProductType: item.ProductType,
		})
	}
	for _, conflict := range result.Conflicts {
		resp.Conflicts = append(resp.Conflicts, PriceConflictResponse{
			SKU:          conflict.SKU,
			QueuedPrices: conflict.QueuedPrices,
			RemotePrice:  conflict.RemotePrice,
			Reason:       conflict.Reason,
		})
	}
	for _, failure := range result.Failures {
		resp.Failures = append(resp.Failures, ItemFailureResponse{
			SKU:    failure.SKU,
			Reason: failure.Reason,
		})
	}
	return resp
}
