package marketplace

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// Marketplace API port
// ---------------------------------------------------------------------------

// API is the port interface for one marketplace integration. Implementations
// live in the infrastructure layer and are built on the resilient request
// executor, so all methods may return the typed errors from this package.
type API interface {
	// GetListings fetches the full remote listing snapshot for the seller
	GetListings(ctx context.Context) ([]RemoteListing, error)

	// GetListing fetches the live state of a single SKU, used by price
	// verification after listing creation
	GetListing(ctx context.Context, sku string) (*RemoteListing, error)

	// GetOrders pulls orders in [start, end], chunking the range to the
	// platform's maximum queryable window and following pagination
	GetOrders(ctx context.Context, start, end time.Time) ([]Order, error)

	// GetCompetitivePricing looks up competitive pricing for up to the
	// platform batch limit of ASINs per call; larger inputs are chunked
	GetCompetitivePricing(ctx context.Context, asins []string) ([]CompetitivePrice, error)

	// GetProductType resolves the catalog classification for a SKU,
	// consulting the long-TTL product-type cache first
	GetProductType(ctx context.Context, sku string) (string, error)

	// SubmitFeed runs the upload-document/upload/register sequence and
	// returns the platform feed and document identifiers
	SubmitFeed(ctx context.Context, feedType string, payload []byte) (feedID, documentID string, err error)

	// GetFeedStatus fetches the platform processing status for a feed and
	// the result document id once available
	GetFeedStatus(ctx context.Context, feedID string) (RemoteFeedStatus, string, error)

	// GetFeedReport downloads and parses the processing report
	GetFeedReport(ctx context.Context, resultDocumentID string) (*FeedReport, error)
}

// ---------------------------------------------------------------------------
// Persistence ports
// ---------------------------------------------------------------------------

// FeedRepository persists sync feeds and their per-item outcomes.
type FeedRepository interface {
	Save(ctx context.Context, feed *SyncFeed) error
	FindByID(ctx context.Context, id uuid.UUID) (*SyncFeed, error)
	// FindActive returns the single non-terminal feed for a credential and
	// phase, or ErrFeedNotFound when none exists
	FindActive(ctx context.Context, credentialID uuid.UUID, phase FeedPhase) (*SyncFeed, error)
	SaveItems(ctx context.Context, items []FeedItem) error
	ListItems(ctx context.Context, feedID uuid.UUID) ([]FeedItem, error)
}

// SyncQueueRepository persists pending sync intents.
type SyncQueueRepository interface {
	Save(ctx context.Context, item *SyncQueueItem) error
	FindPending(ctx context.Context, credentialID uuid.UUID) ([]SyncQueueItem, error)
	// MarkSubmitted records that the items were folded into the given feed
	MarkSubmitted(ctx context.Context, ids []uuid.UUID, feedID uuid.UUID) error
}

// InventoryReader is the narrow read contract onto the inventory subsystem.
type InventoryReader interface {
	ListForSync(ctx context.Context, credentialID uuid.UUID) ([]InventoryItem, error)
}

// TokenStore persists cached access tokens across restarts. Writes are
// best-effort: the in-memory cache is authoritative.
type TokenStore interface {
	Load(ctx context.Context, credentialID uuid.UUID) (*AccessToken, error)
	Store(ctx context.Context, credentialID uuid.UUID, token AccessToken) error
	Delete(ctx context.Context, credentialID uuid.UUID) error
}

// ProductTypeCache caches catalog classifications. Entries are long-lived
// (about 180 days) because classifications change rarely.
type ProductTypeCache interface {
	Get(ctx context.Context, sku string) (string, bool, error)
	Set(ctx context.Context, sku, productType string, ttl time.Duration) error
}
