package marketplace

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// ItemCondition
// ---------------------------------------------------------------------------

// ItemCondition is the declared condition of a listing or inventory item.
type ItemCondition string

const (
	ConditionNew         ItemCondition = "NEW"
	ConditionUsedLikeNew ItemCondition = "USED_LIKE_NEW"
	ConditionUsedGood    ItemCondition = "USED_GOOD"
	ConditionUsedAccept  ItemCondition = "USED_ACCEPTABLE"
	ConditionCollectible ItemCondition = "COLLECTIBLE"
)

// NormalizeCondition maps free-form platform condition strings onto the
// ItemCondition enum. Unknown values pass through upper-cased so mismatch
// detection still works on them.
func NormalizeCondition(s string) ItemCondition {
	normalized := strings.ToUpper(strings.TrimSpace(strings.ReplaceAll(s, " ", "_")))
	switch normalized {
	case "NEW", "NEW_ITEM":
		return ConditionNew
	case "USED_LIKE_NEW", "LIKE_NEW", "USEDLIKENEW":
		return ConditionUsedLikeNew
	case "USED_GOOD", "USED_VERY_GOOD", "USEDGOOD":
		return ConditionUsedGood
	case "USED_ACCEPTABLE", "USEDACCEPTABLE":
		return ConditionUsedAccept
	case "COLLECTIBLE", "COLLECTIBLE_LIKE_NEW":
		return ConditionCollectible
	default:
		return ItemCondition(normalized)
	}
}

// String returns the string representation of ItemCondition.
func (c ItemCondition) String() string {
	return string(c)
}

// ---------------------------------------------------------------------------
// RemoteListing
// ---------------------------------------------------------------------------

// RemoteListing is a read-only snapshot of one listing on the marketplace.
// Fetched per reconciliation or aggregation pass; never mutated locally.
type RemoteListing struct {
	// SKU is the seller-assigned stock keeping unit
	SKU string
	// ASIN is the marketplace catalog identifier
	ASIN string
	// ItemID is the platform-internal listing identifier, when distinct from SKU
	ItemID string
	// Title is the listing title
	Title string
	// Quantity is the listed available quantity
	Quantity int64
	// Price is the current listing price
	Price decimal.Decimal
	// Status is the platform listing status (e.g. ACTIVE, INACTIVE)
	Status string
	// Condition is the declared condition
	Condition ItemCondition
	// ProductType is the catalog classification, when the platform returned one
	ProductType string
	// RawData is the original platform payload (JSON)
	RawData string
}

// NormalizeSKU canonicalizes a SKU for comparison across remote and local
// records. Empty results mean the listing cannot be matched at all.
func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}

// ---------------------------------------------------------------------------
// InventoryItem
// ---------------------------------------------------------------------------

// InventoryItem is the read-only view of a local inventory record. Owned by
// the inventory subsystem; the sync engine only reads it.
type InventoryItem struct {
	ID        uuid.UUID
	SKU       string
	Title     string
	Condition ItemCondition
	Quantity  int64
	// TargetPrice is the price the item should be listed at
	TargetPrice decimal.Decimal
	Status      string
}

// ---------------------------------------------------------------------------
// Competitive pricing
// ---------------------------------------------------------------------------

// CompetitivePrice is the per-ASIN competitive pricing snapshot returned by
// the batched pricing lookup.
type CompetitivePrice struct {
	ASIN string
	// ListingPrice is the current competitive listing price
	ListingPrice decimal.Decimal
	// HasBuyBox reports whether this seller owns the featured offer
	HasBuyBox bool
	// OfferCounts is the number of competing offers per condition
	OfferCounts map[ItemCondition]int
	// SalesRank is the catalog sales rank, 0 when unknown
	SalesRank int
}

// ---------------------------------------------------------------------------
// Orders (read path for the purchases subsystem)
// ---------------------------------------------------------------------------

// Order is a marketplace order header pulled for the purchases collaborator.
type Order struct {
	OrderID      string
	Status       string
	PurchaseDate time.Time
	Total        decimal.Decimal
	Currency     string
	ItemCount    int
}
