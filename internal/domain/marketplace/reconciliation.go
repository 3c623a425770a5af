package marketplace

import (
	"sort"
	"strings"
)

// ---------------------------------------------------------------------------
// Discrepancy classification
// ---------------------------------------------------------------------------

// DiscrepancyType classifies one SKU's remote-versus-local state.
type DiscrepancyType string

const (
	// DiscrepancyMatch means remote and local quantities agree
	DiscrepancyMatch DiscrepancyType = "match"
	// DiscrepancyPlatformOnly means the SKU exists remotely but not locally
	DiscrepancyPlatformOnly DiscrepancyType = "platform_only"
	// DiscrepancyInventoryOnly means the SKU exists locally but not remotely
	DiscrepancyInventoryOnly DiscrepancyType = "inventory_only"
	// DiscrepancyQuantityMismatch means both sides exist with differing quantities
	DiscrepancyQuantityMismatch DiscrepancyType = "quantity_mismatch"
)

// IsValid returns true if the discrepancy type is valid.
func (d DiscrepancyType) IsValid() bool {
	switch d {
	case DiscrepancyMatch, DiscrepancyPlatformOnly, DiscrepancyInventoryOnly, DiscrepancyQuantityMismatch:
		return true
	default:
		return false
	}
}

// String returns the string representation of DiscrepancyType.
func (d DiscrepancyType) String() string {
	return string(d)
}

// ---------------------------------------------------------------------------
// Comparison records
// ---------------------------------------------------------------------------

// StockComparison is the derived, ephemeral per-SKU reconciliation record.
// Recomputed on demand from snapshots; never persisted as source of truth.
type StockComparison struct {
	SKU   string
	Title string
	// RemoteQuantity is the summed quantity of all remote listings for the SKU
	RemoteQuantity int64
	// LocalQuantity is the summed local inventory quantity for the SKU
	LocalQuantity int64
	// Difference is local minus remote
	Difference int64
	Type       DiscrepancyType
	// ConditionMismatch is set independently of the quantity classification
	// when the remote and local declared conditions differ
	ConditionMismatch bool
	RemoteCondition   ItemCondition
	LocalCondition    ItemCondition
	// ListingCount is how many remote records were combined for this SKU
	ListingCount int
}

// SKUIssueType categorizes remote listings excluded from comparison.
type SKUIssueType string

const (
	// SKUIssueEmpty flags a listing with no identifier at all
	SKUIssueEmpty SKUIssueType = "empty_sku"
	// SKUIssueDuplicate flags a SKU listed under multiple remote records
	SKUIssueDuplicate SKUIssueType = "duplicate_sku"
)

// SKUIssue reports a remote listing excluded from (or notable in) the
// comparison, with a link back to the listing when available.
type SKUIssue struct {
	Type SKUIssueType
	SKU  string
	// ASIN or ItemID link back to the offending remote listing
	ASIN   string
	ItemID string
	Title  string
	// ListingCount is the number of records sharing the SKU for duplicates
	ListingCount int
}

// ComparisonFilter narrows the returned comparison list. Filters apply
// after classification: summary totals always reflect the full universe.
type ComparisonFilter struct {
	// Search is a free-text match over SKU and title
	Search string
	// Types restricts to the given discrepancy classifications
	Types []DiscrepancyType
	// ConditionMismatchOnly keeps only rows with a condition mismatch
	ConditionMismatchOnly bool
}

// ComparisonSummary aggregates the unfiltered comparison universe.
type ComparisonSummary struct {
	TotalRemoteListings int
	TotalRemoteQuantity int64
	TotalLocalItems     int
	Matched             int
	PlatformOnly        int
	InventoryOnly       int
	QuantityMismatch    int
	ConditionMismatch   int
}

// StockComparisonResult is the full output of one reconciliation pass.
type StockComparisonResult struct {
	Comparisons []StockComparison
	Issues      []SKUIssue
	Summary     ComparisonSummary
}

// ---------------------------------------------------------------------------
// Reconciliation
// ---------------------------------------------------------------------------

// combinedListing is one SKU's merged remote view.
type combinedListing struct {
	listing  RemoteListing
	quantity int64
	count    int
}

// CompareStock diffs a remote listing snapshot against local inventory.
//
// Remote listings are grouped by normalized SKU with duplicate quantities
// summed into one combined view. Listings without an identifier are
// excluded and reported as SKU issues. Each SKU in the union of both sides
// is classified, with condition mismatches flagged independently. The
// filter applies to the returned list only; the summary always covers the
// whole universe.
func CompareStock(remote []RemoteListing, local []InventoryItem, filter ComparisonFilter) StockComparisonResult {
	result := StockComparisonResult{
		Comparisons: make([]StockComparison, 0),
		Issues:      make([]SKUIssue, 0),
	}

	combined := make(map[string]*combinedListing)
	for _, listing := range remote {
		result.Summary.TotalRemoteListings++
		result.Summary.TotalRemoteQuantity += listing.Quantity

		sku := NormalizeSKU(listing.SKU)
		if sku == "" {
			result.Issues = append(result.Issues, SKUIssue{
				Type:   SKUIssueEmpty,
				ASIN:   listing.ASIN,
				ItemID: listing.ItemID,
				Title:  listing.Title,
			})
			continue
		}
		if existing, ok := combined[sku]; ok {
			existing.quantity += listing.Quantity
			existing.count++
		} else {
			combined[sku] = &combinedListing{listing: listing, quantity: listing.Quantity, count: 1}
		}
	}

	for sku, entry := range combined {
		if entry.count > 1 {
			result.Issues = append(result.Issues, SKUIssue{
				Type:         SKUIssueDuplicate,
				SKU:          sku,
				ASIN:         entry.listing.ASIN,
				ItemID:       entry.listing.ItemID,
				Title:        entry.listing.Title,
				ListingCount: entry.count,
			})
		}
	}

	type localEntry struct {
		item     InventoryItem
		quantity int64
	}
	localBySKU := make(map[string]*localEntry)
	for _, item := range local {
		result.Summary.TotalLocalItems++
		sku := NormalizeSKU(item.SKU)
		if sku == "" {
			continue
		}
		if existing, ok := localBySKU[sku]; ok {
			existing.quantity += item.Quantity
		} else {
			localBySKU[sku] = &localEntry{item: item, quantity: item.Quantity}
		}
	}

	union := make([]string, 0, len(combined)+len(localBySKU))
	seen := make(map[string]bool, len(combined))
	for sku := range combined {
		union = append(union, sku)
		seen[sku] = true
	}
	for sku := range localBySKU {
		if !seen[sku] {
			union = append(union, sku)
		}
	}
	sort.Strings(union)

	for _, sku := range union {
		remoteEntry, hasRemote := combined[sku]
		localItem, hasLocal := localBySKU[sku]

		comparison := StockComparison{SKU: sku}
		switch {
		case hasRemote && !hasLocal:
			comparison.Type = DiscrepancyPlatformOnly
			comparison.RemoteQuantity = remoteEntry.quantity
			comparison.Difference = -remoteEntry.quantity
		case !hasRemote && hasLocal:
			comparison.Type = DiscrepancyInventoryOnly
			comparison.LocalQuantity = localItem.quantity
			comparison.Difference = localItem.quantity
		default:
			comparison.RemoteQuantity = remoteEntry.quantity
			comparison.LocalQuantity = localItem.quantity
			comparison.Difference = localItem.quantity - remoteEntry.quantity
			if comparison.Difference == 0 {
				comparison.Type = DiscrepancyMatch
			} else {
				comparison.Type = DiscrepancyQuantityMismatch
			}
		}

		if hasRemote {
			comparison.Title = remoteEntry.listing.Title
			comparison.RemoteCondition = remoteEntry.listing.Condition
			comparison.ListingCount = remoteEntry.count
		}
		if hasLocal {
			if comparison.Title == "" {
				comparison.Title = localItem.item.Title
			}
			comparison.LocalCondition = localItem.item.Condition
		}
		if hasRemote && hasLocal &&
			comparison.RemoteCondition != "" && comparison.LocalCondition != "" &&
			comparison.RemoteCondition != comparison.LocalCondition {
			comparison.ConditionMismatch = true
		}

		switch comparison.Type {
		case DiscrepancyMatch:
			result.Summary.Matched++
		case DiscrepancyPlatformOnly:
			result.Summary.PlatformOnly++
		case DiscrepancyInventoryOnly:
			result.Summary.InventoryOnly++
		case DiscrepancyQuantityMismatch:
			result.Summary.QuantityMismatch++
		}
		if comparison.ConditionMismatch {
			result.Summary.ConditionMismatch++
		}

		if matchesFilter(comparison, filter) {
			result.Comparisons = append(result.Comparisons, comparison)
		}
	}

	return result
}

// matchesFilter applies the post-classification filter to one comparison.
func matchesFilter(c StockComparison, filter ComparisonFilter) bool {
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(c.SKU), needle) &&
			!strings.Contains(strings.ToLower(c.Title), needle) {
			return false
		}
	}
	if len(filter.Types) > 0 {
		found := false
		for _, t := range filter.Types {
			if c.Type == t {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.ConditionMismatchOnly && !c.ConditionMismatch {
		return false
	}
	return true
}
