package spapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/hadleybricks/backend/internal/domain/marketplace"
)

const listingsBasePath = "/listings/2021-08-01/items"

// listingsPageSize is the platform maximum per page.
const listingsPageSize = 20

// GetListings fetches the full remote listing snapshot for the seller,
// following pagination up to the configured cap.
func (c *Client) GetListings(ctx context.Context) ([]marketplace.RemoteListing, error) {
	return collectPages(ctx, c.logger, c.config.MaxPages, func(ctx context.Context, nextToken string) ([]marketplace.RemoteListing, string, error) {
		query := url.Values{}
		query.Set("marketplaceIds", strings.Join(c.config.MarketplaceIDs, ","))
		query.Set("includedData", "summaries,offers,fulfillmentAvailability")
		query.Set("pageSize", fmt.Sprintf("%d", listingsPageSize))
		if nextToken != "" {
			query.Set("pageToken", nextToken)
		}

		body, err := c.Get(ctx, listingsBasePath+"/"+c.config.SellerID, query)
		if err != nil {
			return nil, "", err
		}

		var parsed listingsSearchResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, "", fmt.Errorf("%w: listings page: %v", marketplace.ErrInvalidResponse, err)
		}

		listings := make([]marketplace.RemoteListing, 0, len(parsed.Items))
		for _, item := range parsed.Items {
			listings = append(listings, convertListing(item))
		}
		return listings, parsed.Pagination.NextToken, nil
	})
}

// GetListing fetches the live state of a single SKU. Returns
// ErrListingNotFound when the platform has no listing for it.
func (c *Client) GetListing(ctx context.Context, sku string) (*marketplace.RemoteListing, error) {
	query := url.Values{}
	query.Set("marketplaceIds", strings.Join(c.config.MarketplaceIDs, ","))
	query.Set("includedData", "summaries,offers,fulfillmentAvailability")

	path := listingsBasePath + "/" + c.config.SellerID + "/" + url.PathEscape(sku)
	body, err := c.Get(ctx, path, query)
	if err != nil {
		var apiErr *marketplace.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, marketplace.ErrListingNotFound
		}
		return nil, err
	}

	var parsed listingsItem
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: listing %s: %v", marketplace.ErrInvalidResponse, sku, err)
	}
	if parsed.SKU == "" {
		parsed.SKU = sku
	}
	listing := convertListing(parsed)
	return &listing, nil
}

// convertListing maps a listings-items wire record onto the domain snapshot.
func convertListing(item listingsItem) marketplace.RemoteListing {
	listing := marketplace.RemoteListing{SKU: item.SKU}

	if raw, err := json.Marshal(item); err == nil {
		listing.RawData = string(raw)
	}

	if len(item.Summaries) > 0 {
		summary := item.Summaries[0]
		listing.ASIN = summary.ASIN
		listing.Title = summary.ItemName
		listing.Condition = marketplace.NormalizeCondition(summary.ConditionType)
		listing.ProductType = summary.ProductType
		if len(summary.Status) > 0 {
			listing.Status = summary.Status[0]
		}
	}

	for _, offer := range item.Offers {
		if offer.OfferType != "" && offer.OfferType != "B2C" {
			continue
		}
		if price, err := decimal.NewFromString(offer.Price.Amount); err == nil {
			listing.Price = price
		}
		break
	}

	for _, avail := range item.Fulfill {
		listing.Quantity += avail.Quantity
	}
	return listing
}
