package spapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/hadleybricks/backend/internal/domain/marketplace"
)

const pricingBasePath = "/products/pricing/v0/competitivePrice"

// GetCompetitivePricing looks up competitive pricing for the given ASINs.
// Inputs larger than the platform batch limit are split, with the batch
// delay between calls because the endpoint has a low quota.
func (c *Client) GetCompetitivePricing(ctx context.Context, asins []string) ([]marketplace.CompetitivePrice, error) {
	if len(asins) == 0 {
		return nil, nil
	}

	var all []marketplace.CompetitivePrice
	for offset := 0; offset < len(asins); offset += PricingBatchSize {
		if offset > 0 {
			if err := c.sleep(ctx, c.config.BatchDelay); err != nil {
				return nil, err
			}
		}
		limit := offset + PricingBatchSize
		if limit > len(asins) {
			limit = len(asins)
		}
		batch, err := c.getPricingBatch(ctx, asins[offset:limit])
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
	}
	return all, nil
}

func (c *Client) getPricingBatch(ctx context.Context, asins []string) ([]marketplace.CompetitivePrice, error) {
	query := url.Values{}
	query.Set("MarketplaceId", c.config.MarketplaceIDs[0])
	query.Set("ItemType", "Asin")
	for _, asin := range asins {
		query.Add("Asins", asin)
	}

	body, err := c.Get(ctx, pricingBasePath, query)
	if err != nil {
		return nil, err
	}

	var parsed pricingResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: pricing batch: %v", marketplace.ErrInvalidResponse, err)
	}

	prices := make([]marketplace.CompetitivePrice, 0, len(parsed.Payload))
	for _, result := range parsed.Payload {
		if result.Status != "" && result.Status != "Success" {
			continue
		}
		prices = append(prices, convertPricing(result))
	}
	return prices, nil
}

func convertPricing(result pricingResult) marketplace.CompetitivePrice {
	price := marketplace.CompetitivePrice{
		ASIN:        result.ASIN,
		OfferCounts: make(map[marketplace.ItemCondition]int),
	}

	for _, competitive := range result.Product.CompetitivePricing.CompetitivePrices {
		// CompetitivePriceId 1 is the featured (buy box) offer.
		if competitive.CompetitivePriceID != "1" {
			continue
		}
		if listed, err := decimal.NewFromString(competitive.Price.ListingPrice.Amount); err == nil {
			price.ListingPrice = listed
		}
		price.HasBuyBox = competitive.BelongsToRequester
		break
	}

	for _, counts := range result.Product.CompetitivePricing.NumberOfOfferListings {
		if counts.Condition == "Any" {
			continue
		}
		price.OfferCounts[marketplace.NormalizeCondition(counts.Condition)] += counts.Count
	}

	if len(result.Product.SalesRankings) > 0 {
		price.SalesRank = result.Product.SalesRankings[0].Rank
	}
	return price
}
