package spapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/hadleybricks/backend/internal/domain/marketplace"
)

const catalogBasePath = "/catalog/2022-04-01/items"

// GetProductType resolves the catalog classification for a SKU. Lookups hit
// the long-TTL cache first because classifications almost never change.
// An empty classification from the platform is ErrProductTypeMissing, which
// callers treat as a hard per-item precondition failure.
func (c *Client) GetProductType(ctx context.Context, sku string) (string, error) {
	normalized := marketplace.NormalizeSKU(sku)
	if normalized == "" {
		return "", fmt.Errorf("%w: empty sku", marketplace.ErrProductTypeMissing)
	}

	if c.cache != nil {
		cached, ok, err := c.cache.Get(ctx, normalized)
		if err != nil {
			c.logger.Warn("product type cache read failed",
				zap.String("sku", normalized),
				zap.Error(err),
			)
		} else if ok {
			return cached, nil
		}
	}

	productType, err := c.lookupProductType(ctx, normalized)
	if err != nil {
		return "", err
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, normalized, productType, ProductTypeCacheTTL); err != nil {
			c.logger.Warn("product type cache write failed",
				zap.String("sku", normalized),
				zap.Error(err),
			)
		}
	}
	return productType, nil
}

func (c *Client) lookupProductType(ctx context.Context, sku string) (string, error) {
	query := url.Values{}
	query.Set("identifiers", sku)
	query.Set("identifiersType", "SKU")
	query.Set("sellerId", c.config.SellerID)
	query.Set("marketplaceIds", strings.Join(c.config.MarketplaceIDs, ","))
	query.Set("includedData", "productTypes")

	body, err := c.Get(ctx, catalogBasePath, query)
	if err != nil {
		return "", err
	}

	var parsed catalogSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%w: catalog search: %v", marketplace.ErrInvalidResponse, err)
	}

	for _, item := range parsed.Items {
		for _, pt := range item.ProductTypes {
			if pt.ProductType != "" {
				return pt.ProductType, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %s", marketplace.ErrProductTypeMissing, sku)
}
