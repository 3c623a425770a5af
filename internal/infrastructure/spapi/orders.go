package spapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/hadleybricks/backend/internal/domain/marketplace"
)

const ordersBasePath = "/orders/v0/orders"

// GetOrders pulls orders created in [start, end]. Ranges wider than the
// platform's maximum queryable window are split into consecutive chunks,
// each chunk paginated independently.
func (c *Client) GetOrders(ctx context.Context, start, end time.Time) ([]marketplace.Order, error) {
	window := time.Duration(MaxQueryWindowDays) * 24 * time.Hour
	chunks := ChunkDateRange(start, end, window)
	if len(chunks) > 1 {
		c.logger.Info("splitting order query into windows",
			zap.Time("start", start),
			zap.Time("end", end),
			zap.Int("chunks", len(chunks)),
		)
	}

	var all []marketplace.Order
	for _, chunk := range chunks {
		orders, err := c.getOrdersWindow(ctx, chunk.Start, chunk.End)
		if err != nil {
			return nil, err
		}
		all = append(all, orders...)
	}
	return all, nil
}

func (c *Client) getOrdersWindow(ctx context.Context, start, end time.Time) ([]marketplace.Order, error) {
	return collectPages(ctx, c.logger, c.config.MaxPages, func(ctx context.Context, nextToken string) ([]marketplace.Order, string, error) {
		query := url.Values{}
		if nextToken != "" {
			// The platform ignores range parameters when a token is present.
			query.Set("NextToken", nextToken)
		} else {
			query.Set("MarketplaceIds", strings.Join(c.config.MarketplaceIDs, ","))
			query.Set("CreatedAfter", start.UTC().Format(time.RFC3339))
			query.Set("CreatedBefore", end.UTC().Format(time.RFC3339))
		}

		body, err := c.Get(ctx, ordersBasePath, query)
		if err != nil {
			return nil, "", err
		}

		var parsed ordersResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, "", fmt.Errorf("%w: orders page: %v", marketplace.ErrInvalidResponse, err)
		}

		orders := make([]marketplace.Order, 0, len(parsed.Payload.Orders))
		for _, wire := range parsed.Payload.Orders {
			orders = append(orders, convertOrder(wire))
		}
		return orders, parsed.Payload.NextToken, nil
	})
}

func convertOrder(wire orderWire) marketplace.Order {
	order := marketplace.Order{
		OrderID:   wire.AmazonOrderID,
		Status:    wire.OrderStatus,
		Currency:  wire.OrderTotal.CurrencyCode,
		ItemCount: wire.NumberOfItemsShipped + wire.NumberOfItemsUnshipped,
	}
	if purchased, err := time.Parse(time.RFC3339, wire.PurchaseDate); err == nil {
		order.PurchaseDate = purchased
	}
	if total, err := decimal.NewFromString(wire.OrderTotal.Amount); err == nil {
		order.Total = total
	}
	return order
}
