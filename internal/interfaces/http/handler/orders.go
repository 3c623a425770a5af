package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/hadleybricks/backend/internal/domain/marketplace"
)

// ordersService is the order ingestion surface used by the handler.
type ordersService interface {
	GetOrders(ctx context.Context, start, end time.Time) ([]marketplace.Order, error)
}

// OrdersHandler exposes the marketplace order read path for the purchases
// subsystem.
type OrdersHandler struct {
	BaseHandler
	orders ordersService
}

// NewOrdersHandler creates a new OrdersHandler
func NewOrdersHandler(orders ordersService) *OrdersHandler {
	return &OrdersHandler{orders: orders}
}

// OrderResponse is one marketplace order header
type OrderResponse struct {
	OrderID      string          `json:"order_id"`
	Status       string          `json:"status"`
	PurchaseDate time.Time       `json:"purchase_date"`
	Total        decimal.Decimal `json:"total"`
	Currency     string          `json:"currency"`
	ItemCount    int             `json:"item_count"`
}

// OrdersListResponse wraps the fetched window of orders
type OrdersListResponse struct {
	Orders []OrderResponse `json:"orders"`
	Start  time.Time       `json:"start"`
	End    time.Time       `json:"end"`
	Count  int             `json:"count"`
}

// ListOrders godoc
// @Summary      Fetch marketplace orders in a date window
// @Description  Pulls order headers from the platform. Wide windows are
// @Description  chunked upstream; defaults to the trailing 24 hours.
// @Tags         orders
// @Produce      json
// @Param        start query string false "Window start (RFC3339)"
// @Param        end   query string false "Window end (RFC3339)"
// @Success      200 {object} APIResponse[OrdersListResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /orders [get]
func (h *OrdersHandler) ListOrders(c *gin.Context) {
	end := time.Now()
	start := end.Add(-24 * time.Hour)

	if raw := c.Query("end"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.BadRequest(c, "end must be RFC3339")
			return
		}
		end = parsed
	}
	if raw := c.Query("start"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			h.BadRequest(c, "start must be RFC3339")
			return
		}
		start = parsed
	}
	if !start.Before(end) {
		h.BadRequest(c, "start must be before end")
		return
	}

	orders, err := h.orders.GetOrders(c.Request.Context(), start, end)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := OrdersListResponse{
		Orders: make([]OrderResponse, 0, len(orders)),
		Start:  start,
		End:    end,
		Count:  len(orders),
	}
	for _, o := range orders {
		resp.Orders = append(resp.Orders, OrderResponse{
			OrderID:      o.OrderID,
			Status:       o.Status,
			PurchaseDate: o.PurchaseDate,
			Total:        o.Total,
			Currency:     o.Currency,
			ItemCount:    o.ItemCount,
		})
	}
	h.Success(c, resp)
}

// RegisterRoutes registers order routes on the given router group
func (h *OrdersHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/orders", h.ListOrders)
}
