package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadleybricks/backend/internal/domain/marketplace"
	"github.com/hadleybricks/backend/internal/interfaces/http/dto"
)

type fakeOrders struct {
	orders []marketplace.Order
	err    error
	start  time.Time
	end    time.Time
}

func (f *fakeOrders) GetOrders(_ context.Context, start, end time.Time) ([]marketplace.Order, error) {
	f.start = start
	f.end = end
	if f.err != nil {
		return nil, f.err
	}
	return f.orders, nil
}

func newOrdersRouter(orders *fakeOrders) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h := NewOrdersHandler(orders)
	h.RegisterRoutes(r.Group("/api/v1"))
	return r
}

func TestOrdersHandler_ListOrders(t *testing.T) {
	orders := &fakeOrders{
		orders: []marketplace.Order{
			{
				OrderID:      "026-5285053-4244364",
				Status:       "Shipped",
				PurchaseDate: time.Date(2024, 3, 10, 9, 30, 0, 0, time.UTC),
				Total:        decimal.NewFromFloat(649.99),
				Currency:     "GBP",
				ItemCount:    1,
			},
		},
	}
	r := newOrdersRouter(orders)

	start := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	target := "/api/v1/orders?start=" + url.QueryEscape(start.Format(time.RFC3339)) +
		"&end=" + url.QueryEscape(end.Format(time.RFC3339))

	req := httptest.NewRequest(http.MethodGet, target, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, orders.start.Equal(start))
	assert.True(t, orders.end.Equal(end))

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)

	data := resp.Data.(map[string]interface{})
	assert.Equal(t, float64(1), data["count"])
	list := data["orders"].([]interface{})
	require.Len(t, list, 1)
	first := list[0].(map[string]interface{})
	assert.Equal(t, "026-5285053-4244364", first["order_id"])
	assert.Equal(t, "Shipped", first["status"])
	assert.Equal(t, "GBP", first["currency"])
}

func TestOrdersHandler_ListOrders_DefaultWindow(t *testing.T) {
	orders := &fakeOrders{}
	r := newOrdersRouter(orders)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.WithinDuration(t, time.Now(), orders.end, 5*time.Second)
	assert.WithinDuration(t, orders.end.Add(-24*time.Hour), orders.start, time.Second)
}

func TestOrdersHandler_ListOrders_BadWindow(t *testing.T) {
	r := newOrdersRouter(&fakeOrders{})

	t.Run("unparseable start", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/orders?start=yesterday", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "start must be RFC3339")
	})

	t.Run("inverted window", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet,
			"/api/v1/orders?start=2024-03-11T00:00:00Z&end=2024-03-09T00:00:00Z", nil)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "start must be before end")
	})
}

func TestOrdersHandler_ListOrders_UpstreamThrottled(t *testing.T) {
	r := newOrdersRouter(&fakeOrders{err: &marketplace.RateLimitError{}})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), dto.ErrCodeUpstreamThrottled)
}
