package handler

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hadleybricks/backend/internal/domain/marketplace"
)

// reconciliationService is the stock comparison surface used by the handler.
type reconciliationService interface {
	CompareStock(ctx context.Context, credentialID uuid.UUID, filter marketplace.ComparisonFilter) (*marketplace.StockComparisonResult, error)
}

// StockHandler handles stock reconciliation API endpoints
type StockHandler struct {
	BaseHandler
	reconciliation reconciliationService
	credentialID   uuid.UUID
}

// NewStockHandler creates a new StockHandler bound to the configured credential
func NewStockHandler(reconciliation reconciliationService, credentialID uuid.UUID) *StockHandler {
	return &StockHandler{
		reconciliation: reconciliation,
		credentialID:   credentialID,
	}
}

// ComparisonRequest carries the stock comparison filter parameters
type ComparisonRequest struct {
	Search                string `form:"search"`
	Types                 string `form:"types"`
	ConditionMismatchOnly bool   `form:"condition_mismatch_only"`
}

// ComparisonRowResponse is one SKU's remote-versus-local record
type ComparisonRowResponse struct {
	SKU               string `json:"sku"`
	Title             string `json:"title,omitempty"`
	RemoteQuantity    int64  `json:"remote_quantity"`
	LocalQuantity     int64  `json:"local_quantity"`
	Difference        int64  `json:"difference"`
	Type              string `json:"type"`
	ConditionMismatch bool   `json:"condition_mismatch"`
	RemoteCondition   string `json:"remote_condition,omitempty"`
	LocalCondition    string `json:"local_condition,omitempty"`
	ListingCount      int    `json:"listing_count"`
}

// SKUIssueResponse is a remote listing excluded from the comparison
type SKUIssueResponse struct {
	Type         string `json:"type"`
	SKU          string `json:"sku,omitempty"`
	ASIN         string `json:"asin,omitempty"`
	ItemID       string `json:"item_id,omitempty"`
	Title        string `json:"title,omitempty"`
	ListingCount int    `json:"listing_count,omitempty"`
}

// ComparisonSummaryResponse aggregates the unfiltered comparison universe
type ComparisonSummaryResponse struct {
	TotalRemoteListings int   `json:"total_remote_listings"`
	TotalRemoteQuantity int64 `json:"total_remote_quantity"`
	TotalLocalItems     int   `json:"total_local_items"`
	Matched             int   `json:"matched"`
	PlatformOnly        int   `json:"platform_only"`
	InventoryOnly       int   `json:"inventory_only"`
	QuantityMismatch    int   `json:"quantity_mismatch"`
	ConditionMismatch   int   `json:"condition_mismatch"`
}

// ComparisonResponse is the full output of one reconciliation pass
type ComparisonResponse struct {
	Comparisons []ComparisonRowResponse   `json:"comparisons"`
	Issues      []SKUIssueResponse        `json:"issues"`
	Summary     ComparisonSummaryResponse `json:"summary"`
}

// CompareStock godoc
// @Summary      Compare remote listings against local inventory
// @Description  Fetches the live remote listing snapshot and diffs it against
// @Description  local inventory. Filters narrow the rows; the summary always
// @Description  reflects the full universe.
// @Tags         stock
// @Produce      json
// @Param        search query string false "Free-text match over SKU and title"
// @Param        types query string false "Comma-separated discrepancy types"
// @Param        condition_mismatch_only query bool false "Only rows with condition mismatches"
// @Success      200 {object} APIResponse[ComparisonResponse]
// @Failure      502 {object} ErrorResponse
// @Router       /stock/comparison [get]
func (h *StockHandler) CompareStock(c *gin.Context) {
	var req ComparisonRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter := marketplace.ComparisonFilter{
		Search:                req.Search,
		ConditionMismatchOnly: req.ConditionMismatchOnly,
	}
	for _, raw := range strings.Split(req.Types, ",") {
		dt := marketplace.DiscrepancyType(strings.TrimSpace(raw))
		if dt == "" {
			continue
		}
		if !dt.IsValid() {
			h.BadRequest(c, "unknown discrepancy type: "+string(dt))
			return
		}
		filter.Types = append(filter.Types, dt)
	}

	result, err := h.reconciliation.CompareStock(c.Request.Context(), h.credentialID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, toComparisonResponse(result))
}

// toComparisonResponse maps the domain comparison result to the API view.
func toComparisonResponse(result *marketplace.StockComparisonResult) ComparisonResponse {
	resp := ComparisonResponse{
		Comparisons: make([]ComparisonRowResponse, 0, len(result.Comparisons)),
		Issues:      make([]SKUIssueResponse, 0, len(result.Issues)),
		Summary: ComparisonSummaryResponse{
			TotalRemoteListings: result.Summary.TotalRemoteListings,
			TotalRemoteQuantity: result.Summary.TotalRemoteQuantity,
			TotalLocalItems:     result.Summary.TotalLocalItems,
			Matched:             result.Summary.Matched,
			PlatformOnly:        result.Summary.PlatformOnly,
			InventoryOnly:       result.Summary.InventoryOnly,
			QuantityMismatch:    result.Summary.QuantityMismatch,
			ConditionMismatch:   result.Summary.ConditionMismatch,
		},
	}
	for _, row := range result.Comparisons {
		resp.Comparisons = append(resp.Comparisons, ComparisonRowResponse{
			SKU:               row.SKU,
			Title:             row.Title,
			RemoteQuantity:    row.RemoteQuantity,
			LocalQuantity:     row.LocalQuantity,
			Difference:        row.Difference,
			Type:              row.Type.String(),
			ConditionMismatch: row.ConditionMismatch,
			RemoteCondition:   string(row.RemoteCondition),
			LocalCondition:    string(row.LocalCondition),
			ListingCount:      row.ListingCount,
		})
	}
	for _, issue := range result.Issues {
		resp.Issues = append(resp.Issues, SKUIssueResponse{
			Type:         string(issue.Type),
			SKU:          issue.SKU,
			ASIN:         issue.ASIN,
			ItemID:       issue.ItemID,
			Title:        issue.Title,
			ListingCount: issue.ListingCount,
		})
	}
	return resp
}

// RegisterRoutes registers all stock reconciliation routes
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stock := rg.Group("/stock")
	{
		stock.GET("/comparison", h.CompareStock)
	}
}
