package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/hadleybricks/backend/internal/application/listing"
	"github.com/hadleybricks/backend/internal/domain/marketplace"
	"github.com/hadleybricks/backend/internal/interfaces/http/dto"
)

// aggregatorService is the queue/aggregation surface used by the handler.
type aggregatorService interface {
	Enqueue(ctx context.Context, req listing.EnqueueRequest) (*listing.QueueItemResponse, error)
	Aggregate(ctx context.Context, credentialID uuid.UUID) (*listing.AggregationOutcome, error)
}

// orchestratorService is the feed lifecycle surface used by the handler.
type orchestratorService interface {
	SubmitPriceFeed(ctx context.Context, credentialID uuid.UUID) (*marketplace.SyncFeed, *listing.AggregationOutcome, error)
	SubmitQuantityFeed(ctx context.Context, priceFeedID uuid.UUID) (*marketplace.SyncFeed, error)
	AwaitProcessing(ctx context.Context, feedID uuid.UUID) (*marketplace.SyncFeed, error)
	RunSync(ctx context.Context, credentialID uuid.UUID) (*marketplace.SyncFeed, *marketplace.SyncFeed, error)
	GetFeed(ctx context.Context, feedID uuid.UUID) (*listing.FeedResponse, error)
}

// SyncHandler handles listing synchronization API endpoints
type SyncHandler struct {
	BaseHandler
	aggregator   aggregatorService
	orchestrator orchestratorService
	credentialID uuid.UUID
}

// NewSyncHandler creates a new SyncHandler bound to the configured credential
func NewSyncHandler(aggregator aggregatorService, orchestrator orchestratorService, credentialID uuid.UUID) *SyncHandler {
	return &SyncHandler{
		aggregator:   aggregator,
		orchestrator: orchestrator,
		credentialID: credentialID,
	}
}

// SubmitFeedResponse pairs a submitted feed with the aggregation behind it
type SubmitFeedResponse struct {
	Feed        *listing.FeedResponse      `json:"feed"`
	Aggregation *listing.AggregateResponse `json:"aggregation,omitempty"`
}

// QuantityFeedRequest names the completed price feed the quantity phase follows
type QuantityFeedRequest struct {
	PriceFeedID uuid.UUID `json:"price_feed_id" binding:"required"`
}

// RunSyncResponse reports both phases of a full synchronization run
type RunSyncResponse struct {
	PriceFeed    *listing.FeedResponse `json:"price_feed"`
	QuantityFeed *listing.FeedResponse `json:"quantity_feed,omitempty"`
}

// Enqueue godoc
// @Summary      Queue an inventory item for synchronization
// @Tags         sync
// @Accept       json
// @Produce      json
// @Success      201 {object} APIResponse[listing.QueueItemResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /sync/queue [post]
func (h *SyncHandler) Enqueue(c *gin.Context) {
	var req listing.EnqueueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, dto.GetHTTPStatus(dto.ErrCodeInvalidJSON), dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	item, err := h.aggregator.Enqueue(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, item)
}

// Aggregate godoc
// @Summary      Preview the aggregated feed for all pending queue items
// @Tags         sync
// @Produce      json
// @Success      200 {object} APIResponse[listing.AggregateResponse]
// @Failure      422 {object} ErrorResponse
// @Router       /sync/aggregate [post]
func (h *SyncHandler) Aggregate(c *gin.Context) {
	outcome, err := h.aggregator.Aggregate(c.Request.Context(), h.credentialID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, listing.NewAggregateResponse(outcome))
}

// SubmitPriceFeed godoc
// @Summary      Aggregate pending items and submit the price phase feed
// @Tags         sync
// @Produce      json
// @Success      202 {object} APIResponse[SubmitFeedResponse]
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /sync/feeds/price [post]
func (h *SyncHandler) SubmitPriceFeed(c *gin.Context) {
	feed, outcome, err := h.orchestrator.SubmitPriceFeed(c.Request.Context(), h.credentialID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Accepted(c, SubmitFeedResponse{
		Feed:        listing.NewFeedResponse(feed, nil),
		Aggregation: listing.NewAggregateResponse(outcome),
	})
}

// SubmitQuantityFeed godoc
// @Summary      Submit the quantity phase feed for a completed price feed
// @Tags         sync
// @Accept       json
// @Produce      json
// @Success      202 {object} APIResponse[SubmitFeedResponse]
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /sync/feeds/quantity [post]
func (h *SyncHandler) SubmitQuantityFeed(c *gin.Context) {
	var req QuantityFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.Error(c, dto.GetHTTPStatus(dto.ErrCodeInvalidJSON), dto.ErrCodeInvalidJSON, err.Error())
		return
	}

	feed, err := h.orchestrator.SubmitQuantityFeed(c.Request.Context(), req.PriceFeedID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Accepted(c, SubmitFeedResponse{Feed: listing.NewFeedResponse(feed, nil)})
}

// PollFeed godoc
// @Summary      Poll a submitted feed until it reaches a terminal or verified state
// @Tags         sync
// @Produce      json
// @Param        id path string true "Feed ID"
// @Success      200 {object} APIResponse[listing.FeedResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Router       /sync/feeds/{id}/poll [post]
func (h *SyncHandler) PollFeed(c *gin.Context) {
	feedID, ok := h.feedIDParam(c)
	if !ok {
		return
	}

	feed, err := h.orchestrator.AwaitProcessing(c.Request.Context(), feedID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, listing.NewFeedResponse(feed, nil))
}

// GetFeed godoc
// @Summary      Get a sync feed with its per-SKU outcomes
// @Tags         sync
// @Produce      json
// @Param        id path string true "Feed ID"
// @Success      200 {object} APIResponse[listing.FeedResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /sync/feeds/{id} [get]
func (h *SyncHandler) GetFeed(c *gin.Context) {
	feedID, ok := h.feedIDParam(c)
	if !ok {
		return
	}

	feed, err := h.orchestrator.GetFeed(c.Request.Context(), feedID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, feed)
}

// RunSync godoc
// @Summary      Run the full two-phase synchronization pipeline
// @Tags         sync
// @Produce      json
// @Success      200 {object} APIResponse[RunSyncResponse]
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Router       /sync/run [post]
func (h *SyncHandler) RunSync(c *gin.Context) {
	priceFeed, quantityFeed, err := h.orchestrator.RunSync(c.Request.Context(), h.credentialID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := RunSyncResponse{PriceFeed: listing.NewFeedResponse(priceFeed, nil)}
	if quantityFeed != nil {
		resp.QuantityFeed = listing.NewFeedResponse(quantityFeed, nil)
	}
	h.Success(c, resp)
}

// feedIDParam parses the :id path parameter, responding with 400 on failure.
func (h *SyncHandler) feedIDParam(c *gin.Context) (uuid.UUID, bool) {
	feedID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "invalid feed id")
		return uuid.Nil, false
	}
	return feedID, true
}

// RegisterRoutes registers all synchronization routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/sync")
	{
		sync.POST("/queue", h.Enqueue)
		sync.POST("/aggregate", h.Aggregate)
		sync.POST("/run", h.RunSync)
		sync.POST("/feeds/price", h.SubmitPriceFeed)
		sync.POST("/feeds/quantity", h.SubmitQuantityFeed)
		sync.GET("/feeds/:id", h.GetFeed)
		sync.POST("/feeds/:id/poll", h.PollFeed)
	}
}
