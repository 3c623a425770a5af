package listing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hadleybricks/backend/internal/domain/marketplace"
	"github.com/hadleybricks/backend/internal/infrastructure/spapi"
)

// PollPolicy bounds a polling loop by interval, attempt count and elapsed
// wall-clock time. Zero MaxAttempts means unbounded attempts within the
// elapsed budget.
type PollPolicy struct {
	Interval    time.Duration
	MaxAttempts int
	MaxElapsed  time.Duration
}

// DefaultProcessingPolicy polls feed processing every 30s for up to 15 minutes.
var DefaultProcessingPolicy = PollPolicy{
	Interval:   30 * time.Second,
	MaxElapsed: 15 * time.Minute,
}

// DefaultVerificationPolicy checks new listings up to 6 times over 30 minutes.
var DefaultVerificationPolicy = PollPolicy{
	Interval:    5 * time.Minute,
	MaxAttempts: 6,
	MaxElapsed:  30 * time.Minute,
}

// OrchestratorService drives the two-phase feed workflow: the price feed is
// submitted, processed and (for listing creations) verified live before the
// quantity feed may run, so stock is never exposed at a stale price.
type OrchestratorService struct {
	api        marketplace.API
	feedRepo   marketplace.FeedRepository
	queueRepo  marketplace.SyncQueueRepository
	aggregator *AggregatorService
	sellerID   string
	logger     *zap.Logger

	processingPolicy   PollPolicy
	verificationPolicy PollPolicy

	// now and sleep are injectable so tests can simulate long poll loops
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewOrchestratorService creates a new OrchestratorService with the default
// poll policies.
func NewOrchestratorService(
	api marketplace.API,
	feedRepo marketplace.FeedRepository,
	queueRepo marketplace.SyncQueueRepository,
	aggregator *AggregatorService,
	sellerID string,
	logger *zap.Logger,
) *OrchestratorService {
	return &OrchestratorService{
		api:                api,
		feedRepo:           feedRepo,
		queueRepo:          queueRepo,
		aggregator:         aggregator,
		sellerID:           sellerID,
		logger:             logger,
		processingPolicy:   DefaultProcessingPolicy,
		verificationPolicy: DefaultVerificationPolicy,
		now:                time.Now,
		sleep:              sleepContext,
	}
}

// SetPollPolicies overrides the processing and verification poll policies.
func (s *OrchestratorService) SetPollPolicies(processing, verification PollPolicy) {
	s.processingPolicy = processing
	s.verificationPolicy = verification
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ---------------------------------------------------------------------------
// Submission
// ---------------------------------------------------------------------------

// SubmitPriceFeed aggregates the pending queue and submits the price-phase
// feed. At most one non-terminal feed may exist per credential and phase.
// Price conflicts exclude their SKUs; they are reported on the aggregation
// outcome and never auto-resolved.
func (s *OrchestratorService) SubmitPriceFeed(ctx context.Context, credentialID uuid.UUID) (*marketplace.SyncFeed, *AggregationOutcome, error) {
	if err := s.guardNoActiveFeed(ctx, credentialID, marketplace.FeedPhasePrice); err != nil {
		return nil, nil, err
	}

	outcome, err := s.aggregator.Aggregate(ctx, credentialID)
	if err != nil {
		return nil, nil, err
	}
	if len(outcome.Items) == 0 {
		return nil, outcome, marketplace.ErrQueueEmpty
	}

	feed := marketplace.NewSyncFeed(credentialID, marketplace.FeedPhasePrice, outcome.Items)
	if err := s.submitFeed(ctx, feed); err != nil {
		return nil, outcome, err
	}

	if err := s.markQueueSubmitted(ctx, feed); err != nil {
		s.logger.Error("failed to mark queue items submitted",
			zap.String("feed_id", feed.ID.String()),
			zap.Error(err),
		)
	}
	return feed, outcome, nil
}

// SubmitQuantityFeed submits the quantity-phase feed for a completed price
// feed. The price phase must have reached done (patch-only) or verified
// (with creations); anything else is rejected.
func (s *OrchestratorService) SubmitQuantityFeed(ctx context.Context, priceFeedID uuid.UUID) (*marketplace.SyncFeed, error) {
	priceFeed, err := s.feedRepo.FindByID(ctx, priceFeedID)
	if err != nil {
		return nil, err
	}
	if !priceFeed.PricePhaseComplete() {
		return nil, fmt.Errorf("%w: price feed %s is %s", marketplace.ErrPricePhaseNotDone, priceFeed.ID, priceFeed.Status)
	}
	if err := s.guardNoActiveFeed(ctx, priceFeed.CredentialID, marketplace.FeedPhaseQuantity); err != nil {
		return nil, err
	}

	feed := marketplace.NewSyncFeed(priceFeed.CredentialID, marketplace.FeedPhaseQuantity, priceFeed.Items)
	feed.PriceFeedID = &priceFeed.ID
	if err := s.submitFeed(ctx, feed); err != nil {
		return nil, err
	}
	return feed, nil
}

// guardNoActiveFeed rejects submission while a non-terminal feed exists for
// the credential and phase.
func (s *OrchestratorService) guardNoActiveFeed(ctx context.Context, credentialID uuid.UUID, phase marketplace.FeedPhase) error {
	active, err := s.feedRepo.FindActive(ctx, credentialID, phase)
	if err != nil {
		if errors.Is(err, marketplace.ErrFeedNotFound) {
			return nil
		}
		return fmt.Errorf("listing: failed to check active feeds: %w", err)
	}
	return fmt.Errorf("%w: feed %s is %s", marketplace.ErrFeedAlreadyActive, active.ID, active.Status)
}

// submitFeed builds the payload, runs the platform submission sequence and
// persists the feed, recording a local error status on failure.
func (s *OrchestratorService) submitFeed(ctx context.Context, feed *marketplace.SyncFeed) error {
	if err := s.feedRepo.Save(ctx, feed); err != nil {
		return fmt.Errorf("listing: failed to persist feed: %w", err)
	}

	payload, err := spapi.BuildListingsFeedPayload(s.sellerID, feed.Phase, feed.Items)
	if err != nil {
		return s.failFeed(ctx, feed, err)
	}

	remoteFeedID, documentID, err := s.api.SubmitFeed(ctx, spapi.FeedTypeListings, payload)
	if err != nil {
		return s.failFeed(ctx, feed, err)
	}

	if err := feed.MarkSubmitted(remoteFeedID, documentID); err != nil {
		return err
	}
	if err := s.feedRepo.Save(ctx, feed); err != nil {
		return fmt.Errorf("listing: failed to persist submitted feed: %w", err)
	}

	s.logger.Info("submitted feed",
		zap.String("feed_id", feed.ID.String()),
		zap.String("phase", feed.Phase.String()),
		zap.String("remote_feed_id", remoteFeedID),
		zap.Int("items", len(feed.Items)),
	)
	return nil
}

// markQueueSubmitted links the contributing queue items to the feed.
func (s *OrchestratorService) markQueueSubmitted(ctx context.Context, feed *marketplace.SyncFeed) error {
	var ids []uuid.UUID
	for _, item := range feed.Items {
		ids = append(ids, item.QueueItemIDs...)
	}
	if len(ids) == 0 {
		return nil
	}
	return s.queueRepo.MarkSubmitted(ctx, ids, feed.ID)
}

// ---------------------------------------------------------------------------
// Polling and verification
// ---------------------------------------------------------------------------

// AwaitProcessing polls the platform until the feed reaches a terminal
// processing state or the poll budget runs out. On DONE the processing
// report is fetched and per-item outcomes are persisted; mixed reports are
// recorded, never thrown.
func (s *OrchestratorService) AwaitProcessing(ctx context.Context, feedID uuid.UUID) (*marketplace.SyncFeed, error) {
	feed, err := s.feedRepo.FindByID(ctx, feedID)
	if err != nil {
		return nil, err
	}
	if feed.IsTerminal() {
		return feed, fmt.Errorf("%w: %s", marketplace.ErrFeedTerminal, feed.Status)
	}
	if feed.Status != marketplace.FeedStatusSubmitted && feed.Status != marketplace.FeedStatusProcessing {
		return feed, fmt.Errorf("%w: cannot poll feed in %s", marketplace.ErrInvalidTransition, feed.Status)
	}

	deadline := s.now().Add(s.processingPolicy.MaxElapsed)
	for attempt := 1; ; attempt++ {
		status, resultDocID, err := s.api.GetFeedStatus(ctx, feed.RemoteFeedID)
		if err != nil {
			return feed, s.failFeed(ctx, feed, err)
		}

		s.logger.Debug("polled feed status",
			zap.String("feed_id", feed.ID.String()),
			zap.String("remote_status", string(status)),
			zap.Int("attempt", attempt),
		)

		switch status {
		case marketplace.RemoteFeedStatusDone:
			feed.ResultDocumentID = resultDocID
			return feed, s.completeProcessing(ctx, feed)
		case marketplace.RemoteFeedStatusCancelled:
			return feed, s.transitionAndSave(ctx, feed, marketplace.FeedStatusCancelled, "cancelled by platform")
		case marketplace.RemoteFeedStatusFatal:
			return feed, s.transitionAndSave(ctx, feed, marketplace.FeedStatusFatal, "fatal processing failure")
		case marketplace.RemoteFeedStatusInProgress:
			if feed.Status == marketplace.FeedStatusSubmitted {
				if err := s.transitionAndSave(ctx, feed, marketplace.FeedStatusProcessing, ""); err != nil {
					return feed, err
				}
			}
		}

		if s.now().Add(s.processingPolicy.Interval).After(deadline) {
			s.logger.Warn("feed processing timed out",
				zap.String("feed_id", feed.ID.String()),
				zap.Int("attempts", attempt),
			)
			return feed, s.transitionAndSave(ctx, feed, marketplace.FeedStatusProcessingTimeout,
				fmt.Sprintf("no terminal status after %s", s.processingPolicy.MaxElapsed))
		}
		if err := s.sleep(ctx, s.processingPolicy.Interval); err != nil {
			return feed, err
		}
	}
}

// completeProcessing moves a DONE feed through report persistence and, when
// verification is required, into the verification loop.
func (s *OrchestratorService) completeProcessing(ctx context.Context, feed *marketplace.SyncFeed) error {
	if err := s.transitionAndSave(ctx, feed, marketplace.FeedStatusDone, ""); err != nil {
		return err
	}
	if err := s.persistReport(ctx, feed); err != nil {
		s.logger.Error("failed to persist feed report",
			zap.String("feed_id", feed.ID.String()),
			zap.Error(err),
		)
	}
	if !feed.RequiresVerification {
		return nil
	}
	return s.verifyCreations(ctx, feed)
}

// persistReport fetches the processing report and records one outcome row
// per feed item. A SKU with an ERROR issue failed; WARNING succeeded with
// caveats; no issue means accepted.
func (s *OrchestratorService) persistReport(ctx context.Context, feed *marketplace.SyncFeed) error {
	items := make([]marketplace.FeedItem, 0, len(feed.Items))

	var report *marketplace.FeedReport
	if feed.ResultDocumentID != "" {
		var err error
		report, err = s.api.GetFeedReport(ctx, feed.ResultDocumentID)
		if err != nil {
			return fmt.Errorf("listing: failed to fetch feed report: %w", err)
		}
	}

	now := time.Now()
	for _, aggregated := range feed.Items {
		item := marketplace.FeedItem{
			ID:        uuid.New(),
			FeedID:    feed.ID,
			SKU:       aggregated.SKU,
			Status:    marketplace.FeedItemStatusAccepted,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if report != nil {
			for _, issue := range report.IssuesForSKU(aggregated.SKU) {
				item.ErrorCode = issue.Code
				item.Severity = issue.Severity
				item.Message = issue.Message
				if issue.Severity == "ERROR" {
					item.Status = marketplace.FeedItemStatusError
					break
				}
				item.Status = marketplace.FeedItemStatusWarning
			}
		}
		items = append(items, item)
	}

	if report != nil && (report.Summary.Errors > 0 || report.Summary.Warnings > 0) {
		s.logger.Warn("feed processed with issues",
			zap.String("feed_id", feed.ID.String()),
			zap.Int("errors", report.Summary.Errors),
			zap.Int("warnings", report.Summary.Warnings),
			zap.Int("accepted", report.Summary.MessagesAccepted),
		)
	}
	return s.feedRepo.SaveItems(ctx, items)
}

// verifyCreations confirms newly created listings are live at the submitted
// price. The budget is bounded by attempts and elapsed time; exhaustion is
// the soft verification_failed status, not an error.
func (s *OrchestratorService) verifyCreations(ctx context.Context, feed *marketplace.SyncFeed) error {
	if err := s.transitionAndSave(ctx, feed, marketplace.FeedStatusDoneVerifying, ""); err != nil {
		return err
	}

	var pending []marketplace.AggregatedFeedItem
	for _, item := range feed.Items {
		if item.IsNewSKU {
			pending = append(pending, item)
		}
	}

	deadline := s.now().Add(s.verificationPolicy.MaxElapsed)
	for attempt := 1; s.verificationPolicy.MaxAttempts == 0 || attempt <= s.verificationPolicy.MaxAttempts; attempt++ {
		remaining := pending[:0]
		for _, item := range pending {
			live, err := s.api.GetListing(ctx, item.SKU)
			if err != nil {
				if errors.Is(err, marketplace.ErrListingNotFound) {
					remaining = append(remaining, item)
					continue
				}
				return s.failFeed(ctx, feed, err)
			}
			if !live.Price.Equal(item.Price) {
				remaining = append(remaining, item)
			}
		}
		pending = remaining

		if len(pending) == 0 {
			s.logger.Info("verified created listings",
				zap.String("feed_id", feed.ID.String()),
				zap.Int("attempts", attempt),
			)
			return s.transitionAndSave(ctx, feed, marketplace.FeedStatusVerified, "")
		}

		if attempt == s.verificationPolicy.MaxAttempts || s.now().Add(s.verificationPolicy.Interval).After(deadline) {
			break
		}
		if err := s.sleep(ctx, s.verificationPolicy.Interval); err != nil {
			return err
		}
	}

	skus := make([]string, len(pending))
	for i, item := range pending {
		skus[i] = item.SKU
	}
	s.logger.Warn("verification budget exhausted",
		zap.String("feed_id", feed.ID.String()),
		zap.Strings("unverified_skus", skus),
	)
	return s.transitionAndSave(ctx, feed, marketplace.FeedStatusVerificationFailed,
		fmt.Sprintf("%d listings not confirmed live", len(pending)))
}

// ---------------------------------------------------------------------------
// Full pipeline and queries
// ---------------------------------------------------------------------------

// RunSync executes the full two-phase pipeline for a credential: submit the
// price feed, await processing and verification, then submit and await the
// quantity feed. Returns both feeds for inspection.
func (s *OrchestratorService) RunSync(ctx context.Context, credentialID uuid.UUID) (*marketplace.SyncFeed, *marketplace.SyncFeed, error) {
	priceFeed, _, err := s.SubmitPriceFeed(ctx, credentialID)
	if err != nil {
		return nil, nil, err
	}

	priceFeed, err = s.AwaitProcessing(ctx, priceFeed.ID)
	if err != nil {
		return priceFeed, nil, err
	}
	if !priceFeed.PricePhaseComplete() {
		return priceFeed, nil, fmt.Errorf("%w: price feed finished as %s", marketplace.ErrPricePhaseNotDone, priceFeed.Status)
	}

	quantityFeed, err := s.SubmitQuantityFeed(ctx, priceFeed.ID)
	if err != nil {
		return priceFeed, nil, err
	}
	quantityFeed, err = s.AwaitProcessing(ctx, quantityFeed.ID)
	return priceFeed, quantityFeed, err
}

// GetFeed returns one feed with its per-item outcomes.
func (s *OrchestratorService) GetFeed(ctx context.Context, feedID uuid.UUID) (*FeedResponse, error) {
	feed, err := s.feedRepo.FindByID(ctx, feedID)
	if err != nil {
		return nil, err
	}
	items, err := s.feedRepo.ListItems(ctx, feedID)
	if err != nil {
		return nil, err
	}
	return NewFeedResponse(feed, items), nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// transitionAndSave applies one FSM transition and persists the feed.
// Invalid transitions are rejected and logged.
func (s *OrchestratorService) transitionAndSave(ctx context.Context, feed *marketplace.SyncFeed, next marketplace.FeedStatus, message string) error {
	if err := feed.TransitionTo(next); err != nil {
		s.logger.Error("rejected feed status transition",
			zap.String("feed_id", feed.ID.String()),
			zap.String("from", feed.Status.String()),
			zap.String("to", next.String()),
			zap.Error(err),
		)
		return err
	}
	if message != "" {
		feed.ErrorMessage = message
	}
	if err := s.feedRepo.Save(ctx, feed); err != nil {
		return fmt.Errorf("listing: failed to persist feed status: %w", err)
	}
	return nil
}

// failFeed records a local failure on the feed and returns the cause.
func (s *OrchestratorService) failFeed(ctx context.Context, feed *marketplace.SyncFeed, cause error) error {
	if err := s.transitionAndSave(ctx, feed, marketplace.FeedStatusError, cause.Error()); err != nil {
		s.logger.Error("failed to record feed error",
			zap.String("feed_id", feed.ID.String()),
			zap.Error(err),
		)
	}
	return cause
}
