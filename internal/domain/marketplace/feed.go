package marketplace

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ---------------------------------------------------------------------------
// FeedPhase
// ---------------------------------------------------------------------------

// FeedPhase identifies which half of the two-phase sync a feed carries.
// Price updates are submitted and verified before quantity updates so stock
// is never exposed at a stale price.
type FeedPhase string

const (
	// FeedPhasePrice is the price-update (or listing-creation) phase
	FeedPhasePrice FeedPhase = "price"
	// FeedPhaseQuantity is the quantity-update phase
	FeedPhaseQuantity FeedPhase = "quantity"
)

// IsValid returns true if the phase is valid.
func (p FeedPhase) IsValid() bool {
	return p == FeedPhasePrice || p == FeedPhaseQuantity
}

// String returns the string representation of FeedPhase.
func (p FeedPhase) String() string {
	return string(p)
}

// ---------------------------------------------------------------------------
// FeedStatus
// ---------------------------------------------------------------------------

// FeedStatus is the lifecycle status of a SyncFeed. Transitions are
// enforced by an explicit table; invalid transitions are rejected rather
// than silently applied.
type FeedStatus string

const (
	// FeedStatusPending indicates the feed is built but not yet submitted
	FeedStatusPending FeedStatus = "pending"
	// FeedStatusSubmitted indicates the feed was registered with the platform
	FeedStatusSubmitted FeedStatus = "submitted"
	// FeedStatusProcessing indicates the platform reported processing in progress
	FeedStatusProcessing FeedStatus = "processing"
	// FeedStatusDone indicates the platform finished processing the feed
	FeedStatusDone FeedStatus = "done"
	// FeedStatusDoneVerifying indicates newly created listings are being
	// verified against live marketplace state
	FeedStatusDoneVerifying FeedStatus = "done_verifying"
	// FeedStatusVerified indicates price propagation was confirmed
	FeedStatusVerified FeedStatus = "verified"
	// FeedStatusVerificationFailed indicates the verification budget was
	// exhausted without confirmation; a soft failure for manual review
	FeedStatusVerificationFailed FeedStatus = "verification_failed"
	// FeedStatusCancelled indicates the platform cancelled the feed
	FeedStatusCancelled FeedStatus = "cancelled"
	// FeedStatusFatal indicates the platform failed the feed fatally
	FeedStatusFatal FeedStatus = "fatal"
	// FeedStatusError indicates a local, non-platform failure
	FeedStatusError FeedStatus = "error"
	// FeedStatusProcessingTimeout indicates polling exceeded the max wait
	// without the platform reaching a terminal state
	FeedStatusProcessingTimeout FeedStatus = "processing_timeout"
)

// feedTransitions is the exhaustive transition table for FeedStatus.
var feedTransitions = map[FeedStatus][]FeedStatus{
	FeedStatusPending:       {FeedStatusSubmitted, FeedStatusError, FeedStatusCancelled},
	FeedStatusSubmitted:     {FeedStatusProcessing, FeedStatusDone, FeedStatusCancelled, FeedStatusFatal, FeedStatusError, FeedStatusProcessingTimeout},
	FeedStatusProcessing:    {FeedStatusDone, FeedStatusCancelled, FeedStatusFatal, FeedStatusError, FeedStatusProcessingTimeout},
	FeedStatusDone:          {FeedStatusDoneVerifying},
	FeedStatusDoneVerifying: {FeedStatusVerified, FeedStatusVerificationFailed, FeedStatusError, FeedStatusProcessingTimeout},
}

// IsValid returns true if the status is valid.
func (s FeedStatus) IsValid() bool {
	switch s {
	case FeedStatusPending, FeedStatusSubmitted, FeedStatusProcessing, FeedStatusDone,
		FeedStatusDoneVerifying, FeedStatusVerified, FeedStatusVerificationFailed,
		FeedStatusCancelled, FeedStatusFatal, FeedStatusError, FeedStatusProcessingTimeout:
		return true
	default:
		return false
	}
}

// String returns the string representation of FeedStatus.
func (s FeedStatus) String() string {
	return string(s)
}

// CanTransitionTo reports whether the transition s -> next is allowed.
func (s FeedStatus) CanTransitionTo(next FeedStatus) bool {
	for _, allowed := range feedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminalFailure reports whether the status is a hard terminal failure.
func (s FeedStatus) IsTerminalFailure() bool {
	switch s {
	case FeedStatusCancelled, FeedStatusFatal, FeedStatusError, FeedStatusProcessingTimeout:
		return true
	default:
		return false
	}
}

// IsSoftFailure reports whether the status is a soft failure: the feed may
// have partially succeeded and callers may re-poll or resubmit.
func (s FeedStatus) IsSoftFailure() bool {
	return s == FeedStatusProcessingTimeout || s == FeedStatusVerificationFailed
}

// ---------------------------------------------------------------------------
// RemoteFeedStatus
// ---------------------------------------------------------------------------

// RemoteFeedStatus is the processing status reported by the platform's feed
// API, distinct from our local FeedStatus lifecycle.
type RemoteFeedStatus string

const (
	RemoteFeedStatusInQueue    RemoteFeedStatus = "IN_QUEUE"
	RemoteFeedStatusInProgress RemoteFeedStatus = "IN_PROGRESS"
	RemoteFeedStatusDone       RemoteFeedStatus = "DONE"
	RemoteFeedStatusCancelled  RemoteFeedStatus = "CANCELLED"
	RemoteFeedStatusFatal      RemoteFeedStatus = "FATAL"
)

// IsTerminal returns true when the platform will not progress the feed further.
func (s RemoteFeedStatus) IsTerminal() bool {
	switch s {
	case RemoteFeedStatusDone, RemoteFeedStatusCancelled, RemoteFeedStatusFatal:
		return true
	default:
		return false
	}
}

// ---------------------------------------------------------------------------
// SyncFeed
// ---------------------------------------------------------------------------

// SyncFeed is one submission unit: an immutable set of aggregated items
// submitted to the platform for a single phase. At most one non-terminal
// feed may exist per (credential, phase); persistence enforces this with a
// partial unique index in addition to the guard query.
type SyncFeed struct {
	ID           uuid.UUID
	CredentialID uuid.UUID
	Phase        FeedPhase
	Status       FeedStatus
	// Items is the aggregated content of this feed, fixed at creation
	Items []AggregatedFeedItem
	// RemoteFeedID is the platform-assigned feed identifier after submission
	RemoteFeedID string
	// DocumentID is the platform upload document identifier
	DocumentID string
	// ResultDocumentID references the processing report, when available
	ResultDocumentID string
	// RequiresVerification is true for price feeds that create new listings;
	// those must be confirmed live before the quantity phase may start
	RequiresVerification bool
	// PriceFeedID links a quantity feed back to its completed price feed
	PriceFeedID *uuid.UUID
	// ErrorMessage carries the failure detail for terminal failure statuses
	ErrorMessage string
	SubmittedAt  *time.Time
	CompletedAt  *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewSyncFeed creates a pending feed for the given phase. A price feed that
// contains any new SKU requires live verification before the quantity phase.
func NewSyncFeed(credentialID uuid.UUID, phase FeedPhase, items []AggregatedFeedItem) *SyncFeed {
	requiresVerification := false
	if phase == FeedPhasePrice {
		for _, item := range items {
			if item.IsNewSKU {
				requiresVerification = true
				break
			}
		}
	}
	now := time.Now()
	return &SyncFeed{
		ID:                   uuid.New(),
		CredentialID:         credentialID,
		Phase:                phase,
		Status:               FeedStatusPending,
		Items:                items,
		RequiresVerification: requiresVerification,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

// TransitionTo moves the feed to the next status, rejecting transitions not
// present in the table.
func (f *SyncFeed) TransitionTo(next FeedStatus) error {
	if !next.IsValid() {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidTransition, next)
	}
	if !f.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, f.Status, next)
	}
	f.Status = next
	now := time.Now()
	f.UpdatedAt = now
	if f.IsTerminal() {
		f.CompletedAt = &now
	}
	return nil
}

// MarkSubmitted records the platform identifiers and transitions to submitted.
func (f *SyncFeed) MarkSubmitted(remoteFeedID, documentID string) error {
	if err := f.TransitionTo(FeedStatusSubmitted); err != nil {
		return err
	}
	f.RemoteFeedID = remoteFeedID
	f.DocumentID = documentID
	now := time.Now()
	f.SubmittedAt = &now
	return nil
}

// IsTerminal reports whether the feed has finished its lifecycle. A feed in
// done that needs no verification is terminal: the phase is complete.
func (f *SyncFeed) IsTerminal() bool {
	switch f.Status {
	case FeedStatusVerified, FeedStatusVerificationFailed,
		FeedStatusCancelled, FeedStatusFatal, FeedStatusError, FeedStatusProcessingTimeout:
		return true
	case FeedStatusDone:
		return !f.RequiresVerification
	default:
		return false
	}
}

// PricePhaseComplete reports whether this price feed satisfies the
// precedence requirement for submitting the quantity phase.
func (f *SyncFeed) PricePhaseComplete() bool {
	if f.Phase != FeedPhasePrice {
		return false
	}
	if f.RequiresVerification {
		return f.Status == FeedStatusVerified
	}
	return f.Status == FeedStatusDone
}

// SKUs returns the normalized SKUs contained in this feed, in item order.
func (f *SyncFeed) SKUs() []string {
	skus := make([]string, len(f.Items))
	for i, item := range f.Items {
		skus[i] = item.SKU
	}
	return skus
}

// ---------------------------------------------------------------------------
// FeedItem
// ---------------------------------------------------------------------------

// FeedItemStatus is the per-SKU outcome within a processed feed.
type FeedItemStatus string

const (
	FeedItemStatusPending  FeedItemStatus = "pending"
	FeedItemStatusAccepted FeedItemStatus = "accepted"
	FeedItemStatusWarning  FeedItemStatus = "warning"
	FeedItemStatusError    FeedItemStatus = "error"
)

// IsValid returns true if the status is valid.
func (s FeedItemStatus) IsValid() bool {
	switch s {
	case FeedItemStatusPending, FeedItemStatusAccepted, FeedItemStatusWarning, FeedItemStatusError:
		return true
	default:
		return false
	}
}

// FeedItem records the outcome of one SKU within a SyncFeed. Per-item
// failures are recorded, not thrown: one SKU's error never fails the feed.
type FeedItem struct {
	ID        uuid.UUID
	FeedID    uuid.UUID
	SKU       string
	Status    FeedItemStatus
	ErrorCode string
	Severity  string
	Message   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ---------------------------------------------------------------------------
// Processing report
// ---------------------------------------------------------------------------

// FeedReportSummary is the aggregate section of a feed processing report.
type FeedReportSummary struct {
	Errors            int
	Warnings          int
	MessagesProcessed int
	MessagesAccepted  int
	MessagesInvalid   int
}

// FeedIssue is one per-message problem from a feed processing report.
type FeedIssue struct {
	MessageID int
	Code      string
	Severity  string
	Message   string
	SKU       string
}

// FeedReport is the parsed result document of a processed feed.
type FeedReport struct {
	Summary FeedReportSummary
	Issues  []FeedIssue
}

// IssuesForSKU returns the issues affecting a given SKU.
func (r *FeedReport) IssuesForSKU(sku string) []FeedIssue {
	normalized := NormalizeSKU(sku)
	var issues []FeedIssue
	for _, issue := range r.Issues {
		if NormalizeSKU(issue.SKU) == normalized {
			issues = append(issues, issue)
		}
	}
	return issues
}
