package listing

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hadleybricks/backend/internal/domain/marketplace"
)

// fakeAPI is a scriptable marketplace.API for service tests.
type fakeAPI struct {
	mu sync.Mutex

	listings     []marketplace.RemoteListing
	productTypes map[string]string

	// live is consulted by GetListing during verification; entries may be
	// added between calls to simulate propagation delay
	live map[string]marketplace.RemoteListing
	// liveAfterCalls makes a SKU appear only after N GetListing calls
	liveAfterCalls map[string]int
	getListingCall map[string]int

	// statusSequence is consumed one entry per GetFeedStatus call; the last
	// entry repeats once exhausted
	statusSequence []remoteStatusStep
	statusCalls    int

	report *marketplace.FeedReport

	submissions []fakeSubmission
	submitErr   error
}

type remoteStatusStep struct {
	status      marketplace.RemoteFeedStatus
	resultDocID string
}

type fakeSubmission struct {
	feedType string
	payload  []byte
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		productTypes:   map[string]string{},
		live:           map[string]marketplace.RemoteListing{},
		liveAfterCalls: map[string]int{},
		getListingCall: map[string]int{},
	}
}

func (f *fakeAPI) GetListings(ctx context.Context) ([]marketplace.RemoteListing, error) {
	return f.listings, nil
}

func (f *fakeAPI) GetListing(ctx context.Context, sku string) (*marketplace.RemoteListing, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := marketplace.NormalizeSKU(sku)
	f.getListingCall[key]++
	if after, ok := f.liveAfterCalls[key]; ok && f.getListingCall[key] >= after {
		listing := f.live[key]
		return &listing, nil
	}
	if listing, ok := f.live[key]; ok {
		if _, deferred := f.liveAfterCalls[key]; !deferred {
			return &listing, nil
		}
	}
	return nil, marketplace.ErrListingNotFound
}

func (f *fakeAPI) GetOrders(ctx context.Context, start, end time.Time) ([]marketplace.Order, error) {
	return nil, nil
}

func (f *fakeAPI) GetCompetitivePricing(ctx context.Context, asins []string) ([]marketplace.CompetitivePrice, error) {
	return nil, nil
}

func (f *fakeAPI) GetProductType(ctx context.Context, sku string) (string, error) {
	if pt, ok := f.productTypes[marketplace.NormalizeSKU(sku)]; ok {
		return pt, nil
	}
	return "", marketplace.ErrProductTypeMissing
}

func (f *fakeAPI) SubmitFeed(ctx context.Context, feedType string, payload []byte) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitErr != nil {
		return "", "", f.submitErr
	}
	f.submissions = append(f.submissions, fakeSubmission{feedType: feedType, payload: payload})
	return uuid.NewString(), uuid.NewString(), nil
}

func (f *fakeAPI) GetFeedStatus(ctx context.Context, feedID string) (marketplace.RemoteFeedStatus, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.statusSequence) == 0 {
		return marketplace.RemoteFeedStatusInProgress, "", nil
	}
	step := f.statusSequence[min(f.statusCalls, len(f.statusSequence)-1)]
	f.statusCalls++
	return step.status, step.resultDocID, nil
}

func (f *fakeAPI) GetFeedReport(ctx context.Context, resultDocumentID string) (*marketplace.FeedReport, error) {
	if f.report != nil {
		return f.report, nil
	}
	return &marketplace.FeedReport{}, nil
}

var _ marketplace.API = (*fakeAPI)(nil)

// fakeFeedRepo is an in-memory FeedRepository.
type fakeFeedRepo struct {
	mu    sync.Mutex
	feeds map[uuid.UUID]*marketplace.SyncFeed
	items map[uuid.UUID][]marketplace.FeedItem
}

func newFakeFeedRepo() *fakeFeedRepo {
	return &fakeFeedRepo{
		feeds: map[uuid.UUID]*marketplace.SyncFeed{},
		items: map[uuid.UUID][]marketplace.FeedItem{},
	}
}

func (r *fakeFeedRepo) Save(ctx context.Context, feed *marketplace.SyncFeed) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *feed
	r.feeds[feed.ID] = &copied
	return nil
}

func (r *fakeFeedRepo) FindByID(ctx context.Context, id uuid.UUID) (*marketplace.SyncFeed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	feed, ok := r.feeds[id]
	if !ok {
		return nil, marketplace.ErrFeedNotFound
	}
	copied := *feed
	return &copied, nil
}

func (r *fakeFeedRepo) FindActive(ctx context.Context, credentialID uuid.UUID, phase marketplace.FeedPhase) (*marketplace.SyncFeed, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, feed := range r.feeds {
		if feed.CredentialID == credentialID && feed.Phase == phase && !feed.IsTerminal() {
			copied := *feed
			return &copied, nil
		}
	}
	return nil, marketplace.ErrFeedNotFound
}

func (r *fakeFeedRepo) SaveItems(ctx context.Context, items []marketplace.FeedItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, item := range items {
		r.items[item.FeedID] = append(r.items[item.FeedID], item)
	}
	return nil
}

func (r *fakeFeedRepo) ListItems(ctx context.Context, feedID uuid.UUID) ([]marketplace.FeedItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.items[feedID], nil
}

var _ marketplace.FeedRepository = (*fakeFeedRepo)(nil)

// fakeQueueRepo is an in-memory SyncQueueRepository.
type fakeQueueRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*marketplace.SyncQueueItem
}

func newFakeQueueRepo() *fakeQueueRepo {
	return &fakeQueueRepo{items: map[uuid.UUID]*marketplace.SyncQueueItem{}}
}

func (r *fakeQueueRepo) Save(ctx context.Context, item *marketplace.SyncQueueItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *item
	r.items[item.ID] = &copied
	return nil
}

func (r *fakeQueueRepo) FindPending(ctx context.Context, credentialID uuid.UUID) ([]marketplace.SyncQueueItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var pending []marketplace.SyncQueueItem
	for _, item := range r.items {
		if item.Pending() {
			pending = append(pending, *item)
		}
	}
	return pending, nil
}

func (r *fakeQueueRepo) MarkSubmitted(ctx context.Context, ids []uuid.UUID, feedID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if item, ok := r.items[id]; ok {
			linked := feedID
			item.SubmittedFeedID = &linked
		}
	}
	return nil
}

var _ marketplace.SyncQueueRepository = (*fakeQueueRepo)(nil)

// fakeInventory is an in-memory InventoryReader.
type fakeInventory struct {
	items []marketplace.InventoryItem
}

func (f *fakeInventory) ListForSync(ctx context.Context, credentialID uuid.UUID) ([]marketplace.InventoryItem, error) {
	return f.items, nil
}

var _ marketplace.InventoryReader = (*fakeInventory)(nil)

// fakeClock drives the orchestrator's injectable time: every sleep advances
// the simulated clock instead of waiting.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	return nil
}
