package spapi

import (
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hadleybricks/backend/internal/domain/marketplace"
)

func TestSubmitFeed_RunsDocumentUploadRegisterSequence(t *testing.T) {
	var uploaded []byte
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("POST /feeds/2021-06-30/documents", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"feedDocumentId":"doc-123","url":"%s/upload"}`, server.URL)
	})
	mux.HandleFunc("PUT /upload", func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("x-amz-access-token"), "pre-signed upload must not carry the api token")
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		uploaded = body
	})
	mux.HandleFunc("POST /feeds/2021-06-30/feeds", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FeedType            string   `json:"feedType"`
			MarketplaceIDs      []string `json:"marketplaceIds"`
			InputFeedDocumentID string   `json:"inputFeedDocumentId"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, FeedTypeListings, req.FeedType)
		assert.Equal(t, "doc-123", req.InputFeedDocumentID)
		fmt.Fprint(w, `{"feedId":"feed-456"}`)
	})

	client, _, _ := newTestClient(t, server.URL)

	payload := []byte(`{"header":{},"messages":[]}`)
	feedID, documentID, err := client.SubmitFeed(context.Background(), FeedTypeListings, payload)
	require.NoError(t, err)
	assert.Equal(t, "feed-456", feedID)
	assert.Equal(t, "doc-123", documentID)
	assert.Equal(t, payload, uploaded)
}

func TestGetFeedStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/feeds/2021-06-30/feeds/feed-456", r.URL.Path)
		fmt.Fprint(w, `{"feedId":"feed-456","processingStatus":"DONE","resultFeedDocumentId":"result-doc"}`)
	}))
	defer server.Close()

	client, _, _ := newTestClient(t, server.URL)

	status, resultDoc, err := client.GetFeedStatus(context.Background(), "feed-456")
	require.NoError(t, err)
	assert.Equal(t, marketplace.RemoteFeedStatusDone, status)
	assert.True(t, status.IsTerminal())
	assert.Equal(t, "result-doc", resultDoc)
}

func TestGetFeedReport_DecompressesGzipDocument(t *testing.T) {
	reportJSON := `{
		"header": {"feedId": "feed-456"},
		"issues": [
			{"messageId": 2, "code": "90220", "severity": "ERROR", "message": "missing attribute", "sku": "LEGO-75192"},
			{"messageId": 3, "code": "99010", "severity": "WARNING", "message": "title normalized", "sku": "LEGO-10294"}
		],
		"summary": {"errors": 1, "warnings": 2, "messagesProcessed": 5, "messagesAccepted": 4, "messagesInvalid": 1}
	}`

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("GET /feeds/2021-06-30/documents/result-doc", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"feedDocumentId":"result-doc","url":"%s/download","compressionAlgorithm":"GZIP"}`, server.URL)
	})
	mux.HandleFunc("GET /download", func(w http.ResponseWriter, r *http.Request) {
		gz := gzip.NewWriter(w)
		_, err := gz.Write([]byte(reportJSON))
		require.NoError(t, err)
		require.NoError(t, gz.Close())
	})

	client, _, _ := newTestClient(t, server.URL)

	parsed, err := client.GetFeedReport(context.Background(), "result-doc")
	require.NoError(t, err)
	assert.Equal(t, 1, parsed.Summary.Errors)
	assert.Equal(t, 4, parsed.Summary.MessagesAccepted)
	require.Len(t, parsed.Issues, 2)
	assert.Equal(t, "LEGO-75192", parsed.Issues[0].SKU)

	issues := parsed.IssuesForSKU("lego-75192")
	require.Len(t, issues, 1)
	assert.Equal(t, "90220", issues[0].Code)
}

func TestGetFeedReport_PlainDocument(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("GET /feeds/2021-06-30/documents/result-doc", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"feedDocumentId":"result-doc","url":"%s/download"}`, server.URL)
	})
	mux.HandleFunc("GET /download", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"summary":{"messagesProcessed":1,"messagesAccepted":1}}`)
	})

	client, _, _ := newTestClient(t, server.URL)

	parsed, err := client.GetFeedReport(context.Background(), "result-doc")
	require.NoError(t, err)
	assert.Equal(t, 1, parsed.Summary.MessagesAccepted)
	assert.Empty(t, parsed.Issues)
}

func TestBuildListingsFeedPayload_PricePhase(t *testing.T) {
	items := []marketplace.AggregatedFeedItem{
		{
			SKU:         "LEGO-75192",
			ASIN:        "B075SDMMMV",
			Price:       decimal.RequireFromString("649.99"),
			Quantity:    4,
			ProductType: "TOY_BUILDING_BLOCK",
		},
		{
			SKU:         "LEGO-21337",
			ASIN:        "B0B9JX9K8V",
			Price:       decimal.RequireFromString("89.99"),
			Quantity:    3,
			IsNewSKU:    true,
			Condition:   marketplace.ConditionNew,
			ProductType: "TOY_BUILDING_BLOCK",
		},
	}

	payload, err := BuildListingsFeedPayload("SELLER1", marketplace.FeedPhasePrice, items)
	require.NoError(t, err)

	var decoded struct {
		Header struct {
			SellerID string `json:"sellerId"`
		} `json:"header"`
		Messages []map[string]any `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	assert.Equal(t, "SELLER1", decoded.Header.SellerID)
	require.Len(t, decoded.Messages, 2)

	assert.Equal(t, float64(1), decoded.Messages[0]["messageId"])
	assert.Equal(t, "PATCH", decoded.Messages[0]["operationType"], "existing SKU price updates are patches")
	assert.Equal(t, float64(2), decoded.Messages[1]["messageId"])
	assert.Equal(t, "UPDATE", decoded.Messages[1]["operationType"], "new SKUs get a full listing")

	// New listings start at quantity zero until the quantity phase runs.
	attrs := decoded.Messages[1]["attributes"].(map[string]any)
	avail := attrs["fulfillment_availability"].([]any)[0].(map[string]any)
	assert.Equal(t, float64(0), avail["quantity"])
}

func TestBuildListingsFeedPayload_QuantityPhase(t *testing.T) {
	items := []marketplace.AggregatedFeedItem{
		{SKU: "LEGO-75192", Quantity: 4, ProductType: "TOY_BUILDING_BLOCK"},
	}

	payload, err := BuildListingsFeedPayload("SELLER1", marketplace.FeedPhaseQuantity, items)
	require.NoError(t, err)

	var decoded struct {
		Messages []struct {
			OperationType string `json:"operationType"`
			Patches       []struct {
				Path  string `json:"path"`
				Value []struct {
					Quantity int64 `json:"quantity"`
				} `json:"value"`
			} `json:"patches"`
		} `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(payload, &decoded))
	require.Len(t, decoded.Messages, 1)
	assert.Equal(t, "PATCH", decoded.Messages[0].OperationType)
	require.Len(t, decoded.Messages[0].Patches, 1)
	assert.Equal(t, "/attributes/fulfillment_availability", decoded.Messages[0].Patches[0].Path)
	assert.Equal(t, int64(4), decoded.Messages[0].Patches[0].Value[0].Quantity)
}

func TestBuildListingsFeedPayload_NewSKUWithoutProductTypeFails(t *testing.T) {
	items := []marketplace.AggregatedFeedItem{
		{SKU: "LEGO-21337", IsNewSKU: true, Price: decimal.RequireFromString("89.99")},
	}
	_, err := BuildListingsFeedPayload("SELLER1", marketplace.FeedPhasePrice, items)
	assert.ErrorIs(t, err, marketplace.ErrProductTypeMissing)
}
