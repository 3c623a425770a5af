package spapi

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/hadleybricks/backend/internal/domain/marketplace"
)

const feedsBasePath = "/feeds/2021-06-30"

// FeedTypeListings is the JSON listings feed type used for both phases.
const FeedTypeListings = "JSON_LISTINGS_FEED"

const feedContentType = "application/json; charset=UTF-8"

var _ marketplace.API = (*Client)(nil)

// SubmitFeed runs the three-step submission sequence: create an upload
// document, upload the payload to the pre-signed URL, then register the
// feed. The batch delay applies up front because the feeds quota is low.
func (c *Client) SubmitFeed(ctx context.Context, feedType string, payload []byte) (string, string, error) {
	if err := c.sleep(ctx, c.config.BatchDelay); err != nil {
		return "", "", err
	}

	docBody, err := json.Marshal(map[string]string{"contentType": feedContentType})
	if err != nil {
		return "", "", fmt.Errorf("spapi: failed to encode document request: %w", err)
	}
	respBody, err := c.Do(ctx, http.MethodPost, feedsBasePath+"/documents", nil, docBody)
	if err != nil {
		return "", "", err
	}
	var doc createFeedDocumentResponse
	if err := json.Unmarshal(respBody, &doc); err != nil {
		return "", "", fmt.Errorf("%w: create document: %v", marketplace.ErrInvalidResponse, err)
	}
	if doc.FeedDocumentID == "" || doc.URL == "" {
		return "", "", fmt.Errorf("%w: create document returned empty identifiers", marketplace.ErrInvalidResponse)
	}

	if err := c.uploadDocument(ctx, doc.URL, payload); err != nil {
		return "", "", err
	}

	feedBody, err := json.Marshal(map[string]any{
		"feedType":            feedType,
		"marketplaceIds":      c.config.MarketplaceIDs,
		"inputFeedDocumentId": doc.FeedDocumentID,
	})
	if err != nil {
		return "", "", fmt.Errorf("spapi: failed to encode feed request: %w", err)
	}
	respBody, err = c.Do(ctx, http.MethodPost, feedsBasePath+"/feeds", nil, feedBody)
	if err != nil {
		return "", "", err
	}
	var created createFeedResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		return "", "", fmt.Errorf("%w: create feed: %v", marketplace.ErrInvalidResponse, err)
	}
	if created.FeedID == "" {
		return "", "", fmt.Errorf("%w: create feed returned empty feed id", marketplace.ErrInvalidResponse)
	}
	return created.FeedID, doc.FeedDocumentID, nil
}

// uploadDocument PUTs the payload to the pre-signed URL. The URL embeds its
// own authorization, so no access token is attached.
func (c *Client) uploadDocument(ctx context.Context, uploadURL string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, uploadURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("spapi: failed to build upload request: %w", err)
	}
	req.Header.Set("Content-Type", feedContentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &marketplace.TimeoutError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		return &marketplace.APIError{
			StatusCode: resp.StatusCode,
			Messages:   []string{"document upload failed: " + string(body)},
		}
	}
	return nil
}

// GetFeedStatus fetches the platform processing status for a feed.
func (c *Client) GetFeedStatus(ctx context.Context, feedID string) (marketplace.RemoteFeedStatus, string, error) {
	respBody, err := c.Get(ctx, feedsBasePath+"/feeds/"+feedID, nil)
	if err != nil {
		return "", "", err
	}
	var parsed getFeedResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", "", fmt.Errorf("%w: get feed: %v", marketplace.ErrInvalidResponse, err)
	}
	return marketplace.RemoteFeedStatus(parsed.ProcessingStatus), parsed.ResultFeedDocumentID, nil
}

// GetFeedReport downloads the result document and parses the processing
// report. Gzip-compressed documents are decompressed transparently.
func (c *Client) GetFeedReport(ctx context.Context, resultDocumentID string) (*marketplace.FeedReport, error) {
	respBody, err := c.Get(ctx, feedsBasePath+"/documents/"+resultDocumentID, nil)
	if err != nil {
		return nil, err
	}
	var doc getFeedDocumentResponse
	if err := json.Unmarshal(respBody, &doc); err != nil {
		return nil, fmt.Errorf("%w: get document: %v", marketplace.ErrInvalidResponse, err)
	}
	if doc.URL == "" {
		return nil, fmt.Errorf("%w: get document returned empty url", marketplace.ErrInvalidResponse)
	}

	raw, err := c.downloadDocument(ctx, doc.URL, doc.CompressionAlgorithm)
	if err != nil {
		return nil, err
	}
	return parseFeedReport(raw)
}

func (c *Client) downloadDocument(ctx context.Context, downloadURL, compression string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("spapi: failed to build download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &marketplace.TimeoutError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		return nil, &marketplace.APIError{
			StatusCode: resp.StatusCode,
			Messages:   []string{"document download failed: " + string(body)},
		}
	}

	var reader io.Reader = io.LimitReader(resp.Body, maxResponseSize)
	if compression == "GZIP" {
		gz, err := gzip.NewReader(reader)
		if err != nil {
			return nil, fmt.Errorf("%w: gzip document: %v", marketplace.ErrInvalidResponse, err)
		}
		defer gz.Close()
		reader = gz
	}
	return io.ReadAll(reader)
}

// parseFeedReport maps a JSON listings feed result document onto the domain
// report shape.
func parseFeedReport(raw []byte) (*marketplace.FeedReport, error) {
	var doc feedReportDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: feed report: %v", marketplace.ErrInvalidResponse, err)
	}

	report := &marketplace.FeedReport{
		Summary: marketplace.FeedReportSummary{
			Errors:            doc.Summary.Errors,
			Warnings:          doc.Summary.Warnings,
			MessagesProcessed: doc.Summary.MessagesProcessed,
			MessagesAccepted:  doc.Summary.MessagesAccepted,
			MessagesInvalid:   doc.Summary.MessagesInvalid,
		},
	}
	for _, issue := range doc.Issues {
		report.Issues = append(report.Issues, marketplace.FeedIssue{
			MessageID: issue.MessageID,
			Code:      issue.Code,
			Severity:  issue.Severity,
			Message:   issue.Message,
			SKU:       issue.SKU,
		})
	}
	return report, nil
}

// ---------------------------------------------------------------------------
// Feed payload construction
// ---------------------------------------------------------------------------

// BuildListingsFeedPayload encodes one phase of aggregated items as a JSON
// listings feed. Message ids are 1-based and follow item order so report
// issues can be mapped back to SKUs.
func BuildListingsFeedPayload(sellerID string, phase marketplace.FeedPhase, items []marketplace.AggregatedFeedItem) ([]byte, error) {
	if !phase.IsValid() {
		return nil, fmt.Errorf("spapi: invalid feed phase %q", phase)
	}

	messages := make([]map[string]any, 0, len(items))
	for i, item := range items {
		message, err := buildFeedMessage(i+1, phase, item)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}

	return json.Marshal(map[string]any{
		"header": map[string]any{
			"sellerId": sellerID,
			"version":  "2.0",
		},
		"messages": messages,
	})
}

func buildFeedMessage(messageID int, phase marketplace.FeedPhase, item marketplace.AggregatedFeedItem) (map[string]any, error) {
	switch phase {
	case marketplace.FeedPhasePrice:
		if item.IsNewSKU {
			if item.ProductType == "" {
				return nil, fmt.Errorf("%w: %s", marketplace.ErrProductTypeMissing, item.SKU)
			}
			// New SKUs get a full listing with quantity zero; stock is only
			// exposed once the quantity phase runs after price verification.
			return map[string]any{
				"messageId":     messageID,
				"sku":           item.SKU,
				"operationType": "UPDATE",
				"productType":   item.ProductType,
				"attributes": map[string]any{
					"condition_type": []map[string]any{
						{"value": conditionAttributeValue(item.Condition)},
					},
					"merchant_suggested_asin": []map[string]any{
						{"value": item.ASIN},
					},
					"purchasable_offer": []map[string]any{
						{
							"our_price": []map[string]any{
								{"schedule": []map[string]any{{"value_with_tax": item.Price}}},
							},
						},
					},
					"fulfillment_availability": []map[string]any{
						{"fulfillment_channel_code": "DEFAULT", "quantity": 0},
					},
				},
			}, nil
		}
		return map[string]any{
			"messageId":     messageID,
			"sku":           item.SKU,
			"operationType": "PATCH",
			"productType":   item.ProductType,
			"patches": []map[string]any{
				{
					"op":   "replace",
					"path": "/attributes/purchasable_offer",
					"value": []map[string]any{
						{
							"our_price": []map[string]any{
								{"schedule": []map[string]any{{"value_with_tax": item.Price}}},
							},
						},
					},
				},
			},
		}, nil

	case marketplace.FeedPhaseQuantity:
		return map[string]any{
			"messageId":     messageID,
			"sku":           item.SKU,
			"operationType": "PATCH",
			"productType":   item.ProductType,
			"patches": []map[string]any{
				{
					"op":   "replace",
					"path": "/attributes/fulfillment_availability",
					"value": []map[string]any{
						{"fulfillment_channel_code": "DEFAULT", "quantity": item.Quantity},
					},
				},
			},
		}, nil

	default:
		return nil, fmt.Errorf("spapi: invalid feed phase %q", phase)
	}
}

// conditionAttributeValue maps the condition enum onto the platform's
// listing attribute vocabulary.
func conditionAttributeValue(condition marketplace.ItemCondition) string {
	switch condition {
	case marketplace.ConditionNew:
		return "new_new"
	case marketplace.ConditionUsedLikeNew:
		return "used_like_new"
	case marketplace.ConditionUsedGood:
		return "used_good"
	case marketplace.ConditionUsedAccept:
		return "used_acceptable"
	case marketplace.ConditionCollectible:
		return "collectible_like_new"
	default:
		return "new_new"
	}
}
