package spapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/hadleybricks/backend/internal/domain/marketplace"
)

// maxResponseSize limits response bodies to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024

// tokenProvider is what the executor needs from the token manager.
type tokenProvider interface {
	GetToken(ctx context.Context) (string, error)
	Invalidate()
}

// Client is the resilient request executor for the selling-partner API.
// Every call attaches a fresh access token, paces itself against the
// steady-state rate limit, and retries per the error taxonomy: 429 waits
// per Retry-After, 401/403 invalidates the token and retries once,
// 5xx/network errors back off exponentially up to the attempt ceiling.
type Client struct {
	config     *Config
	httpClient *http.Client
	tokens     tokenProvider
	cache      marketplace.ProductTypeCache
	logger     *zap.Logger

	// sleep is injectable so tests can simulate waits without real delay
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a client for one credential set. The product-type
// cache may be nil; catalog lookups then always hit the API.
func NewClient(config *Config, tokens tokenProvider, cache marketplace.ProductTypeCache, logger *zap.Logger) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		tokens: tokens,
		cache:  cache,
		logger: logger,
		sleep:  sleepContext,
	}, nil
}

// sleepContext waits for d or until the context is cancelled.
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
// Request execution
// ---------------------------------------------------------------------------

// Do executes one mutating API call with pacing, auth and retry handling.
// Mutating calls are not safe to repeat blindly, so rate limit waits are
// bounded by the configured attempt ceiling.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	return c.execute(ctx, method, path, query, body, false)
}

// Get executes one idempotent read. Reads (including pagination loops) are
// safe to repeat, so rate limit waits are retried without an attempt
// ceiling; every wait is logged and the context bounds the total time.
func (c *Client) Get(ctx context.Context, path string, query url.Values) ([]byte, error) {
	return c.execute(ctx, http.MethodGet, path, query, nil, true)
}

func (c *Client) execute(ctx context.Context, method, path string, query url.Values, body []byte, idempotent bool) ([]byte, error) {
	if err := c.sleep(ctx, c.config.RequestDelay); err != nil {
		return nil, err
	}

	retryWait := backoff.NewExponentialBackOff()
	retryWait.InitialInterval = time.Second
	retryWait.Multiplier = 2
	retryWait.RandomizationFactor = 0
	retryWait.Reset()

	authRetried := false
	attempts := 0
	for {
		respBody, err := c.doOnce(ctx, method, path, query, body)
		if err == nil {
			return respBody, nil
		}

		var authErr *marketplace.AuthError
		if errors.As(err, &authErr) {
			if authRetried {
				return nil, err
			}
			authRetried = true
			c.tokens.Invalidate()
			c.logger.Warn("auth failure, refreshing token and retrying once",
				zap.String("path", path),
				zap.Int("status", authErr.StatusCode),
			)
			continue
		}

		var rateErr *marketplace.RateLimitError
		if errors.As(err, &rateErr) {
			if !idempotent && attempts >= c.config.MaxRetries {
				return nil, err
			}
			attempts++
			c.logger.Warn("rate limited, waiting before retry",
				zap.String("path", path),
				zap.Duration("retry_after", rateErr.RetryAfter),
				zap.Int("attempt", attempts),
				zap.Bool("idempotent", idempotent),
			)
			if err := c.sleep(ctx, rateErr.RetryAfter); err != nil {
				return nil, err
			}
			continue
		}

		var timeoutErr *marketplace.TimeoutError
		if errors.As(err, &timeoutErr) {
			if attempts >= c.config.MaxRetries {
				return nil, err
			}
			attempts++
			wait := retryWait.NextBackOff()
			if wait == backoff.Stop {
				return nil, err
			}
			c.logger.Warn("transient failure, backing off",
				zap.String("path", path),
				zap.Duration("wait", wait),
				zap.Int("attempt", attempts),
				zap.Error(err),
			)
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}

		// Non-retryable (4xx other than 401/403/429).
		return nil, err
	}
}

// errorEnvelope is the standard platform error response shape.
type errorEnvelope struct {
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Details string `json:"details"`
	} `json:"errors"`
}

// doOnce performs a single HTTP exchange and classifies the outcome.
func (c *Client) doOnce(ctx context.Context, method, path string, query url.Values, body []byte) ([]byte, error) {
	endpoint := c.config.Endpoint + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	started := time.Now()
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("spapi: failed to build request: %w", err)
	}

	token, err := c.tokens.GetToken(ctx)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-amz-access-token", token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &marketplace.TimeoutError{Elapsed: time.Since(started), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &marketplace.TimeoutError{Elapsed: time.Since(started), Err: err}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return respBody, nil

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &marketplace.AuthError{
			StatusCode: resp.StatusCode,
			Message:    joinRemoteErrors(respBody),
		}

	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &marketplace.RateLimitError{
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After"), c.config.RateLimitWait),
			Message:    joinRemoteErrors(respBody),
		}

	case resp.StatusCode >= 500:
		// Server errors are retryable like network failures.
		return nil, &marketplace.TimeoutError{
			Elapsed: time.Since(started),
			Err:     fmt.Errorf("spapi: HTTP %d: %s", resp.StatusCode, joinRemoteErrors(respBody)),
		}

	default:
		apiErr := &marketplace.APIError{StatusCode: resp.StatusCode}
		var envelope errorEnvelope
		if err := json.Unmarshal(respBody, &envelope); err == nil && len(envelope.Errors) > 0 {
			for _, e := range envelope.Errors {
				apiErr.Messages = append(apiErr.Messages, fmt.Sprintf("%s: %s", e.Code, e.Message))
			}
		} else {
			apiErr.Messages = []string{string(respBody)}
		}
		return nil, apiErr
	}
}

// joinRemoteErrors extracts a readable message from an error envelope.
func joinRemoteErrors(body []byte) string {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Errors) == 0 {
		return string(body)
	}
	message := envelope.Errors[0].Message
	for _, e := range envelope.Errors[1:] {
		message += "; " + e.Message
	}
	return message
}

// parseRetryAfter reads a Retry-After header in seconds, falling back to
// the configured default wait.
func parseRetryAfter(header string, fallback time.Duration) time.Duration {
	if header == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// ---------------------------------------------------------------------------
// Pagination
// ---------------------------------------------------------------------------

// fetchPage fetches one page and returns the next continuation token, empty
// when the listing is exhausted.
type fetchPage[T any] func(ctx context.Context, nextToken string) (items []T, next string, err error)

// collectPages follows a continuation token until absent, capping at
// maxPages. Hitting the cap logs a warning and returns everything fetched
// so far rather than failing.
func collectPages[T any](ctx context.Context, logger *zap.Logger, maxPages int, fetch fetchPage[T]) ([]T, error) {
	var all []T
	nextToken := ""
	for page := 1; ; page++ {
		if page > maxPages {
			logger.Warn("pagination cap reached, returning accumulated pages",
				zap.Int("max_pages", maxPages),
				zap.Int("items", len(all)),
			)
			return all, nil
		}
		items, next, err := fetch(ctx, nextToken)
		if err != nil {
			return nil, err
		}
		all = append(all, items...)
		if next == "" {
			return all, nil
		}
		nextToken = next
	}
}

// ---------------------------------------------------------------------------
// Date-range chunking
// ---------------------------------------------------------------------------

// DateRange is one half-open query window [Start, End].
type DateRange struct {
	Start time.Time
	End   time.Time
}

// ChunkDateRange splits [start, end] into consecutive, gap-free sub-ranges
// of at most window each, covering the input exactly. Adjacent chunks share
// boundary instants.
func ChunkDateRange(start, end time.Time, window time.Duration) []DateRange {
	if !start.Before(end) {
		return nil
	}
	var chunks []DateRange
	for cursor := start; cursor.Before(end); {
		chunkEnd := cursor.Add(window)
		if chunkEnd.After(end) {
			chunkEnd = end
		}
		chunks = append(chunks, DateRange{Start: cursor, End: chunkEnd})
		cursor = chunkEnd
	}
	return chunks
}
