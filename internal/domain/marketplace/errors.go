package marketplace

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// Credential / token errors
	ErrCredentialNotConfigured = errors.New("marketplace: credential not configured")
	ErrTokenNotFound           = errors.New("marketplace: cached access token not found")

	// Platform errors
	ErrInvalidResponse = errors.New("marketplace: invalid platform response")
	ErrListingNotFound = errors.New("marketplace: remote listing not found")

	// Feed errors
	ErrFeedNotFound      = errors.New("marketplace: sync feed not found")
	ErrFeedAlreadyActive = errors.New("marketplace: a non-terminal feed already exists for this credential and phase")
	ErrFeedTerminal      = errors.New("marketplace: feed is already in a terminal state")
	ErrInvalidTransition = errors.New("marketplace: invalid feed status transition")
	ErrPricePhaseNotDone = errors.New("marketplace: price phase must complete before quantity phase")

	// Aggregation errors
	ErrQueueItemNotFound  = errors.New("marketplace: sync queue item not found")
	ErrQueueEmpty         = errors.New("marketplace: no pending sync queue items")
	ErrProductTypeMissing = errors.New("marketplace: product type not resolved for new SKU")
)

// AuthError indicates the platform rejected our credentials (401/403).
// The first occurrence triggers a token refresh and a single retry; a
// second occurrence is terminal.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("marketplace: authentication failed (HTTP %d): %s", e.StatusCode, e.Message)
}

// RateLimitError indicates the platform throttled the request (429).
// RetryAfter carries the wait the platform asked for, or the default.
type RateLimitError struct {
	RetryAfter time.Duration
	Message    string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("marketplace: rate limited, retry after %s: %s", e.RetryAfter, e.Message)
}

// APIError is a non-retryable platform error (4xx other than 401/403/429).
// Messages holds the remote error messages, joined for display.
type APIError struct {
	StatusCode int
	Messages   []string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("marketplace: platform request failed (HTTP %d): %s", e.StatusCode, strings.Join(e.Messages, "; "))
}

// TimeoutError indicates the request exceeded its wall-clock budget or the
// network failed. Retryable with backoff up to the attempt ceiling.
type TimeoutError struct {
	Elapsed time.Duration
	Err     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("marketplace: request timed out after %s: %v", e.Elapsed, e.Err)
}

// Unwrap returns the underlying network error.
func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the error class permits retrying the same
// request. Auth failures are retried once via token refresh by the request
// executor itself and count as non-retryable here.
func IsRetryable(err error) bool {
	var rateLimit *RateLimitError
	if errors.As(err, &rateLimit) {
		return true
	}
	var timeout *TimeoutError
	return errors.As(err, &timeout)
}
