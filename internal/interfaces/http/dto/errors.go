package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
)

// Input error codes
const (
	// ErrCodeValidation is the base code for validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "ERR_INVALID_JSON"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeConflict is used for general resource conflicts
	ErrCodeConflict = "ERR_CONFLICT"
)

// Sync workflow error codes
const (
	// ErrCodeFeedActive is used when a non-terminal feed blocks a new submission
	ErrCodeFeedActive = "ERR_FEED_ACTIVE"
	// ErrCodeFeedTerminal is used when polling a feed that already finished
	ErrCodeFeedTerminal = "ERR_FEED_TERMINAL"
	// ErrCodeQueueEmpty is used when aggregation finds no pending queue items
	ErrCodeQueueEmpty = "ERR_QUEUE_EMPTY"
	// ErrCodePhaseOrder is used when the quantity phase is requested before
	// the price phase has completed
	ErrCodePhaseOrder = "ERR_PHASE_ORDER"
	// ErrCodeProductTypeMissing is used when a new SKU has no resolvable product type
	ErrCodeProductTypeMissing = "ERR_PRODUCT_TYPE_MISSING"
)

// Upstream platform error codes
const (
	// ErrCodeUpstreamAuth is used when the platform rejects our credentials
	ErrCodeUpstreamAuth = "ERR_UPSTREAM_AUTH"
	// ErrCodeUpstreamThrottled is used when the platform rate limit is exhausted
	ErrCodeUpstreamThrottled = "ERR_UPSTREAM_THROTTLED"
	// ErrCodeUpstreamTimeout is used when the platform request timed out
	ErrCodeUpstreamTimeout = "ERR_UPSTREAM_TIMEOUT"
	// ErrCodeUpstreamRejected is used when the platform rejects the request
	ErrCodeUpstreamRejected = "ERR_UPSTREAM_REJECTED"
)

// Request admission error codes
const (
	// ErrCodeRateLimited is used when our own rate limit is exceeded
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
	// ErrCodeRequestTooLarge is used when a request body exceeds the size cap
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	// General errors
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	// Input errors -> 400 Bad Request
	ErrCodeValidation:  http.StatusBadRequest,
	ErrCodeBadRequest:  http.StatusBadRequest,
	ErrCodeInvalidJSON: http.StatusBadRequest,

	// Resource errors
	ErrCodeNotFound: http.StatusNotFound,
	ErrCodeConflict: http.StatusConflict,

	// Sync workflow errors
	ErrCodeFeedActive:         http.StatusConflict,
	ErrCodeFeedTerminal:       http.StatusConflict,
	ErrCodeQueueEmpty:         http.StatusUnprocessableEntity,
	ErrCodePhaseOrder:         http.StatusUnprocessableEntity,
	ErrCodeProductTypeMissing: http.StatusUnprocessableEntity,

	// Upstream platform errors
	ErrCodeUpstreamAuth:      http.StatusBadGateway,
	ErrCodeUpstreamThrottled: http.StatusBadGateway,
	ErrCodeUpstreamTimeout:   http.StatusGatewayTimeout,
	ErrCodeUpstreamRejected:  http.StatusBadGateway,

	// Request admission
	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
