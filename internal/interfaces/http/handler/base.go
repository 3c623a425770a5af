package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hadleybricks/backend/internal/domain/marketplace"
	"github.com/hadleybricks/backend/internal/interfaces/http/dto"
)

// RequestIDKey is the context key for request ID
const RequestIDKey = "request_id"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	if id := c.GetHeader("X-Request-ID"); id != "" {
		return id
	}
	return ""
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Accepted sends a 202 accepted response for long-running submissions
func (h *BaseHandler) Accepted(c *gin.Context, data any) {
	c.JSON(http.StatusAccepted, dto.NewSuccessResponse(data))
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	requestID := getRequestID(c)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// ErrorWithCode sends an error response, deriving status code from error code
func (h *BaseHandler) ErrorWithCode(c *gin.Context, code, message string) {
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Conflict sends a 409 conflict response
func (h *BaseHandler) Conflict(c *gin.Context, message string) {
	h.Error(c, http.StatusConflict, dto.ErrCodeConflict, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, details []dto.ValidationDetail) {
	requestID := getRequestID(c)
	c.JSON(http.StatusBadRequest, dto.NewValidationErrorResponse(
		"Request validation failed",
		requestID,
		details,
	))
}

// errorCodeFor maps domain and platform errors to API error codes.
func errorCodeFor(err error) string {
	switch {
	case errors.Is(err, marketplace.ErrFeedNotFound),
		errors.Is(err, marketplace.ErrQueueItemNotFound),
		errors.Is(err, marketplace.ErrListingNotFound):
		return dto.ErrCodeNotFound
	case errors.Is(err, marketplace.ErrFeedAlreadyActive):
		return dto.ErrCodeFeedActive
	case errors.Is(err, marketplace.ErrFeedTerminal):
		return dto.ErrCodeFeedTerminal
	case errors.Is(err, marketplace.ErrQueueEmpty):
		return dto.ErrCodeQueueEmpty
	case errors.Is(err, marketplace.ErrPricePhaseNotDone):
		return dto.ErrCodePhaseOrder
	case errors.Is(err, marketplace.ErrProductTypeMissing):
		return dto.ErrCodeProductTypeMissing
	}

	var authErr *marketplace.AuthError
	if errors.As(err, &authErr) {
		return dto.ErrCodeUpstreamAuth
	}
	var rateErr *marketplace.RateLimitError
	if errors.As(err, &rateErr) {
		return dto.ErrCodeUpstreamThrottled
	}
	var timeoutErr *marketplace.TimeoutError
	if errors.As(err, &timeoutErr) {
		return dto.ErrCodeUpstreamTimeout
	}
	var apiErr *marketplace.APIError
	if errors.As(err, &apiErr) {
		return dto.ErrCodeUpstreamRejected
	}

	return dto.ErrCodeInternal
}

// HandleError converts domain and platform errors to HTTP responses
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	code := errorCodeFor(err)
	message := err.Error()
	if code == dto.ErrCodeInternal {
		// Do not leak internals for unclassified failures.
		message = "An unexpected error occurred"
	}
	h.Error(c, dto.GetHTTPStatus(code), code, message)
}
