package spapi

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/hadleybricks/backend/internal/domain/marketplace"
)

// Default endpoints for the selling-partner API.
const (
	ProductionEndpoint = "https://sellingpartnerapi-eu.amazon.com"
	SandboxEndpoint    = "https://sandbox.sellingpartnerapi-eu.amazon.com"
	TokenEndpoint      = "https://api.amazon.com/auth/o2/token"
)

// Defaults for the resilient request executor.
const (
	// DefaultTimeoutSeconds is the per-request wall-clock budget
	DefaultTimeoutSeconds = 30
	// DefaultRequestDelay paces steady-state calls
	DefaultRequestDelay = 500 * time.Millisecond
	// DefaultBatchDelay paces low-quota batch endpoints (feeds, pricing)
	DefaultBatchDelay = 2 * time.Second
	// DefaultMaxRetries caps backoff retries for 5xx/network failures
	DefaultMaxRetries = 3
	// DefaultRateLimitWait is used when a 429 carries no Retry-After
	DefaultRateLimitWait = 60 * time.Second
	// DefaultMaxPages caps continuation-token pagination
	DefaultMaxPages = 100
	// MaxQueryWindowDays is the widest date range one orders query accepts
	MaxQueryWindowDays = 179
	// PricingBatchSize is the maximum identifiers per pricing lookup
	PricingBatchSize = 20
	// ProductTypeCacheTTL is how long catalog classifications are cached
	ProductTypeCacheTTL = 180 * 24 * time.Hour
)

// Config validation errors.
var (
	ErrConfigMissingClientID     = errors.New("spapi: client id is required")
	ErrConfigMissingClientSecret = errors.New("spapi: client secret is required")
	ErrConfigMissingRefreshToken = errors.New("spapi: refresh token is required")
	ErrConfigMissingSellerID     = errors.New("spapi: seller id is required")
	ErrConfigMissingMarketplaces = errors.New("spapi: at least one marketplace id is required")
)

// Config holds the connection settings for one seller credential set.
type Config struct {
	CredentialID   uuid.UUID
	ClientID       string
	ClientSecret   string
	RefreshToken   string
	SellerID       string
	MarketplaceIDs []string

	// Endpoint is the API base URL; AuthEndpoint is the LWA token endpoint
	Endpoint     string
	AuthEndpoint string
	IsSandbox    bool

	TimeoutSeconds int
	RequestDelay   time.Duration
	BatchDelay     time.Duration
	MaxRetries     int
	RateLimitWait  time.Duration
	MaxPages       int
}

// NewConfig creates a production configuration for the given credential set.
func NewConfig(clientID, clientSecret, refreshToken, sellerID string, marketplaceIDs []string) *Config {
	return &Config{
		CredentialID:   uuid.New(),
		ClientID:       clientID,
		ClientSecret:   clientSecret,
		RefreshToken:   refreshToken,
		SellerID:       sellerID,
		MarketplaceIDs: marketplaceIDs,
		Endpoint:       ProductionEndpoint,
		AuthEndpoint:   TokenEndpoint,
	}
}

// NewSandboxConfig creates a configuration pointed at the sandbox endpoint.
func NewSandboxConfig(clientID, clientSecret, refreshToken, sellerID string, marketplaceIDs []string) *Config {
	cfg := NewConfig(clientID, clientSecret, refreshToken, sellerID, marketplaceIDs)
	cfg.Endpoint = SandboxEndpoint
	cfg.IsSandbox = true
	return cfg
}

// Validate checks required fields and fills in defaults.
func (c *Config) Validate() error {
	if c.ClientID == "" {
		return ErrConfigMissingClientID
	}
	if c.ClientSecret == "" {
		return ErrConfigMissingClientSecret
	}
	if c.RefreshToken == "" {
		return ErrConfigMissingRefreshToken
	}
	if c.SellerID == "" {
		return ErrConfigMissingSellerID
	}
	if len(c.MarketplaceIDs) == 0 {
		return ErrConfigMissingMarketplaces
	}
	if c.CredentialID == uuid.Nil {
		c.CredentialID = uuid.New()
	}
	if c.Endpoint == "" {
		c.Endpoint = ProductionEndpoint
	}
	if c.AuthEndpoint == "" {
		c.AuthEndpoint = TokenEndpoint
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if c.RequestDelay <= 0 {
		c.RequestDelay = DefaultRequestDelay
	}
	if c.BatchDelay <= 0 {
		c.BatchDelay = DefaultBatchDelay
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = DefaultMaxRetries
	}
	if c.RateLimitWait <= 0 {
		c.RateLimitWait = DefaultRateLimitWait
	}
	if c.MaxPages <= 0 {
		c.MaxPages = DefaultMaxPages
	}
	return nil
}

// Credential returns the domain view of this configuration.
func (c *Config) Credential() marketplace.Credential {
	return marketplace.Credential{
		ID:             c.CredentialID,
		ClientID:       c.ClientID,
		ClientSecret:   c.ClientSecret,
		RefreshToken:   c.RefreshToken,
		SellerID:       c.SellerID,
		MarketplaceIDs: c.MarketplaceIDs,
	}
}
