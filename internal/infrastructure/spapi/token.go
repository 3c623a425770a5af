package spapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/hadleybricks/backend/internal/domain/marketplace"
)

// maxTokenResponseSize limits the token endpoint response body size.
const maxTokenResponseSize = 64 * 1024

// TokenManager owns the cached access token for one credential set. It
// hands out the cached token while more than the expiry buffer remains and
// refreshes it otherwise, collapsing concurrent refreshes into a single
// in-flight exchange.
type TokenManager struct {
	config     *Config
	httpClient *http.Client
	store      marketplace.TokenStore
	logger     *zap.Logger

	mu     sync.RWMutex
	cached marketplace.AccessToken

	group singleflight.Group
	now   func() time.Time
}

// NewTokenManager creates a token manager for the given configuration.
// The store may be nil; persistence is then skipped.
func NewTokenManager(config *Config, store marketplace.TokenStore, logger *zap.Logger) (*TokenManager, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &TokenManager{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		store:  store,
		logger: logger,
		now:    time.Now,
	}, nil
}

// GetToken returns a usable access token, refreshing first when the cached
// token is within the expiry buffer. Concurrent callers share one refresh.
func (m *TokenManager) GetToken(ctx context.Context) (string, error) {
	m.mu.RLock()
	cached := m.cached
	m.mu.RUnlock()

	if cached.Usable(m.now(), marketplace.TokenExpiryBuffer) {
		return cached.Token, nil
	}

	value, err, _ := m.group.Do("refresh", func() (any, error) {
		// Another caller may have refreshed while we waited on the group.
		m.mu.RLock()
		current := m.cached
		m.mu.RUnlock()
		if current.Usable(m.now(), marketplace.TokenExpiryBuffer) {
			return current.Token, nil
		}

		token, err := m.refresh(ctx)
		if err != nil {
			return "", err
		}

		m.mu.Lock()
		m.cached = token
		m.mu.Unlock()

		if m.store != nil {
			if err := m.store.Store(ctx, m.config.CredentialID, token); err != nil {
				m.logger.Warn("failed to persist access token",
					zap.String("credential_id", m.config.CredentialID.String()),
					zap.Error(err),
				)
			}
		}
		return token.Token, nil
	})
	if err != nil {
		return "", err
	}
	return value.(string), nil
}

// Invalidate clears the cached token so the next GetToken forces a refresh.
// Called by the request executor on 401/403 responses.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	m.cached = marketplace.AccessToken{}
	m.mu.Unlock()

	if m.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.store.Delete(ctx, m.config.CredentialID); err != nil {
			m.logger.Warn("failed to delete persisted access token",
				zap.String("credential_id", m.config.CredentialID.String()),
				zap.Error(err),
			)
		}
	}
}

// tokenResponse is the wire shape of the OAuth2 refresh grant response.
type tokenResponse struct {
	AccessToken      string `json:"access_token"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// refresh performs the OAuth2 refresh-token grant exchange.
func (m *TokenManager) refresh(ctx context.Context) (marketplace.AccessToken, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", m.config.RefreshToken)
	form.Set("client_id", m.config.ClientID)
	form.Set("client_secret", m.config.ClientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.config.AuthEndpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return marketplace.AccessToken{}, fmt.Errorf("spapi: failed to build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return marketplace.AccessToken{}, &marketplace.TimeoutError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponseSize))
	if err != nil {
		return marketplace.AccessToken{}, fmt.Errorf("spapi: failed to read token response: %w", err)
	}

	var parsed tokenResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return marketplace.AccessToken{}, fmt.Errorf("%w: %v", marketplace.ErrInvalidResponse, err)
	}

	if resp.StatusCode != http.StatusOK || parsed.AccessToken == "" {
		message := parsed.ErrorDescription
		if message == "" {
			message = parsed.Error
		}
		return marketplace.AccessToken{}, &marketplace.AuthError{
			StatusCode: resp.StatusCode,
			Message:    message,
		}
	}

	token := marketplace.AccessToken{
		Token:     parsed.AccessToken,
		ExpiresAt: m.now().Add(time.Duration(parsed.ExpiresIn) * time.Second),
	}

	m.logger.Debug("refreshed access token",
		zap.String("credential_id", m.config.CredentialID.String()),
		zap.Time("expires_at", token.ExpiresAt),
	)
	return token, nil
}
