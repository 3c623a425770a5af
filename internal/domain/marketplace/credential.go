package marketplace

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TokenExpiryBuffer is the minimum remaining life an access token must have
// to be handed out. Tokens closer to expiry than this are refreshed first.
const TokenExpiryBuffer = 5 * time.Minute

// Credential holds one OAuth2 refresh-token credential set for a seller
// account. Immutable once created; rotation happens out-of-band by creating
// a replacement credential.
type Credential struct {
	// ID is the local identifier for this credential set
	ID uuid.UUID
	// ClientID is the OAuth2 client identifier
	ClientID string
	// ClientSecret is the OAuth2 client secret
	ClientSecret string
	// RefreshToken is the long-lived refresh token
	RefreshToken string
	// SellerID is the marketplace seller/merchant account identifier
	SellerID string
	// MarketplaceIDs are the target marketplaces for this seller
	MarketplaceIDs []string
}

// Validate checks that all required credential fields are present.
func (c *Credential) Validate() error {
	if c.ClientID == "" || c.ClientSecret == "" {
		return errors.New("marketplace: client id and secret are required")
	}
	if c.RefreshToken == "" {
		return errors.New("marketplace: refresh token is required")
	}
	if c.SellerID == "" {
		return errors.New("marketplace: seller id is required")
	}
	if len(c.MarketplaceIDs) == 0 {
		return errors.New("marketplace: at least one marketplace id is required")
	}
	return nil
}

// AccessToken is a short-lived token minted from a Credential's refresh
// token. Owned exclusively by one credential's token manager; never shared
// across credentials.
type AccessToken struct {
	// Token is the bearer token value
	Token string
	// ExpiresAt is the absolute expiry time
	ExpiresAt time.Time
}

// Usable reports whether the token still has more than buffer of life left
// at the given instant. A token inside the buffer must not be handed out.
func (t AccessToken) Usable(now time.Time, buffer time.Duration) bool {
	return t.Token != "" && t.ExpiresAt.After(now.Add(buffer))
}

// RemainingLife returns how long the token remains valid from now.
// Negative when already expired.
func (t AccessToken) RemainingLife(now time.Time) time.Duration {
	return t.ExpiresAt.Sub(now)
}
