package ports

import (
	"time"

	"github.com/storefront/storefront-api/internal/core/domain"
)

// TokenService issues and verifies signed, expiring tokens.
type TokenService interface {
	// Issue signs claims with an expiry of now+ttl.
	Issue(claims domain.TokenClaims, ttl time.Duration) (string, error)
	// Verify returns the claims of a valid token, or domain.ErrInvalidToken.
	Verify(token string) (*domain.TokenClaims, error)
}
