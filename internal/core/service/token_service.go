package service

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/storefront/storefront-api/internal/core/domain"
	"github.com/storefront/storefront-api/internal/pkg/metrics"
)

// jwtClaims is the wire shape of domain.TokenClaims.
type jwtClaims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	Type  string `json:"type"`
	jwt.RegisteredClaims
}

// JWTService implements ports.TokenService with HS256-signed JWTs.
type JWTService struct {
	secret []byte
	now    func() time.Time
}

// NewJWTService returns a token service signing with secret. An empty secret
// is accepted here and reported by Issue, so misconfiguration surfaces on the
// first token rather than at import time.
func NewJWTService(secret string) *JWTService {
	return &JWTService{secret: []byte(secret), now: time.Now}
}

// Issue signs claims with an expiry of now+ttl. Every token gets a fresh jti
// so two tokens minted in the same second for the same principal differ.
func (s *JWTService) Issue(claims domain.TokenClaims, ttl time.Duration) (string, error) {
	if len(s.secret) == 0 {
		return "", domain.ErrSigningKeyMissing
	}

	now := s.now()
	wire := jwtClaims{
		Email: claims.Email,
		Role:  claims.Role,
		Type:  string(claims.Type),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, wire).SignedString(s.secret)
	if err != nil {
		return "", err
	}
	metrics.TokensIssuedTotal.WithLabelValues(string(claims.Type)).Inc()
	return signed, nil
}

// Verify parses and validates token. Every failure (malformed, bad signature,
// unexpected algorithm, expired) collapses into domain.ErrInvalidToken.
func (s *JWTService) Verify(token string) (*domain.TokenClaims, error) {
	if len(s.secret) == 0 {
		return nil, domain.ErrInvalidToken
	}

	var wire jwtClaims
	parsed, err := jwt.ParseWithClaims(token, &wire, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !parsed.Valid {
		return nil, domain.ErrInvalidToken
	}

	claims := &domain.TokenClaims{
		Subject: wire.Subject,
		Email:   wire.Email,
		Role:    wire.Role,
		Type:    domain.TokenType(wire.Type),
		ID:      wire.ID,
	}
	if wire.IssuedAt != nil {
		claims.IssuedAt = wire.IssuedAt.Time
	}
	if wire.ExpiresAt != nil {
		claims.ExpiresAt = wire.ExpiresAt.Time
	}
	return claims, nil
}
