package service

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/storefront/storefront-api/internal/core/domain"
)

func TestJWTService_IssueVerifyRoundTrip(t *testing.T) {
	svc := NewJWTService("secret")
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	token, err := svc.Issue(domain.TokenClaims{Subject: "u1", Email: "ana@example.com", Role: "user", Type: domain.TokenAccess}, 15*time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.Subject != "u1" || claims.Email != "ana@example.com" || claims.Role != "user" || claims.Type != domain.TokenAccess {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if claims.ID == "" {
		t.Fatalf("expected a jti")
	}
	if !claims.ExpiresAt.Equal(now.Add(15 * time.Minute)) {
		t.Fatalf("unexpected expiry %s", claims.ExpiresAt)
	}
}

func TestJWTService_IssueGivesDistinctTokens(t *testing.T) {
	svc := NewJWTService("secret")
	claims := domain.TokenClaims{Subject: "u1", Type: domain.TokenRefresh}

	a, err := svc.Issue(claims, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	b, err := svc.Issue(claims, time.Hour)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if a == b {
		t.Fatalf("two tokens for the same claims must differ")
	}
}

func TestJWTService_MissingSecret(t *testing.T) {
	svc := NewJWTService("")
	if _, err := svc.Issue(domain.TokenClaims{Subject: "u1"}, time.Minute); !errors.Is(err, domain.ErrSigningKeyMissing) {
		t.Fatalf("expected ErrSigningKeyMissing, got %v", err)
	}
}

func TestJWTService_VerifyFailures(t *testing.T) {
	svc := NewJWTService("secret")
	other := NewJWTService("other-secret")

	expired, err := svc.Issue(domain.TokenClaims{Subject: "u1", Type: domain.TokenAccess}, -time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	foreign, err := other.Issue(domain.TokenClaims{Subject: "u1", Type: domain.TokenAccess}, time.Minute)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none: %v", err)
	}
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"sub": "u1",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign hs512: %v", err)
	}
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "u1"}).SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	cases := map[string]string{
		"malformed":      "not.a.jwt",
		"expired":        expired,
		"bad signature":  foreign,
		"alg none":       noneAlg,
		"unexpected alg": hs512,
		"missing exp":    noExp,
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := svc.Verify(token); !errors.Is(err, domain.ErrInvalidToken) {
				t.Fatalf("expected ErrInvalidToken, got %v", err)
			}
		})
	}
}
