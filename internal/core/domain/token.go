package domain

import "time"

// TokenType distinguishes what a signed token may be used for.
type TokenType string

const (
	TokenAccess            TokenType = "access"
	TokenRefresh           TokenType = "refresh"
	TokenEmailVerification TokenType = "email-verification"
)

// TokenClaims is the typed claim set carried by every issued token.
type TokenClaims struct {
	Subject   string
	Email     string
	Role      string
	Type      TokenType
	ID        string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// ClaimsFor builds the claim set for u with the given type.
func ClaimsFor(u *User, typ TokenType) TokenClaims {
	return TokenClaims{
		Subject: u.ID,
		Email:   u.Email,
		Role:    u.Role,
		Type:    typ,
	}
}

// TokenPair is returned by a successful login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
