package ports

import (
	"context"
	"time"

	"github.com/storefront/storefront-api/internal/core/domain"
)

// UserRepository is the credential store. Writes touch only the fields the
// operation owns; a write conditioned on a value read earlier fails when that
// value changed in between.
type UserRepository interface {
	// Create inserts user and returns it with its id. Returns
	// domain.ErrEmailTaken when the email is already registered.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Delete(ctx context.Context, id string) error

	// MarkVerified sets the account verified and drops the verification code.
	MarkVerified(ctx context.Context, id string, at time.Time) error
	// SetLoginCode stores code as the single active login code, provided the
	// password hash is still passwordHash. Returns
	// domain.ErrInvalidCredentials when the password changed meanwhile.
	SetLoginCode(ctx context.Context, id, passwordHash, code string, expires, at time.Time) error
	// ConsumeLoginCode clears the login code if it still equals code and stores
	// refreshToken as the active one. Returns domain.ErrInvalidCode when the
	// code was replaced or consumed meanwhile.
	ConsumeLoginCode(ctx context.Context, id, code, refreshToken string, at time.Time) error
	// RotateRefreshToken replaces current with next. Returns
	// domain.ErrInvalidToken when current is no longer the active token.
	RotateRefreshToken(ctx context.Context, id, current, next string, at time.Time) error
	// SetPassword stores the new hash and revokes the active refresh token.
	SetPassword(ctx context.Context, id, passwordHash string, at time.Time) error

	// ClearExpiredLoginCodes drops login codes that expired before now and
	// returns how many principals were touched.
	ClearExpiredLoginCodes(ctx context.Context, now time.Time) (int64, error)
}
