package ports

import (
	"context"

	"github.com/storefront/storefront-api/internal/core/domain"
)

// SignupInput carries the fields needed to register a principal.
type SignupInput struct {
	Name        string
	Email       string
	PhoneNumber string
	Password    string
}

// LoginResult is returned once the login code has been accepted.
type LoginResult struct {
	Message string
	Tokens  domain.TokenPair
}

// AuthService is the credential verification engine.
type AuthService interface {
	Signup(ctx context.Context, in SignupInput) (*domain.User, error)
	VerifyEmail(ctx context.Context, email, code string) (string, error)
	VerifyEmailToken(ctx context.Context, token string) (string, error)
	Login(ctx context.Context, email, password string) (string, error)
	VerifyLoginCode(ctx context.Context, email, code string) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*domain.TokenPair, error)
	ChangePassword(ctx context.Context, id, currentPassword, newPassword string) error
}

// UserService exposes the principal directory.
type UserService interface {
	List(ctx context.Context) ([]*domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Delete(ctx context.Context, id string) error
	MarkVerified(ctx context.Context, id string) (*domain.User, error)
}
