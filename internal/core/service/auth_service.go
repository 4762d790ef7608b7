package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/storefront-api/internal/core/domain"
	"github.com/storefront/storefront-api/internal/core/ports"
	"github.com/storefront/storefront-api/internal/pkg/metrics"
)

// Stable response messages.
const (
	MsgEmailVerified        = "email verified successfully"
	MsgEmailAlreadyVerified = "email already verified"
	MsgLoginCodeSent        = "verify the code sent to your phone"
	MsgLoginSucceeded       = "login successful"
)

// AuthConfig holds the lifetimes used by the credential engine.
type AuthConfig struct {
	AccessTTL            time.Duration
	RefreshTTL           time.Duration
	EmailVerificationTTL time.Duration
	VerificationCodeTTL  time.Duration
	LoginCodeTTL         time.Duration
	// VerifyURL is the public address of GET /user/verify-email. When set,
	// verification emails also carry a one-click link.
	VerifyURL string
}

func (c AuthConfig) withDefaults() AuthConfig {
	if c.AccessTTL <= 0 {
		c.AccessTTL = 15 * time.Minute
	}
	if c.RefreshTTL <= 0 {
		c.RefreshTTL = 7 * 24 * time.Hour
	}
	if c.EmailVerificationTTL <= 0 {
		c.EmailVerificationTTL = 24 * time.Hour
	}
	if c.VerificationCodeTTL <= 0 {
		c.VerificationCodeTTL = 2 * time.Hour
	}
	if c.LoginCodeTTL <= 0 {
		c.LoginCodeTTL = 2 * time.Minute
	}
	return c
}

// AuthService implements signup, email verification, two-step login,
// refresh token rotation and password change.
type AuthService struct {
	repo     ports.UserRepository
	tokens   ports.TokenService
	hasher   *PasswordHasher
	notifier ports.Notifier
	limiter  ports.AttemptLimiter
	cfg      AuthConfig
	log      zerolog.Logger

	now     func() time.Time
	newCode func() (string, error)
}

// NewAuthService wires the credential engine. limiter may be nil, in which
// case code checks are not throttled.
func NewAuthService(
	repo ports.UserRepository,
	tokens ports.TokenService,
	hasher *PasswordHasher,
	notifier ports.Notifier,
	limiter ports.AttemptLimiter,
	cfg AuthConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		repo:     repo,
		tokens:   tokens,
		hasher:   hasher,
		notifier: notifier,
		limiter:  limiter,
		cfg:      cfg.withDefaults(),
		log:      log,
		now:      time.Now,
		newCode:  generateCode,
	}
}

// Signup registers an unverified principal and emails it a verification code.
func (s *AuthService) Signup(ctx context.Context, in ports.SignupInput) (user *domain.User, err error) {
	defer func() { observe("signup", err) }()

	email := normalizeEmail(in.Email)
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, fmt.Errorf("signup: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, in.Password)
	if err != nil {
		return nil, fmt.Errorf("signup: hash password: %w", err)
	}
	code, err := s.newCode()
	if err != nil {
		return nil, fmt.Errorf("signup: %w", err)
	}

	now := s.now().UTC()
	created, err := s.repo.Create(ctx, &domain.User{
		Name:                    in.Name,
		Email:                   email,
		PhoneNumber:             in.PhoneNumber,
		Role:                    domain.RoleUser,
		PasswordHash:            hash,
		VerificationCode:        code,
		VerificationCodeExpires: now.Add(s.cfg.VerificationCodeTTL),
		CreatedAt:               now,
		UpdatedAt:               now,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return nil, err
		}
		return nil, fmt.Errorf("signup: %w", err)
	}

	s.sendVerificationEmail(ctx, created)
	s.log.Info().Str("user_id", created.ID).Msg("user signed up")

	return publicUser(created), nil
}

func (s *AuthService) sendVerificationEmail(ctx context.Context, u *domain.User) {
	body := fmt.Sprintf("Hello %s,\n\nUse this code to verify your account: %s\n\nIf you did not sign up, ignore this email.\n",
		u.Name, u.VerificationCode)

	if s.cfg.VerifyURL != "" {
		token, err := s.tokens.Issue(domain.ClaimsFor(u, domain.TokenEmailVerification), s.cfg.EmailVerificationTTL)
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", u.ID).Msg("verification link skipped")
		} else {
			body += fmt.Sprintf("\nOr open this link: %s?token=%s\n", s.cfg.VerifyURL, url.QueryEscape(token))
		}
	}

	s.notifier.Notify(ctx, ports.Notification{
		Channel:   ports.ChannelEmail,
		Recipient: u.Email,
		Subject:   "Verify your account",
		Body:      body,
	})
}

// VerifyEmail checks the emailed verification code. Already verified
// principals succeed without the code being looked at.
func (s *AuthService) VerifyEmail(ctx context.Context, email, code string) (msg string, err error) {
	defer func() { observe("verify_email", err) }()

	email = normalizeEmail(email)
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if user.IsVerified {
		return MsgEmailAlreadyVerified, nil
	}

	if err := s.allowAttempt(ctx, "verify-email", email); err != nil {
		return "", err
	}
	if !codesEqual(user.VerificationCode, code) {
		return "", domain.ErrInvalidCode
	}
	if domain.CodeExpired(user.VerificationCodeExpires, s.now()) {
		return "", domain.ErrCodeExpired
	}

	if err := s.repo.MarkVerified(ctx, user.ID, s.now().UTC()); err != nil {
		return "", fmt.Errorf("verify email: %w", err)
	}
	s.resetAttempts(ctx, "verify-email", email)

	s.log.Info().Str("user_id", user.ID).Msg("email verified")
	return MsgEmailVerified, nil
}

// VerifyEmailToken verifies an account from the emailed link token.
func (s *AuthService) VerifyEmailToken(ctx context.Context, token string) (msg string, err error) {
	defer func() { observe("verify_email", err) }()

	claims, err := s.tokens.Verify(token)
	if err != nil || claims.Type != domain.TokenEmailVerification {
		return "", domain.ErrInvalidToken
	}

	user, err := s.repo.FindByID(ctx, claims.Subject)
	if err != nil {
		return "", err
	}
	if user.Email != claims.Email {
		return "", domain.ErrInvalidToken
	}
	if user.IsVerified {
		return MsgEmailAlreadyVerified, nil
	}

	if err := s.repo.MarkVerified(ctx, user.ID, s.now().UTC()); err != nil {
		return "", fmt.Errorf("verify email: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("email verified by link")
	return MsgEmailVerified, nil
}

// Login checks the password and, on success, texts a one-time login code.
// No token is issued until VerifyLoginCode accepts that code.
func (s *AuthService) Login(ctx context.Context, email, password string) (msg string, err error) {
	defer func() { observe("login_password", err) }()

	user, err := s.repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			s.hasher.CompareDummy(ctx, password)
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("login: %w", err)
	}

	ok, err := s.hasher.Compare(ctx, user.PasswordHash, password)
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	if !ok || !user.IsVerified {
		return "", domain.ErrInvalidCredentials
	}

	code, err := s.newCode()
	if err != nil {
		return "", fmt.Errorf("login: %w", err)
	}
	// The code is only stored against the password hash that was checked.
	now := s.now().UTC()
	if err := s.repo.SetLoginCode(ctx, user.ID, user.PasswordHash, code, now.Add(s.cfg.LoginCodeTTL), now); err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) || errors.Is(err, domain.ErrUserNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", fmt.Errorf("login: store code: %w", err)
	}

	s.notifier.Notify(ctx, ports.Notification{
		Channel:   ports.ChannelSMS,
		Recipient: user.PhoneNumber,
		Body:      fmt.Sprintf("Your login code is: %s", code),
	})

	s.log.Info().Str("user_id", user.ID).Msg("login code issued")
	return MsgLoginCodeSent, nil
}

// VerifyLoginCode consumes the login code and issues an access/refresh pair.
// The refresh token becomes the principal's single active one.
func (s *AuthService) VerifyLoginCode(ctx context.Context, email, code string) (res *ports.LoginResult, err error) {
	defer func() { observe("login_code", err) }()

	email = normalizeEmail(email)
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := s.allowAttempt(ctx, "login-code", email); err != nil {
		return nil, err
	}
	if !user.HasActiveLoginCode() || !codesEqual(user.LoginCode, code) {
		return nil, domain.ErrInvalidCode
	}
	if domain.CodeExpired(user.LoginCodeExpires, s.now()) {
		return nil, domain.ErrCodeExpired
	}

	pair, err := s.issuePair(user)
	if err != nil {
		return nil, fmt.Errorf("verify login code: %w", err)
	}

	if err := s.repo.ConsumeLoginCode(ctx, user.ID, user.LoginCode, pair.RefreshToken, s.now().UTC()); err != nil {
		if errors.Is(err, domain.ErrInvalidCode) || errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCode
		}
		return nil, fmt.Errorf("verify login code: %w", err)
	}
	s.resetAttempts(ctx, "login-code", email)

	s.log.Info().Str("user_id", user.ID).Msg("user logged in")
	return &ports.LoginResult{Message: MsgLoginSucceeded, Tokens: *pair}, nil
}

// Refresh rotates the principal's refresh token. Only the most recently
// issued refresh token is accepted; a rotated-away token fails even before
// its expiry.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (pair *domain.TokenPair, err error) {
	defer func() { observe("refresh", err) }()

	claims, err := s.tokens.Verify(refreshToken)
	if err != nil || claims.Type != domain.TokenRefresh {
		return nil, domain.ErrInvalidToken
	}

	user, err := s.repo.FindByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if !codesEqual(user.RefreshToken, refreshToken) {
		return nil, domain.ErrInvalidToken
	}

	pair, err = s.issuePair(user)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}
	if err := s.repo.RotateRefreshToken(ctx, user.ID, refreshToken, pair.RefreshToken, s.now().UTC()); err != nil {
		if errors.Is(err, domain.ErrInvalidToken) || errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrInvalidToken
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	return pair, nil
}

// ChangePassword replaces the password after checking the current one. The
// active refresh token is revoked so the old session cannot be extended.
func (s *AuthService) ChangePassword(ctx context.Context, id, currentPassword, newPassword string) (err error) {
	defer func() { observe("change_password", err) }()

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	ok, err := s.hasher.Compare(ctx, user.PasswordHash, currentPassword)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if !ok {
		return domain.ErrWrongPassword
	}

	hash, err := s.hasher.Hash(ctx, newPassword)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	if err := s.repo.SetPassword(ctx, user.ID, hash, s.now().UTC()); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	s.log.Info().Str("user_id", user.ID).Msg("password changed")
	return nil
}

// EnsureAdmin creates a verified admin principal unless the email is already
// registered. It reports whether a principal was created.
func (s *AuthService) EnsureAdmin(ctx context.Context, name, email, phone, password string) (bool, error) {
	email = normalizeEmail(email)
	existing, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		if existing.Role != domain.RoleAdmin {
			s.log.Warn().Str("email", email).Str("role", existing.Role).Msg("bootstrap admin email belongs to a non-admin user")
		}
		return false, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return false, fmt.Errorf("ensure admin: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return false, fmt.Errorf("ensure admin: %w", err)
	}
	now := s.now().UTC()
	if _, err := s.repo.Create(ctx, &domain.User{
		Name:         name,
		Email:        email,
		PhoneNumber:  phone,
		Role:         domain.RoleAdmin,
		IsVerified:   true,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			return false, nil
		}
		return false, fmt.Errorf("ensure admin: %w", err)
	}

	s.log.Info().Str("email", email).Msg("admin user created")
	return true, nil
}

func (s *AuthService) issuePair(u *domain.User) (*domain.TokenPair, error) {
	access, err := s.tokens.Issue(domain.ClaimsFor(u, domain.TokenAccess), s.cfg.AccessTTL)
	if err != nil {
		return nil, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.Issue(domain.ClaimsFor(u, domain.TokenRefresh), s.cfg.RefreshTTL)
	if err != nil {
		return nil, fmt.Errorf("issue refresh token: %w", err)
	}
	return &domain.TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// allowAttempt fails open: a limiter outage must not lock everybody out.
func (s *AuthService) allowAttempt(ctx context.Context, scope, email string) error {
	if s.limiter == nil {
		return nil
	}
	ok, err := s.limiter.Allow(ctx, scope+":"+email)
	if err != nil {
		s.log.Warn().Err(err).Str("scope", scope).Msg("attempt limiter unavailable, allowing")
		return nil
	}
	if !ok {
		return domain.ErrTooManyAttempts
	}
	return nil
}

func (s *AuthService) resetAttempts(ctx context.Context, scope, email string) {
	if s.limiter == nil {
		return
	}
	if err := s.limiter.Reset(ctx, scope+":"+email); err != nil {
		s.log.Warn().Err(err).Str("scope", scope).Msg("failed to reset attempt counter")
	}
}

// publicUser returns a copy of u without credential material.
func publicUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	clone := *u
	clone.PasswordHash = ""
	clone.RefreshToken = ""
	clone.VerificationCode = ""
	clone.VerificationCodeExpires = time.Time{}
	clone.LoginCode = ""
	clone.LoginCodeExpires = time.Time{}
	return &clone
}

func observe(operation string, err error) {
	metrics.AuthOperationsTotal.WithLabelValues(operation, resultLabel(err)).Inc()
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrEmailTaken):
		return "email_taken"
	case errors.Is(err, domain.ErrUserNotFound):
		return "user_not_found"
	case errors.Is(err, domain.ErrInvalidCode):
		return "invalid_code"
	case errors.Is(err, domain.ErrCodeExpired):
		return "code_expired"
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrWrongPassword):
		return "invalid_credentials"
	case errors.Is(err, domain.ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, domain.ErrTooManyAttempts):
		return "throttled"
	default:
		return "error"
	}
}
