package domain

import "errors"

// Conflict
var ErrEmailTaken = errors.New("email already registered")

// NotFound
var (
	ErrUserNotFound     = errors.New("user not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrTaskNotFound     = errors.New("task not found")
)

// BadRequest
var (
	ErrInvalidCode = errors.New("invalid code")
	ErrCodeExpired = errors.New("code expired")
)

// Unauthorized. ErrInvalidCredentials is deliberately shared by the unknown
// email, unverified account and wrong password cases of login.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrInvalidToken       = errors.New("invalid or expired token")
)

// Forbidden
var ErrForbidden = errors.New("access forbidden")

// TooManyRequests
var ErrTooManyAttempts = errors.New("too many attempts, try again later")

// ErrSigningKeyMissing is a misconfiguration of the token service.
var ErrSigningKeyMissing = errors.New("token signing secret is not configured")
