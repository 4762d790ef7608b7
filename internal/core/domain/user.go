package domain

import "time"

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// User is the principal: the only kind of authenticated actor in the system.
//
// Credential fields (PasswordHash, codes, RefreshToken) never leave the
// service layer; handlers render a user through its JSON tags, which hide them.
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	Role        string `json:"role"`
	IsVerified  bool   `json:"isVerified"`

	PasswordHash            string    `json:"-"`
	RefreshToken            string    `json:"-"`
	VerificationCode        string    `json:"-"`
	VerificationCodeExpires time.Time `json:"-"`
	LoginCode               string    `json:"-"`
	LoginCodeExpires        time.Time `json:"-"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasActiveLoginCode reports whether a login code is pending.
func (u *User) HasActiveLoginCode() bool {
	return u.LoginCode != ""
}

// ClearLoginCode consumes the pending login code.
func (u *User) ClearLoginCode() {
	u.LoginCode = ""
	u.LoginCodeExpires = time.Time{}
}

// MarkVerified flips the account to verified and drops the verification code.
func (u *User) MarkVerified() {
	u.IsVerified = true
	u.VerificationCode = ""
	u.VerificationCodeExpires = time.Time{}
}

// CodeExpired reports whether now is strictly after expires. A zero expiry
// never expires, matching records written without one.
func CodeExpired(expires, now time.Time) bool {
	return !expires.IsZero() && now.After(expires)
}
