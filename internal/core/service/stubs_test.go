package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/storefront/storefront-api/internal/core/domain"
	"github.com/storefront/storefront-api/internal/core/ports"
)

// ---------------------------------------------------------------------------
// In-memory user repository. Every read and write copies the record, the
// same way a document store hands out fresh values.
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.User
	nextID int

	writeErr    error
	beforeWrite func(op string)
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{byID: make(map[string]*domain.User)}
}

func cloneUser(u *domain.User) *domain.User {
	c := *u
	return &c
}

func (r *stubUserRepo) Create(_ context.Context, u *domain.User) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.byID {
		if existing.Email == u.Email {
			return nil, domain.ErrEmailTaken
		}
	}
	r.nextID++
	c := cloneUser(u)
	c.ID = "user-" + strconv.Itoa(r.nextID)
	r.byID[c.ID] = c
	return cloneUser(c), nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return cloneUser(u), nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.byID {
		if u.Email == email {
			return cloneUser(u), nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) List(_ context.Context) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*domain.User, 0, len(r.byID))
	for _, u := range r.byID {
		out = append(out, cloneUser(u))
	}
	return out, nil
}

// write runs fn on the stored record under the lock. beforeWrite, when set,
// runs first and outside the lock so tests can interleave another operation
// between a read and the write that follows it.
func (r *stubUserRepo) write(op, id string, fn func(u *domain.User) error) error {
	if r.beforeWrite != nil {
		r.beforeWrite(op)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.writeErr != nil {
		return r.writeErr
	}
	u, ok := r.byID[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	return fn(u)
}

func (r *stubUserRepo) MarkVerified(_ context.Context, id string, at time.Time) error {
	return r.write("MarkVerified", id, func(u *domain.User) error {
		u.MarkVerified()
		u.UpdatedAt = at
		return nil
	})
}

func (r *stubUserRepo) SetLoginCode(_ context.Context, id, passwordHash, code string, expires, at time.Time) error {
	return r.write("SetLoginCode", id, func(u *domain.User) error {
		if u.PasswordHash != passwordHash {
			return domain.ErrInvalidCredentials
		}
		u.LoginCode, u.LoginCodeExpires, u.UpdatedAt = code, expires, at
		return nil
	})
}

func (r *stubUserRepo) ConsumeLoginCode(_ context.Context, id, code, refreshToken string, at time.Time) error {
	return r.write("ConsumeLoginCode", id, func(u *domain.User) error {
		if u.LoginCode == "" || u.LoginCode != code {
			return domain.ErrInvalidCode
		}
		u.ClearLoginCode()
		u.RefreshToken, u.UpdatedAt = refreshToken, at
		return nil
	})
}

func (r *stubUserRepo) RotateRefreshToken(_ context.Context, id, current, next string, at time.Time) error {
	return r.write("RotateRefreshToken", id, func(u *domain.User) error {
		if u.RefreshToken == "" || u.RefreshToken != current {
			return domain.ErrInvalidToken
		}
		u.RefreshToken, u.UpdatedAt = next, at
		return nil
	})
}

func (r *stubUserRepo) SetPassword(_ context.Context, id, passwordHash string, at time.Time) error {
	return r.write("SetPassword", id, func(u *domain.User) error {
		u.PasswordHash, u.RefreshToken, u.UpdatedAt = passwordHash, "", at
		return nil
	})
}

func (r *stubUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *stubUserRepo) ClearExpiredLoginCodes(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, u := range r.byID {
		if u.LoginCode != "" && domain.CodeExpired(u.LoginCodeExpires, now) {
			u.ClearLoginCode()
			n++
		}
	}
	return n, nil
}

// stored returns the raw record, credentials included.
func (r *stubUserRepo) stored(email string) *domain.User {
	u, _ := r.FindByEmail(context.Background(), email)
	return u
}

// ---------------------------------------------------------------------------
// Notifier, limiter and code source stubs
// ---------------------------------------------------------------------------

type captureNotifier struct {
	mu   sync.Mutex
	sent []ports.Notification
}

func (n *captureNotifier) Notify(_ context.Context, msg ports.Notification) {
	n.mu.Lock()
	n.sent = append(n.sent, msg)
	n.mu.Unlock()
}

func (n *captureNotifier) last() ports.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		return ports.Notification{}
	}
	return n.sent[len(n.sent)-1]
}

type stubLimiter struct {
	mu       sync.Mutex
	max      int
	counts   map[string]int
	allowErr error
}

func newStubLimiter(max int) *stubLimiter {
	return &stubLimiter{max: max, counts: make(map[string]int)}
}

func (l *stubLimiter) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.allowErr != nil {
		return false, l.allowErr
	}
	l.counts[key]++
	return l.counts[key] <= l.max, nil
}

func (l *stubLimiter) Reset(_ context.Context, key string) error {
	l.mu.Lock()
	delete(l.counts, key)
	l.mu.Unlock()
	return nil
}

// sequenceCodes hands out 111111, 222222, ... so tests know every code.
type sequenceCodes struct {
	mu sync.Mutex
	n  int
}

func (s *sequenceCodes) next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	if s.n > 9 {
		return "", errors.New("code sequence exhausted")
	}
	d := strconv.Itoa(s.n)
	return d + d + d + d + d + d, nil
}

// clock is a settable time source shared by the service and token issuer.
type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}
