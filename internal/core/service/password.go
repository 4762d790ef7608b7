package service

import (
	"context"
	"runtime"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/semaphore"

	"github.com/storefront/storefront-api/internal/pkg/metrics"
)

// PasswordHasher runs bcrypt on a bounded number of slots so a burst of
// logins cannot occupy every CPU.
type PasswordHasher struct {
	cost  int
	slots *semaphore.Weighted

	dummyOnce sync.Once
	dummy     []byte
}

// NewPasswordHasher returns a hasher with the given bcrypt cost and at most
// concurrency simultaneous bcrypt operations. Non-positive values fall back to
// bcrypt.DefaultCost and GOMAXPROCS.
func NewPasswordHasher(cost, concurrency int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0)
	}
	return &PasswordHasher{cost: cost, slots: semaphore.NewWeighted(int64(concurrency))}
}

// Hash returns the salted bcrypt hash of password.
func (h *PasswordHasher) Hash(ctx context.Context, password string) (string, error) {
	start := time.Now()
	defer func() { metrics.PasswordHashDuration.WithLabelValues("hash").Observe(time.Since(start).Seconds()) }()

	if err := h.slots.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer h.slots.Release(1)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Compare reports whether password matches hash. A malformed hash is a
// mismatch, not an error; only context cancellation is returned.
func (h *PasswordHasher) Compare(ctx context.Context, hash, password string) (bool, error) {
	start := time.Now()
	defer func() { metrics.PasswordHashDuration.WithLabelValues("compare").Observe(time.Since(start).Seconds()) }()

	if err := h.slots.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer h.slots.Release(1)

	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil, nil
}

// CompareDummy burns the same work as Compare against a throwaway hash. Login
// calls it for unknown emails so response time does not reveal registration.
func (h *PasswordHasher) CompareDummy(ctx context.Context, password string) {
	h.dummyOnce.Do(func() {
		h.dummy, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), h.cost)
	})
	_, _ = h.Compare(ctx, string(h.dummy), password)
}
