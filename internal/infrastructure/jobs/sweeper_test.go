package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type stubStore struct {
	calls  int
	before time.Time
	n      int64
	err    error
}

func (s *stubStore) ClearExpiredLoginCodes(_ context.Context, now time.Time) (int64, error) {
	s.calls++
	s.before = now
	return s.n, s.err
}

func TestSweeper_SweepPassesClock(t *testing.T) {
	store := &stubStore{n: 3}
	s, err := NewSweeper(store, "", zerolog.Nop())
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	s.Sweep(context.Background())

	if store.calls != 1 || !store.before.Equal(fixed) {
		t.Fatalf("expected one sweep at %v, got %d at %v", fixed, store.calls, store.before)
	}
}

func TestSweeper_StoreErrorIsLogged(t *testing.T) {
	store := &stubStore{err: errors.New("mongo down")}
	s, err := NewSweeper(store, "*/5 * * * * *", zerolog.Nop())
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}
	s.Sweep(context.Background())
	if store.calls != 1 {
		t.Fatalf("expected one call, got %d", store.calls)
	}
}

func TestSweeper_InvalidSchedule(t *testing.T) {
	if _, err := NewSweeper(&stubStore{}, "every minute", zerolog.Nop()); err == nil {
		t.Fatal("expected an error for an invalid schedule")
	}
}

func TestSweeper_StartStop(t *testing.T) {
	s, err := NewSweeper(&stubStore{}, DefaultSchedule, zerolog.Nop())
	if err != nil {
		t.Fatalf("new sweeper: %v", err)
	}
	s.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	s.Stop(ctx)
}
