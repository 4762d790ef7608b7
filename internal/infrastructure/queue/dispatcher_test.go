package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/storefront/storefront-api/internal/core/ports"
)

type recordingSender struct {
	mu   sync.Mutex
	got  []ports.Notification
	fail bool
	done chan struct{}
}

func (s *recordingSender) Send(_ context.Context, n ports.Notification) error {
	s.mu.Lock()
	s.got = append(s.got, n)
	s.mu.Unlock()
	if s.done != nil {
		s.done <- struct{}{}
	}
	if s.fail {
		return errors.New("transport down")
	}
	return nil
}

func (s *recordingSender) delivered() []ports.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ports.Notification(nil), s.got...)
}

func waitFor(t *testing.T, done <-chan struct{}, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatalf("timed out after %d of %d deliveries", i, n)
		}
	}
}

func TestDispatcher_DeliversInOrderPerRecipient(t *testing.T) {
	sender := &recordingSender{done: make(chan struct{}, 16)}
	d := NewDispatcher(3, sender, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	bodies := []string{"first", "second", "third"}
	for _, b := range bodies {
		d.Notify(context.Background(), ports.Notification{Channel: ports.ChannelSMS, Recipient: "+5215512345678", Body: b})
	}
	waitFor(t, sender.done, len(bodies))

	cancel()
	d.Wait()

	got := sender.delivered()
	for i, b := range bodies {
		if got[i].Body != b {
			t.Fatalf("delivery %d = %q, want %q", i, got[i].Body, b)
		}
	}
}

func TestDispatcher_FailuresAreNotFatal(t *testing.T) {
	sender := &recordingSender{fail: true, done: make(chan struct{}, 4)}
	d := NewDispatcher(1, sender, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	d.Notify(context.Background(), ports.Notification{Channel: ports.ChannelEmail, Recipient: "a@example.com", Body: "one"})
	d.Notify(context.Background(), ports.Notification{Channel: ports.ChannelEmail, Recipient: "a@example.com", Body: "two"})
	waitFor(t, sender.done, 2)

	cancel()
	d.Wait()

	if n := len(sender.delivered()); n != 2 {
		t.Fatalf("expected the worker to keep going after a failure, got %d attempts", n)
	}
}

func TestDispatcher_DropsWhenQueueFull(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(1, sender, zerolog.Nop())

	// workers not started: the buffer fills and Notify must not block
	for i := 0; i < channelBuffer+10; i++ {
		d.Notify(context.Background(), ports.Notification{Channel: ports.ChannelSMS, Recipient: "x"})
	}
	if n := len(d.workers[0]); n != channelBuffer {
		t.Fatalf("expected a full buffer of %d, got %d", channelBuffer, n)
	}
}

func TestDispatcher_ShardIndexIsStable(t *testing.T) {
	d := NewDispatcher(0, &recordingSender{}, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
	first := d.shardIndex("ana@example.com")
	for i := 0; i < 10; i++ {
		if got := d.shardIndex("ana@example.com"); got != first {
			t.Fatalf("shard index changed: %d then %d", first, got)
		}
	}
}

func TestDispatcher_DrainsBufferOnShutdown(t *testing.T) {
	sender := &recordingSender{}
	d := NewDispatcher(2, sender, zerolog.Nop())

	for _, to := range []string{"ana@example.com", "bob@example.com", "+5215512345678", "ana@example.com"} {
		d.Notify(context.Background(), ports.Notification{Channel: ports.ChannelEmail, Recipient: to})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Start(ctx)
	d.Wait()

	if n := len(sender.delivered()); n != 4 {
		t.Fatalf("expected every queued notification delivered on shutdown, got %d", n)
	}
	for i, ch := range d.workers {
		if len(ch) != 0 {
			t.Fatalf("worker %d left %d notifications behind", i, len(ch))
		}
	}
}
