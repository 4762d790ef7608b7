package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultMaxAttempts = 5
	defaultWindow      = 15 * time.Minute
)

// AttemptLimiter is a fixed-window counter of one-time code guesses.
// Key format: attempts:<scope>:<email>
type AttemptLimiter struct {
	client *redis.Client
	max    int64
	window time.Duration
}

// NewAttemptLimiter allows max attempts per key within window. Non-positive
// values fall back to 5 attempts per 15 minutes.
func NewAttemptLimiter(client *redis.Client, max int, window time.Duration) *AttemptLimiter {
	if max <= 0 {
		max = defaultMaxAttempts
	}
	if window <= 0 {
		window = defaultWindow
	}
	return &AttemptLimiter{client: client, max: int64(max), window: window}
}

// countAttempt increments the counter and starts the window in the same
// step. A counter found without a TTL gets one, so a key can never outlive
// its window.
var countAttempt = redis.NewScript(`
local n = redis.call("INCR", KEYS[1])
if n == 1 or redis.call("PTTL", KEYS[1]) < 0 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return n
`)

// Allow counts one attempt and reports whether the key is still within budget.
// The window starts at the first attempt.
func (l *AttemptLimiter) Allow(ctx context.Context, key string) (bool, error) {
	n, err := countAttempt.Run(ctx, l.client, []string{l.key(key)}, l.window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("attempt count: %w", err)
	}
	return n <= l.max, nil
}

// Reset forgets the attempts recorded for key.
func (l *AttemptLimiter) Reset(ctx context.Context, key string) error {
	return l.client.Del(ctx, l.key(key)).Err()
}

func (l *AttemptLimiter) key(key string) string {
	return "attempts:" + key
}
