package ports

import "context"

// Channel is the out-of-band medium a notification travels on.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
)

// Notification is a message addressed to one recipient. Subject is only
// meaningful for email.
type Notification struct {
	Channel   Channel `json:"channel"`
	Recipient string  `json:"recipient"`
	Subject   string  `json:"subject,omitempty"`
	Body      string  `json:"body"`
}

// Notifier hands a notification off for delivery. It never reports delivery
// failures to the caller.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Sender performs the actual delivery on one transport.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

// AttemptLimiter throttles repeated guesses of one-time codes.
type AttemptLimiter interface {
	// Allow records an attempt for key and reports whether it is within budget.
	Allow(ctx context.Context, key string) (bool, error)
	Reset(ctx context.Context, key string) error
}
