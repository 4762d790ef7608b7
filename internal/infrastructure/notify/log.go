package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/storefront/storefront-api/internal/core/ports"
)

// LogSender writes notifications to the log instead of delivering them.
// It is the development transport; bodies carry one-time codes, so it logs
// at debug level only.
type LogSender struct {
	log zerolog.Logger
}

func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(_ context.Context, n ports.Notification) error {
	s.log.Debug().
		Str("channel", string(n.Channel)).
		Str("recipient", n.Recipient).
		Str("subject", n.Subject).
		Str("body", n.Body).
		Msg("notification")
	return nil
}
