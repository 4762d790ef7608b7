// Package notify holds the transports notifications are delivered on.
package notify

import (
	"context"
	"fmt"

	"github.com/storefront/storefront-api/internal/core/ports"
)

// Router picks a sender by channel.
type Router struct {
	senders map[ports.Channel]ports.Sender
}

// NewRouter returns a Router delivering email and SMS on the given senders.
func NewRouter(email, sms ports.Sender) *Router {
	return &Router{senders: map[ports.Channel]ports.Sender{
		ports.ChannelEmail: email,
		ports.ChannelSMS:   sms,
	}}
}

func (r *Router) Send(ctx context.Context, n ports.Notification) error {
	s, ok := r.senders[n.Channel]
	if !ok || s == nil {
		return fmt.Errorf("notify: no sender for channel %q", n.Channel)
	}
	return s.Send(ctx, n)
}
