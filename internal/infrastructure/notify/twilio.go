package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/storefront/storefront-api/internal/core/ports"
)

// TwilioConfig holds the Twilio account and the number SMS are sent from.
type TwilioConfig struct {
	AccountSID string
	AuthToken  string
	From       string
}

// TwilioSender delivers SMS notifications through the Twilio Messages API.
type TwilioSender struct {
	from   string
	create func(params *twilioapi.CreateMessageParams) (*twilioapi.ApiV2010Message, error)
}

func NewTwilioSender(cfg TwilioConfig) (*TwilioSender, error) {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.From == "" {
		return nil, errors.New("twilio: account sid, auth token and from number are required")
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &TwilioSender{from: cfg.From, create: client.Api.CreateMessage}, nil
}

func (s *TwilioSender) Send(ctx context.Context, n ports.Notification) error {
	if n.Channel != ports.ChannelSMS {
		return fmt.Errorf("twilio: cannot deliver %s notifications", n.Channel)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(n.Recipient)
	params.SetFrom(s.from)
	params.SetBody(n.Body)

	if _, err := s.create(params); err != nil {
		return fmt.Errorf("twilio: send: %w", err)
	}
	return nil
}
