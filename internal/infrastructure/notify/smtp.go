package notify

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/storefront/storefront-api/internal/core/ports"
)

// TLS modes accepted by SMTPConfig.TLS.
const (
	TLSOpportunistic = "opportunistic"
	TLSMandatory     = "mandatory"
	TLSNone          = "none"
	TLSImplicit      = "ssl"
)

// SMTPConfig holds the mail relay settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	// TLS is one of the TLS* modes; empty means opportunistic STARTTLS.
	TLS string
}

// SMTPSender delivers email notifications through an SMTP relay.
type SMTPSender struct {
	cfg  SMTPConfig
	send func(ctx context.Context, msg *mail.Msg) error
}

// NewSMTPSender validates cfg and returns a sender dialing the relay once
// per message.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	opts, err := clientOptions(cfg)
	if err != nil {
		return nil, err
	}
	if _, err := mail.NewClient(cfg.Host, opts...); err != nil {
		return nil, fmt.Errorf("smtp: %w", err)
	}

	s := &SMTPSender{cfg: cfg}
	s.send = func(ctx context.Context, msg *mail.Msg) error {
		client, err := mail.NewClient(cfg.Host, opts...)
		if err != nil {
			return err
		}
		return client.DialAndSendWithContext(ctx, msg)
	}
	return s, nil
}

func clientOptions(cfg SMTPConfig) ([]mail.Option, error) {
	opts := []mail.Option{}
	if cfg.Port > 0 {
		opts = append(opts, mail.WithPort(cfg.Port))
	}
	switch cfg.TLS {
	case "", TLSOpportunistic:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSOpportunistic))
	case TLSMandatory:
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	case TLSNone:
		opts = append(opts, mail.WithTLSPolicy(mail.NoTLS))
	case TLSImplicit:
		opts = append(opts, mail.WithSSL())
	default:
		return nil, fmt.Errorf("smtp: unknown tls mode %q", cfg.TLS)
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}
	return opts, nil
}

func (s *SMTPSender) Send(ctx context.Context, n ports.Notification) error {
	if n.Channel != ports.ChannelEmail {
		return fmt.Errorf("smtp: cannot deliver %s notifications", n.Channel)
	}

	msg, err := s.message(n)
	if err != nil {
		return err
	}
	if err := s.send(ctx, msg); err != nil {
		return fmt.Errorf("smtp: send: %w", err)
	}
	return nil
}

func (s *SMTPSender) message(n ports.Notification) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(s.cfg.From); err != nil {
		return nil, fmt.Errorf("smtp: from: %w", err)
	}
	if err := msg.To(n.Recipient); err != nil {
		return nil, fmt.Errorf("smtp: to: %w", err)
	}
	msg.Subject(n.Subject)
	msg.SetDate()
	msg.SetBodyString(mail.TypeTextPlain, n.Body)
	return msg, nil
}
