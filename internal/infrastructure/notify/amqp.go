package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/storefront/storefront-api/internal/core/ports"
)

// AMQPSender publishes notifications to RabbitMQ for an external mailer/SMS
// gateway to deliver. Each channel has its own durable queue, named
// <prefix>.email and <prefix>.sms.
type AMQPSender struct {
	url    string
	prefix string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// NewAMQPSender returns a sender for the broker at url. The connection is
// opened lazily and re-opened after a failure.
func NewAMQPSender(url, queuePrefix string) *AMQPSender {
	if queuePrefix == "" {
		queuePrefix = "notifications"
	}
	return &AMQPSender{url: url, prefix: queuePrefix}
}

func (s *AMQPSender) Send(ctx context.Context, n ports.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("amqp: marshal notification: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ch, err := s.channel()
	if err != nil {
		return err
	}

	queue := s.prefix + "." + string(n.Channel)
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		s.reset()
		return fmt.Errorf("amqp: declare %s: %w", queue, err)
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, pub); err != nil {
		s.reset()
		return fmt.Errorf("amqp: publish %s: %w", queue, err)
	}
	return nil
}

// Close releases the broker connection.
func (s *AMQPSender) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil {
		return nil
	}
	err := s.conn.Close()
	s.conn, s.ch = nil, nil
	return err
}

// channel must be called with mu held.
func (s *AMQPSender) channel() (*amqp.Channel, error) {
	if s.ch != nil && !s.ch.IsClosed() {
		return s.ch, nil
	}
	s.reset()

	conn, err := amqp.Dial(s.url)
	if err != nil {
		return nil, fmt.Errorf("amqp: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqp: open channel: %w", err)
	}
	s.conn, s.ch = conn, ch
	return ch, nil
}

// reset must be called with mu held.
func (s *AMQPSender) reset() {
	if s.conn != nil {
		_ = s.conn.Close()
	}
	s.conn, s.ch = nil, nil
}
