package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RoutingKeyResetCode is the routing key reset-code events are published under.
const RoutingKeyResetCode = "auth.password_reset.requested"

// ResetCodeRequested is the event a mail worker consumes.
type ResetCodeRequested struct {
	Email       string    `json:"email"`
	Code        string    `json:"code"`
	RequestedAt time.Time `json:"requested_at"`
}

type jsonPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// AMQPSender hands reset codes to a downstream mail worker over RabbitMQ.
type AMQPSender struct {
	pub jsonPublisher
	now func() time.Time
}

func NewAMQPSender(pub jsonPublisher) *AMQPSender {
	return &AMQPSender{pub: pub, now: time.Now}
}

func (s *AMQPSender) SendResetCode(ctx context.Context, email, code string) error {
	evt := ResetCodeRequested{Email: email, Code: code, RequestedAt: s.now().UTC()}
	if err := s.pub.PublishJSON(ctx, RoutingKeyResetCode, evt); err != nil {
		return fmt.Errorf("publish reset code event: %w", err)
	}
	return nil
}

// Publisher publishes JSON messages to a durable topic exchange.
type Publisher struct {
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func (p *Publisher) PublishJSON(ctx context.Context, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.ch.PublishWithContext(ctx, p.exchange, key, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         b,
	})
}

func (p *Publisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}
