package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rabbitmq/amqp091-go"

	"foodcourt-backend/internal/models"
)

// AMQPSink publishes notifications to a topic exchange so downstream push
// workers (mobile push, SMS, email) can consume them independently of this
// service. Messages are persistent and keyed by recipient.
type AMQPSink struct {
	channel  *amqp091.Channel
	exchange string
}

func NewAMQPSink(conn *amqp091.Connection, exchange string) (*AMQPSink, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("declare exchange: %w", err)
	}
	return &AMQPSink{channel: ch, exchange: exchange}, nil
}

func (s *AMQPSink) Deliver(ctx context.Context, n *models.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	routingKey := fmt.Sprintf("notify.user.%s", n.UserID.Hex())
	pub := amqp091.Publishing{
		DeliveryMode:  amqp091.Persistent,
		ContentType:   "application/json",
		Body:          body,
		MessageId:     n.ID.Hex(),
		CorrelationId: n.RelatedOrderID.Hex(),
		Timestamp:     n.CreatedAt,
	}
	return s.channel.PublishWithContext(ctx, s.exchange, routingKey, false, false, pub)
}

// TeeSink delivers to every sink, failing if any fails so the dispatcher's
// retry covers all of them. Redelivery is safe: both sinks are idempotent on
// the notification id.
type TeeSink []Sink

func (t TeeSink) Deliver(ctx context.Context, n *models.Notification) error {
	for _, sink := range t {
		if err := sink.Deliver(ctx, n); err != nil {
			return err
		}
	}
	return nil
}
