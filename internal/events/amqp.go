package events

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/noah-isme/festbook-cart/internal/store"
)

// Publisher is the part of an AMQP channel the notifier uses.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Envelope is the message body published for each event.
type Envelope struct {
	ID          string          `json:"id"`
	Topic       string          `json:"topic"`
	AggregateID string          `json:"aggregateId"`
	Payload     json.RawMessage `json:"payload"`
	OccurredAt  time.Time       `json:"occurredAt"`
}

// AMQPNotifier forwards events to a durable queue as persistent messages.
type AMQPNotifier struct {
	Channel Publisher
	Queue   string
	Topics  []string
	Logger  zerolog.Logger

	closer func() error
}

// DialAMQP connects to the broker, declares queue as durable and returns a
// notifier publishing to it.
func DialAMQP(url, queue string, logger zerolog.Logger) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("events: amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("events: amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("events: amqp queue declare: %w", err)
	}
	return &AMQPNotifier{
		Channel: ch,
		Queue:   queue,
		Topics:  DefaultTopics(),
		Logger:  logger,
		closer: func() error {
			_ = ch.Close()
			return conn.Close()
		},
	}, nil
}

// Notify implements Notifier. Events outside Topics are ignored.
func (n *AMQPNotifier) Notify(ctx context.Context, event store.DomainEvent) error {
	if n == nil || n.Channel == nil {
		return nil
	}
	if len(n.Topics) > 0 && !slices.Contains(n.Topics, event.Topic) {
		return nil
	}
	body, err := json.Marshal(Envelope{
		ID:          event.ID,
		Topic:       event.Topic,
		AggregateID: event.AggregateID,
		Payload:     json.RawMessage(event.Payload),
		OccurredAt:  event.OccurredAt.UTC(),
	})
	if err != nil {
		return err
	}
	err = n.Channel.PublishWithContext(ctx, "", n.Queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.ID,
		Type:         event.Topic,
		Timestamp:    event.OccurredAt.UTC(),
		Body:         body,
	})
	if err != nil {
		n.Logger.Error().Err(err).Str("topic", event.Topic).Str("event_id", event.ID).Msg("amqp publish failed")
		return err
	}
	return nil
}

// Close releases the broker connection opened by DialAMQP.
func (n *AMQPNotifier) Close() error {
	if n == nil || n.closer == nil {
		return nil
	}
	return n.closer()
}
