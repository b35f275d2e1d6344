// Package queue publishes JSON messages to RabbitMQ queues.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"viona/internal/events"
)

const publishTimeout = 5 * time.Second

// Publisher dials the broker per publish. Volume is one message per booking,
// so there is no connection to keep healthy between publishes.
type Publisher struct {
	url    string
	logger *zerolog.Logger

	// forwards tracks events still being mirrored to the broker.
	forwards sync.WaitGroup
}

func NewPublisher(url string, logger *zerolog.Logger) *Publisher {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Publisher{url: url, logger: logger}
}

// PublishJSON declares the durable queue and publishes payload as a
// persistent message on the default exchange.
func (p *Publisher) PublishJSON(ctx context.Context, queue string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	conn, err := p.dial(ctx)
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	); err != nil {
		return fmt.Errorf("declare queue %s: %w", queue, err)
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue, false, false, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", queue, err)
	}

	p.logger.Debug().Str("queue", queue).Int("bytes", len(body)).Msg("Message published")
	return nil
}

// dial bounds the TCP connect and AMQP handshake by publishTimeout or the
// context deadline, whichever comes first.
func (p *Publisher) dial(ctx context.Context) (*amqp.Connection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	timeout := publishTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if left := time.Until(deadline); left < timeout {
			timeout = left
		}
	}
	if timeout <= 0 {
		return nil, context.DeadlineExceeded
	}
	return amqp.DialConfig(p.url, amqp.Config{
		Dial:   amqp.DefaultDial(timeout),
		Locale: "en_US",
	})
}

// EventEnvelope is the wire form of a forwarded domain event.
type EventEnvelope struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// ForwardEvents returns a bus handler that mirrors every event to queue in
// the background, so a slow broker never holds up the publisher of the
// event. Broker failures are logged.
func (p *Publisher) ForwardEvents(queue string) events.EventHandler {
	return func(event *events.Event) error {
		env := EventEnvelope{Type: event.Type, Payload: event.Payload, CreatedAt: event.CreatedAt}
		if len(env.Payload) == 0 {
			env.Payload = json.RawMessage("null")
		}

		p.forwards.Add(1)
		go func() {
			defer p.forwards.Done()

			ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
			defer cancel()
			if err := p.PublishJSON(ctx, queue, env); err != nil {
				p.logger.Error().Err(err).Str("event", env.Type).Msg("Failed to forward event")
			}
		}()
		return nil
	}
}

// Wait blocks until every forwarded event has been published or dropped.
func (p *Publisher) Wait() {
	p.forwards.Wait()
}
