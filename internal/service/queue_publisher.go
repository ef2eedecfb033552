// Package service publishes project lifecycle events to RabbitMQ.  Publish
// failures are returned for logging; callers never fail a request on them.
package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/project-archive/internal/queue"
)

const defaultDialTimeout = 5 * time.Second

// Publisher sends ProjectEvents to the project.events queue.  A Publisher
// with an empty URL drops every event.
type Publisher struct {
	URL string
}

func NewPublisher(url string) *Publisher {
	return &Publisher{URL: url}
}

// Enabled reports whether events are sent anywhere.
func (p *Publisher) Enabled() bool { return p != nil && p.URL != "" }

// Publish dials the broker, declares the durable queue and publishes ev as a
// persistent JSON message.
func (p *Publisher) Publish(ctx context.Context, ev queue.ProjectEvent) error {
	if !p.Enabled() {
		return nil
	}
	body, err := encodeEvent(ev)
	if err != nil {
		return err
	}

	conn, err := p.dial(ctx)
	if err != nil {
		return fmt.Errorf("rabbitmq dial: %w", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("rabbitmq channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queue.ProjectEventsQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("rabbitmq queue declare: %w", err)
	}
	err = ch.PublishWithContext(ctx, "", queue.ProjectEventsQueue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    ev.At,
		Type:         ev.Type,
		Body:         body,
	})
	if err != nil {
		return fmt.Errorf("rabbitmq publish: %w", err)
	}
	return nil
}

// dial connects with the connect and handshake deadline taken from ctx, so a
// broker that accepts but never answers cannot outlast the caller.
func (p *Publisher) dial(ctx context.Context) (*amqp.Connection, error) {
	timeout := defaultDialTimeout
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
		if timeout <= 0 {
			return nil, context.DeadlineExceeded
		}
	}
	return amqp.DialConfig(p.URL, amqp.Config{
		Locale: "en_US",
		Dial:   amqp.DefaultDial(timeout),
	})
}

func encodeEvent(ev queue.ProjectEvent) ([]byte, error) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	return json.Marshal(ev)
}
