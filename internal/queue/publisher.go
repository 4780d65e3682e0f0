package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/agrodesk/internal/logging"
	"github.com/iliyamo/agrodesk/internal/metrics"
)

// Publisher sends events to NotificationQueue. Callers treat failures
// as non-fatal: errors are logged and returned so the request flow can
// ignore them.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
	Close() error
}

// AMQPPublisher keeps one connection and channel open and redials
// lazily after the broker drops them.
type AMQPPublisher struct {
	url  string
	dial func(url string) (*amqp.Connection, error)

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

// PublishDialTimeout bounds a redial made on the request path.
const PublishDialTimeout = 2 * time.Second

func NewAMQPPublisher(url string) *AMQPPublisher {
	return &AMQPPublisher{url: url, dial: dialWithTimeout(PublishDialTimeout)}
}

// dialWithTimeout is amqp.Dial with a shorter TCP connect timeout.
func dialWithTimeout(timeout time.Duration) func(url string) (*amqp.Connection, error) {
	return func(url string) (*amqp.Connection, error) {
		return amqp.DialConfig(url, amqp.Config{
			Heartbeat: 10 * time.Second,
			Locale:    "en_US",
			Dial:      amqp.DefaultDial(timeout),
		})
	}
}

// channel returns an open channel, dialing and declaring the queue if
// needed. Must be called with p.mu held.
func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}
	p.reset()

	conn, err := p.dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq: dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: channel open: %w", err)
	}
	// Durable so messages survive broker restarts.
	if _, err := ch.QueueDeclare(NotificationQueue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("rabbitmq: queue declare: %w", err)
	}
	p.conn, p.ch = conn, ch
	return ch, nil
}

func (p *AMQPPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

// Publish marshals ev and sends it as a persistent message.
func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	log := logging.FromContext(ctx)
	err := p.publish(ctx, ev)
	if err != nil {
		metrics.EventsPublished.WithLabelValues(ev.EventType(), "failed").Inc()
		log.Warn("event publish failed", slog.String("type", ev.EventType()), slog.Any("err", err))
		return err
	}
	metrics.EventsPublished.WithLabelValues(ev.EventType(), "ok").Inc()
	log.Debug("event published", slog.String("type", ev.EventType()))
	return nil
}

func (p *AMQPPublisher) publish(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("rabbitmq: marshal event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// the request may have given up while queued behind a redial
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	ch, err := p.channel()
	if err != nil {
		return err
	}
	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         ev.EventType(),
		Body:         body,
	}
	// default exchange, routing key = queue name
	if err := ch.PublishWithContext(ctx, "", NotificationQueue, false, false, msg); err != nil {
		p.reset()
		return fmt.Errorf("rabbitmq: publish: %w", err)
	}
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, ev Event) error {
	logging.FromContext(ctx).Debug("event dropped, no broker configured", slog.String("type", ev.EventType()))
	return nil
}

func (NoopPublisher) Close() error { return nil }
