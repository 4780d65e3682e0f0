package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/agrodesk/internal/metrics"
)

// NotificationLog is the file, under Consumer.LogDir, that receives one
// line per consumed event.
const NotificationLog = "notifications.log"

// Consumer reads NotificationQueue and appends a human-friendly line per
// event to the notification log. It stands in for pushing notifications
// to farmers' devices.
type Consumer struct {
	URL    string
	LogDir string
	Logger *slog.Logger

	now func() time.Time
}

func NewConsumer(url, logDir string, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{URL: url, LogDir: logDir, Logger: logger, now: time.Now}
}

// Run dials the broker and consumes until ctx is cancelled, reconnecting
// with exponential backoff (capped at 30s) whenever the connection or
// the delivery channel goes away. It returns ctx.Err() on shutdown.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.URL)
		if err != nil {
			c.Logger.Warn("notification consumer: dial failed", slog.Any("err", err), slog.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.Logger.Warn("notification consumer: loop ended, reconnecting", slog.Any("err", err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.Logger.Warn("notification consumer: set QoS failed", slog.Any("err", err))
	}
	if _, err := ch.QueueDeclare(NotificationQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(NotificationQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}
	c.Logger.Info("notification consumer: listening", slog.String("queue", NotificationQueue))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handleMessage(d.Body); err != nil {
				metrics.EventsConsumed.WithLabelValues("rejected").Inc()
				c.Logger.Error("notification consumer: handle message failed", slog.Any("err", err))
				_ = d.Nack(false, false) // do not requeue, avoids tight loops
				continue
			}
			metrics.EventsConsumed.WithLabelValues("ok").Inc()
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handleMessage(body []byte) error {
	line, err := formatEvent(body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(c.LogDir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", c.LogDir, err)
	}
	f, err := os.OpenFile(filepath.Join(c.LogDir, NotificationLog), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	stamp := c.now().UTC().Format(time.RFC3339)
	if _, err := fmt.Fprintf(f, "[%s] %s\n", stamp, line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// formatEvent renders a message body as a single log line.
func formatEvent(body []byte) (string, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(body, &head); err != nil {
		return "", fmt.Errorf("unmarshal: %w", err)
	}
	switch head.Type {
	case TypeReportReplied:
		var ev ReportRepliedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal %s: %w", head.Type, err)
		}
		return fmt.Sprintf("Report replied | report_id=%d | user_id=%d | area=%q | title=%q | reply=%q | replied_at=%s",
			ev.ReportID, ev.UserID, ev.Area, ev.Title, ev.Reply, ev.RepliedAt), nil
	case TypeAlertCreated:
		var ev AlertCreatedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal %s: %w", head.Type, err)
		}
		return fmt.Sprintf("Alert created | alert_id=%d | location=%q | severity=%s | title=%q | created_at=%s",
			ev.AlertID, ev.Location, ev.Severity, ev.Title, ev.CreatedAt), nil
	default:
		return "", fmt.Errorf("unknown event type %q", head.Type)
	}
}

// sleep waits d or until ctx is done; false means ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
