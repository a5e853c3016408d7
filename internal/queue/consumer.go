package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// SalesLogConsumer consumes the ticket.sales queue and appends one line
// per event to a log file.
type SalesLogConsumer struct {
	url  string
	path string
	log  logrus.FieldLogger
}

// NewSalesLogConsumer returns a consumer writing to path.
func NewSalesLogConsumer(url, path string, log logrus.FieldLogger) *SalesLogConsumer {
	return &SalesLogConsumer{url: url, path: path, log: log.WithField("component", "sales-consumer")}
}

// Run connects to the broker and consumes until ctx is cancelled,
// reconnecting with exponential backoff whenever the connection drops.
// It returns nil once ctx is done.
func (c *SalesLogConsumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.WithError(err).Warnf("failed to dial broker; retrying in %s", backoff)
			if !sleep(ctx, backoff) {
				return nil
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return nil
		}
		c.log.WithError(err).Warn("consume loop ended; reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return nil
		}
	}
}

func (c *SalesLogConsumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.WithError(err).Warn("set QoS failed")
	}
	if _, err := ch.QueueDeclare(SalesQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}
	msgs, err := ch.Consume(SalesQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.Handle(d.Body); err != nil {
				c.log.WithError(err).Error("handle message failed")
				_ = d.Nack(false, false) // do not requeue poison messages
				continue
			}
			_ = d.Ack(false)
		}
	}
}

// Handle decodes one message body and appends it to the sales log.
func (c *SalesLogConsumer) Handle(body []byte) error {
	var ev TicketSaleEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("mkdir: %w", err)
	}
	f, err := os.OpenFile(c.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(FormatSaleLine(ev)); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}

// FormatSaleLine renders an event as a single log line ending in '\n'.
func FormatSaleLine(ev TicketSaleEvent) string {
	action := "Ticket sold"
	if ev.Type == EventTicketCancelled {
		action = "Sale cancelled"
	}
	order := "-"
	if ev.OrderID != nil {
		order = fmt.Sprint(*ev.OrderID)
	}
	return fmt.Sprintf("[%s] %s | event_id=%s | ticket_id=%d | screening_id=%d | film=%q | hall=%q | starts_at=%s | seat=%s | price=%s | order_id=%s\n",
		ev.OccurredAt.UTC().Format(time.RFC3339), action, ev.EventID, ev.TicketID, ev.ScreeningID,
		ev.FilmTitle, ev.Hall, ev.StartsAt.UTC().Format(time.RFC3339), ev.SeatNumber, ev.Price.StringFixed(2), order)
}

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
