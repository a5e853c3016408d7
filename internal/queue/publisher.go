package queue

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// SalesQueue is the durable queue ticket sale events are routed to.
const SalesQueue = "ticket.sales"

// DefaultDialTimeout bounds connecting to the broker, including the
// AMQP handshake.  Publishing happens after a sale has committed, so a
// broker that is down must not hold the response for long.
const DefaultDialTimeout = 2 * time.Second

// Publisher sends ticket sale events to RabbitMQ.  It dials per
// publish, which keeps it free of connection state; sales are rare
// enough for that to be cheap.
type Publisher struct {
	url         string
	queue       string
	dialTimeout time.Duration
	log         logrus.FieldLogger
}

// NewPublisher returns a publisher for the broker at url.
func NewPublisher(url string, log logrus.FieldLogger) *Publisher {
	return &Publisher{url: url, queue: SalesQueue, dialTimeout: DefaultDialTimeout, log: log}
}

// WithDialTimeout overrides DefaultDialTimeout.
func (p *Publisher) WithDialTimeout(d time.Duration) *Publisher {
	p.dialTimeout = d
	return p
}

// dial connects within the dial timeout or the ctx deadline, whichever
// comes first.
func (p *Publisher) dial(ctx context.Context) (*amqp.Connection, error) {
	timeout := p.dialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		left := time.Until(deadline)
		if left <= 0 {
			return nil, context.DeadlineExceeded
		}
		if left < timeout {
			timeout = left
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return amqp.DialConfig(p.url, amqp.Config{
		Dial:   amqp.DefaultDial(timeout),
		Locale: "en_US",
	})
}

// PublishTicketSale publishes evt as a persistent JSON message.  Errors
// are logged and returned so the caller can choose to ignore them.
func (p *Publisher) PublishTicketSale(ctx context.Context, evt TicketSaleEvent) error {
	log := p.log.WithFields(logrus.Fields{"event_id": evt.EventID, "type": evt.Type, "ticket_id": evt.TicketID})

	conn, err := p.dial(ctx)
	if err != nil {
		log.WithError(err).Warn("rabbitmq: dial failed")
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.WithError(err).Warn("rabbitmq: channel open failed")
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		log.WithError(err).Warn("rabbitmq: queue declare failed")
		return err
	}

	body, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    evt.EventID,
		Type:         evt.Type,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		log.WithError(err).Warn("rabbitmq: publish failed")
		return err
	}
	return nil
}
