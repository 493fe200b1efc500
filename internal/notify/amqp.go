package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

const RoutingKeyEmail = "notification.email"

type AMQPConfig struct {
	URL      string
	Exchange string
	Queue    string
	Prefetch int
	// Timeout bounds one delivery on the consumer side.
	Timeout time.Duration
}

// AMQPPublisher hands messages to a topic exchange; cmd/mailer delivers them.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewAMQPPublisher(url, exchange string) (*AMQPPublisher, error) {
	conn, ch, err := dial(url, exchange)
	if err != nil {
		return nil, err
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange}, nil
}

func dial(url, exchange string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, fmt.Errorf("dial rabbitmq: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("declare exchange: %w", err)
	}
	return conn, ch, nil
}

func (p *AMQPPublisher) Send(ctx context.Context, m Message) error {
	b, err := json.Marshal(m)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ch.PublishWithContext(ctx, p.exchange, RoutingKeyEmail, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Body:         b,
	})
}

func (p *AMQPPublisher) Close() error {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// AMQPConsumer reads queued messages and delivers each with sender.
// Failed deliveries are dropped (nack without requeue).
type AMQPConsumer struct {
	cfg    AMQPConfig
	sender Sender
	log    *logrus.Entry

	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPConsumer(cfg AMQPConfig, s Sender, log *logrus.Logger) *AMQPConsumer {
	if cfg.Prefetch <= 0 {
		cfg.Prefetch = 8
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &AMQPConsumer{cfg: cfg, sender: s, log: log.WithField("component", "mailer")}
}

func (c *AMQPConsumer) Connect() error {
	conn, ch, err := dial(c.cfg.URL, c.cfg.Exchange)
	if err != nil {
		return err
	}
	fail := func(format string, err error) error {
		_ = ch.Close()
		_ = conn.Close()
		return fmt.Errorf(format, err)
	}
	q, err := ch.QueueDeclare(c.cfg.Queue, true, false, false, false, nil)
	if err != nil {
		return fail("declare queue: %w", err)
	}
	if err := ch.QueueBind(q.Name, RoutingKeyEmail, c.cfg.Exchange, false, nil); err != nil {
		return fail("bind queue: %w", err)
	}
	if err := ch.Qos(c.cfg.Prefetch, 0, false); err != nil {
		return fail("set qos: %w", err)
	}
	c.conn, c.ch = conn, ch
	return nil
}

func (c *AMQPConsumer) Close() {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

func (c *AMQPConsumer) Run(ctx context.Context) error {
	msgs, err := c.ch.ConsumeWithContext(ctx, c.cfg.Queue, "mailer", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := c.handle(ctx, d.Body); err != nil {
				c.log.WithError(err).Error("email error")
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *AMQPConsumer) handle(ctx context.Context, body []byte) error {
	m, err := DecodeMessage(body)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	if err := c.sender.Send(ctx, m); err != nil {
		return err
	}
	c.log.WithField("to", m.To).Info("email sent")
	return nil
}

func DecodeMessage(b []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return Message{}, fmt.Errorf("decode payload failed: %w", err)
	}
	if m.To == "" {
		return Message{}, fmt.Errorf("decode payload failed: missing recipient")
	}
	return m, nil
}
