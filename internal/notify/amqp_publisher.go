package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"errors"
	"io"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// amqpChannel is the subset of *amqp.Channel used for publishing.
type amqpChannel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type dialFunc func(url string) (amqpChannel, io.Closer, error)

const (
	dialTimeout    = 2 * time.Second
	redialCooldown = 15 * time.Second
)

// ErrBrokerUnavailable is returned without dialing while a failed connection
// attempt is cooling down.
var ErrBrokerUnavailable = errors.New("message broker unavailable")

func dialAMQP(url string) (amqpChannel, io.Closer, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(dialTimeout),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("failed to open channel: %w", err)
	}
	return ch, conn, nil
}

// amqpPublisher publishes persistent JSON messages to a durable queue. The
// connection is opened lazily and re-dialed after a failed publish. After a
// failed dial, publishes fail fast until the cooldown has passed.
type amqpPublisher struct {
	url    string
	queue  string
	dial   dialFunc
	now    func() time.Time
	logger zerolog.Logger

	mu      sync.Mutex
	ch      amqpChannel
	conn    io.Closer
	retryAt time.Time
}

// NewAMQPPublisher creates a Publisher backed by RabbitMQ.
func NewAMQPPublisher(url, queue string, logger zerolog.Logger) Publisher {
	return newAMQPPublisher(url, queue, dialAMQP, logger)
}

func newAMQPPublisher(url, queue string, dial dialFunc, logger zerolog.Logger) *amqpPublisher {
	return &amqpPublisher{
		url:    url,
		queue:  queue,
		dial:   dial,
		now:    time.Now,
		logger: logger.With().Str("component", "amqp-publisher").Str("queue", queue).Logger(),
	}
}

func (p *amqpPublisher) Publish(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.ensureChannel(); err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    msg.ID.String(),
		Type:         string(msg.Kind),
		Timestamp:    msg.CreatedAt,
		Body:         body,
	}

	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.logger.Warn().Err(err).Msg("publish failed, dropping channel")
		p.reset()
		return fmt.Errorf("failed to publish message: %w", err)
	}

	return nil
}

func (p *amqpPublisher) ensureChannel() error {
	if p.ch != nil {
		return nil
	}
	if p.now().Before(p.retryAt) {
		return ErrBrokerUnavailable
	}

	ch, conn, err := p.dial(p.url)
	if err != nil {
		p.retryAt = p.now().Add(redialCooldown)
		p.logger.Error().Err(err).Time("retry_at", p.retryAt).Msg("failed to connect to broker")
		return err
	}

	if _, err := ch.QueueDeclare(p.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		if conn != nil {
			_ = conn.Close()
		}
		return fmt.Errorf("failed to declare queue %s: %w", p.queue, err)
	}

	p.ch, p.conn = ch, conn
	p.logger.Info().Msg("connected to broker")

	return nil
}

func (p *amqpPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
	}
	if p.conn != nil {
		_ = p.conn.Close()
	}
	p.ch, p.conn = nil, nil
}

func (p *amqpPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reset()
	return nil
}
