package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Dispatcher delivers a decoded message, e.g. by rendering and sending an email.
type Dispatcher interface {
	Dispatch(ctx context.Context, msg Message) error
}

// Consumer reads the notification queue and hands each message to a Dispatcher.
type Consumer struct {
	url        string
	queue      string
	prefetch   int
	dispatcher Dispatcher
	logger     zerolog.Logger
}

// NewConsumer creates a queue consumer.
func NewConsumer(url, queue string, dispatcher Dispatcher, logger zerolog.Logger) *Consumer {
	return &Consumer{
		url:        url,
		queue:      queue,
		prefetch:   50,
		dispatcher: dispatcher,
		logger:     logger.With().Str("component", "notification-consumer").Str("queue", queue).Logger(),
	}
}

// Run consumes until ctx is cancelled, reconnecting with exponential backoff
// whenever the broker connection drops.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.logger.Warn().Err(err).Dur("retry_in", backoff).Msg("failed to dial broker")
			if !sleep(ctx, backoff) {
				return ctx.Err()
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
			return ctx.Err()
		}

		c.logger.Warn().Err(err).Msg("consume loop ended, reconnecting")
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		c.logger.Warn().Err(err).Msg("set QoS failed")
	}

	if _, err := ch.QueueDeclare(c.queue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("queue declare: %w", err)
	}

	deliveries, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	c.logger.Info().Msg("consuming notifications")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			if err := c.handle(ctx, d.Body); err != nil {
				c.logger.Error().Err(err).Str("message_id", d.MessageId).Msg("failed to handle notification")
				// reject without requeue to avoid a poison-message loop
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
	}
}

func (c *Consumer) handle(ctx context.Context, body []byte) error {
	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if msg.Kind == "" || msg.To == "" {
		return fmt.Errorf("message %s is missing kind or recipient", msg.ID)
	}
	return c.dispatcher.Dispatch(ctx, msg)
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

// LogDispatcher records each message as a structured log line.
type LogDispatcher struct {
	logger zerolog.Logger
}

// NewLogDispatcher creates a Dispatcher that only logs.
func NewLogDispatcher(logger zerolog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger.With().Str("component", "dispatcher").Logger()}
}

// Dispatch logs the message.
func (d *LogDispatcher) Dispatch(ctx context.Context, msg Message) error {
	event := d.logger.Info().
		Str("message_id", msg.ID.String()).
		Str("kind", string(msg.Kind)).
		Str("to", msg.To).
		Int64("total_cents", msg.TotalCents)
	if msg.OrderID != nil {
		event = event.Str("order_id", msg.OrderID.String())
	}
	if msg.BookingID != nil {
		event = event.Str("booking_id", msg.BookingID.String())
	}
	event.Msg("notification dispatched")
	return nil
}
