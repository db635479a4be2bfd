package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeChannel struct {
	declared   []string
	published  []amqp.Publishing
	keys       []string
	publishErr error
	closed     bool
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	f.declared = append(f.declared, name)
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func TestAMQPPublisher_Publish(t *testing.T) {
	ch := &fakeChannel{}
	dials := 0
	pub := newAMQPPublisher("amqp://test", "notifications.booking", func(url string) (amqpChannel, io.Closer, error) {
		dials++
		return ch, nopCloser{}, nil
	}, zerolog.Nop())

	msg := Message{ID: uuid.New(), Kind: KindOrderConfirmation, To: "guest@example.com"}

	require.NoError(t, pub.Publish(context.Background(), msg))
	require.NoError(t, pub.Publish(context.Background(), msg))

	assert.Equal(t, 1, dials, "connection is reused")
	assert.Equal(t, []string{"notifications.booking"}, ch.declared)
	require.Len(t, ch.published, 2)
	assert.Equal(t, "notifications.booking", ch.keys[0])
	assert.Equal(t, amqp.Persistent, ch.published[0].DeliveryMode)
	assert.Equal(t, "application/json", ch.published[0].ContentType)
	assert.Equal(t, msg.ID.String(), ch.published[0].MessageId)

	var decoded Message
	require.NoError(t, json.Unmarshal(ch.published[0].Body, &decoded))
	assert.Equal(t, msg.To, decoded.To)
}

func TestAMQPPublisher_RedialsAfterFailure(t *testing.T) {
	broken := &fakeChannel{publishErr: errors.New("channel closed")}
	healthy := &fakeChannel{}
	channels := []*fakeChannel{broken, healthy}

	pub := newAMQPPublisher("amqp://test", "q", func(url string) (amqpChannel, io.Closer, error) {
		next := channels[0]
		channels = channels[1:]
		return next, nopCloser{}, nil
	}, zerolog.Nop())

	msg := Message{ID: uuid.New(), Kind: KindOrderFailure, To: "guest@example.com"}

	assert.Error(t, pub.Publish(context.Background(), msg))
	assert.True(t, broken.closed)

	require.NoError(t, pub.Publish(context.Background(), msg))
	assert.Len(t, healthy.published, 1)
}

func TestAMQPPublisher_DialError(t *testing.T) {
	pub := newAMQPPublisher("amqp://test", "q", func(url string) (amqpChannel, io.Closer, error) {
		return nil, nil, errors.New("connection refused")
	}, zerolog.Nop())

	err := pub.Publish(context.Background(), Message{ID: uuid.New(), Kind: KindOrderAdmin, To: "a@b.c"})

	assert.Error(t, err)
	assert.NoError(t, pub.Close())
}

func TestAMQPPublisher_DialFailureCoolsDown(t *testing.T) {
	now := time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC)
	dials := 0
	healthy := &fakeChannel{}

	pub := newAMQPPublisher("amqp://test", "q", func(url string) (amqpChannel, io.Closer, error) {
		dials++
		if dials == 1 {
			return nil, nil, errors.New("connection refused")
		}
		return healthy, nopCloser{}, nil
	}, zerolog.Nop())
	pub.now = func() time.Time { return now }

	msg := Message{ID: uuid.New(), Kind: KindBookingVerify, To: "guest@example.com"}

	assert.Error(t, pub.Publish(context.Background(), msg))

	for range 5 {
		assert.ErrorIs(t, pub.Publish(context.Background(), msg), ErrBrokerUnavailable)
	}
	assert.Equal(t, 1, dials, "no redial while cooling down")

	now = now.Add(redialCooldown)
	require.NoError(t, pub.Publish(context.Background(), msg))
	assert.Equal(t, 2, dials)
	assert.Len(t, healthy.published, 1)
}
