package notify

import (
	"context"

	"github.com/rs/zerolog"
)

// logPublisher writes messages to the log instead of a broker.
type logPublisher struct {
	logger zerolog.Logger
}

// NewLogPublisher creates a Publisher used when no broker is configured.
func NewLogPublisher(logger zerolog.Logger) Publisher {
	return &logPublisher{logger: logger.With().Str("component", "log-publisher").Logger()}
}

func (p *logPublisher) Publish(ctx context.Context, msg Message) error {
	p.logger.Info().
		Str("message_id", msg.ID.String()).
		Str("kind", string(msg.Kind)).
		Str("to", msg.To).
		Msg("notification")
	return nil
}

func (p *logPublisher) Close() error {
	return nil
}
