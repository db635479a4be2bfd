package catalog

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

// fileLoader implements Loader for event files on the local file system.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based event loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "event-loader").Logger(),
	}
}

// Load reads an event file and returns its events.
func (l *fileLoader) Load(ctx context.Context, filePath string) (EventSet, error) {
	l.logger.Info().Str("file", filePath).Msg("loading event file")

	file, err := os.Open(filePath)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to open event file")
		return nil, fmt.Errorf("failed to open event file %s: %w", filePath, err)
	}
	defer file.Close()

	set, err := readEvents(ctx, file, filePath, l.logger)
	if err != nil {
		l.logger.Error().Err(err).Str("file", filePath).Msg("failed to read event file")
		return nil, err
	}

	l.logger.Info().
		Str("file", filePath).
		Int("events_loaded", set.Size()).
		Msg("event file loaded successfully")

	return set, nil
}
