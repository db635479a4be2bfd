package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"table-booking/internal/model"

	"github.com/rs/zerolog"
)

// store implements Catalog over the merged contents of several event files.
type store struct {
	mu     sync.RWMutex
	events EventSet
	logger zerolog.Logger
}

// NewCatalog loads every file concurrently and merges them in order, so a
// later file overrides events with the same ref from an earlier one.
func NewCatalog(ctx context.Context, filePaths []string, loader Loader, logger zerolog.Logger) (Catalog, error) {
	logger = logger.With().Str("component", "event-catalog").Logger()

	if len(filePaths) == 0 {
		return nil, fmt.Errorf("no event files configured")
	}

	logger.Info().Int("file_count", len(filePaths)).Msg("initialising event catalog")

	type loadResult struct {
		index int
		set   EventSet
		err   error
	}

	resultChan := make(chan loadResult, len(filePaths))
	var wg sync.WaitGroup

	for i, filePath := range filePaths {
		wg.Add(1)
		go func(index int, path string) {
			defer wg.Done()

			set, err := loader.Load(ctx, path)
			resultChan <- loadResult{index: index, set: set, err: err}
		}(i, filePath)
	}

	wg.Wait()
	close(resultChan)

	results := make([]loadResult, len(filePaths))
	for result := range resultChan {
		results[result.index] = result
	}

	merged := NewMapEventSet(1024).(*mapEventSet)
	for i, result := range results {
		if result.err != nil {
			logger.Error().Err(result.err).Str("file", filePaths[i]).Msg("failed to load event file")
			return nil, fmt.Errorf("failed to load event file %s: %w", filePaths[i], result.err)
		}
		result.set.Each(merged.Add)
	}

	logger.Info().Int("total_events", merged.Size()).Msg("event catalog initialised successfully")

	return &store{events: merged, logger: logger}, nil
}

// Event returns the event for ref.
func (s *store) Event(ctx context.Context, ref string) (*model.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.events == nil {
		return nil, model.ErrEventNotFound
	}

	ev, ok := s.events.Get(strings.TrimSpace(ref))
	if !ok {
		s.logger.Debug().Str("event_ref", ref).Msg("event not found")
		return nil, model.ErrEventNotFound
	}

	out := *ev
	return &out, nil
}

// Size returns the number of events loaded.
func (s *store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.events == nil {
		return 0
	}
	return s.events.Size()
}

// Close drops the loaded events.
func (s *store) Close() error {
	s.mu.Lock()
	s.events = nil
	s.mu.Unlock()

	s.logger.Info().Msg("event catalog closed")

	return nil
}

// NewStaticCatalog builds a catalog from events already in memory.
func NewStaticCatalog(events []model.Event, logger zerolog.Logger) Catalog {
	set := NewMapEventSet(len(events)).(*mapEventSet)
	for i := range events {
		ev := events[i]
		set.Add(&ev)
	}
	return &store{events: set, logger: logger.With().Str("component", "event-catalog").Logger()}
}
