package catalog

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"table-booking/internal/model"

	"github.com/rs/zerolog"
)

// readEvents decodes one JSON event per line. Blank lines are ignored and
// entries missing a ref, label or date are skipped; a line that is not JSON
// fails the whole load.
func readEvents(ctx context.Context, r io.Reader, name string, logger zerolog.Logger) (EventSet, error) {
	if strings.HasSuffix(name, ".gz") {
		gzipReader, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader for %s: %w", name, err)
		}
		defer gzipReader.Close()
		r = gzipReader
	}

	set := NewMapEventSet(1024).(*mapEventSet)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	lineNo := 0
	skipped := 0
	for scanner.Scan() {
		lineNo++
		if lineNo%10_000 == 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			default:
			}
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var ev model.Event
		if err := json.Unmarshal([]byte(line), &ev); err != nil {
			return nil, fmt.Errorf("invalid event at %s:%d: %w", name, lineNo, err)
		}

		ev.Ref = strings.TrimSpace(ev.Ref)
		if ev.Ref == "" || ev.Label == "" || ev.Date.IsZero() || ev.PriceCents < 0 {
			skipped++
			logger.Warn().Str("source", name).Int("line", lineNo).Msg("skipping incomplete event")
			continue
		}

		set.Add(&ev)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading event file %s: %w", name, err)
	}

	if skipped > 0 {
		logger.Warn().Str("source", name).Int("skipped", skipped).Msg("some events were skipped")
	}

	return set, nil
}
