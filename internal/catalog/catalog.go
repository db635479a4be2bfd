// Package catalog loads the bookable event catalog from JSON-lines files held
// locally or in S3.
package catalog

import (
	"context"

	"table-booking/internal/model"
)

// Catalog resolves event references to bookable events.
type Catalog interface {
	// Event returns the event for ref, or model.ErrEventNotFound.
	Event(ctx context.Context, ref string) (*model.Event, error)

	// Size returns the number of events loaded.
	Size() int

	// Close releases resources held by the catalog.
	Close() error
}

// EventSet is a read-only collection of events keyed by ref.
type EventSet interface {
	// Get returns the event for ref.
	Get(ref string) (*model.Event, bool)

	// Size returns the number of events in the set.
	Size() int

	// Each calls fn for every event in the set.
	Each(fn func(*model.Event))
}

// Loader defines the interface for loading event catalog files.
type Loader interface {
	// Load reads a JSON-lines event file, gunzipping it when the name ends in .gz.
	Load(ctx context.Context, path string) (EventSet, error)
}
