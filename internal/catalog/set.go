package catalog

import "table-booking/internal/model"

// mapEventSet implements EventSet using a map for O(1) lookups.
type mapEventSet struct {
	events map[string]*model.Event
}

// NewMapEventSet creates a new map-based event set.
func NewMapEventSet(capacity int) EventSet {
	return &mapEventSet{
		events: make(map[string]*model.Event, capacity),
	}
}

// Get returns the event for ref.
func (s *mapEventSet) Get(ref string) (*model.Event, bool) {
	ev, ok := s.events[ref]
	return ev, ok
}

// Size returns the number of events in the set.
func (s *mapEventSet) Size() int {
	return len(s.events)
}

// Each calls fn for every event in the set.
func (s *mapEventSet) Each(fn func(*model.Event)) {
	for _, ev := range s.events {
		fn(ev)
	}
}

// Add stores ev, replacing any event with the same ref.
func (s *mapEventSet) Add(ev *model.Event) {
	s.events[ev.Ref] = ev
}
