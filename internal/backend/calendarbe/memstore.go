package calendarbe

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore is an in-memory [EventStore]. Used in tests and in deployments
// without a database.
//
// Safe for concurrent use.
type MemStore struct {
	mu     sync.Mutex
	events []Event
}

// Compile-time interface check.
var _ EventStore = (*MemStore)(nil)

// NewMemStore creates an empty in-memory event store.
func NewMemStore() *MemStore {
	return &MemStore{}
}

// Add stores an event, assigning an ID if the event has none, and returns
// the ID.
func (s *MemStore) Add(ev Event) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	s.events = append(s.events, ev)
	return ev.ID
}

// Upcoming implements [EventStore].
func (s *MemStore) Upcoming(_ context.Context, from time.Time, days int) ([]Event, error) {
	until := from.AddDate(0, 0, days)

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Event
	for _, ev := range s.events {
		if !ev.Start.Before(from) && ev.Start.Before(until) {
			out = append(out, ev)
		}
	}
	sortByStart(out)
	return out, nil
}

// Search implements [EventStore].
func (s *MemStore) Search(_ context.Context, keyword string) ([]Event, error) {
	needle := strings.ToLower(keyword)

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Event
	for _, ev := range s.events {
		if strings.Contains(strings.ToLower(ev.Title), needle) {
			out = append(out, ev)
		}
	}
	sortByStart(out)
	return out, nil
}

func sortByStart(evs []Event) {
	sort.Slice(evs, func(i, j int) bool { return evs[i].Start.Before(evs[j].Start) })
}
