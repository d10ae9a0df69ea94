// Package calendarbe implements the calendar backend: read-only event
// listing, availability checks, and keyword search over an injected event
// store.
package calendarbe

import (
	"context"
	"time"
)

// Event is a single calendar entry.
type Event struct {
	// ID uniquely identifies the event.
	ID string

	// Title is the human-readable summary.
	Title string

	// Location is free-form and may be empty.
	Location string

	// Start and End bound the event in time.
	Start time.Time
	End   time.Time
}

// EventStore provides read access to calendar events. The backend never
// writes; seeding and synchronisation are the owner's concern.
type EventStore interface {
	// Upcoming returns events starting in [from, from+days), ordered by
	// start time.
	Upcoming(ctx context.Context, from time.Time, days int) ([]Event, error)

	// Search returns events whose title contains keyword
	// (case-insensitive), ordered by start time.
	Search(ctx context.Context, keyword string) ([]Event, error)
}
