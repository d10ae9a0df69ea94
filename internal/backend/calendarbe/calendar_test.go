package calendarbe

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"switchboard/internal/backend"
)

// testNow is a Wednesday morning.
var testNow = time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC)

// seededBackend returns a backend over a store holding a standup today, a
// design review tomorrow and a dentist appointment next week.
func seededBackend() *Backend {
	store := NewMemStore()
	store.Add(Event{
		Title: "Standup",
		Start: time.Date(2026, time.March, 4, 9, 30, 0, 0, time.UTC),
		End:   time.Date(2026, time.March, 4, 9, 45, 0, 0, time.UTC),
	})
	store.Add(Event{
		Title:    "Design review",
		Location: "Room 2",
		Start:    time.Date(2026, time.March, 5, 14, 0, 0, 0, time.UTC),
		End:      time.Date(2026, time.March, 5, 15, 0, 0, 0, time.UTC),
	})
	store.Add(Event{
		Title: "Dentist",
		Start: time.Date(2026, time.March, 10, 8, 0, 0, 0, time.UTC),
		End:   time.Date(2026, time.March, 10, 9, 0, 0, 0, time.UTC),
	})
	return New(store, WithNow(func() time.Time { return testNow }))
}

func ask(t *testing.T, b *Backend, text string) string {
	t.Helper()
	got, err := b.Answer(context.Background(), backend.Query{ChatID: "c1", Text: text})
	if err != nil {
		t.Fatalf("Answer(%q): %v", text, err)
	}
	return got
}

func TestAnswerToday(t *testing.T) {
	got := ask(t, seededBackend(), "What meetings do I have today?")
	if !strings.Contains(got, "1 event(s) today") || !strings.Contains(got, "Standup") {
		t.Errorf("unexpected answer: %q", got)
	}
}

func TestAnswerTodayEmpty(t *testing.T) {
	b := New(NewMemStore(), WithNow(func() time.Time { return testNow }))

	got := ask(t, b, "What meetings do I have today?")
	if got != "No meetings today." {
		t.Errorf("got %q, want %q", got, "No meetings today.")
	}
}

func TestAnswerTomorrow(t *testing.T) {
	got := ask(t, seededBackend(), "what's on my calendar tomorrow")
	if !strings.Contains(got, "Design review") || !strings.Contains(got, "(Room 2)") {
		t.Errorf("unexpected answer: %q", got)
	}
	if strings.Contains(got, "Standup") || strings.Contains(got, "Dentist") {
		t.Errorf("tomorrow listing leaked other days: %q", got)
	}
}

func TestAnswerWeekDefault(t *testing.T) {
	got := ask(t, seededBackend(), "What's on my schedule?")
	if !strings.Contains(got, "3 event(s) in the next 7 days") {
		t.Errorf("unexpected answer: %q", got)
	}
}

func TestAnswerAvailabilityFree(t *testing.T) {
	got := ask(t, seededBackend(), "Am I free on Friday?")
	if got != "You are free on Friday." {
		t.Errorf("got %q, want free-on-Friday answer", got)
	}
}

func TestAnswerAvailabilityBusy(t *testing.T) {
	got := ask(t, seededBackend(), "Am I busy tomorrow?")
	if !strings.Contains(got, "You are busy tomorrow") || !strings.Contains(got, "Design review") {
		t.Errorf("unexpected answer: %q", got)
	}
}

func TestAnswerSearch(t *testing.T) {
	got := ask(t, seededBackend(), "Find the standup meeting")
	if !strings.Contains(got, `matching "standup"`) || !strings.Contains(got, "Standup") {
		t.Errorf("unexpected answer: %q", got)
	}
}

func TestAnswerSearchNoMatch(t *testing.T) {
	got := ask(t, seededBackend(), "find the retrospective")
	if !strings.Contains(got, `No events matching "retrospective"`) {
		t.Errorf("unexpected answer: %q", got)
	}
}

func TestAnswerNilStore(t *testing.T) {
	b := New(nil)

	got := ask(t, b, "What meetings do I have today?")
	if got != unavailableAnswer {
		t.Errorf("got %q, want the unavailability answer", got)
	}
}

// failingStore returns an error from every read.
type failingStore struct{ err error }

func (s failingStore) Upcoming(context.Context, time.Time, int) ([]Event, error) {
	return nil, s.err
}
func (s failingStore) Search(context.Context, string) ([]Event, error) { return nil, s.err }

func TestAnswerStoreError(t *testing.T) {
	b := New(failingStore{err: errors.New("connection refused")})

	_, err := b.Answer(context.Background(), backend.Query{Text: "what's my schedule"})
	if err == nil {
		t.Fatal("expected store error to propagate")
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error %v should wrap the store error", err)
	}
}

func TestMemStoreUpcomingWindow(t *testing.T) {
	store := NewMemStore()
	store.Add(Event{Title: "inside", Start: testNow.AddDate(0, 0, 2)})
	store.Add(Event{Title: "outside", Start: testNow.AddDate(0, 0, 12)})
	store.Add(Event{Title: "past", Start: testNow.AddDate(0, 0, -1)})

	events, err := store.Upcoming(context.Background(), testNow, 7)
	if err != nil {
		t.Fatalf("Upcoming: %v", err)
	}
	if len(events) != 1 || events[0].Title != "inside" {
		t.Errorf("unexpected events: %+v", events)
	}
}

func TestMemStoreSearchCaseInsensitive(t *testing.T) {
	store := NewMemStore()
	store.Add(Event{Title: "Quarterly Planning", Start: testNow})

	events, err := store.Search(context.Background(), "planning")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected 1 match, got %d", len(events))
	}
}

func TestMemStoreAssignsID(t *testing.T) {
	store := NewMemStore()
	id := store.Add(Event{Title: "x", Start: testNow})
	if id == "" {
		t.Error("Add should assign an ID")
	}
}
