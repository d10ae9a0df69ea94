package calendarbe

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"switchboard/internal/backend"
)

// unavailableAnswer is returned when no event store is configured. By
// contract with the router this is an answer, not an error.
const unavailableAnswer = "Calendar is not available right now: no event store is configured."

// Backend answers calendar queries from an injected [EventStore].
type Backend struct {
	store EventStore
	now   func() time.Time
}

// Compile-time interface assertion.
var _ backend.Responder = (*Backend)(nil)

// Option configures a [Backend].
type Option func(*Backend)

// WithNow overrides the clock source. Used in tests.
func WithNow(now func() time.Time) Option {
	return func(b *Backend) {
		b.now = now
	}
}

// New creates a calendar backend. A nil store is allowed; every query then
// yields a descriptive unavailability answer.
func New(store EventStore, opts ...Option) *Backend {
	b := &Backend{store: store, now: time.Now}
	for _, o := range opts {
		o(b)
	}
	return b
}

var searchRe = regexp.MustCompile(`(?i)\b(?:find|search for|look for)\s+(?:my\s+|the\s+|an?\s+)?(.+?)\s*(?:\?|$)`)

// Answer implements backend.Responder. Queries split into three shapes:
// availability ("am I free tomorrow"), keyword search ("find the standup"),
// and upcoming listings (everything else).
func (b *Backend) Answer(ctx context.Context, q backend.Query) (string, error) {
	if b.store == nil {
		return unavailableAnswer, nil
	}

	text := strings.TrimSpace(q.Text)
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "free") || strings.Contains(lower, "busy") ||
		strings.Contains(lower, "availab"):
		return b.availabilityAnswer(ctx, lower)

	case searchRe.MatchString(text):
		m := searchRe.FindStringSubmatch(text)
		return b.searchAnswer(ctx, strings.TrimSpace(m[1]))
	}

	return b.upcomingAnswer(ctx, lower)
}

// upcomingAnswer lists events in the window the query names (today,
// tomorrow, or the next 7 days).
func (b *Backend) upcomingAnswer(ctx context.Context, lower string) (string, error) {
	now := b.now()
	from := startOfDay(now)
	days := 7
	label := "in the next 7 days"

	switch {
	case strings.Contains(lower, "today") || strings.Contains(lower, "tonight"):
		days, label = 1, "today"
	case strings.Contains(lower, "tomorrow"):
		from = from.AddDate(0, 0, 1)
		days, label = 1, "tomorrow"
	case strings.Contains(lower, "month"):
		days, label = 30, "in the next 30 days"
	}

	events, err := b.store.Upcoming(ctx, from, days)
	if err != nil {
		return "", fmt.Errorf("calendarbe: %w", err)
	}

	if len(events) == 0 {
		switch label {
		case "today":
			return "No meetings today.", nil
		case "tomorrow":
			return "No meetings tomorrow.", nil
		default:
			return fmt.Sprintf("No events %s.", label), nil
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You have %d event(s) %s:", len(events), label)
	for _, ev := range events {
		sb.WriteString("\n" + formatEvent(ev))
	}
	return sb.String(), nil
}

// availabilityAnswer reports free/busy for the day the query names.
func (b *Backend) availabilityAnswer(ctx context.Context, lower string) (string, error) {
	day, label := resolveDay(lower, b.now())

	events, err := b.store.Upcoming(ctx, day, 1)
	if err != nil {
		return "", fmt.Errorf("calendarbe: %w", err)
	}

	if len(events) == 0 {
		return fmt.Sprintf("You are free %s.", label), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "You are busy %s with %d event(s):", label, len(events))
	for _, ev := range events {
		sb.WriteString("\n" + formatEvent(ev))
	}
	return sb.String(), nil
}

// searchAnswer finds events by title keyword.
func (b *Backend) searchAnswer(ctx context.Context, keyword string) (string, error) {
	// Trailing filler like "find the standup meeting" should still hit an
	// event titled "Standup".
	for _, suffix := range []string{" meetings", " meeting", " events", " event"} {
		keyword = strings.TrimSuffix(keyword, suffix)
	}
	if keyword == "" {
		return "Tell me what event to look for, e.g. \"find the standup\".", nil
	}

	events, err := b.store.Search(ctx, keyword)
	if err != nil {
		return "", fmt.Errorf("calendarbe: %w", err)
	}

	if len(events) == 0 {
		return fmt.Sprintf("No events matching %q.", keyword), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d event(s) matching %q:", len(events), keyword)
	for _, ev := range events {
		sb.WriteString("\n" + formatEvent(ev))
	}
	return sb.String(), nil
}

// resolveDay maps day references in the query (today, tomorrow, a weekday
// name) to the start of that day. Defaults to today.
func resolveDay(lower string, now time.Time) (time.Time, string) {
	today := startOfDay(now)

	if strings.Contains(lower, "tomorrow") {
		return today.AddDate(0, 0, 1), "tomorrow"
	}

	weekdays := map[string]time.Weekday{
		"monday": time.Monday, "tuesday": time.Tuesday, "wednesday": time.Wednesday,
		"thursday": time.Thursday, "friday": time.Friday, "saturday": time.Saturday,
		"sunday": time.Sunday,
	}
	for name, wd := range weekdays {
		if strings.Contains(lower, name) {
			ahead := (int(wd) - int(today.Weekday()) + 7) % 7
			if ahead == 0 {
				ahead = 7
			}
			day := today.AddDate(0, 0, ahead)
			return day, "on " + day.Format("Monday")
		}
	}

	return today, "today"
}

func formatEvent(ev Event) string {
	line := fmt.Sprintf("- %s at %s on %s", ev.Title,
		ev.Start.Format("15:04"), ev.Start.Format("Mon, Jan 2"))
	if ev.Location != "" {
		line += fmt.Sprintf(" (%s)", ev.Location)
	}
	return line
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
