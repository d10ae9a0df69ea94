// Package clock implements the time backend: current time and timezone
// queries, time differences between zones, moon phases, and sunrise/sunset
// times. All computation is local; the backend never touches the network.
package clock

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // embed the IANA database so zone lookups never depend on the host

	"switchboard/internal/backend"
)

// Backend answers time-related queries.
type Backend struct {
	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
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

// New creates a time backend.
func New(opts ...Option) *Backend {
	b := &Backend{now: time.Now}
	for _, o := range opts {
		o(b)
	}
	return b
}

var (
	coordsRe     = regexp.MustCompile(`(-?\d{1,3}(?:\.\d+)?)[,;\s]+(-?\d{1,3}(?:\.\d+)?)`)
	differenceRe = regexp.MustCompile(`(?i)\bbetween\s+(.+?)\s+and\s+(.+?)\s*(?:\?|$)`)
	timeInRe     = regexp.MustCompile(`(?i)\btime\s+(?:is it\s+)?in\s+([a-zA-Z /_]+?)(?:\?|$|,)`)
)

// Answer implements backend.Responder. The query is inspected for the
// sub-topic (moon, sunrise/sunset, difference, zone) and falls back to the
// current UTC time.
func (b *Backend) Answer(_ context.Context, q backend.Query) (string, error) {
	text := strings.TrimSpace(q.Text)
	lower := strings.ToLower(text)

	switch {
	case strings.Contains(lower, "moon"):
		return b.moonAnswer(), nil

	case strings.Contains(lower, "sunrise") || strings.Contains(lower, "sunset"):
		return b.sunAnswer(text), nil

	case strings.Contains(lower, "difference"):
		return b.differenceAnswer(text), nil
	}

	if m := timeInRe.FindStringSubmatch(text); m != nil {
		return b.zoneAnswer(strings.TrimSpace(m[1])), nil
	}

	now := b.now().UTC()
	return fmt.Sprintf("Current UTC time: %s", now.Format("2006-01-02 15:04:05 MST")), nil
}

// zoneAnswer renders the current time in the named place or zone.
func (b *Backend) zoneAnswer(place string) string {
	loc, name, err := resolveZone(place)
	if err != nil {
		return fmt.Sprintf("Unknown timezone: %s. Please use a valid IANA name like 'America/New_York' or a major city.", place)
	}
	now := b.now().In(loc)
	return fmt.Sprintf("Current time in %s: %s", name, now.Format("2006-01-02 15:04:05 MST"))
}

// differenceAnswer renders the offset between two named places or zones.
func (b *Backend) differenceAnswer(text string) string {
	m := differenceRe.FindStringSubmatch(text)
	if m == nil {
		return "To compute a time difference, name two places, e.g. \"time difference between New York and London\"."
	}

	first := strings.TrimSpace(m[1])
	if l := strings.ToLower(first); strings.HasPrefix(l, "the time in ") {
		first = strings.TrimSpace(first[len("the time in "):])
	}
	second := strings.TrimSpace(m[2])

	locA, nameA, errA := resolveZone(first)
	locB, nameB, errB := resolveZone(second)
	if errA != nil {
		return fmt.Sprintf("Unknown timezone: %s. Please use a valid IANA name or a major city.", first)
	}
	if errB != nil {
		return fmt.Sprintf("Unknown timezone: %s. Please use a valid IANA name or a major city.", second)
	}

	now := b.now()
	_, offA := now.In(locA).Zone()
	_, offB := now.In(locB).Zone()
	diff := time.Duration(offA-offB) * time.Second

	switch {
	case diff == 0:
		return fmt.Sprintf("%s and %s are currently in the same time zone offset.", nameA, nameB)
	case diff > 0:
		return fmt.Sprintf("%s is currently %s ahead of %s.", nameA, formatOffset(diff), nameB)
	default:
		return fmt.Sprintf("%s is currently %s behind %s.", nameA, formatOffset(-diff), nameB)
	}
}

// moonAnswer renders the current moon phase report.
func (b *Backend) moonAnswer() string {
	today := b.now().UTC()
	ph := moonPhase(today)

	return fmt.Sprintf(`Moon phase information for %s:
Phase: %s
Illumination: %.1f%%
Next full moon: %s (%d days from now)
Previous full moon: %s`,
		today.Format("2006-01-02"),
		ph.Name,
		ph.Illumination,
		ph.NextFull.Format("2006-01-02"),
		int(ph.NextFull.Sub(today).Hours()/24),
		ph.PrevFull.Format("2006-01-02"),
	)
}

// sunAnswer renders sunrise/sunset times for coordinates found in the query.
func (b *Backend) sunAnswer(text string) string {
	m := coordsRe.FindStringSubmatch(text)
	if m == nil {
		return "To compute sunrise and sunset I need coordinates, e.g. \"sunrise at 50.08, 14.43\"."
	}

	lat, err1 := strconv.ParseFloat(m[1], 64)
	lon, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return "Those coordinates look invalid. Latitude must be in [-90, 90] and longitude in [-180, 180]."
	}

	date := b.now().UTC()
	rise, set, ok := sunTimes(date, lat, lon)
	if !ok {
		return fmt.Sprintf("The sun does not rise or set at (%.2f, %.2f) on %s (polar day or night).",
			lat, lon, date.Format("2006-01-02"))
	}

	return fmt.Sprintf(`Sunrise and sunset times for coordinates (%.2f, %.2f) on %s:
Sunrise: %s UTC
Sunset: %s UTC`,
		lat, lon, date.Format("2006-01-02"),
		rise.Format("15:04:05"), set.Format("15:04:05"))
}

// formatOffset renders a positive duration as "N hours" / "N hours 30 minutes".
func formatOffset(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	switch {
	case h == 0:
		return fmt.Sprintf("%d minutes", m)
	case m == 0:
		if h == 1 {
			return "1 hour"
		}
		return fmt.Sprintf("%d hours", h)
	default:
		return fmt.Sprintf("%d hours %d minutes", h, m)
	}
}
