package clock

import (
	"fmt"
	"strings"
	"time"
)

// cityZones maps common city and region names to IANA zone identifiers.
// Lookup is case-insensitive; anything not listed here is tried verbatim as
// an IANA name (with spaces folded to underscores).
var cityZones = map[string]string{
	"new york":      "America/New_York",
	"nyc":           "America/New_York",
	"los angeles":   "America/Los_Angeles",
	"chicago":       "America/Chicago",
	"toronto":       "America/Toronto",
	"sao paulo":     "America/Sao_Paulo",
	"london":        "Europe/London",
	"paris":         "Europe/Paris",
	"berlin":        "Europe/Berlin",
	"madrid":        "Europe/Madrid",
	"rome":          "Europe/Rome",
	"prague":        "Europe/Prague",
	"vienna":        "Europe/Vienna",
	"warsaw":        "Europe/Warsaw",
	"moscow":        "Europe/Moscow",
	"istanbul":      "Europe/Istanbul",
	"dubai":         "Asia/Dubai",
	"mumbai":        "Asia/Kolkata",
	"delhi":         "Asia/Kolkata",
	"singapore":     "Asia/Singapore",
	"hong kong":     "Asia/Hong_Kong",
	"shanghai":      "Asia/Shanghai",
	"beijing":       "Asia/Shanghai",
	"tokyo":         "Asia/Tokyo",
	"seoul":         "Asia/Seoul",
	"sydney":        "Australia/Sydney",
	"melbourne":     "Australia/Melbourne",
	"auckland":      "Pacific/Auckland",
	"utc":           "UTC",
	"gmt":           "UTC",
}

// resolveZone turns a place name into a *time.Location. It returns the
// display name actually resolved (the city as given, or the IANA name).
func resolveZone(place string) (*time.Location, string, error) {
	key := strings.ToLower(strings.TrimSpace(place))
	key = strings.TrimSuffix(key, "?")
	key = strings.TrimSpace(key)

	if zone, ok := cityZones[key]; ok {
		loc, err := time.LoadLocation(zone)
		if err != nil {
			return nil, "", fmt.Errorf("clock: load %q: %w", zone, err)
		}
		return loc, place, nil
	}

	// Try the input as an IANA name: "America/New York" → "America/New_York".
	candidate := strings.ReplaceAll(strings.TrimSpace(place), " ", "_")
	loc, err := time.LoadLocation(candidate)
	if err != nil {
		return nil, "", fmt.Errorf("clock: unknown zone %q: %w", place, err)
	}
	return loc, candidate, nil
}
