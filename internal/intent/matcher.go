package intent

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

// rule pairs an intent with the pattern family that detects it. Rules are
// evaluated in slice order; the first pattern hit wins, which is what gives
// calendar priority over time and time priority over search.
type rule struct {
	intent   Intent
	patterns []*regexp.Regexp
}

// calendarPatterns match meeting/scheduling vocabulary, the Czech
// equivalents, and generic date references. Czech terms are matched as
// substrings because Go's \b is ASCII-only and misfires around diacritics.
var calendarPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(calendar|meetings?|appointments?|schedules?d?|events?|availab\w*|busy)\b`),
	regexp.MustCompile(`(?i)(kalendář|kalendar|schůzk|schuzk|jednání|jednani|událost|udalost|dostupnost|zaneprázdněn|zaneprazdnen)`),
	regexp.MustCompile(`(?i)(dnes|zítra|zitra|pondělí|pondeli|úterý|utery|středa|streda|čtvrtek|ctvrtek|pátek|patek|sobota|neděle|nedele|příští týden|pristi tyden)`),
	regexp.MustCompile(`(?i)\b(today|tomorrow|tonight)\b`),
	regexp.MustCompile(`(?i)\bnext\s+(week|month|monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
	regexp.MustCompile(`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b`),
	regexp.MustCompile(`(?i)\b(january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2}\b`),
	regexp.MustCompile(`\b\d{1,2}[./-]\d{1,2}(?:[./-]\d{2,4})?\b`),
}

// timePatterns match clock, timezone, and astronomy phrasing.
var timePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bwhat time\b`),
	regexp.MustCompile(`(?i)\bcurrent time\b`),
	regexp.MustCompile(`(?i)\btime in\b`),
	regexp.MustCompile(`(?i)\btime ?zone\b`),
	regexp.MustCompile(`(?i)\btime difference\b`),
	regexp.MustCompile(`(?i)\btime of day\b`),
	regexp.MustCompile(`(?i)\b(moon phase|full moon|new moon|sunrise|sunset)\b`),
}

// searchPatterns match explicit search requests, leading wh-questions, and
// the trailing-question-mark heuristic.
var searchPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^search\b`),
	regexp.MustCompile(`(?i)\bsearch for\b`),
	regexp.MustCompile(`(?i)^find\b`),
	regexp.MustCompile(`(?i)\blook up\b`),
	regexp.MustCompile(`(?i)\bresearch\b`),
	regexp.MustCompile(`(?i)\btell me about\b`),
	regexp.MustCompile(`(?i)^(what|who|where|when|why)('s| is| are| was| were)\b`),
	regexp.MustCompile(`(?i)^how (to|do|does|did|much|many)\b`),
	regexp.MustCompile(`\?\s*$`),
}

// fuzzyKeywords are the core domain terms the typo-tolerant stage spots.
// Only words of at least minFuzzyLen runes participate; short words produce
// too many accidental single-edit neighbours.
var fuzzyKeywords = []struct {
	intent Intent
	words  []string
}{
	{IntentCalendar, []string{"calendar", "meeting", "meetings", "appointment", "schedule", "event", "events", "tomorrow"}},
	{IntentTime, []string{"timezone", "sunrise", "sunset"}},
	{IntentSearch, []string{"search", "research"}},
}

// minFuzzyLen is the minimum rune length for a word to be considered by the
// fuzzy stage.
const minFuzzyLen = 5

// Matcher is the offline first-stage classifier. It evaluates an ordered
// list of (intent, pattern) rules and, optionally, a typo-tolerant keyword
// stage. Match is pure and deterministic: the same input always yields the
// same result, and no network or shared state is touched.
//
// Matcher is safe for concurrent use; it is immutable after construction.
type Matcher struct {
	rules []rule
	fuzzy bool
}

// MatcherOption configures a [Matcher].
type MatcherOption func(*Matcher)

// WithoutFuzzy disables the typo-tolerant keyword stage, leaving only the
// exact rule list.
func WithoutFuzzy() MatcherOption {
	return func(m *Matcher) {
		m.fuzzy = false
	}
}

// NewMatcher creates a [Matcher] with the built-in rule families in
// calendar > time > search priority order.
func NewMatcher(opts ...MatcherOption) *Matcher {
	m := &Matcher{
		rules: []rule{
			{IntentCalendar, calendarPatterns},
			{IntentTime, timePatterns},
			{IntentSearch, searchPatterns},
		},
		fuzzy: true,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Match returns the first matching intent for message and true, or
// [IntentUnknown] and false when no rule matches. The exact rule list is
// consulted first; the fuzzy keyword stage (when enabled) only runs after
// every exact pattern has failed, so it can never override rule priority.
func (m *Matcher) Match(message string) (Intent, bool) {
	for _, r := range m.rules {
		for _, p := range r.patterns {
			if p.MatchString(message) {
				return r.intent, true
			}
		}
	}

	if m.fuzzy {
		if in, ok := matchFuzzy(message); ok {
			return in, true
		}
	}

	return IntentUnknown, false
}

// MatchStage is like [Matcher.Match] but also reports which stage hit.
func (m *Matcher) MatchStage(message string) (Intent, Stage, bool) {
	for _, r := range m.rules {
		for _, p := range r.patterns {
			if p.MatchString(message) {
				return r.intent, StagePattern, true
			}
		}
	}

	if m.fuzzy {
		if in, ok := matchFuzzy(message); ok {
			return in, StageFuzzy, true
		}
	}

	return IntentUnknown, StageNone, false
}

// matchFuzzy tokenises message and compares each sufficiently long word
// against the core keyword sets using Damerau-Levenshtein distance. A word
// within edit distance 1 of a keyword counts as a hit. Keyword sets are
// checked in the same calendar > time > search order as the exact rules.
func matchFuzzy(message string) (Intent, bool) {
	words := strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	})

	for _, set := range fuzzyKeywords {
		for _, kw := range set.words {
			for _, w := range words {
				if len([]rune(w)) < minFuzzyLen {
					continue
				}
				if matchr.DamerauLevenshtein(w, kw) <= 1 {
					return set.intent, true
				}
			}
		}
	}
	return IntentUnknown, false
}
