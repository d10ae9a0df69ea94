// Package intent implements the two-stage intent classification layer:
// a fast, offline pattern matcher backed by an ordered rule list, and a
// remote LLM-based classifier used as a fallback when no rule matches.
//
// The two primary abstractions are:
//
//   - [Matcher] is the pure, deterministic, regex-driven first stage.
//   - [Classifier] combines the matcher with a [RemoteClassifier] and
//     guarantees a valid [Intent] for every message, never an error.
package intent

import "strings"

// Intent is the classified purpose of a chat message.
type Intent string

const (
	// IntentCalendar covers meeting, appointment, schedule, and availability queries.
	IntentCalendar Intent = "calendar"

	// IntentTime covers clock, timezone, and astronomy queries.
	IntentTime Intent = "time"

	// IntentSearch covers web search and general knowledge questions.
	IntentSearch Intent = "search"

	// IntentUnknown is the safe default when no category can be determined.
	IntentUnknown Intent = "unknown"
)

// IsValid reports whether i is one of the four recognised intents.
func (i Intent) IsValid() bool {
	switch i {
	case IntentCalendar, IntentTime, IntentSearch, IntentUnknown:
		return true
	}
	return false
}

// String returns the intent's wire representation.
func (i Intent) String() string {
	return string(i)
}

// ParseIntent normalises s (trim + lower-case) and returns the matching
// [Intent]. The second return value is false when s is not a recognised
// category after normalisation.
func ParseIntent(s string) (Intent, bool) {
	i := Intent(strings.ToLower(strings.TrimSpace(s)))
	if !i.IsValid() {
		return IntentUnknown, false
	}
	return i, true
}

// Stage identifies which classification stage produced an intent.
// Used as a metric attribute and in debug logs.
type Stage string

const (
	// StagePattern means the offline rule list matched.
	StagePattern Stage = "pattern"

	// StageFuzzy means the typo-tolerant keyword stage matched.
	StageFuzzy Stage = "fuzzy"

	// StageRemote means the LLM fallback produced the intent.
	StageRemote Stage = "remote"

	// StageNone means no stage matched and the default applied.
	StageNone Stage = "none"
)
