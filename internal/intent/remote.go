package intent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"switchboard/pkg/provider/llm"
)

// classifyPrompt is the fixed instruction sent to the language model. The
// model is asked for exactly one lower-case word so the response can be
// validated with [ParseIntent].
const classifyPrompt = `You are an intent classifier for a personal assistant.
Classify the user's message into exactly one of these categories:

calendar - questions about meetings, appointments, schedules, events, or availability
time - questions about the current time, timezones, time differences, moon phases, or sunrise/sunset
search - requests to search the web or look up factual information
unknown - anything that fits none of the above

Respond with a single lower-case word: calendar, time, search, or unknown.
Do not explain. Do not add punctuation.`

const (
	// classifyTemperature keeps the single-word answer deterministic.
	classifyTemperature = 0.1

	// classifyMaxTokens is all a one-word category needs.
	classifyMaxTokens = 5

	// defaultRemoteTimeout bounds the outbound call. The reference design
	// had no timeout at all; expiry is treated as an unknown classification.
	defaultRemoteTimeout = 10 * time.Second
)

// RemoteClassifier asks a language-model completion endpoint to categorise a
// message. It is the fallback stage: invoked only when the [Matcher] finds
// nothing. Every failure mode (transport error, timeout, invalid token in
// the response) resolves to [IntentUnknown] and is logged, never returned.
//
// One outbound call per invocation, no retries, no caching.
type RemoteClassifier struct {
	provider llm.Provider
	timeout  time.Duration
}

// RemoteOption configures a [RemoteClassifier].
type RemoteOption func(*RemoteClassifier)

// WithTimeout overrides the per-call deadline.
func WithTimeout(d time.Duration) RemoteOption {
	return func(rc *RemoteClassifier) {
		rc.timeout = d
	}
}

// NewRemoteClassifier creates a [RemoteClassifier] backed by provider.
func NewRemoteClassifier(provider llm.Provider, opts ...RemoteOption) (*RemoteClassifier, error) {
	if provider == nil {
		return nil, fmt.Errorf("intent: remote classifier requires a non-nil provider")
	}
	rc := &RemoteClassifier{
		provider: provider,
		timeout:  defaultRemoteTimeout,
	}
	for _, o := range opts {
		o(rc)
	}
	return rc, nil
}

// Classify sends message to the model and parses a single-word category from
// the response. It never returns an error: anything other than a clean,
// valid token yields [IntentUnknown].
func (rc *RemoteClassifier) Classify(ctx context.Context, message string) Intent {
	ctx, cancel := context.WithTimeout(ctx, rc.timeout)
	defer cancel()

	resp, err := rc.provider.Complete(ctx, llm.CompletionRequest{
		SystemPrompt: classifyPrompt,
		Messages: []llm.Message{
			{Role: "user", Content: message},
		},
		Temperature: classifyTemperature,
		MaxTokens:   classifyMaxTokens,
	})
	if err != nil {
		slog.Warn("remote classifier call failed, defaulting to unknown",
			"model", rc.provider.Model(),
			"err", err,
		)
		return IntentUnknown
	}

	in, ok := ParseIntent(resp.Content)
	if !ok {
		slog.Warn("remote classifier returned unrecognised category, defaulting to unknown",
			"model", rc.provider.Model(),
			"response", resp.Content,
		)
		return IntentUnknown
	}
	return in
}
