package intent

import "context"

// Remote is the fallback classification stage consulted when the offline
// matcher has no opinion. [RemoteClassifier] is the production
// implementation; tests substitute their own.
type Remote interface {
	// Classify returns an intent for message. Implementations must not
	// fail: the contract is a valid Intent for every input, with
	// IntentUnknown as the safe default.
	Classify(ctx context.Context, message string) Intent
}

// RemoteFunc adapts a plain function to the [Remote] interface.
type RemoteFunc func(ctx context.Context, message string) Intent

// Classify implements [Remote].
func (f RemoteFunc) Classify(ctx context.Context, message string) Intent {
	return f(ctx, message)
}

// Classifier is the two-stage intent classifier: the offline [Matcher]
// first, then the remote fallback. It never returns an error; when both
// stages pass, the result is [IntentUnknown].
//
// Classifier is safe for concurrent use.
type Classifier struct {
	matcher *Matcher
	remote  Remote
}

// NewClassifier combines matcher with an optional remote fallback.
// remote may be nil, in which case unmatched messages classify as unknown
// without any network call.
func NewClassifier(matcher *Matcher, remote Remote) *Classifier {
	return &Classifier{matcher: matcher, remote: remote}
}

// Classify returns the intent for message.
func (c *Classifier) Classify(ctx context.Context, message string) Intent {
	in, _ := c.ClassifyStage(ctx, message)
	return in
}

// ClassifyStage returns the intent for message together with the stage that
// produced it. Calling it twice on the same message with no intervening
// remote-model drift yields the same offline result both times; the remote
// stage is only consulted when every offline rule fails.
func (c *Classifier) ClassifyStage(ctx context.Context, message string) (Intent, Stage) {
	if in, stage, ok := c.matcher.MatchStage(message); ok {
		return in, stage
	}
	if c.remote == nil {
		return IntentUnknown, StageNone
	}
	return c.remote.Classify(ctx, message), StageRemote
}
