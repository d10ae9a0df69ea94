// Package backend defines the fixed capability interface that every routed
// backend implements. Each backend role (calendar, time, search, chat) is a
// [Responder] selected at construction time; the router never probes a
// backend for alternative capabilities at call time.
package backend

import "context"

// Query is one routed request. ChatID identifies the conversation; backends
// that have no use for conversational context ignore it.
type Query struct {
	// ChatID is the opaque chat identifier the message arrived on.
	ChatID string

	// Text is the user's message verbatim.
	Text string
}

// Responder answers a natural-language query with a natural-language answer.
//
// By contract with the router, a missing credential or unconfigured
// dependency is reported as a descriptive answer string, not an error;
// errors are reserved for genuine call failures. Implementations must be
// safe for concurrent use and must respect context cancellation.
type Responder interface {
	Answer(ctx context.Context, q Query) (string, error)
}

// ResponderFunc adapts a plain function to the [Responder] interface.
type ResponderFunc func(ctx context.Context, q Query) (string, error)

// Answer implements [Responder].
func (f ResponderFunc) Answer(ctx context.Context, q Query) (string, error) {
	return f(ctx, q)
}
