// Package router dispatches classified chat messages to their backends and
// converts every internal failure into a plain-text reply. It is the single
// error boundary of the system: transports above it only ever see strings.
package router

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"switchboard/internal/backend"
	"switchboard/internal/history"
	"switchboard/internal/intent"
	"switchboard/internal/observe"
)

// FallbackReply is the fixed reply for messages no stage could classify.
const FallbackReply = "I'm not sure how to help with that. I can check your calendar, " +
	"tell you the time, or search the web — try \"search for ...\"."

// defaultBackendTimeout bounds each backend call.
const defaultBackendTimeout = 30 * time.Second

// Classifier yields an intent and the stage that produced it for every
// message. Satisfied by [intent.Classifier].
type Classifier interface {
	ClassifyStage(ctx context.Context, message string) (intent.Intent, intent.Stage)
}

// Router routes one message to one backend and records the exchange.
type Router struct {
	classifier Classifier
	backends   map[intent.Intent]backend.Responder
	store      history.Store

	metrics *observe.Metrics
	timeout time.Duration
	log     *slog.Logger
}

// Option configures a [Router].
type Option func(*Router)

// WithTimeout bounds each backend call. Zero disables the bound.
func WithTimeout(d time.Duration) Option {
	return func(r *Router) {
		r.timeout = d
	}
}

// WithMetrics overrides the metrics sink. Tests inject an isolated instance.
func WithMetrics(m *observe.Metrics) Option {
	return func(r *Router) {
		r.metrics = m
	}
}

// WithLogger overrides the logger.
func WithLogger(log *slog.Logger) Option {
	return func(r *Router) {
		r.log = log
	}
}

// New creates a Router. backends maps each routable intent to its responder;
// intents without an entry (always including [intent.IntentUnknown] unless a
// conversational backend is registered for it) fall back to [FallbackReply].
func New(classifier Classifier, backends map[intent.Intent]backend.Responder, store history.Store, opts ...Option) *Router {
	r := &Router{
		classifier: classifier,
		backends:   backends,
		store:      store,
		timeout:    defaultBackendTimeout,
		log:        slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	if r.metrics == nil {
		r.metrics = observe.DefaultMetrics()
	}
	return r
}

// Route classifies text, dispatches it, appends the exchange to the chat's
// transcript, and returns the reply. It never returns an error: backend
// failures come back as user-facing error strings.
func (r *Router) Route(ctx context.Context, chatID, text string) string {
	start := time.Now()
	r.metrics.InFlight.Add(ctx, 1)
	defer r.metrics.InFlight.Add(ctx, -1)

	in, stage := r.classifier.ClassifyStage(ctx, text)
	r.metrics.RecordClassification(ctx, string(stage), in.String())

	reply := r.dispatch(ctx, in, chatID, text)

	// Every path updates the transcript, the fallback included, so a later
	// conversational turn can still refer back to it.
	if err := r.store.Append(ctx, chatID, text, reply); err != nil {
		r.log.WarnContext(ctx, "transcript append failed",
			"chat_id", chatID, "error", err)
	}

	r.metrics.RecordRoute(ctx, in.String(), time.Since(start).Seconds())
	r.log.DebugContext(ctx, "routed message",
		"chat_id", chatID, "intent", in, "stage", stage,
		"duration", time.Since(start))
	return reply
}

// dispatch calls the backend registered for in. Errors and panics are
// converted to replies here and never travel further up.
func (r *Router) dispatch(ctx context.Context, in intent.Intent, chatID, text string) (reply string) {
	be, ok := r.backends[in]
	if !ok || be == nil {
		return FallbackReply
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.log.ErrorContext(ctx, "backend panicked",
				"intent", in, "chat_id", chatID,
				"panic", rec, "stack", string(debug.Stack()))
			r.metrics.RecordBackendError(ctx, in.String())
			reply = fmt.Sprintf("Sorry, I couldn't complete that request: internal error in the %s handler.", in)
		}
	}()

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	answer, err := be.Answer(ctx, backend.Query{ChatID: chatID, Text: text})
	if err != nil {
		r.log.ErrorContext(ctx, "backend call failed",
			"intent", in, "chat_id", chatID, "error", err)
		r.metrics.RecordBackendError(ctx, in.String())
		return fmt.Sprintf("Sorry, I couldn't complete that request: %v", err)
	}
	return answer
}
