package router

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"switchboard/internal/backend"
	backendmock "switchboard/internal/backend/mock"
	"switchboard/internal/history"
	"switchboard/internal/intent"
	"switchboard/internal/observe"
)

// failingRemote stands in for a remote classifier whose calls fail; per the
// classifier contract that resolves to unknown.
var failingRemote = intent.RemoteFunc(func(context.Context, string) intent.Intent {
	return intent.IntentUnknown
})

type fixture struct {
	router   *Router
	store    *history.MemStore
	calendar *backendmock.Responder
	clock    *backendmock.Responder
	search   *backendmock.Responder
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	f := &fixture{
		store:    history.NewMemStore(0),
		calendar: &backendmock.Responder{Reply: "No meetings today."},
		clock:    &backendmock.Responder{Reply: "Current UTC time: 2026-03-01 12:00:00 UTC"},
		search:   &backendmock.Responder{Reply: "Here's what I found."},
	}
	classifier := intent.NewClassifier(intent.NewMatcher(), failingRemote)
	backends := map[intent.Intent]backend.Responder{
		intent.IntentCalendar: f.calendar,
		intent.IntentTime:     f.clock,
		intent.IntentSearch:   f.search,
	}
	f.router = New(classifier, backends, f.store, append([]Option{WithMetrics(metrics)}, opts...)...)
	return f
}

func TestRouteCalendar(t *testing.T) {
	f := newFixture(t)

	reply := f.router.Route(context.Background(), "chat-1", "What meetings do I have today?")
	if reply != "No meetings today." {
		t.Errorf("reply = %q, want the calendar stub answer", reply)
	}
	if f.calendar.CallCount() != 1 {
		t.Errorf("calendar backend called %d times, want 1", f.calendar.CallCount())
	}
	if f.search.CallCount() != 0 || f.clock.CallCount() != 0 {
		t.Error("only the calendar backend should be called")
	}

	tr, err := f.store.Get(context.Background(), "chat-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := []string{
		"User: What meetings do I have today?",
		"Agent: No meetings today.",
	}
	if tr.Len() != 2 || tr.Lines[0] != want[0] || tr.Lines[1] != want[1] {
		t.Errorf("transcript = %q, want %q", tr.Lines, want)
	}
}

func TestRouteSearch(t *testing.T) {
	f := newFixture(t)

	reply := f.router.Route(context.Background(), "chat-1", "search for latest AI news")
	if reply != "Here's what I found." {
		t.Errorf("reply = %q, want the search stub answer", reply)
	}
}

func TestRouteQueryCarriesChatID(t *testing.T) {
	f := newFixture(t)

	f.router.Route(context.Background(), "chat-42", "what time is it?")
	if len(f.clock.Queries) != 1 || f.clock.Queries[0].ChatID != "chat-42" {
		t.Errorf("backend query = %+v, want ChatID chat-42", f.clock.Queries)
	}
}

func TestRouteUnknownFallsBack(t *testing.T) {
	f := newFixture(t)

	reply := f.router.Route(context.Background(), "chat-1", "Tell me a joke")
	if reply != FallbackReply {
		t.Errorf("reply = %q, want the fixed fallback", reply)
	}

	// The fallback path records the exchange too.
	tr, err := f.store.Get(context.Background(), "chat-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if tr.Len() != 2 {
		t.Errorf("transcript has %d lines, want 2", tr.Len())
	}
}

func TestRouteUnknownWithChatBackend(t *testing.T) {
	f := newFixture(t)
	chatbe := &backendmock.Responder{Reply: "Why did the gopher cross the road?"}
	f.router.backends[intent.IntentUnknown] = chatbe

	reply := f.router.Route(context.Background(), "chat-1", "Tell me a joke")
	if reply != "Why did the gopher cross the road?" {
		t.Errorf("reply = %q, want the chat backend answer", reply)
	}
}

func TestRouteBackendErrorBecomesReply(t *testing.T) {
	f := newFixture(t)
	f.calendar.Err = errors.New("calendar API: 503 Service Unavailable")

	reply := f.router.Route(context.Background(), "chat-1", "What meetings do I have today?")
	if !strings.HasPrefix(reply, "Sorry, I couldn't complete that request:") {
		t.Errorf("reply = %q, want an error reply", reply)
	}
	if !strings.Contains(reply, "503 Service Unavailable") {
		t.Errorf("reply = %q, should embed the failure description", reply)
	}
}

func TestRouteBackendPanicIsRecovered(t *testing.T) {
	f := newFixture(t)
	f.router.backends[intent.IntentTime] = backend.ResponderFunc(
		func(context.Context, backend.Query) (string, error) {
			panic("nil dereference")
		})

	reply := f.router.Route(context.Background(), "chat-1", "what time is it?")
	if !strings.Contains(reply, "internal error in the time handler") {
		t.Errorf("reply = %q, want the recovered-panic reply", reply)
	}
}

func TestRouteBackendTimeout(t *testing.T) {
	f := newFixture(t, WithTimeout(10*time.Millisecond))
	f.router.backends[intent.IntentTime] = backend.ResponderFunc(
		func(ctx context.Context, _ backend.Query) (string, error) {
			<-ctx.Done()
			return "", ctx.Err()
		})

	start := time.Now()
	reply := f.router.Route(context.Background(), "chat-1", "what time is it?")
	if time.Since(start) > time.Second {
		t.Error("backend timeout was not enforced")
	}
	if !strings.HasPrefix(reply, "Sorry, I couldn't complete that request:") {
		t.Errorf("reply = %q, want an error reply", reply)
	}
}

func TestRouteTranscriptBound(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 15; i++ {
		f.router.Route(context.Background(), "chat-1", fmt.Sprintf("what time is it? (%d)", i))
	}

	tr, err := f.store.Get(context.Background(), "chat-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if tr.Len() != history.MaxLines {
		t.Fatalf("transcript has %d lines, want %d", tr.Len(), history.MaxLines)
	}
	if tr.Lines[0] != "User: what time is it? (5)" {
		t.Errorf("oldest line = %q, want the 6th exchange", tr.Lines[0])
	}
}

func TestRouteNeverPanicsOnStoreError(t *testing.T) {
	f := newFixture(t)
	f.router.store = failingStore{err: errors.New("disk full")}

	reply := f.router.Route(context.Background(), "chat-1", "what time is it?")
	if reply == "" {
		t.Error("reply should still be produced when the transcript write fails")
	}
}

// failingStore errors on every operation.
type failingStore struct{ err error }

func (s failingStore) Get(context.Context, string) (history.Transcript, error) {
	return history.Transcript{}, s.err
}
func (s failingStore) Append(context.Context, string, string, string) error { return s.err }
