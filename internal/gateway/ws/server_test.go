package ws

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"switchboard/internal/health"
	"switchboard/internal/observe"
)

// routerFunc adapts a function to the Router interface.
type routerFunc func(ctx context.Context, chatID, text string) string

func (f routerFunc) Route(ctx context.Context, chatID, text string) string {
	return f(ctx, chatID, text)
}

// echoRouter replies with "chatID|text" so tests can assert what reached it.
var echoRouter = routerFunc(func(_ context.Context, chatID, text string) string {
	return chatID + "|" + text
})

func newTestServer(t *testing.T, router Router) *httptest.Server {
	t.Helper()

	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(sdkmetric.NewManualReader()))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	metrics, err := observe.NewMetrics(mp)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	s := New("", router, health.New(),
		WithMetrics(metrics),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

// dial opens a websocket connection to srv's /ws endpoint.
func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", url, err)
	}
	t.Cleanup(func() { _ = conn.CloseNow() })
	return conn
}

func TestWSRoundTrip(t *testing.T) {
	srv := newTestServer(t, echoRouter)
	conn := dial(t, srv)
	ctx := context.Background()

	if err := wsjson.Write(ctx, conn, request{ChatID: "c1", Text: "what time is it?"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	var resp response
	if err := wsjson.Read(ctx, conn, &resp); err != nil {
		t.Fatalf("read: %v", err)
	}
	if resp.Reply != "c1|what time is it?" {
		t.Errorf("reply = %q", resp.Reply)
	}
}

func TestWSMultipleFramesSameConnection(t *testing.T) {
	srv := newTestServer(t, echoRouter)
	conn := dial(t, srv)
	ctx := context.Background()

	for _, text := range []string{"first", "second", "third"} {
		if err := wsjson.Write(ctx, conn, request{ChatID: "c1", Text: text}); err != nil {
			t.Fatalf("write %q: %v", text, err)
		}
		var resp response
		if err := wsjson.Read(ctx, conn, &resp); err != nil {
			t.Fatalf("read after %q: %v", text, err)
		}
		if resp.Reply != "c1|"+text {
			t.Errorf("reply = %q, want echo of %q", resp.Reply, text)
		}
	}
}

func TestWSGeneratedChatIDIsStable(t *testing.T) {
	srv := newTestServer(t, echoRouter)
	conn := dial(t, srv)
	ctx := context.Background()

	ids := make([]string, 0, 2)
	for i := 0; i < 2; i++ {
		if err := wsjson.Write(ctx, conn, request{Text: "hi"}); err != nil {
			t.Fatalf("write: %v", err)
		}
		var resp response
		if err := wsjson.Read(ctx, conn, &resp); err != nil {
			t.Fatalf("read: %v", err)
		}
		id, _, ok := strings.Cut(resp.Reply, "|")
		if !ok || id == "" {
			t.Fatalf("reply %q has no generated chat id", resp.Reply)
		}
		ids = append(ids, id)
	}
	if ids[0] != ids[1] {
		t.Errorf("generated chat id changed within one connection: %q vs %q", ids[0], ids[1])
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, echoRouter)

	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, echoRouter)

	resp, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /metrics = %d, want 200", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if len(body) == 0 {
		t.Error("metrics body is empty")
	}
}
