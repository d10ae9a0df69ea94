// Package ws provides the HTTP gateway: a WebSocket chat endpoint plus the
// health and metrics surface.
//
// Chat clients connect to GET /ws and exchange JSON frames:
//
//	→ {"chat_id": "abc", "text": "what time is it?"}
//	← {"reply": "Current UTC time: ..."}
//
// A client that omits chat_id gets a per-connection identifier, so a bare
// connection still accumulates conversation history.
package ws

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"switchboard/internal/health"
	"switchboard/internal/observe"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

// Router produces a reply for one inbound message. Satisfied by
// router.Router.
type Router interface {
	Route(ctx context.Context, chatID, text string) string
}

// request is one inbound chat frame.
type request struct {
	ChatID string `json:"chat_id"`
	Text   string `json:"text"`
}

// response is one outbound reply frame.
type response struct {
	Reply string `json:"reply"`
}

// Server is the HTTP gateway.
type Server struct {
	addr    string
	router  Router
	health  *health.Handler
	metrics *observe.Metrics
	log     *slog.Logger
}

// Option configures a [Server].
type Option func(*Server)

// WithMetrics overrides the metrics sink. Tests inject an isolated instance.
func WithMetrics(m *observe.Metrics) Option {
	return func(s *Server) {
		s.metrics = m
	}
}

// WithLogger overrides the logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Server) {
		s.log = log
	}
}

// New creates a gateway server listening on addr once [Server.Run] is called.
func New(addr string, router Router, healthHandler *health.Handler, opts ...Option) *Server {
	s := &Server{
		addr:   addr,
		router: router,
		health: healthHandler,
		log:    slog.Default(),
	}
	for _, o := range opts {
		o(s)
	}
	if s.metrics == nil {
		s.metrics = observe.DefaultMetrics()
	}
	return s
}

// Handler builds the chi mux with all gateway routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.instrument)

	r.Get("/ws", s.handleWS)
	if s.health != nil {
		s.health.Register(r)
	}
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.addr,
		Handler: s.Handler(),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info("gateway listening", "addr", s.addr)

	select {
	case err := <-errCh:
		return fmt.Errorf("ws: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("ws: shutdown: %w", err)
	}
	return nil
}

// instrument records request latency per method and route.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.metrics.HTTPRequestDuration.Record(r.Context(), time.Since(start).Seconds(),
			metric.WithAttributes(
				attribute.String("method", r.Method),
				attribute.String("path", r.URL.Path),
			),
		)
	})
}

// handleWS upgrades the connection and serves chat frames until the client
// goes away. One connection is served sequentially; concurrency comes from
// concurrent connections.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		s.log.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()

	// Fallback identity for clients that never send a chat_id.
	connID := uuid.NewString()
	ctx := r.Context()

	for {
		var req request
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway ||
				errors.Is(err, context.Canceled) {
				return
			}
			s.log.Debug("websocket read ended", "conn_id", connID, "error", err)
			return
		}

		chatID := req.ChatID
		if chatID == "" {
			chatID = connID
		}

		reply := s.router.Route(ctx, chatID, req.Text)
		if err := wsjson.Write(ctx, conn, response{Reply: reply}); err != nil {
			s.log.Debug("websocket write failed", "conn_id", connID, "error", err)
			return
		}
	}
}
