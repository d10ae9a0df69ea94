// Command switchboard is the chat message router: it classifies inbound
// messages (calendar, time, search, or free-form conversation) and serves
// the reply over Discord and/or a WebSocket gateway.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	anyllmlib "github.com/mozilla-ai/any-llm-go"
	"golang.org/x/sync/errgroup"

	"switchboard/internal/backend"
	"switchboard/internal/backend/calendarbe"
	"switchboard/internal/backend/chat"
	"switchboard/internal/backend/clock"
	"switchboard/internal/backend/websearch"
	"switchboard/internal/config"
	discordbot "switchboard/internal/gateway/discord"
	"switchboard/internal/gateway/ws"
	"switchboard/internal/health"
	"switchboard/internal/history"
	"switchboard/internal/intent"
	"switchboard/internal/observe"
	"switchboard/internal/router"
	"switchboard/pkg/provider/llm"
	"switchboard/pkg/provider/llm/anyllm"
	"switchboard/pkg/provider/llm/openai"
)

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if errors.Is(err, os.ErrNotExist) {
		// No file is fine: everything can come from the environment.
		slog.Warn("config file not found, using environment only", "path", *configPath)
		cfg, err = config.Load("")
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "switchboard: %v\n", err)
		return 1
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	logger := newLogger(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	slog.Info("switchboard starting",
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Metrics provider ──────────────────────────────────────────────────────
	metricsShutdown, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName: "switchboard",
	})
	if err != nil {
		slog.Error("failed to initialise metrics", "err", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsShutdown(shutdownCtx); err != nil {
			slog.Warn("metrics shutdown error", "err", err)
		}
	}()

	// ── LLM provider ──────────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	var provider llm.Provider
	if name := cfg.Provider.Name; name != "" {
		provider, err = reg.CreateLLM(cfg.Provider)
		if err != nil {
			slog.Error("failed to create llm provider", "name", name, "err", err)
			return 1
		}
		slog.Info("provider created", "name", name, "model", provider.Model())
	}

	// ── History store ─────────────────────────────────────────────────────────
	store, historyCheck, err := buildHistoryStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to initialise history store", "err", err)
		return 1
	}

	// ── Backends ──────────────────────────────────────────────────────────────
	backends, err := buildBackends(ctx, cfg, provider, store)
	if err != nil {
		slog.Error("failed to initialise backends", "err", err)
		return 1
	}

	// ── Classifier and router ─────────────────────────────────────────────────
	var matcherOpts []intent.MatcherOption
	if cfg.Classifier.DisableFuzzy {
		matcherOpts = append(matcherOpts, intent.WithoutFuzzy())
	}

	var remote intent.Remote
	if provider != nil && !cfg.Classifier.DisableRemote {
		var remoteOpts []intent.RemoteOption
		if cfg.Classifier.RemoteTimeoutSeconds > 0 {
			remoteOpts = append(remoteOpts,
				intent.WithTimeout(time.Duration(cfg.Classifier.RemoteTimeoutSeconds)*time.Second))
		}
		rc, err := intent.NewRemoteClassifier(provider, remoteOpts...)
		if err != nil {
			slog.Error("failed to create remote classifier", "err", err)
			return 1
		}
		remote = rc
	}
	classifier := intent.NewClassifier(intent.NewMatcher(matcherOpts...), remote)

	var routerOpts []router.Option
	if cfg.Router.BackendTimeoutSeconds > 0 {
		routerOpts = append(routerOpts,
			router.WithTimeout(time.Duration(cfg.Router.BackendTimeoutSeconds)*time.Second))
	}
	rt := router.New(classifier, backends, store, routerOpts...)

	printStartupSummary(cfg, reg)

	// ── Transports ────────────────────────────────────────────────────────────
	g, ctx := errgroup.WithContext(ctx)
	transports := 0

	if cfg.Server.ListenAddr != "" {
		checkers := []health.Checker{historyCheck}
		gateway := ws.New(cfg.Server.ListenAddr, rt, health.New(checkers...))
		g.Go(func() error { return gateway.Run(ctx) })
		transports++
	}

	if cfg.Discord.Enabled {
		bot, err := discordbot.New(discordbot.Config{
			Token:         cfg.Discord.BotToken,
			MaxConcurrent: cfg.Discord.MaxConcurrent,
		}, rt, logger)
		if err != nil {
			slog.Error("failed to create discord bot", "err", err)
			return 1
		}
		g.Go(func() error { return bot.Run(ctx) })
		transports++
	}

	if transports == 0 {
		slog.Error("no transport enabled; set server.listen_addr or discord.enabled")
		return 1
	}

	slog.Info("switchboard ready — press Ctrl+C to shut down")

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// newLogger builds the process-wide slog logger at the configured level.
func newLogger(level config.LogLevel) *slog.Logger {
	var l slog.Level
	switch level {
	case config.LogDebug:
		l = slog.LevelDebug
	case config.LogWarn:
		l = slog.LevelWarn
	case config.LogError:
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l}))
}

// ── Provider wiring ───────────────────────────────────────────────────────────

// registerBuiltinProviders wires all built-in LLM provider factories into reg.
func registerBuiltinProviders(reg *config.Registry) {
	// openai, anthropic, gemini, deepseek, mistral, groq, llamacpp, llamafile
	// all share the same pattern: optional APIKey + optional BaseURL.
	for _, providerName := range []string{
		"openai", "anthropic", "gemini",
		"deepseek", "mistral", "groq", "llamacpp", "llamafile",
	} {
		reg.RegisterLLM(providerName, func(entry config.ProviderEntry) (llm.Provider, error) {
			var opts []anyllmlib.Option
			if entry.APIKey != "" {
				opts = append(opts, anyllmlib.WithAPIKey(entry.APIKey))
			}
			if entry.BaseURL != "" {
				opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
			}
			return anyllm.New(providerName, entry.Model, opts...)
		})
	}

	// ollama is a local server; it uses BaseURL for the address, not an API key.
	reg.RegisterLLM("ollama", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []anyllmlib.Option
		if entry.BaseURL != "" {
			opts = append(opts, anyllmlib.WithBaseURL(entry.BaseURL))
		}
		return anyllm.New("ollama", entry.Model, opts...)
	})

	// openai-direct talks to the OpenAI API through its official SDK instead
	// of the any-llm bridge.
	reg.RegisterLLM("openai-direct", func(entry config.ProviderEntry) (llm.Provider, error) {
		var opts []openai.Option
		if entry.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(entry.BaseURL))
		}
		return openai.New(entry.APIKey, entry.Model, opts...)
	})
}

// buildHistoryStore selects the transcript store: Postgres when a DSN is
// configured, the in-memory LRU store otherwise. The returned checker feeds
// the /readyz endpoint.
func buildHistoryStore(ctx context.Context, cfg *config.Config) (history.Store, health.Checker, error) {
	if cfg.History.PostgresDSN == "" {
		store := history.NewMemStore(cfg.History.MaxChats)
		check := health.Checker{
			Name:  "history",
			Check: func(context.Context) error { return nil },
		}
		slog.Info("history store ready", "kind", "memory", "max_chats", cfg.History.MaxChats)
		return store, check, nil
	}

	pool, err := pgxpool.New(ctx, cfg.History.PostgresDSN)
	if err != nil {
		return nil, health.Checker{}, fmt.Errorf("connect history database: %w", err)
	}
	store := history.NewPostgresStore(pool)
	if err := store.Migrate(ctx); err != nil {
		return nil, health.Checker{}, err
	}
	check := health.Checker{Name: "history", Check: pool.Ping}
	slog.Info("history store ready", "kind", "postgres")
	return store, check, nil
}

// buildBackends assembles the per-intent responder map. The unknown intent
// only gets an entry when the conversational backend is enabled; otherwise
// the router's fixed fallback applies.
func buildBackends(ctx context.Context, cfg *config.Config, provider llm.Provider, store history.Store) (map[intent.Intent]backend.Responder, error) {
	var eventStore calendarbe.EventStore
	if cfg.Calendar.Enabled {
		if cfg.Calendar.PostgresDSN != "" {
			pool, err := pgxpool.New(ctx, cfg.Calendar.PostgresDSN)
			if err != nil {
				return nil, fmt.Errorf("connect calendar database: %w", err)
			}
			pgStore := calendarbe.NewPostgresStore(pool)
			if err := pgStore.Migrate(ctx); err != nil {
				return nil, err
			}
			eventStore = pgStore
		} else {
			eventStore = calendarbe.NewMemStore()
		}
	}

	var searchOpts []websearch.Option
	if cfg.Search.BaseURL != "" {
		searchOpts = append(searchOpts, websearch.WithBaseURL(cfg.Search.BaseURL))
	}
	if cfg.Search.TimeoutSeconds > 0 {
		searchOpts = append(searchOpts,
			websearch.WithTimeout(time.Duration(cfg.Search.TimeoutSeconds)*time.Second))
	}

	backends := map[intent.Intent]backend.Responder{
		intent.IntentCalendar: calendarbe.New(eventStore),
		intent.IntentTime:     clock.New(),
		intent.IntentSearch:   websearch.New(searchOpts...),
	}

	if cfg.Chat.Enabled && provider != nil {
		var chatOpts []chat.Option
		if cfg.Chat.SystemPrompt != "" {
			chatOpts = append(chatOpts, chat.WithSystemPrompt(cfg.Chat.SystemPrompt))
		}
		if cfg.Chat.Temperature > 0 {
			chatOpts = append(chatOpts, chat.WithTemperature(cfg.Chat.Temperature))
		}
		if cfg.Chat.MaxTokens > 0 {
			chatOpts = append(chatOpts, chat.WithMaxTokens(cfg.Chat.MaxTokens))
		}
		backends[intent.IntentUnknown] = chat.New(provider, store, chatOpts...)
	}

	return backends, nil
}

// ── Startup summary ───────────────────────────────────────────────────────────

func printStartupSummary(cfg *config.Config, reg *config.Registry) {
	line := func(label, value string) {
		fmt.Printf("║  %-15s : %-24s ║\n", label, value)
	}
	onOff := func(enabled bool) string {
		if enabled {
			return "enabled"
		}
		return "(disabled)"
	}

	fmt.Println("╔════════════════════════════════════════════╗")
	fmt.Println("║        switchboard — startup summary       ║")
	fmt.Println("╠════════════════════════════════════════════╣")
	if cfg.Provider.Name != "" {
		line("LLM provider", fmt.Sprintf("%s/%s", cfg.Provider.Name, cfg.Provider.Model))
	} else {
		line("LLM provider", "(none)")
	}
	line("Known providers", fmt.Sprintf("%d registered", len(reg.Names())))
	if cfg.History.PostgresDSN != "" {
		line("History", "postgres")
	} else {
		line("History", fmt.Sprintf("memory (max %d chats)", cfg.History.MaxChats))
	}
	line("Calendar", onOff(cfg.Calendar.Enabled))
	line("Chat backend", onOff(cfg.Chat.Enabled))
	line("Discord", onOff(cfg.Discord.Enabled))
	if cfg.Server.ListenAddr != "" {
		line("Gateway", cfg.Server.ListenAddr)
	} else {
		line("Gateway", "(disabled)")
	}
	fmt.Println("╚════════════════════════════════════════════╝")
}
