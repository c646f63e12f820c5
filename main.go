// Command stream-herald watches a set of Twitch streamers and announces
// go-live transitions in Discord. It:
//   - Loads configuration and initializes structured logging.
//   - Opens the two JSON config documents (tracked streamers, custom messages)
//     and watches them for manual edits.
//   - Connects the Discord session and registers the admin slash commands.
//   - Starts the poll-and-diff loop against the Twitch Helix API.
//   - Exposes a minimal HTTP server with /healthz, /readyz, /status, /metrics.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/onnwee/stream-herald/config"
	"github.com/onnwee/stream-herald/discord"
	"github.com/onnwee/stream-herald/server"
	"github.com/onnwee/stream-herald/store"
	"github.com/onnwee/stream-herald/telemetry"
	"github.com/onnwee/stream-herald/twitchapi"
	"github.com/onnwee/stream-herald/watch"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))

	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.ValidateNotifyReady(); err != nil {
		slog.Error("missing required configuration", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdownTracing, err := telemetry.InitTracing("stream-herald", "1.0.0")
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdownTracing()

	// Twitch client. Fetch an app token up front so bad credentials fail fast.
	tokenSource := &twitchapi.TokenSource{ClientID: cfg.TwitchClientID, ClientSecret: cfg.TwitchClientSecret}
	helix := &twitchapi.HelixClient{AppTokenSource: tokenSource, ClientID: cfg.TwitchClientID}
	{
		ctx, cancel := context.WithTimeout(context.Background(), 8*time.Second)
		tok, err := tokenSource.Get(ctx)
		cancel()
		if err != nil {
			slog.Error("twitch app token fetch failed", slog.Any("err", err))
			os.Exit(1)
		}
		if len(tok) > 6 {
			slog.Info("twitch app token acquired", slog.String("tail", "***"+tok[len(tok)-6:]))
		}
	}

	// Config documents
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		slog.Error("failed to create data dir", slog.String("dir", cfg.DataDir), slog.Any("err", err))
		os.Exit(1)
	}
	accounts, err := store.OpenAccounts(filepath.Join(cfg.DataDir, "streamers.json"))
	if err != nil {
		slog.Error("failed to open streamers.json", slog.Any("err", err))
		os.Exit(1)
	}
	messages, err := store.OpenMessages(filepath.Join(cfg.DataDir, "custom_messages.json"))
	if err != nil {
		slog.Error("failed to open custom_messages.json", slog.Any("err", err))
		os.Exit(1)
	}
	registry := &store.Registry{Accounts: accounts, Messages: messages}
	slog.Info("config documents loaded", slog.Int("tracked", len(registry.ListAccounts())))

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Pick up manual edits to the JSON documents without a restart.
	if err := store.StartWatcher(ctx, accounts, messages); err != nil {
		slog.Warn("store watcher unavailable; manual edits need a restart", slog.Any("err", err))
	}

	// Discord session + command layer
	bot, err := discord.NewBot(cfg, registry, helix)
	if err != nil {
		slog.Error("failed to build discord session", slog.Any("err", err))
		os.Exit(1)
	}
	if err := bot.Open(); err != nil {
		slog.Error("failed to open discord session", slog.Any("err", err))
		os.Exit(1)
	}
	defer func() {
		if err := bot.Close(); err != nil {
			slog.Error("failed to close discord session", slog.Any("err", err))
		}
	}()

	// Poll-and-diff core
	engine := watch.NewEngine(&watch.HelixFetcher{Client: helix}, registry, bot.NewDispatcher(cfg, registry))
	engine.FetchTimeout = cfg.FetchTimeout
	go watch.StartPoller(ctx, engine, cfg.PollInterval)

	// HTTP server (health/readiness/status/metrics)
	handlers := &server.Handlers{
		Engine:       engine,
		Registry:     registry,
		PollInterval: cfg.PollInterval,
		ReadyCheck: func(rctx context.Context) error {
			_, err := tokenSource.Get(rctx)
			return err
		},
	}
	go func() {
		if err := server.Start(ctx, handlers, cfg.HTTPAddr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	// Block until shutdown signal
	<-ctx.Done()
	slog.Info("shutting down")
}
