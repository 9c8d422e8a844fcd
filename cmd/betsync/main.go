package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alejandrodnm/betsync/config"
	"github.com/alejandrodnm/betsync/internal/adapters/broker"
	"github.com/alejandrodnm/betsync/internal/adapters/httpapi"
	"github.com/alejandrodnm/betsync/internal/adapters/notify"
	"github.com/alejandrodnm/betsync/internal/adapters/publish"
	"github.com/alejandrodnm/betsync/internal/adapters/sportsbook"
	"github.com/alejandrodnm/betsync/internal/adapters/storage"
	"github.com/alejandrodnm/betsync/internal/application/ingest"
	"github.com/alejandrodnm/betsync/internal/application/settlement"
	"github.com/alejandrodnm/betsync/internal/application/wagers"
	"github.com/alejandrodnm/betsync/internal/ports"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	modeIngest = "ingest"
	modeSettle = "settle"
	modeAPI    = "api"
	modeAll    = "all"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	mode := flag.String("mode", modeAll, "what to run: ingest|settle|api|all")
	once := flag.Bool("once", false, "run one ingest/settle pass and exit")
	verbose := flag.Bool("verbose", false, "set log level to debug")
	logFormat := flag.String("format", "", "log format: text|json (overrides config)")
	table := flag.Bool("table", false, "print ingest summaries as tables")
	report := flag.String("report", "", "print the wagers of this user and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err, "path", *configPath)
		os.Exit(1)
	}

	if *verbose {
		cfg.Log.Level = "debug"
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}
	setupLogger(cfg.Log)

	switch *mode {
	case modeIngest, modeSettle, modeAPI, modeAll:
	default:
		slog.Error("unknown mode", "mode", *mode)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open storage", "err", err, "postgres", cfg.UsesPostgres())
		os.Exit(1)
	}
	defer store.Close()

	notifier := notify.NewConsole(*table)

	if *report != "" {
		rows, err := store.ListWagers(ctx, *report, 0)
		if err != nil {
			slog.Error("report failed", "err", err, "user", *report)
			os.Exit(1)
		}
		notifier.ReportWagers(*report, rows)
		return
	}

	slog.Info("betsync starting",
		"config", *configPath,
		"mode", *mode,
		"once", *once,
		"leagues", len(cfg.Ingest.Leagues),
	)

	if err := run(ctx, cfg, *mode, *once, store, notifier); err != nil {
		slog.Error("betsync exited with error", "err", err)
		os.Exit(1)
	}
	slog.Info("betsync stopped cleanly")
}

func run(ctx context.Context, cfg *config.Config, mode string, once bool, store ports.Store, notifier *notify.Console) error {
	feed := sportsbook.NewClient(sportsbook.Options{
		BaseURL:       cfg.Feed.BaseURL,
		APIKey:        cfg.Feed.APIKey,
		RatePerSecond: cfg.Feed.RatePerSecond,
		Timeout:       cfg.FeedTimeout(),
	})

	// Everything that can fail at startup is opened before any loop runs.
	var publisher ports.SettlementPublisher
	if mode == modeSettle || mode == modeAll {
		pub, closeRedis, err := openPublisher(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer closeRedis()
		publisher = pub
	}

	g, gctx := errgroup.WithContext(ctx)

	if mode == modeIngest || mode == modeAll {
		ingestCfg := ingest.DefaultConfig()
		ingestCfg.Leagues = cfg.Ingest.Leagues
		ingestCfg.Interval = cfg.IngestInterval()
		ingestCfg.LeagueDelay = cfg.LeagueDelay()
		ingestCfg.CycleTimeout = cfg.CycleTimeout()
		ingestCfg.StartBuffer = cfg.StartBuffer()
		ingestCfg.PriceCeiling = cfg.Ingest.PriceCeiling
		ingestCfg.SportCeilings = cfg.Ingest.SportCeilings
		ingestCfg.FetchWorkers = cfg.Ingest.FetchWorkers
		ingestCfg.Once = once

		in := ingest.New(ingestCfg, feed, feed, store, notifier)
		g.Go(func() error { return in.Run(gctx) })
	}

	if mode == modeSettle || mode == modeAll {
		rec := settlement.New(settlement.Config{
			Interval: cfg.SettlementInterval(),
			Lookback: cfg.SettlementLookback(),
			Once:     once,
		}, feed, store, publisher, notifier)
		g.Go(func() error { return rec.Run(gctx) })

		if cfg.AMQP.URL != "" && !once {
			consumer := broker.NewConsumer(cfg.AMQP.URL, cfg.AMQP.Queue, cfg.AMQP.Prefetch, rec)
			g.Go(func() error { return consumer.Run(gctx) })
		}
	}

	if (mode == modeAPI || mode == modeAll) && !once {
		srv := httpapi.NewServer(wagers.NewService(store), store)
		g.Go(func() error {
			return serveHTTP(gctx, cfg.HTTP.Addr, srv.Router(httpapi.Options{CORSOrigins: cfg.HTTP.CORSOrigins}))
		})
	}

	return g.Wait()
}

// openStore picks Postgres for postgres:// DSNs and SQLite otherwise.
func openStore(ctx context.Context, cfg *config.Config) (ports.Store, error) {
	if cfg.UsesPostgres() {
		return storage.NewPostgresStorage(ctx, cfg.Storage.DSN)
	}
	return storage.NewSQLiteStorage(cfg.Storage.DSN)
}

// openPublisher returns a Redis stream publisher when a URL is configured,
// nil otherwise.
func openPublisher(ctx context.Context, cfg config.RedisConfig) (ports.SettlementPublisher, func(), error) {
	if cfg.URL == "" {
		return nil, func() {}, nil
	}
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("redis: parse url: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis: ping: %w", err)
	}
	slog.Info("publishing settlements", "stream", cfg.Stream)
	return publish.NewRedisPublisher(client, cfg.Stream), func() { _ = client.Close() }, nil
}

func serveHTTP(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	}
}

func setupLogger(cfg config.LogConfig) {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
