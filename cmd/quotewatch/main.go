package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/rickgao/quotewatch/internal/api"
	"github.com/rickgao/quotewatch/internal/auth"
	"github.com/rickgao/quotewatch/internal/buffer"
	"github.com/rickgao/quotewatch/internal/cache"
	"github.com/rickgao/quotewatch/internal/config"
	"github.com/rickgao/quotewatch/internal/database"
	"github.com/rickgao/quotewatch/internal/format"
	"github.com/rickgao/quotewatch/internal/logging"
	"github.com/rickgao/quotewatch/internal/metrics"
	"github.com/rickgao/quotewatch/internal/poller"
	"github.com/rickgao/quotewatch/internal/retry"
	"github.com/rickgao/quotewatch/internal/tracing"
	"github.com/rickgao/quotewatch/internal/version"
	"github.com/rickgao/quotewatch/internal/watchlist"
	"github.com/rickgao/quotewatch/internal/worker"
	"github.com/rickgao/quotewatch/internal/writer"
)

func main() {
	configPath := flag.String("config", "configs/quotewatch.yaml", "path to config file (empty for defaults and FINNHUB_API_KEY)")
	flag.Parse()

	// .env is optional
	_ = godotenv.Load()

	logger := logging.Setup(logging.Config{})
	logger.Info("starting quotewatch",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = logging.Setup(logging.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})

	if err := run(cfg, logger); err != nil {
		logger.Error("quotewatch failed", "error", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		cfg := config.Default()
		return cfg, cfg.Validate()
	}
	return config.LoadAndValidate(path)
}

func run(cfg *config.Config, logger *slog.Logger) error {
	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	shutdownTracing, err := tracing.Init(ctx, tracing.Config{
		Enabled:        cfg.Tracing.Enabled,
		ServiceName:    "quotewatch",
		ServiceVersion: version.Version,
	})
	if err != nil {
		logger.Warn("tracing disabled", "error", err)
	}

	key, err := auth.LoadAPIKey(cfg.API.APIKey, cfg.API.APIKeyFile)
	if err != nil {
		return err
	}

	client := api.NewClient(
		cfg.API.BaseURL,
		key,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithConnectTimeout(cfg.API.ConnectTimeout),
		api.WithDefaultRetryAfter(cfg.Retry.DefaultRetryAfter),
	)

	refreshMetrics := metrics.NewRefresh()
	pool := worker.NewPool(cfg.Refresh.Concurrency)
	sched := retry.NewScheduler()
	runner := retry.NewRunner(cfg.RetryPolicy(), client, pool, sched,
		retry.WithLogger(logger),
		retry.WithObserver(func(s retry.State) { refreshMetrics.ObserveRetry(s.Failure) }),
	)

	list, err := watchlist.New(cfg.Watchlist.Symbols...)
	if err != nil {
		return err
	}
	quotes := cache.New()

	opts := []poller.Option{poller.WithMetrics(refreshMetrics)}
	extraStats := func() map[string]any {
		return map[string]any{
			"pool": map[string]any{
				"size":      pool.Size(),
				"active":    pool.Active(),
				"completed": pool.Completed(),
			},
			"pending_retries": sched.Pending(),
			"cached":          quotes.Len(),
		}
	}

	var ping func(context.Context) error
	var qw *writer.QuoteWriter
	if cfg.Database.Enabled {
		logger.Info("connecting to database",
			"host", cfg.Database.Host,
			"port", cfg.Database.Port,
			"database", cfg.Database.Name,
		)
		db, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()
		ping = db.Ping

		if err := writer.EnsureSchema(ctx, db); err != nil {
			return err
		}
		stored, err := writer.LoadLatest(ctx, db)
		if err != nil {
			return err
		}
		warm := stored[:0]
		for _, q := range stored {
			if list.Contains(q.Symbol) {
				warm = append(warm, q)
			}
		}
		quotes.Seed(warm)
		logger.Info("cache seeded from database", "quotes", len(warm))

		qw = writer.NewQuoteWriter(writer.WriterConfig{
			BatchSize:     cfg.Database.Writer.BatchSize,
			FlushInterval: cfg.Database.Writer.FlushInterval,
			BufferSize:    cfg.Database.Writer.BufferSize,
		}, db, logger)
		if err := qw.Start(ctx); err != nil {
			return err
		}
		opts = append(opts, poller.WithSink(qw))
		baseStats := extraStats
		extraStats = func() map[string]any {
			m := baseStats()
			m["writer"] = qw.Stats()
			return m
		}
	}

	p := poller.New(cfg.PollerConfig(), runner, list, quotes, logger, opts...)

	srv := &server{
		quotes:     quotes,
		symbols:    list,
		refresh:    p,
		metrics:    refreshMetrics,
		ping:       ping,
		extraStats: extraStats,
		staleAfter: cfg.Refresh.StaleAfter,
		now:        time.Now,
		logger:     logger.With("component", "http"),
	}
	httpServer := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("starting http server", "addr", cfg.Server.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	if err := p.Start(ctx); err != nil {
		return err
	}
	go reportSummaries(ctx, p.Summaries(), quotes, logger)

	logger.Info("quotewatch running",
		"symbols", list.Symbols(),
		"interval", p.Interval(),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http server shutdown", "error", err)
	}
	if err := p.Stop(shutdownCtx); err != nil {
		logger.Warn("poller stop timed out", "error", err)
	}
	sched.Close()
	pool.Wait()
	if qw != nil {
		if err := qw.Stop(shutdownCtx); err != nil {
			logger.Warn("quote writer stop", "error", err)
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown", "error", err)
	}

	logger.Info("quotewatch stopped")
	return nil
}

// reportSummaries logs the status line for every finished cycle, and each
// refreshed quote at debug level.
func reportSummaries(ctx context.Context, summaries *buffer.Queue[poller.Summary], quotes *cache.Cache, logger *slog.Logger) {
	for {
		s, ok := summaries.Receive(ctx)
		if !ok {
			return
		}
		logger.Info("status", "line", s.String(), "cycle", s.CycleID, "duration", s.Duration)
		if logger.Enabled(ctx, slog.LevelDebug) {
			for _, e := range quotes.Snapshot() {
				logger.Debug("quote", "line", format.Line(e.Quote), "time", format.Timestamp(format.QuoteTime(e.Quote)))
			}
		}
	}
}
