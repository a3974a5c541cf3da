// quotecheck fetches quotes once, with the same retry policy as the
// service, and prints one line per symbol.
// Usage: go run ./cmd/quotecheck -symbols AAPL,MSFT
//
// Required environment variables (unless set in the config file):
//
//	FINNHUB_API_KEY - Finnhub API token
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/rickgao/quotewatch/internal/api"
	"github.com/rickgao/quotewatch/internal/auth"
	"github.com/rickgao/quotewatch/internal/config"
	"github.com/rickgao/quotewatch/internal/format"
	"github.com/rickgao/quotewatch/internal/logging"
	"github.com/rickgao/quotewatch/internal/model"
	"github.com/rickgao/quotewatch/internal/retry"
	"github.com/rickgao/quotewatch/internal/watchlist"
	"github.com/rickgao/quotewatch/internal/worker"
)

func main() {
	configPath := flag.String("config", "", "optional path to config file")
	symbolsFlag := flag.String("symbols", "", "comma-separated symbols (default: configured watchlist)")
	verbose := flag.Bool("verbose", false, "log retries")
	flag.Parse()

	_ = godotenv.Load()

	level := "error"
	if *verbose {
		level = "debug"
	}
	logger := logging.New(logging.Config{Level: level}, os.Stderr)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}

	symbols := cfg.Watchlist.Symbols
	if *symbolsFlag != "" {
		symbols = strings.Split(*symbolsFlag, ",")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	failed, err := check(ctx, cfg, symbols, os.Stdout, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if failed > 0 {
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

// check fetches every symbol and writes one line each to out in input
// order. It returns the number of symbols without a quote.
func check(ctx context.Context, cfg *config.Config, symbols []string, out io.Writer, logger *slog.Logger) (int, error) {
	norm := make([]string, 0, len(symbols))
	for _, s := range symbols {
		sym, err := watchlist.Validate(s)
		if err != nil {
			return 0, err
		}
		norm = append(norm, sym)
	}

	key, err := auth.LoadAPIKey(cfg.API.APIKey, cfg.API.APIKeyFile)
	if err != nil {
		return 0, err
	}
	client := api.NewClient(cfg.API.BaseURL, key,
		api.WithLogger(logger),
		api.WithTimeout(cfg.API.Timeout),
		api.WithConnectTimeout(cfg.API.ConnectTimeout),
		api.WithDefaultRetryAfter(cfg.Retry.DefaultRetryAfter),
	)
	sched := retry.NewScheduler()
	defer sched.Close()
	runner := retry.NewRunner(cfg.RetryPolicy(), client, worker.NewPool(cfg.Refresh.Concurrency), sched,
		retry.WithLogger(logger),
	)

	outcomes := make([]model.FetchOutcome, len(norm))
	g, gctx := errgroup.WithContext(ctx)
	for i, sym := range norm {
		g.Go(func() error {
			outcomes[i] = runner.Fetch(gctx, sym)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, o := range outcomes {
		switch {
		case o.OK():
			fmt.Fprintf(out, "%s  %s\n", format.Line(o.Quote), format.Timestamp(format.QuoteTime(o.Quote)))
		case o.Kind == model.OutcomeNoData:
			failed++
			fmt.Fprintf(out, "%s: no data\n", o.Symbol)
		default:
			failed++
			fmt.Fprintf(out, "%s: failed (%s)\n", o.Symbol, o.Reason)
		}
	}
	return failed, nil
}
