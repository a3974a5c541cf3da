package retry

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/singleflight"

	"github.com/rickgao/quotewatch/internal/api"
	"github.com/rickgao/quotewatch/internal/model"
	"github.com/rickgao/quotewatch/internal/tracing"
	"github.com/rickgao/quotewatch/internal/worker"
)

// Fetcher performs one classified request for a symbol.
type Fetcher interface {
	FetchQuote(ctx context.Context, symbol string) api.Result
}

// FetcherFunc is an adapter to allow ordinary functions as Fetchers.
type FetcherFunc func(ctx context.Context, symbol string) api.Result

// FetchQuote calls f(ctx, symbol).
func (f FetcherFunc) FetchQuote(ctx context.Context, symbol string) api.Result {
	return f(ctx, symbol)
}

// State describes one failed attempt and the wait before the next.
type State struct {
	Symbol  string
	Attempt int        // 0-based index of the attempt that failed
	Failure api.Status // Classification of the failure
	Cause   error
	Delay   time.Duration // Wait before attempt Attempt+1
}

// Runner drives fetches through the retry state machine.
type Runner struct {
	policy  Policy
	fetcher Fetcher
	pool    *worker.Pool
	sched   *Scheduler
	logger  *slog.Logger

	rnd      func(n int64) int64
	observer func(State)
	group    singleflight.Group
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithObserver registers fn to receive every scheduled retry.
func WithObserver(fn func(State)) RunnerOption {
	return func(r *Runner) {
		r.observer = fn
	}
}

// WithRand sets the jitter source. rnd(n) must return a value in [0, n).
func WithRand(rnd func(n int64) int64) RunnerOption {
	return func(r *Runner) {
		r.rnd = rnd
	}
}

// NewRunner creates a runner. pool bounds concurrent requests; sched holds
// the backoff timers.
func NewRunner(policy Policy, fetcher Fetcher, pool *worker.Pool, sched *Scheduler, opts ...RunnerOption) *Runner {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = DefaultMaxAttempts
	}

	r := &Runner{
		policy:  policy,
		fetcher: fetcher,
		pool:    pool,
		sched:   sched,
		logger:  slog.Default(),
		rnd:     rand.Int64N,
	}

	for _, opt := range opts {
		opt(r)
	}

	r.logger = r.logger.With("component", "retry")
	return r
}

// Policy returns the runner's retry limits.
func (r *Runner) Policy() Policy {
	return r.policy
}

// Start begins fetching symbol and returns immediately. done is called
// exactly once with the terminal outcome, from an arbitrary goroutine.
// Cancelling ctx aborts queued requests and pending waits.
func (r *Runner) Start(ctx context.Context, symbol string, done func(model.FetchOutcome)) {
	r.attempt(ctx, symbol, 0, done)
}

// Fetch runs the state machine for symbol and waits for the outcome.
// Concurrent Fetch calls for the same symbol share one run.
func (r *Runner) Fetch(ctx context.Context, symbol string) model.FetchOutcome {
	v, _, _ := r.group.Do(symbol, func() (any, error) {
		ch := make(chan model.FetchOutcome, 1)
		r.Start(ctx, symbol, func(o model.FetchOutcome) { ch <- o })
		return <-ch, nil
	})
	return v.(model.FetchOutcome)
}

// attempt queues attempt n on the pool.
func (r *Runner) attempt(ctx context.Context, symbol string, n int, done func(model.FetchOutcome)) {
	r.pool.Go(ctx,
		func(ctx context.Context) {
			spanCtx, span := tracing.StartSpan(ctx, "quote.fetch")
			span.SetAttributes(
				attribute.String("symbol", symbol),
				attribute.Int("attempt", n),
			)
			res := r.fetcher.FetchQuote(spanCtx, symbol)
			span.SetAttributes(attribute.String("status", res.Status.String()))
			if res.Status != api.StatusSuccess && res.Status != api.StatusNoData {
				span.SetStatus(codes.Error, reason(res))
			}
			span.End()

			r.next(ctx, symbol, n, res, done)
		},
		func(err error) {
			done(model.Failed(symbol, "cancelled: "+err.Error(), n))
		},
	)
}

// next applies the transition rules to the result of attempt n.
func (r *Runner) next(ctx context.Context, symbol string, n int, res api.Result, done func(model.FetchOutcome)) {
	attempts := n + 1

	switch res.Status {
	case api.StatusSuccess:
		done(model.Success(res.Quote, attempts))
		return
	case api.StatusNoData:
		done(model.NoData(symbol, attempts))
		return
	}

	if err := ctx.Err(); err != nil {
		done(model.Failed(symbol, "cancelled: "+err.Error(), attempts))
		return
	}

	if res.Status == api.StatusFatal && !r.policy.RetryFatal {
		r.logger.Warn("fetch failed permanently", "symbol", symbol, "error", res.Err)
		done(model.Failed(symbol, reason(res), attempts))
		return
	}

	if attempts >= r.policy.MaxAttempts {
		r.logger.Debug("retries exhausted", "symbol", symbol, "attempts", attempts, "error", res.Err)
		done(model.Failed(symbol, fmt.Sprintf("gave up after %d attempts: %s", attempts, reason(res)), attempts))
		return
	}

	st := State{
		Symbol:  symbol,
		Attempt: n,
		Failure: res.Status,
		Cause:   res.Err,
		Delay:   r.delay(n, res),
	}

	r.logger.Debug("retry scheduled",
		"symbol", symbol,
		"attempt", n,
		"failure", st.Failure,
		"delay", st.Delay,
	)
	if r.observer != nil {
		r.observer(st)
	}

	r.sched.Schedule(ctx, st.Delay, func(err error) {
		if err != nil {
			done(model.Failed(symbol, "cancelled: "+err.Error(), attempts))
			return
		}
		r.attempt(ctx, symbol, n+1, done)
	})
}

// delay picks the wait before the next attempt.
func (r *Runner) delay(n int, res api.Result) time.Duration {
	if res.Status == api.StatusRateLimited {
		return r.policy.RateLimitDelay(res.RetryAfter)
	}
	return r.policy.Backoff(n, r.policy.Jitter(r.rnd))
}

func reason(res api.Result) string {
	if res.Err != nil {
		return res.Err.Error()
	}
	return res.Status.String()
}
