package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/rickgao/quotewatch/internal/buffer"
	"github.com/rickgao/quotewatch/internal/cache"
	"github.com/rickgao/quotewatch/internal/metrics"
	"github.com/rickgao/quotewatch/internal/model"
	"github.com/rickgao/quotewatch/internal/tracing"
	"github.com/rickgao/quotewatch/internal/watchlist"
)

// MinInterval is the shortest accepted refresh interval.
const MinInterval = time.Second

// ErrIntervalTooShort is returned by SetInterval for intervals below MinInterval.
var ErrIntervalTooShort = errors.New("refresh interval must be at least 1s")

// SymbolSource provides the symbols to refresh.
type SymbolSource interface {
	Symbols() []string
	Contains(symbol string) bool
}

// ChangeFeed is implemented by sources that publish additions and removals.
type ChangeFeed interface {
	SubscribeChanges() <-chan watchlist.Change
	Remove(symbol string) (string, error)
}

// Fetcher starts a retrying fetch. done must be called exactly once.
type Fetcher interface {
	Start(ctx context.Context, symbol string, done func(model.FetchOutcome))
}

// QuoteSink observes cache mutations.
type QuoteSink interface {
	QuoteUpdated(q model.Quote)
	QuoteRemoved(symbol string)
}

// Config holds poller configuration.
type Config struct {
	Interval            time.Duration // Cycle period and cycle deadline (default: 15s)
	DropUnresolvedOnAdd bool          // Remove added symbols that return no data
	SummaryHistory      int           // Summaries retained for consumers (default: 100)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval:            15 * time.Second,
		DropUnresolvedOnAdd: true,
		SummaryHistory:      100,
	}
}

// Option configures a Poller.
type Option func(*Poller)

// WithSink registers a sink for cache mutations.
func WithSink(sink QuoteSink) Option {
	return func(p *Poller) {
		p.sink = sink
	}
}

// WithMetrics sets the counters updated by the poller.
func WithMetrics(m *metrics.Refresh) Option {
	return func(p *Poller) {
		p.metrics = m
	}
}

// Poller periodically refreshes every watched symbol.
type Poller struct {
	cfg     Config
	fetcher Fetcher
	source  SymbolSource
	cache   *cache.Cache
	sink    QuoteSink
	metrics *metrics.Refresh
	logger  *slog.Logger

	mu       sync.Mutex
	interval time.Duration
	inflight map[string][]chan model.FetchOutcome

	intervalCh chan time.Duration
	summaries  *buffer.Queue[Summary]
	last       atomic.Pointer[Summary]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Poller.
func New(cfg Config, fetcher Fetcher, source SymbolSource, c *cache.Cache, logger *slog.Logger, opts ...Option) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	if cfg.SummaryHistory <= 0 {
		cfg.SummaryHistory = DefaultConfig().SummaryHistory
	}

	p := &Poller{
		cfg:        cfg,
		fetcher:    fetcher,
		source:     source,
		cache:      c,
		logger:     logger.With("component", "poller"),
		interval:   cfg.Interval,
		inflight:   make(map[string][]chan model.FetchOutcome),
		intervalCh: make(chan time.Duration, 1),
		summaries:  buffer.NewLimitedQueue[Summary](16, cfg.SummaryHistory),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Start begins the refresh loop. The first cycle runs immediately.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	if feed, ok := p.source.(ChangeFeed); ok {
		p.wg.Add(1)
		go p.followChanges(feed)
	}

	p.logger.Info("quote poller started", "interval", p.Interval())

	return nil
}

// Stop cancels every in-flight fetch and pending retry, then waits for the
// loop to exit.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.summaries.Close()
		p.logger.Info("quote poller stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Interval returns the current refresh interval.
func (p *Poller) Interval() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.interval
}

// SetInterval changes the refresh interval and restarts the cycle timer.
// The new value applies from the next cycle on.
func (p *Poller) SetInterval(d time.Duration) error {
	if d < MinInterval {
		return fmt.Errorf("%w: %v", ErrIntervalTooShort, d)
	}

	p.mu.Lock()
	p.interval = d
	p.mu.Unlock()

	// Replace any unapplied change.
	select {
	case <-p.intervalCh:
	default:
	}
	p.intervalCh <- d
	return nil
}

// Summaries returns the queue cycle summaries are published to. Older
// summaries are discarded once SummaryHistory are queued.
func (p *Poller) Summaries() *buffer.Queue[Summary] {
	return p.summaries
}

// LastSummary returns the most recent cycle summary.
func (p *Poller) LastSummary() (Summary, bool) {
	s := p.last.Load()
	if s == nil {
		return Summary{}, false
	}
	return *s, true
}

// run is the main refresh loop.
func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.Interval())
	defer ticker.Stop()

	// Refresh immediately on start.
	p.RefreshCycle(p.ctx)

	for {
		select {
		case <-p.ctx.Done():
			return
		case d := <-p.intervalCh:
			ticker.Reset(d)
			p.logger.Info("refresh interval changed", "interval", d)
		case <-ticker.C:
			p.RefreshCycle(p.ctx)
		}
	}
}

// RefreshCycle refreshes every watched symbol once. It returns when all
// fetches have finished, when the refresh interval elapses, or when ctx is
// cancelled. Fetches still running at that point keep going and update the
// cache when they finish; cancelling ctx aborts them.
func (p *Poller) RefreshCycle(ctx context.Context) Summary {
	start := time.Now()
	symbols := p.source.Symbols()
	deadline := p.Interval()

	s := Summary{
		CycleID: uuid.New(),
		Started: start,
		Symbols: len(symbols),
	}

	if len(symbols) == 0 {
		p.logger.Debug("nothing to refresh", "cycle", s.CycleID)
		p.publish(s)
		return s
	}

	ctx, span := tracing.StartSpan(ctx, "refresh.cycle")
	defer span.End()
	span.SetAttributes(
		attribute.String("cycle", s.CycleID.String()),
		attribute.Int("symbols", len(symbols)),
	)

	t := newTally()
	cycle := s.CycleID
	var wg sync.WaitGroup

	for _, symbol := range symbols {
		if !p.claim(symbol) {
			s.Skipped = append(s.Skipped, symbol)
			continue
		}

		t.expect(symbol)
		wg.Add(1)
		p.fetcher.Start(ctx, symbol, func(o model.FetchOutcome) {
			defer wg.Done()

			p.apply(o)
			p.release(o)

			late := t.record(o)
			p.metrics.ObserveOutcome(o.Kind, late)
			if late {
				p.logger.Info("late outcome applied",
					"cycle", cycle,
					"symbol", o.Symbol,
					"outcome", o.Kind,
				)
			} else if !o.OK() {
				p.logger.Debug("symbol not refreshed",
					"cycle", cycle,
					"symbol", o.Symbol,
					"outcome", o.Kind,
					"reason", o.Reason,
				)
			}
		})
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	timer := time.NewTimer(deadline)
	defer timer.Stop()

	select {
	case <-done:
	case <-timer.C:
		s.TimedOut = true
	case <-ctx.Done():
		s.Cancelled = true
	}

	t.finalize(&s)
	s.Duration = time.Since(start)

	span.SetAttributes(
		attribute.Int("succeeded", s.Succeeded),
		attribute.Int("failed", s.Failed+s.NoData),
		attribute.Bool("timed_out", s.TimedOut),
	)

	p.metrics.ObserveCycle(start, s.Duration, s.TimedOut, len(s.Skipped))
	p.logger.Info("refresh cycle complete",
		"cycle", s.CycleID,
		"symbols", s.Symbols,
		"succeeded", s.Succeeded,
		"no_data", s.NoData,
		"failed", s.Failed,
		"skipped", len(s.Skipped),
		"pending", len(s.Pending),
		"duration", s.Duration,
	)
	if len(s.FailedSymbols) > 0 {
		p.logger.Warn("symbols failed to refresh", "cycle", s.CycleID, "symbols", s.FailedSymbols)
	}

	p.publish(s)
	return s
}

// FetchNow fetches symbol outside the cycle schedule, applies the result
// and returns it. If a fetch for symbol is already running, FetchNow waits
// for that fetch and returns its outcome instead of starting another.
func (p *Poller) FetchNow(ctx context.Context, symbol string) model.FetchOutcome {
	wait, claimed := p.claimOrJoin(symbol)
	if !claimed {
		select {
		case o := <-wait:
			return o
		case <-ctx.Done():
			return model.Failed(symbol, "cancelled: "+ctx.Err().Error(), 0)
		}
	}

	ch := make(chan model.FetchOutcome, 1)
	p.fetcher.Start(ctx, symbol, func(o model.FetchOutcome) {
		p.apply(o)
		p.release(o)
		p.metrics.ObserveOutcome(o.Kind, false)
		ch <- o
	})
	return <-ch
}

// apply writes a successful quote to the cache. Quotes for symbols no
// longer watched are discarded; the second Contains check covers a removal
// that races with the write.
func (p *Poller) apply(o model.FetchOutcome) {
	if !o.OK() {
		return
	}
	if !p.source.Contains(o.Symbol) {
		return
	}

	p.cache.Put(o.Symbol, o.Quote)
	if !p.source.Contains(o.Symbol) {
		p.cache.Remove(o.Symbol)
		return
	}

	if p.sink == nil {
		return
	}
	p.sink.QuoteUpdated(o.Quote)

	// A removal between the check above and the update may have reached
	// the sink first. Evict again so the removal is the last word.
	if !p.source.Contains(o.Symbol) {
		p.evict(o.Symbol)
	}
}

// evict drops a removed symbol from the cache and the sink.
func (p *Poller) evict(symbol string) {
	p.cache.Remove(symbol)
	if p.sink != nil {
		p.sink.QuoteRemoved(symbol)
	}
}

// claim marks symbol in flight. It returns false if it already was.
func (p *Poller) claim(symbol string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.inflight[symbol]; ok {
		return false
	}
	p.inflight[symbol] = nil
	return true
}

// claimOrJoin claims symbol, or, when a fetch for it is already running,
// returns a channel that receives that fetch's outcome.
func (p *Poller) claimOrJoin(symbol string) (<-chan model.FetchOutcome, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	waiters, ok := p.inflight[symbol]
	if !ok {
		p.inflight[symbol] = nil
		return nil, true
	}
	ch := make(chan model.FetchOutcome, 1)
	p.inflight[symbol] = append(waiters, ch)
	return ch, false
}

// release clears the in-flight mark for o.Symbol and hands o to every
// caller waiting on it.
func (p *Poller) release(o model.FetchOutcome) {
	p.mu.Lock()
	waiters := p.inflight[o.Symbol]
	delete(p.inflight, o.Symbol)
	p.mu.Unlock()

	for _, ch := range waiters {
		ch <- o
	}
}

func (p *Poller) publish(s Summary) {
	p.last.Store(&s)
	p.summaries.Send(s)
}

// followChanges reacts to watchlist edits until the poller stops.
func (p *Poller) followChanges(feed ChangeFeed) {
	defer p.wg.Done()

	changes := feed.SubscribeChanges()
	for {
		select {
		case <-p.ctx.Done():
			return
		case c := <-changes:
			switch c.Type {
			case watchlist.Added:
				p.wg.Add(1)
				go p.resolveAdded(feed, c.Symbol)
			case watchlist.Removed:
				p.evict(c.Symbol)
				p.logger.Info("symbol removed", "symbol", c.Symbol)
			}
		}
	}
}

// resolveAdded fetches a newly added symbol and, if configured, drops it
// from the watchlist when the provider has no data for it.
func (p *Poller) resolveAdded(feed ChangeFeed, symbol string) {
	defer p.wg.Done()

	o := p.FetchNow(p.ctx, symbol)
	switch {
	case o.OK():
		p.logger.Info("symbol added", "symbol", symbol, "price", o.Quote.Current)
	case o.Kind == model.OutcomeNoData && p.cfg.DropUnresolvedOnAdd:
		if _, err := feed.Remove(symbol); err == nil {
			p.logger.Warn("symbol not found, removed from watchlist", "symbol", symbol)
		}
	default:
		p.logger.Warn("symbol added without quote", "symbol", symbol, "outcome", o.Kind, "reason", o.Reason)
	}
}
