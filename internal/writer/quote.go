package writer

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/quotewatch/internal/buffer"
	"github.com/rickgao/quotewatch/internal/model"
)

// QuoteWriter consumes cache mutations and writes them to latest_quotes.
// It implements poller.QuoteSink; the sink methods never block on the
// database.
type QuoteWriter struct {
	cfg    WriterConfig
	logger *slog.Logger

	// Input from the poller
	input *buffer.Queue[op]

	// Database
	db DB

	// Batching
	batch       []op
	batchMu     sync.Mutex
	flushMu     sync.Mutex // held from taking the batch until it is sent
	flushTicker *time.Ticker

	// Lifecycle. writeCtx outlives ctx so queued writes still land while
	// the loops shut down.
	ctx      context.Context
	writeCtx context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	// Metrics
	metrics WriterMetrics
}

// NewQuoteWriter creates a new QuoteWriter.
func NewQuoteWriter(cfg WriterConfig, db DB, logger *slog.Logger) *QuoteWriter {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultWriterConfig()
	if cfg.BatchSize < 1 {
		cfg.BatchSize = def.BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = def.FlushInterval
	}
	if cfg.BufferSize < 1 {
		cfg.BufferSize = def.BufferSize
	}
	return &QuoteWriter{
		cfg:    cfg,
		db:     db,
		logger: logger.With("component", "quote_writer"),
		input:  buffer.NewLimitedQueue[op](64, cfg.BufferSize),
		batch:  make([]op, 0, cfg.BatchSize),
	}
}

// QuoteUpdated queues an upsert of q.
func (w *QuoteWriter) QuoteUpdated(q model.Quote) {
	w.input.Send(op{kind: opUpsert, symbol: q.Symbol, row: rowFromQuote(q)})
}

// QuoteRemoved queues a delete of symbol's row.
func (w *QuoteWriter) QuoteRemoved(symbol string) {
	w.input.Send(op{kind: opDelete, symbol: symbol})
}

// Start begins consuming mutations and writing to the database.
func (w *QuoteWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.writeCtx = context.WithoutCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	// Consumer goroutine
	w.wg.Add(1)
	go w.consumeLoop()

	// Flush ticker goroutine
	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("quote writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop drains queued mutations and performs a final flush bounded by ctx.
func (w *QuoteWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping quote writer")

	w.input.Close()
	if w.cancel != nil {
		w.cancel()
	}
	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	// Wait for goroutines
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("quote writer stop timed out")
		return ctx.Err()
	}

	for _, o := range w.input.Drain(0) {
		w.handleOp(ctx, o)
	}
	w.flush(ctx)

	w.logger.Info("quote writer stopped")
	return nil
}

// Stats returns current metrics.
func (w *QuoteWriter) Stats() WriterMetrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	m := w.metrics
	m.Dropped = w.input.Stats().Dropped
	return m
}

// consumeLoop reads from the input queue and accumulates batches.
func (w *QuoteWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		o, ok := w.input.Receive(w.ctx)
		if !ok {
			return
		}
		w.handleOp(w.writeCtx, o)
	}
}

// flushLoop periodically flushes the batch.
func (w *QuoteWriter) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush(w.writeCtx)
		}
	}
}

// handleOp adds a mutation to the batch, flushing when it is full.
func (w *QuoteWriter) handleOp(ctx context.Context, o op) {
	w.batchMu.Lock()
	w.batch = append(w.batch, o)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush(ctx)
	}
}

// flush writes the current batch to the database. Flushes run one at a
// time, so batches reach the database in the order they were taken.
func (w *QuoteWriter) flush(ctx context.Context) {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	// Take ownership of current batch
	ops := coalesce(w.batch)
	w.batch = make([]op, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()
	upserts, deletes, err := w.send(ctx, ops)

	w.batchMu.Lock()
	if err != nil {
		w.metrics.Errors++
	} else {
		w.metrics.Upserts += int64(upserts)
		w.metrics.Deletes += int64(deletes)
	}
	w.metrics.Flushes++
	w.batchMu.Unlock()

	if err != nil {
		w.logger.Error("quote batch write failed", "error", err, "count", len(ops))
		return
	}
	w.logger.Debug("flushed quotes",
		"upserts", upserts,
		"deletes", deletes,
		"duration", time.Since(start),
	)
}

// send executes ops as one pgx batch.
func (w *QuoteWriter) send(ctx context.Context, ops []op) (upserts, deletes int, err error) {
	batch := buildBatch(ops)

	results := w.db.SendBatch(ctx, batch)
	defer results.Close()

	for _, o := range ops {
		if _, err := results.Exec(); err != nil {
			return 0, 0, err
		}
		if o.kind == opDelete {
			deletes++
		} else {
			upserts++
		}
	}
	return upserts, deletes, nil
}

// coalesce keeps the last mutation per symbol, ordered by that mutation's
// position in ops.
func coalesce(ops []op) []op {
	last := make(map[string]int, len(ops))
	for i, o := range ops {
		last[o.symbol] = i
	}
	out := make([]op, 0, len(last))
	for i, o := range ops {
		if last[o.symbol] == i {
			out = append(out, o)
		}
	}
	return out
}

func buildBatch(ops []op) *pgx.Batch {
	batch := &pgx.Batch{}
	for _, o := range ops {
		switch o.kind {
		case opDelete:
			batch.Queue(deleteSQL, o.symbol)
		default:
			r := o.row
			batch.Queue(upsertSQL,
				r.Symbol, r.Current, r.Change, r.PercentChange, r.High, r.Low,
				r.Open, r.PreviousClose, r.ProviderTs, r.FetchedAt,
			)
		}
	}
	return batch
}
