package writer

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of *pgxpool.Pool the writer needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// WriterConfig holds batching settings.
type WriterConfig struct {
	BatchSize     int           // Flush once this many writes are pending
	FlushInterval time.Duration // Flush at least this often
	BufferSize    int           // Queued writes kept before the oldest is dropped
}

// DefaultWriterConfig returns sensible defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BatchSize:     100,
		FlushInterval: time.Second,
		BufferSize:    1000,
	}
}

// WriterMetrics holds writer counters.
type WriterMetrics struct {
	Upserts int64
	Deletes int64
	Errors  int64
	Flushes int64
	Dropped int64
}

type opKind int

const (
	opUpsert opKind = iota
	opDelete
)

// op is one pending store mutation.
type op struct {
	kind   opKind
	symbol string
	row    quoteRow
}

// quoteRow mirrors one latest_quotes row.
type quoteRow struct {
	Symbol        string
	Current       string
	Change        string
	PercentChange string
	High          string
	Low           string
	Open          string
	PreviousClose string
	ProviderTs    int64
	FetchedAt     time.Time
}
