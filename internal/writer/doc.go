// Package writer persists the last known good quote per symbol to
// PostgreSQL.
//
// QuoteWriter observes cache mutations from the poller, buffers them in a
// queue, and flushes them in pgx batches. Each symbol has exactly one row:
// successful refreshes upsert it and watchlist removals delete it. The
// table is read back once at startup to seed the cache.
package writer
