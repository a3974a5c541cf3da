package config

import (
	"time"

	"github.com/rickgao/quotewatch/internal/api"
	"github.com/rickgao/quotewatch/internal/retry"
	"github.com/rickgao/quotewatch/internal/watchlist"
	"github.com/rickgao/quotewatch/internal/worker"
)

// EnvAPIKey is consulted when neither api.api_key nor api.api_key_file is set.
const EnvAPIKey = "FINNHUB_API_KEY"

// Default values for optional configuration fields.
const (
	DefaultBaseURL          = api.DefaultBaseURL
	DefaultAPITimeout       = api.DefaultTimeout
	DefaultConnectTimeout   = api.DefaultConnectTimeout
	DefaultMaxAttempts      = retry.DefaultMaxAttempts
	DefaultBaseDelay        = retry.DefaultBaseDelay
	DefaultMaxDelay         = retry.DefaultMaxDelay
	DefaultMaxExponent      = retry.DefaultMaxExponent
	DefaultRateLimitCap     = retry.DefaultRateLimitCap
	DefaultRetryAfter       = api.DefaultRetryAfter
	DefaultRefreshInterval  = 15 * time.Second
	DefaultConcurrency      = worker.DefaultSize
	DefaultStaleAfter       = 5 * time.Minute
	DefaultSummaryHistory   = 100
	DefaultDBPort           = 5432
	DefaultDBSSLMode        = "prefer"
	DefaultMaxConns         = 4
	DefaultMinConns         = 1
	DefaultWriterBatchSize  = 100
	DefaultWriterFlush      = 1 * time.Second
	DefaultWriterBufferSize = 1000
	DefaultServerAddr       = ":8080"
	DefaultLogLevel         = "info"
	DefaultLogFormat        = "text"
)

func (c *Config) applyDefaults() {
	// API defaults
	if c.API.BaseURL == "" {
		c.API.BaseURL = DefaultBaseURL
	}
	if c.API.Timeout == 0 {
		c.API.Timeout = DefaultAPITimeout
	}
	if c.API.ConnectTimeout == 0 {
		c.API.ConnectTimeout = DefaultConnectTimeout
	}

	// Retry defaults
	if c.Retry.MaxAttempts == 0 {
		c.Retry.MaxAttempts = DefaultMaxAttempts
	}
	if c.Retry.BaseDelay == 0 {
		c.Retry.BaseDelay = DefaultBaseDelay
	}
	if c.Retry.MaxDelay == 0 {
		c.Retry.MaxDelay = DefaultMaxDelay
	}
	if c.Retry.MaxExponent == 0 {
		c.Retry.MaxExponent = DefaultMaxExponent
	}
	if c.Retry.RateLimitCap == 0 {
		c.Retry.RateLimitCap = DefaultRateLimitCap
	}
	if c.Retry.DefaultRetryAfter == 0 {
		c.Retry.DefaultRetryAfter = DefaultRetryAfter
	}

	// Refresh defaults
	if c.Refresh.Interval == 0 {
		c.Refresh.Interval = DefaultRefreshInterval
	}
	if c.Refresh.Concurrency == 0 {
		c.Refresh.Concurrency = DefaultConcurrency
	}
	if c.Refresh.DropUnresolvedOnAdd == nil {
		drop := true
		c.Refresh.DropUnresolvedOnAdd = &drop
	}
	if c.Refresh.StaleAfter == 0 {
		c.Refresh.StaleAfter = DefaultStaleAfter
	}
	if c.Refresh.SummaryHistory == 0 {
		c.Refresh.SummaryHistory = DefaultSummaryHistory
	}

	if len(c.Watchlist.Symbols) == 0 {
		c.Watchlist.Symbols = append([]string(nil), watchlist.DefaultSymbols...)
	}

	// Database defaults
	if c.Database.Port == 0 {
		c.Database.Port = DefaultDBPort
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = DefaultDBSSLMode
	}
	if c.Database.MaxConns == 0 {
		c.Database.MaxConns = DefaultMaxConns
	}
	if c.Database.MinConns == 0 {
		c.Database.MinConns = DefaultMinConns
	}
	if c.Database.Writer.BatchSize == 0 {
		c.Database.Writer.BatchSize = DefaultWriterBatchSize
	}
	if c.Database.Writer.FlushInterval == 0 {
		c.Database.Writer.FlushInterval = DefaultWriterFlush
	}
	if c.Database.Writer.BufferSize == 0 {
		c.Database.Writer.BufferSize = DefaultWriterBufferSize
	}

	if c.Server.Addr == "" {
		c.Server.Addr = DefaultServerAddr
	}

	if c.Logging.Level == "" {
		c.Logging.Level = DefaultLogLevel
	}
	if c.Logging.Format == "" {
		c.Logging.Format = DefaultLogFormat
	}
}
