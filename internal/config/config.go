package config

import (
	"time"

	"github.com/rickgao/quotewatch/internal/poller"
	"github.com/rickgao/quotewatch/internal/retry"
)

// Config is the root configuration for a quotewatch instance.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Retry     RetryConfig     `yaml:"retry"`
	Refresh   RefreshConfig   `yaml:"refresh"`
	Watchlist WatchlistConfig `yaml:"watchlist"`
	Database  DatabaseConfig  `yaml:"database"`
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tracing   TracingConfig   `yaml:"tracing"`
}

// APIConfig holds Finnhub API settings.
type APIConfig struct {
	BaseURL        string        `yaml:"base_url"`
	APIKey         string        `yaml:"api_key"`
	APIKeyFile     string        `yaml:"api_key_file"` // Read when api_key is empty
	Timeout        time.Duration `yaml:"timeout"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// RetryConfig holds per-symbol retry limits.
type RetryConfig struct {
	MaxAttempts       int           `yaml:"max_attempts"`
	BaseDelay         time.Duration `yaml:"base_delay"`
	MaxDelay          time.Duration `yaml:"max_delay"`
	MaxExponent       int           `yaml:"max_exponent"`
	RateLimitCap      time.Duration `yaml:"rate_limit_cap"`
	DefaultRetryAfter time.Duration `yaml:"default_retry_after"`
	RetryAuthFailures bool          `yaml:"retry_auth_failures"`
}

// RefreshConfig holds refresh cycle settings.
type RefreshConfig struct {
	Interval            time.Duration `yaml:"interval"`
	Concurrency         int           `yaml:"concurrency"`
	DropUnresolvedOnAdd *bool         `yaml:"drop_unresolved_on_add"`
	StaleAfter          time.Duration `yaml:"stale_after"`
	SummaryHistory      int           `yaml:"summary_history"`
}

// WatchlistConfig holds the initial symbol set.
type WatchlistConfig struct {
	Symbols []string `yaml:"symbols"`
}

// DatabaseConfig holds the optional Postgres store for last-known-good quotes.
type DatabaseConfig struct {
	Enabled  bool         `yaml:"enabled"`
	Host     string       `yaml:"host"`
	Port     int          `yaml:"port"`
	Name     string       `yaml:"name"`
	User     string       `yaml:"user"`
	Password string       `yaml:"password"`
	SSLMode  string       `yaml:"ssl_mode"`
	MaxConns int          `yaml:"max_conns"`
	MinConns int          `yaml:"min_conns"`
	Writer   WriterConfig `yaml:"writer"`
}

// WriterConfig holds quote writer batching settings.
type WriterConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
}

// ServerConfig holds the HTTP status server settings.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// LoggingConfig holds log handler settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text or json
}

// TracingConfig toggles the stdout span exporter.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
}

// RetryPolicy converts the retry section into a retry.Policy.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:  c.Retry.MaxAttempts,
		BaseDelay:    c.Retry.BaseDelay,
		MaxDelay:     c.Retry.MaxDelay,
		MaxExponent:  c.Retry.MaxExponent,
		RateLimitCap: c.Retry.RateLimitCap,
		RetryFatal:   c.Retry.RetryAuthFailures,
	}
}

// PollerConfig converts the refresh section into a poller.Config.
func (c *Config) PollerConfig() poller.Config {
	cfg := poller.DefaultConfig()
	cfg.Interval = c.Refresh.Interval
	if c.Refresh.DropUnresolvedOnAdd != nil {
		cfg.DropUnresolvedOnAdd = *c.Refresh.DropUnresolvedOnAdd
	}
	if c.Refresh.SummaryHistory > 0 {
		cfg.SummaryHistory = c.Refresh.SummaryHistory
	}
	return cfg
}
