package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rickgao/quotewatch/internal/poller"
	"github.com/rickgao/quotewatch/internal/watchlist"
)

// Validate checks that all required fields are set and values are valid.
func (c *Config) Validate() error {
	if c.API.APIKey == "" && c.API.APIKeyFile == "" {
		return errors.New("api.api_key is required")
	}
	if c.API.Timeout <= 0 {
		return errors.New("api.timeout must be > 0")
	}

	if c.Retry.MaxAttempts < 1 {
		return errors.New("retry.max_attempts must be >= 1")
	}
	if c.Retry.BaseDelay <= 0 {
		return errors.New("retry.base_delay must be > 0")
	}
	if c.Retry.MaxDelay < c.Retry.BaseDelay {
		return fmt.Errorf("retry.max_delay must be >= retry.base_delay (%s)", c.Retry.BaseDelay)
	}
	if c.Retry.MaxExponent < 0 {
		return errors.New("retry.max_exponent must be >= 0")
	}

	if c.Refresh.Interval < poller.MinInterval {
		return fmt.Errorf("refresh.interval must be >= %s, got %s", poller.MinInterval, c.Refresh.Interval)
	}
	if c.Refresh.Concurrency < 1 {
		return errors.New("refresh.concurrency must be >= 1")
	}

	for i, sym := range c.Watchlist.Symbols {
		if _, err := watchlist.Validate(sym); err != nil {
			return fmt.Errorf("watchlist.symbols[%d]: %w", i, err)
		}
	}

	if c.Database.Enabled {
		if err := c.Database.validate("database"); err != nil {
			return err
		}
	}

	switch strings.ToLower(c.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}

	return nil
}

func (db *DatabaseConfig) validate(prefix string) error {
	if db.Host == "" {
		return fmt.Errorf("%s.host is required", prefix)
	}
	if db.Name == "" {
		return fmt.Errorf("%s.name is required", prefix)
	}
	if db.User == "" {
		return fmt.Errorf("%s.user is required", prefix)
	}
	if db.MaxConns < 1 {
		return fmt.Errorf("%s.max_conns must be >= 1", prefix)
	}
	if db.MinConns < 0 {
		return fmt.Errorf("%s.min_conns must be >= 0", prefix)
	}
	if db.MinConns > db.MaxConns {
		return fmt.Errorf("%s.min_conns must be <= max_conns", prefix)
	}
	if db.Writer.BatchSize < 1 {
		return fmt.Errorf("%s.writer.batch_size must be >= 1", prefix)
	}
	return nil
}
