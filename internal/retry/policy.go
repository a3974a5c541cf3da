package retry

import "time"

// Defaults for Policy.
const (
	DefaultMaxAttempts  = 3
	DefaultBaseDelay    = time.Second
	DefaultMaxDelay     = 30 * time.Second
	DefaultMaxExponent  = 6
	DefaultRateLimitCap = 300 * time.Second
)

// Policy holds the retry limits.
type Policy struct {
	MaxAttempts  int           // Total requests per symbol, including the first
	BaseDelay    time.Duration // Backoff unit and jitter range
	MaxDelay     time.Duration // Upper bound for transient backoff
	MaxExponent  int           // Doublings stop growing past this attempt index
	RateLimitCap time.Duration // Upper bound for server-requested waits
	RetryFatal   bool          // Retry 401s with transient backoff
}

// DefaultPolicy returns the standard retry limits.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  DefaultMaxAttempts,
		BaseDelay:    DefaultBaseDelay,
		MaxDelay:     DefaultMaxDelay,
		MaxExponent:  DefaultMaxExponent,
		RateLimitCap: DefaultRateLimitCap,
	}
}

// Backoff returns the wait after a transient failure on attempt n:
// BaseDelay*2^min(n, MaxExponent) + jitter, capped at MaxDelay.
func (p Policy) Backoff(n int, jitter time.Duration) time.Duration {
	exp := min(max(n, 0), p.MaxExponent)
	d := p.BaseDelay<<exp + jitter
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Jitter draws a value in [0, BaseDelay) using rnd, which must return a
// value in [0, n).
func (p Policy) Jitter(rnd func(n int64) int64) time.Duration {
	if p.BaseDelay <= 0 {
		return 0
	}
	return time.Duration(rnd(int64(p.BaseDelay)))
}

// RateLimitDelay returns the wait after a 429: min(retryAfter, RateLimitCap).
func (p Policy) RateLimitDelay(retryAfter time.Duration) time.Duration {
	if retryAfter < 0 {
		return 0
	}
	if p.RateLimitCap > 0 && retryAfter > p.RateLimitCap {
		return p.RateLimitCap
	}
	return retryAfter
}
