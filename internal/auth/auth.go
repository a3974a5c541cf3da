// Package auth holds the static Finnhub API key and keeps it out of logs.
package auth

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
)

// ErrMissingKey is returned when neither a key nor a key file is configured.
var ErrMissingKey = errors.New("API key is required")

// TokenParam is the query parameter Finnhub reads the key from.
const TokenParam = "token"

// APIKey is a static provider API key.
//
// String and LogValue return a redacted form so the key can be passed to
// loggers and fmt verbs without leaking it.
type APIKey string

// LoadAPIKey returns key if set, otherwise the trimmed contents of keyFile.
func LoadAPIKey(key, keyFile string) (APIKey, error) {
	if key = strings.TrimSpace(key); key != "" {
		return APIKey(key), nil
	}
	if keyFile == "" {
		return "", ErrMissingKey
	}

	data, err := os.ReadFile(keyFile)
	if err != nil {
		return "", fmt.Errorf("read key file: %w", err)
	}

	key = strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("key file %s is empty", keyFile)
	}
	return APIKey(key), nil
}

// Apply adds the key to a request query.
func (k APIKey) Apply(q url.Values) {
	if k != "" {
		q.Set(TokenParam, string(k))
	}
}

// Reveal returns the raw key.
func (k APIKey) Reveal() string {
	return string(k)
}

// Redacted returns the key with all but the last four characters masked.
func (k APIKey) Redacted() string {
	if len(k) <= 4 {
		return strings.Repeat("*", len(k))
	}
	return strings.Repeat("*", len(k)-4) + string(k[len(k)-4:])
}

func (k APIKey) String() string {
	return k.Redacted()
}

// LogValue implements slog.LogValuer.
func (k APIKey) LogValue() slog.Value {
	return slog.StringValue(k.Redacted())
}
