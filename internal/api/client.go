package api

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/rickgao/quotewatch/internal/auth"
)

// Defaults for the Finnhub HTTP boundary.
const (
	DefaultBaseURL           = "https://finnhub.io/api/v1"
	DefaultTimeout           = 15 * time.Second
	DefaultConnectTimeout    = 10 * time.Second
	DefaultRetryAfter        = 60 * time.Second
	maxBodyBytes       int64 = 1 << 20
)

// HTTPClient describes an HTTP client.
//
//go:generate mockgen -package=api_test -destination=mock_http_client_test.go -source=client.go HTTPClient
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client provides access to the Finnhub REST API.
type Client struct {
	baseURL    string
	apiKey     auth.APIKey
	httpClient HTTPClient
	logger     *slog.Logger
	now        func() time.Time

	timeout           time.Duration
	connectTimeout    time.Duration
	defaultRetryAfter time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new REST API client.
func NewClient(baseURL string, apiKey auth.APIKey, opts ...ClientOption) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL:           baseURL,
		apiKey:            apiKey,
		logger:            slog.Default(),
		now:               time.Now,
		timeout:           DefaultTimeout,
		connectTimeout:    DefaultConnectTimeout,
		defaultRetryAfter: DefaultRetryAfter,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = newHTTPClient(c.timeout, c.connectTimeout)
	}

	return c
}

// newHTTPClient builds an http.Client whose dialer gives up after
// connectTimeout and whose requests give up after timeout.
func newHTTPClient(timeout, connectTimeout time.Duration) *http.Client {
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: connectTimeout, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   32,
		ForceAttemptHTTP2:     true,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   connectTimeout,
		ExpectContinueTimeout: time.Second,
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithConnectTimeout sets the dial and TLS handshake timeout.
func WithConnectTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.connectTimeout = d
	}
}

// WithDefaultRetryAfter sets the wait reported for a 429 that carries no
// Retry-After hint.
func WithDefaultRetryAfter(d time.Duration) ClientOption {
	return func(c *Client) {
		c.defaultRetryAfter = d
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHTTPClient sets a custom HTTP client. Timeout options do not apply to
// a custom client.
func WithHTTPClient(hc HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithClock sets the function used to stamp fetched quotes.
func WithClock(now func() time.Time) ClientOption {
	return func(c *Client) {
		c.now = now
	}
}
