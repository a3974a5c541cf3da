package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rickgao/quotewatch/internal/model"
)

// Status classifies the result of a single fetch.
type Status int

const (
	StatusSuccess     Status = iota // 200 with a usable quote
	StatusNoData                    // 200 with an empty, zero or malformed quote
	StatusRateLimited               // 429
	StatusTransient                 // transport failure or unexpected status
	StatusFatal                     // 401
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusNoData:
		return "no_data"
	case StatusRateLimited:
		return "rate_limited"
	case StatusTransient:
		return "transient"
	case StatusFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

// Result is the classified outcome of one request.
type Result struct {
	Status     Status
	Quote      model.Quote   // Set only for StatusSuccess
	RetryAfter time.Duration // Set only for StatusRateLimited
	Err        error         // Cause for every non-success status
}

// retryAfterBody matches the hint Finnhub puts in 429 bodies.
var retryAfterBody = regexp.MustCompile(`Retry after: (\d+)s`)

// FetchQuote performs one GET /quote round trip for symbol and classifies
// the response. It never retries.
func (c *Client) FetchQuote(ctx context.Context, symbol string) Result {
	query := url.Values{}
	query.Set("symbol", symbol)
	c.apiKey.Apply(query)

	resp, err := c.doRequest(ctx, http.MethodGet, "/quote", query)
	if err != nil {
		c.logger.Debug("quote request failed", "symbol", symbol, "error", err)
		return Result{Status: StatusTransient, Err: err}
	}

	result := c.classify(symbol, resp)
	c.logger.Debug("quote fetched",
		"symbol", symbol,
		"http_status", resp.StatusCode,
		"status", result.Status,
	)
	return result
}

// classify maps a response onto a Status.
func (c *Client) classify(symbol string, resp *response) Result {
	switch resp.StatusCode {
	case http.StatusOK:
		quote, err := ParseQuote(symbol, resp.Body, c.now())
		if err != nil {
			if errors.Is(err, ErrMalformed) {
				c.logger.Warn("malformed quote response", "symbol", symbol, "error", err)
			}
			return Result{Status: StatusNoData, Err: err}
		}
		return Result{Status: StatusSuccess, Quote: quote}

	case http.StatusTooManyRequests:
		return Result{
			Status:     StatusRateLimited,
			RetryAfter: c.retryAfter(resp),
			Err:        resp.apiError("rate limited"),
		}

	case http.StatusUnauthorized:
		return Result{Status: StatusFatal, Err: resp.apiError("authentication failed")}

	default:
		return Result{Status: StatusTransient, Err: resp.apiError("")}
	}
}

// retryAfter reads the server's wait hint: the Retry-After header first
// (delta seconds or HTTP date), then the body pattern, then the default.
func (c *Client) retryAfter(resp *response) time.Duration {
	if h := strings.TrimSpace(resp.Header.Get("Retry-After")); h != "" {
		if secs, err := strconv.Atoi(h); err == nil && secs >= 0 {
			return time.Duration(secs) * time.Second
		}
		if at, err := http.ParseTime(h); err == nil {
			if d := at.Sub(c.now()); d > 0 {
				return d.Round(time.Second)
			}
			return 0
		}
	}

	if m := retryAfterBody.FindSubmatch(resp.Body); m != nil {
		if secs, err := strconv.Atoi(string(m[1])); err == nil {
			return time.Duration(secs) * time.Second
		}
	}

	return c.defaultRetryAfter
}
