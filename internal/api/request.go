package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rickgao/quotewatch/internal/auth"
	"github.com/rickgao/quotewatch/internal/version"
)

// APIError represents a non-200 response from Finnhub.
type APIError struct {
	StatusCode int
	Message    string
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("finnhub api error %d: %s", e.StatusCode, e.Message)
}

// IsRetryable returns true if waiting and asking again can succeed.
func (e *APIError) IsRetryable() bool {
	return e.StatusCode != http.StatusUnauthorized
}

// response is a fully read HTTP response.
type response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// apiError converts a response into an APIError.
func (r *response) apiError(message string) *APIError {
	if message == "" {
		message = http.StatusText(r.StatusCode)
	}
	return &APIError{
		StatusCode: r.StatusCode,
		Message:    message,
		Body:       r.Body,
	}
}

// doRequest performs one HTTP round trip. Any status code is returned as a
// response; only transport and read failures produce an error.
func (c *Client) doRequest(ctx context.Context, method, path string, query url.Values) (*response, error) {
	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", redactURL(err, c.apiKey))
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", redactURL(err, c.apiKey))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	return &response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}

// redactURL masks the API key inside *url.Error messages, which embed the
// full request URL.
func redactURL(err error, key auth.APIKey) error {
	if key == "" {
		return err
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = strings.ReplaceAll(urlErr.URL, url.QueryEscape(key.Reveal()), key.Redacted())
	}
	return err
}
