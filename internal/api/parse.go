package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/quotewatch/internal/model"
)

var (
	// ErrNoData means the provider answered but had no usable quote.
	ErrNoData = errors.New("no quote data")

	// ErrMalformed means the body could not be decoded. It wraps ErrNoData
	// because a fixed malformed payload never becomes valid on retry.
	ErrMalformed = fmt.Errorf("%w: malformed response", ErrNoData)
)

// quoteResponse is the /quote payload. Every field may be absent or null.
type quoteResponse struct {
	Current       decimal.NullDecimal `json:"c"`
	Change        decimal.NullDecimal `json:"d"`
	PercentChange decimal.NullDecimal `json:"dp"`
	High          decimal.NullDecimal `json:"h"`
	Low           decimal.NullDecimal `json:"l"`
	Open          decimal.NullDecimal `json:"o"`
	PreviousClose decimal.NullDecimal `json:"pc"`
	Timestamp     *json.Number        `json:"t"`
}

// ParseQuote turns a /quote response body into a Quote.
//
// It returns an error wrapping ErrNoData when the body is empty, when "c" is
// missing, null or zero, or when the body is not valid JSON. A real
// instrument priced at exactly zero is indistinguishable from an unknown
// symbol and is also reported as no data.
func ParseQuote(symbol string, body []byte, fetchedAt time.Time) (model.Quote, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return model.Quote{}, ErrNoData
	}

	var resp quoteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return model.Quote{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	if !resp.Current.Valid || resp.Current.Decimal.IsZero() {
		return model.Quote{}, ErrNoData
	}

	ts, err := parseTimestamp(resp.Timestamp)
	if err != nil {
		return model.Quote{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	return model.Quote{
		Symbol:        symbol,
		Current:       resp.Current.Decimal,
		Change:        orZero(resp.Change),
		PercentChange: orZero(resp.PercentChange),
		High:          orZero(resp.High),
		Low:           orZero(resp.Low),
		Open:          orZero(resp.Open),
		PreviousClose: orZero(resp.PreviousClose),
		Timestamp:     ts,
		FetchedAt:     fetchedAt,
	}, nil
}

func orZero(d decimal.NullDecimal) decimal.Decimal {
	if !d.Valid {
		return decimal.Zero
	}
	return d.Decimal
}

// parseTimestamp accepts integer or fractional seconds.
func parseTimestamp(n *json.Number) (int64, error) {
	if n == nil {
		return 0, nil
	}
	if i, err := n.Int64(); err == nil {
		return i, nil
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return 0, fmt.Errorf("timestamp %q: %w", n.String(), err)
	}
	return d.IntPart(), nil
}
