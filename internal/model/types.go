package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// -----------------------------------------------------------------------------
// Quote
// -----------------------------------------------------------------------------

// Quote is a point-in-time price snapshot for one symbol.
//
// Quote values are immutable once constructed. Methods that change a field
// return a copy.
type Quote struct {
	Symbol        string          // Normalized ticker (e.g., "AAPL")
	Current       decimal.Decimal // Current price ("c")
	Change        decimal.Decimal // Absolute change vs previous close ("d")
	PercentChange decimal.Decimal // Raw percentage, 2.34 = 2.34% ("dp")
	High          decimal.Decimal // Day high ("h")
	Low           decimal.Decimal // Day low ("l")
	Open          decimal.Decimal // Day open ("o")
	PreviousClose decimal.Decimal // Previous close ("pc")
	Timestamp     int64           // Provider timestamp, seconds since epoch ("t")
	FetchedAt     time.Time       // When this process received the quote
}

// WithFetchedAt returns a copy of q stamped with the given fetch time.
func (q Quote) WithFetchedAt(t time.Time) Quote {
	q.FetchedAt = t
	return q
}

// ProviderTime returns the provider timestamp as a time.Time, or the zero
// time if the provider did not supply one.
func (q Quote) ProviderTime() time.Time {
	if q.Timestamp == 0 {
		return time.Time{}
	}
	return time.Unix(q.Timestamp, 0)
}

// Equal reports whether two quotes carry the same values.
// Decimal fields are compared numerically.
func (q Quote) Equal(o Quote) bool {
	return q.Symbol == o.Symbol &&
		q.Current.Equal(o.Current) &&
		q.Change.Equal(o.Change) &&
		q.PercentChange.Equal(o.PercentChange) &&
		q.High.Equal(o.High) &&
		q.Low.Equal(o.Low) &&
		q.Open.Equal(o.Open) &&
		q.PreviousClose.Equal(o.PreviousClose) &&
		q.Timestamp == o.Timestamp &&
		q.FetchedAt.Equal(o.FetchedAt)
}

// -----------------------------------------------------------------------------
// Fetch Outcomes
// -----------------------------------------------------------------------------

// OutcomeKind tags a FetchOutcome.
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota // Quote is valid
	OutcomeNoData                     // Provider answered but had nothing usable
	OutcomeFailed                     // Retries exhausted, fatal error, or cancelled
)

func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeNoData:
		return "no_data"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FetchOutcome is the terminal result of fetching one symbol in one cycle.
type FetchOutcome struct {
	Kind     OutcomeKind
	Symbol   string
	Quote    Quote  // Set only for OutcomeSuccess
	Reason   string // Set only for OutcomeFailed
	Attempts int    // Number of requests issued
}

// Success builds a successful outcome.
func Success(q Quote, attempts int) FetchOutcome {
	return FetchOutcome{Kind: OutcomeSuccess, Symbol: q.Symbol, Quote: q, Attempts: attempts}
}

// NoData builds a no-data outcome.
func NoData(symbol string, attempts int) FetchOutcome {
	return FetchOutcome{Kind: OutcomeNoData, Symbol: symbol, Attempts: attempts}
}

// Failed builds a failed outcome with a human-readable reason.
func Failed(symbol, reason string, attempts int) FetchOutcome {
	return FetchOutcome{Kind: OutcomeFailed, Symbol: symbol, Reason: reason, Attempts: attempts}
}

// OK reports whether the outcome carries a quote.
func (o FetchOutcome) OK() bool {
	return o.Kind == OutcomeSuccess
}
