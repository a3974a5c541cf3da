package model

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestQuote(t *testing.T) {
	q := Quote{
		Symbol:        "AAPL",
		Current:       decimal.RequireFromString("189.84"),
		Change:        decimal.RequireFromString("4.34"),
		PercentChange: decimal.RequireFromString("2.34"),
		Timestamp:     1705321845,
	}

	t.Run("WithFetchedAt returns copy", func(t *testing.T) {
		at := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
		q2 := q.WithFetchedAt(at)

		if !q.FetchedAt.IsZero() {
			t.Errorf("original FetchedAt = %v, want zero", q.FetchedAt)
		}
		if !q2.FetchedAt.Equal(at) {
			t.Errorf("FetchedAt = %v, want %v", q2.FetchedAt, at)
		}
		if !q2.Current.Equal(q.Current) {
			t.Errorf("Current = %s, want %s", q2.Current, q.Current)
		}
	})

	t.Run("ProviderTime", func(t *testing.T) {
		if got := q.ProviderTime().Unix(); got != 1705321845 {
			t.Errorf("ProviderTime().Unix() = %d, want %d", got, 1705321845)
		}
		if got := (Quote{}).ProviderTime(); !got.IsZero() {
			t.Errorf("ProviderTime() = %v, want zero", got)
		}
	})

	t.Run("Equal compares numerically", func(t *testing.T) {
		other := q
		other.Current = decimal.RequireFromString("189.840")
		if !q.Equal(other) {
			t.Error("Equal() = false for 189.84 vs 189.840")
		}
		other.Current = decimal.RequireFromString("189.85")
		if q.Equal(other) {
			t.Error("Equal() = true for different prices")
		}
	})
}

func TestFetchOutcome(t *testing.T) {
	q := Quote{Symbol: "MSFT", Current: decimal.NewFromInt(400)}

	tests := []struct {
		name     string
		outcome  FetchOutcome
		kind     OutcomeKind
		symbol   string
		ok       bool
		kindName string
	}{
		{"success", Success(q, 1), OutcomeSuccess, "MSFT", true, "success"},
		{"no data", NoData("XYZ", 1), OutcomeNoData, "XYZ", false, "no_data"},
		{"failed", Failed("AAPL", "max attempts reached", 3), OutcomeFailed, "AAPL", false, "failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.outcome.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.outcome.Kind, tt.kind)
			}
			if tt.outcome.Symbol != tt.symbol {
				t.Errorf("Symbol = %q, want %q", tt.outcome.Symbol, tt.symbol)
			}
			if tt.outcome.OK() != tt.ok {
				t.Errorf("OK() = %v, want %v", tt.outcome.OK(), tt.ok)
			}
			if tt.outcome.Kind.String() != tt.kindName {
				t.Errorf("String() = %q, want %q", tt.outcome.Kind.String(), tt.kindName)
			}
		})
	}
}
