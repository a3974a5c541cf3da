package api

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestParseQuote(t *testing.T) {
	fetchedAt := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	t.Run("full payload", func(t *testing.T) {
		body := []byte(`{"c":189.84,"d":4.34,"dp":2.34,"h":190.5,"l":185.1,"o":186,"pc":185.5,"t":1705321845}`)

		q, err := ParseQuote("AAPL", body, fetchedAt)
		if err != nil {
			t.Fatalf("ParseQuote failed: %v", err)
		}

		checks := []struct {
			name string
			got  decimal.Decimal
			want string
		}{
			{"Current", q.Current, "189.84"},
			{"Change", q.Change, "4.34"},
			{"PercentChange", q.PercentChange, "2.34"},
			{"High", q.High, "190.5"},
			{"Low", q.Low, "185.1"},
			{"Open", q.Open, "186"},
			{"PreviousClose", q.PreviousClose, "185.5"},
		}
		for _, c := range checks {
			if !c.got.Equal(decimal.RequireFromString(c.want)) {
				t.Errorf("%s = %s, want %s", c.name, c.got, c.want)
			}
		}
		if q.Symbol != "AAPL" {
			t.Errorf("Symbol = %q, want %q", q.Symbol, "AAPL")
		}
		if q.Timestamp != 1705321845 {
			t.Errorf("Timestamp = %d, want %d", q.Timestamp, 1705321845)
		}
		if !q.FetchedAt.Equal(fetchedAt) {
			t.Errorf("FetchedAt = %v, want %v", q.FetchedAt, fetchedAt)
		}
	})

	t.Run("decimal is exact", func(t *testing.T) {
		q, err := ParseQuote("X", []byte(`{"c":0.1,"d":0.2,"dp":0.3}`), fetchedAt)
		if err != nil {
			t.Fatalf("ParseQuote failed: %v", err)
		}
		if got := q.Current.Add(q.Change).String(); got != "0.3" {
			t.Errorf("0.1 + 0.2 = %s, want 0.3", got)
		}
	})

	t.Run("optional fields default to zero", func(t *testing.T) {
		q, err := ParseQuote("MSFT", []byte(`{"c":400.1,"d":null,"h":null,"t":null}`), fetchedAt)
		if err != nil {
			t.Fatalf("ParseQuote failed: %v", err)
		}
		if !q.Change.IsZero() || !q.PercentChange.IsZero() || !q.High.IsZero() || !q.Low.IsZero() {
			t.Errorf("optional fields not zero: %+v", q)
		}
		if q.Timestamp != 0 {
			t.Errorf("Timestamp = %d, want 0", q.Timestamp)
		}
	})

	t.Run("fractional timestamp", func(t *testing.T) {
		q, err := ParseQuote("MSFT", []byte(`{"c":1,"t":1705321845.7}`), fetchedAt)
		if err != nil {
			t.Fatalf("ParseQuote failed: %v", err)
		}
		if q.Timestamp != 1705321845 {
			t.Errorf("Timestamp = %d, want %d", q.Timestamp, 1705321845)
		}
	})

	noData := []struct {
		name      string
		body      string
		malformed bool
	}{
		{"empty body", "", false},
		{"whitespace body", "  \n", false},
		{"empty object", "{}", false},
		{"null current", `{"c":null,"d":1}`, false},
		{"zero current", `{"c":0,"d":0,"dp":0}`, false},
		{"zero current decimal", `{"c":0.00}`, false},
		{"not json", "<html>oops</html>", true},
		{"truncated", `{"c":12.`, true},
		{"non-numeric price", `{"c":"abc"}`, true},
	}

	for _, tt := range noData {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseQuote("XYZ", []byte(tt.body), fetchedAt)
			if !errors.Is(err, ErrNoData) {
				t.Fatalf("err = %v, want ErrNoData", err)
			}
			if got := errors.Is(err, ErrMalformed); got != tt.malformed {
				t.Errorf("errors.Is(err, ErrMalformed) = %v, want %v", got, tt.malformed)
			}
		})
	}
}
