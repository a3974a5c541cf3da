package format

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/quotewatch/internal/model"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestPercent(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2.34", "+2.34%"},
		{"-1.56", "-1.56%"},
		{"0", "+0.00%"},
		{"0.5", "+0.50%"},
		{"12.345", "+12.34%"}, // half to even
		{"12.355", "+12.36%"},
		{"-0.001", "-0.00%"},
		{"0.001", "+0.00%"},
		{"-0.005", "-0.00%"},
		{"150", "+150.00%"},
	}

	for _, tt := range tests {
		if got := Percent(dec(tt.in)); got != tt.want {
			t.Errorf("Percent(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPrice(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0.00"},
		{"189.84", "189.84"},
		{"1234.5", "1,234.50"},
		{"999.999", "1,000.00"},
		{"1234567.891", "1,234,567.89"},
		{"123456", "123,456.00"},
		{"-1234.5", "-1,234.50"},
		{"0.004", "0.00"},
		{"-0.004", "-0.00"},
	}

	for _, tt := range tests {
		if got := Price(dec(tt.in)); got != tt.want {
			t.Errorf("Price(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestChange(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"4.34", "+4.34"},
		{"-0.5", "-0.50"},
		{"0", "+0.00"},
		{"1500.1", "+1,500.10"},
		{"-2500", "-2,500.00"},
		{"-0.001", "-0.00"},
	}

	for _, tt := range tests {
		if got := Change(dec(tt.in)); got != tt.want {
			t.Errorf("Change(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTimestamp(t *testing.T) {
	ts := time.Date(2024, 1, 15, 9, 5, 3, 0, time.Local)
	if got := Timestamp(ts); got != "2024-01-15 09:05:03" {
		t.Errorf("Timestamp() = %q, want %q", got, "2024-01-15 09:05:03")
	}
}

func TestQuoteHelpers(t *testing.T) {
	fetched := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	up := model.Quote{
		Symbol:        "AAPL",
		Current:       dec("1189.84"),
		Change:        dec("4.34"),
		PercentChange: dec("2.34"),
		FetchedAt:     fetched,
	}
	down := model.Quote{Symbol: "TSLA", Change: dec("-1"), Timestamp: 1705321845}
	flat := model.Quote{Symbol: "MSFT", Change: decimal.Zero}

	if !IsUp(up) || IsDown(up) {
		t.Error("up quote misclassified")
	}
	if IsUp(down) || !IsDown(down) {
		t.Error("down quote misclassified")
	}
	if IsUp(flat) || IsDown(flat) {
		t.Error("flat quote misclassified")
	}

	if got := Line(up); got != "AAPL: 1,189.84 (+4.34, +2.34%)" {
		t.Errorf("Line() = %q", got)
	}

	if got := QuoteTime(up); !got.Equal(fetched) {
		t.Errorf("QuoteTime() without provider time = %v, want %v", got, fetched)
	}
	if got := QuoteTime(down); got.Unix() != 1705321845 {
		t.Errorf("QuoteTime() = %v, want provider time", got)
	}
}

func TestIsStale(t *testing.T) {
	now := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)
	q := model.Quote{FetchedAt: now.Add(-10 * time.Minute)}

	if !IsStale(q, 5*time.Minute, now) {
		t.Error("10-minute-old quote should be stale at 5m")
	}
	if IsStale(q, 15*time.Minute, now) {
		t.Error("10-minute-old quote should be fresh at 15m")
	}
}
