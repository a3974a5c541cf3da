// Package format renders quotes for display. All arithmetic stays in
// decimal; rounding is half-to-even at two places.
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rickgao/quotewatch/internal/model"
)

// TimestampLayout is the display layout for quote times.
const TimestampLayout = "2006-01-02 15:04:05"

// Price renders d as #,##0.00. A negative d keeps its minus sign even when
// it rounds to zero.
func Price(d decimal.Decimal) string {
	s := grouped(d.Abs())
	if d.Sign() < 0 {
		return "-" + s
	}
	return s
}

// Change renders d with an explicit sign: +1,234.50 or -0.50. Zero is +0.00.
func Change(d decimal.Decimal) string {
	return sign(d) + grouped(d.Abs())
}

// Percent renders a raw percentage: 2.34 becomes +2.34%, -1.56 becomes
// -1.56% and 0 becomes +0.00%. -0.001 renders as -0.00%.
func Percent(d decimal.Decimal) string {
	return sign(d) + d.Abs().StringFixedBank(2) + "%"
}

// Timestamp renders t in local time as yyyy-MM-dd HH:mm:ss.
func Timestamp(t time.Time) string {
	return t.Local().Format(TimestampLayout)
}

// QuoteTime returns the provider time of q, or its fetch time when the
// provider sent none.
func QuoteTime(q model.Quote) time.Time {
	if t := q.ProviderTime(); !t.IsZero() {
		return t
	}
	return q.FetchedAt
}

// IsUp reports whether the price rose.
func IsUp(q model.Quote) bool {
	return q.Change.Sign() > 0
}

// IsDown reports whether the price fell.
func IsDown(q model.Quote) bool {
	return q.Change.Sign() < 0
}

// Line renders "SYM: price (change, percent)".
func Line(q model.Quote) string {
	return fmt.Sprintf("%s: %s (%s, %s)", q.Symbol, Price(q.Current), Change(q.Change), Percent(q.PercentChange))
}

// IsStale reports whether q was fetched more than maxAge before now.
func IsStale(q model.Quote, maxAge time.Duration, now time.Time) bool {
	return q.FetchedAt.Before(now.Add(-maxAge))
}

// sign follows the unrounded value, so small losses render as -0.00.
func sign(d decimal.Decimal) string {
	if d.Sign() < 0 {
		return "-"
	}
	return "+"
}

// grouped renders a non-negative d with two decimals and comma thousands
// separators.
func grouped(d decimal.Decimal) string {
	s := d.StringFixedBank(2)
	intPart, frac, _ := strings.Cut(s, ".")

	if len(intPart) <= 3 {
		return s
	}

	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}
