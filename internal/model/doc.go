// Package model defines shared data types used across quotewatch.
//
// Conventions:
//   - Prices, changes and percentages: decimal.Decimal, never float64
//   - Percent change is a raw percentage (2.34 means 2.34%)
//   - Provider timestamps: int64 seconds since Unix epoch (0 when absent)
//   - Fetch timestamps: time.Time in local process time
//   - Symbols: normalized uppercase tickers (e.g., "AAPL", "BRK.B")
package model
