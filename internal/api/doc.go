// Package api provides the Finnhub quote client.
//
// REST endpoint:
//   - Production: https://finnhub.io/api/v1
//
// The client performs exactly one request per FetchQuote call and classifies
// the response. Retries and backoff belong to package retry.
//
// Response fields consumed from /quote:
//
//	c   current price
//	d   change
//	dp  percent change
//	h   day high
//	l   day low
//	o   day open
//	pc  previous close
//	t   provider timestamp (seconds)
package api
