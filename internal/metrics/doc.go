// Package metrics keeps cumulative refresh counters for monitoring.
//
// Key metrics:
//   - Refresh cycles run, timed out and skipped symbols
//   - Terminal outcomes by kind
//   - Scheduled retries by failure class
//   - Outcomes that landed after their cycle was summarized
package metrics
