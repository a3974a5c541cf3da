// Package poller implements the refresh orchestrator.
//
// The Poller:
//   - Reads the watchlist at the start of every cycle
//   - Starts one retrying fetch per symbol, never two for the same symbol
//   - Writes each successful quote to the cache as soon as it lands
//   - Summarizes the cycle when every fetch has finished or the refresh
//     interval elapses, whichever comes first
//   - Applies results that land after the summary without counting them
//   - Fetches newly added symbols immediately and evicts removed ones
package poller
