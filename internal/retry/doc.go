// Package retry drives single quote requests through bounded retries.
//
// A Runner moves each symbol through a small state machine:
//
//	Attempting(n) -> Done(Success | NoData)
//	Attempting(n) -> Done(Failed)
//	Attempting(n) -> Waiting(delay) -> Attempting(n+1)
//
// Requests run on a worker.Pool. Waits between attempts are timers on a
// Scheduler, so no goroutine or pool slot is held while a symbol backs off.
// Every Start call reports exactly one terminal model.FetchOutcome.
package retry
