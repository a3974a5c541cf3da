package metrics

import (
	"sync/atomic"
	"time"

	"github.com/rickgao/quotewatch/internal/api"
	"github.com/rickgao/quotewatch/internal/model"
)

// Refresh holds counters for the refresh path. A nil *Refresh discards
// every observation.
type Refresh struct {
	cycles      atomic.Int64
	timedOut    atomic.Int64
	skipped     atomic.Int64
	late        atomic.Int64
	succeeded   atomic.Int64
	noData      atomic.Int64
	failed      atomic.Int64
	retries     atomic.Int64
	rateLimited atomic.Int64
	lastCycleNs atomic.Int64
	lastCycleAt atomic.Int64
}

// RefreshSnapshot is a point-in-time copy of the counters.
type RefreshSnapshot struct {
	Cycles        int64         `json:"cycles"`
	TimedOut      int64         `json:"timed_out"`
	Skipped       int64         `json:"skipped"`
	LateOutcomes  int64         `json:"late_outcomes"`
	Succeeded     int64         `json:"succeeded"`
	NoData        int64         `json:"no_data"`
	Failed        int64         `json:"failed"`
	Retries       int64         `json:"retries"`
	RateLimited   int64         `json:"rate_limited"`
	LastDuration  time.Duration `json:"last_cycle_duration_ns"`
	LastCycleTime time.Time     `json:"last_cycle_at"`
}

// NewRefresh creates a counter set.
func NewRefresh() *Refresh {
	return &Refresh{}
}

// ObserveCycle records a finished cycle.
func (r *Refresh) ObserveCycle(at time.Time, d time.Duration, timedOut bool, skipped int) {
	if r == nil {
		return
	}
	r.cycles.Add(1)
	r.skipped.Add(int64(skipped))
	if timedOut {
		r.timedOut.Add(1)
	}
	r.lastCycleNs.Store(int64(d))
	r.lastCycleAt.Store(at.UnixNano())
}

// ObserveOutcome records a terminal outcome. late marks outcomes that
// arrived after their cycle's summary was final.
func (r *Refresh) ObserveOutcome(kind model.OutcomeKind, late bool) {
	if r == nil {
		return
	}
	switch kind {
	case model.OutcomeSuccess:
		r.succeeded.Add(1)
	case model.OutcomeNoData:
		r.noData.Add(1)
	default:
		r.failed.Add(1)
	}
	if late {
		r.late.Add(1)
	}
}

// ObserveRetry records a scheduled retry.
func (r *Refresh) ObserveRetry(failure api.Status) {
	if r == nil {
		return
	}
	r.retries.Add(1)
	if failure == api.StatusRateLimited {
		r.rateLimited.Add(1)
	}
}

// Snapshot returns the current counter values.
func (r *Refresh) Snapshot() RefreshSnapshot {
	if r == nil {
		return RefreshSnapshot{}
	}
	s := RefreshSnapshot{
		Cycles:       r.cycles.Load(),
		TimedOut:     r.timedOut.Load(),
		Skipped:      r.skipped.Load(),
		LateOutcomes: r.late.Load(),
		Succeeded:    r.succeeded.Load(),
		NoData:       r.noData.Load(),
		Failed:       r.failed.Load(),
		Retries:      r.retries.Load(),
		RateLimited:  r.rateLimited.Load(),
		LastDuration: time.Duration(r.lastCycleNs.Load()),
	}
	if ns := r.lastCycleAt.Load(); ns != 0 {
		s.LastCycleTime = time.Unix(0, ns)
	}
	return s
}
