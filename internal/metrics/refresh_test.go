package metrics

import (
	"testing"
	"time"

	"github.com/rickgao/quotewatch/internal/api"
	"github.com/rickgao/quotewatch/internal/model"
)

func TestRefresh_Counters(t *testing.T) {
	r := NewRefresh()
	at := time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

	r.ObserveCycle(at, 2*time.Second, false, 0)
	r.ObserveCycle(at.Add(time.Minute), 15*time.Second, true, 2)
	r.ObserveOutcome(model.OutcomeSuccess, false)
	r.ObserveOutcome(model.OutcomeSuccess, true)
	r.ObserveOutcome(model.OutcomeNoData, false)
	r.ObserveOutcome(model.OutcomeFailed, false)
	r.ObserveRetry(api.StatusTransient)
	r.ObserveRetry(api.StatusRateLimited)

	s := r.Snapshot()

	checks := []struct {
		name string
		got  int64
		want int64
	}{
		{"Cycles", s.Cycles, 2},
		{"TimedOut", s.TimedOut, 1},
		{"Skipped", s.Skipped, 2},
		{"LateOutcomes", s.LateOutcomes, 1},
		{"Succeeded", s.Succeeded, 2},
		{"NoData", s.NoData, 1},
		{"Failed", s.Failed, 1},
		{"Retries", s.Retries, 2},
		{"RateLimited", s.RateLimited, 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s = %d, want %d", c.name, c.got, c.want)
		}
	}

	if s.LastDuration != 15*time.Second {
		t.Errorf("LastDuration = %v, want 15s", s.LastDuration)
	}
	if !s.LastCycleTime.Equal(at.Add(time.Minute)) {
		t.Errorf("LastCycleTime = %v, want %v", s.LastCycleTime, at.Add(time.Minute))
	}
}

func TestRefresh_Nil(t *testing.T) {
	var r *Refresh
	r.ObserveCycle(time.Now(), time.Second, true, 1)
	r.ObserveOutcome(model.OutcomeFailed, true)
	r.ObserveRetry(api.StatusTransient)

	if s := r.Snapshot(); s.Cycles != 0 {
		t.Errorf("nil Snapshot().Cycles = %d, want 0", s.Cycles)
	}
}
