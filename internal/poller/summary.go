package poller

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rickgao/quotewatch/internal/model"
)

// Summary reports one refresh cycle.
type Summary struct {
	CycleID       uuid.UUID     `json:"cycle_id"`
	Started       time.Time     `json:"started"`
	Duration      time.Duration `json:"duration_ns"`
	Symbols       int           `json:"symbols"`
	Succeeded     int           `json:"succeeded"`
	NoData        int           `json:"no_data"`
	Failed        int           `json:"failed"`
	FailedSymbols []string      `json:"failed_symbols,omitempty"` // NoData and Failed, sorted
	Skipped       []string      `json:"skipped,omitempty"`        // Still in flight from an earlier cycle
	Pending       []string      `json:"pending,omitempty"`        // No outcome when the summary was taken
	TimedOut      bool          `json:"timed_out"`
	Cancelled     bool          `json:"cancelled"`
}

// Empty reports whether the cycle had nothing to refresh.
func (s Summary) Empty() bool {
	return s.Symbols == 0
}

// String renders a one-line status.
func (s Summary) String() string {
	if s.Empty() {
		return "Nothing to refresh"
	}

	if s.Succeeded == s.Symbols {
		return fmt.Sprintf("Updated %d symbols", s.Symbols)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Updated %d/%d symbols", s.Succeeded, s.Symbols)
	if len(s.FailedSymbols) > 0 {
		b.WriteString("; failed: ")
		b.WriteString(strings.Join(s.FailedSymbols, ", "))
	}
	if len(s.Pending) > 0 {
		b.WriteString("; pending: ")
		b.WriteString(strings.Join(s.Pending, ", "))
	}
	if len(s.Skipped) > 0 {
		b.WriteString("; skipped: ")
		b.WriteString(strings.Join(s.Skipped, ", "))
	}
	return b.String()
}

// tally collects outcomes for one cycle. Outcomes recorded after finalize
// are reported as late and not counted.
type tally struct {
	mu      sync.Mutex
	final   bool
	pending map[string]struct{}

	succeeded int
	noData    int
	failed    int
	failedSet []string
}

func newTally() *tally {
	return &tally{pending: make(map[string]struct{})}
}

func (t *tally) expect(symbol string) {
	t.mu.Lock()
	t.pending[symbol] = struct{}{}
	t.mu.Unlock()
}

// record counts o and reports whether it arrived after finalize.
func (t *tally) record(o model.FetchOutcome) (late bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.final {
		return true
	}

	delete(t.pending, o.Symbol)
	switch o.Kind {
	case model.OutcomeSuccess:
		t.succeeded++
	case model.OutcomeNoData:
		t.noData++
		t.failedSet = append(t.failedSet, o.Symbol)
	default:
		t.failed++
		t.failedSet = append(t.failedSet, o.Symbol)
	}
	return false
}

// finalize copies the counts into s and closes the tally.
func (t *tally) finalize(s *Summary) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.final = true
	s.Succeeded = t.succeeded
	s.NoData = t.noData
	s.Failed = t.failed
	s.FailedSymbols = slices.Sorted(slices.Values(t.failedSet))
	for sym := range t.pending {
		s.Pending = append(s.Pending, sym)
	}
	slices.Sort(s.Pending)
}
