package retry

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSchedulerClosed is passed to continuations that were pending when the
// scheduler was closed.
var ErrSchedulerClosed = errors.New("retry scheduler closed")

// AfterFunc matches time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) *time.Timer

// Scheduler runs deferred continuations on timers. It tracks every pending
// timer so cancellation and Close leave nothing behind.
type Scheduler struct {
	mu        sync.Mutex
	pending   map[uint64]*pendingTimer
	nextID    uint64
	closed    bool
	afterFunc AfterFunc
}

type pendingTimer struct {
	timer   *time.Timer
	stopCtx func() bool
	fn      func(error)
}

// NewScheduler creates a scheduler backed by time.AfterFunc.
func NewScheduler() *Scheduler {
	return NewSchedulerWithTimer(time.AfterFunc)
}

// NewSchedulerWithTimer creates a scheduler that arms timers with af.
func NewSchedulerWithTimer(af AfterFunc) *Scheduler {
	return &Scheduler{
		pending:   make(map[uint64]*pendingTimer),
		afterFunc: af,
	}
}

// Schedule calls fn once after d. fn receives nil when the timer fires,
// ctx.Err() if ctx ends first, or ErrSchedulerClosed if the scheduler is
// closed first. If ctx is already done or the scheduler already closed, fn
// runs on the calling goroutine.
func (s *Scheduler) Schedule(ctx context.Context, d time.Duration, fn func(error)) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		fn(ErrSchedulerClosed)
		return
	}
	if err := ctx.Err(); err != nil {
		s.mu.Unlock()
		fn(err)
		return
	}

	id := s.nextID
	s.nextID++

	p := &pendingTimer{fn: fn}
	s.pending[id] = p
	p.timer = s.afterFunc(d, func() { s.fire(id, nil) })
	p.stopCtx = context.AfterFunc(ctx, func() { s.fire(id, ctx.Err()) })
	s.mu.Unlock()
}

// fire completes pending timer id. Only the first call for an id runs fn.
func (s *Scheduler) fire(id uint64, err error) {
	s.mu.Lock()
	p, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	s.mu.Unlock()

	if !ok {
		return
	}

	p.timer.Stop()
	p.stopCtx()
	p.fn(err)
}

// Pending returns the number of armed timers.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Close stops every pending timer and delivers ErrSchedulerClosed to its
// continuation. Later Schedule calls fail immediately.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	pending := s.pending
	s.pending = make(map[uint64]*pendingTimer)
	s.mu.Unlock()

	for _, p := range pending {
		p.timer.Stop()
		p.stopCtx()
		p.fn(ErrSchedulerClosed)
	}
}
