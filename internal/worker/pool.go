// Package worker provides a bounded pool for running quote requests.
package worker

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// DefaultSize is the number of concurrent requests when none is configured.
const DefaultSize = 8

// Pool limits how many tasks run at once. A task waiting for a slot holds
// no slot, and a cancelled wait returns without running the task.
type Pool struct {
	sem  *semaphore.Weighted
	size int

	wg     sync.WaitGroup
	active atomic.Int64
	done   atomic.Int64
}

// NewPool creates a pool with size slots.
func NewPool(size int) *Pool {
	if size <= 0 {
		size = DefaultSize
	}
	return &Pool{
		sem:  semaphore.NewWeighted(int64(size)),
		size: size,
	}
}

// Do waits for a free slot, runs task on the calling goroutine and releases
// the slot. It returns ctx's error without running task if ctx ends first.
func (p *Pool) Do(ctx context.Context, task func(context.Context)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := p.sem.Acquire(ctx, 1); err != nil {
		return err
	}

	p.wg.Add(1)
	p.active.Add(1)
	defer func() {
		p.active.Add(-1)
		p.done.Add(1)
		p.sem.Release(1)
		p.wg.Done()
	}()

	task(ctx)
	return nil
}

// Go runs Do on a new goroutine. If the slot wait is cancelled, onCancel
// receives the context error instead.
func (p *Pool) Go(ctx context.Context, task func(context.Context), onCancel func(error)) {
	go func() {
		if err := p.Do(ctx, task); err != nil && onCancel != nil {
			onCancel(err)
		}
	}()
}

// Size returns the slot count.
func (p *Pool) Size() int {
	return p.size
}

// Active returns the number of tasks currently running.
func (p *Pool) Active() int {
	return int(p.active.Load())
}

// Completed returns the number of tasks that have run to completion.
func (p *Pool) Completed() int64 {
	return p.done.Load()
}

// Wait blocks until every running task has returned.
func (p *Pool) Wait() {
	p.wg.Wait()
}
