package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestPool_LimitsConcurrency(t *testing.T) {
	p := NewPool(3)

	var current, maxSeen atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 12; i++ {
		wg.Add(1)
		p.Go(context.Background(), func(ctx context.Context) {
			defer wg.Done()
			n := current.Add(1)
			for {
				old := maxSeen.Load()
				if n <= old || maxSeen.CompareAndSwap(old, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			current.Add(-1)
		}, nil)
	}

	wg.Wait()
	p.Wait()

	if maxSeen.Load() > 3 {
		t.Errorf("max concurrent = %d, want <= 3", maxSeen.Load())
	}
	if p.Completed() != 12 {
		t.Errorf("Completed() = %d, want 12", p.Completed())
	}
	if p.Active() != 0 {
		t.Errorf("Active() = %d, want 0", p.Active())
	}
}

func TestPool_CancelledWaitDoesNotRun(t *testing.T) {
	p := NewPool(1)

	release := make(chan struct{})
	started := make(chan struct{})
	go p.Do(context.Background(), func(ctx context.Context) {
		close(started)
		<-release
	})
	<-started

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	var ran atomic.Bool
	p.Go(ctx, func(ctx context.Context) { ran.Store(true) }, func(err error) { errCh <- err })

	cancel()

	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("cancelled task was never rejected")
	}

	close(release)
	p.Wait()

	if ran.Load() {
		t.Error("task ran after its wait was cancelled")
	}
}

func TestPool_DoneContext(t *testing.T) {
	p := NewPool(2)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := p.Do(ctx, func(ctx context.Context) { t.Error("task should not run") })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestNewPool_DefaultSize(t *testing.T) {
	if got := NewPool(0).Size(); got != DefaultSize {
		t.Errorf("Size() = %d, want %d", got, DefaultSize)
	}
}
