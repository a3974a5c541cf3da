package buffer

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestQueue_FIFO(t *testing.T) {
	q := NewQueue[int](2)

	for i := 0; i < 10; i++ {
		if !q.Send(i) {
			t.Fatalf("Send(%d) returned false", i)
		}
	}

	if q.Len() != 10 {
		t.Errorf("Len() = %d, want 10", q.Len())
	}
	if st := q.Stats(); st.Capacity < 10 {
		t.Errorf("Capacity = %d, want >= 10", st.Capacity)
	}

	for i := 0; i < 10; i++ {
		v, ok := q.TryReceive()
		if !ok {
			t.Fatalf("TryReceive() returned false for item %d", i)
		}
		if v != i {
			t.Errorf("received %d, want %d", v, i)
		}
	}

	if _, ok := q.TryReceive(); ok {
		t.Error("TryReceive() on empty queue returned true")
	}
}

func TestQueue_GrowWrapped(t *testing.T) {
	q := NewQueue[int](4)

	// Move head forward so the ring wraps before growing.
	q.Send(0)
	q.Send(1)
	q.TryReceive()
	q.TryReceive()

	for i := 2; i < 9; i++ {
		q.Send(i)
	}

	got := q.Drain(0)
	if len(got) != 7 {
		t.Fatalf("Drain() returned %d items, want 7", len(got))
	}
	for i, v := range got {
		if v != i+2 {
			t.Errorf("Drain()[%d] = %d, want %d", i, v, i+2)
		}
	}
}

func TestQueue_Limited(t *testing.T) {
	q := NewLimitedQueue[int](2, 3)
	for i := 0; i < 5; i++ {
		q.Send(i)
	}

	got := q.Drain(0)
	want := []int{2, 3, 4}
	if len(got) != len(want) {
		t.Fatalf("Drain() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Drain()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
	if st := q.Stats(); st.Dropped != 2 {
		t.Errorf("Dropped = %d, want 2", st.Dropped)
	}
}

func TestQueue_DrainMax(t *testing.T) {
	q := NewQueue[string](4)
	q.Send("a")
	q.Send("b")
	q.Send("c")

	if got := q.Drain(2); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Drain(2) = %v, want [a b]", got)
	}
	if q.Len() != 1 {
		t.Errorf("Len() = %d, want 1", q.Len())
	}
}

func TestQueue_ReceiveBlocks(t *testing.T) {
	q := NewQueue[int](1)

	got := make(chan int, 1)
	go func() {
		v, ok := q.Receive(context.Background())
		if ok {
			got <- v
		}
	}()

	time.Sleep(20 * time.Millisecond)
	q.Send(42)

	select {
	case v := <-got:
		if v != 42 {
			t.Errorf("Receive() = %d, want 42", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Receive() did not wake on Send")
	}
}

func TestQueue_ReceiveContext(t *testing.T) {
	q := NewQueue[int](1)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, ok := q.Receive(ctx); ok {
		t.Error("Receive() on empty queue returned ok after ctx timeout")
	}
}

func TestQueue_Close(t *testing.T) {
	q := NewQueue[int](4)
	q.Send(1)
	q.Close()

	if q.Send(2) {
		t.Error("Send after Close returned true")
	}

	v, ok := q.Receive(context.Background())
	if !ok || v != 1 {
		t.Errorf("Receive() = %d, %v; want 1, true", v, ok)
	}
	if _, ok := q.Receive(context.Background()); ok {
		t.Error("Receive() on closed, drained queue returned ok")
	}
}

func TestQueue_ConcurrentReceivers(t *testing.T) {
	q := NewQueue[int](8)
	const n = 1000

	var wg sync.WaitGroup
	var mu sync.Mutex
	seen := make(map[int]bool)

	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				v, ok := q.Receive(context.Background())
				if !ok {
					return
				}
				mu.Lock()
				seen[v] = true
				mu.Unlock()
			}
		}()
	}

	for i := 0; i < n; i++ {
		q.Send(i)
	}
	for q.Len() > 0 {
		time.Sleep(time.Millisecond)
	}
	q.Close()
	wg.Wait()

	if len(seen) != n {
		t.Errorf("received %d distinct items, want %d", len(seen), n)
	}
}
