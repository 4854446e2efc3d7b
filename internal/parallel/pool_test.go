package parallel

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestWorkerPool_Create(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("pool should be running after creation")
	}
}

func TestWorkerPool_CreateDefaultWorkers(t *testing.T) {
	for _, n := range []int{0, -5} {
		pool := NewWorkerPool(n)
		if pool.Workers() != runtime.GOMAXPROCS(0) {
			t.Errorf("NewWorkerPool(%d).Workers() = %d, want GOMAXPROCS", n, pool.Workers())
		}
		pool.Close()
	}
}

func TestWorkerPool_Run(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Close()

	const n = 500
	var hits [n]atomic.Int32
	if err := pool.Run(context.Background(), n, func(i int) { hits[i].Add(1) }); err != nil {
		t.Fatalf("Run() = %v", err)
	}
	for i := range hits {
		if got := hits[i].Load(); got != 1 {
			t.Fatalf("item %d ran %d times, want 1", i, got)
		}
	}
}

func TestWorkerPool_RunEmpty(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	if err := pool.Run(context.Background(), 0, func(int) { t.Error("fn called") }); err != nil {
		t.Errorf("Run(0) = %v", err)
	}
}

func TestWorkerPool_RunCancelled(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	err := pool.Run(ctx, 100, func(int) { calls.Add(1) })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
	if calls.Load() != 0 {
		t.Errorf("%d items ran after cancellation", calls.Load())
	}
}

func TestWorkerPool_RunCancelMidBatch(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	err := pool.Run(ctx, 50, func(i int) {
		if calls.Add(1) == 5 {
			cancel()
		}
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
	if got := calls.Load(); got >= 50 {
		t.Errorf("all %d items ran despite cancellation", got)
	}
}

func TestWorkerPool_RunAfterClose(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Close()
	pool.Close()

	if pool.IsRunning() {
		t.Error("pool should not be running after Close")
	}
	if err := pool.Run(context.Background(), 3, func(int) {}); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("Run() = %v, want %v", err, ErrPoolClosed)
	}
}

func TestWorkerPool_CloseDuringRun(t *testing.T) {
	for range 200 {
		pool := NewWorkerPool(2)
		var ran atomic.Int64

		var wg sync.WaitGroup
		for range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := pool.Run(context.Background(), 64, func(int) { ran.Add(1) })
				if err != nil && !errors.Is(err, ErrPoolClosed) {
					t.Errorf("Run() = %v, want nil or %v", err, ErrPoolClosed)
				}
			}()
		}
		pool.Close()

		finished := make(chan struct{})
		go func() {
			wg.Wait()
			close(finished)
		}()
		select {
		case <-finished:
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not return after Close")
		}
		if ran.Load()%64 != 0 {
			t.Fatalf("ran %d items, want whole batches of 64", ran.Load())
		}
	}
}
