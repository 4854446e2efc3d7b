package parallel

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool runs batches of work items on a fixed set of goroutines.
//
// Each worker owns a queue. A worker whose queue is empty steals from the
// others, which keeps all workers busy when tiles differ in cost (tiles
// covered by geometry take longer than tiles that only receive the clear
// color).
//
// WorkerPool is safe for concurrent use.
type WorkerPool struct {
	workers    int
	workQueues []chan func()
	done       chan struct{}
	wg         sync.WaitGroup
	running    atomic.Bool

	// mu is held for reading while a batch is queued and for writing by
	// Close, so no item is queued after the workers begin to exit.
	mu sync.RWMutex
}

// NewWorkerPool starts a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	queueSize := max(workers*4, 8)

	p := &WorkerPool{
		workers:    workers,
		workQueues: make([]chan func(), workers),
		done:       make(chan struct{}),
	}
	for i := range workers {
		p.workQueues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()
	own := p.workQueues[id]

	for {
		select {
		case <-p.done:
			p.drain(own)
			return
		case work := <-own:
			work()
		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			select {
			case <-p.done:
				p.drain(own)
				return
			case work := <-own:
				work()
			}
		}
	}
}

func (p *WorkerPool) drain(queue chan func()) {
	for {
		select {
		case work := <-queue:
			work()
		default:
			return
		}
	}
}

func (p *WorkerPool) steal(id int) func() {
	for i := range p.workers {
		if i == id {
			continue
		}
		select {
		case work := <-p.workQueues[i]:
			return work
		default:
		}
	}
	return nil
}

// Run calls fn(i) for every i in [0, n) across the workers and waits for
// all calls to return. Items not yet started when ctx is cancelled are
// skipped and ctx.Err() is returned. Run on a closed pool returns
// ErrPoolClosed without calling fn.
func (p *WorkerPool) Run(ctx context.Context, n int, fn func(i int)) error {
	if n <= 0 {
		if !p.running.Load() {
			return ErrPoolClosed
		}
		return ctx.Err()
	}

	var pending sync.WaitGroup
	if !p.enqueue(ctx, n, fn, &pending) {
		return ErrPoolClosed
	}
	pending.Wait()
	return ctx.Err()
}

// enqueue queues the whole batch, or nothing if the pool is closed.
func (p *WorkerPool) enqueue(ctx context.Context, n int, fn func(i int), pending *sync.WaitGroup) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.running.Load() {
		return false
	}

	pending.Add(n)
	for i := range n {
		p.workQueues[i%p.workers] <- func() {
			defer pending.Done()
			if ctx.Err() != nil {
				return
			}
			fn(i)
		}
	}
	return true
}

// Close stops the pool after queued work has finished. Close is safe to
// call more than once and concurrently with Run.
func (p *WorkerPool) Close() {
	p.mu.Lock()
	if !p.running.CompareAndSwap(true, false) {
		p.mu.Unlock()
		return
	}
	close(p.done)
	p.mu.Unlock()
	p.wg.Wait()
}

// Workers returns the number of workers.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool accepts work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
