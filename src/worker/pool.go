package worker

import (
	"context"
	"log"
	"runtime"
	"sync"
)

// Job is a unit of background work. It receives the context it was submitted
// with, even when that context is already done, and reports results through
// whatever closure it captures; that closure should post back into the event
// loop.
type Job func(ctx context.Context)

// Pool is a fixed-size worker pool with a bounded input queue. Submit never
// blocks.
type Pool struct {
	name string
	jobs chan job

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

type job struct {
	ctx context.Context
	fn  Job
}

// New creates a worker pool. Size defaults to NumCPU when size<=0 and queue
// defaults to 1 slot when queue<=0.
func New(name string, size, queue int) *Pool {
	if size <= 0 {
		size = runtime.NumCPU()
	}
	if queue <= 0 {
		queue = 1
	}
	p := &Pool{name: name, jobs: make(chan job, queue)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				p.runJob(j)
			}
		}()
	}
}

func (p *Pool) runJob(j job) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Worker[%s]: job panicked: %v", p.name, r)
		}
	}()
	j.fn(j.ctx)
}

// Submit enqueues a job if the queue has room. Returns false if dropped or if
// the pool is closed.
func (p *Pool) Submit(ctx context.Context, fn Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.jobs <- job{ctx: ctx, fn: fn}:
		return true
	default:
		return false
	}
}

// SubmitNewest enqueues fn, evicting the oldest queued jobs while the queue
// is full. Evicted jobs never run. ok is false only when the pool is closed.
func (p *Pool) SubmitNewest(ctx context.Context, fn Job) (evicted int, ok bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return 0, false
	}
	j := job{ctx: ctx, fn: fn}
	for {
		select {
		case p.jobs <- j:
			return evicted, true
		default:
		}
		select {
		case <-p.jobs:
			evicted++
		default:
		}
	}
}

// Close stops the pool after draining queued work. Safe to call twice.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
}
