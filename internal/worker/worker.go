// Package worker runs independent jobs on a fixed number of goroutines.
package worker

import (
	"context"
	"errors"
	"sync"
)

// ErrStopped is returned by Submit after the pool has been stopped or
// cancelled.
var ErrStopped = errors.New("worker pool stopped")

// ProcessFunc handles one job. A non-nil error cancels the remaining jobs.
type ProcessFunc[J any] func(ctx context.Context, job J) error

// Pool feeds submitted jobs to its workers. The first job error cancels the
// pool's context and is returned by Stop.
type Pool[J any] struct {
	numWorkers int
	jobs       chan J
	processor  ProcessFunc[J]
	wg         sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	errOnce sync.Once
	err     error
}

// NewPool creates a pool with numWorkers workers and a job queue of
// bufferSize. numWorkers below one is treated as one.
func NewPool[J any](numWorkers, bufferSize int, processor ProcessFunc[J]) *Pool[J] {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &Pool[J]{
		numWorkers: numWorkers,
		jobs:       make(chan J, bufferSize),
		processor:  processor,
	}
}

// Start launches the workers. It must be called once, before Submit.
func (p *Pool[J]) Start(ctx context.Context) {
	p.ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *Pool[J]) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			if err := p.processor(p.ctx, job); err != nil {
				p.fail(err)
				return
			}
		}
	}
}

func (p *Pool[J]) fail(err error) {
	p.errOnce.Do(func() {
		p.err = err
		p.cancel()
	})
}

// Submit queues job, blocking while the queue is full.
func (p *Pool[J]) Submit(job J) error {
	select {
	case <-p.ctx.Done():
		return ErrStopped
	default:
	}
	select {
	case p.jobs <- job:
		return nil
	case <-p.ctx.Done():
		return ErrStopped
	}
}

// Stop closes the queue, waits for the workers and returns the first job
// error, or the parent context's error if it was cancelled first.
func (p *Pool[J]) Stop() error {
	close(p.jobs)
	p.wg.Wait()

	p.errOnce.Do(func() {
		p.err = context.Cause(p.ctx)
	})
	p.cancel()
	return p.err
}
