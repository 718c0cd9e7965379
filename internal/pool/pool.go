// Package pool provides the named worker-pool and task-queue facility
// spec.md §1 assumes as an injected external collaborator: spawn a pool of
// N workers, post a task, post to a named queue, wait, stop.
package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Pool runs posted tasks across a fixed number of worker goroutines under
// one name, used for logging and for distinguishing "main" (result
// aggregation) from "pool" (block generation) in TableBuilder.
type Pool struct {
	name string
	log  *zap.Logger

	ctx     context.Context
	cancel  context.CancelFunc
	tasks   chan func(context.Context)
	workers sync.WaitGroup
	pending sync.WaitGroup

	posted, completed atomic.Int64
	stopped           atomic.Bool
}

// New spawns a pool of size workers, all draining the same task channel.
// Zero or negative size is treated as 1.
func New(ctx context.Context, name string, size int, log *zap.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	pctx, cancel := context.WithCancel(ctx)
	p := &Pool{
		name:   name,
		log:    log.With(zap.String("pool", name)),
		ctx:    pctx,
		cancel: cancel,
		tasks:  make(chan func(context.Context), size*4),
	}

	p.workers.Add(size)
	for i := 0; i < size; i++ {
		go p.worker(i)
	}
	return p
}

func (p *Pool) worker(id int) {
	defer p.workers.Done()
	for {
		select {
		case <-p.ctx.Done():
			return
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			task(p.ctx)
			p.completed.Add(1)
			p.pending.Done()
		}
	}
}

// Post enqueues a task. It blocks if every worker is busy and the queue is
// full; it panics if called after Stop.
func (p *Pool) Post(task func(context.Context)) {
	if p.stopped.Load() {
		panic(fmt.Sprintf("pool %q: Post called after Stop", p.name))
	}
	p.posted.Add(1)
	p.pending.Add(1)
	select {
	case p.tasks <- task:
	case <-p.ctx.Done():
		p.pending.Done()
	}
}

// Wait blocks until every task posted so far has completed. It does not
// stop the pool.
func (p *Pool) Wait() {
	p.pending.Wait()
}

// Stop cancels not-yet-picked-up tasks and joins every worker. Running
// tasks finish their current unit of work before observing cancellation.
func (p *Pool) Stop() {
	if p.stopped.Swap(true) {
		return
	}
	close(p.tasks)
	p.cancel()
	p.workers.Wait()
	p.log.Debug("pool stopped", zap.Int64("posted", p.posted.Load()), zap.Int64("completed", p.completed.Load()))
}

func (p *Pool) Name() string { return p.name }
