// elMix: likelihood ratios for forensic DNA mixtures.
// Copyright (c) 2026 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elmix/blob/master/LICENSE.txt>.

package likelihood

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// A Task computes the probability contribution of one job.
type Task func(ctx context.Context) (*LocusProbability, error)

// A Future is the pending result of a submitted Task.
type Future struct {
	done   chan struct{}
	result *LocusProbability
	err    error
	cancel context.CancelFunc
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// ResolvedFuture returns a Future that already holds the given result.
func ResolvedFuture(result *LocusProbability) *Future {
	f := newFuture()
	f.result = result
	f.cancel = func() {}
	close(f.done)
	return f
}

func (f *Future) resolve(result *LocusProbability, err error) {
	f.result, f.err = result, err
	close(f.done)
}

// Get blocks until the task has finished or the context is done.
func (f *Future) Get(ctx context.Context) (*LocusProbability, error) {
	select {
	case <-f.done:
		return f.result, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Cancel requests the task to stop. A task that has not started yet
// resolves with context.Canceled without running.
func (f *Future) Cancel() {
	f.cancel()
}

type submission struct {
	ctx    context.Context
	task   Task
	future *Future
}

/*
A Pool is a fixed set of worker goroutines executing Tasks in
submission order.

Submit never blocks: tasks are queued until a worker becomes
available.
*/
type Pool struct {
	mutex   sync.Mutex
	cond    *sync.Cond
	queue   []submission
	closed  bool
	workers sync.WaitGroup
}

// NewPool starts a pool with the given number of workers. A number
// less than one means runtime.NumCPU().
func NewPool(workers int) *Pool {
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	p := &Pool{}
	p.cond = sync.NewCond(&p.mutex)
	p.workers.Add(workers)
	for i := 0; i < workers; i++ {
		go p.work()
	}
	return p
}

var (
	defaultPool     *Pool
	defaultPoolOnce sync.Once
)

// DefaultPool returns the process-wide pool, sized to the number of
// CPUs, that is shared by all likelihood calculations.
func DefaultPool() *Pool {
	defaultPoolOnce.Do(func() {
		defaultPool = NewPool(0)
	})
	return defaultPool
}

// Submit queues a task. The task receives a context that is cancelled
// when ctx is cancelled or when the returned Future is cancelled.
func (p *Pool) Submit(ctx context.Context, task Task) *Future {
	f := newFuture()
	taskCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	p.mutex.Lock()
	if p.closed {
		p.mutex.Unlock()
		cancel()
		f.resolve(nil, fmt.Errorf("submit to closed pool: %w", context.Canceled))
		return f
	}
	p.queue = append(p.queue, submission{ctx: taskCtx, task: task, future: f})
	p.mutex.Unlock()
	p.cond.Signal()
	return f
}

func (p *Pool) next() (submission, bool) {
	p.mutex.Lock()
	defer p.mutex.Unlock()
	for len(p.queue) == 0 && !p.closed {
		p.cond.Wait()
	}
	if len(p.queue) == 0 {
		return submission{}, false
	}
	s := p.queue[0]
	p.queue[0] = submission{}
	p.queue = p.queue[1:]
	return s, true
}

func (p *Pool) work() {
	defer p.workers.Done()
	for {
		s, ok := p.next()
		if !ok {
			return
		}
		if err := s.ctx.Err(); err != nil {
			s.future.resolve(nil, err)
			continue
		}
		result, err := run(s.ctx, s.task)
		s.future.cancel()
		s.future.resolve(result, err)
	}
}

func run(ctx context.Context, task Task) (result *LocusProbability, err error) {
	defer func() {
		if r := recover(); r != nil {
			result, err = nil, fmt.Errorf("job panicked: %v", r)
		}
	}()
	return task(ctx)
}

// Close stops the workers once the queued tasks have been executed.
func (p *Pool) Close() {
	p.mutex.Lock()
	p.closed = true
	p.mutex.Unlock()
	p.cond.Broadcast()
	p.workers.Wait()
}
