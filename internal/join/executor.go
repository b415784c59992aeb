package join

import "sync"

// Task is a unit of work submitted to an Executor: a reaction body
// invocation, fully closed over its bound arguments.
type Task func()

// Executor is the pluggable thread-pool abstraction a JoinDefinition
// schedules reaction bodies on. Submit must not block the submitter
// beyond enqueueing.
type Executor interface {
	Submit(t Task) error
	Shutdown()
	ShutdownNow()
}

// GoExecutor submits every task as its own goroutine. It has unbounded
// parallelism, the safest default given that a reaction body may itself
// block on a sync emit: there is never a shortage of workers to make
// progress.
type GoExecutor struct {
	mu       sync.Mutex
	wg       sync.WaitGroup
	draining bool
}

// NewGoExecutor creates a ready-to-use unbounded executor.
func NewGoExecutor() *GoExecutor {
	return &GoExecutor{}
}

func (e *GoExecutor) Submit(t Task) error {
	e.mu.Lock()
	if e.draining {
		e.mu.Unlock()
		return ErrExecutorRejected
	}
	e.wg.Add(1)
	e.mu.Unlock()

	go func() {
		defer e.wg.Done()
		t()
	}()
	return nil
}

// Shutdown waits for in-flight tasks to finish and rejects further
// submissions.
func (e *GoExecutor) Shutdown() {
	e.mu.Lock()
	e.draining = true
	e.mu.Unlock()
	e.wg.Wait()
}

// ShutdownNow is equivalent to Shutdown for GoExecutor: there is no
// queue to drain, only in-flight goroutines, which are always let to
// run to completion.
func (e *GoExecutor) ShutdownNow() {
	e.Shutdown()
}

// PoolExecutor is a bounded worker pool: a fixed number of goroutines
// pull tasks off a buffered channel. Useful when a host wants to cap
// concurrency, but the caller is then responsible for sizing the pool
// larger than the maximum blocking-emit depth, or reaction bodies that
// block on a sync emit can deadlock the pool.
type PoolExecutor struct {
	jobs chan Task
	wg   sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// NewPoolExecutor starts workers goroutines draining a queue of depth
// queueDepth.
func NewPoolExecutor(workers, queueDepth int) *PoolExecutor {
	if workers < 1 {
		workers = 1
	}
	if queueDepth < 0 {
		queueDepth = 0
	}
	e := &PoolExecutor{jobs: make(chan Task, queueDepth)}
	for i := 0; i < workers; i++ {
		e.wg.Add(1)
		go e.runWorker()
	}
	return e
}

func (e *PoolExecutor) runWorker() {
	defer e.wg.Done()
	for t := range e.jobs {
		t()
	}
}

// Submit holds mu for the duration of the send, not just the closed
// check, so a concurrent Shutdown/ShutdownNow can never close e.jobs
// between the check and the send — without that, a send on an
// already-closed channel would panic instead of returning
// ErrExecutorRejected. Workers never need mu to receive, so this cannot
// deadlock: a send blocked on a full buffer still unblocks as soon as a
// worker drains it.
func (e *PoolExecutor) Submit(t Task) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return ErrExecutorRejected
	}
	e.jobs <- t
	return nil
}

// Shutdown closes the queue to new submissions and waits for all workers
// to drain it and exit; queued-but-not-yet-started tasks still run.
func (e *PoolExecutor) Shutdown() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.jobs)
	e.mu.Unlock()
	e.wg.Wait()
}

// ShutdownNow drops any queued-but-not-started tasks and returns without
// waiting for the workers; tasks already picked up by a worker still run
// to completion.
func (e *PoolExecutor) ShutdownNow() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.jobs)
	e.mu.Unlock()
	for range e.jobs {
		// drain and discard without running
	}
}
