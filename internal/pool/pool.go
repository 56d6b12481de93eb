// Package pool provides a fixed-size worker pool, constructed once at
// startup and handed to components that need to offload work. It replaces
// ambient global executors with an explicit handle.
package pool

import "sync"

// DefaultWorkers is the pool size used when none is given.
const DefaultWorkers = 8

// defaultBacklog bounds queued-but-unstarted tasks.
const defaultBacklog = 256

// Pool runs submitted tasks on a fixed set of workers.
type Pool struct {
	mu     sync.Mutex
	tasks  chan func()
	wg     sync.WaitGroup
	closed bool
}

// New creates a pool with the given number of workers, or DefaultWorkers
// when workers is non-positive.
func New(workers int) *Pool {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	p := &Pool{tasks: make(chan func(), defaultBacklog)}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for task := range p.tasks {
		task()
	}
}

// Submit queues a task for execution. It returns false when the pool has
// shut down or the backlog is full; the task is not run in either case.
func (p *Pool) Submit(task func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}
	select {
	case p.tasks <- task:
		return true
	default:
		return false
	}
}

// Shutdown stops accepting tasks and waits for queued ones to finish.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}
