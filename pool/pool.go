// Package pool provides the concurrency primitives the scheduler runs on: a bounded lock-free
// MPMC task queue, a fixed-size worker pool consuming it, and a spin/yield WaitGroup used as
// the barrier between parallel stages.
package pool

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

// WorkerPool executes submitted tasks on a fixed set of worker goroutines. Tasks run to
// completion; there is no mid-task cancellation. The unit of cancellation is "stop submitting",
// followed by Shutdown.
type WorkerPool struct {
	queue    *MPMCQueue
	workers  int
	stopping atomic.Bool
	done     sync.WaitGroup
}

// NewWorkerPool starts a pool with the given number of workers and queue capacity. A worker
// count below one defaults to GOMAXPROCS.
func NewWorkerPool(workers, queueCapacity int) *WorkerPool {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}

	p := &WorkerPool{
		queue:   NewMPMCQueue(queueCapacity),
		workers: workers,
	}

	p.done.Add(workers)
	for i := 0; i < workers; i++ {
		go p.run(i)
	}

	log.Debug().Int("workers", workers).Int("queue_capacity", p.queue.Cap()).Msg("worker pool started")
	return p
}

// Workers returns the number of worker goroutines.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// Submit enqueues a task, retrying with a yield while the queue is full. Returns false if the
// pool is shutting down.
func (p *WorkerPool) Submit(task Task) bool {
	for {
		if p.stopping.Load() {
			return false
		}
		if p.queue.Push(task) {
			return true
		}
		// Queue full: yield so a worker can drain a slot.
		runtime.Gosched()
	}
}

// TrySubmit enqueues a task without retrying. Returns false if the queue is full or the pool
// is shutting down.
func (p *WorkerPool) TrySubmit(task Task) bool {
	if p.stopping.Load() {
		return false
	}
	return p.queue.Push(task)
}

// Shutdown stops the workers after the queue drains and waits for them to exit.
func (p *WorkerPool) Shutdown() {
	if p.stopping.Swap(true) {
		return
	}
	p.done.Wait()
	log.Debug().Msg("worker pool stopped")
}

func (p *WorkerPool) run(_ int) {
	defer p.done.Done()
	for {
		task, ok := p.queue.Pop()
		if !ok {
			if p.stopping.Load() {
				return
			}
			runtime.Gosched()
			continue
		}
		task()
	}
}
