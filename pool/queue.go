package pool

import (
	"math/bits"
	"sync/atomic"
)

// Task is a unit of work submitted to the worker pool.
type Task func()

// MPMCQueue is a bounded multi-producer multi-consumer queue. Each slot carries a sequence
// counter that encodes whether the slot is ready for a producer or a consumer, so both sides
// can make progress with a single CAS in the uncontended case. Push and Pop never block: a
// full queue fails the Push and an empty queue fails the Pop, and the caller decides whether
// to retry.
type MPMCQueue struct {
	slots   []queueSlot
	mask    uint64
	_       [48]byte // keep the hot counters on their own cache lines
	enqueue atomic.Uint64
	_       [56]byte
	dequeue atomic.Uint64
}

type queueSlot struct {
	sequence atomic.Uint64
	task     Task
}

// NewMPMCQueue creates a queue with the given capacity, rounded up to the next power of two.
// The minimum capacity is 2.
func NewMPMCQueue(capacity int) *MPMCQueue {
	if capacity < 2 {
		capacity = 2
	}
	size := 1 << bits.Len64(uint64(capacity-1))

	q := &MPMCQueue{
		slots: make([]queueSlot, size),
		mask:  uint64(size - 1),
	}
	for i := range q.slots {
		q.slots[i].sequence.Store(uint64(i))
	}
	return q
}

// Cap returns the queue capacity.
func (q *MPMCQueue) Cap() int {
	return len(q.slots)
}

// Push enqueues a task. Returns false if the queue is full.
func (q *MPMCQueue) Push(task Task) bool {
	pos := q.enqueue.Load()
	for {
		slot := &q.slots[pos&q.mask]
		seq := slot.sequence.Load()
		diff := int64(seq) - int64(pos)

		switch {
		case diff == 0:
			// Slot is free for this position; claim it.
			if q.enqueue.CompareAndSwap(pos, pos+1) {
				slot.task = task
				slot.sequence.Store(pos + 1)
				return true
			}
			pos = q.enqueue.Load()
		case diff < 0:
			// The slot still holds an element a full lap behind: the queue is full.
			return false
		default:
			// Another producer claimed this position; reload and retry.
			pos = q.enqueue.Load()
		}
	}
}

// Pop dequeues a task. Returns (nil, false) if the queue is empty.
func (q *MPMCQueue) Pop() (Task, bool) {
	pos := q.dequeue.Load()
	for {
		slot := &q.slots[pos&q.mask]
		seq := slot.sequence.Load()
		diff := int64(seq) - int64(pos+1)

		switch {
		case diff == 0:
			if q.dequeue.CompareAndSwap(pos, pos+1) {
				task := slot.task
				slot.task = nil
				slot.sequence.Store(pos + q.mask + 1)
				return task, true
			}
			pos = q.dequeue.Load()
		case diff < 0:
			// The slot hasn't been published yet: the queue is empty.
			return nil, false
		default:
			pos = q.dequeue.Load()
		}
	}
}

// Len returns an approximate number of queued tasks. Only advisory under concurrency.
func (q *MPMCQueue) Len() int {
	enq := q.enqueue.Load()
	deq := q.dequeue.Load()
	if enq < deq {
		return 0
	}
	return int(enq - deq)
}
