package pool

import (
	"runtime"
	"sync/atomic"

	"github.com/hive-engine/queen/assert"
)

// WaitGroup is a counter-based barrier for short-lived per-frame task batches. Wait spins with
// a yield instead of parking the goroutine, which keeps barrier latency low between scheduler
// stages but makes it unsuitable for long blocking operations.
type WaitGroup struct {
	counter atomic.Int64
}

// Add increments the counter by delta.
func (wg *WaitGroup) Add(delta int) {
	count := wg.counter.Add(int64(delta))
	assert.That(count >= 0, "wait group counter went negative")
}

// Done decrements the counter by one.
func (wg *WaitGroup) Done() {
	wg.Add(-1)
}

// Wait spins until the counter reaches zero.
func (wg *WaitGroup) Wait() {
	for wg.counter.Load() != 0 {
		runtime.Gosched()
	}
}
