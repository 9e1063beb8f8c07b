package pool

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerPool_RunsSubmittedTasks(t *testing.T) {
	t.Parallel()

	p := NewWorkerPool(4, 32)
	defer p.Shutdown()
	assert.Equal(t, 4, p.Workers())

	const n = 100
	var ran atomic.Int32
	var wg WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		require.True(t, p.Submit(func() {
			ran.Add(1)
			wg.Done()
		}))
	}
	wg.Wait()
	assert.Equal(t, int32(n), ran.Load())
}

func TestWorkerPool_DefaultWorkerCount(t *testing.T) {
	t.Parallel()

	p := NewWorkerPool(0, 8)
	defer p.Shutdown()
	assert.Positive(t, p.Workers())
}

func TestWorkerPool_ShutdownDrainsQueue(t *testing.T) {
	t.Parallel()

	p := NewWorkerPool(2, 64)

	var ran atomic.Int32
	var wg WaitGroup
	wg.Add(10)
	for i := 0; i < 10; i++ {
		require.True(t, p.Submit(func() {
			ran.Add(1)
			wg.Done()
		}))
	}
	wg.Wait()
	p.Shutdown()

	assert.Equal(t, int32(10), ran.Load())
	assert.False(t, p.Submit(func() {}), "submission after shutdown is rejected")
	assert.False(t, p.TrySubmit(func() {}))

	// Shutdown is idempotent.
	p.Shutdown()
}

func TestWorkerPool_TrySubmitFullQueue(t *testing.T) {
	t.Parallel()

	// No workers draining: fill the queue, then TrySubmit must refuse.
	p := NewWorkerPool(1, 2)
	defer p.Shutdown()

	var gate WaitGroup
	gate.Add(1)
	// Block the single worker so pushed tasks stay queued.
	require.True(t, p.Submit(func() { gate.Wait() }))

	for p.TrySubmit(func() {}) { // fill to capacity
	}
	assert.False(t, p.TrySubmit(func() {}))
	gate.Done()
}
