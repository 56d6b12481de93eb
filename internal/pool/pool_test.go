package pool_test

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cliwrap/cliwrap/internal/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSubmitRunsTasks tests that every submitted task executes.
func TestSubmitRunsTasks(t *testing.T) {
	p := pool.New(4)

	var count atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		ok := p.Submit(func() {
			defer wg.Done()
			count.Add(1)
		})
		require.True(t, ok)
	}
	wg.Wait()
	p.Shutdown()

	assert.Equal(t, int32(50), count.Load())
}

// TestShutdownDrains tests that Shutdown waits for queued tasks.
func TestShutdownDrains(t *testing.T) {
	p := pool.New(1)

	var count atomic.Int32
	for i := 0; i < 10; i++ {
		require.True(t, p.Submit(func() { count.Add(1) }))
	}
	p.Shutdown()

	assert.Equal(t, int32(10), count.Load())
}

// TestSubmitAfterShutdown tests that a closed pool refuses work.
func TestSubmitAfterShutdown(t *testing.T) {
	p := pool.New(2)
	p.Shutdown()

	assert.False(t, p.Submit(func() {}))
	p.Shutdown() // second shutdown is a no-op
}
