package wrapper_test

import (
	"testing"
	"time"

	"github.com/cliwrap/cliwrap/internal/wrapper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestQueueFIFO tests that items come out in the order they went in.
func TestQueueFIFO(t *testing.T) {
	q := wrapper.NewQueue(8)

	require.True(t, q.TryPut(wrapper.Item{Channel: wrapper.Stdout, Text: "a"}))
	require.True(t, q.TryPut(wrapper.Item{Channel: wrapper.Stderr, Text: "b"}))
	require.True(t, q.TryPut(wrapper.Item{Channel: wrapper.Stdout, Text: "c"}))

	for _, want := range []string{"a", "b", "c"} {
		item, ok := q.Get(time.Second)
		require.True(t, ok)
		assert.Equal(t, want, item.Text)
	}
}

// TestQueueCapacity tests that TryPut refuses items once full.
func TestQueueCapacity(t *testing.T) {
	q := wrapper.NewQueue(2)

	assert.True(t, q.TryPut(wrapper.Item{Text: "1"}))
	assert.False(t, q.Full())
	assert.True(t, q.TryPut(wrapper.Item{Text: "2"}))
	assert.True(t, q.Full())

	assert.False(t, q.TryPut(wrapper.Item{Text: "3"}))
	assert.Equal(t, 2, q.Len())

	item, ok := q.Get(time.Second)
	require.True(t, ok)
	assert.Equal(t, "1", item.Text)
	assert.False(t, q.Full())
}

// TestQueueGetTimeout tests that Get returns promptly when nothing arrives.
func TestQueueGetTimeout(t *testing.T) {
	q := wrapper.NewQueue(2)

	start := time.Now()
	_, ok := q.Get(20 * time.Millisecond)
	elapsed := time.Since(start)

	assert.False(t, ok)
	assert.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
	assert.Less(t, elapsed, 2*time.Second)
}

// TestQueueChannelTag tests that channel identity survives the queue.
func TestQueueChannelTag(t *testing.T) {
	q := wrapper.NewQueue(2)
	require.True(t, q.TryPut(wrapper.Item{Channel: wrapper.Stderr, Text: "boom"}))

	item, ok := q.Get(time.Second)
	require.True(t, ok)
	assert.Equal(t, wrapper.Stderr, item.Channel)
	assert.Equal(t, "stderr", item.Channel.String())
}
