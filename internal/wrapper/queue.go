package wrapper

import "time"

// Queue is a bounded, thread-safe FIFO of output items. Both channel
// readers produce into it concurrently; the façade is the single consumer.
type Queue struct {
	items chan Item
}

// NewQueue creates a queue holding at most capacity items.
func NewQueue(capacity int) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{items: make(chan Item, capacity)}
}

// TryPut enqueues an item without blocking. It returns false when the queue
// is at capacity, in which case the item is not stored.
func (q *Queue) TryPut(item Item) bool {
	select {
	case q.items <- item:
		return true
	default:
		return false
	}
}

// Get waits up to timeout for the next item. The second return value is
// false when no item arrived within the timeout.
func (q *Queue) Get(timeout time.Duration) (Item, bool) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case item := <-q.items:
		return item, true
	case <-timer.C:
		return Item{}, false
	}
}

// Full reports whether the queue is at capacity. Readers check this before
// each read so that a saturated queue stops further reading instead of
// growing memory.
func (q *Queue) Full() bool {
	return len(q.items) == cap(q.items)
}

// Len returns the number of pending items.
func (q *Queue) Len() int {
	return len(q.items)
}
