// Package history provides a bounded command-recall buffer with a
// bidirectional cursor, the backing store for prev/next command recall.
package history

import "sync"

// DefaultCapacity is the number of commands kept before the oldest is
// evicted.
const DefaultCapacity = 999

// Buffer is a bounded ordered sequence of submitted commands, most recent
// last, with a cursor for recall navigation. It is safe for concurrent use.
type Buffer struct {
	mu       sync.Mutex
	items    []string
	capacity int
	index    int
}

// New creates a buffer with DefaultCapacity.
func New() *Buffer {
	return NewWithCapacity(DefaultCapacity)
}

// NewWithCapacity creates a buffer holding at most capacity entries.
func NewWithCapacity(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{capacity: capacity}
}

// Add appends a command. Empty input and immediate repetition of the last
// entry are no-ops. Adding evicts the oldest entry past capacity and
// resets the cursor to one past the last element, so a following Prev
// returns the just-added command.
func (b *Buffer) Add(item string) {
	if item == "" {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if n := len(b.items); n > 0 && b.items[n-1] == item {
		return
	}
	b.items = append(b.items, item)
	if len(b.items) > b.capacity {
		b.items = b.items[1:]
	}
	b.index = len(b.items)
}

// Prev moves the cursor back one entry and returns the command there,
// clamped at the oldest entry. The second return value is false when the
// buffer is empty.
func (b *Buffer) Prev() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.items) == 0 {
		return "", false
	}
	b.setIndex(b.index - 1)
	return b.items[b.index], true
}

// Next moves the cursor forward one entry and returns the command there.
// Advancing past the final entry clamps to and returns the final entry.
// The second return value is false when the buffer is empty.
func (b *Buffer) Next() (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.items) == 0 {
		return "", false
	}
	b.setIndex(b.index + 1)
	if b.index >= len(b.items) {
		return b.items[len(b.items)-1], true
	}
	return b.items[b.index], true
}

// setIndex moves the cursor only when the target is a valid position;
// out-of-range moves leave it unchanged, which produces the clamping
// behavior at both ends.
func (b *Buffer) setIndex(v int) {
	if v >= 0 && v < len(b.items) {
		b.index = v
	}
}

// Items returns a snapshot of the buffered commands, oldest first.
func (b *Buffer) Items() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, len(b.items))
	copy(out, b.items)
	return out
}

// Len returns the number of buffered commands.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.items)
}

// Record wraps fn so every value passes through Add before fn runs. It is
// the explicit-composition replacement for decorator-style wrapping:
// submit := hist.Record(wrapperRun).
func (b *Buffer) Record(fn func(string)) func(string) {
	return func(value string) {
		b.Add(value)
		fn(value)
	}
}
