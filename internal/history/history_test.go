package history_test

import (
	"fmt"
	"testing"

	"github.com/cliwrap/cliwrap/internal/history"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRecallClampsAtBothEnds walks the cursor past both ends of the
// buffer and expects it to clamp rather than wrap.
func TestRecallClampsAtBothEnds(t *testing.T) {
	h := history.New()
	h.Add("a")
	h.Add("b")
	h.Add("c")

	moves := []struct {
		op   string
		want string
	}{
		{"prev", "c"},
		{"prev", "b"},
		{"prev", "a"},
		{"prev", "a"},
		{"next", "b"},
		{"next", "c"},
		{"next", "c"},
		{"next", "c"},
	}
	for i, m := range moves {
		var got string
		var ok bool
		if m.op == "prev" {
			got, ok = h.Prev()
		} else {
			got, ok = h.Next()
		}
		require.True(t, ok)
		assert.Equal(t, m.want, got, "move %d (%s)", i, m.op)
	}
}

// TestAddSkipsImmediateDuplicate tests that repeating the last command
// leaves a single entry.
func TestAddSkipsImmediateDuplicate(t *testing.T) {
	h := history.New()
	h.Add("x")
	h.Add("x")

	assert.Equal(t, []string{"x"}, h.Items())

	h.Add("y")
	h.Add("x")
	assert.Equal(t, []string{"x", "y", "x"}, h.Items())
}

// TestAddIgnoresEmpty tests the falsy-input no-op.
func TestAddIgnoresEmpty(t *testing.T) {
	h := history.New()
	h.Add("")
	assert.Zero(t, h.Len())
}

// TestEmptyRecall tests prev/next on an empty buffer.
func TestEmptyRecall(t *testing.T) {
	h := history.New()

	_, ok := h.Prev()
	assert.False(t, ok)
	_, ok = h.Next()
	assert.False(t, ok)
}

// TestAddResetsCursor tests that Prev right after Add returns the
// just-added command.
func TestAddResetsCursor(t *testing.T) {
	h := history.New()
	h.Add("one")
	h.Add("two")

	got, ok := h.Prev()
	require.True(t, ok)
	assert.Equal(t, "two", got)

	h.Add("three")
	got, ok = h.Prev()
	require.True(t, ok)
	assert.Equal(t, "three", got)
}

// TestNextRightAfterAdd tests Next before any Prev: the cursor sits one
// past the end, so Next must clamp to the final entry instead of reading
// out of range.
func TestNextRightAfterAdd(t *testing.T) {
	h := history.New()
	h.Add("only")

	got, ok := h.Next()
	require.True(t, ok)
	assert.Equal(t, "only", got)

	h.Add("second")
	got, ok = h.Next()
	require.True(t, ok)
	assert.Equal(t, "second", got)
}

// TestCapacityEviction tests that the oldest entry falls off at capacity.
func TestCapacityEviction(t *testing.T) {
	h := history.NewWithCapacity(3)
	for i := 1; i <= 5; i++ {
		h.Add(fmt.Sprintf("cmd-%d", i))
	}
	assert.Equal(t, []string{"cmd-3", "cmd-4", "cmd-5"}, h.Items())
}

// TestRecord tests the wrapping helper records before invoking.
func TestRecord(t *testing.T) {
	h := history.New()
	var ran []string
	submit := h.Record(func(s string) { ran = append(ran, s) })

	submit("select 1;")
	submit("select 2;")

	assert.Equal(t, []string{"select 1;", "select 2;"}, ran)
	assert.Equal(t, []string{"select 1;", "select 2;"}, h.Items())
}
