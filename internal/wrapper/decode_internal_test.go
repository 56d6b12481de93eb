package wrapper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestEncodeLine tests command encoding with the trailing newline.
func TestEncodeLine(t *testing.T) {
	out, err := encodeLine("select 1;", "utf-8")
	require.NoError(t, err)
	assert.Equal(t, []byte("select 1;\n"), out)

	out, err = encodeLine("café", "iso-8859-1")
	require.NoError(t, err)
	assert.Equal(t, []byte{'c', 'a', 'f', 0xe9, '\n'}, out)

	_, err = encodeLine("x", "no-such-charset")
	assert.Error(t, err)
}

// TestIsUTF8 tests the labels treated as plain UTF-8.
func TestIsUTF8(t *testing.T) {
	assert.True(t, isUTF8(""))
	assert.True(t, isUTF8("utf-8"))
	assert.True(t, isUTF8("UTF8"))
	assert.False(t, isUTF8("auto"))
	assert.False(t, isUTF8("cp866"))
}
