package wrapper_test

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/cliwrap/cliwrap/internal/wrapper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDecodingReaderUTF8 tests that valid UTF-8 passes through untouched.
func TestDecodingReaderUTF8(t *testing.T) {
	r, err := wrapper.NewDecodingReader(strings.NewReader("héllo wörld"), "utf-8")
	require.NoError(t, err)

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "héllo wörld", string(out))
}

// TestDecodingReaderInvalidUTF8 tests that undecodable bytes surface as a
// read error instead of replacement characters.
func TestDecodingReaderInvalidUTF8(t *testing.T) {
	r, err := wrapper.NewDecodingReader(bytes.NewReader([]byte{'o', 'k', 0xff, 0xfe, 0xfd}), "utf-8")
	require.NoError(t, err)

	_, err = io.ReadAll(r)
	assert.Error(t, err)
}

// TestDecodingReaderLatin1 tests decoding a single-byte charset to UTF-8.
func TestDecodingReaderLatin1(t *testing.T) {
	r, err := wrapper.NewDecodingReader(bytes.NewReader([]byte{'c', 'a', 'f', 0xe9}), "iso-8859-1")
	require.NoError(t, err)

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "café", string(out))
}

// TestDecodingReaderUnknownEncoding tests the unsupported-label error.
func TestDecodingReaderUnknownEncoding(t *testing.T) {
	_, err := wrapper.NewDecodingReader(strings.NewReader("x"), "no-such-charset")
	assert.Error(t, err)
}

// TestDecodingReaderAuto tests charset sniffing on the first chunk.
func TestDecodingReaderAuto(t *testing.T) {
	text := strings.Repeat("héllo wörld über alles ", 20)
	r, err := wrapper.NewDecodingReader(strings.NewReader(text), wrapper.EncodingAuto)
	require.NoError(t, err)

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, text, string(out))
}

// TestDetectEncoding tests that multibyte UTF-8 text is recognized.
func TestDetectEncoding(t *testing.T) {
	label := wrapper.DetectEncoding([]byte(strings.Repeat("héllo wörld ", 30)))
	assert.Equal(t, "utf-8", label)
}
