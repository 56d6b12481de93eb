package wrapper

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

// EncodingAuto asks the reader to sniff the encoding from the first chunk
// of output instead of using a fixed label.
const EncodingAuto = "auto"

// isUTF8 reports whether label names plain UTF-8 (the default).
func isUTF8(label string) bool {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "utf-8", "utf8":
		return true
	}
	return false
}

// transformerFor resolves an encoding label to a byte-stream transformer
// that yields UTF-8.
//
// UTF-8 input is validated rather than decoded: the html/charset decoders
// silently substitute replacement characters, but a reader must detect bad
// bytes and stop, so invalid UTF-8 has to surface as an error.
func transformerFor(label string) (transform.Transformer, string, error) {
	if isUTF8(label) {
		return encoding.UTF8Validator, "utf-8", nil
	}
	enc, name := charset.Lookup(label)
	if enc == nil {
		return nil, "", fmt.Errorf("unsupported encoding %q", label)
	}
	return enc.NewDecoder(), name, nil
}

// NewDecodingReader wraps r so that reads return UTF-8 text decoded from
// the named encoding. Undecodable input surfaces as a read error.
//
// With EncodingAuto the first chunk is sniffed with chardet and the
// detected encoding is used for the rest of the stream.
func NewDecodingReader(r io.Reader, label string) (io.Reader, error) {
	if strings.EqualFold(strings.TrimSpace(label), EncodingAuto) {
		return &sniffReader{src: r}, nil
	}
	t, _, err := transformerFor(label)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(r, t), nil
}

// DetectEncoding sniffs a charset label from raw bytes, falling back to
// UTF-8 when detection fails.
func DetectEncoding(data []byte) string {
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// sniffReader defers decoder construction until the first chunk arrives,
// then detects the charset from it. Construction must not block on child
// output, so the sniff happens inside Read.
type sniffReader struct {
	src io.Reader
	dec io.Reader
}

func (s *sniffReader) Read(p []byte) (int, error) {
	if s.dec == nil {
		buf := make([]byte, readChunkSize)
		n, err := s.src.Read(buf)
		if n == 0 {
			if err != nil {
				return 0, err
			}
			return 0, nil
		}
		t, _, terr := transformerFor(DetectEncoding(buf[:n]))
		if terr != nil {
			t = encoding.UTF8Validator
		}
		s.dec = transform.NewReader(io.MultiReader(bytes.NewReader(buf[:n]), s.src), t)
	}
	return s.dec.Read(p)
}

// encodeLine converts a command plus trailing newline into the child's
// input encoding.
func encodeLine(text, label string) ([]byte, error) {
	line := text + "\n"
	if isUTF8(label) || strings.EqualFold(strings.TrimSpace(label), EncodingAuto) {
		return []byte(line), nil
	}
	enc, name := charset.Lookup(label)
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", label)
	}
	out, err := enc.NewEncoder().Bytes([]byte(line))
	if err != nil {
		return nil, fmt.Errorf("encode command as %s: %w", name, err)
	}
	return out, nil
}
