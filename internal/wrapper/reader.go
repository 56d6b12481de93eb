package wrapper

import (
	"errors"
	"io"
	"os"
	"strings"
	"syscall"

	"github.com/cliwrap/cliwrap/internal/logging"
	"go.uber.org/zap"
)

// readChunkSize bounds a single read from the child's pipe.
const readChunkSize = 8192

// reader drains one output channel of a single child generation into the
// shared queue. It holds no owning reference to the wrapper: the alive
// callback is its only view of the parent, checked every iteration, so a
// torn-down generation is observed rather than dereferenced.
type reader struct {
	channel  Channel
	encoding string
	stream   io.Reader
	queue    *Queue
	alive    func() bool
	log      *logging.Logger
}

// run loops until the generation dies, the queue fills, the stream ends,
// or a chunk fails to decode. It never reports errors to the caller; a
// degraded channel is observed only as silence.
func (r *reader) run() {
	buf := make([]byte, readChunkSize)
	for r.alive() && !r.queue.Full() {
		n, err := r.stream.Read(buf)
		if n > 0 {
			// Strip CR so Windows line endings come out uniform.
			text := strings.ReplaceAll(string(buf[:n]), "\r", "")
			if text != "" && !r.queue.TryPut(Item{Channel: r.channel, Text: text}) {
				// Queue filled between the capacity check and the put.
				// The chunk is dropped per the bounded-memory policy.
				r.log.Warn("output queue full, dropping chunk",
					zap.String("channel", r.channel.String()),
					zap.Int("bytes", n))
				return
			}
		}
		if err != nil {
			if isExpectedReadError(err) {
				// EOF or a pipe closed under us: the child exited or the
				// wrapper tore the generation down. Exit silently.
				return
			}
			r.log.Error("output reader terminated",
				zap.String("channel", r.channel.String()),
				zap.Error(&DecodeError{Encoding: r.encoding, Err: err}))
			return
		}
	}
}

// isExpectedReadError reports stream endings that are part of normal
// shutdown rather than decode failures.
func isExpectedReadError(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, os.ErrClosed) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET)
}
