package wrapper

import (
	"errors"
	"fmt"
)

// Sentinel errors for wrapper lifecycle operations.
var (
	// ErrAlreadyRunning is returned by Start when a live child exists.
	ErrAlreadyRunning = errors.New("process already started")

	// ErrNotRunning is returned by I/O operations when no child is live.
	ErrNotRunning = errors.New("process is not running")

	// ErrChannelHandled indicates a second reader was attached to a channel
	// that already has one. This is a programming fault, not a runtime
	// condition a caller can recover from.
	ErrChannelHandled = errors.New("channel is already handled")
)

// DecodeError reports output bytes that could not be decoded under the
// configured encoding. It terminates the reader that produced it; the child
// process and the other channel are unaffected.
type DecodeError struct {
	Encoding string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("wrong encoding %q: %v", e.Encoding, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
