package wrapper

// Channel identifies which output stream of the child an item came from.
type Channel int

const (
	// Stdout is the child's standard output stream.
	Stdout Channel = iota + 1
	// Stderr is the child's standard error stream.
	Stderr
)

// String returns a human-readable channel name.
func (c Channel) String() string {
	switch c {
	case Stdout:
		return "stdout"
	case Stderr:
		return "stderr"
	default:
		return "unknown"
	}
}

// Item is one tagged unit of decoded output. Immutable once enqueued.
type Item struct {
	Channel Channel
	Text    string
}
