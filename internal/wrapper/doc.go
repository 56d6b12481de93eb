// Package wrapper runs a long-lived interactive child process behind a
// line-oriented command interface.
//
// A Wrapper spawns the child with stdin, stdout and stderr bound to OS
// pipes, then attaches one background reader per output channel. Each
// reader decodes raw chunks using the configured text encoding, tags them
// with their channel, and enqueues them on a bounded shared queue. The
// caller drains the queue with GetOutput without ever blocking on the
// child itself.
//
// Lifecycle:
//   - Start spawns a fresh child and attaches both readers.
//   - Stop sends a graceful terminate signal and reaps the process.
//   - Kill force-terminates without waiting.
//   - Each Start opens a new generation; readers from an older generation
//     observe the generation change and exit without touching the new
//     generation's queue.
//
// Back-pressure is by dropping: a reader checks queue capacity before each
// read and stops reading once the queue is full, so a runaway child can
// never grow memory unbounded. A reader that hits undecodable bytes logs a
// diagnostic and stops; the child and the other channel keep going.
//
// Example:
//
//	w, err := wrapper.New(wrapper.NewCommand("sqlplus", "-S", "/nolog"))
//	if err != nil {
//		return err
//	}
//	defer w.Close()
//
//	out, err := w.Communicate("SELECT banner FROM v$version;")
package wrapper
