package wrapper

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/cliwrap/cliwrap/internal/logging"
	"go.uber.org/zap"
)

const (
	// DefaultQueueCapacity bounds the number of pending output items.
	DefaultQueueCapacity = 1024

	// DefaultPollTimeout is the per-poll wait used when draining output.
	DefaultPollTimeout = 100 * time.Millisecond

	// DefaultStderrPrefix marks every line that came from the child's
	// standard error stream.
	DefaultStderrPrefix = "STDERR=> "
)

// Options configures a Wrapper. Immutable after construction.
type Options struct {
	// Executable is the program to run. Required.
	Executable string

	// Args are the command-line arguments passed to the executable.
	Args []string

	// Workdir is the child's working directory. When set it must exist.
	Workdir string

	// Encoding is the child's text encoding: empty or "utf-8" for UTF-8,
	// any IANA charset label, or EncodingAuto to sniff the first chunk.
	Encoding string

	// AutoStart spawns the child during New. NewCommand sets it.
	AutoStart bool

	// HideWindow suppresses the console window on Windows. Ignored
	// elsewhere.
	HideWindow bool

	// StderrPrefix overrides DefaultStderrPrefix.
	StderrPrefix string

	// QueueCapacity overrides DefaultQueueCapacity.
	QueueCapacity int

	// Logger receives reader diagnostics and lifecycle events.
	Logger *logging.Logger
}

// NewCommand returns Options for the given command line with the defaults
// a typical caller wants: UTF-8 and an immediately started child.
func NewCommand(executable string, args ...string) Options {
	return Options{
		Executable: executable,
		Args:       args,
		AutoStart:  true,
	}
}

// child is one spawned generation of the wrapped process. Readers bind to
// a child, never to the Wrapper, so a restart cannot leak stale output
// into the new generation's queue.
type child struct {
	gen     uint64
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	queue   *Queue
	exited  chan struct{}
	handled map[Channel]bool
}

// running reports whether this generation is live: spawned and not yet
// observed to exit.
func (c *child) running() bool {
	if c == nil {
		return false
	}
	select {
	case <-c.exited:
		return false
	default:
		return true
	}
}

// Wrapper runs a command line application with stdin, stdout and stderr
// redirected through pipes, reading both output streams asynchronously.
// It is safe for concurrent use.
type Wrapper struct {
	opts Options
	log  *logging.Logger

	mu  sync.Mutex
	cur *child
	gen uint64
}

// New validates the options and creates a Wrapper. With AutoStart set the
// child is spawned before New returns.
func New(opts Options) (*Wrapper, error) {
	if opts.Executable == "" {
		return nil, errors.New("wrapper: executable is required")
	}
	if opts.Workdir != "" {
		info, err := os.Stat(opts.Workdir)
		if err != nil || !info.IsDir() {
			return nil, fmt.Errorf("working directory %q does not exist", opts.Workdir)
		}
	}
	if !strings.EqualFold(strings.TrimSpace(opts.Encoding), EncodingAuto) {
		if _, _, err := transformerFor(opts.Encoding); err != nil {
			return nil, err
		}
	}
	if opts.QueueCapacity <= 0 {
		opts.QueueCapacity = DefaultQueueCapacity
	}
	if opts.StderrPrefix == "" {
		opts.StderrPrefix = DefaultStderrPrefix
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewDefault()
	}

	w := &Wrapper{opts: opts, log: opts.Logger}
	if opts.AutoStart {
		if err := w.Start(); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// Options returns a copy of the wrapper's configuration.
func (w *Wrapper) Options() Options {
	return w.opts
}

// Start spawns a fresh child process and attaches one reader per output
// channel. It fails with ErrAlreadyRunning when a live child exists.
func (w *Wrapper) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cur.running() {
		return ErrAlreadyRunning
	}

	cmd := exec.Command(w.opts.Executable, w.opts.Args...)
	cmd.Dir = w.opts.Workdir
	cmd.SysProcAttr = sysProcAttr(w.opts.HideWindow)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("open stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("open stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("open stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start %s: %w", w.opts.Executable, err)
	}

	w.gen++
	c := &child{
		gen:     w.gen,
		cmd:     cmd,
		stdin:   stdin,
		queue:   NewQueue(w.opts.QueueCapacity),
		exited:  make(chan struct{}),
		handled: make(map[Channel]bool),
	}
	w.cur = c
	go w.reap(c)

	if err := w.attach(c, Stdout, stdout); err != nil {
		return err
	}
	if err := w.attach(c, Stderr, stderr); err != nil {
		return err
	}

	w.log.Info("child started",
		zap.String("executable", w.opts.Executable),
		zap.Int("pid", cmd.Process.Pid),
		zap.Uint64("generation", c.gen))
	return nil
}

// attach binds a reader to one output channel of the given generation.
// At most one reader may exist per channel per generation.
func (w *Wrapper) attach(c *child, channel Channel, stream io.Reader) error {
	if c.handled[channel] {
		return fmt.Errorf("%s: %w", channel, ErrChannelHandled)
	}
	decoded, err := NewDecodingReader(stream, w.opts.Encoding)
	if err != nil {
		return err
	}
	r := &reader{
		channel:  channel,
		encoding: w.opts.Encoding,
		stream:   decoded,
		queue:    c.queue,
		alive:    w.aliveFunc(c),
		log:      w.log.WithChannel(channel.String()),
	}
	c.handled[channel] = true
	go r.run()
	return nil
}

// aliveFunc returns the liveness check a reader polls each iteration: its
// generation must still be the active one and the process not yet exited.
func (w *Wrapper) aliveFunc(c *child) func() bool {
	return func() bool {
		w.mu.Lock()
		cur := w.cur
		w.mu.Unlock()
		return cur == c && c.running()
	}
}

// reap waits for the child to exit and records the fact. The exited
// channel is the liveness signal readers and the façade poll; no explicit
// cancellation is ever sent.
func (w *Wrapper) reap(c *child) {
	err := c.cmd.Wait()
	close(c.exited)

	code := -1
	if c.cmd.ProcessState != nil {
		code = c.cmd.ProcessState.ExitCode()
	}
	if err != nil {
		w.log.Debug("child exited",
			zap.Uint64("generation", c.gen),
			zap.Int("code", code),
			zap.Error(err))
		return
	}
	w.log.Debug("child exited",
		zap.Uint64("generation", c.gen),
		zap.Int("code", code))
}

// current returns the active generation, which may be nil or exited.
func (w *Wrapper) current() *child {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.cur
}

// IsRunning reports whether a live child exists. It polls; it never blocks.
func (w *Wrapper) IsRunning() bool {
	return w.current().running()
}

// PID returns the child's process ID, or -1 when no child is live.
func (w *Wrapper) PID() int {
	c := w.current()
	if !c.running() || c.cmd.Process == nil {
		return -1
	}
	return c.cmd.Process.Pid
}

// Stop sends a graceful terminate signal and blocks until the child is
// reaped, then clears the handle. Readers observe the dead generation on
// their next check and exit on their own.
func (w *Wrapper) Stop() error {
	w.mu.Lock()
	c := w.cur
	if !c.running() {
		w.mu.Unlock()
		return ErrNotRunning
	}
	w.mu.Unlock()

	// The child may exit between the liveness check and the signal; that
	// still counts as stopped.
	if err := terminate(c.cmd.Process); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return fmt.Errorf("terminate pid %d: %w", c.cmd.Process.Pid, err)
	}
	<-c.exited

	w.mu.Lock()
	if w.cur == c {
		w.cur = nil
	}
	w.mu.Unlock()
	return nil
}

// Kill force-terminates the child immediately (SIGKILL on POSIX, forced
// termination on Windows) without waiting for a graceful shutdown.
func (w *Wrapper) Kill() error {
	c := w.current()
	if !c.running() {
		return ErrNotRunning
	}
	if err := c.cmd.Process.Kill(); err != nil {
		return fmt.Errorf("kill pid %d: %w", c.cmd.Process.Pid, err)
	}
	return nil
}

// RunCommand writes the command plus a trailing newline to the child's
// stdin, encoded per the configured encoding.
func (w *Wrapper) RunCommand(command string) error {
	c := w.current()
	if !c.running() {
		return ErrNotRunning
	}
	data, err := encodeLine(command, w.opts.Encoding)
	if err != nil {
		return err
	}
	if _, err := c.stdin.Write(data); err != nil {
		return fmt.Errorf("write command: %w", err)
	}
	return nil
}

// Drain returns all output items currently available, polling the queue
// with the given per-poll timeout until it stays empty for one interval.
// A non-positive timeout means DefaultPollTimeout.
//
// Drain returns only what has arrived so far; a child still producing
// output needs further calls.
func (w *Wrapper) Drain(timeout time.Duration) ([]Item, error) {
	c := w.current()
	if !c.running() {
		return nil, ErrNotRunning
	}
	if timeout <= 0 {
		timeout = DefaultPollTimeout
	}

	var items []Item
	for c.running() {
		item, ok := c.queue.Get(timeout)
		if !ok {
			break
		}
		items = append(items, item)
	}
	return items, nil
}

// GetOutput drains all currently available output and returns it as one
// string, with every stderr line carrying the configured marker.
func (w *Wrapper) GetOutput(timeout time.Duration) (string, error) {
	items, err := w.Drain(timeout)
	if err != nil {
		return "", err
	}
	return w.FormatItems(items), nil
}

// Communicate optionally sends a command, then drains and returns the
// available output.
func (w *Wrapper) Communicate(command string) (string, error) {
	if command != "" {
		if err := w.RunCommand(command); err != nil {
			return "", err
		}
	}
	return w.GetOutput(DefaultPollTimeout)
}

// FormatItems concatenates items, marking stderr text line by line.
func (w *Wrapper) FormatItems(items []Item) string {
	var b strings.Builder
	for _, item := range items {
		b.WriteString(w.formatItem(item))
	}
	return b.String()
}

// formatItem prefixes stderr text with the marker, repeated after every
// embedded newline so multi-line blocks are fully marked.
func (w *Wrapper) formatItem(item Item) string {
	if item.Channel != Stderr {
		return item.Text
	}
	return w.opts.StderrPrefix + strings.ReplaceAll(item.Text, "\n", "\n"+w.opts.StderrPrefix)
}

// WithRunning brackets fn between an auto-start and a guaranteed stop:
// the child is started if not already running, and stopped on return if
// still running.
func (w *Wrapper) WithRunning(fn func(*Wrapper) error) error {
	if !w.IsRunning() {
		if err := w.Start(); err != nil {
			return err
		}
	}
	defer func() {
		if w.IsRunning() {
			_ = w.Stop()
		}
	}()
	return fn(w)
}

// Close stops the child if it is still running, swallowing the
// not-running case. It satisfies io.Closer for use with defer.
func (w *Wrapper) Close() error {
	if err := w.Stop(); err != nil && !errors.Is(err, ErrNotRunning) {
		return err
	}
	return nil
}
