// Command repl runs one wrapped command line interactively on the local
// terminal: stdin lines go to the child, drained output is printed with
// stderr lines marked. "!p" and "!n" recall history entries.
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cliwrap/cliwrap/internal/config"
	"github.com/cliwrap/cliwrap/internal/history"
	"github.com/cliwrap/cliwrap/internal/logging"
	"github.com/cliwrap/cliwrap/internal/wrapper"
)

func main() {
	settingsPath := flag.String("settings", "", "TOML settings file describing the wrapped command")
	executable := flag.String("exec", "", "executable to wrap (overrides settings)")
	workdir := flag.String("workdir", "", "working directory (overrides settings)")
	encoding := flag.String("encoding", "", "child text encoding (overrides settings)")
	flag.Parse()

	opts, err := buildOptions(*settingsPath, *executable, *workdir, *encoding, flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	opts.Logger = logging.NewNop() // keep the terminal clean for child output

	w, err := wrapper.New(opts)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer w.Close()

	hist := history.New()
	done := make(chan struct{})
	go pump(w, done)

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := scanner.Text()
		switch strings.TrimSpace(line) {
		case "":
			continue
		case "!p":
			if cmd, ok := hist.Prev(); ok {
				fmt.Printf("(history) %s\n", cmd)
			}
			continue
		case "!n":
			if cmd, ok := hist.Next(); ok {
				fmt.Printf("(history) %s\n", cmd)
			}
			continue
		}

		hist.Add(strings.Trim(line, "\n"))
		if err := w.RunCommand(line); err != nil {
			if errors.Is(err, wrapper.ErrNotRunning) {
				fmt.Println("process terminated")
				return
			}
			fmt.Fprintln(os.Stderr, err)
			return
		}
	}
	close(done)
}

// pump polls the wrapper and prints whatever arrived, stopping with a
// one-line status once the child is gone.
func pump(w *wrapper.Wrapper, done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
		}

		text, err := w.GetOutput(100 * time.Millisecond)
		if err != nil {
			fmt.Println("process terminated")
			return
		}
		if text != "" {
			fmt.Print(text)
		}
	}
}

// buildOptions merges the settings file with command-line overrides.
func buildOptions(settingsPath, executable, workdir, encoding string, extraArgs []string) (wrapper.Options, error) {
	var opts wrapper.Options
	if settingsPath != "" {
		s, err := config.LoadSettings(settingsPath)
		if err != nil {
			return opts, err
		}
		opts = wrapper.Options{
			Executable:   s.Executable,
			Args:         s.Args,
			Workdir:      s.Workdir,
			Encoding:     s.Encoding,
			StderrPrefix: s.StderrPrefix,
			HideWindow:   s.HideWindow,
		}
	}
	if executable != "" {
		opts.Executable = executable
	}
	if workdir != "" {
		opts.Workdir = workdir
	}
	if encoding != "" {
		opts.Encoding = encoding
	}
	opts.Args = append(opts.Args, extraArgs...)
	opts.AutoStart = true

	if opts.Executable == "" {
		return opts, errors.New("no executable: pass -exec or a settings file")
	}
	return opts, nil
}
