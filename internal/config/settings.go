package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Settings describes one wrapped command line, loaded from a TOML file.
// It is the per-workspace counterpart of the environment Config: which
// program to run, where, and how to decode it.
type Settings struct {
	// Executable is the program to wrap. Required.
	Executable string `toml:"executable"`

	// Args are extra command-line arguments.
	Args []string `toml:"args"`

	// Workdir is the child's working directory. Must exist when set.
	Workdir string `toml:"workdir"`

	// Encoding is the child's text encoding label, default UTF-8.
	Encoding string `toml:"encoding"`

	// StderrPrefix overrides the stderr line marker.
	StderrPrefix string `toml:"stderr_prefix"`

	// HideWindow suppresses the console window on Windows.
	HideWindow bool `toml:"hide_window"`

	// Ignore holds doublestar patterns excluded from completion entries.
	Ignore []string `toml:"ignore"`
}

// LoadSettings reads and validates a TOML settings file.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}

	var s Settings
	if err := toml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("settings %s: %w", path, err)
	}
	return &s, nil
}

// Validate checks the settings for the mistakes a user can actually make.
func (s *Settings) Validate() error {
	if s.Executable == "" {
		return fmt.Errorf("executable is required")
	}
	if s.Workdir != "" {
		info, err := os.Stat(s.Workdir)
		if err != nil || !info.IsDir() {
			return fmt.Errorf("workdir %q does not exist", s.Workdir)
		}
	}
	return nil
}
