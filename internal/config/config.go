// Package config loads service configuration from the environment and
// per-workspace wrapper settings from a TOML file.
package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all service configuration.
type Config struct {
	Server     ServerConfig
	Logging    LogConfig
	Wrapper    WrapperConfig
	Completion CompletionConfig
	Pool       PoolConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host string `envconfig:"HOST" default:"0.0.0.0"`
	Port string `envconfig:"PORT" default:"8090"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// WrapperConfig holds defaults applied to every wrapper session.
type WrapperConfig struct {
	QueueCapacity int           `envconfig:"WRAPPER_QUEUE_CAPACITY" default:"1024"`
	PollTimeout   time.Duration `envconfig:"WRAPPER_POLL_TIMEOUT" default:"100ms"`
}

// CompletionConfig holds completion index configuration.
type CompletionConfig struct {
	Root            string        `envconfig:"COMPLETION_ROOT" default:"."`
	RebuildInterval time.Duration `envconfig:"COMPLETION_REBUILD_INTERVAL" default:"30s"`
}

// PoolConfig holds worker pool configuration.
type PoolConfig struct {
	Workers int `envconfig:"POOL_WORKERS" default:"8"`
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: "8090",
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		Wrapper: WrapperConfig{
			QueueCapacity: 1024,
			PollTimeout:   100 * time.Millisecond,
		},
		Completion: CompletionConfig{
			Root:            ".",
			RebuildInterval: 30 * time.Second,
		},
		Pool: PoolConfig{
			Workers: 8,
		},
	}
}
