// Package config resolves runtime options for tradebutler from defaults
// and environment variables. Command-line flags parsed by the individual
// subcommands take precedence over both.
package config

import (
	"fmt"
	"os"
	"path/filepath"
)

const dbFileName = "tradebutler.db"

// Options holds the configuration values for the application.
type Options struct {
	// Addr is the listen address of the local RPC server.
	Addr string

	// DataDir is the directory holding the database file.
	DataDir string

	// LogLevel controls logging verbosity.
	LogLevel string
}

// Load resolves options from environment variables over built-in defaults.
// The default data directory is the per-user config dir.
func Load() (*Options, error) {
	opts := &Options{
		Addr:     "127.0.0.1:7895",
		LogLevel: "info",
	}

	if addr := os.Getenv("TRADEBUTLER_ADDR"); addr != "" {
		opts.Addr = addr
	}
	if level := os.Getenv("TRADEBUTLER_LOG_LEVEL"); level != "" {
		opts.LogLevel = level
	}

	if dir := os.Getenv("TRADEBUTLER_DATA_DIR"); dir != "" {
		opts.DataDir = dir
	} else {
		base, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve user config dir: %w", err)
		}
		opts.DataDir = filepath.Join(base, "tradebutler")
	}

	return opts, nil
}

// DatabasePath returns the path of the database file, creating the data
// directory if needed.
func (o *Options) DatabasePath() (string, error) {
	if err := os.MkdirAll(o.DataDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}
	return filepath.Join(o.DataDir, dbFileName), nil
}
