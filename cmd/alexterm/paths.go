package main

import (
	"fmt"
	"os"
	"path/filepath"

	"alexterm/pkg/protocol"
)

// Paths holds all resolved client state file paths.
// Use ResolvePaths() to populate this struct with defaults + env overrides.
type Paths struct {
	Home       string // ~/.alex or ALEX_HOME
	ConfigPath string // terminal.toml
	PrefsPath  string // terminal-prefs.toml
	LogPath    string // terminal.log
	QueuePath  string // terminal-queue.json or ALEX_QUEUE_PATH
	MarkerPath string // terminal-active or ALEX_MARKER_PATH
	EnvFile    string // ~/.env
}

// ResolvePaths returns all client paths, respecting env var overrides.
// Environment variables:
//   - ALEX_HOME: base directory for client state (default: ~/.alex)
//   - ALEX_QUEUE_PATH: notification queue file (default: $ALEX_HOME/terminal-queue.json)
//   - ALEX_MARKER_PATH: session marker file (default: $ALEX_HOME/terminal-active)
//
// The queue and marker paths are shared with the agent host, so they are the
// only ones that can be moved individually.
func ResolvePaths() (*Paths, error) {
	userHome, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("get home dir: %w", err)
	}

	home := os.Getenv("ALEX_HOME")
	if home == "" {
		home = filepath.Join(userHome, protocol.AlexDir)
	}

	return &Paths{
		Home:       home,
		ConfigPath: filepath.Join(home, protocol.ConfigFile),
		PrefsPath:  filepath.Join(home, protocol.PrefsFile),
		LogPath:    filepath.Join(home, protocol.LogFile),
		QueuePath:  resolvePathWithEnv("ALEX_QUEUE_PATH", home, protocol.QueueFile),
		MarkerPath: resolvePathWithEnv("ALEX_MARKER_PATH", home, protocol.MarkerFile),
		EnvFile:    filepath.Join(userHome, ".env"),
	}, nil
}

// resolvePathWithEnv returns the path from envKey if set, otherwise joins base + suffix.
func resolvePathWithEnv(envKey, base, suffix string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return filepath.Join(base, suffix)
}
