package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
)

// MarkerStatusValue describes what the marker file says about a session.
type MarkerStatusValue string

const (
	// StatusRunning means the marker exists and its process is alive.
	StatusRunning MarkerStatusValue = "running"
	// StatusStopped means no marker exists.
	StatusStopped MarkerStatusValue = "stopped"
	// StatusStale means the marker exists but its process is dead.
	StatusStale MarkerStatusValue = "stale"
)

// WriteMarker announces an active session by writing pid to path.
// It creates parent directories as needed.
func WriteMarker(path string, pid int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create marker dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)), 0o600); err != nil {
		return fmt.Errorf("write marker %s: %w", path, err)
	}
	return nil
}

// ReadMarker reads the PID recorded in the marker file.
func ReadMarker(path string) (int, error) {
	data, err := os.ReadFile(path) //nolint:gosec // marker path is controlled by the application
	if err != nil {
		return 0, fmt.Errorf("read marker %s: %w", path, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse PID from %s: %w", path, err)
	}
	return pid, nil
}

// RemoveMarker removes the marker file. It is idempotent: no error if the
// file does not exist.
func RemoveMarker(path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove marker %s: %w", path, err)
	}
	return nil
}

// IsProcessAlive checks whether a process with the given PID is running.
// On Unix, sending signal 0 checks for existence without actually signaling.
func IsProcessAlive(pid int) bool {
	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return proc.Signal(syscall.Signal(0)) == nil
}

// MarkerStatus checks the marker file and process liveness.
// Returns the status, the PID (0 if stopped), and any unexpected error.
func MarkerStatus(path string) (status MarkerStatusValue, pid int, err error) {
	pid, err = ReadMarker(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return StatusStopped, 0, nil
		}
		return StatusStopped, 0, fmt.Errorf("marker status: %w", err)
	}
	if IsProcessAlive(pid) {
		return StatusRunning, pid, nil
	}
	return StatusStale, pid, nil
}

// SetupSignalHandler installs a SIGTERM/SIGINT/SIGHUP handler that cancels
// the returned context when a signal is received. The cleanup function
// removes the marker file; callers should defer it so the marker is the last
// thing to go.
func SetupSignalHandler(parent context.Context, markerPath string) (shutdownCtx context.Context, cleanup func()) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGHUP)

	go func() {
		select {
		case <-sigCh:
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	cleanup = func() {
		cancel()
		_ = RemoveMarker(markerPath)
	}
	return ctx, cleanup
}
