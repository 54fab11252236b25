package notify

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDuration coalesces bursts of queue file events into one hint.
const debounceDuration = 100 * time.Millisecond

// initWatcher creates a watcher on the directory holding the queue file.
// Returns nil if initialization fails; the poller then runs on its ticker
// alone.
func initWatcher(queuePath string) *fsnotify.Watcher {
	dir := filepath.Dir(queuePath)
	if _, err := os.Stat(dir); err != nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Debug("fsnotify: failed to create watcher, polling only", "err", err)
		return nil
	}
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		slog.Debug("fsnotify: failed to watch queue dir, polling only", "dir", dir, "err", err)
		return nil
	}
	return watcher
}

// isQueueEvent reports whether ev touches the queue file with new content.
func isQueueEvent(ev fsnotify.Event, queuePath string) bool {
	if filepath.Clean(ev.Name) != filepath.Clean(queuePath) {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create)
}

// newDebounceTimer creates a stopped timer.
func newDebounceTimer() *time.Timer {
	timer := time.NewTimer(0)
	if !timer.Stop() {
		<-timer.C
	}
	return timer
}

// resetDebounceTimer restarts the debounce window.
func resetDebounceTimer(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
	timer.Reset(debounceDuration)
}
