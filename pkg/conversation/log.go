package conversation

import (
	"sync"

	"alexterm/pkg/protocol"
)

// Log is the append-only conversation timeline. Readers may call Entries
// and Len from any goroutine; only the owning Controller appends or clears.
type Log struct {
	mu      sync.RWMutex
	entries []protocol.Entry
}

// append adds e atomically and returns the new length.
func (l *Log) append(e protocol.Entry) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, e)
	return len(l.entries)
}

// clear replaces the timeline with an empty one.
func (l *Log) clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}

// Entries returns a copy of the timeline in append order.
func (l *Log) Entries() []protocol.Entry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]protocol.Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
