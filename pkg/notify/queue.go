// Package notify drains proactive agent notifications from the shared queue
// file (and optionally the agent API) on a fixed interval.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"alexterm/pkg/protocol"
)

// emptyQueue is what a drained queue file contains.
var emptyQueue = []byte("[]") //nolint:gochecknoglobals // constant byte slice

// Queue is the file-backed mailbox the external scheduler appends to. The
// client never adds records; it only reads and empties the file. Access is
// not exclusive: a missing, empty or half-written file is a valid state.
type Queue struct {
	path string
}

// NewQueue returns a Queue for the file at path.
func NewQueue(path string) *Queue {
	return &Queue{path: path}
}

// Path returns the queue file location.
func (q *Queue) Path() string { return q.path }

// Fetch implements Source by draining the queue.
func (q *Queue) Fetch(_ context.Context) ([]protocol.Notification, error) {
	return q.Drain()
}

// Drain reads every record, oldest first, and empties the file. It returns
// nil without error when there is nothing to deliver. A file that does not
// parse (e.g. caught mid-write) is left untouched and reported as a
// *protocol.QueueReadError.
func (q *Queue) Drain() ([]protocol.Notification, error) {
	data, err := os.ReadFile(q.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, &protocol.QueueReadError{Path: q.path, Err: err}
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	var records []protocol.Notification
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &protocol.QueueReadError{Path: q.path, Err: err}
	}
	if len(records) == 0 {
		return nil, nil
	}

	// The producer may have appended since the first read. Leave the file for
	// the next tick rather than drop its new record.
	again, err := os.ReadFile(q.path)
	if err != nil || !bytes.Equal(bytes.TrimSpace(again), data) {
		return nil, nil
	}
	if err := q.truncate(); err != nil {
		return nil, &protocol.QueueReadError{Path: q.path, Err: err}
	}

	out := records[:0]
	for _, r := range records {
		if r.Message() != "" {
			out = append(out, r)
		}
	}
	return out, nil
}

// truncate atomically replaces the queue with an empty list.
func (q *Queue) truncate() error {
	dir := filepath.Dir(q.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(q.path)+".*")
	if err != nil {
		return fmt.Errorf("create temp queue: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(emptyQueue); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp queue: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp queue: %w", err)
	}
	if err := os.Rename(tmpPath, q.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace queue: %w", err)
	}
	return nil
}
