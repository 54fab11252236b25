package notify //nolint:testpackage // white-box test needs internal access

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"alexterm/pkg/protocol"
)

func writeQueue(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write queue: %v", err)
	}
}

func TestDrain_DeliversInOrderAndEmpties(t *testing.T) {
	path := filepath.Join(t.TempDir(), protocol.QueueFile)
	writeQueue(t, path, `[{"text":"Market up 2%","produced_at":"2026-10-19T08:00:00Z"},{"text":"Briefing ready"}]`)

	got, err := NewQueue(path).Drain()
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(got))
	}
	if got[0].Message() != "Market up 2%" || got[1].Message() != "Briefing ready" {
		t.Errorf("unexpected order: %+v", got)
	}

	// Assert: queue is empty after the drain
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read queue: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("expected drained queue '[]', got %q", data)
	}
	again, err := NewQueue(path).Drain()
	if err != nil || len(again) != 0 {
		t.Errorf("second drain = %v, %v; want empty", again, err)
	}
}

func TestDrain_NoOpStates(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		content *string
	}{
		{"missing file", nil},
		{"empty file", ptr("")},
		{"empty list", ptr("[]")},
		{"whitespace", ptr("  \n")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".json")
			if tt.content != nil {
				writeQueue(t, path, *tt.content)
			}
			got, err := NewQueue(path).Drain()
			if err != nil || got != nil {
				t.Errorf("Drain() = %v, %v; want nil, nil", got, err)
			}
		})
	}
}

func TestDrain_MidWriteLeavesFileAlone(t *testing.T) {
	path := filepath.Join(t.TempDir(), protocol.QueueFile)
	partial := `[{"text":"Market up 2%"},{"te`
	writeQueue(t, path, partial)

	_, err := NewQueue(path).Drain()
	var qe *protocol.QueueReadError
	if !errors.As(err, &qe) {
		t.Fatalf("expected QueueReadError, got %v", err)
	}

	data, _ := os.ReadFile(path)
	if string(data) != partial {
		t.Errorf("partial queue was modified: %q", data)
	}
}

func TestDrain_SkipsEmptyRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), protocol.QueueFile)
	writeQueue(t, path, `[{"title":"ALEX","body":""},{"title":"Heartbeat","body":"Gold steady"}]`)

	got, err := NewQueue(path).Drain()
	if err != nil {
		t.Fatalf("Drain failed: %v", err)
	}
	if len(got) != 1 || got[0].Display() != "[Heartbeat] Gold steady" {
		t.Errorf("unexpected records %+v", got)
	}
}

func ptr(s string) *string { return &s }
