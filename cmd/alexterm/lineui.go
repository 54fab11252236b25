package main

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"alexterm/pkg/protocol"
)

// formatLine renders an entry for the plain line interface.
func formatLine(e protocol.Entry) string {
	ts := e.Timestamp.Format("15:04")
	switch e.Role {
	case protocol.RoleUser:
		return fmt.Sprintf("[%s] You: %s", ts, e.Text)
	case protocol.RoleAgent:
		return fmt.Sprintf("[%s] ALEX: %s", ts, e.Text)
	default:
		return fmt.Sprintf("[%s] * %s", ts, e.Text)
	}
}

// runLines is the interface used when stdin or stdout is not a terminal.
// Each input line is submitted as typed; new log entries are printed as they
// appear. At end of input it waits for outstanding replies and speech.
func runLines(ctx context.Context, s sessionView, in io.Reader, out io.Writer) error {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	printed := 0
	flush := func() {
		entries := s.Entries()
		if len(entries) < printed {
			printed = 0
		}
		for _, e := range entries[printed:] {
			fmt.Fprintln(out, formatLine(e))
		}
		printed = len(entries)
	}
	idle := func() bool {
		st := s.State()
		return st.Pending == 0 && !st.AudioBusy
	}

	eof := false
	for {
		select {
		case <-ctx.Done():
			flush()
			return nil
		case <-s.Done():
			flush()
			return nil
		case <-s.Updates():
			flush()
		case line, ok := <-lines:
			if !ok {
				eof, lines = true, nil
				// Every submitted line has been applied once this returns.
				s.StatusSummary()
				flush()
			} else {
				s.Submit(line)
			}
		}
		if eof && idle() {
			flush()
			return nil
		}
	}
}
