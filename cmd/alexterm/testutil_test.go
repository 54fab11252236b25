package main

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"alexterm/pkg/conversation"
	"alexterm/pkg/protocol"
)

// fakeSession is an in-memory sessionView. Submitted text is logged as a
// USER entry followed by reply(text) as an AGENT entry when reply is set.
type fakeSession struct {
	mu        sync.Mutex
	entries   []protocol.Entry
	state     conversation.SessionState
	submitted []string
	mics      int
	toggles   int
	clears    int
	reply     func(string) string

	updates chan struct{}
	done    chan struct{}
}

func newFakeSession() *fakeSession {
	return &fakeSession{
		updates: make(chan struct{}, 1),
		done:    make(chan struct{}),
		state:   conversation.SessionState{VoiceEnabled: true},
	}
}

func (f *fakeSession) signal() {
	select {
	case f.updates <- struct{}{}:
	default:
	}
}

func (f *fakeSession) add(role protocol.Role, text string) {
	f.mu.Lock()
	f.entries = append(f.entries, protocol.Entry{Role: role, Text: text, Timestamp: time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)})
	f.mu.Unlock()
	f.signal()
}

func (f *fakeSession) Entries() []protocol.Entry {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]protocol.Entry(nil), f.entries...)
}

func (f *fakeSession) State() conversation.SessionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSession) Updates() <-chan struct{} { return f.updates }
func (f *fakeSession) Done() <-chan struct{}    { return f.done }

func (f *fakeSession) Submit(text string) {
	f.mu.Lock()
	f.submitted = append(f.submitted, text)
	reply := f.reply
	f.mu.Unlock()
	f.add(protocol.RoleUser, text)
	if reply != nil {
		f.add(protocol.RoleAgent, reply(text))
	}
}

func (f *fakeSession) PressMic() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mics++
}

func (f *fakeSession) ToggleVoice() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.toggles++
	f.state.VoiceEnabled = !f.state.VoiceEnabled
	return f.state.VoiceEnabled
}

func (f *fakeSession) ClearLog() {
	f.mu.Lock()
	f.clears++
	f.entries = nil
	f.mu.Unlock()
	f.signal()
}

func (f *fakeSession) StatusSummary() string { return f.State().Summary() }

// fakeRunner answers commands keyed by "name" or "name arg0".
type fakeRunner struct {
	out map[string]string
}

func (r *fakeRunner) Run(_ context.Context, name string, args ...string) (string, string, error) {
	key := name
	if len(args) > 0 {
		key = name + " " + strings.Join(args, " ")
	}
	for k, v := range r.out {
		if strings.HasPrefix(key, k) {
			return v, "", nil
		}
	}
	return "", "not found", errors.New("exit status 1")
}
