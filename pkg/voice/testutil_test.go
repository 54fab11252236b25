package voice //nolint:testpackage // white-box test needs internal access

import (
	"context"
	"strings"
	"sync"
)

// fakeResult is the canned outcome of one command.
type fakeResult struct {
	stdout, stderr string
	err            error
}

// fakeRunner records invocations and answers from a table keyed by the
// command name (or "name arg0" when that key is present).
type fakeRunner struct {
	mu      sync.Mutex
	calls   [][]string
	results map[string]fakeResult
}

func newFakeRunner(results map[string]fakeResult) *fakeRunner {
	return &fakeRunner{results: results}
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, append([]string{name}, args...))

	key := name
	if len(args) > 0 {
		if _, ok := f.results[name+" "+args[0]]; ok {
			key = name + " " + args[0]
		}
	}
	r := f.results[key]
	return r.stdout, r.stderr, r.err
}

func (f *fakeRunner) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.calls))
	for _, c := range f.calls {
		out = append(out, strings.Join(c, " "))
	}
	return out
}
