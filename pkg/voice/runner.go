// Package voice records and transcribes microphone input and plays
// synthesized speech. Audio hardware is driven through the ALSA and
// PulseAudio command-line tools; speech services go through the OpenAI API.
package voice

import (
	"context"
	"os/exec"
	"strings"
)

// Runner abstracts external command invocation for testing.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error)
}

// ExecRunner implements Runner using os/exec.
type ExecRunner struct{}

// Run executes name with args and returns stdout and stderr.
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (stdout, stderr string, err error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdoutBuf, stderrBuf strings.Builder
	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf

	err = cmd.Run()
	return stdoutBuf.String(), stderrBuf.String(), err
}
