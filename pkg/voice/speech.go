package voice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"alexterm/pkg/protocol"
)

// MaxSpeechChars is the synthesis API's input limit.
const MaxSpeechChars = 4096

// playTimeout bounds a single player invocation.
const playTimeout = 60 * time.Second

// Synthesizer converts text to encoded speech audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (io.ReadCloser, error)
}

// Player plays an audio file on a sink. An empty sink means the default.
type Player interface {
	Play(ctx context.Context, path, sink string) error
}

// errNoPlayer is reported when neither mpg123 nor ffplay is installed.
var errNoPlayer = errors.New("no audio player found (install mpg123 or ffmpeg)")

// ExecPlayer implements Player with pactl, mpg123 and ffplay.
type ExecPlayer struct {
	Runner Runner
}

// Play routes output to sink when given, then plays path with mpg123,
// falling back to ffplay.
func (p *ExecPlayer) Play(ctx context.Context, path, sink string) error {
	if sink != "" {
		if _, stderr, err := p.Runner.Run(ctx, "pactl", "set-default-sink", sink); err != nil {
			slog.Warn("set default sink failed", "sink", sink, "err", err, "stderr", strings.TrimSpace(stderr))
		}
	}

	ctx, cancel := context.WithTimeout(ctx, playTimeout)
	defer cancel()

	_, _, err := p.Runner.Run(ctx, "mpg123", "-q", path)
	if err == nil {
		return nil
	}
	slog.Debug("mpg123 failed, trying ffplay", "err", err)

	_, stderr, err := p.Runner.Run(ctx, "ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", path)
	if err == nil {
		return nil
	}
	if errors.Is(err, exec.ErrNotFound) {
		return &protocol.PlaybackError{Sink: sink, Err: errNoPlayer}
	}
	if stderr = strings.TrimSpace(stderr); stderr != "" {
		return &protocol.PlaybackError{Sink: sink, Err: errors.New(stderr)}
	}
	return &protocol.PlaybackError{Sink: sink, Err: err}
}

// SinkResolver maps an output selector to a sink name at play time.
type SinkResolver func(ctx context.Context, sel OutputSelector) string

// SpeechWorker synthesizes text and plays it. It blocks until playback ends
// and must run off the interactive goroutine.
type SpeechWorker struct {
	synth    Synthesizer
	player   Player
	resolve  SinkResolver
	tmpDir   string
	maxChars int
}

// SpeechOption configures a SpeechWorker.
type SpeechOption func(*SpeechWorker)

// WithSinkResolver sets how output selectors become sink names.
func WithSinkResolver(r SinkResolver) SpeechOption {
	return func(w *SpeechWorker) { w.resolve = r }
}

// WithSpeechTempDir sets where synthesized audio is written.
func WithSpeechTempDir(dir string) SpeechOption {
	return func(w *SpeechWorker) { w.tmpDir = dir }
}

// NewSpeechWorker creates a SpeechWorker.
func NewSpeechWorker(synth Synthesizer, player Player, opts ...SpeechOption) *SpeechWorker {
	w := &SpeechWorker{
		synth:    synth,
		player:   player,
		maxChars: MaxSpeechChars,
		resolve: func(_ context.Context, sel OutputSelector) string {
			if sel.Sink == SinkBluetooth {
				return ""
			}
			return sel.Sink
		},
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// SynthesizeAndPlay speaks text on the sink chosen by out. Errors are
// *protocol.SynthesisError or *protocol.PlaybackError.
func (w *SpeechWorker) SynthesizeAndPlay(ctx context.Context, text string, out OutputSelector) error {
	text = truncateRunes(strings.TrimSpace(text), w.maxChars)
	if text == "" {
		return nil
	}

	audio, err := w.synth.Synthesize(ctx, text)
	if err != nil {
		var se *protocol.SynthesisError
		if errors.As(err, &se) {
			return err
		}
		return &protocol.SynthesisError{Err: err}
	}
	defer audio.Close()

	f, err := os.CreateTemp(w.tmpDir, "alexterm-*.mp3")
	if err != nil {
		return &protocol.PlaybackError{Err: err}
	}
	path := f.Name()
	defer os.Remove(path)

	_, copyErr := io.Copy(f, audio)
	closeErr := f.Close()
	if copyErr != nil {
		return &protocol.SynthesisError{Err: copyErr}
	}
	if closeErr != nil {
		return &protocol.PlaybackError{Err: closeErr}
	}

	sink := w.resolve(ctx, out)
	if err := w.player.Play(ctx, path, sink); err != nil {
		var pe *protocol.PlaybackError
		if errors.As(err, &pe) {
			return err
		}
		return &protocol.PlaybackError{Sink: sink, Err: err}
	}
	return nil
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
