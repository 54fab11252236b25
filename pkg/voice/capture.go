package voice

import (
	"context"
	"errors"
	"math"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"alexterm/pkg/protocol"
)

// MinClipBytes is the smallest recording worth transcribing; anything
// shorter is treated as silence.
const MinClipBytes = 1000

// minTranscriptLen is the shortest transcript accepted as speech.
const minTranscriptLen = 2

// recordGrace is added to the recording duration before arecord is killed.
const recordGrace = 3 * time.Second

// Recorder records a fixed-length clip into path.
type Recorder interface {
	Record(ctx context.Context, dev InputDevice, d time.Duration, path string) error
}

// Transcriber converts a recorded clip into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

// ALSARecorder implements Recorder with arecord.
type ALSARecorder struct {
	Runner Runner
}

// Record runs arecord for d (rounded up to whole seconds).
func (a *ALSARecorder) Record(ctx context.Context, dev InputDevice, d time.Duration, path string) error {
	secs := int(math.Ceil(d.Seconds()))
	ctx, cancel := context.WithTimeout(ctx, d+recordGrace)
	defer cancel()

	_, stderr, err := a.Runner.Run(ctx, "arecord",
		"-D", dev.Name,
		"-f", dev.Format,
		"-r", strconv.Itoa(dev.SampleRate),
		"-c", strconv.Itoa(dev.Channels),
		"-d", strconv.Itoa(secs),
		path,
	)
	if err == nil {
		return nil
	}
	return classifyRecordError(dev.Name, strings.TrimSpace(stderr), err)
}

// classifyRecordError separates "the device is not there" from other
// recording failures using arecord's diagnostics.
func classifyRecordError(device, stderr string, err error) error {
	if errors.Is(err, exec.ErrNotFound) {
		return &protocol.CaptureError{Detail: "arecord not installed", Err: err}
	}
	lower := strings.ToLower(stderr)
	for _, marker := range []string{"audio open error", "no such device", "no such file or directory", "device or resource busy"} {
		if strings.Contains(lower, marker) {
			return &protocol.DeviceError{Device: device, Err: errors.New(stderr)}
		}
	}
	return &protocol.CaptureError{Detail: stderr, Err: err}
}

// CaptureWorker records a clip from the microphone and transcribes it. It
// blocks for at least the capture duration and must run off the interactive
// goroutine.
type CaptureWorker struct {
	recorder    Recorder
	transcriber Transcriber
	duration    time.Duration
	minBytes    int64
	tmpDir      string
}

// CaptureOption configures a CaptureWorker.
type CaptureOption func(*CaptureWorker)

// WithDuration overrides the fixed capture length.
func WithDuration(d time.Duration) CaptureOption {
	return func(w *CaptureWorker) { w.duration = d }
}

// WithMinClipBytes overrides the silence threshold.
func WithMinClipBytes(n int64) CaptureOption {
	return func(w *CaptureWorker) { w.minBytes = n }
}

// WithCaptureTempDir sets where clips are written.
func WithCaptureTempDir(dir string) CaptureOption {
	return func(w *CaptureWorker) { w.tmpDir = dir }
}

// NewCaptureWorker creates a CaptureWorker.
func NewCaptureWorker(rec Recorder, tr Transcriber, opts ...CaptureOption) *CaptureWorker {
	w := &CaptureWorker{
		recorder:    rec,
		transcriber: tr,
		duration:    protocol.CaptureDuration,
		minBytes:    MinClipBytes,
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// CaptureAndTranscribe records from dev and returns the transcript.
// Errors are *protocol.DeviceError, *protocol.CaptureError,
// *protocol.TranscriptionError or protocol.ErrNoSpeech.
func (w *CaptureWorker) CaptureAndTranscribe(ctx context.Context, dev InputDevice) (string, error) {
	f, err := os.CreateTemp(w.tmpDir, "alexterm-*.wav")
	if err != nil {
		return "", &protocol.CaptureError{Detail: "create temp file", Err: err}
	}
	path := f.Name()
	_ = f.Close()
	defer os.Remove(path)

	if err := w.recorder.Record(ctx, dev, w.duration, path); err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil || info.Size() < w.minBytes {
		return "", protocol.ErrNoSpeech
	}

	text, err := w.transcriber.Transcribe(ctx, path)
	if err != nil {
		var te *protocol.TranscriptionError
		if errors.As(err, &te) {
			return "", err
		}
		return "", &protocol.TranscriptionError{Err: err}
	}

	text = strings.TrimSpace(text)
	if len([]rune(text)) < minTranscriptLen {
		return "", protocol.ErrNoSpeech
	}
	return text, nil
}
