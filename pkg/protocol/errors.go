package protocol

import (
	"errors"
	"fmt"
)

// ErrNoSpeech is returned when a capture held no usable speech: the clip was
// too short or the transcript came back empty.
var ErrNoSpeech = errors.New("no speech detected")

// TransportError represents a connectivity failure talking to the agent,
// including request timeouts.
type TransportError struct {
	Op      string
	Timeout bool
	Err     error
}

func (e *TransportError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s: request timed out", e.Op)
	}
	return fmt.Sprintf("%s: cannot connect to ALEX: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ProtocolError represents a response whose shape was not what the agent
// contract promises.
type ProtocolError struct {
	Op     string
	Status int
	Reason string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("%s: unexpected response (HTTP %d): %s", e.Op, e.Status, e.Reason)
}

// RemoteError represents an application-level failure reported by the agent.
type RemoteError struct {
	Status  int
	Message string
}

func (e *RemoteError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("HTTP %d", e.Status)
	}
	return e.Message
}

// DeviceError represents an unavailable audio device.
type DeviceError struct {
	Device string
	Err    error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("audio device %s unavailable: %v", e.Device, e.Err)
}

func (e *DeviceError) Unwrap() error { return e.Err }

// CaptureError represents a failed recording.
type CaptureError struct {
	Detail string
	Err    error
}

func (e *CaptureError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("recording failed: %s", e.Detail)
	}
	return fmt.Sprintf("recording failed: %v", e.Err)
}

func (e *CaptureError) Unwrap() error { return e.Err }

// TranscriptionError represents a transcription service failure.
type TranscriptionError struct {
	Err error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription failed: %v", e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// SynthesisError represents a speech synthesis service failure.
type SynthesisError struct {
	Err error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("speech synthesis failed: %v", e.Err)
}

func (e *SynthesisError) Unwrap() error { return e.Err }

// PlaybackError represents a failure playing audio on the output sink.
type PlaybackError struct {
	Sink string
	Err  error
}

func (e *PlaybackError) Error() string {
	if e.Sink == "" {
		return fmt.Sprintf("playback failed: %v", e.Err)
	}
	return fmt.Sprintf("playback on %s failed: %v", e.Sink, e.Err)
}

func (e *PlaybackError) Unwrap() error { return e.Err }

// QueueReadError represents a failure reading the notification mailbox.
// It is always treated as a silent no-op by the poller.
type QueueReadError struct {
	Path string
	Err  error
}

func (e *QueueReadError) Error() string {
	return fmt.Sprintf("read queue %s: %v", e.Path, e.Err)
}

func (e *QueueReadError) Unwrap() error { return e.Err }
