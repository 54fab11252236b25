package conversation

import (
	"fmt"
	"strings"
)

// AudioOp names the audio operation holding the audio gate.
type AudioOp string

const (
	AudioIdle       AudioOp = ""
	AudioCapture    AudioOp = "capture"
	AudioSynthesize AudioOp = "synthesize"
)

// SessionState is the controller's view of the session. The controller
// publishes a copy after every change; the copy is never mutated.
type SessionState struct {
	ConversationID string
	VoiceEnabled   bool
	// AudioBusy gates the microphone and speaker: true while a capture,
	// transcription or synthesis is in flight.
	AudioBusy    bool
	AudioOp      AudioOp
	PollerActive bool
	Online       bool
	// Pending counts agent requests still awaiting a reply.
	Pending int
}

// Summary renders the state for /status.
func (s SessionState) Summary() string {
	id := s.ConversationID
	if len(id) > 8 {
		id = id[:8]
	}
	audio := "idle"
	if s.AudioBusy {
		audio = string(s.AudioOp)
	}
	parts := []string{
		"Session " + id,
		"Voice " + onOff(s.VoiceEnabled),
		"Audio " + audio,
		"Poller " + map[bool]string{true: "active", false: "stopped"}[s.PollerActive],
		"ALEX " + map[bool]string{true: "online", false: "offline"}[s.Online],
		fmt.Sprintf("Pending %d", s.Pending),
	}
	return strings.Join(parts, " | ")
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}
