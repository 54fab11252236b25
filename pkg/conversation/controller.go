// Package conversation owns the terminal session: the conversation log, the
// session state and the audio gate.
//
// A Controller runs a single loop goroutine that is the only writer of the
// log and the state. Public methods and background workers talk to it by
// posting events; agent requests, captures and speech run on their own
// goroutines and report back with completion events, so the loop never
// blocks on the network or on audio.
package conversation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"alexterm/pkg/agent"
	"alexterm/pkg/protocol"
	"alexterm/pkg/voice"
)

const (
	eventBuffer = 64

	defaultHealthRetries = 5
	defaultHealthDelay   = 2 * time.Second
)

var errStopped = errors.New("conversation: controller stopped")

// Agent sends messages to the remote agent.
type Agent interface {
	Send(ctx context.Context, req agent.Request) (string, error)
	Health(ctx context.Context) (protocol.Health, error)
}

// Capturer records one utterance and returns its transcript.
type Capturer interface {
	CaptureAndTranscribe(ctx context.Context, dev voice.InputDevice) (string, error)
}

// Speaker speaks text aloud.
type Speaker interface {
	SynthesizeAndPlay(ctx context.Context, text string, out voice.OutputSelector) error
}

// Prefs persists the voice toggle.
type Prefs interface {
	SaveVoiceEnabled(enabled bool) error
}

// Deps are the collaborators a Controller drives. Capture, Speaker and
// Prefs may be nil; the matching features are then unavailable.
type Deps struct {
	Agent   Agent
	Capture Capturer
	Speaker Speaker
	Prefs   Prefs
}

// Options configure a session.
type Options struct {
	ConversationID string
	VoiceEnabled   bool
	Input          voice.InputDevice
	Output         voice.OutputSelector
	// Welcome is spoken once after the startup health check succeeds.
	// Empty disables the greeting.
	Welcome string
	// HealthRetries and HealthDelay shape the startup health check.
	HealthRetries int
	HealthDelay   time.Duration
}

// Controller is the single writer of the conversation log and session state.
type Controller struct {
	deps Deps
	opts Options

	log   Log
	state SessionState // owned by the loop
	snap  atomic.Pointer[SessionState]

	events  chan event
	updates chan struct{}
	done    chan struct{}
	running atomic.Bool

	bgCtx    context.Context
	bgCancel context.CancelFunc
	wg       sync.WaitGroup

	now func() time.Time
}

// New creates a Controller. Call Run to start processing.
func New(deps Deps, opts Options) *Controller {
	if opts.HealthRetries <= 0 {
		opts.HealthRetries = defaultHealthRetries
	}
	if opts.HealthDelay <= 0 {
		opts.HealthDelay = defaultHealthDelay
	}
	bgCtx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		deps:     deps,
		opts:     opts,
		events:   make(chan event, eventBuffer),
		updates:  make(chan struct{}, 1),
		done:     make(chan struct{}),
		bgCtx:    bgCtx,
		bgCancel: cancel,
		now:      time.Now,
		state: SessionState{
			ConversationID: opts.ConversationID,
			VoiceEnabled:   opts.VoiceEnabled,
		},
	}
	c.publish()
	return c
}

// Run processes events until ctx is cancelled. On cancellation in-flight
// workers are cancelled and given up to grace to report back, so the audio
// gate is released before Run returns whenever they finish in time.
func (c *Controller) Run(ctx context.Context, grace time.Duration) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.New("conversation: controller already running")
	}
	defer close(c.done)

	for {
		select {
		case <-ctx.Done():
			c.bgCancel()
			c.drain(grace)
			return nil
		case ev := <-c.events:
			c.apply(ev)
		}
	}
}

// drain keeps applying completion events until every worker has exited or
// grace elapses.
func (c *Controller) drain(grace time.Duration) {
	finished := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(finished)
	}()
	timer := time.NewTimer(grace)
	defer timer.Stop()

	for {
		select {
		case ev := <-c.events:
			c.apply(ev)
		case <-finished:
			for {
				select {
				case ev := <-c.events:
					c.apply(ev)
				default:
					return
				}
			}
		case <-timer.C:
			slog.Warn("shutdown grace elapsed with workers still running")
			return
		}
	}
}

func (c *Controller) apply(ev event) {
	ev.apply(c)
	c.publish()
}

// publish stores a snapshot of the state and signals Updates.
func (c *Controller) publish() {
	s := c.state
	c.snap.Store(&s)
	select {
	case c.updates <- struct{}{}:
	default:
	}
}

// post hands ev to the loop. It gives up once the loop has exited.
func (c *Controller) post(ev event) {
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

// spawn runs fn on a tracked worker goroutine.
func (c *Controller) spawn(fn func(ctx context.Context)) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn(c.bgCtx)
	}()
}

// Entries returns a copy of the conversation log.
func (c *Controller) Entries() []protocol.Entry { return c.log.Entries() }

// State returns the latest published session state.
func (c *Controller) State() SessionState { return *c.snap.Load() }

// Updates signals after the log or state changed. Signals coalesce.
func (c *Controller) Updates() <-chan struct{} { return c.updates }

// Done is closed when Run returns.
func (c *Controller) Done() <-chan struct{} { return c.done }

// Submit handles one line of user input: a slash command or a message for
// the agent.
func (c *Controller) Submit(text string) { c.post(submitEvent{text: text}) }

// PressMic starts a capture unless audio is busy, in which case the press is
// ignored.
func (c *Controller) PressMic() { c.post(micEvent{}) }

// Connect runs the startup health check in the background.
func (c *Controller) Connect() { c.post(connectEvent{}) }

// Notice appends a SYSTEM entry.
func (c *Controller) Notice(text string) { c.post(noticeEvent{text: text}) }

// SetPollerActive records whether the notification poller is running.
func (c *Controller) SetPollerActive(active bool) { c.post(pollerEvent{active: active}) }

// ToggleVoice flips spoken output and returns the new setting.
func (c *Controller) ToggleVoice() bool {
	reply := make(chan bool, 1)
	c.post(toggleEvent{reply: reply})
	select {
	case v := <-reply:
		return v
	case <-c.done:
		return c.State().VoiceEnabled
	}
}

// ClearLog empties the conversation log.
func (c *Controller) ClearLog() {
	reply := make(chan struct{}, 1)
	c.post(clearEvent{reply: reply})
	select {
	case <-reply:
	case <-c.done:
	}
}

// StatusSummary describes the local session without contacting the agent.
func (c *Controller) StatusSummary() string {
	reply := make(chan string, 1)
	c.post(statusEvent{reply: reply})
	select {
	case s := <-reply:
		return s
	case <-c.done:
		return c.State().Summary()
	}
}

// Deliver appends a notification to the log and speaks it. It implements
// the poller's delivery sink.
func (c *Controller) Deliver(ctx context.Context, n protocol.Notification) error {
	select {
	case <-c.done:
		return errStopped
	default:
	}
	select {
	case c.events <- notificationEvent{n: n}:
		return nil
	case <-c.done:
		return errStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// --- loop-side handlers; only called from the Run goroutine ---

func (c *Controller) appendEntry(role protocol.Role, text string) {
	c.log.append(protocol.Entry{Role: role, Text: text, Timestamp: c.now()})
}

func (c *Controller) system(format string, args ...any) {
	c.appendEntry(protocol.RoleSystem, fmt.Sprintf(format, args...))
}

func (c *Controller) handleInput(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	if strings.HasPrefix(text, "/") {
		c.handleCommand(text)
		return
	}

	c.appendEntry(protocol.RoleUser, text)
	c.state.Pending++
	req := agent.Request{ConversationID: c.state.ConversationID, Text: text, Terminal: true}
	c.spawn(func(ctx context.Context) {
		reply, err := c.deps.Agent.Send(ctx, req)
		c.post(agentResultEvent{reply: reply, err: err})
	})
}

func (c *Controller) handleCommand(text string) {
	name := strings.ToLower(strings.Fields(text)[0])
	switch name {
	case "/voice":
		c.toggleVoice()
	case "/clear":
		c.log.clear()
	case "/status":
		c.system("%s", c.state.Summary())
		c.spawn(func(ctx context.Context) {
			h, err := c.deps.Agent.Health(ctx)
			c.post(healthEvent{health: h, err: err})
		})
	default:
		c.system("Unknown command: %s", name)
		c.system("Available: %s", strings.Join(protocol.Commands, ", "))
	}
}

func (c *Controller) toggleVoice() bool {
	c.state.VoiceEnabled = !c.state.VoiceEnabled
	if c.deps.Prefs != nil {
		if err := c.deps.Prefs.SaveVoiceEnabled(c.state.VoiceEnabled); err != nil {
			slog.Warn("save voice preference", "error", err)
		}
	}
	c.system("Voice output %s", onOff(c.state.VoiceEnabled))
	return c.state.VoiceEnabled
}

func (c *Controller) handleAgentResult(reply string, err error) {
	if c.state.Pending > 0 {
		c.state.Pending--
	}
	if err != nil {
		slog.Warn("agent request failed", "error", err)
		c.system("%s", describeAgentError(err))
		return
	}
	text := Normalize(reply)
	if text == "" {
		c.system("ALEX returned an empty response")
		return
	}
	c.appendEntry(protocol.RoleAgent, text)
	c.speak(text)
}

// speak starts synthesis when voice is on and audio is free. Speech that
// arrives while audio is busy is dropped.
func (c *Controller) speak(text string) {
	if !c.state.VoiceEnabled || c.deps.Speaker == nil || strings.TrimSpace(text) == "" {
		return
	}
	if c.state.AudioBusy {
		slog.Debug("audio busy, dropping speech", "op", c.state.AudioOp)
		return
	}
	c.state.AudioBusy, c.state.AudioOp = true, AudioSynthesize
	out := c.opts.Output
	c.spawn(func(ctx context.Context) {
		err := c.deps.Speaker.SynthesizeAndPlay(ctx, text, out)
		c.post(speechDoneEvent{err: err})
	})
}

func (c *Controller) handleSpeechDone(err error) {
	c.state.AudioBusy, c.state.AudioOp = false, AudioIdle
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	slog.Warn("speech failed", "error", err)
	c.system("TTS error: %v", err)
}

func (c *Controller) handleMic() {
	if c.deps.Capture == nil {
		c.system("Mic: voice input is not configured")
		return
	}
	if c.state.AudioBusy {
		slog.Debug("audio busy, ignoring mic press", "op", c.state.AudioOp)
		return
	}
	c.state.AudioBusy, c.state.AudioOp = true, AudioCapture
	dev := c.opts.Input
	c.spawn(func(ctx context.Context) {
		text, err := c.deps.Capture.CaptureAndTranscribe(ctx, dev)
		c.post(transcriptEvent{text: text, err: err})
	})
}

func (c *Controller) handleTranscript(text string, err error) {
	c.state.AudioBusy, c.state.AudioOp = false, AudioIdle
	switch {
	case errors.Is(err, protocol.ErrNoSpeech):
		c.system("Could not understand audio")
		return
	case errors.Is(err, context.Canceled):
		return
	case err != nil:
		slog.Warn("capture failed", "error", err)
		c.system("Mic: %v", err)
		return
	}
	c.handleInput(text)
}

func (c *Controller) handleNotification(n protocol.Notification) {
	display := n.Display()
	if strings.TrimSpace(display) == "" {
		return
	}
	c.appendEntry(protocol.RoleAgent, display)
	c.speak(n.Message())
}

func (c *Controller) handleConnect() {
	retries, delay := c.opts.HealthRetries, c.opts.HealthDelay
	c.spawn(func(ctx context.Context) {
		var (
			h   protocol.Health
			err error
		)
		for attempt := 1; attempt <= retries; attempt++ {
			h, err = c.deps.Agent.Health(ctx)
			if err == nil {
				break
			}
			slog.Debug("health check failed", "attempt", attempt, "error", err)
			if attempt == retries {
				break
			}
			select {
			case <-ctx.Done():
				c.post(healthEvent{err: ctx.Err(), startup: true})
				return
			case <-time.After(delay):
			}
		}
		c.post(healthEvent{health: h, err: err, startup: true})
	})
}

func (c *Controller) handleHealth(h protocol.Health, err error, startup bool) {
	if errors.Is(err, context.Canceled) {
		return
	}
	c.state.Online = err == nil
	switch {
	case startup && err != nil:
		c.system("Failed to connect to ALEX. Is the service running?")
	case startup:
		c.system("Connected to ALEX (uptime: %s)", h.Uptime())
		c.system("Type a message or use %s", strings.Join(protocol.Commands, ", "))
		if c.opts.Welcome != "" {
			c.speak(c.opts.Welcome)
		}
	case err != nil:
		c.system("ALEX is offline")
	default:
		c.system("%s", h.Summary())
	}
}

// describeAgentError renders an agent failure as a single SYSTEM line.
func describeAgentError(err error) string {
	var (
		te *protocol.TransportError
		re *protocol.RemoteError
		pe *protocol.ProtocolError
	)
	switch {
	case errors.As(err, &te) && te.Timeout:
		return "Error: request timed out"
	case errors.As(err, &te):
		return "Error: cannot connect to ALEX. Is the service running?"
	case errors.As(err, &re):
		return "Error: " + re.Error()
	case errors.As(err, &pe):
		return "Error: unexpected response from ALEX (" + pe.Reason + ")"
	default:
		return "Error: " + err.Error()
	}
}
