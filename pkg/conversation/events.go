package conversation

import "alexterm/pkg/protocol"

// event is a message for the controller loop. apply runs on the loop
// goroutine and may mutate the log and state.
type event interface {
	apply(c *Controller)
}

type submitEvent struct{ text string }

func (e submitEvent) apply(c *Controller) { c.handleInput(e.text) }

type micEvent struct{}

func (micEvent) apply(c *Controller) { c.handleMic() }

type connectEvent struct{}

func (connectEvent) apply(c *Controller) { c.handleConnect() }

type noticeEvent struct{ text string }

func (e noticeEvent) apply(c *Controller) { c.system("%s", e.text) }

type pollerEvent struct{ active bool }

func (e pollerEvent) apply(c *Controller) { c.state.PollerActive = e.active }

type toggleEvent struct{ reply chan<- bool }

func (e toggleEvent) apply(c *Controller) { e.reply <- c.toggleVoice() }

type clearEvent struct{ reply chan<- struct{} }

func (e clearEvent) apply(c *Controller) {
	c.log.clear()
	e.reply <- struct{}{}
}

type statusEvent struct{ reply chan<- string }

func (e statusEvent) apply(c *Controller) { e.reply <- c.state.Summary() }

type notificationEvent struct{ n protocol.Notification }

func (e notificationEvent) apply(c *Controller) { c.handleNotification(e.n) }

// Completion events posted by workers.

type agentResultEvent struct {
	reply string
	err   error
}

func (e agentResultEvent) apply(c *Controller) { c.handleAgentResult(e.reply, e.err) }

type transcriptEvent struct {
	text string
	err  error
}

func (e transcriptEvent) apply(c *Controller) { c.handleTranscript(e.text, e.err) }

type speechDoneEvent struct{ err error }

func (e speechDoneEvent) apply(c *Controller) { c.handleSpeechDone(e.err) }

type healthEvent struct {
	health  protocol.Health
	err     error
	startup bool
}

func (e healthEvent) apply(c *Controller) { c.handleHealth(e.health, e.err, e.startup) }
