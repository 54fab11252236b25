// Package protocol holds the types, constants and error taxonomy shared by
// the alexterm packages.
package protocol

import "time"

// Directory and file names used throughout alexterm.
const (
	// AlexDir is the user-level state directory (e.g., ~/.alex).
	AlexDir = ".alex"

	// QueueFile is the notification mailbox written by the external scheduler.
	QueueFile = "terminal-queue.json"

	// MarkerFile signals "a terminal client is live" to the scheduler.
	MarkerFile = "terminal-active"

	// ConfigFile is the default configuration file name.
	ConfigFile = "terminal.toml"

	// PrefsFile stores the persisted voice preference.
	PrefsFile = "terminal-prefs.toml"

	// LogFile is the default log file name.
	LogFile = "terminal.log"
)

// Remote agent endpoints and headers.
const (
	CommandPath          = "/api/command"
	HealthPath           = "/api/health"
	TerminalMessagesPath = "/api/terminal-messages"

	// TerminalHeader marks a request as coming from the terminal surface, so
	// the agent routes it to an isolated context and shapes replies for it.
	TerminalHeader = "X-Terminal"
)

// Timing constants.
const (
	// CaptureDuration is the fixed length of a microphone recording.
	CaptureDuration = 5 * time.Second

	// PollInterval is the notification poller tick.
	PollInterval = 5 * time.Second

	// CommandTimeout bounds a single agent command round trip.
	CommandTimeout = 120 * time.Second

	// HealthTimeout bounds a single health check.
	HealthTimeout = 5 * time.Second
)

// Commands lists the local slash-commands, in help order.
var Commands = []string{"/voice", "/clear", "/status"} //nolint:gochecknoglobals // fixed command table
