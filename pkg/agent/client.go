// Package agent is the HTTP client for the remote ALEX control API.
//
// Every call is a single blocking request with a bounded timeout. Failures
// are reported as *protocol.TransportError, *protocol.ProtocolError or
// *protocol.RemoteError so callers can tell them apart with errors.As.
package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"alexterm/pkg/protocol"
)

// DefaultBaseURL is where the control API listens on the agent host.
const DefaultBaseURL = "http://127.0.0.1:9090"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 4 << 20

// Client talks to the agent control API. It is stateless apart from its
// configuration and safe for concurrent use.
type Client struct {
	baseURL        string
	token          string
	http           *http.Client
	commandTimeout time.Duration
	healthTimeout  time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the bearer token sent on every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithCommandTimeout bounds Send.
func WithCommandTimeout(d time.Duration) Option {
	return func(c *Client) { c.commandTimeout = d }
}

// WithHealthTimeout bounds Health and TerminalMessages.
func WithHealthTimeout(d time.Duration) Option {
	return func(c *Client) { c.healthTimeout = d }
}

// New creates a Client for the API at baseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		http:           &http.Client{},
		commandTimeout: protocol.CommandTimeout,
		healthTimeout:  protocol.HealthTimeout,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Request is one message for the agent.
type Request struct {
	ConversationID string
	Text           string
	// Terminal asks the agent to route the message to the terminal's
	// isolated context and to shape the reply for a text terminal.
	Terminal bool
}

type commandBody struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id,omitempty"`
	SendToTelegram bool   `json:"send_to_telegram"`
}

type commandResponse struct {
	Success  *bool   `json:"success"`
	Response *string `json:"response"`
	Error    string  `json:"error"`
}

// Send posts text to the command endpoint and returns the agent's reply.
func (c *Client) Send(ctx context.Context, req Request) (string, error) {
	body, err := json.Marshal(commandBody{
		Message:        req.Text,
		ConversationID: req.ConversationID,
	})
	if err != nil {
		return "", fmt.Errorf("encode command: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.commandTimeout)
	defer cancel()

	status, data, err := c.do(ctx, "command", http.MethodPost, protocol.CommandPath, body, req.Terminal)
	if err != nil {
		return "", err
	}

	var resp commandResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		if status != http.StatusOK {
			return "", &protocol.RemoteError{Status: status, Message: strings.TrimSpace(string(data))}
		}
		return "", &protocol.ProtocolError{Op: "command", Status: status, Reason: err.Error()}
	}
	switch {
	case status != http.StatusOK:
		return "", &protocol.RemoteError{Status: status, Message: resp.Error}
	case resp.Success == nil:
		return "", &protocol.ProtocolError{Op: "command", Status: status, Reason: "missing success field"}
	case !*resp.Success:
		return "", &protocol.RemoteError{Status: status, Message: resp.Error}
	case resp.Response == nil:
		return "", &protocol.ProtocolError{Op: "command", Status: status, Reason: "missing response field"}
	}
	return *resp.Response, nil
}

// Health fetches the agent's health report.
func (c *Client) Health(ctx context.Context) (protocol.Health, error) {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	status, data, err := c.do(ctx, "health", http.MethodGet, protocol.HealthPath, nil, true)
	if err != nil {
		return protocol.Health{}, err
	}
	if status != http.StatusOK {
		return protocol.Health{}, &protocol.RemoteError{Status: status, Message: errorField(data)}
	}
	if !gjson.ValidBytes(data) {
		return protocol.Health{}, &protocol.ProtocolError{Op: "health", Status: status, Reason: "invalid JSON"}
	}
	return parseHealth(data), nil
}

// parseHealth pulls the displayed fields out of a loosely shaped payload.
// Missing fields render as "?".
func parseHealth(data []byte) protocol.Health {
	r := gjson.ParseBytes(data)
	or := func(path string) string {
		if v := r.Get(path); v.Exists() {
			return v.String()
		}
		return "?"
	}
	return protocol.Health{
		UptimeSeconds: r.Get("uptime_seconds").Int(),
		MemoryRSSMB:   or("memory.rss_mb"),
		Telegram:      or("telegram"),
		Redis:         or("redis"),
	}
}

// TerminalMessages fetches notifications queued for the terminal on the
// agent side.
func (c *Client) TerminalMessages(ctx context.Context) ([]protocol.Notification, error) {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	status, data, err := c.do(ctx, "terminal-messages", http.MethodGet, protocol.TerminalMessagesPath, nil, true)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &protocol.RemoteError{Status: status, Message: errorField(data)}
	}
	var resp struct {
		Messages []protocol.Notification `json:"messages"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, &protocol.ProtocolError{Op: "terminal-messages", Status: status, Reason: err.Error()}
	}
	return resp.Messages, nil
}

// do performs one request and returns the status and body. Only transport
// failures are returned as errors.
func (c *Client) do(ctx context.Context, op, method, path string, body []byte, terminal bool) (int, []byte, error) {
	var r io.Reader
	if body != nil {
		r = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return 0, nil, fmt.Errorf("build %s request: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if terminal {
		req.Header.Set(protocol.TerminalHeader, "true")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, transportError(op, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, transportError(op, err)
	}
	return resp.StatusCode, data, nil
}

func transportError(op string, err error) error {
	return &protocol.TransportError{
		Op:      op,
		Timeout: errors.Is(err, context.DeadlineExceeded) || isTimeout(err),
		Err:     err,
	}
}

func isTimeout(err error) bool {
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

func errorField(data []byte) string {
	if v := gjson.GetBytes(data, "error"); v.Exists() {
		return v.String()
	}
	return strings.TrimSpace(string(data))
}
