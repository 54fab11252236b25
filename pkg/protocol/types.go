package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Role identifies who produced a conversation entry.
type Role string

const (
	// RoleUser is text typed or spoken by the operator.
	RoleUser Role = "USER"
	// RoleAgent is a reply or notification from the remote agent.
	RoleAgent Role = "AGENT"
	// RoleSystem is a local status or failure line.
	RoleSystem Role = "SYSTEM"
)

// Entry is one immutable line of the conversation log.
type Entry struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Notification is a proactive message produced outside any user turn.
// Queue records may carry the message under "body" or "text".
type Notification struct {
	Title      string    `json:"title,omitempty"`
	Body       string    `json:"body,omitempty"`
	Text       string    `json:"text,omitempty"`
	ProducedAt Timestamp `json:"produced_at,omitzero"`
}

// Timestamp decodes either an RFC 3339 string or Unix seconds. Values in
// any other shape decode as the zero time so one odd record cannot make the
// whole queue unreadable.
type Timestamp struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			t.Time = parsed
		}
		return nil
	}
	var secs float64
	if err := json.Unmarshal(data, &secs); err == nil {
		t.Time = time.Unix(0, int64(secs*float64(time.Second)))
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Format(time.RFC3339))
}

// Message returns the notification payload, preferring Body over Text.
func (n Notification) Message() string {
	if n.Body != "" {
		return n.Body
	}
	return n.Text
}

// Display renders the notification as it appears in the log.
func (n Notification) Display() string {
	msg := strings.TrimSpace(n.Message())
	if n.Title == "" {
		return msg
	}
	return fmt.Sprintf("[%s] %s", n.Title, msg)
}

// Health is the subset of the agent's /api/health payload the client shows.
type Health struct {
	UptimeSeconds int64
	MemoryRSSMB   string
	Telegram      string
	Redis         string
}

// Uptime formats the uptime as "Xh Ym".
func (h Health) Uptime() string {
	return fmt.Sprintf("%dh %dm", h.UptimeSeconds/3600, (h.UptimeSeconds%3600)/60)
}

// Summary renders the health report for a /status request.
func (h Health) Summary() string {
	return fmt.Sprintf("ALEX Status: OK | Uptime: %s | RAM: %sMB | Telegram: %s | Redis: %s",
		h.Uptime(), h.MemoryRSSMB, h.Telegram, h.Redis)
}
