package agent //nolint:testpackage // white-box test needs internal access

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"alexterm/pkg/protocol"
)

func TestSend_Success(t *testing.T) {
	var gotBody commandBody
	var gotHeader, gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != protocol.CommandPath {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotHeader = r.Header.Get(protocol.TerminalHeader)
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`{"success":true,"response":"Bitcoin is trading at $72,041 USD."}`))
	}))
	defer srv.Close()

	c := New(srv.URL, WithToken("secret"))
	got, err := c.Send(context.Background(), Request{
		ConversationID: "conv-1",
		Text:           "what is the price of bitcoin?",
		Terminal:       true,
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if got != "Bitcoin is trading at $72,041 USD." {
		t.Errorf("unexpected reply %q", got)
	}

	// Assert: request tagged for the terminal context
	if gotHeader != "true" {
		t.Errorf("expected %s: true, got %q", protocol.TerminalHeader, gotHeader)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("expected bearer token, got %q", gotAuth)
	}
	if gotBody.ConversationID != "conv-1" || gotBody.Message != "what is the price of bitcoin?" {
		t.Errorf("unexpected body %+v", gotBody)
	}
	if gotBody.SendToTelegram {
		t.Error("expected send_to_telegram=false")
	}
}

func TestSend_ErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "agent reports failure",
			status: http.StatusOK,
			body:   `{"success":false,"error":"model unavailable"}`,
			check: func(t *testing.T, err error) {
				var re *protocol.RemoteError
				if !errors.As(err, &re) {
					t.Fatalf("expected RemoteError, got %T: %v", err, err)
				}
				if re.Message != "model unavailable" {
					t.Errorf("unexpected message %q", re.Message)
				}
			},
		},
		{
			name:   "server error",
			status: http.StatusInternalServerError,
			body:   `{"error":"internal"}`,
			check: func(t *testing.T, err error) {
				var re *protocol.RemoteError
				if !errors.As(err, &re) || re.Status != http.StatusInternalServerError {
					t.Fatalf("expected RemoteError 500, got %v", err)
				}
			},
		},
		{
			name:   "malformed body",
			status: http.StatusOK,
			body:   `<html>oops</html>`,
			check: func(t *testing.T, err error) {
				var pe *protocol.ProtocolError
				if !errors.As(err, &pe) {
					t.Fatalf("expected ProtocolError, got %T: %v", err, err)
				}
			},
		},
		{
			name:   "missing response field",
			status: http.StatusOK,
			body:   `{"success":true}`,
			check: func(t *testing.T, err error) {
				var pe *protocol.ProtocolError
				if !errors.As(err, &pe) {
					t.Fatalf("expected ProtocolError, got %T: %v", err, err)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL).Send(context.Background(), Request{Text: "hi"})
			if err == nil {
				t.Fatal("expected error")
			}
			tt.check(t, err)
		})
	}
}

func TestSend_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Send(context.Background(), Request{Text: "hi"})
	var te *protocol.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	if te.Timeout {
		t.Error("connection refused should not be reported as a timeout")
	}
}

func TestSend_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	c := New(srv.URL, WithCommandTimeout(50*time.Millisecond))
	_, err := c.Send(context.Background(), Request{Text: "slow"})

	var te *protocol.TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %T: %v", err, err)
	}
	if !te.Timeout {
		t.Errorf("expected timeout flag, got %v", te)
	}
}

func TestHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != protocol.HealthPath {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"status":"ok","uptime_seconds":7260,"memory":{"rss_mb":88},"telegram":"connected"}`))
	}))
	defer srv.Close()

	h, err := New(srv.URL).Health(context.Background())
	if err != nil {
		t.Fatalf("Health failed: %v", err)
	}
	if h.UptimeSeconds != 7260 {
		t.Errorf("expected uptime 7260, got %d", h.UptimeSeconds)
	}
	if h.MemoryRSSMB != "88" || h.Telegram != "connected" {
		t.Errorf("unexpected health %+v", h)
	}
	// Assert: absent fields render as "?"
	if h.Redis != "?" {
		t.Errorf("expected Redis '?', got %q", h.Redis)
	}
}

func TestTerminalMessages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"messages":[{"title":"Heartbeat","body":"Markets open"},{"text":"Briefing ready"}]}`))
	}))
	defer srv.Close()

	msgs, err := New(srv.URL).TerminalMessages(context.Background())
	if err != nil {
		t.Fatalf("TerminalMessages failed: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Display() != "[Heartbeat] Markets open" || msgs[1].Message() != "Briefing ready" {
		t.Errorf("unexpected messages %+v", msgs)
	}
}
