package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"alexterm/pkg/conversation"
	"alexterm/pkg/protocol"
)

// sessionView is what the presentation layer needs from the controller.
type sessionView interface {
	Entries() []protocol.Entry
	State() conversation.SessionState
	Updates() <-chan struct{}
	Done() <-chan struct{}
	Submit(text string)
	PressMic()
	ToggleVoice() bool
	ClearLog()
	StatusSummary() string
}

// updateMsg is sent whenever the controller published a change.
type updateMsg struct{}

// waitForUpdate returns a command that blocks until the controller signals
// a change.
func waitForUpdate(s sessionView) tea.Cmd {
	return func() tea.Msg {
		select {
		case <-s.Updates():
			return updateMsg{}
		case <-s.Done():
			return nil
		}
	}
}

// chrome is the number of rows outside the viewport: header, activity line
// and input.
const chrome = 3

// Model is the Bubble Tea model for the interactive client.
type Model struct {
	session sessionView
	styles  styles

	input   textinput.Model
	view    viewport.Model
	spinner spinner.Model

	entries []protocol.Entry
	state   conversation.SessionState

	width  int
	height int
	ready  bool
}

func newModel(s sessionView, theme Theme) Model {
	in := textinput.New()
	in.Placeholder = "Type a message or use " + strings.Join(protocol.Commands, ", ")
	in.CharLimit = 4096
	in.Prompt = "> "
	in.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Warning).Bold(true)

	return Model{
		session: s,
		styles:  newStyles(theme),
		input:   in,
		spinner: sp,
		entries: s.Entries(),
		state:   s.State(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, waitForUpdate(m.session))
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "enter":
			if text := strings.TrimSpace(m.input.Value()); text != "" {
				m.session.Submit(text)
			}
			m.input.Reset()
			return m, nil
		case "ctrl+r":
			m.session.PressMic()
			return m, nil
		case "ctrl+t":
			m.session.ToggleVoice()
			return m, nil
		case "ctrl+l":
			m.session.ClearLog()
			return m, nil
		case "pgup", "pgdown":
			var cmd tea.Cmd
			m.view, cmd = m.view.Update(msg)
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		h := max(msg.Height-chrome, 1)
		if !m.ready {
			m.view = viewport.New(msg.Width, h)
			m.ready = true
		} else {
			m.view.Width, m.view.Height = msg.Width, h
		}
		m.input.Width = max(msg.Width-len(m.input.Prompt)-1, 1)
		m.refresh()

	case updateMsg:
		m.entries = m.session.Entries()
		m.state = m.session.State()
		m.refresh()
		cmds = append(cmds, waitForUpdate(m.session))

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// refresh re-renders the log into the viewport and scrolls to the end.
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	lines := make([]string, 0, len(m.entries))
	for _, e := range m.entries {
		lines = append(lines, m.renderEntry(e))
	}
	m.view.SetContent(strings.Join(lines, "\n"))
	m.view.GotoBottom()
}

func (m Model) renderEntry(e protocol.Entry) string {
	ts := m.styles.time.Render(e.Timestamp.Format("15:04"))
	var label string
	switch e.Role {
	case protocol.RoleUser:
		label = m.styles.user.Render("You:")
	case protocol.RoleAgent:
		label = m.styles.agent.Render("ALEX:")
	default:
		return ts + " " + m.styles.system.Render(wrap(e.Text, m.width-6))
	}
	return ts + " " + label + " " + wrap(e.Text, m.width-12)
}

// wrap soft-wraps text to width columns; width <= 0 disables wrapping.
func wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return lipgloss.NewStyle().Width(width).Render(text)
}

func (m Model) header() string {
	s := m.state
	badge := func(name string, on bool) string {
		if on {
			return m.styles.on.Render(name + " on")
		}
		return m.styles.off.Render(name + " off")
	}
	online := m.styles.off.Render("offline")
	if s.Online {
		online = m.styles.on.Render("online")
	}
	parts := []string{
		m.styles.title.Render("ALEX"),
		online,
		badge("voice", s.VoiceEnabled),
		badge("poller", s.PollerActive),
	}
	return strings.Join(parts, m.styles.status.Render(" | "))
}

func (m Model) activity() string {
	s := m.state
	switch {
	case s.AudioOp == conversation.AudioCapture:
		return m.spinner.View() + m.styles.busy.Render(" Listening…")
	case s.AudioOp == conversation.AudioSynthesize:
		return m.spinner.View() + m.styles.busy.Render(" Speaking…")
	case s.Pending > 0:
		return m.spinner.View() + m.styles.busy.Render(fmt.Sprintf(" ALEX is thinking (%d)…", s.Pending))
	default:
		return m.styles.status.Render("ctrl+r mic · ctrl+t voice · ctrl+l clear · esc quit")
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Starting…"
	}
	return m.header() + "\n" + m.view.View() + "\n" + m.activity() + "\n" + m.input.View()
}

// runTUI runs the interactive interface until the user quits or ctx is
// cancelled.
func runTUI(ctx context.Context, s sessionView) error {
	p := tea.NewProgram(newModel(s, DefaultTheme()), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
