// Package tui is the terminal front-end of the order assistant. It drives a
// single ChatWidget and redraws whenever the widget appends a message.
package tui

import (
	"context"
	"orderchat/internal/entities"
	"orderchat/internal/usecases"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// =============================================================================
// MESSAGES
// =============================================================================

// AppendedMsg signals that the widget log grew
type AppendedMsg struct{}

// CommandDoneMsg reports the end of one HandleSend
type CommandDoneMsg struct {
	Err error
}

// =============================================================================
// MODEL
// =============================================================================

type Model struct {
	ctx      context.Context
	widget   *usecases.ChatWidget
	appended chan struct{}

	input    textinput.Model
	viewport viewport.Model
	spinner  spinner.Model

	width  int
	height int
	ready  bool
	err    error
}

// New wires the model to widget. Call it before widget.Connect so the
// greeting is picked up.
func New(ctx context.Context, widget *usecases.ChatWidget) Model {
	ti := textinput.New()
	ti.Placeholder = "Type a message..."
	ti.CharLimit = 500
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = typingStyle

	m := Model{
		ctx:      ctx,
		widget:   widget,
		appended: make(chan struct{}, 1),
		input:    ti,
		spinner:  sp,
	}
	widget.OnAppend(func(entities.Message, []entities.QuickReply) {
		// coalesce: one pending redraw is enough
		select {
		case m.appended <- struct{}{}:
		default:
		}
	})
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick, m.waitForAppend())
}

func (m Model) waitForAppend() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.appended:
			return AppendedMsg{}
		case <-m.ctx.Done():
			return nil
		}
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.ready = true
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case AppendedMsg:
		m.refresh()
		return m, m.waitForAppend()

	case CommandDoneMsg:
		m.err = msg.Err
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c", "esc":
		m.widget.Close()
		return m, tea.Quit

	case "ctrl+o":
		m.widget.ToggleChat()
		m.resize()
		return m, nil

	case "ctrl+f":
		m.widget.ToggleFullscreen()
		m.resize()
		return m, nil

	case "enter":
		m.widget.SetInput(m.input.Value())
		m.input.Reset()
		return m, m.send(func(ctx context.Context) error {
			return m.widget.HandleSend(ctx)
		})
	}

	if idx, ok := quickReplyIndex(key); ok {
		replies := m.widget.QuickReplies()
		if idx >= len(replies) {
			return m, nil
		}
		reply := replies[idx]
		return m, m.send(func(ctx context.Context) error {
			return m.widget.HandleQuickReply(ctx, reply)
		})
	}

	if !m.widget.UI().Open {
		return m, nil
	}

	switch key {
	case "pgup", "pgdown", "up", "down":
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// send runs a command off the update loop; appends arrive as AppendedMsg
func (m Model) send(run func(ctx context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return CommandDoneMsg{Err: run(m.ctx)}
	}
}

// quickReplyIndex maps alt+1..alt+9 to a zero based chip index
func quickReplyIndex(key string) (int, bool) {
	digit, found := strings.CutPrefix(key, "alt+")
	if !found || len(digit) != 1 {
		return 0, false
	}
	n, err := strconv.Atoi(digit)
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}

// resize fits the viewport to the panel for the current open/fullscreen state
func (m *Model) resize() {
	if !m.ready {
		return
	}
	w, h := panelSize(m.width, m.height, m.widget.UI().Fullscreen)
	// header, chips, input and borders
	bodyHeight := h - 7
	if bodyHeight < 3 {
		bodyHeight = 3
	}
	m.viewport.Width = w - 4
	m.viewport.Height = bodyHeight
	m.input.Width = w - 8
	m.refresh()
}

// refresh re-renders the log and scrolls to the newest message
func (m *Model) refresh() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(renderMessages(m.widget.Messages(), m.viewport.Width))
	m.viewport.GotoBottom()
}
