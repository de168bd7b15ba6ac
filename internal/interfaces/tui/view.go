package tui

import (
	"fmt"
	"orderchat/internal/entities"
	"orderchat/internal/interfaces/textview"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	panelWidth  = 64
	panelHeight = 24
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	userStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	botStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	stampStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	chipStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")).Padding(0, 1)
	typingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// panelSize is the chat panel size; fullscreen takes the whole terminal
func panelSize(width, height int, fullscreen bool) (int, int) {
	if fullscreen {
		return width, height
	}
	return min(width, panelWidth), min(height, panelHeight)
}

func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}

	ui := m.widget.UI()
	if !ui.Open {
		return hintStyle.Render("💬 Order assistant (ctrl+o to open, esc to quit)")
	}

	w, _ := panelSize(m.width, m.height, ui.Fullscreen)

	var b strings.Builder
	icon := "⤢ ctrl+f"
	if ui.Fullscreen {
		icon = "⤡ ctrl+f"
	}
	b.WriteString(headerStyle.Render("Order Assistant") + "  " + hintStyle.Render(icon+" · ctrl+o close"))
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")

	if m.widget.IsBotTyping() {
		b.WriteString(m.spinner.View() + typingStyle.Render(" Assistant is typing..."))
	} else {
		b.WriteString(renderChips(m.widget.QuickReplies()))
	}
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())

	return panelStyle.Width(w - 2).Render(b.String())
}

func renderMessages(msgs []entities.Message, width int) string {
	var b strings.Builder
	for i, msg := range msgs {
		if i > 0 {
			b.WriteString("\n\n")
		}
		label := botStyle.Render(msg.AltText())
		if msg.Sender == entities.SenderUser {
			label = userStyle.Render(msg.AltText())
		}
		fmt.Fprintf(&b, "%s %s\n", label, stampStyle.Render(msg.Timestamp))

		text := textview.Plain(msg)
		if !msg.IsHTML && width > 0 {
			text = lipgloss.NewStyle().Width(width).Render(text)
		}
		b.WriteString(text)
	}
	return b.String()
}

func renderChips(replies []entities.QuickReply) string {
	chips := make([]string, 0, len(replies))
	for i, r := range replies {
		if i >= 9 {
			break
		}
		chips = append(chips, chipStyle.Render(fmt.Sprintf("alt+%d %s", i+1, r.Label)))
	}
	return strings.Join(chips, " ")
}
