// Package tui is the terminal chat front end, built on bubbletea.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/PabloGalante/groq-chat/internal/app/archive"
	"github.com/PabloGalante/groq-chat/internal/app/conversation"
)

type entryKind int

const (
	entryUser entryKind = iota
	entryAssistant
	entryNotice
	entryError
)

// entry is one block of the on-screen transcript. Notices and command output
// live only here; the session keeps the real conversation.
type entry struct {
	kind    entryKind
	content string
}

const inputHeight = 3

type Model struct {
	ctx     context.Context
	sess    *conversation.Session
	archive *archive.Service

	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model
	renderer *glamour.TermRenderer

	entries []entry
	partial string
	waiting bool
	ready   bool

	width  int
	height int
}

// New builds the model. A nil archive disables /export.
func New(ctx context.Context, sess *conversation.Session, archiveSvc *archive.Service) Model {
	ta := textarea.New()
	ta.Placeholder = "Type a message or /help... (Enter to send, Ctrl+C to exit)"
	ta.ShowLineNumbers = false
	ta.CharLimit = 0
	ta.SetHeight(inputHeight)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		ctx:      ctx,
		sess:     sess,
		archive:  archiveSvc,
		textarea: ta,
		spinner:  sp,
		viewport: viewport.New(80, 20),
	}
	m.entries = append(m.entries, entry{kind: entryNotice, content: "Welcome! Type /help for commands."})
	m.setWidth(80)
	return m
}

func (m Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.setWidth(msg.Width)
		m.viewport.Height = max(msg.Height-inputHeight-4, 3)
		m.ready = true
		m.refresh()
		return m, nil

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case tea.KeyEnter:
			if m.waiting {
				return m, nil
			}
			input := strings.TrimSpace(m.textarea.Value())
			m.textarea.Reset()
			if input == "" {
				return m, nil
			}
			if strings.HasPrefix(input, "/") {
				cmd := m.execCommand(input)
				m.refresh()
				return m, cmd
			}
			cmd := m.send(input)
			m.refresh()
			return m, tea.Batch(cmd, m.spinner.Tick)
		}

	case partialMsg:
		m.partial = msg.text
		m.refresh()
		return m, waitForStream(msg.ch)

	case replyMsg:
		m.waiting = false
		m.partial = ""
		m.entries = append(m.entries, entry{kind: entryAssistant, content: msg.text})
		m.refresh()
		return m, nil

	case connectionMsg:
		m.waiting = false
		if msg.err != nil {
			m.entries = append(m.entries, entry{kind: entryError, content: "Connection failed: " + msg.err.Error()})
		} else {
			m.entries = append(m.entries, entry{kind: entryNotice, content: "Connection OK: " + msg.reply})
		}
		m.refresh()
		return m, nil

	case exportMsg:
		m.waiting = false
		if msg.err != nil {
			m.entries = append(m.entries, entry{kind: entryError, content: "Export failed: " + msg.err.Error()})
		} else {
			m.entries = append(m.entries, entry{kind: entryNotice, content: fmt.Sprintf("Exported %d messages (id %s)", len(msg.export.Messages), msg.export.ID)})
		}
		m.refresh()
		return m, nil

	case spinner.TickMsg:
		if !m.waiting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.headerView(),
		m.viewport.View(),
		m.footerView(),
		m.textarea.View(),
	)
}

func (m Model) headerView() string {
	model := m.sess.CurrentModel()
	persona := m.sess.CurrentPersona()
	return headerStyle.Width(m.width).Render(fmt.Sprintf("Groq Chat · %s · %s", model.Name, persona.Key))
}

func (m Model) footerView() string {
	status := fmt.Sprintf("messages: %d · tokens: %d", len(m.sess.VisibleHistory()), m.sess.TotalTokens())
	if m.sess.Settings().Streaming {
		status += " · streaming"
	}
	if m.waiting {
		status = m.spinner.View() + " thinking... " + status
	}
	return footerStyle.Render(status)
}

func (m *Model) setWidth(width int) {
	m.viewport.Width = width
	m.textarea.SetWidth(width)
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err == nil {
		m.renderer = r
	}
}

// refresh re-renders the transcript into the viewport and scrolls down.
func (m *Model) refresh() {
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}

func (m Model) renderHistory() string {
	var b strings.Builder
	for _, e := range m.entries {
		switch e.kind {
		case entryUser:
			b.WriteString(userStyle.Render("You") + "\n" + e.content + "\n\n")
		case entryAssistant:
			b.WriteString(botStyle.Render("Assistant") + "\n" + m.renderMarkdown(e.content) + "\n")
		case entryNotice:
			b.WriteString(noticeStyle.Render(e.content) + "\n\n")
		case entryError:
			b.WriteString(errorStyle.Render(e.content) + "\n\n")
		}
	}
	if m.waiting && m.partial != "" {
		b.WriteString(botStyle.Render("Assistant") + "\n" + m.partial + "▌\n")
	}
	return b.String()
}

func (m Model) renderMarkdown(s string) string {
	if m.renderer == nil {
		return s + "\n"
	}
	out, err := m.renderer.Render(s)
	if err != nil {
		return s + "\n"
	}
	return out
}
