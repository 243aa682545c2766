package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/PabloGalante/groq-chat/internal/domain"
)

type streamEvent struct {
	text string
	done bool
}

type partialMsg struct {
	text string
	ch   <-chan streamEvent
}

type replyMsg struct {
	text string
}

type connectionMsg struct {
	reply string
	err   error
}

type exportMsg struct {
	export *domain.Export
	err    error
}

// send records the user turn on screen and runs the request in the
// background. Cumulative updates come back as partialMsg, the final answer as
// replyMsg.
func (m *Model) send(text string) tea.Cmd {
	m.entries = append(m.entries, entry{kind: entryUser, content: text})
	m.waiting = true
	m.partial = ""

	ch := make(chan streamEvent, 16)
	sess, ctx := m.sess, m.ctx
	go func() {
		defer close(ch)
		// Nobody reads ch once the program has quit; ctx is cancelled then.
		emit := func(ev streamEvent) {
			select {
			case ch <- ev:
			case <-ctx.Done():
			}
		}
		reply := sess.SendUserMessage(ctx, text, func(partial string) {
			emit(streamEvent{text: partial})
		})
		emit(streamEvent{text: reply, done: true})
	}()
	return waitForStream(ch)
}

func waitForStream(ch <-chan streamEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return nil
		}
		if ev.done {
			return replyMsg{text: ev.text}
		}
		return partialMsg{text: ev.text, ch: ch}
	}
}

func (m *Model) testConnection() tea.Cmd {
	m.waiting = true
	sess, ctx := m.sess, m.ctx
	return func() tea.Msg {
		reply, err := sess.TestConnection(ctx)
		return connectionMsg{reply: reply, err: err}
	}
}

func (m *Model) export() tea.Cmd {
	m.waiting = true
	svc, snap, ctx := m.archive, m.sess.ExportSnapshot(), m.ctx
	return func() tea.Msg {
		e, err := svc.Save(ctx, snap)
		return exportMsg{export: e, err: err}
	}
}
