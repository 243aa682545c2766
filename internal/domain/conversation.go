package domain

import "fmt"

// Message is one turn of the conversation as sent to the completion endpoint.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// History is the ordered message list of a conversation.
// It holds at most one system message, and only at index 0.
// The zero value is an empty history ready to use.
type History struct {
	msgs []Message
}

// SetSystem installs the system message at index 0, replacing the existing
// one if present. Every other message keeps its position and content.
func (h *History) SetSystem(content string) {
	sys := Message{Role: RoleSystem, Content: content}
	if len(h.msgs) > 0 && h.msgs[0].Role == RoleSystem {
		h.msgs[0] = sys
		return
	}
	h.msgs = append([]Message{sys}, h.msgs...)
}

// System returns the system message, if one is installed.
func (h *History) System() (Message, bool) {
	if len(h.msgs) > 0 && h.msgs[0].Role == RoleSystem {
		return h.msgs[0], true
	}
	return Message{}, false
}

// Append adds a user or assistant message at the end.
// System messages only enter through SetSystem.
func (h *History) Append(m Message) error {
	if !m.Role.Valid() || m.Role == RoleSystem {
		return fmt.Errorf("%w: %q", ErrInvalidRole, m.Role)
	}
	h.msgs = append(h.msgs, m)
	return nil
}

// Reset drops every message except the system message.
func (h *History) Reset() {
	sys, ok := h.System()
	if !ok {
		h.msgs = nil
		return
	}
	h.msgs = []Message{sys}
}

// Len returns the number of messages, system message included.
func (h *History) Len() int {
	return len(h.msgs)
}

// Messages returns a copy of the full history in conversational order.
func (h *History) Messages() []Message {
	out := make([]Message, len(h.msgs))
	copy(out, h.msgs)
	return out
}

// Visible returns a copy of the history without the system message.
func (h *History) Visible() []Message {
	out := make([]Message, 0, len(h.msgs))
	for _, m := range h.msgs {
		if m.Role == RoleSystem {
			continue
		}
		out = append(out, m)
	}
	return out
}
