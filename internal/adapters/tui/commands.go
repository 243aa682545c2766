package tui

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/PabloGalante/groq-chat/internal/app/conversation"
)

const helpText = `Commands:
  /models                     list models
  /model <key>                switch model
  /personas                   list personas
  /persona <key> [text]       switch persona (text is the prompt for Custom)
  /temp <0.0-1.0>             set temperature
  /max <50-2000>              set max tokens per reply
  /stream on|off              toggle streaming
  /context <1024-32768>       set context window
  /clear                      clear the conversation
  /export                     archive the conversation
  /test                       test the API connection
  /help                       show this help
  /quit                       exit`

type command struct {
	name string
	args []string
	// rest is everything after the first argument, spacing preserved.
	rest string
}

// parseCommand splits "/persona Custom you are a pirate" into its name,
// fields and the raw text after the first argument.
func parseCommand(input string) (command, bool) {
	input = strings.TrimSpace(input)
	if !strings.HasPrefix(input, "/") {
		return command{}, false
	}

	name, tail, _ := strings.Cut(input, " ")
	cmd := command{name: strings.ToLower(name), args: strings.Fields(tail)}

	tail = strings.TrimSpace(tail)
	if _, after, ok := strings.Cut(tail, " "); ok {
		cmd.rest = strings.TrimSpace(after)
	}
	return cmd, true
}

// execCommand runs a slash command. Output goes to the transcript as a
// notice; long-running commands return a tea.Cmd.
func (m *Model) execCommand(input string) tea.Cmd {
	cmd, ok := parseCommand(input)
	if !ok {
		return nil
	}

	switch cmd.name {
	case "/quit", "/exit", "/q":
		return tea.Quit

	case "/help":
		m.notice(helpText)

	case "/models":
		current := m.sess.Settings().Model
		var b strings.Builder
		b.WriteString("Models:")
		for _, mdl := range m.sess.Models() {
			marker := " "
			if mdl.Key == current {
				marker = "*"
			}
			fmt.Fprintf(&b, "\n %s %s (%s): %s, %d tokens", marker, mdl.Key, mdl.Name, mdl.Description, mdl.MaxContext)
		}
		m.notice(b.String())

	case "/model":
		if len(cmd.args) == 0 {
			m.fail("usage: /model <key>")
			return nil
		}
		if err := m.sess.SetModel(cmd.args[0]); err != nil {
			m.fail(err.Error())
			return nil
		}
		m.notice("Model set to " + m.sess.CurrentModel().Name)

	case "/personas":
		current := m.sess.Settings().Persona
		var b strings.Builder
		b.WriteString("Personas:")
		for _, p := range m.sess.Personas() {
			marker := " "
			if p.Key == current {
				marker = "*"
			}
			fmt.Fprintf(&b, "\n %s %s", marker, p.Key)
		}
		m.notice(b.String())

	case "/persona":
		if len(cmd.args) == 0 {
			m.fail("usage: /persona <key> [custom text]")
			return nil
		}
		if err := m.sess.SetPersona(cmd.args[0], cmd.rest); err != nil {
			m.fail(err.Error())
			return nil
		}
		m.notice("Persona set to " + m.sess.CurrentPersona().Key)

	case "/temp":
		v, err := floatArg(cmd)
		if err == nil {
			err = m.sess.SetTemperature(v)
		}
		if err != nil {
			m.fail(fmt.Sprintf("/temp: %v (range %.1f-%.1f)", err, conversation.MinTemperature, conversation.MaxTemperature))
			return nil
		}
		m.notice(fmt.Sprintf("Temperature set to %.2f", v))

	case "/max":
		n, err := intArg(cmd)
		if err == nil {
			err = m.sess.SetMaxTokens(n)
		}
		if err != nil {
			m.fail(fmt.Sprintf("/max: %v (range %d-%d)", err, conversation.MinMaxTokens, conversation.MaxMaxTokens))
			return nil
		}
		m.notice(fmt.Sprintf("Max tokens set to %d", n))

	case "/context":
		n, err := intArg(cmd)
		if err == nil {
			err = m.sess.SetContextWindow(n)
		}
		if err != nil {
			m.fail(fmt.Sprintf("/context: %v (range %d-%d)", err, conversation.MinContextWindow, conversation.MaxContextWindow))
			return nil
		}
		m.notice(fmt.Sprintf("Context window set to %d", n))

	case "/stream":
		switch strings.ToLower(strings.Join(cmd.args, "")) {
		case "on":
			m.sess.SetStreaming(true)
			m.notice("Streaming on")
		case "off":
			m.sess.SetStreaming(false)
			m.notice("Streaming off")
		default:
			m.fail("usage: /stream on|off")
		}

	case "/clear":
		m.sess.Clear()
		m.entries = nil
		m.notice("Conversation cleared")

	case "/export":
		if m.archive == nil {
			m.fail("export is not configured")
			return nil
		}
		return tea.Batch(m.export(), m.spinner.Tick)

	case "/test":
		return tea.Batch(m.testConnection(), m.spinner.Tick)

	default:
		m.fail(fmt.Sprintf("unknown command %s, try /help", cmd.name))
	}
	return nil
}

func (m *Model) notice(s string) {
	m.entries = append(m.entries, entry{kind: entryNotice, content: s})
}

func (m *Model) fail(s string) {
	m.entries = append(m.entries, entry{kind: entryError, content: s})
}

func floatArg(cmd command) (float64, error) {
	if len(cmd.args) != 1 {
		return 0, fmt.Errorf("expected one number")
	}
	return strconv.ParseFloat(cmd.args[0], 64)
}

func intArg(cmd command) (int, error) {
	if len(cmd.args) != 1 {
		return 0, fmt.Errorf("expected one number")
	}
	return strconv.Atoi(cmd.args[0])
}
